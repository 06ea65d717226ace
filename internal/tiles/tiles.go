// Package tiles renders staged map features as Mapbox vector tiles, so the
// map can draw pending edits on top of the base layers.
//
// Uses paulmach/orb for clipping, simplification and MVT encoding.
package tiles

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/clip"
	"github.com/paulmach/orb/encoding/mvt"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/maptile"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/simplify"
)

// LayerName is the vector tile layer holding staged features.
const LayerName = "datalog"

// MaxZoom is the deepest zoom served.
const MaxZoom = 22

// ContentType is the media type of an encoded tile.
const ContentType = "application/vnd.mapbox-vector-tile"

// ErrBadTile is returned for out-of-range tile coordinates.
var ErrBadTile = errors.New("tile coordinates out of range")

// Tile validates z/x/y and returns the maptile.
func Tile(z, x, y int) (maptile.Tile, error) {
	if z < 0 || z > MaxZoom {
		return maptile.Tile{}, fmt.Errorf("%w: zoom %d", ErrBadTile, z)
	}
	n := 1 << uint(z)
	if x < 0 || x >= n || y < 0 || y >= n {
		return maptile.Tile{}, fmt.Errorf("%w: %d/%d/%d", ErrBadTile, z, x, y)
	}
	return maptile.New(uint32(x), uint32(y), maptile.Zoom(z)), nil
}

// Render encodes the features of fc intersecting tile as a gzipped MVT.
// It returns nil when no feature reaches the tile.
func Render(fc *geojson.FeatureCollection, tile maptile.Tile) ([]byte, error) {
	out := geojson.NewFeatureCollection()
	tileBound := tile.Bound()

	for _, f := range fc.Features {
		if f.Geometry == nil || !intersectsTile(f.Geometry, tileBound) {
			continue
		}

		// Clip and ProjectToTile mutate in place; fc must stay intact.
		clone := geojson.NewFeature(orb.Clone(f.Geometry))
		for k, v := range f.Properties {
			clone.Properties[k] = v
		}
		out.Append(clone)
	}
	if len(out.Features) == 0 {
		return nil, nil
	}

	layer := mvt.NewLayer(LayerName, out)
	if epsilon := simplifyEpsilon(tile.Z); epsilon > 0 {
		layer.Simplify(simplify.DouglasPeucker(epsilon))
	}
	layer.Clip(tileBound)
	layer.ProjectToTile(tile)
	layer.RemoveEmpty(0.5, 0.5)
	if len(layer.Features) == 0 {
		return nil, nil
	}

	data, err := mvt.MarshalGzipped(mvt.Layers{layer})
	if err != nil {
		return nil, fmt.Errorf("encoding tile %d/%d/%d: %w", tile.Z, tile.X, tile.Y, err)
	}
	return data, nil
}

// intersectsTile reports whether geom reaches into the tile, beyond a
// bounding box overlap.
func intersectsTile(geom orb.Geometry, tileBound orb.Bound) bool {
	if !geom.Bound().Intersects(tileBound) {
		return false
	}

	switch g := geom.(type) {
	case orb.Point:
		return tileBound.Contains(g)

	case orb.Polygon:
		for _, ring := range g {
			for _, p := range ring {
				if tileBound.Contains(p) {
					return true
				}
			}
		}
		// An edge may cross the tile with both ends outside it.
		for _, ring := range g {
			if len(clip.LineString(tileBound, orb.LineString(ring))) > 0 {
				return true
			}
		}
		// The polygon may cover the tile without touching it.
		corners := []orb.Point{
			tileBound.Min,
			{tileBound.Max[0], tileBound.Min[1]},
			tileBound.Max,
			{tileBound.Min[0], tileBound.Max[1]},
			tileBound.Center(),
		}
		for _, p := range corners {
			if planar.PolygonContains(g, p) {
				return true
			}
		}
		return false

	case orb.MultiPolygon:
		for _, poly := range g {
			if intersectsTile(poly, tileBound) {
				return true
			}
		}
		return false

	default:
		return true
	}
}

// simplifyEpsilon returns the simplification tolerance in degrees for a
// zoom level. Hand-drawn areas are small, so tolerances stay tight.
func simplifyEpsilon(zoom maptile.Zoom) float64 {
	switch {
	case zoom >= 14:
		return 0
	case zoom >= 10:
		return 0.00001
	case zoom >= 6:
		return 0.0001
	default:
		return 0.0005
	}
}
