package feature

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// MinAreaVertices is the number of distinct vertices an area needs.
const MinAreaVertices = 3

// Validate checks that f is structurally valid GeoJSON for its declared
// feature type. Pins must be Points; areas must be Polygons or MultiPolygons
// whose rings are closed and have at least MinAreaVertices distinct vertices.
func Validate(f *geojson.Feature) error {
	typ, err := TypeOf(f)
	if err != nil {
		return err
	}
	if f.Geometry == nil {
		return fmt.Errorf("%w: missing geometry", ErrInvalidGeometry)
	}

	switch g := f.Geometry.(type) {
	case orb.Point:
		if typ != Pin {
			return fmt.Errorf("%w: %s feature cannot be a Point", ErrUnsupportedGeometry, typ)
		}
		return validatePoint(g)
	case orb.Polygon:
		if typ != Area {
			return fmt.Errorf("%w: %s feature cannot be a Polygon", ErrUnsupportedGeometry, typ)
		}
		return validatePolygon(g)
	case orb.MultiPolygon:
		if typ != Area {
			return fmt.Errorf("%w: %s feature cannot be a MultiPolygon", ErrUnsupportedGeometry, typ)
		}
		if len(g) == 0 {
			return fmt.Errorf("%w: empty MultiPolygon", ErrInvalidGeometry)
		}
		for i, p := range g {
			if err := validatePolygon(p); err != nil {
				return fmt.Errorf("polygon %d: %w", i, err)
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedGeometry, f.Geometry.GeoJSONType())
	}
}

// ValidPosition checks that p is a finite [lng, lat] pair on the globe.
func ValidPosition(p orb.Point) error {
	return validatePoint(p)
}

func validatePoint(p orb.Point) error {
	lng, lat := p.Lon(), p.Lat()
	if !finite(lng) || !finite(lat) {
		return fmt.Errorf("%w: non-finite coordinate", ErrInvalidGeometry)
	}
	if lng < -180 || lng > 180 {
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalidGeometry, lng)
	}
	if lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidGeometry, lat)
	}
	return nil
}

func validatePolygon(poly orb.Polygon) error {
	if len(poly) == 0 {
		return fmt.Errorf("%w: polygon has no rings", ErrInvalidGeometry)
	}
	for i, ring := range poly {
		if err := validateRing(ring); err != nil {
			return fmt.Errorf("ring %d: %w", i, err)
		}
	}
	return nil
}

func validateRing(ring orb.Ring) error {
	if len(ring) < MinAreaVertices+1 {
		return fmt.Errorf("%w: ring needs at least %d positions, got %d",
			ErrInvalidGeometry, MinAreaVertices+1, len(ring))
	}
	if !ring.Closed() {
		return fmt.Errorf("%w: ring is not closed", ErrInvalidGeometry)
	}
	for _, p := range ring {
		if err := validatePoint(p); err != nil {
			return err
		}
	}
	if n := DistinctVertices(ring); n < MinAreaVertices {
		return fmt.Errorf("%w: ring has %d distinct vertices, need %d",
			ErrInvalidGeometry, n, MinAreaVertices)
	}
	return nil
}

// DistinctVertices counts the unique positions in pts.
func DistinctVertices(pts []orb.Point) int {
	seen := make(map[orb.Point]struct{}, len(pts))
	for _, p := range pts {
		seen[p] = struct{}{}
	}
	return len(seen)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
