package feature

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// Item is a staged feature with its data log metadata.
type Item struct {
	ID        string
	Label     string
	Timestamp int64
	Feature   *geojson.Feature
}

// Collection builds a FeatureCollection for rendering the staged items.
// Each output feature gets its own properties map carrying entryId, label
// and timestamp alongside the original properties.
func Collection(items []Item) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, it := range items {
		if it.Feature == nil || it.Feature.Geometry == nil {
			continue
		}
		f := geojson.NewFeature(it.Feature.Geometry)
		f.ID = it.ID
		for k, v := range it.Feature.Properties {
			f.Properties[k] = v
		}
		f.Properties["entryId"] = it.ID
		f.Properties["timestamp"] = it.Timestamp
		if it.Label != "" {
			f.Properties["label"] = it.Label
		}
		fc.Append(f)
	}
	return fc
}

// Summary holds derived measurements sent along with a feature.
type Summary struct {
	Center  orb.Point
	AreaSqM float64
}

// Summarize returns the centroid and geodesic area (square meters) of f.
func Summarize(f *geojson.Feature) Summary {
	switch g := f.Geometry.(type) {
	case nil:
		return Summary{}
	case orb.Point:
		return Summary{Center: g}
	default:
		center, _ := planar.CentroidArea(g)
		return Summary{Center: center, AreaSqM: math.Abs(geo.Area(g))}
	}
}
