package api

import (
	"encoding/json"
	"fmt"
	"maps"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/plat-mapdraw/internal/datalog"
	"github.com/joeblew999/plat-mapdraw/internal/feature"
	"github.com/joeblew999/plat-mapdraw/internal/humastar"
)

// GeometryBody is a GeoJSON geometry object.
type GeometryBody struct {
	Type        string `json:"type" enum:"Point,Polygon,MultiPolygon" doc:"GeoJSON geometry type"`
	Coordinates any    `json:"coordinates" doc:"GeoJSON coordinates, [lng, lat] order"`
}

// FeatureBody is a GeoJSON feature object.
type FeatureBody struct {
	Type       string         `json:"type" enum:"Feature" default:"Feature"`
	Geometry   GeometryBody   `json:"geometry"`
	Properties map[string]any `json:"properties,omitempty" doc:"Feature properties; featureType is derived from the geometry when absent"`
}

// EntryBody is a data log entry.
type EntryBody struct {
	ID        string      `json:"id" doc:"Entry id"`
	Type      string      `json:"type" enum:"pin,area" doc:"Feature type"`
	Label     *string     `json:"label" doc:"User label"`
	Timestamp int64       `json:"timestamp" doc:"Creation time, Unix milliseconds"`
	Feature   FeatureBody `json:"feature"`
}

// Actions links the entry to its removal.
func (e EntryBody) Actions() []humastar.Action {
	return []humastar.Action{{
		Rel: "delete", Href: "/api/v1/datalog/" + e.ID, Method: "DELETE", Title: "Remove from data log",
	}}
}

func entryBody(e datalog.Entry) EntryBody {
	typ, _ := e.Type()
	return EntryBody{
		ID:        e.ID,
		Type:      string(typ),
		Label:     e.Label,
		Timestamp: e.Timestamp,
		Feature:   featureBody(e.Feature),
	}
}

func featureBody(f *geojson.Feature) FeatureBody {
	body := FeatureBody{Type: "Feature", Properties: maps.Clone(map[string]any(f.Properties))}
	if f.Geometry != nil {
		body.Geometry = GeometryBody{Type: f.Geometry.GeoJSONType(), Coordinates: f.Geometry}
	}
	return body
}

// toFeature decodes a feature body. The feature type defaults to the one
// implied by the geometry.
func toFeature(body FeatureBody) (*geojson.Feature, error) {
	raw, err := json.Marshal(body.Geometry)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", feature.ErrInvalidGeometry, err)
	}
	g, err := geojson.UnmarshalGeometry(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", feature.ErrInvalidGeometry, err)
	}

	f := geojson.NewFeature(g.Geometry())
	maps.Copy(f.Properties, body.Properties)
	if _, ok := f.Properties[feature.PropType]; !ok {
		switch f.Geometry.(type) {
		case orb.Point:
			f.Properties[feature.PropType] = string(feature.Pin)
		case orb.Polygon, orb.MultiPolygon:
			f.Properties[feature.PropType] = string(feature.Area)
		}
	}
	return f, nil
}
