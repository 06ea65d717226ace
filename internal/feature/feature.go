// Package feature builds and validates the GeoJSON features drawn on the map.
//
// A map feature is a *geojson.Feature whose "featureType" property says which
// backend table it belongs to: pins are Points, areas are Polygons or
// MultiPolygons.
package feature

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Type is the kind of map feature, stored in properties.featureType.
type Type string

const (
	Pin  Type = "pin"
	Area Type = "area"
)

// PropType is the property key holding the feature Type.
const PropType = "featureType"

var (
	ErrInvalidGeometry     = errors.New("invalid geometry")
	ErrUnsupportedGeometry = errors.New("unsupported geometry type")
	ErrUnknownFeatureType  = errors.New("unknown feature type")
)

// ParseType parses a feature type name.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case Pin, Area:
		return Type(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFeatureType, s)
}

// NewPin returns a validated pin feature at p ([lng, lat]).
func NewPin(p orb.Point) (*geojson.Feature, error) {
	f := geojson.NewFeature(p)
	f.Properties[PropType] = string(Pin)
	if err := Validate(f); err != nil {
		return nil, err
	}
	return f, nil
}

// NewArea returns a validated area feature from the drawn vertices.
// The ring is closed if the last vertex does not repeat the first.
func NewArea(vertices []orb.Point) (*geojson.Feature, error) {
	ring := make(orb.Ring, len(vertices), len(vertices)+1)
	copy(ring, vertices)
	if len(ring) > 0 && !ring.Closed() {
		ring = append(ring, ring[0])
	}

	f := geojson.NewFeature(orb.Polygon{ring})
	f.Properties[PropType] = string(Area)
	if err := Validate(f); err != nil {
		return nil, err
	}
	return f, nil
}

// TypeOf returns the declared feature type of f.
func TypeOf(f *geojson.Feature) (Type, error) {
	if f == nil {
		return "", fmt.Errorf("%w: nil feature", ErrInvalidGeometry)
	}
	s, _ := f.Properties[PropType].(string)
	return ParseType(s)
}
