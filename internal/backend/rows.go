package backend

import (
	"context"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/plat-mapdraw/internal/datalog"
	"github.com/joeblew999/plat-mapdraw/internal/feature"
)

// PinInput is the body of a pins insert.
type PinInput struct {
	Name       string         `json:"name,omitempty"`
	Lat        float64        `json:"lat"`
	Lng        float64        `json:"lng"`
	Properties map[string]any `json:"properties,omitempty"`
}

// AreaInput is the body of an areas insert.
type AreaInput struct {
	Name      string            `json:"name,omitempty"`
	Geometry  *geojson.Geometry `json:"geometry"`
	AreaSqM   float64           `json:"area_sq_m"`
	CenterLat float64           `json:"center_lat"`
	CenterLng float64           `json:"center_lng"`
}

// CreatePin inserts a pin row.
func (c *Client) CreatePin(ctx context.Context, in PinInput) (Row, error) {
	return c.insert(ctx, PinsTable, in)
}

// CreateArea inserts an area row.
func (c *Client) CreateArea(ctx context.Context, in AreaInput) (Row, error) {
	return c.insert(ctx, AreasTable, in)
}

// Submit saves a data log entry to the table matching its feature type and
// returns the created row id.
func (c *Client) Submit(ctx context.Context, e datalog.Entry) (string, error) {
	typ, err := e.Type()
	if err != nil {
		return "", err
	}

	var row Row
	switch typ {
	case feature.Pin:
		p, ok := e.Feature.Geometry.(orb.Point)
		if !ok {
			return "", fmt.Errorf("%w: pin is %s", feature.ErrUnsupportedGeometry, e.Feature.Geometry.GeoJSONType())
		}
		row, err = c.CreatePin(ctx, PinInput{
			Name:       e.LabelString(),
			Lat:        p.Lat(),
			Lng:        p.Lon(),
			Properties: extraProperties(e.Feature),
		})
	case feature.Area:
		sum := feature.Summarize(e.Feature)
		row, err = c.CreateArea(ctx, AreaInput{
			Name:      e.LabelString(),
			Geometry:  geojson.NewGeometry(e.Feature.Geometry),
			AreaSqM:   sum.AreaSqM,
			CenterLat: sum.Center.Lat(),
			CenterLng: sum.Center.Lon(),
		})
	}
	if err != nil {
		return "", err
	}
	return row.ID(), nil
}

// extraProperties returns user properties other than the feature type.
func extraProperties(f *geojson.Feature) map[string]any {
	out := make(map[string]any, len(f.Properties))
	for k, v := range f.Properties {
		if k == feature.PropType {
			continue
		}
		out[k] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
