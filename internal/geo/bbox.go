// Package geo derives indexable spatial fields from chunk geometry.
package geo

import (
	"encoding/json"
	"fmt"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// BoundingBox is a WGS84 axis-aligned rectangle around a geometry.
type BoundingBox struct {
	MinX, MinY, MaxX, MaxY float64
}

// Valid reports whether the box lies within WGS84 coordinate range.
func (b BoundingBox) Valid() bool {
	return b.MinX >= -180 && b.MaxX <= 180 &&
		b.MinY >= -90 && b.MaxY <= 90 &&
		b.MinX <= b.MaxX && b.MinY <= b.MaxY
}

// Envelope returns the box in the engine's envelope shape format:
// upper-left and lower-right corner coordinates.
func (b BoundingBox) Envelope() map[string]any {
	return map[string]any{
		"type":        "envelope",
		"coordinates": [][]float64{{b.MinX, b.MaxY}, {b.MaxX, b.MinY}},
	}
}

// Bounds parses raw GeoJSON (a geometry object or a feature) and computes
// its bounding box.
func Bounds(raw []byte) (BoundingBox, error) {
	g, err := decodeGeometry(raw)
	if err != nil {
		return BoundingBox{}, err
	}

	bounds := g.Bounds()
	if bounds == nil || bounds.IsEmpty() {
		return BoundingBox{}, fmt.Errorf("geometry has no extent")
	}

	b := BoundingBox{
		MinX: bounds.Min(0),
		MinY: bounds.Min(1),
		MaxX: bounds.Max(0),
		MaxY: bounds.Max(1),
	}
	if !b.Valid() {
		return BoundingBox{}, fmt.Errorf("bounding box out of WGS84 range: %+v", b)
	}
	return b, nil
}

func decodeGeometry(raw []byte) (geom.T, error) {
	var g geom.T
	if err := geojson.Unmarshal(raw, &g); err == nil {
		return g, nil
	}

	var f geojson.Feature
	if err := json.Unmarshal(raw, &f); err != nil || f.Geometry == nil {
		return nil, fmt.Errorf("parse geometry: not a GeoJSON geometry or feature")
	}
	return f.Geometry, nil
}
