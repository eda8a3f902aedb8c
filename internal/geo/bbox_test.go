package geo

import "testing"

func TestBounds_Point(t *testing.T) {
	b, err := Bounds([]byte(`{"type":"Point","coordinates":[13.38,52.52]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.MinX != 13.38 || b.MaxX != 13.38 || b.MinY != 52.52 || b.MaxY != 52.52 {
		t.Errorf("bounds = %+v", b)
	}
}

func TestBounds_Polygon(t *testing.T) {
	raw := []byte(`{"type":"Polygon","coordinates":[[[8.6,49.8],[8.7,49.8],[8.7,49.9],[8.6,49.9],[8.6,49.8]]]}`)
	b, err := Bounds(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.MinX != 8.6 || b.MaxX != 8.7 || b.MinY != 49.8 || b.MaxY != 49.9 {
		t.Errorf("bounds = %+v", b)
	}
}

func TestBounds_Feature(t *testing.T) {
	raw := []byte(`{"type":"Feature","properties":{"name":"spot"},"geometry":{"type":"Point","coordinates":[2.35,48.85]}}`)
	b, err := Bounds(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.MinX != 2.35 || b.MinY != 48.85 {
		t.Errorf("bounds = %+v", b)
	}
}

func TestBounds_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `<gml></gml>`},
		{"no geometry", `{"type":"Feature","properties":{}}`},
		{"out of range", `{"type":"Point","coordinates":[200,95]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Bounds([]byte(tt.raw)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestBoundingBox_Envelope(t *testing.T) {
	b := BoundingBox{MinX: 8.6, MinY: 49.8, MaxX: 8.7, MaxY: 49.9}
	env := b.Envelope()

	if env["type"] != "envelope" {
		t.Errorf("type = %v", env["type"])
	}
	coords := env["coordinates"].([][]float64)
	// upper-left then lower-right
	if coords[0][0] != 8.6 || coords[0][1] != 49.9 || coords[1][0] != 8.7 || coords[1][1] != 49.8 {
		t.Errorf("coordinates = %v", coords)
	}
}

func TestBoundingBox_Valid(t *testing.T) {
	if (BoundingBox{MinX: -181}).Valid() {
		t.Error("longitude below -180 must be invalid")
	}
	if !(BoundingBox{MinX: -10, MinY: -10, MaxX: 10, MaxY: 10}).Valid() {
		t.Error("expected valid box")
	}
	if (BoundingBox{MinX: 10, MinY: 0, MaxX: -10, MaxY: 1}).Valid() {
		t.Error("inverted box must be invalid")
	}
}
