package canvas

import (
	"math"
	"testing"

	"github.com/erdraft/erdraft/internal/diagram"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestScreenLogicalRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		tr   Transform
		p    diagram.Point
	}{
		{"identity", Transform{Scale: 1}, diagram.Point{X: 10, Y: 20}},
		{"zoomed", Transform{Scale: 1.5, TranslateX: 40, TranslateY: -30}, diagram.Point{X: 100, Y: 250}},
		{"min scale", Transform{Scale: 0.25, TranslateX: -500, TranslateY: 800}, diagram.Point{X: 0, Y: 0}},
	}
	for _, tt := range tests {
		logical := tt.tr.ScreenToLogical(tt.p)
		back := tt.tr.LogicalToScreen(logical)
		if !almostEqual(back.X, tt.p.X) || !almostEqual(back.Y, tt.p.Y) {
			t.Errorf("%s: round trip %v -> %v -> %v", tt.name, tt.p, logical, back)
		}
	}
}

func TestScreenToLogicalClampsDegenerateScale(t *testing.T) {
	tr := Transform{Scale: 0} // mutated directly, bypassing clamped setters
	p := tr.ScreenToLogical(diagram.Point{X: 100, Y: 100})
	if math.IsInf(p.X, 0) || math.IsNaN(p.X) {
		t.Errorf("degenerate scale produced %v", p)
	}
}

func TestZoomAtKeepsPointFixed(t *testing.T) {
	tests := []struct {
		name   string
		tr     Transform
		screen diagram.Point
		factor float64
	}{
		{"zoom in at origin", Transform{Scale: 1}, diagram.Point{}, 1.2},
		{"zoom in at point", Transform{Scale: 1, TranslateX: 50, TranslateY: 50}, diagram.Point{X: 400, Y: 300}, 1.25},
		{"zoom out", Transform{Scale: 1.6, TranslateX: -200, TranslateY: 90}, diagram.Point{X: 640, Y: 360}, 0.5},
	}
	for _, tt := range tests {
		before := tt.tr.ScreenToLogical(tt.screen)
		tt.tr.ZoomAt(tt.screen, tt.factor)
		after := tt.tr.ScreenToLogical(tt.screen)
		if !almostEqual(before.X, after.X) || !almostEqual(before.Y, after.Y) {
			t.Errorf("%s: logical point moved %v -> %v", tt.name, before, after)
		}
	}
}

func TestZoomAtClampsScale(t *testing.T) {
	tr := Transform{Scale: 1}
	tr.ZoomAt(diagram.Point{}, 100)
	if tr.Scale != MaxScale {
		t.Errorf("scale = %v, want clamped %v", tr.Scale, MaxScale)
	}
	tr.ZoomAt(diagram.Point{}, 0.0001)
	if tr.Scale != MinScale {
		t.Errorf("scale = %v, want clamped %v", tr.Scale, MinScale)
	}
}

func TestSetTransformPartial(t *testing.T) {
	tr := NewTransform()
	scale := 1.5
	tx := 33.0
	tr.SetTransform(Partial{Scale: &scale, TranslateX: &tx})
	if tr.Scale != 1.5 || tr.TranslateX != 33 || tr.TranslateY != 0 {
		t.Errorf("partial update gave %+v", tr)
	}

	ty := -7.0
	tr.SetTransform(Partial{TranslateY: &ty})
	if tr.Scale != 1.5 || tr.TranslateX != 33 || tr.TranslateY != -7 {
		t.Errorf("second partial update gave %+v", tr)
	}
}

func TestReset(t *testing.T) {
	tr := &Transform{Scale: 1.7, TranslateX: 12, TranslateY: -9}
	tr.Reset()
	if tr.Scale != 1 || tr.TranslateX != 0 || tr.TranslateY != 0 {
		t.Errorf("after reset %+v", tr)
	}
}
