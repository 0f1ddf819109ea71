// Package canvas maps between screen pixels and the diagram's logical
// coordinate space, and resolves logical points to the entities under them.
package canvas

import "github.com/erdraft/erdraft/internal/diagram"

// Scale bounds. Conversions clamp away from zero so a screen→logical
// division can never blow up, even on a transform mutated by a careless
// caller.
const (
	MinScale = 0.25
	MaxScale = 2.0
)

// Transform holds the pan/zoom state of the canvas. Translate is in screen
// pixels, scale is the logical→screen magnification.
type Transform struct {
	Scale      float64
	TranslateX float64
	TranslateY float64
}

// NewTransform returns the identity transform.
func NewTransform() *Transform {
	return &Transform{Scale: 1}
}

// Partial is a partial transform update; nil fields are left unchanged.
// Callers are responsible for clamping Scale into [MinScale, MaxScale].
type Partial struct {
	Scale      *float64
	TranslateX *float64
	TranslateY *float64
}

// SetTransform merges a partial update into the transform.
func (t *Transform) SetTransform(p Partial) {
	if p.Scale != nil {
		t.Scale = *p.Scale
	}
	if p.TranslateX != nil {
		t.TranslateX = *p.TranslateX
	}
	if p.TranslateY != nil {
		t.TranslateY = *p.TranslateY
	}
}

// ScreenToLogical converts a screen point into logical diagram space.
func (t *Transform) ScreenToLogical(p diagram.Point) diagram.Point {
	s := t.safeScale()
	return diagram.Point{
		X: (p.X - t.TranslateX) / s,
		Y: (p.Y - t.TranslateY) / s,
	}
}

// LogicalToScreen converts a logical point into screen space.
func (t *Transform) LogicalToScreen(p diagram.Point) diagram.Point {
	return diagram.Point{
		X: p.X*t.Scale + t.TranslateX,
		Y: p.Y*t.Scale + t.TranslateY,
	}
}

// ZoomAt multiplies the scale by factor (clamped to the scale bounds) and
// recomputes the translate so the logical point under the given screen
// point stays visually fixed.
func (t *Transform) ZoomAt(screen diagram.Point, factor float64) {
	oldScale := t.safeScale()
	newScale := clampScale(oldScale * factor)
	ratio := newScale / oldScale
	t.TranslateX = screen.X - (screen.X-t.TranslateX)*ratio
	t.TranslateY = screen.Y - (screen.Y-t.TranslateY)*ratio
	t.Scale = newScale
}

// Reset returns to scale 1, translate (0, 0).
func (t *Transform) Reset() {
	t.Scale = 1
	t.TranslateX = 0
	t.TranslateY = 0
}

func (t *Transform) safeScale() float64 {
	return clampScale(t.Scale)
}

func clampScale(s float64) float64 {
	if s < MinScale {
		return MinScale
	}
	if s > MaxScale {
		return MaxScale
	}
	return s
}
