package diagram

// Point is a position in either logical or screen space; which one is
// determined by context.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Layout holds the shared geometry constants for table nodes. Hit-testing,
// rendering, and connection-point math all read the same value so the three
// can never drift apart.
type Layout struct {
	StripHeight       float64 // colored strip above the header
	HeaderHeight      float64 // table name row
	FieldRowHeight    float64
	Padding           float64 // bottom padding below the last field row
	DefaultTableWidth float64
	GridSize          float64 // logical units between background grid lines
}

// DefaultLayout returns the geometry used by the stock canvas frontend.
func DefaultLayout() Layout {
	return Layout{
		StripHeight:       7,
		HeaderHeight:      34,
		FieldRowHeight:    30,
		Padding:           6,
		DefaultTableWidth: 200,
		GridSize:          24,
	}
}

// TableHeight derives a table's height from its field count. Height is
// never stored on the table itself.
func (l Layout) TableHeight(t *Table) float64 {
	return l.StripHeight + l.HeaderHeight + float64(len(t.Fields))*l.FieldRowHeight + l.Padding
}

// ConnectionPoint returns the logical position of a field's relationship
// handle. The handle sits on the table's right edge when right is true,
// otherwise on the left edge, vertically centered on the field's row.
func (l Layout) ConnectionPoint(t *Table, fieldIndex int, right bool) Point {
	x := t.X
	if right {
		x = t.X + t.Width
	}
	y := t.Y + l.StripHeight + l.HeaderHeight +
		float64(fieldIndex)*l.FieldRowHeight + l.FieldRowHeight/2
	return Point{X: x, Y: y}
}

// FieldRowRect returns the logical bounding box of a field row as
// (x, y, w, h).
func (l Layout) FieldRowRect(t *Table, fieldIndex int) (float64, float64, float64, float64) {
	y := t.Y + l.StripHeight + l.HeaderHeight + float64(fieldIndex)*l.FieldRowHeight
	return t.X, y, t.Width, l.FieldRowHeight
}
