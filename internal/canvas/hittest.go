package canvas

import "github.com/erdraft/erdraft/internal/diagram"

// HandleRadius is the pick distance, in logical units, around a field's
// connection point.
const HandleRadius = 8.0

// HitKind classifies what sits under a logical point.
type HitKind int

const (
	HitEmpty HitKind = iota
	HitArea
	HitNote
	HitTableHeader
	HitTableBody
	HitFieldRow
	HitFieldHandle
)

// Hit is the result of a hit test. TableID/FieldID/NoteID/AreaID are set
// according to Kind; FieldIndex is the row position for field hits.
type Hit struct {
	Kind       HitKind
	TableID    string
	FieldID    string
	FieldIndex int
	NoteID     string
	AreaID     string
}

// HitTest resolves a logical point top-down: tables above notes above
// areas, later entities above earlier ones within a layer. Connection
// handles win over the field row they sit on.
func HitTest(d *diagram.Diagram, l diagram.Layout, p diagram.Point) Hit {
	for i := len(d.Tables) - 1; i >= 0; i-- {
		t := &d.Tables[i]
		if h, ok := hitTable(t, l, p); ok {
			return h
		}
	}
	for i := len(d.Notes) - 1; i >= 0; i-- {
		n := &d.Notes[i]
		if inRect(p, n.X, n.Y, n.W, n.H) {
			return Hit{Kind: HitNote, NoteID: n.ID}
		}
	}
	for i := len(d.Areas) - 1; i >= 0; i-- {
		a := &d.Areas[i]
		if inRect(p, a.X, a.Y, a.W, a.H) {
			return Hit{Kind: HitArea, AreaID: a.ID}
		}
	}
	return Hit{Kind: HitEmpty, FieldIndex: -1}
}

func hitTable(t *diagram.Table, l diagram.Layout, p diagram.Point) (Hit, bool) {
	// Handles stick out past the table edges, so test them before the
	// body rectangle.
	for i := range t.Fields {
		for _, right := range []bool{false, true} {
			cp := l.ConnectionPoint(t, i, right)
			if dist2(p, cp) <= HandleRadius*HandleRadius {
				return Hit{
					Kind:       HitFieldHandle,
					TableID:    t.ID,
					FieldID:    t.Fields[i].ID,
					FieldIndex: i,
				}, true
			}
		}
	}

	if !inRect(p, t.X, t.Y, t.Width, l.TableHeight(t)) {
		return Hit{}, false
	}

	headerBottom := t.Y + l.StripHeight + l.HeaderHeight
	if p.Y < headerBottom {
		return Hit{Kind: HitTableHeader, TableID: t.ID, FieldIndex: -1}, true
	}

	row := int((p.Y - headerBottom) / l.FieldRowHeight)
	if row >= 0 && row < len(t.Fields) {
		return Hit{
			Kind:       HitFieldRow,
			TableID:    t.ID,
			FieldID:    t.Fields[row].ID,
			FieldIndex: row,
		}, true
	}

	// Bottom padding strip.
	return Hit{Kind: HitTableBody, TableID: t.ID, FieldIndex: -1}, true
}

func inRect(p diagram.Point, x, y, w, h float64) bool {
	return p.X >= x && p.X <= x+w && p.Y >= y && p.Y <= y+h
}

func dist2(a, b diagram.Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx + dy*dy
}
