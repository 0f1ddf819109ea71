// Package render composes the visual scene graph for a canvas frontend. It
// is a pure function of the diagram, the transform, and the interaction
// state; it never mutates any of them.
package render

import (
	"github.com/erdraft/erdraft/internal/canvas"
	"github.com/erdraft/erdraft/internal/diagram"
	"github.com/erdraft/erdraft/internal/interaction"
)

// curveReach is the minimum horizontal pull, in logical units, applied to
// the cubic control points so short connections still bow visibly.
const curveReach = 48.0

// Scene is the ordered drawing list. Layers are listed bottom-up: grid,
// areas, relationship curves, tables, notes, then the provisional curve of
// an in-flight connection. All coordinates are screen pixels.
type Scene struct {
	Grid          Grid
	Areas         []AreaShape
	Relationships []Curve
	Tables        []TableNode
	Notes         []NoteShape
	Pending       *Curve
}

// Grid describes the background pattern. Spacing is measured in logical
// units and pre-multiplied by the scale, so the pattern grows and shrinks
// with zoom; Offset is where the first line falls on screen.
type Grid struct {
	Spacing float64
	Offset  diagram.Point
}

// AreaShape is a background grouping rectangle.
type AreaShape struct {
	ID       string
	Label    string
	X, Y     float64
	W, H     float64
	Color    string
	Selected bool
}

// Curve is a cubic bezier between two connection points.
type Curve struct {
	ID          string
	Start       diagram.Point
	Control1    diagram.Point
	Control2    diagram.Point
	End         diagram.Point
	Cardinality diagram.Cardinality
	Dashed      bool
	Selected    bool
}

// TableNode is one rendered table: strip, header, and ordered field rows.
type TableNode struct {
	ID           string
	Name         string
	X, Y         float64
	W, H         float64
	StripHeight  float64
	HeaderHeight float64
	RowHeight    float64
	Color        string
	Locked       bool
	Selected     bool
	Rows         []FieldRow
}

// FieldRow is one field line inside a table node, with its two connection
// handle positions.
type FieldRow struct {
	FieldID     string
	Name        string
	Type        string
	Primary     bool
	NotNull     bool
	HandleLeft  diagram.Point
	HandleRight diagram.Point
}

// NoteShape is a free-floating annotation.
type NoteShape struct {
	ID      string
	Content string
	X, Y    float64
	W, H    float64
	Color   string
}

// Build composes the scene. It tolerates in-flight interaction states and
// skips relationships with dangling endpoints instead of failing the whole
// frame.
func Build(d *diagram.Diagram, tr *canvas.Transform, m *interaction.Machine, l diagram.Layout) *Scene {
	scale := tr.Scale
	s := &Scene{
		Grid: Grid{
			Spacing: l.GridSize * scale,
			Offset:  diagram.Point{X: tr.TranslateX, Y: tr.TranslateY},
		},
	}

	for _, a := range d.Areas {
		tl := tr.LogicalToScreen(diagram.Point{X: a.X, Y: a.Y})
		s.Areas = append(s.Areas, AreaShape{
			ID:    a.ID,
			Label: a.Label,
			X:     tl.X,
			Y:     tl.Y,
			W:     a.W * scale,
			H:     a.H * scale,
			Color: a.Color,
		})
	}

	selectedRel := ""
	selectedTable := ""
	if m != nil {
		selectedRel = m.SelectedRelationship()
		selectedTable = m.SelectedTable()
	}

	for _, r := range d.Relationships {
		c, ok := relationshipCurve(d, l, r)
		if !ok {
			continue // dangling endpoint, recovered locally
		}
		c.Start = tr.LogicalToScreen(c.Start)
		c.Control1 = tr.LogicalToScreen(c.Control1)
		c.Control2 = tr.LogicalToScreen(c.Control2)
		c.End = tr.LogicalToScreen(c.End)
		c.Selected = r.ID == selectedRel
		s.Relationships = append(s.Relationships, c)
	}

	for i := range d.Tables {
		t := &d.Tables[i]
		tl := tr.LogicalToScreen(diagram.Point{X: t.X, Y: t.Y})
		node := TableNode{
			ID:           t.ID,
			Name:         t.Name,
			X:            tl.X,
			Y:            tl.Y,
			W:            t.Width * scale,
			H:            l.TableHeight(t) * scale,
			StripHeight:  l.StripHeight * scale,
			HeaderHeight: l.HeaderHeight * scale,
			RowHeight:    l.FieldRowHeight * scale,
			Color:        t.Color,
			Locked:       t.Locked,
			Selected:     t.ID == selectedTable,
		}
		for j := range t.Fields {
			f := &t.Fields[j]
			node.Rows = append(node.Rows, FieldRow{
				FieldID:     f.ID,
				Name:        f.Name,
				Type:        f.Type,
				Primary:     f.Primary,
				NotNull:     f.NotNull,
				HandleLeft:  tr.LogicalToScreen(l.ConnectionPoint(t, j, false)),
				HandleRight: tr.LogicalToScreen(l.ConnectionPoint(t, j, true)),
			})
		}
		s.Tables = append(s.Tables, node)
	}

	for _, n := range d.Notes {
		tl := tr.LogicalToScreen(diagram.Point{X: n.X, Y: n.Y})
		s.Notes = append(s.Notes, NoteShape{
			ID:      n.ID,
			Content: n.Content,
			X:       tl.X,
			Y:       tl.Y,
			W:       n.W * scale,
			H:       n.H * scale,
			Color:   n.Color,
		})
	}

	if m != nil {
		if tableID, fieldID, ok := m.ConnectionOrigin(); ok {
			if c, found := pendingCurve(d, l, tableID, fieldID, m.ConnectionPointer()); found {
				c.Start = tr.LogicalToScreen(c.Start)
				c.Control1 = tr.LogicalToScreen(c.Control1)
				c.Control2 = tr.LogicalToScreen(c.Control2)
				c.End = tr.LogicalToScreen(c.End)
				s.Pending = &c
			}
		}
	}

	return s
}

// relationshipCurve computes a relationship's cubic curve in logical space.
// The sides are chosen so the curve bows outward: the start handle sits on
// the edge facing the end table and vice versa.
func relationshipCurve(d *diagram.Diagram, l diagram.Layout, r diagram.Relationship) (Curve, bool) {
	st := d.TableByID(r.StartTableID)
	et := d.TableByID(r.EndTableID)
	if st == nil || et == nil {
		return Curve{}, false
	}
	si := st.FieldIndex(r.StartFieldID)
	ei := et.FieldIndex(r.EndFieldID)
	if si < 0 || ei < 0 {
		return Curve{}, false
	}

	startRight := st.X+st.Width/2 <= et.X+et.Width/2
	start := l.ConnectionPoint(st, si, startRight)
	end := l.ConnectionPoint(et, ei, !startRight)

	c1, c2 := controlPoints(start, end, startRight)
	return Curve{
		ID:          r.ID,
		Start:       start,
		Control1:    c1,
		Control2:    c2,
		End:         end,
		Cardinality: r.Cardinality,
	}, true
}

// pendingCurve computes the dashed curve from a connection origin to the
// live pointer position.
func pendingCurve(d *diagram.Diagram, l diagram.Layout, tableID, fieldID string, pointer diagram.Point) (Curve, bool) {
	t := d.TableByID(tableID)
	if t == nil {
		return Curve{}, false
	}
	i := t.FieldIndex(fieldID)
	if i < 0 {
		return Curve{}, false
	}
	startRight := pointer.X >= t.X+t.Width/2
	start := l.ConnectionPoint(t, i, startRight)
	c1, c2 := controlPoints(start, pointer, startRight)
	return Curve{Start: start, Control1: c1, Control2: c2, End: pointer, Dashed: true}, true
}

func controlPoints(start, end diagram.Point, startRight bool) (diagram.Point, diagram.Point) {
	reach := (end.X - start.X) / 2
	if reach < 0 {
		reach = -reach
	}
	if reach < curveReach {
		reach = curveReach
	}
	dir := 1.0
	if !startRight {
		dir = -1.0
	}
	c1 := diagram.Point{X: start.X + dir*reach, Y: start.Y}
	c2 := diagram.Point{X: end.X - dir*reach, Y: end.Y}
	return c1, c2
}
