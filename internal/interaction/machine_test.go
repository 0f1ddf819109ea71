package interaction

import (
	"testing"

	"github.com/erdraft/erdraft/internal/canvas"
	"github.com/erdraft/erdraft/internal/diagram"
	"github.com/erdraft/erdraft/internal/dialect"
	"github.com/erdraft/erdraft/internal/store"
)

// newTestMachine builds a machine over a store holding two tables with one
// field each, side by side at identity transform.
func newTestMachine(t *testing.T) (*Machine, *store.Store, *canvas.Transform, diagram.Table, diagram.Table) {
	t.Helper()
	s := store.New(diagram.New("test", dialect.MySQL), 0)
	a := diagram.NewTable("a", 100, 100)
	a.Fields = []diagram.Field{diagram.NewField("id", "INT")}
	b := diagram.NewTable("b", 500, 100)
	b.Fields = []diagram.Field{diagram.NewField("a_id", "INT")}
	if err := s.AddTable(a); err != nil {
		t.Fatal(err)
	}
	if err := s.AddTable(b); err != nil {
		t.Fatal(err)
	}
	tr := canvas.NewTransform()
	m := New(s, tr, diagram.DefaultLayout(), DefaultRelationshipDefaults())
	return m, s, tr, a, b
}

func headerPoint(t diagram.Table) diagram.Point {
	return diagram.Point{X: t.X + 50, Y: t.Y + 20}
}

func TestDragTableAtScale(t *testing.T) {
	m, s, tr, a, _ := newTestMachine(t)
	tr.Scale = 1.5
	// At scale 1.5 with zero translate, logical (150, 120) is screen (225, 180).
	start := diagram.Point{X: (a.X + 50) * 1.5, Y: (a.Y + 20) * 1.5}

	m.PointerDown(PointerEvent{Screen: start})
	if m.State() != DraggingTable {
		t.Fatalf("state = %v, want DraggingTable", m.State())
	}

	m.PointerMove(PointerEvent{Screen: diagram.Point{X: start.X + 120, Y: start.Y + 30}})
	m.PointerUp(PointerEvent{Screen: diagram.Point{X: start.X + 120, Y: start.Y + 30}})

	got := s.Diagram().TableByID(a.ID)
	// Screen delta (120, 30) divided by scale 1.5 is logical (80, 20).
	if got.X != 180 || got.Y != 120 {
		t.Errorf("table at (%v, %v), want (180, 120)", got.X, got.Y)
	}
	if m.State() != Idle {
		t.Errorf("state after up = %v, want Idle", m.State())
	}

	// The whole drag is one undo entry.
	s.Undo()
	got = s.Diagram().TableByID(a.ID)
	if got.X != 100 || got.Y != 100 {
		t.Errorf("after undo table at (%v, %v), want (100, 100)", got.X, got.Y)
	}
}

func TestDragSelectsTable(t *testing.T) {
	m, _, _, a, _ := newTestMachine(t)
	m.PointerDown(PointerEvent{Screen: headerPoint(a)})
	if m.SelectedTable() != a.ID {
		t.Errorf("selected = %q, want %q", m.SelectedTable(), a.ID)
	}
}

func TestLockedTableSelectsButNeverDrags(t *testing.T) {
	m, s, _, a, _ := newTestMachine(t)
	tbl := *s.Diagram().TableByID(a.ID)
	tbl.Locked = true
	if err := s.UpdateTable(tbl); err != nil {
		t.Fatal(err)
	}

	m.PointerDown(PointerEvent{Screen: headerPoint(a)})
	if m.State() != Idle {
		t.Errorf("state = %v, want Idle for locked table", m.State())
	}
	if m.SelectedTable() != a.ID {
		t.Error("locked table should still become selected")
	}
}

func TestEscapeRollsBackDrag(t *testing.T) {
	m, s, _, a, _ := newTestMachine(t)
	start := headerPoint(a)

	m.PointerDown(PointerEvent{Screen: start})
	m.PointerMove(PointerEvent{Screen: diagram.Point{X: start.X + 300, Y: start.Y}})
	if got := s.Diagram().TableByID(a.ID); got.X != a.X+300 {
		t.Fatalf("mid-drag x = %v", got.X)
	}

	m.Escape()
	got := s.Diagram().TableByID(a.ID)
	if got.X != a.X || got.Y != a.Y {
		t.Errorf("after escape table at (%v, %v), want (%v, %v)", got.X, got.Y, a.X, a.Y)
	}
	if m.State() != Idle {
		t.Errorf("state = %v, want Idle", m.State())
	}
}

func TestPanning(t *testing.T) {
	m, _, tr, _, _ := newTestMachine(t)

	m.PointerDown(PointerEvent{Screen: diagram.Point{X: 1000, Y: 1000}, Button: ButtonMiddle})
	if m.State() != Panning {
		t.Fatalf("state = %v, want Panning", m.State())
	}

	m.PointerMove(PointerEvent{Screen: diagram.Point{X: 1040, Y: 970}})
	if tr.TranslateX != 40 || tr.TranslateY != -30 {
		t.Errorf("translate = (%v, %v), want (40, -30)", tr.TranslateX, tr.TranslateY)
	}

	// Escape ends the pan but keeps the translate: panning never touches
	// the store, so there is nothing to roll back.
	m.Escape()
	if m.State() != Idle {
		t.Errorf("state = %v, want Idle", m.State())
	}
	if tr.TranslateX != 40 || tr.TranslateY != -30 {
		t.Error("escape reverted the pan translate")
	}
}

func TestModifierPansOverEmptySpace(t *testing.T) {
	m, _, _, _, _ := newTestMachine(t)
	m.PointerDown(PointerEvent{Screen: diagram.Point{X: 2000, Y: 2000}, Modifier: true})
	if m.State() != Panning {
		t.Errorf("state = %v, want Panning with modifier", m.State())
	}
}

func TestEmptyClickClearsSelection(t *testing.T) {
	m, _, _, a, _ := newTestMachine(t)
	m.PointerDown(PointerEvent{Screen: headerPoint(a)})
	m.PointerUp(PointerEvent{Screen: headerPoint(a)})
	if m.SelectedTable() != a.ID {
		t.Fatal("setup: table not selected")
	}

	m.PointerDown(PointerEvent{Screen: diagram.Point{X: 3000, Y: 3000}})
	if m.SelectedTable() != "" {
		t.Error("empty click did not clear the selection")
	}
}

func TestConnectGestureCreatesRelationship(t *testing.T) {
	m, s, _, a, b := newTestMachine(t)
	l := diagram.DefaultLayout()
	at := s.Diagram().TableByID(a.ID)
	bt := s.Diagram().TableByID(b.ID)
	startHandle := l.ConnectionPoint(at, 0, true)
	endHandle := l.ConnectionPoint(bt, 0, false)

	m.PointerDown(PointerEvent{Screen: startHandle})
	if m.State() != Connecting {
		t.Fatalf("state = %v, want Connecting", m.State())
	}
	if tableID, fieldID, ok := m.ConnectionOrigin(); !ok || tableID != a.ID || fieldID != a.Fields[0].ID {
		t.Fatalf("origin = %s/%s/%v", tableID, fieldID, ok)
	}

	m.PointerMove(PointerEvent{Screen: diagram.Point{X: 400, Y: 150}})
	m.PointerUp(PointerEvent{Screen: endHandle})

	rels := s.Diagram().Relationships
	if len(rels) != 1 {
		t.Fatalf("relationships = %d, want 1", len(rels))
	}
	r := rels[0]
	if r.StartTableID != a.ID || r.StartFieldID != a.Fields[0].ID ||
		r.EndTableID != b.ID || r.EndFieldID != b.Fields[0].ID {
		t.Errorf("relationship endpoints = %+v", r)
	}
	if r.Cardinality != diagram.OneToMany || r.OnUpdate != diagram.NoAction || r.OnDelete != diagram.Cascade {
		t.Errorf("relationship defaults = %v/%v/%v", r.Cardinality, r.OnUpdate, r.OnDelete)
	}
	if m.State() != Idle {
		t.Errorf("state after up = %v, want Idle", m.State())
	}
}

func TestConnectReleaseOverSameHandleIsSilent(t *testing.T) {
	m, s, _, a, _ := newTestMachine(t)
	l := diagram.DefaultLayout()
	handle := l.ConnectionPoint(s.Diagram().TableByID(a.ID), 0, true)

	m.PointerDown(PointerEvent{Screen: handle})
	m.PointerUp(PointerEvent{Screen: handle})

	if n := len(s.Diagram().Relationships); n != 0 {
		t.Errorf("relationships = %d, want 0 for self-connection", n)
	}
	if m.State() != Idle {
		t.Errorf("state = %v, want Idle", m.State())
	}
}

func TestConnectReleaseOverEmptyCancels(t *testing.T) {
	m, s, _, a, _ := newTestMachine(t)
	l := diagram.DefaultLayout()
	handle := l.ConnectionPoint(s.Diagram().TableByID(a.ID), 0, true)

	m.PointerDown(PointerEvent{Screen: handle})
	m.PointerUp(PointerEvent{Screen: diagram.Point{X: 3000, Y: 3000}})

	if n := len(s.Diagram().Relationships); n != 0 {
		t.Errorf("relationships = %d, want 0", n)
	}
}

func TestEscapeCancelsConnectWithoutMutation(t *testing.T) {
	m, s, _, a, _ := newTestMachine(t)
	l := diagram.DefaultLayout()
	handle := l.ConnectionPoint(s.Diagram().TableByID(a.ID), 0, true)
	undoBefore := s.CanUndo()

	m.PointerDown(PointerEvent{Screen: handle})
	m.PointerMove(PointerEvent{Screen: diagram.Point{X: 400, Y: 400}})
	m.Escape()

	if n := len(s.Diagram().Relationships); n != 0 {
		t.Errorf("relationships = %d, want 0", n)
	}
	if s.CanUndo() != undoBefore {
		t.Error("cancelled connect gesture touched the history")
	}
	if m.State() != Idle {
		t.Errorf("state = %v, want Idle", m.State())
	}
}

func TestPointerLeaveCommitsDrag(t *testing.T) {
	m, s, _, a, _ := newTestMachine(t)
	start := headerPoint(a)

	m.PointerDown(PointerEvent{Screen: start})
	m.PointerMove(PointerEvent{Screen: diagram.Point{X: start.X + 60, Y: start.Y}})
	m.PointerLeave()

	got := s.Diagram().TableByID(a.ID)
	if got.X != a.X+60 {
		t.Errorf("x = %v, want committed %v", got.X, a.X+60)
	}
	if m.State() != Idle {
		t.Errorf("state = %v, want Idle", m.State())
	}
}

func TestEventsDuringGestureAreCaptured(t *testing.T) {
	m, _, _, a, b := newTestMachine(t)

	m.PointerDown(PointerEvent{Screen: headerPoint(a)})
	// A second down over the other table must not restart the gesture.
	m.PointerDown(PointerEvent{Screen: headerPoint(b)})
	if m.SelectedTable() != a.ID {
		t.Errorf("selected = %q, capture was lost to the second down", m.SelectedTable())
	}
	if m.State() != DraggingTable {
		t.Errorf("state = %v, want DraggingTable", m.State())
	}
}
