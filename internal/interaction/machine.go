// Package interaction turns pointer and keyboard events from the canvas
// surface into panning, table dragging, and relationship-connection
// gestures against the store and transform it is handed at construction.
package interaction

import (
	"github.com/erdraft/erdraft/internal/canvas"
	"github.com/erdraft/erdraft/internal/diagram"
	"github.com/erdraft/erdraft/internal/store"
)

// State is the machine's current gesture. Exactly one gesture is active at
// a time.
type State int

const (
	Idle State = iota
	Panning
	DraggingTable
	Connecting
)

func (s State) String() string {
	switch s {
	case Panning:
		return "panning"
	case DraggingTable:
		return "dragging_table"
	case Connecting:
		return "connecting"
	default:
		return "idle"
	}
}

// Button identifies the pointer button of an event.
type Button int

const (
	ButtonLeft Button = iota
	ButtonMiddle
	ButtonRight
)

// PointerEvent is a pointer event in screen coordinates. Modifier is the
// pan modifier (space/alt, whatever the frontend maps).
type PointerEvent struct {
	Screen   diagram.Point
	Button   Button
	Modifier bool
}

// RelationshipDefaults configures how a drag-created relationship is
// initialized. These are product defaults, not structural requirements.
type RelationshipDefaults struct {
	Cardinality diagram.Cardinality
	OnUpdate    diagram.RefAction
	OnDelete    diagram.RefAction
}

// DefaultRelationshipDefaults matches the stock product behavior.
func DefaultRelationshipDefaults() RelationshipDefaults {
	return RelationshipDefaults{
		Cardinality: diagram.OneToMany,
		OnUpdate:    diagram.NoAction,
		OnDelete:    diagram.Cascade,
	}
}

// Machine consumes canvas events and drives the store and transform. It
// holds explicit handles to both; there is no ambient global state.
type Machine struct {
	store     *store.Store
	transform *canvas.Transform
	layout    diagram.Layout
	defaults  RelationshipDefaults

	state State

	// Selection is purely visual; clearing it never mutates the diagram.
	selectedTableID        string
	selectedRelationshipID string

	// Panning: translate is itself in screen units, so no scale division
	// is involved.
	panStartScreen    diagram.Point
	panStartTranslate diagram.Point

	// DraggingTable.
	dragTableID     string
	dragStartScreen diagram.Point
	dragStartPos    diagram.Point

	// Connecting.
	connTableID string
	connFieldID string
	connPointer diagram.Point // logical, tracked for the provisional curve
}

// New creates a machine bound to the given store and transform.
func New(s *store.Store, t *canvas.Transform, layout diagram.Layout, defaults RelationshipDefaults) *Machine {
	return &Machine{
		store:     s,
		transform: t,
		layout:    layout,
		defaults:  defaults,
	}
}

// State returns the active gesture.
func (m *Machine) State() State { return m.state }

// SelectedTable returns the id of the selected table, if any.
func (m *Machine) SelectedTable() string { return m.selectedTableID }

// SelectedRelationship returns the id of the selected relationship, if any.
func (m *Machine) SelectedRelationship() string { return m.selectedRelationshipID }

// SelectRelationship marks a relationship as selected (driven by list UIs
// outside the canvas).
func (m *Machine) SelectRelationship(id string) { m.selectedRelationshipID = id }

// ConnectionOrigin returns the (table, field) a Connecting gesture started
// from. ok is false outside a Connecting gesture.
func (m *Machine) ConnectionOrigin() (tableID, fieldID string, ok bool) {
	if m.state != Connecting {
		return "", "", false
	}
	return m.connTableID, m.connFieldID, true
}

// ConnectionPointer returns the tracked logical pointer position of a
// Connecting gesture, used by the renderer for the provisional curve.
func (m *Machine) ConnectionPointer() diagram.Point { return m.connPointer }

// PointerDown starts a gesture. Events arriving during an active gesture
// are ignored; pointer capture belongs to the gesture that started it.
func (m *Machine) PointerDown(ev PointerEvent) {
	if m.state != Idle {
		return
	}

	logical := m.transform.ScreenToLogical(ev.Screen)
	hit := canvas.HitTest(m.store.Diagram(), m.layout, logical)

	switch hit.Kind {
	case canvas.HitEmpty, canvas.HitArea, canvas.HitNote:
		if ev.Button == ButtonMiddle || ev.Modifier {
			m.state = Panning
			m.panStartScreen = ev.Screen
			m.panStartTranslate = diagram.Point{X: m.transform.TranslateX, Y: m.transform.TranslateY}
			return
		}
		if hit.Kind == canvas.HitEmpty {
			m.selectedTableID = ""
			m.selectedRelationshipID = ""
		}

	case canvas.HitFieldHandle:
		m.state = Connecting
		m.connTableID = hit.TableID
		m.connFieldID = hit.FieldID
		m.connPointer = logical

	case canvas.HitTableHeader, canvas.HitTableBody, canvas.HitFieldRow:
		m.selectedTableID = hit.TableID
		m.selectedRelationshipID = ""
		t := m.store.Diagram().TableByID(hit.TableID)
		if t == nil || t.Locked {
			return
		}
		m.state = DraggingTable
		m.dragTableID = t.ID
		m.dragStartScreen = ev.Screen
		m.dragStartPos = diagram.Point{X: t.X, Y: t.Y}
	}
}

// PointerMove advances the active gesture.
func (m *Machine) PointerMove(ev PointerEvent) {
	switch m.state {
	case Panning:
		m.transform.TranslateX = m.panStartTranslate.X + (ev.Screen.X - m.panStartScreen.X)
		m.transform.TranslateY = m.panStartTranslate.Y + (ev.Screen.Y - m.panStartScreen.Y)

	case DraggingTable:
		scale := m.transform.Scale
		if scale < canvas.MinScale {
			scale = canvas.MinScale
		}
		x := m.dragStartPos.X + (ev.Screen.X-m.dragStartScreen.X)/scale
		y := m.dragStartPos.Y + (ev.Screen.Y-m.dragStartScreen.Y)/scale
		// Transient: the whole drag coalesces into one undo entry.
		_ = m.store.MoveTable(m.dragTableID, x, y, true)

	case Connecting:
		m.connPointer = m.transform.ScreenToLogical(ev.Screen)
	}
}

// PointerUp ends the active gesture. A Connecting gesture released over a
// different field's handle commits a relationship; anything else cancels
// silently.
func (m *Machine) PointerUp(ev PointerEvent) {
	switch m.state {
	case Panning:
		m.state = Idle

	case DraggingTable:
		m.store.EndGesture()
		m.state = Idle

	case Connecting:
		logical := m.transform.ScreenToLogical(ev.Screen)
		hit := canvas.HitTest(m.store.Diagram(), m.layout, logical)
		if hit.Kind == canvas.HitFieldHandle && !(hit.TableID == m.connTableID && hit.FieldID == m.connFieldID) {
			r := diagram.NewRelationship(m.connTableID, m.connFieldID, hit.TableID, hit.FieldID)
			r.Cardinality = m.defaults.Cardinality
			r.OnUpdate = m.defaults.OnUpdate
			r.OnDelete = m.defaults.OnDelete
			// Invalid gestures are silent cancels, never user-visible errors.
			_ = m.store.AddRelationship(r)
		}
		m.state = Idle
	}
}

// PointerLeave ends a pan, commits a drag, and cancels a connection.
func (m *Machine) PointerLeave() {
	switch m.state {
	case Panning, Connecting:
		m.state = Idle
	case DraggingTable:
		m.store.EndGesture()
		m.state = Idle
	}
}

// Escape cancels the active gesture. A drag is rolled back to the position
// captured at gesture start; a pan keeps its translate since panning never
// touches the store.
func (m *Machine) Escape() {
	switch m.state {
	case Panning, Connecting:
		m.state = Idle
	case DraggingTable:
		m.store.AbortGesture()
		m.state = Idle
	}
}
