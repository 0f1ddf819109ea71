// Package store owns the diagram aggregate. All mutation goes through named
// operations that validate, cascade, and commit whole-diagram snapshots onto
// a linear undo/redo history.
package store

import (
	"errors"
	"fmt"

	"github.com/erdraft/erdraft/internal/diagram"
	"github.com/erdraft/erdraft/internal/dialect"
)

// ErrNotFound is returned when an operation references an entity id that is
// not present in the current diagram.
var ErrNotFound = errors.New("not found")

// DefaultUndoDepth caps the history unless overridden. Zero means unbounded.
const DefaultUndoDepth = 100

// Store is the exclusive owner of a Diagram. Every operation computes a new
// snapshot before committing, so a failed validation leaves the current
// state untouched. Store is not safe for concurrent use: the editor core is
// single-threaded and event-driven by design.
type Store struct {
	current *diagram.Diagram
	undo    []*diagram.Diagram
	redo    []*diagram.Diagram

	maxDepth    int
	gestureOpen bool

	// savedDepth is the undo depth at the last MarkSaved; -1 when that
	// point has been evicted from the capped history.
	savedDepth int
}

// New creates a store owning the given diagram. maxDepth caps the undo
// history with FIFO eviction of the oldest entries; 0 means unbounded.
func New(d *diagram.Diagram, maxDepth int) *Store {
	if d == nil {
		d = diagram.New("Untitled", dialect.MySQL)
	}
	return &Store{current: d.Clone(), maxDepth: maxDepth}
}

// Diagram returns the current snapshot. Callers must treat it as read-only;
// all mutation goes through store operations.
func (s *Store) Diagram() *diagram.Diagram { return s.current }

// Snapshot returns a deep copy of the current diagram, safe to retain and
// mutate independently of the store.
func (s *Store) Snapshot() *diagram.Diagram { return s.current.Clone() }

// ---------------------------------------------------------------------------
// History
// ---------------------------------------------------------------------------

// mutate computes a candidate snapshot, and on success commits it with a
// fresh undo entry. The redo stack is cleared on every committed mutation.
func (s *Store) mutate(fn func(d *diagram.Diagram) error) error {
	next := s.current.Clone()
	if err := fn(next); err != nil {
		return err
	}
	s.gestureOpen = false
	s.invalidateSavedAboveCurrent()
	s.pushUndo(s.current)
	s.current = next
	s.redo = nil
	return nil
}

// mutateTransient is mutate for continuous gestures: the first call of a
// gesture pushes one undo entry, every following call replaces the current
// snapshot in place of it. EndGesture closes the window.
func (s *Store) mutateTransient(fn func(d *diagram.Diagram) error) error {
	next := s.current.Clone()
	if err := fn(next); err != nil {
		return err
	}
	if !s.gestureOpen {
		s.invalidateSavedAboveCurrent()
		s.pushUndo(s.current)
		s.redo = nil
		s.gestureOpen = true
	}
	s.current = next
	return nil
}

// EndGesture commits the open transient window, if any, as a single undo
// entry. Safe to call when no gesture is open.
func (s *Store) EndGesture() { s.gestureOpen = false }

// AbortGesture discards the open transient window, restoring the snapshot
// captured at gesture start. No-op when no gesture is open.
func (s *Store) AbortGesture() {
	if !s.gestureOpen {
		return
	}
	s.gestureOpen = false
	s.current = s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
}

// invalidateSavedAboveCurrent drops the saved marker when the saved state
// sits above the current history position: the mutation about to commit
// clears the redo stack, so that state becomes unreachable and a matching
// undo depth no longer means "same as saved".
func (s *Store) invalidateSavedAboveCurrent() {
	if s.savedDepth > len(s.undo) {
		s.savedDepth = -1
	}
}

func (s *Store) pushUndo(d *diagram.Diagram) {
	s.undo = append(s.undo, d)
	if s.maxDepth > 0 && len(s.undo) > s.maxDepth {
		copy(s.undo, s.undo[1:])
		s.undo = s.undo[:len(s.undo)-1]
		if s.savedDepth > 0 {
			s.savedDepth--
		} else {
			s.savedDepth = -1
		}
	}
}

// Undo restores the previous snapshot. Returns false when there is nothing
// to undo.
func (s *Store) Undo() bool {
	if len(s.undo) == 0 {
		return false
	}
	s.gestureOpen = false
	top := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	s.redo = append(s.redo, s.current)
	s.current = top
	return true
}

// Redo restores the snapshot most recently undone. Returns false when there
// is nothing to redo.
func (s *Store) Redo() bool {
	if len(s.redo) == 0 {
		return false
	}
	s.gestureOpen = false
	top := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]
	s.undo = append(s.undo, s.current)
	s.current = top
	return true
}

// CanUndo reports whether the undo stack is non-empty.
func (s *Store) CanUndo() bool { return len(s.undo) > 0 }

// CanRedo reports whether the redo stack is non-empty.
func (s *Store) CanRedo() bool { return len(s.redo) > 0 }

// MarkSaved records the current history position as the saved state.
func (s *Store) MarkSaved() { s.savedDepth = len(s.undo) }

// IsDirty reports whether the diagram has changed since the last MarkSaved.
func (s *Store) IsDirty() bool { return s.savedDepth != len(s.undo) }

// Load replaces the diagram wholesale and clears the history. Validation of
// external documents happens before Load; a document that fails to decode
// never reaches the store.
func (s *Store) Load(d *diagram.Diagram) {
	s.current = d.Clone()
	s.undo = nil
	s.redo = nil
	s.gestureOpen = false
	s.savedDepth = 0
}

// ---------------------------------------------------------------------------
// Diagram-level operations
// ---------------------------------------------------------------------------

// SetTitle renames the diagram.
func (s *Store) SetTitle(title string) error {
	return s.mutate(func(d *diagram.Diagram) error {
		d.Title = title
		return nil
	})
}

// SetDialect retargets the diagram. Only DDL formatting is affected; the
// stored shape never changes with the dialect.
func (s *Store) SetDialect(k dialect.Kind) error {
	return s.mutate(func(d *diagram.Diagram) error {
		d.Dialect = k
		return nil
	})
}

// ---------------------------------------------------------------------------
// Table operations
// ---------------------------------------------------------------------------

// AddTable appends a table to the diagram.
func (s *Store) AddTable(t diagram.Table) error {
	return s.mutate(func(d *diagram.Diagram) error {
		if t.ID == "" {
			return fmt.Errorf("table %q has no id", t.Name)
		}
		if d.TableByID(t.ID) != nil {
			return fmt.Errorf("table id %s already exists", t.ID)
		}
		normalizeFields(t.Fields)
		d.Tables = append(d.Tables, t)
		return nil
	})
}

// UpdateTable replaces a table by id, keeping its position in store order.
func (s *Store) UpdateTable(t diagram.Table) error {
	return s.mutate(func(d *diagram.Diagram) error {
		i := d.TableIndex(t.ID)
		if i < 0 {
			return fmt.Errorf("table %s: %w", t.ID, ErrNotFound)
		}
		normalizeFields(t.Fields)
		d.Tables[i] = t
		return nil
	})
}

// MoveTable repositions a table. Transient moves coalesce into one undo
// entry per gesture; the interaction machine commits with EndGesture.
func (s *Store) MoveTable(id string, x, y float64, transient bool) error {
	fn := func(d *diagram.Diagram) error {
		t := d.TableByID(id)
		if t == nil {
			return fmt.Errorf("table %s: %w", id, ErrNotFound)
		}
		t.X, t.Y = x, y
		return nil
	}
	if transient {
		return s.mutateTransient(fn)
	}
	return s.mutate(fn)
}

// DeleteTable removes a table and cascade-deletes every relationship whose
// start or end references it.
func (s *Store) DeleteTable(id string) error {
	return s.mutate(func(d *diagram.Diagram) error {
		i := d.TableIndex(id)
		if i < 0 {
			return fmt.Errorf("table %s: %w", id, ErrNotFound)
		}
		d.Tables = append(d.Tables[:i], d.Tables[i+1:]...)
		kept := d.Relationships[:0]
		for _, r := range d.Relationships {
			if r.StartTableID != id && r.EndTableID != id {
				kept = append(kept, r)
			}
		}
		d.Relationships = kept
		return nil
	})
}

// ---------------------------------------------------------------------------
// Field operations
// ---------------------------------------------------------------------------

// AddField appends a field to a table. Row order defines connection-point
// geometry, so new fields always go to the end.
func (s *Store) AddField(tableID string, f diagram.Field) error {
	return s.mutate(func(d *diagram.Diagram) error {
		t := d.TableByID(tableID)
		if t == nil {
			return fmt.Errorf("table %s: %w", tableID, ErrNotFound)
		}
		normalizeField(&f)
		t.Fields = append(t.Fields, f)
		return nil
	})
}

// UpdateField replaces a field by id. A rename cascades into every index of
// the table that references the old name.
func (s *Store) UpdateField(tableID string, f diagram.Field) error {
	return s.mutate(func(d *diagram.Diagram) error {
		t := d.TableByID(tableID)
		if t == nil {
			return fmt.Errorf("table %s: %w", tableID, ErrNotFound)
		}
		i := t.FieldIndex(f.ID)
		if i < 0 {
			return fmt.Errorf("field %s: %w", f.ID, ErrNotFound)
		}
		normalizeField(&f)
		if old := t.Fields[i].Name; old != f.Name {
			renameInIndexes(t, old, f.Name)
		}
		t.Fields[i] = f
		return nil
	})
}

// RenameField renames a field and cascades the rename into the table's
// index field-name lists. Indexes reference fields by name, so this is the
// single code path that keeps the denormalization consistent.
func (s *Store) RenameField(tableID, fieldID, newName string) error {
	return s.mutate(func(d *diagram.Diagram) error {
		t := d.TableByID(tableID)
		if t == nil {
			return fmt.Errorf("table %s: %w", tableID, ErrNotFound)
		}
		f := t.FieldByID(fieldID)
		if f == nil {
			return fmt.Errorf("field %s: %w", fieldID, ErrNotFound)
		}
		renameInIndexes(t, f.Name, newName)
		f.Name = newName
		return nil
	})
}

// DeleteField removes a field, every relationship referencing it, and its
// entries in the table's indexes. Indexes left with no fields are dropped.
func (s *Store) DeleteField(tableID, fieldID string) error {
	return s.mutate(func(d *diagram.Diagram) error {
		t := d.TableByID(tableID)
		if t == nil {
			return fmt.Errorf("table %s: %w", tableID, ErrNotFound)
		}
		i := t.FieldIndex(fieldID)
		if i < 0 {
			return fmt.Errorf("field %s: %w", fieldID, ErrNotFound)
		}
		name := t.Fields[i].Name
		t.Fields = append(t.Fields[:i], t.Fields[i+1:]...)

		keptIdx := t.Indexes[:0]
		for _, idx := range t.Indexes {
			keptNames := idx.FieldNames[:0]
			for _, n := range idx.FieldNames {
				if n != name {
					keptNames = append(keptNames, n)
				}
			}
			idx.FieldNames = keptNames
			if len(idx.FieldNames) > 0 {
				keptIdx = append(keptIdx, idx)
			}
		}
		t.Indexes = keptIdx

		keptRel := d.Relationships[:0]
		for _, r := range d.Relationships {
			if r.StartFieldID != fieldID && r.EndFieldID != fieldID {
				keptRel = append(keptRel, r)
			}
		}
		d.Relationships = keptRel
		return nil
	})
}

// ---------------------------------------------------------------------------
// Index operations
// ---------------------------------------------------------------------------

// AddIndex appends an index to a table. Every referenced field name must
// resolve to an existing field.
func (s *Store) AddIndex(tableID string, idx diagram.Index) error {
	return s.mutate(func(d *diagram.Diagram) error {
		t := d.TableByID(tableID)
		if t == nil {
			return fmt.Errorf("table %s: %w", tableID, ErrNotFound)
		}
		if err := checkIndexFields(t, idx); err != nil {
			return err
		}
		t.Indexes = append(t.Indexes, idx)
		return nil
	})
}

// UpdateIndex replaces an index by id.
func (s *Store) UpdateIndex(tableID string, idx diagram.Index) error {
	return s.mutate(func(d *diagram.Diagram) error {
		t := d.TableByID(tableID)
		if t == nil {
			return fmt.Errorf("table %s: %w", tableID, ErrNotFound)
		}
		for i := range t.Indexes {
			if t.Indexes[i].ID == idx.ID {
				if err := checkIndexFields(t, idx); err != nil {
					return err
				}
				t.Indexes[i] = idx
				return nil
			}
		}
		return fmt.Errorf("index %s: %w", idx.ID, ErrNotFound)
	})
}

// DeleteIndex removes an index by id.
func (s *Store) DeleteIndex(tableID, indexID string) error {
	return s.mutate(func(d *diagram.Diagram) error {
		t := d.TableByID(tableID)
		if t == nil {
			return fmt.Errorf("table %s: %w", tableID, ErrNotFound)
		}
		for i := range t.Indexes {
			if t.Indexes[i].ID == indexID {
				t.Indexes = append(t.Indexes[:i], t.Indexes[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("index %s: %w", indexID, ErrNotFound)
	})
}

// ---------------------------------------------------------------------------
// Relationship operations
// ---------------------------------------------------------------------------

// AddRelationship appends a relationship after validating both endpoints
// resolve and the two ends are not the same field.
func (s *Store) AddRelationship(r diagram.Relationship) error {
	return s.mutate(func(d *diagram.Diagram) error {
		if r.StartTableID == r.EndTableID && r.StartFieldID == r.EndFieldID {
			return fmt.Errorf("relationship endpoints are the same field")
		}
		for _, ep := range []struct{ tableID, fieldID string }{
			{r.StartTableID, r.StartFieldID},
			{r.EndTableID, r.EndFieldID},
		} {
			t := d.TableByID(ep.tableID)
			if t == nil {
				return fmt.Errorf("table %s: %w", ep.tableID, ErrNotFound)
			}
			if t.FieldByID(ep.fieldID) == nil {
				return fmt.Errorf("field %s: %w", ep.fieldID, ErrNotFound)
			}
		}
		d.Relationships = append(d.Relationships, r)
		return nil
	})
}

// UpdateRelationship replaces a relationship by id.
func (s *Store) UpdateRelationship(r diagram.Relationship) error {
	return s.mutate(func(d *diagram.Diagram) error {
		for i := range d.Relationships {
			if d.Relationships[i].ID == r.ID {
				d.Relationships[i] = r
				return nil
			}
		}
		return fmt.Errorf("relationship %s: %w", r.ID, ErrNotFound)
	})
}

// DeleteRelationship removes a relationship by id.
func (s *Store) DeleteRelationship(id string) error {
	return s.mutate(func(d *diagram.Diagram) error {
		for i := range d.Relationships {
			if d.Relationships[i].ID == id {
				d.Relationships = append(d.Relationships[:i], d.Relationships[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("relationship %s: %w", id, ErrNotFound)
	})
}

// ---------------------------------------------------------------------------
// Note and area operations
// ---------------------------------------------------------------------------

// AddNote appends a note.
func (s *Store) AddNote(n diagram.Note) error {
	return s.mutate(func(d *diagram.Diagram) error {
		d.Notes = append(d.Notes, n)
		return nil
	})
}

// UpdateNote replaces a note by id.
func (s *Store) UpdateNote(n diagram.Note) error {
	return s.mutate(func(d *diagram.Diagram) error {
		for i := range d.Notes {
			if d.Notes[i].ID == n.ID {
				d.Notes[i] = n
				return nil
			}
		}
		return fmt.Errorf("note %s: %w", n.ID, ErrNotFound)
	})
}

// DeleteNote removes a note by id.
func (s *Store) DeleteNote(id string) error {
	return s.mutate(func(d *diagram.Diagram) error {
		for i := range d.Notes {
			if d.Notes[i].ID == id {
				d.Notes = append(d.Notes[:i], d.Notes[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("note %s: %w", id, ErrNotFound)
	})
}

// AddArea appends an area.
func (s *Store) AddArea(a diagram.Area) error {
	return s.mutate(func(d *diagram.Diagram) error {
		d.Areas = append(d.Areas, a)
		return nil
	})
}

// UpdateArea replaces an area by id.
func (s *Store) UpdateArea(a diagram.Area) error {
	return s.mutate(func(d *diagram.Diagram) error {
		for i := range d.Areas {
			if d.Areas[i].ID == a.ID {
				d.Areas[i] = a
				return nil
			}
		}
		return fmt.Errorf("area %s: %w", a.ID, ErrNotFound)
	})
}

// DeleteArea removes an area by id.
func (s *Store) DeleteArea(id string) error {
	return s.mutate(func(d *diagram.Diagram) error {
		for i := range d.Areas {
			if d.Areas[i].ID == id {
				d.Areas = append(d.Areas[:i], d.Areas[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("area %s: %w", id, ErrNotFound)
	})
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// normalizeField enforces the primary-implies-not-null invariant.
func normalizeField(f *diagram.Field) {
	if f.Primary {
		f.NotNull = true
	}
}

func normalizeFields(fs []diagram.Field) {
	for i := range fs {
		normalizeField(&fs[i])
	}
}

func renameInIndexes(t *diagram.Table, oldName, newName string) {
	for i := range t.Indexes {
		for j, n := range t.Indexes[i].FieldNames {
			if n == oldName {
				t.Indexes[i].FieldNames[j] = newName
			}
		}
	}
}

func checkIndexFields(t *diagram.Table, idx diagram.Index) error {
	if len(idx.FieldNames) == 0 {
		return fmt.Errorf("index %q has no fields", idx.Name)
	}
	for _, n := range idx.FieldNames {
		if t.FieldByName(n) == nil {
			return fmt.Errorf("index %q references unknown field %q", idx.Name, n)
		}
	}
	return nil
}
