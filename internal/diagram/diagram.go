package diagram

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/erdraft/erdraft/internal/dialect"
)

// Cardinality describes how many rows on each side a relationship joins.
type Cardinality string

const (
	OneToOne  Cardinality = "one_to_one"
	OneToMany Cardinality = "one_to_many"
	ManyToOne Cardinality = "many_to_one"
)

// ParseCardinality validates a cardinality string from an external document.
func ParseCardinality(s string) (Cardinality, error) {
	switch Cardinality(s) {
	case OneToOne, OneToMany, ManyToOne:
		return Cardinality(s), nil
	}
	return "", fmt.Errorf("unknown cardinality %q", s)
}

// RefAction is a referential action applied on update or delete of the
// referenced row.
type RefAction string

const (
	NoAction   RefAction = "NO ACTION"
	Restrict   RefAction = "RESTRICT"
	Cascade    RefAction = "CASCADE"
	SetNull    RefAction = "SET NULL"
	SetDefault RefAction = "SET DEFAULT"
)

// ParseRefAction validates a referential action string from an external document.
func ParseRefAction(s string) (RefAction, error) {
	switch RefAction(s) {
	case NoAction, Restrict, Cascade, SetNull, SetDefault:
		return RefAction(s), nil
	}
	return "", fmt.Errorf("unknown referential action %q", s)
}

// Diagram is the root aggregate of the schema design model. It owns every
// entity below it and is replaced wholesale on load or reset.
type Diagram struct {
	Title         string         `json:"title"`
	Dialect       dialect.Kind   `json:"dialect"`
	Tables        []Table        `json:"tables"`
	Relationships []Relationship `json:"relationships"`
	Notes         []Note         `json:"notes"`
	Areas         []Area         `json:"areas"`
}

// New creates an empty diagram targeting the given dialect.
func New(title string, d dialect.Kind) *Diagram {
	return &Diagram{Title: title, Dialect: d}
}

// Table is a single table node on the canvas. Height is never stored; it is
// derived from the field count through Layout.TableHeight. Field order is
// significant: it defines row position for connection-point geometry.
type Table struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
	Comment string  `json:"comment,omitempty"`
	Color   string  `json:"color,omitempty"`
	Locked  bool    `json:"locked,omitempty"`
	Fields  []Field `json:"fields"`
	Indexes []Index `json:"indexes"`
}

// NewTable creates a table with a fresh id at the given logical position.
func NewTable(name string, x, y float64) Table {
	return Table{
		ID:    uuid.New().String(),
		Name:  name,
		X:     x,
		Y:     y,
		Width: DefaultLayout().DefaultTableWidth,
	}
}

// Field is a single column definition. Size/Precision/Scale are zero when
// unset. A primary field is always not-null; the store enforces this on
// every write.
type Field struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	Size          int    `json:"size,omitempty"`
	Precision     int    `json:"precision,omitempty"`
	Scale         int    `json:"scale,omitempty"`
	Default       string `json:"default,omitempty"`
	Primary       bool   `json:"primary,omitempty"`
	Unique        bool   `json:"unique,omitempty"`
	NotNull       bool   `json:"not_null,omitempty"`
	AutoIncrement bool   `json:"auto_increment,omitempty"`
	Comment       string `json:"comment,omitempty"`
}

// NewField creates a field with a fresh id.
func NewField(name, typeName string) Field {
	return Field{ID: uuid.New().String(), Name: name, Type: typeName}
}

// Index refers to fields by NAME, not id. This denormalization matches the
// snapshot document and the generated DDL, which both speak names; the
// store's RenameField cascades renames into every index entry to keep the
// lists consistent.
type Index struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Unique     bool     `json:"unique,omitempty"`
	Method     string   `json:"method,omitempty"`
	FieldNames []string `json:"field_names"`
}

// NewIndex creates an index with a fresh id.
func NewIndex(name string, fieldNames ...string) Index {
	return Index{ID: uuid.New().String(), Name: name, FieldNames: fieldNames}
}

// Relationship joins two (table, field) endpoints by id. It lives in the
// diagram's flat relationship list, independent of either table, so both
// endpoints can be deleted and queried symmetrically.
type Relationship struct {
	ID           string      `json:"id"`
	Name         string      `json:"name,omitempty"`
	StartTableID string      `json:"start_table_id"`
	StartFieldID string      `json:"start_field_id"`
	EndTableID   string      `json:"end_table_id"`
	EndFieldID   string      `json:"end_field_id"`
	Cardinality  Cardinality `json:"cardinality"`
	OnUpdate     RefAction   `json:"on_update"`
	OnDelete     RefAction   `json:"on_delete"`
}

// NewRelationship creates a relationship with a fresh id between the two
// endpoints.
func NewRelationship(startTable, startField, endTable, endField string) Relationship {
	return Relationship{
		ID:           uuid.New().String(),
		StartTableID: startTable,
		StartFieldID: startField,
		EndTableID:   endTable,
		EndFieldID:   endField,
		Cardinality:  OneToMany,
		OnUpdate:     NoAction,
		OnDelete:     Cascade,
	}
}

// Note is a free-floating annotation with no relational semantics.
type Note struct {
	ID      string  `json:"id"`
	Content string  `json:"content"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	W       float64 `json:"w"`
	H       float64 `json:"h"`
	Color   string  `json:"color,omitempty"`
}

// NewNote creates a note with a fresh id.
func NewNote(content string, x, y float64) Note {
	return Note{ID: uuid.New().String(), Content: content, X: x, Y: y, W: 180, H: 100}
}

// Area is a free-floating background region used to group tables visually.
type Area struct {
	ID    string  `json:"id"`
	Label string  `json:"label"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	W     float64 `json:"w"`
	H     float64 `json:"h"`
	Color string  `json:"color,omitempty"`
}

// NewArea creates an area with a fresh id.
func NewArea(label string, x, y, w, h float64) Area {
	return Area{ID: uuid.New().String(), Label: label, X: x, Y: y, W: w, H: h}
}

// ---------------------------------------------------------------------------
// Lookup helpers
// ---------------------------------------------------------------------------

// TableByID returns the table with the given id, or nil.
func (d *Diagram) TableByID(id string) *Table {
	for i := range d.Tables {
		if d.Tables[i].ID == id {
			return &d.Tables[i]
		}
	}
	return nil
}

// TableIndex returns the position of the table with the given id, or -1.
func (d *Diagram) TableIndex(id string) int {
	for i := range d.Tables {
		if d.Tables[i].ID == id {
			return i
		}
	}
	return -1
}

// RelationshipByID returns the relationship with the given id, or nil.
func (d *Diagram) RelationshipByID(id string) *Relationship {
	for i := range d.Relationships {
		if d.Relationships[i].ID == id {
			return &d.Relationships[i]
		}
	}
	return nil
}

// FieldByID returns the field with the given id within the table, or nil.
func (t *Table) FieldByID(id string) *Field {
	for i := range t.Fields {
		if t.Fields[i].ID == id {
			return &t.Fields[i]
		}
	}
	return nil
}

// FieldIndex returns the row position of the field with the given id, or -1.
func (t *Table) FieldIndex(id string) int {
	for i := range t.Fields {
		if t.Fields[i].ID == id {
			return i
		}
	}
	return -1
}

// FieldByName returns the field with the given name, or nil.
func (t *Table) FieldByName(name string) *Field {
	for i := range t.Fields {
		if t.Fields[i].Name == name {
			return &t.Fields[i]
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Cloning
// ---------------------------------------------------------------------------

// Clone returns a deep copy of the diagram. Snapshots handed out by the
// store are clones; mutating one never affects the store's current state.
func (d *Diagram) Clone() *Diagram {
	out := &Diagram{
		Title:   d.Title,
		Dialect: d.Dialect,
	}
	if d.Tables != nil {
		out.Tables = make([]Table, len(d.Tables))
		for i := range d.Tables {
			out.Tables[i] = d.Tables[i].clone()
		}
	}
	if d.Relationships != nil {
		out.Relationships = append([]Relationship(nil), d.Relationships...)
	}
	if d.Notes != nil {
		out.Notes = append([]Note(nil), d.Notes...)
	}
	if d.Areas != nil {
		out.Areas = append([]Area(nil), d.Areas...)
	}
	return out
}

func (t Table) clone() Table {
	out := t
	if t.Fields != nil {
		out.Fields = append([]Field(nil), t.Fields...)
	}
	if t.Indexes != nil {
		out.Indexes = make([]Index, len(t.Indexes))
		for i, idx := range t.Indexes {
			out.Indexes[i] = idx
			if idx.FieldNames != nil {
				out.Indexes[i].FieldNames = append([]string(nil), idx.FieldNames...)
			}
		}
	}
	return out
}
