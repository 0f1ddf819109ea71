// Package snapshot encodes a diagram as a flat, versioned JSON document for
// export, and decodes documents back all-or-nothing: a document that fails
// validation never produces a partial diagram.
package snapshot

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/erdraft/erdraft/internal/diagram"
	"github.com/erdraft/erdraft/internal/dialect"
)

// FormatVersion is the current document format. Decode rejects anything it
// does not know.
const FormatVersion = 1

// Meta is the wrapper metadata around the diagram payload.
type Meta struct {
	Author  string    `json:"author,omitempty"`
	Project string    `json:"project,omitempty"`
	SavedAt time.Time `json:"saved_at"`
}

// Document is the on-disk/wire envelope.
type Document struct {
	FormatVersion int             `json:"format_version"`
	Author        string          `json:"author,omitempty"`
	Project       string          `json:"project,omitempty"`
	SavedAt       time.Time       `json:"saved_at"`
	Diagram       diagram.Diagram `json:"diagram"`
}

// Encode serializes a diagram with wrapper metadata. A zero SavedAt is
// stamped with the current time.
func Encode(d *diagram.Diagram, m Meta) ([]byte, error) {
	if m.SavedAt.IsZero() {
		m.SavedAt = time.Now().UTC()
	}
	doc := Document{
		FormatVersion: FormatVersion,
		Author:        m.Author,
		Project:       m.Project,
		SavedAt:       m.SavedAt,
		Diagram:       *d.Clone(),
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return out, nil
}

// Decode parses and validates a document. On any error the caller's
// in-memory diagram stays untouched: nothing is returned to load.
// Dangling id references inside relationships or indexes are NOT an error
// here — the renderer and DDL generator skip them defensively — but
// malformed JSON, unknown format versions, and invalid enum values are.
func Decode(data []byte) (*diagram.Diagram, Meta, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, Meta{}, fmt.Errorf("parse snapshot: %w", err)
	}
	if doc.FormatVersion != FormatVersion {
		return nil, Meta{}, fmt.Errorf("unsupported snapshot format version %d", doc.FormatVersion)
	}
	if err := validate(&doc.Diagram); err != nil {
		return nil, Meta{}, fmt.Errorf("invalid snapshot: %w", err)
	}
	meta := Meta{Author: doc.Author, Project: doc.Project, SavedAt: doc.SavedAt}
	return doc.Diagram.Clone(), meta, nil
}

func validate(d *diagram.Diagram) error {
	if _, err := dialect.Parse(string(d.Dialect)); err != nil {
		return err
	}

	tableIDs := make(map[string]bool, len(d.Tables))
	for i := range d.Tables {
		t := &d.Tables[i]
		if t.ID == "" {
			return fmt.Errorf("table %q has no id", t.Name)
		}
		if tableIDs[t.ID] {
			return fmt.Errorf("duplicate table id %s", t.ID)
		}
		tableIDs[t.ID] = true

		fieldIDs := make(map[string]bool, len(t.Fields))
		for j := range t.Fields {
			f := &t.Fields[j]
			if f.ID == "" {
				return fmt.Errorf("table %q: field %q has no id", t.Name, f.Name)
			}
			if fieldIDs[f.ID] {
				return fmt.Errorf("table %q: duplicate field id %s", t.Name, f.ID)
			}
			fieldIDs[f.ID] = true
		}
		for j := range t.Indexes {
			if t.Indexes[j].ID == "" {
				return fmt.Errorf("table %q: index %q has no id", t.Name, t.Indexes[j].Name)
			}
		}
	}

	relIDs := make(map[string]bool, len(d.Relationships))
	for i := range d.Relationships {
		r := &d.Relationships[i]
		if r.ID == "" {
			return fmt.Errorf("relationship %d has no id", i)
		}
		if relIDs[r.ID] {
			return fmt.Errorf("duplicate relationship id %s", r.ID)
		}
		relIDs[r.ID] = true
		if _, err := diagram.ParseCardinality(string(r.Cardinality)); err != nil {
			return fmt.Errorf("relationship %s: %w", r.ID, err)
		}
		if _, err := diagram.ParseRefAction(string(r.OnUpdate)); err != nil {
			return fmt.Errorf("relationship %s: %w", r.ID, err)
		}
		if _, err := diagram.ParseRefAction(string(r.OnDelete)); err != nil {
			return fmt.Errorf("relationship %s: %w", r.ID, err)
		}
	}

	for i := range d.Notes {
		if d.Notes[i].ID == "" {
			return fmt.Errorf("note %d has no id", i)
		}
	}
	for i := range d.Areas {
		if d.Areas[i].ID == "" {
			return fmt.Errorf("area %d has no id", i)
		}
	}
	return nil
}
