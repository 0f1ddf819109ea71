package snapshot

import (
	"strings"
	"testing"
	"time"

	"github.com/erdraft/erdraft/internal/diagram"
	"github.com/erdraft/erdraft/internal/dialect"
)

func sampleDiagram() *diagram.Diagram {
	d := diagram.New("sample", dialect.PostgreSQL)
	tbl := diagram.NewTable("users", 100, 200)
	tbl.Fields = []diagram.Field{diagram.NewField("id", "INT"), diagram.NewField("email", "VARCHAR")}
	tbl.Indexes = []diagram.Index{diagram.NewIndex("idx_users_email", "email")}
	d.Tables = append(d.Tables, tbl)
	d.Relationships = append(d.Relationships,
		diagram.NewRelationship(tbl.ID, tbl.Fields[0].ID, tbl.ID, tbl.Fields[1].ID))
	d.Notes = append(d.Notes, diagram.NewNote("memo", 0, 0))
	d.Areas = append(d.Areas, diagram.NewArea("core", 0, 0, 100, 100))
	return d
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	d := sampleDiagram()
	savedAt := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	data, err := Encode(d, Meta{Author: "dev", Project: "blog", SavedAt: savedAt})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, meta, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if meta.Author != "dev" || meta.Project != "blog" || !meta.SavedAt.Equal(savedAt) {
		t.Errorf("meta = %+v", meta)
	}
	if got.Title != d.Title || got.Dialect != d.Dialect {
		t.Errorf("diagram header = %q/%q", got.Title, got.Dialect)
	}
	if len(got.Tables) != 1 || len(got.Tables[0].Fields) != 2 {
		t.Fatalf("tables = %+v", got.Tables)
	}
	if got.Tables[0].ID != d.Tables[0].ID {
		t.Error("table ids not preserved")
	}
	if len(got.Relationships) != 1 || len(got.Notes) != 1 || len(got.Areas) != 1 {
		t.Errorf("collections = %d/%d/%d", len(got.Relationships), len(got.Notes), len(got.Areas))
	}
}

func TestEncodeStampsSavedAt(t *testing.T) {
	data, err := Encode(sampleDiagram(), Meta{})
	if err != nil {
		t.Fatal(err)
	}
	_, meta, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if meta.SavedAt.IsZero() {
		t.Error("zero SavedAt was not stamped")
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	valid, err := Encode(sampleDiagram(), Meta{})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		mangle  func(string) string
		wantErr string
	}{
		{
			"truncated json",
			func(s string) string { return s[:len(s)/2] },
			"parse snapshot",
		},
		{
			"unknown format version",
			func(s string) string { return strings.Replace(s, `"format_version": 1`, `"format_version": 99`, 1) },
			"format version",
		},
		{
			"invalid dialect",
			func(s string) string { return strings.Replace(s, `"dialect": "postgresql"`, `"dialect": "db2"`, 1) },
			"unsupported dialect",
		},
		{
			"invalid cardinality",
			func(s string) string { return strings.Replace(s, `"cardinality": "one_to_many"`, `"cardinality": "some_to_some"`, 1) },
			"cardinality",
		},
		{
			"invalid referential action",
			func(s string) string { return strings.Replace(s, `"on_delete": "CASCADE"`, `"on_delete": "EXPLODE"`, 1) },
			"referential action",
		},
	}
	for _, tt := range tests {
		_, _, err := Decode([]byte(tt.mangle(string(valid))))
		if err == nil {
			t.Errorf("%s: Decode succeeded, want error", tt.name)
			continue
		}
		if !strings.Contains(err.Error(), tt.wantErr) {
			t.Errorf("%s: error %q does not mention %q", tt.name, err, tt.wantErr)
		}
	}
}

func TestDecodeRejectsDuplicateIDs(t *testing.T) {
	d := sampleDiagram()
	dup := d.Tables[0]
	dup.Name = "users_copy"
	d.Tables = append(d.Tables, dup)
	data, err := Encode(d, Meta{})
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := Decode(data); err == nil || !strings.Contains(err.Error(), "duplicate table id") {
		t.Errorf("Decode error = %v, want duplicate table id", err)
	}
}

func TestDecodeToleratesDanglingReferences(t *testing.T) {
	d := sampleDiagram()
	// A relationship to a table that no longer exists is recovered locally
	// by the renderer and generator, not rejected at the document boundary.
	r := diagram.NewRelationship("gone-table", "gone-field", d.Tables[0].ID, d.Tables[0].Fields[0].ID)
	d.Relationships = append(d.Relationships, r)
	d.Tables[0].Indexes[0].FieldNames = append(d.Tables[0].Indexes[0].FieldNames, "no_such_field")

	data, err := Encode(d, Meta{})
	if err != nil {
		t.Fatal(err)
	}
	got, _, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode rejected dangling references: %v", err)
	}
	if len(got.Relationships) != 2 {
		t.Errorf("relationships = %d, want both preserved", len(got.Relationships))
	}
}

func TestDecodeIsAllOrNothing(t *testing.T) {
	// A document that fails validation returns no diagram at all.
	d := sampleDiagram()
	d.Tables[0].Fields[1].ID = d.Tables[0].Fields[0].ID
	data, err := Encode(d, Meta{})
	if err != nil {
		t.Fatal(err)
	}
	got, _, err := Decode(data)
	if err == nil {
		t.Fatal("Decode succeeded on duplicate field ids")
	}
	if got != nil {
		t.Error("Decode returned a partial diagram alongside the error")
	}
}
