// Package ddl turns a diagram into dialect-correct SQL text. Generation is
// a pure function of the diagram and the target dialect; output ordering is
// deterministic (tables, indexes, and relationships in store order).
package ddl

import (
	"fmt"
	"strings"

	"github.com/erdraft/erdraft/internal/diagram"
	"github.com/erdraft/erdraft/internal/dialect"
)

// Generate emits DDL for the diagram's own dialect.
func Generate(d *diagram.Diagram) string {
	return GenerateFor(d, d.Dialect)
}

// GenerateFor emits DDL for an explicit dialect, regardless of the one the
// diagram targets. Relationships or index entries with unresolvable
// references are skipped rather than emitted as invalid SQL; unsupported
// clauses are silently omitted.
func GenerateFor(d *diagram.Diagram, kind dialect.Kind) string {
	p := dialect.ProfileFor(kind)
	fks := resolveForeignKeys(d)

	var b strings.Builder
	for ti := range d.Tables {
		t := &d.Tables[ti]
		writeCreateTable(&b, p, t, fks)
		if !p.InlineIndexes {
			writeSeparateIndexes(&b, p, t)
		}
		if p.SeparateComments {
			writeComments(&b, p, t)
		}
	}
	if !p.InlineForeignKeys {
		for _, fk := range fks {
			writeAlterForeignKey(&b, p, fk)
		}
	}
	return b.String()
}

// foreignKey is a relationship resolved to concrete table and field names.
// The child side carries the constraint.
type foreignKey struct {
	name         string
	childTableID string
	childTable   string
	childField   string
	parentTable  string
	parentField  string
	onUpdate     diagram.RefAction
	onDelete     diagram.RefAction
}

// resolveForeignKeys maps each relationship to its FK form in store order.
// The "many" side is the child: one_to_many and one_to_one put the
// constraint on the end table, many_to_one on the start table. Dangling
// relationships are dropped here.
func resolveForeignKeys(d *diagram.Diagram) []foreignKey {
	var out []foreignKey
	for _, r := range d.Relationships {
		childTID, childFID := r.EndTableID, r.EndFieldID
		parentTID, parentFID := r.StartTableID, r.StartFieldID
		if r.Cardinality == diagram.ManyToOne {
			childTID, childFID, parentTID, parentFID = parentTID, parentFID, childTID, childFID
		}

		child := d.TableByID(childTID)
		parent := d.TableByID(parentTID)
		if child == nil || parent == nil {
			continue
		}
		childField := child.FieldByID(childFID)
		parentField := parent.FieldByID(parentFID)
		if childField == nil || parentField == nil {
			continue
		}

		name := r.Name
		if name == "" {
			name = fmt.Sprintf("fk_%s_%s", child.Name, childField.Name)
		}
		out = append(out, foreignKey{
			name:         name,
			childTableID: child.ID,
			childTable:   child.Name,
			childField:   childField.Name,
			parentTable:  parent.Name,
			parentField:  parentField.Name,
			onUpdate:     r.OnUpdate,
			onDelete:     r.OnDelete,
		})
	}
	return out
}

func writeCreateTable(b *strings.Builder, p dialect.Profile, t *diagram.Table, fks []foreignKey) {
	b.WriteString("CREATE TABLE ")
	b.WriteString(p.Quote(t.Name))
	b.WriteString(" (\n")

	var entries []string
	for i := range t.Fields {
		entries = append(entries, "  "+columnDef(p, &t.Fields[i]))
	}

	if pk := primaryKeyColumns(p, t); len(pk) > 0 {
		quoted := make([]string, len(pk))
		for i, name := range pk {
			quoted[i] = p.Quote(name)
		}
		entries = append(entries, "  PRIMARY KEY ("+strings.Join(quoted, ", ")+")")
	}

	if p.InlineIndexes {
		for _, idx := range t.Indexes {
			if line, ok := inlineIndex(p, t, idx); ok {
				entries = append(entries, "  "+line)
			}
		}
	}

	if p.InlineForeignKeys {
		for _, fk := range fks {
			if fk.childTableID != t.ID {
				continue
			}
			entries = append(entries, "  "+inlineForeignKey(p, fk))
		}
	}

	b.WriteString(strings.Join(entries, ",\n"))
	b.WriteString("\n)")
	b.WriteString(p.TableSuffix)
	if p.InlineComments && t.Comment != "" {
		b.WriteString(" COMMENT=" + sqlString(t.Comment))
	}
	b.WriteString(";\n\n")
}

// columnDef renders one column definition line, without trailing comma.
func columnDef(p dialect.Profile, f *diagram.Field) string {
	var b strings.Builder
	b.WriteString(p.Quote(f.Name))
	b.WriteString(" ")

	switch {
	case p.InlineAutoIncPK && f.Primary && f.AutoIncrement:
		// SQLite requires the exact INTEGER PRIMARY KEY AUTOINCREMENT form;
		// the table-level PRIMARY KEY clause suppresses this column.
		b.WriteString("INTEGER PRIMARY KEY ")
		b.WriteString(p.AutoIncrementKeyword)
		if f.Comment != "" && p.InlineComments {
			b.WriteString(" COMMENT " + sqlString(f.Comment))
		}
		return b.String()

	case p.SerialTypes && f.AutoIncrement:
		if strings.Contains(strings.ToLower(f.Type), "big") {
			b.WriteString("BIGSERIAL")
		} else {
			b.WriteString("SERIAL")
		}

	default:
		b.WriteString(typeSpec(f))
		if f.AutoIncrement && p.IdentityBeforeConstraints && p.AutoIncrementKeyword != "" {
			b.WriteString(" ")
			b.WriteString(p.AutoIncrementKeyword)
		}
	}

	if f.NotNull {
		b.WriteString(" NOT NULL")
	}
	if f.Unique && !f.Primary {
		b.WriteString(" UNIQUE")
	}
	if f.AutoIncrement && !p.SerialTypes && !p.IdentityBeforeConstraints && p.AutoIncrementKeyword != "" {
		b.WriteString(" ")
		b.WriteString(p.AutoIncrementKeyword)
	}
	if f.Default != "" && !f.AutoIncrement {
		b.WriteString(" DEFAULT ")
		b.WriteString(f.Default)
	}
	if f.Comment != "" && p.InlineComments {
		b.WriteString(" COMMENT " + sqlString(f.Comment))
	}
	return b.String()
}

// typeSpec renders the type name with its size or precision/scale suffix.
func typeSpec(f *diagram.Field) string {
	switch {
	case f.Size > 0:
		return fmt.Sprintf("%s(%d)", f.Type, f.Size)
	case f.Precision > 0 && f.Scale > 0:
		return fmt.Sprintf("%s(%d,%d)", f.Type, f.Precision, f.Scale)
	case f.Precision > 0:
		return fmt.Sprintf("%s(%d)", f.Type, f.Precision)
	default:
		return f.Type
	}
}

// primaryKeyColumns lists the primary field names, excluding a column
// already declared as an inline INTEGER PRIMARY KEY.
func primaryKeyColumns(p dialect.Profile, t *diagram.Table) []string {
	var out []string
	for i := range t.Fields {
		f := &t.Fields[i]
		if !f.Primary {
			continue
		}
		if p.InlineAutoIncPK && f.AutoIncrement {
			continue
		}
		out = append(out, f.Name)
	}
	return out
}

// inlineIndex renders a KEY/UNIQUE KEY entry. Field names that no longer
// resolve are dropped; an index with none left is skipped entirely.
func inlineIndex(p dialect.Profile, t *diagram.Table, idx diagram.Index) (string, bool) {
	cols := resolvedIndexColumns(p, t, idx)
	if len(cols) == 0 {
		return "", false
	}
	kw := "KEY"
	if idx.Unique {
		kw = "UNIQUE KEY"
	}
	line := kw + " " + p.Quote(idx.Name) + " (" + strings.Join(cols, ", ") + ")"
	if idx.Method != "" && p.SupportsIndexMethod {
		line += " USING " + strings.ToUpper(idx.Method)
	}
	return line, true
}

func writeSeparateIndexes(b *strings.Builder, p dialect.Profile, t *diagram.Table) {
	for _, idx := range t.Indexes {
		cols := resolvedIndexColumns(p, t, idx)
		if len(cols) == 0 {
			continue
		}
		b.WriteString("CREATE ")
		if idx.Unique {
			b.WriteString("UNIQUE ")
		}
		b.WriteString("INDEX ")
		b.WriteString(p.Quote(idx.Name))
		b.WriteString(" ON ")
		b.WriteString(p.Quote(t.Name))
		if idx.Method != "" && p.SupportsIndexMethod {
			b.WriteString(" USING " + strings.ToLower(idx.Method))
		}
		b.WriteString(" (" + strings.Join(cols, ", ") + ");\n\n")
	}
}

func resolvedIndexColumns(p dialect.Profile, t *diagram.Table, idx diagram.Index) []string {
	var cols []string
	for _, name := range idx.FieldNames {
		if t.FieldByName(name) != nil {
			cols = append(cols, p.Quote(name))
		}
	}
	return cols
}

func writeComments(b *strings.Builder, p dialect.Profile, t *diagram.Table) {
	if t.Comment != "" {
		b.WriteString("COMMENT ON TABLE ")
		b.WriteString(p.Quote(t.Name))
		b.WriteString(" IS " + sqlString(t.Comment) + ";\n\n")
	}
	for i := range t.Fields {
		f := &t.Fields[i]
		if f.Comment == "" {
			continue
		}
		b.WriteString("COMMENT ON COLUMN ")
		b.WriteString(p.Quote(t.Name))
		b.WriteString(".")
		b.WriteString(p.Quote(f.Name))
		b.WriteString(" IS " + sqlString(f.Comment) + ";\n\n")
	}
}

func inlineForeignKey(p dialect.Profile, fk foreignKey) string {
	var b strings.Builder
	b.WriteString("CONSTRAINT ")
	b.WriteString(p.Quote(fk.name))
	b.WriteString(" FOREIGN KEY (")
	b.WriteString(p.Quote(fk.childField))
	b.WriteString(") REFERENCES ")
	b.WriteString(p.Quote(fk.parentTable))
	b.WriteString(" (")
	b.WriteString(p.Quote(fk.parentField))
	b.WriteString(")")
	writeActions(&b, p, fk)
	return b.String()
}

func writeAlterForeignKey(b *strings.Builder, p dialect.Profile, fk foreignKey) {
	b.WriteString("ALTER TABLE ")
	b.WriteString(p.Quote(fk.childTable))
	b.WriteString(" ADD CONSTRAINT ")
	b.WriteString(p.Quote(fk.name))
	b.WriteString(" FOREIGN KEY (")
	b.WriteString(p.Quote(fk.childField))
	b.WriteString(") REFERENCES ")
	b.WriteString(p.Quote(fk.parentTable))
	b.WriteString(" (")
	b.WriteString(p.Quote(fk.parentField))
	b.WriteString(")")
	writeActions(b, p, fk)
	b.WriteString(";\n\n")
}

func writeActions(b *strings.Builder, p dialect.Profile, fk foreignKey) {
	if fk.onDelete != "" {
		b.WriteString(" ON DELETE ")
		b.WriteString(string(fk.onDelete))
	}
	// Dialects without ON UPDATE support get the clause omitted, not
	// invalid SQL.
	if fk.onUpdate != "" && p.SupportsOnUpdate {
		b.WriteString(" ON UPDATE ")
		b.WriteString(string(fk.onUpdate))
	}
}

// sqlString single-quotes a literal, doubling embedded quotes.
func sqlString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
