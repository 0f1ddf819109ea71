// Package dialect defines the closed set of SQL engines a diagram can
// target. Each dialect carries its quoting rule, comment style, and
// constraint-support flags as data, so the DDL generator formats through a
// single profile lookup instead of branching on engine strings.
package dialect

import (
	"fmt"
	"strings"
)

// Kind identifies one of the six supported SQL engines.
type Kind string

const (
	MySQL      Kind = "mysql"
	PostgreSQL Kind = "postgresql"
	MariaDB    Kind = "mariadb"
	Oracle     Kind = "oracle"
	MSSQL      Kind = "mssql"
	SQLite     Kind = "sqlite"
)

// All returns the supported dialects in a stable display order.
func All() []Kind {
	return []Kind{MySQL, PostgreSQL, MariaDB, Oracle, MSSQL, SQLite}
}

// Parse validates a dialect name from config, CLI flags, or an imported
// snapshot. "postgres" is accepted as an alias for "postgresql".
func Parse(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mysql":
		return MySQL, nil
	case "postgresql", "postgres":
		return PostgreSQL, nil
	case "mariadb":
		return MariaDB, nil
	case "oracle":
		return Oracle, nil
	case "mssql", "sqlserver":
		return MSSQL, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	}
	return "", fmt.Errorf("unsupported dialect %q (supported: mysql, postgresql, mariadb, oracle, mssql, sqlite)", s)
}

func (k Kind) String() string { return string(k) }

// Profile holds the formatting rules of one dialect.
type Profile struct {
	// Identifier quoting.
	QuoteOpen  string
	QuoteClose string

	// Column modifier emitted for auto-increment fields ("" if the dialect
	// has none and expresses the behavior through the column type instead).
	AutoIncrementKeyword string

	// SerialTypes rewrites integer auto-increment columns to SERIAL or
	// BIGSERIAL instead of emitting a keyword.
	SerialTypes bool

	// InlineAutoIncPK folds a single primary auto-increment column into
	// "INTEGER PRIMARY KEY <keyword>" on the column itself; the table-level
	// PRIMARY KEY clause is then suppressed for that column.
	InlineAutoIncPK bool

	// IdentityBeforeConstraints places the auto-increment keyword directly
	// after the data type. Oracle's identity_clause is part of the type
	// specification and must come before NOT NULL and other inline
	// constraints.
	IdentityBeforeConstraints bool

	// InlineComments emits COMMENT '...' on the column definition.
	// SeparateComments emits COMMENT ON COLUMN statements after the table.
	// Dialects with neither flag drop comments from the output.
	InlineComments   bool
	SeparateComments bool

	// InlineIndexes emits indexes as KEY/UNIQUE KEY entries inside CREATE
	// TABLE; otherwise indexes become separate CREATE INDEX statements.
	InlineIndexes bool

	// InlineForeignKeys emits CONSTRAINT ... FOREIGN KEY inside CREATE
	// TABLE; otherwise foreign keys become ALTER TABLE ... ADD CONSTRAINT
	// statements after all tables.
	InlineForeignKeys bool

	// SupportsOnUpdate gates the ON UPDATE clause of foreign keys. Dialects
	// without it get the clause silently omitted, never invalid SQL.
	SupportsOnUpdate bool

	// SupportsIndexMethod gates "USING <method>" on index creation.
	SupportsIndexMethod bool

	// TableSuffix is appended verbatim after the closing parenthesis of
	// CREATE TABLE (storage engine and charset clauses).
	TableSuffix string
}

// Quote wraps a SQL identifier in the dialect's quote characters, escaping
// embedded closing quotes by doubling.
func (p Profile) Quote(name string) string {
	escaped := strings.ReplaceAll(name, p.QuoteClose, p.QuoteClose+p.QuoteClose)
	return p.QuoteOpen + escaped + p.QuoteClose
}

var profiles = map[Kind]Profile{
	MySQL: {
		QuoteOpen:            "`",
		QuoteClose:           "`",
		AutoIncrementKeyword: "AUTO_INCREMENT",
		InlineComments:       true,
		InlineIndexes:        true,
		InlineForeignKeys:    true,
		SupportsOnUpdate:     true,
		SupportsIndexMethod:  true,
		TableSuffix:          " ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",
	},
	MariaDB: {
		QuoteOpen:            "`",
		QuoteClose:           "`",
		AutoIncrementKeyword: "AUTO_INCREMENT",
		InlineComments:       true,
		InlineIndexes:        true,
		InlineForeignKeys:    true,
		SupportsOnUpdate:     true,
		SupportsIndexMethod:  true,
		TableSuffix:          " ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",
	},
	PostgreSQL: {
		QuoteOpen:           `"`,
		QuoteClose:          `"`,
		SerialTypes:         true,
		SeparateComments:    true,
		SupportsOnUpdate:    true,
		SupportsIndexMethod: true,
	},
	Oracle: {
		QuoteOpen:                 `"`,
		QuoteClose:                `"`,
		AutoIncrementKeyword:      "GENERATED BY DEFAULT AS IDENTITY",
		IdentityBeforeConstraints: true,
		SeparateComments:          true,
	},
	MSSQL: {
		QuoteOpen:            "[",
		QuoteClose:           "]",
		AutoIncrementKeyword: "IDENTITY(1,1)",
		SupportsOnUpdate:     true,
	},
	SQLite: {
		QuoteOpen:            `"`,
		QuoteClose:           `"`,
		AutoIncrementKeyword: "AUTOINCREMENT",
		InlineAutoIncPK:      true,
		InlineForeignKeys:    true,
		SupportsOnUpdate:     true,
	},
}

// ProfileFor returns the formatting profile for a dialect. Unknown kinds
// (possible only through unvalidated construction) fall back to PostgreSQL
// quoting so callers never emit unquoted identifiers.
func ProfileFor(k Kind) Profile {
	if p, ok := profiles[k]; ok {
		return p
	}
	return profiles[PostgreSQL]
}
