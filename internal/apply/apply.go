// Package apply executes generated DDL against a live database. It is the
// outer boundary of the editor core: it receives a synchronously-computed
// script and performs the I/O, surfacing the outcome without interpreting
// it further.
package apply

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/microsoft/go-mssqldb"
	_ "github.com/sijms/go-ora/v2"
	_ "modernc.org/sqlite"

	"github.com/erdraft/erdraft/internal/dialect"
)

// DriverFor maps a dialect to its database/sql driver name. MariaDB speaks
// the MySQL protocol and shares its driver.
func DriverFor(k dialect.Kind) (string, error) {
	switch k {
	case dialect.MySQL, dialect.MariaDB:
		return "mysql", nil
	case dialect.PostgreSQL:
		return "pgx", nil
	case dialect.MSSQL:
		return "sqlserver", nil
	case dialect.Oracle:
		return "oracle", nil
	case dialect.SQLite:
		return "sqlite", nil
	}
	return "", fmt.Errorf("no driver for dialect %q", k)
}

// Result reports what an apply run executed.
type Result struct {
	Statements int
}

// Run splits the script into statements and executes them in order against
// the database behind dsn. It stops at the first failure, reporting the
// failing statement's position and text.
func Run(ctx context.Context, k dialect.Kind, dsn, script string) (Result, error) {
	driver, err := DriverFor(k)
	if err != nil {
		return Result{}, err
	}

	db, err := sqlx.ConnectContext(ctx, driver, SanitizeDSN(k, dsn))
	if err != nil {
		return Result{}, fmt.Errorf("connect %s: %w", k, err)
	}
	defer db.Close()

	stmts := SplitStatements(script)
	for i, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return Result{Statements: i}, fmt.Errorf("statement %d of %d failed: %w\n%s", i+1, len(stmts), err, stmt)
		}
	}
	return Result{Statements: len(stmts)}, nil
}

// SplitStatements splits a DDL script on top-level semicolons, respecting
// single-quoted literals (comments may contain semicolons). Empty
// fragments are dropped.
func SplitStatements(script string) []string {
	var out []string
	var b strings.Builder
	inString := false

	for i := 0; i < len(script); i++ {
		ch := script[i]
		switch {
		case ch == '\'':
			inString = !inString
			b.WriteByte(ch)
		case ch == ';' && !inString:
			if stmt := strings.TrimSpace(b.String()); stmt != "" {
				out = append(out, stmt)
			}
			b.Reset()
		default:
			b.WriteByte(ch)
		}
	}
	if stmt := strings.TrimSpace(b.String()); stmt != "" {
		out = append(out, stmt)
	}
	return out
}
