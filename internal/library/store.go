// Package library persists named diagram snapshots and editor settings in
// a local SQLite database.
package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a named diagram or setting does not exist.
var ErrNotFound = errors.New("not found")

// Store manages the erdraft library backed by SQLite.
type Store struct {
	db *sqlx.DB
}

// NewStore opens (and migrates) the library database under dataDir. Pass an
// empty string for an in-memory database.
func NewStore(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == "" {
		dsn = ":memory:?_journal_mode=WAL"
	} else {
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		dsn = filepath.Join(dataDir, "erdraft.db") + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open library database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate library database: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Entry is one saved diagram. Document holds the snapshot JSON; the other
// columns are denormalized for listing without decoding.
type Entry struct {
	ID         int64     `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Dialect    string    `db:"dialect" json:"dialect"`
	TableCount int       `db:"table_count" json:"table_count"`
	Document   string    `db:"document" json:"-"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// ---------------------------------------------------------------------------
// Diagram CRUD
// ---------------------------------------------------------------------------

// SaveDiagram inserts or replaces the snapshot saved under name.
func (s *Store) SaveDiagram(ctx context.Context, name, dialect string, tableCount int, document []byte) error {
	if name == "" {
		return fmt.Errorf("diagram name is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO diagrams (name, dialect, table_count, document, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET
			dialect = excluded.dialect,
			table_count = excluded.table_count,
			document = excluded.document,
			updated_at = CURRENT_TIMESTAMP`,
		name, dialect, tableCount, string(document),
	)
	if err != nil {
		return fmt.Errorf("save diagram %q: %w", name, err)
	}
	return nil
}

// GetDiagram returns the saved entry with its document.
func (s *Store) GetDiagram(ctx context.Context, name string) (*Entry, error) {
	var e Entry
	err := s.db.GetContext(ctx, &e,
		`SELECT id, name, dialect, table_count, document, created_at, updated_at
		 FROM diagrams WHERE name = ?`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("diagram %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get diagram %q: %w", name, err)
	}
	return &e, nil
}

// ListDiagrams returns all saved entries without their documents, newest
// first.
func (s *Store) ListDiagrams(ctx context.Context) ([]Entry, error) {
	var out []Entry
	err := s.db.SelectContext(ctx, &out,
		`SELECT id, name, dialect, table_count, '' AS document, created_at, updated_at
		 FROM diagrams ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list diagrams: %w", err)
	}
	return out, nil
}

// DeleteDiagram removes a saved diagram.
func (s *Store) DeleteDiagram(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM diagrams WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete diagram %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("diagram %q: %w", name, ErrNotFound)
	}
	return nil
}

// RenameDiagram renames a saved diagram.
func (s *Store) RenameDiagram(ctx context.Context, oldName, newName string) error {
	if newName == "" {
		return fmt.Errorf("diagram name is required")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE diagrams SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE name = ?`,
		newName, oldName)
	if err != nil {
		return fmt.Errorf("rename diagram %q: %w", oldName, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("diagram %q: %w", oldName, ErrNotFound)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Settings
// ---------------------------------------------------------------------------

// GetSetting returns the value stored under key.
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.GetContext(ctx, &value, `SELECT value FROM settings WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("setting %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

// SetSetting stores a value under key, replacing any existing value.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}
