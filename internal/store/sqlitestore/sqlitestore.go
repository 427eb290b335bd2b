// Package sqlitestore keeps each table in its own SQLite file,
// <dir>/<table>.db, with a single "data" column.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	ferrors "git.home.luguber.info/inful/farmworlds/internal/foundation/errors"
	"git.home.luguber.info/inful/farmworlds/internal/store"
)

const schema = `CREATE TABLE IF NOT EXISTS entries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	data TEXT NOT NULL
)`

// Store implements store.Store on SQLite files.
type Store struct {
	dir string
	mu  sync.RWMutex
}

var _ store.Store = (*Store)(nil)

// New creates dir if needed.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, ferrors.ConfigError("sqlite directory is required").Build()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, ferrors.IOError("create data directory").
			WithCause(err).
			WithContext("dir", dir).
			Build()
	}
	return &Store{dir: dir}, nil
}

// Path is the database file backing table.
func (s *Store) Path(table string) string {
	return filepath.Join(s.dir, table+".db")
}

// SaveAll builds a fresh database next to the live one and renames it into
// place, so readers see either the old table or the new one.
func (s *Store) SaveAll(ctx context.Context, table string, rows []string) error {
	if err := store.ValidateTable(table); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, table+".*.db.tmp")
	if err != nil {
		return fmt.Errorf("create temp database: %w", err)
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := writeRows(ctx, tmpPath, rows); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, s.Path(table)); err != nil {
		return fmt.Errorf("replace %s: %w", table, err)
	}
	committed = true
	return nil
}

func writeRows(ctx context.Context, path string, rows []string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open sqlite database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("initialize schema: %w", err)
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO entries (data) VALUES (?)")
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()
	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert row: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// LoadAll returns rows in insertion order. A missing file is an empty table.
func (s *Store) LoadAll(ctx context.Context, table string) ([]string, error) {
	if err := store.ValidateTable(table); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	path := s.Path(table)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	q, err := db.QueryContext(ctx, "SELECT data FROM entries ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer func() { _ = q.Close() }()

	var out []string
	for q.Next() {
		var data string
		if err := q.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, data)
	}
	if err := q.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

func (s *Store) Close() error { return nil }
