// Package pgstore keeps each table in a Postgres table with a single "data"
// column, replaced inside one transaction on every save.
package pgstore

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	ferrors "git.home.luguber.info/inful/farmworlds/internal/foundation/errors"
	"git.home.luguber.info/inful/farmworlds/internal/store"
)

const (
	driverName = "pgx"
	DefaultDSN = "postgres://localhost/farmworlds?sslmode=disable"
)

var sqlOpen = sql.Open

// Store implements store.Store on Postgres.
type Store struct {
	db *sql.DB

	mu      sync.Mutex
	created map[string]bool
}

var _ store.Store = (*Store)(nil)

// Open connects and pings the server. An empty dsn uses DefaultDSN.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = DefaultDSN
	}
	db, err := sqlOpen(driverName, dsn)
	if err != nil {
		return nil, ferrors.IOError("open postgres").WithCause(err).Build()
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, ferrors.IOError("ping postgres").WithCause(err).Build()
	}
	return &Store{db: db, created: map[string]bool{}}, nil
}

// DB exposes the underlying sql.DB for integration tests.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) ensureTable(ctx context.Context, table string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.created[table] {
		return nil
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (
		id BIGSERIAL PRIMARY KEY,
		data TEXT NOT NULL
	)`, table)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure table %s: %w", table, err)
	}
	s.created[table] = true
	return nil
}

// SaveAll deletes and reinserts every row in one transaction.
func (s *Store) SaveAll(ctx context.Context, table string, rows []string) error {
	if err := store.ValidateTable(table); err != nil {
		return err
	}
	if err := s.ensureTable(ctx, table); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	// Serializes concurrent full replaces of the same table across processes.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`LOCK TABLE %q IN EXCLUSIVE MODE`, table)); err != nil {
		return fmt.Errorf("lock %s: %w", table, err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %q`, table)); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}
	insert := fmt.Sprintf(`INSERT INTO %q (data) VALUES ($1)`, table)
	for _, row := range rows {
		if _, err := tx.ExecContext(ctx, insert, row); err != nil {
			return fmt.Errorf("insert into %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

func (s *Store) LoadAll(ctx context.Context, table string) ([]string, error) {
	if err := store.ValidateTable(table); err != nil {
		return nil, err
	}
	if err := s.ensureTable(ctx, table); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT data FROM %q ORDER BY id`, table))
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		out = append(out, data)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", table, err)
	}
	return out, nil
}

func (s *Store) Close() error { return s.db.Close() }
