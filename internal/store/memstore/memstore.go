// Package memstore is an in-process Store used by tests and simulations.
package memstore

import (
	"context"
	"slices"
	"sync"

	"git.home.luguber.info/inful/farmworlds/internal/store"
)

// Store keeps tables in memory.
type Store struct {
	mu     sync.RWMutex
	tables map[string][]string
	saves  map[string]int
	fail   error
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{tables: map[string][]string{}, saves: map[string]int{}}
}

func (s *Store) SaveAll(ctx context.Context, table string, rows []string) error {
	if err := store.ValidateTable(table); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.tables[table] = slices.Clone(rows)
	s.saves[table]++
	return nil
}

func (s *Store) LoadAll(ctx context.Context, table string) ([]string, error) {
	if err := store.ValidateTable(table); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.tables[table]), nil
}

func (s *Store) Close() error { return nil }

// Saves reports how many times table was written.
func (s *Store) Saves(table string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves[table]
}

// FailWith makes every following SaveAll return err. Pass nil to reset.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

// Put seeds table with rows without counting a save.
func (s *Store) Put(table string, rows ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[table] = slices.Clone(rows)
}
