package registry

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/farmworlds/internal/account"
	"git.home.luguber.info/inful/farmworlds/internal/store"
)

// PlayerRegistry owns every PlayerAccount. Accounts are shared pointers; they
// carry their own lock.
type PlayerRegistry struct {
	table  *store.Table[*account.PlayerAccount]
	quotas account.Quotas

	mu       sync.RWMutex
	accounts map[uuid.UUID]*account.PlayerAccount
	order    []uuid.UUID
}

func newPlayerRegistry(table *store.Table[*account.PlayerAccount], accounts []*account.PlayerAccount, opts Options) *PlayerRegistry {
	r := &PlayerRegistry{
		table:    table,
		quotas:   opts.Quotas,
		accounts: make(map[uuid.UUID]*account.PlayerAccount, len(accounts)),
	}
	for _, a := range accounts {
		if _, dup := r.accounts[a.ID()]; dup {
			continue
		}
		r.accounts[a.ID()] = a
		r.order = append(r.order, a.ID())
	}
	return r
}

// GetOrCreate returns the account for id, creating and persisting it on first
// sight. The cached display name is refreshed when it changed.
func (r *PlayerRegistry) GetOrCreate(ctx context.Context, id uuid.UUID, displayName string) (*account.PlayerAccount, bool, error) {
	r.mu.Lock()
	if a, ok := r.accounts[id]; ok {
		r.mu.Unlock()
		if a.SetDisplayName(displayName) {
			return a, false, r.Save(ctx)
		}
		return a, false, nil
	}
	a := account.New(id, displayName, r.quotas)
	r.accounts[id] = a
	r.order = append(r.order, id)
	r.mu.Unlock()
	return a, true, r.Save(ctx)
}

func (r *PlayerRegistry) Get(id uuid.UUID) (*account.PlayerAccount, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.accounts[id]
	return a, ok
}

// All returns every account in creation order.
func (r *PlayerRegistry) All() []*account.PlayerAccount {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*account.PlayerAccount, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.accounts[id])
	}
	return out
}

func (r *PlayerRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Save writes the whole players table. Callers must not hold an account lock.
func (r *PlayerRegistry) Save(ctx context.Context) error {
	return r.table.SaveFunc(ctx, r.All)
}
