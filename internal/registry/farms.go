package registry

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/farmworlds/internal/farm"
	ferrors "git.home.luguber.info/inful/farmworlds/internal/foundation/errors"
	"git.home.luguber.info/inful/farmworlds/internal/store"
)

// FarmRegistry owns every Farm. Lookups return copies.
type FarmRegistry struct {
	table  *store.Table[*farm.Farm]
	prefix string
	now    func() time.Time

	mu    sync.RWMutex
	farms []*farm.Farm
}

func newFarmRegistry(table *store.Table[*farm.Farm], farms []*farm.Farm, opts Options) *FarmRegistry {
	return &FarmRegistry{table: table, prefix: opts.WorldPrefix, now: opts.Now, farms: farms}
}

// WorldName is the world an owner's farm lives in.
func (r *FarmRegistry) WorldName(owner uuid.UUID) string {
	return farm.WorldName(owner, r.prefix)
}

// Create registers a new farm for owner and persists it. It does not check
// for an existing farm; callers use OwnsFarm first.
func (r *FarmRegistry) Create(ctx context.Context, owner uuid.UUID) (*farm.Farm, error) {
	f := farm.New(owner, r.prefix)
	r.mu.Lock()
	r.farms = append(r.farms, f)
	out := f.Clone()
	r.mu.Unlock()
	return out, r.Save(ctx)
}

func (r *FarmRegistry) find(pred func(*farm.Farm) bool) *farm.Farm {
	i := slices.IndexFunc(r.farms, pred)
	if i < 0 {
		return nil
	}
	return r.farms[i]
}

func (r *FarmRegistry) byOwner(owner uuid.UUID) *farm.Farm {
	return r.find(func(f *farm.Farm) bool { return f.Owner == owner })
}

func (r *FarmRegistry) byWorld(world string) *farm.Farm {
	return r.find(func(f *farm.Farm) bool { return f.WorldName == world })
}

// ByOwner returns owner's farm.
func (r *FarmRegistry) ByOwner(owner uuid.UUID) (*farm.Farm, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if f := r.byOwner(owner); f != nil {
		return f.Clone(), true
	}
	return nil, false
}

// ByWorld returns the farm living in world.
func (r *FarmRegistry) ByWorld(world string) (*farm.Farm, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if f := r.byWorld(world); f != nil {
		return f.Clone(), true
	}
	return nil, false
}

// OwnsFarm reports whether owner already has a farm.
func (r *FarmRegistry) OwnsFarm(owner uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byOwner(owner) != nil
}

// WhitelistedIn returns the farms player may visit as a guest.
func (r *FarmRegistry) WhitelistedIn(player uuid.UUID) []*farm.Farm {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*farm.Farm
	for _, f := range r.farms {
		if slices.Contains(f.Whitelist, player) {
			out = append(out, f.Clone())
		}
	}
	return out
}

// All returns copies of every farm.
func (r *FarmRegistry) All() []*farm.Farm {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

func (r *FarmRegistry) snapshotLocked() []*farm.Farm {
	out := make([]*farm.Farm, 0, len(r.farms))
	for _, f := range r.farms {
		out = append(out, f.Clone())
	}
	return out
}

// Len is the number of farms.
func (r *FarmRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.farms)
}

// Whitelist grants player access to owner's farm. Adding an existing guest
// changes nothing and writes nothing.
func (r *FarmRegistry) Whitelist(ctx context.Context, owner, player uuid.UUID) (bool, error) {
	return r.mutateWhitelist(ctx, owner, func(f *farm.Farm) bool { return f.AddToWhitelist(player) })
}

// Unwhitelist revokes access. Removing an absent guest writes nothing.
func (r *FarmRegistry) Unwhitelist(ctx context.Context, owner, player uuid.UUID) (bool, error) {
	return r.mutateWhitelist(ctx, owner, func(f *farm.Farm) bool { return f.RemoveFromWhitelist(player) })
}

func (r *FarmRegistry) mutateWhitelist(ctx context.Context, owner uuid.UUID, op func(*farm.Farm) bool) (bool, error) {
	r.mu.Lock()
	f := r.byOwner(owner)
	if f == nil {
		r.mu.Unlock()
		return false, ferrors.NotFoundError("player has no farm").
			WithContext("owner", owner.String()).
			Build()
	}
	changed := op(f)
	r.mu.Unlock()
	if !changed {
		return false, nil
	}
	return true, r.Save(ctx)
}

// Transition is what RecordTransition appended.
type Transition struct {
	Left    *farm.Farm
	Entered *farm.Farm
}

// RecordTransition logs a Leave on the farm owning from and an Access on the
// farm owning to. Either, both or neither may apply; the table is written
// only when something was appended.
func (r *FarmRegistry) RecordTransition(ctx context.Context, playerName, from, to string) (Transition, error) {
	at := r.now()
	leave, err := farm.NewHistoryAction(farm.Leave, playerName, at)
	if err != nil {
		return Transition{}, err
	}
	access, err := farm.NewHistoryAction(farm.Access, playerName, at)
	if err != nil {
		return Transition{}, err
	}

	var tr Transition
	r.mu.Lock()
	if f := r.byWorld(from); f != nil && from != "" {
		f.AppendHistory(leave)
		tr.Left = f.Clone()
	}
	if f := r.byWorld(to); f != nil && to != "" {
		f.AppendHistory(access)
		tr.Entered = f.Clone()
	}
	r.mu.Unlock()

	if tr.Left == nil && tr.Entered == nil {
		return tr, nil
	}
	return tr, r.Save(ctx)
}

// Save writes the whole farms table.
func (r *FarmRegistry) Save(ctx context.Context) error {
	return r.table.SaveFunc(ctx, func() []*farm.Farm {
		r.mu.RLock()
		defer r.mu.RUnlock()
		return r.snapshotLocked()
	})
}
