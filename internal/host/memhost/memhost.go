// Package memhost is an in-memory Host for tests and simulations.
package memhost

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	ferrors "git.home.luguber.info/inful/farmworlds/internal/foundation/errors"
	"git.home.luguber.info/inful/farmworlds/internal/host"
)

// Host keeps worlds, players and inventories in maps.
type Host struct {
	mu          sync.Mutex
	worlds      map[string]bool
	players     map[uuid.UUID]string
	order       []uuid.UUID
	inventories map[uuid.UUID]*host.Inventory
	locations   map[uuid.UUID]string
	clones      []string
}

var _ host.Host = (*Host)(nil)

// New creates a host with the given worlds already on disk.
func New(worlds ...string) *Host {
	h := &Host{
		worlds:      map[string]bool{},
		players:     map[uuid.UUID]string{},
		inventories: map[uuid.UUID]*host.Inventory{},
		locations:   map[uuid.UUID]string{},
	}
	for _, w := range worlds {
		h.worlds[w] = true
	}
	return h
}

// Join puts a player online with an inventory.
func (h *Host) Join(id uuid.UUID, name string, stacks ...host.ItemStack) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.players[id]; !ok {
		h.order = append(h.order, id)
	}
	h.players[id] = name
	inv := host.NewInventory(stacks...)
	h.inventories[id] = &inv
}

// Quit takes a player offline. The inventory is kept.
func (h *Host) Quit(id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.players, id)
	h.order = slices.DeleteFunc(h.order, func(o uuid.UUID) bool { return o == id })
}

// Give adds items to a player's inventory.
func (h *Host) Give(id uuid.UUID, material string, amount int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	inv, ok := h.inventories[id]
	if !ok {
		inv = &host.Inventory{}
		h.inventories[id] = inv
	}
	inv.Add(material, amount)
}

// Location is the world a player was last teleported to.
func (h *Host) Location(id uuid.UUID) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.locations[id]
}

// Clones lists the dst names of every template clone, in order.
func (h *Host) Clones() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.clones)
}

func (h *Host) WorldExists(ctx context.Context, name string) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.worlds[name], ctx.Err()
}

func (h *Host) GetOrCreateWorld(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.worlds[name] = true
	return nil
}

func (h *Host) CloneWorldTemplate(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.worlds[src] {
		return ferrors.NotFoundError("template world not found").WithContext("world", src).Build()
	}
	if h.worlds[dst] {
		return ferrors.NewError(ferrors.CategoryAlreadyExists, "world already exists").WithContext("world", dst).Build()
	}
	h.worlds[dst] = true
	h.clones = append(h.clones, dst)
	return nil
}

func (h *Host) Teleport(ctx context.Context, player uuid.UUID, world string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.players[player]; !ok {
		return ferrors.NotFoundError("player is offline").WithContext("player_id", player.String()).Build()
	}
	if !h.worlds[world] {
		return ferrors.NotFoundError("world not found").WithContext("world", world).Build()
	}
	h.locations[player] = world
	return nil
}

func (h *Host) GetOnlinePlayers(ctx context.Context) ([]host.Player, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]host.Player, 0, len(h.order))
	for _, id := range h.order {
		out = append(out, host.Player{ID: id, Name: h.players[id]})
	}
	return out, ctx.Err()
}

func (h *Host) GetPlayerInventory(ctx context.Context, player uuid.UUID) (host.Inventory, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	inv, ok := h.inventories[player]
	if !ok {
		return host.Inventory{}, ferrors.NotFoundError("unknown player").WithContext("player_id", player.String()).Build()
	}
	return inv.Clone(), ctx.Err()
}

// MutatePlayerInventory applies op to a copy and commits it only on success.
func (h *Host) MutatePlayerInventory(ctx context.Context, player uuid.UUID, op host.InventoryOp) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	inv, ok := h.inventories[player]
	if !ok {
		return ferrors.NotFoundError("unknown player").WithContext("player_id", player.String()).Build()
	}
	work := inv.Clone()
	if err := op(&work); err != nil {
		return err
	}
	*inv = work
	return nil
}
