// Package host declares what the engine needs from the game server: worlds,
// online players and their inventories.
package host

import (
	"context"

	"github.com/google/uuid"
)

// Player is an online player.
type Player struct {
	ID   uuid.UUID
	Name string
}

// InventoryOp mutates an inventory. Returning an error discards the change.
type InventoryOp func(inv *Inventory) error

// Host is implemented by the server integration. Calls may block on world I/O.
type Host interface {
	// WorldExists reports whether a world with name is known, loaded or not.
	WorldExists(ctx context.Context, name string) (bool, error)
	// GetOrCreateWorld loads name, creating an empty world if it is missing.
	GetOrCreateWorld(ctx context.Context, name string) error
	// CloneWorldTemplate copies the src world into a new world dst and loads it.
	CloneWorldTemplate(ctx context.Context, src, dst string) error
	// Teleport moves an online player into world.
	Teleport(ctx context.Context, player uuid.UUID, world string) error
	GetOnlinePlayers(ctx context.Context) ([]Player, error)
	// GetPlayerInventory returns a copy of the player's inventory.
	GetPlayerInventory(ctx context.Context, player uuid.UUID) (Inventory, error)
	// MutatePlayerInventory runs op against the live inventory atomically.
	MutatePlayerInventory(ctx context.Context, player uuid.UUID, op InventoryOp) error
}
