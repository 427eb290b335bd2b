package engine

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/farmworlds/internal/events"
	"git.home.luguber.info/inful/farmworlds/internal/farm"
	ferrors "git.home.luguber.info/inful/farmworlds/internal/foundation/errors"
	"git.home.luguber.info/inful/farmworlds/internal/logfields"
)

// CreateFarm sends the player to their farm, creating it first if needed.
// An existing world folder for the farm is loaded as is; otherwise the
// template world is cloned. The returned bool is true when a farm was
// registered.
func (e *Engine) CreateFarm(ctx context.Context, owner uuid.UUID) (*farm.Farm, bool, error) {
	e.farmMu.Lock()
	defer e.farmMu.Unlock()

	if f, ok := e.repo.Farms.ByOwner(owner); ok {
		if err := e.host.GetOrCreateWorld(ctx, f.WorldName); err != nil {
			return nil, false, err
		}
		return f, false, e.host.Teleport(ctx, owner, f.WorldName)
	}

	world := e.repo.Farms.WorldName(owner)
	exists, err := e.host.WorldExists(ctx, world)
	if err != nil {
		return nil, false, err
	}
	if exists {
		err = e.host.GetOrCreateWorld(ctx, world)
	} else {
		err = e.host.CloneWorldTemplate(ctx, e.cfg.TemplateWorld, world)
	}
	if err != nil {
		slog.Error("Failed to prepare farm world",
			logfields.PlayerID(owner.String()),
			logfields.World(world),
			logfields.Error(err))
		return nil, false, err
	}

	f, err := e.repo.Farms.Create(ctx, owner)
	if err != nil {
		return nil, false, err
	}
	slog.Info("Farm created",
		logfields.PlayerID(owner.String()),
		logfields.Farm(f.WorldName),
		slog.Bool("from_template", !exists))
	e.publish(ctx, events.FarmCreated, events.FarmEvent{
		Owner: owner.String(), World: f.WorldName, PlayerID: owner.String(), Timestamp: e.now().UTC(),
	})
	return f, true, e.host.Teleport(ctx, owner, f.WorldName)
}

// VisitFarm teleports visitor to owner's farm when visitor is the owner or on
// its whitelist.
func (e *Engine) VisitFarm(ctx context.Context, visitor, owner uuid.UUID) error {
	f, ok := e.repo.Farms.ByOwner(owner)
	if !ok {
		return ferrors.NotFoundError("player has no farm").
			WithContext("owner", owner.String()).
			Build()
	}
	if !f.IsWhitelisted(visitor) {
		return ferrors.ValidationError("player is not whitelisted").
			WithContext("owner", owner.String()).
			WithContext("visitor", visitor.String()).
			Build()
	}
	if err := e.host.GetOrCreateWorld(ctx, f.WorldName); err != nil {
		return err
	}
	return e.host.Teleport(ctx, visitor, f.WorldName)
}

// Whitelist grants guest access to owner's farm.
func (e *Engine) Whitelist(ctx context.Context, owner, guest uuid.UUID) (bool, error) {
	changed, err := e.repo.Farms.Whitelist(ctx, owner, guest)
	if err == nil && changed {
		slog.Info("Guest whitelisted", logfields.PlayerID(owner.String()), slog.String("guest", guest.String()))
	}
	return changed, err
}

// Unwhitelist revokes guest access to owner's farm.
func (e *Engine) Unwhitelist(ctx context.Context, owner, guest uuid.UUID) (bool, error) {
	changed, err := e.repo.Farms.Unwhitelist(ctx, owner, guest)
	if err == nil && changed {
		slog.Info("Guest removed from whitelist", logfields.PlayerID(owner.String()), slog.String("guest", guest.String()))
	}
	return changed, err
}
