// Package registry keeps the authoritative in-memory farms and player
// accounts and writes the whole table back after every change.
package registry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/farmworlds/internal/account"
	"git.home.luguber.info/inful/farmworlds/internal/codec"
	"git.home.luguber.info/inful/farmworlds/internal/farm"
	"git.home.luguber.info/inful/farmworlds/internal/logfields"
	"git.home.luguber.info/inful/farmworlds/internal/metrics"
	"git.home.luguber.info/inful/farmworlds/internal/retry"
	"git.home.luguber.info/inful/farmworlds/internal/store"
)

// Options configures Init. Zero values fall back to defaults.
type Options struct {
	WorldPrefix string
	Quotas      account.Quotas
	Recorder    metrics.Recorder
	// Retry applies to saves of both tables. The zero policy never retries.
	Retry retry.Policy
	Now   func() time.Time
}

func (o Options) withDefaults() Options {
	if o.WorldPrefix == "" {
		o.WorldPrefix = farm.DefaultWorldPrefix
	}
	if o.Quotas == (account.Quotas{}) {
		o.Quotas = account.DefaultQuotas()
	}
	if o.Recorder == nil {
		o.Recorder = metrics.NoopRecorder{}
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Repository bundles both registries over one store.
type Repository struct {
	Farms   *FarmRegistry
	Players *PlayerRegistry
}

// Init loads both tables. A corrupt row in either aborts the whole load.
func Init(ctx context.Context, s store.Store, opts Options) (*Repository, error) {
	opts = opts.withDefaults()

	farmTable, err := store.NewTable[*farm.Farm](s, store.TableFarms, codec.FarmCodec{}, opts.Recorder)
	if err != nil {
		return nil, err
	}
	playerTable, err := store.NewTable[*account.PlayerAccount](s, store.TablePlayers, codec.AccountCodec{}, opts.Recorder)
	if err != nil {
		return nil, err
	}

	farmTable.SetRetry(opts.Retry)
	playerTable.SetRetry(opts.Retry)

	farms, err := farmTable.Load(ctx)
	if err != nil {
		return nil, err
	}
	accounts, err := playerTable.Load(ctx)
	if err != nil {
		return nil, err
	}

	repo := &Repository{
		Farms:   newFarmRegistry(farmTable, farms, opts),
		Players: newPlayerRegistry(playerTable, accounts, opts),
	}
	slog.Info("Repository loaded",
		slog.Int("farms", len(farms)),
		slog.Int("players", len(accounts)))
	return repo, nil
}

// Shutdown writes both tables. Both are attempted even if the first fails.
func (r *Repository) Shutdown(ctx context.Context) error {
	errFarms := r.Farms.Save(ctx)
	errPlayers := r.Players.Save(ctx)
	if err := errors.Join(errFarms, errPlayers); err != nil {
		slog.Error("Repository flush failed", logfields.Error(err))
		return err
	}
	slog.Info("Repository flushed")
	return nil
}
