package engine

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/farmworlds/internal/account"
	"git.home.luguber.info/inful/farmworlds/internal/events"
	"git.home.luguber.info/inful/farmworlds/internal/logfields"
)

// OnJoin loads or creates the player's account and starts its generator
// loops.
func (e *Engine) OnJoin(ctx context.Context, id uuid.UUID, displayName string) (*account.PlayerAccount, error) {
	a, created, err := e.repo.Players.GetOrCreate(ctx, id, displayName)
	if err != nil {
		return nil, err
	}
	if err := e.scheduler.StartSession(a); err != nil {
		return nil, err
	}
	slog.Info("Player joined",
		logfields.PlayerID(id.String()),
		logfields.PlayerName(displayName),
		slog.Bool("new_account", created))
	return a, nil
}

// OnQuit stops the player's loops. Open tasks and balance stay persisted.
func (e *Engine) OnQuit(id uuid.UUID) {
	e.scheduler.StopSession(id)
	slog.Info("Player quit", logfields.PlayerID(id.String()))
}

// OnWorldChange records a leave on the farm behind from and an access on the
// farm behind to.
func (e *Engine) OnWorldChange(ctx context.Context, id uuid.UUID, playerName, from, to string) error {
	tr, err := e.repo.Farms.RecordTransition(ctx, playerName, from, to)
	if err != nil {
		return err
	}
	at := e.now().UTC()
	if tr.Left != nil {
		e.publish(ctx, events.FarmLeave, events.FarmEvent{
			Owner: tr.Left.Owner.String(), World: tr.Left.WorldName,
			PlayerID: id.String(), PlayerName: playerName, Timestamp: at,
		})
	}
	if tr.Entered != nil {
		e.publish(ctx, events.FarmAccess, events.FarmEvent{
			Owner: tr.Entered.Owner.String(), World: tr.Entered.WorldName,
			PlayerID: id.String(), PlayerName: playerName, Timestamp: at,
		})
	}
	slog.Debug("World change",
		logfields.PlayerID(id.String()),
		slog.String("from", from),
		slog.String("to", to))
	return nil
}
