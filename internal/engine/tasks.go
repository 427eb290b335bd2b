package engine

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/farmworlds/internal/account"
	"git.home.luguber.info/inful/farmworlds/internal/config"
	"git.home.luguber.info/inful/farmworlds/internal/economy"
	ferrors "git.home.luguber.info/inful/farmworlds/internal/foundation/errors"
	"git.home.luguber.info/inful/farmworlds/internal/logfields"
	"git.home.luguber.info/inful/farmworlds/internal/scheduler"
	"git.home.luguber.info/inful/farmworlds/internal/task"
)

func (e *Engine) account(id uuid.UUID) (*account.PlayerAccount, error) {
	a, ok := e.repo.Players.Get(id)
	if !ok {
		return nil, ferrors.NotFoundError("unknown player").
			WithContext("player_id", id.String()).
			Build()
	}
	return a, nil
}

// OpenTasks returns the player's open tasks with their menu icons rendered
// against the current inventory.
func (e *Engine) OpenTasks(ctx context.Context, id uuid.UUID) ([]task.Icon, error) {
	a, err := e.account(id)
	if err != nil {
		return nil, err
	}
	inv, err := e.host.GetPlayerInventory(ctx, id)
	if err != nil {
		return nil, err
	}
	open := a.OpenTasks()
	icons := make([]task.Icon, 0, len(open))
	for _, t := range open {
		icons = append(icons, t.Icon(inv))
	}
	return icons, nil
}

// CompleteTask settles t for player id.
func (e *Engine) CompleteTask(ctx context.Context, id uuid.UUID, t task.Task) (economy.Outcome, error) {
	a, err := e.account(id)
	if err != nil {
		return economy.Outcome{}, err
	}
	return e.completer.Complete(ctx, a, t)
}

// Propose runs one generation cycle outside the loops.
func (e *Engine) Propose(ctx context.Context, id uuid.UUID, kind task.Kind) (economy.ProposalResult, error) {
	a, err := e.account(id)
	if err != nil {
		return economy.ProposalResult{}, err
	}
	return e.proposer.Propose(ctx, a, kind)
}

// Withdraw debits amount from the player's balance.
func (e *Engine) Withdraw(ctx context.Context, id uuid.UUID, amount float64) (economy.Outcome, error) {
	a, err := e.account(id)
	if err != nil {
		return economy.Outcome{}, err
	}
	return e.completer.Withdraw(ctx, a, amount)
}

// IncreaseQuota raises the number of open tasks of kind the player may hold
// and persists the account.
func (e *Engine) IncreaseQuota(ctx context.Context, id uuid.UUID, kind task.Kind, n int) (account.Quotas, error) {
	a, err := e.account(id)
	if err != nil {
		return account.Quotas{}, err
	}
	switch kind {
	case task.KindSingle:
		err = a.IncreaseMaxSingleTasks(n)
	case task.KindComposite:
		err = a.IncreaseMaxCompositeTasks(n)
	default:
		err = ferrors.ValidationError("unknown task kind").WithContext("kind", string(kind)).Build()
	}
	if err != nil {
		return account.Quotas{}, err
	}
	if err := e.repo.Players.Save(ctx); err != nil {
		return a.Quotas(), err
	}
	q := a.Quotas()
	slog.Info("Task quota increased",
		logfields.PlayerID(id.String()),
		logfields.TaskKind(string(kind)),
		slog.Int("max_single", q.MaxSingle),
		slog.Int("max_composite", q.MaxComposite))
	return q, nil
}

// ApplyTuning swaps the generator catalog, tuning and loop period. Nothing
// changes when the catalog or period is invalid. Quotas of existing accounts
// are not touched.
func (e *Engine) ApplyTuning(cfg config.TasksConfig) error {
	catalog := cfg.TaskCatalog()
	if err := catalog.Validate(); err != nil {
		return err
	}
	minPeriod, maxPeriod := cfg.Period()
	if err := e.scheduler.SetPeriod(scheduler.Period{Min: minPeriod, Max: maxPeriod}); err != nil {
		return err
	}
	if err := e.gen.SetCatalog(catalog); err != nil {
		return err
	}
	e.gen.SetTuning(cfg.Tuning())
	slog.Info("Task tuning applied",
		slog.Int("max_amount", cfg.MaxAmount),
		slog.Float64("reward_multiplier", cfg.RewardMultiplier),
		slog.Int("requests", len(catalog.Requests)))
	return nil
}
