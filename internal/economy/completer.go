package economy

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/farmworlds/internal/account"
	"git.home.luguber.info/inful/farmworlds/internal/events"
	ferrors "git.home.luguber.info/inful/farmworlds/internal/foundation/errors"
	"git.home.luguber.info/inful/farmworlds/internal/host"
	"git.home.luguber.info/inful/farmworlds/internal/logfields"
	"git.home.luguber.info/inful/farmworlds/internal/metrics"
	"git.home.luguber.info/inful/farmworlds/internal/task"
)

// Status classifies a settlement attempt.
type Status string

const (
	StatusCompleted           Status = "completed"
	StatusInsufficientItems   Status = "insufficient_items"
	StatusStale               Status = "stale"
	StatusWithdrawn           Status = "withdrawn"
	StatusInsufficientBalance Status = "insufficient_balance"
)

// Outcome is the result of Complete or Withdraw. Expected refusals are
// outcomes, not errors.
type Outcome struct {
	Status    Status
	Reward    float64
	ItemsSold int
	Balance   float64
}

// Completer settles tasks against the host inventory.
type Completer struct {
	host      host.Host
	players   Saver
	recorder  metrics.Recorder
	publisher events.Publisher
}

func NewCompleter(h host.Host, players Saver, recorder metrics.Recorder, publisher events.Publisher) *Completer {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &Completer{host: h, players: players, recorder: recorder, publisher: publisher}
}

// CanComplete checks t against the player's current inventory.
func (c *Completer) CanComplete(ctx context.Context, a *account.PlayerAccount, t task.Task) (bool, error) {
	if t == nil {
		return false, errTaskRequired()
	}
	inv, err := c.host.GetPlayerInventory(ctx, a.ID())
	if err != nil {
		return false, err
	}
	return t.CanComplete(inv), nil
}

// Complete removes the required items, credits the reward and closes the
// task. The account stays locked for the whole settlement so a task can only
// be paid once. The inventory is left untouched unless every requirement fits.
func (c *Completer) Complete(ctx context.Context, a *account.PlayerAccount, t task.Task) (Outcome, error) {
	if t == nil {
		return Outcome{}, errTaskRequired()
	}
	var out Outcome
	err := a.WithLock(func(tx account.Tx) error {
		out.Balance = tx.Balance()
		if !tx.Has(t) {
			out.Status = StatusStale
			return nil
		}
		reqs := t.Requirements()
		err := c.host.MutatePlayerInventory(ctx, a.ID(), func(inv *host.Inventory) error {
			for _, r := range reqs {
				if err := inv.RemoveFirstFit(r.Material, r.Amount); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			if ferrors.HasCategory(err, ferrors.CategoryInsufficientItems) {
				out.Status = StatusInsufficientItems
				return nil
			}
			return err
		}
		if err := tx.Credit(t.Reward()); err != nil {
			return err
		}
		tx.Remove(t)
		out = Outcome{
			Status:    StatusCompleted,
			Reward:    t.Reward(),
			ItemsSold: itemCount(reqs),
			Balance:   tx.Balance(),
		}
		return nil
	})

	kind := string(t.Kind())
	if err != nil {
		c.recorder.IncTaskCompletion(kind, metrics.ResultError)
		slog.Error("Task settlement failed",
			logfields.PlayerID(a.ID().String()),
			logfields.TaskKind(kind),
			logfields.Error(err))
		return out, err
	}
	c.recorder.IncTaskCompletion(kind, metrics.ResultLabel(out.Status))
	if out.Status != StatusCompleted {
		slog.Debug("Task not completed",
			logfields.PlayerID(a.ID().String()),
			logfields.TaskKind(kind),
			logfields.Outcome(string(out.Status)))
		return out, nil
	}

	if err := c.players.Save(ctx); err != nil {
		return out, err
	}
	slog.Info("Task completed",
		logfields.PlayerID(a.ID().String()),
		logfields.TaskKind(kind),
		logfields.Task(t.Encode()),
		slog.Float64("reward", out.Reward),
		slog.Int("items", out.ItemsSold))
	publish(ctx, c.publisher, events.TaskCompleted, events.TaskEvent{
		PlayerID:  a.ID().String(),
		Kind:      kind,
		Task:      t.Encode(),
		Reward:    out.Reward,
		Timestamp: time.Now().UTC(),
	})
	return out, nil
}

// Withdraw debits amount. An insufficient balance is reported as an outcome
// and changes nothing.
func (c *Completer) Withdraw(ctx context.Context, a *account.PlayerAccount, amount float64) (Outcome, error) {
	if err := a.Debit(amount); err != nil {
		if ferrors.HasCategory(err, ferrors.CategoryInsufficientBalance) {
			return Outcome{Status: StatusInsufficientBalance, Balance: a.Balance()}, nil
		}
		return Outcome{}, err
	}
	out := Outcome{Status: StatusWithdrawn, Balance: a.Balance()}
	if err := c.players.Save(ctx); err != nil {
		return out, err
	}
	slog.Info("Balance withdrawn",
		logfields.PlayerID(a.ID().String()),
		slog.Float64("amount", amount),
		slog.Float64("balance", out.Balance))
	return out, nil
}

func itemCount(reqs []task.Requirement) int {
	n := 0
	for _, r := range reqs {
		n += r.Amount
	}
	return n
}

func errTaskRequired() error {
	return ferrors.ValidationError("task is required").Build()
}
