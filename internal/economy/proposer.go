package economy

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/farmworlds/internal/account"
	"git.home.luguber.info/inful/farmworlds/internal/events"
	ferrors "git.home.luguber.info/inful/farmworlds/internal/foundation/errors"
	"git.home.luguber.info/inful/farmworlds/internal/logfields"
	"git.home.luguber.info/inful/farmworlds/internal/metrics"
	"git.home.luguber.info/inful/farmworlds/internal/task"
)

// Saver persists the accounts table.
type Saver interface {
	Save(ctx context.Context) error
}

// ProposalResult describes one generation cycle.
type ProposalResult struct {
	Kind   task.Kind
	Task   task.Task
	Result account.AddResult
}

// Proposer offers generated candidates to accounts.
type Proposer struct {
	gen       *task.Generator
	players   Saver
	recorder  metrics.Recorder
	publisher events.Publisher
}

// NewProposer wires a proposer. Nil recorder and publisher are replaced by
// no-op implementations.
func NewProposer(gen *task.Generator, players Saver, recorder metrics.Recorder, publisher events.Publisher) *Proposer {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &Proposer{gen: gen, players: players, recorder: recorder, publisher: publisher}
}

// Propose draws one candidate of kind and offers it to a. Only an accepted
// candidate is persisted. A failed save leaves the task open in memory.
func (p *Proposer) Propose(ctx context.Context, a *account.PlayerAccount, kind task.Kind) (ProposalResult, error) {
	res := ProposalResult{Kind: kind}
	switch kind {
	case task.KindSingle:
		c := p.gen.NewSingle()
		res.Task, res.Result = c, a.TryAddSingle(c)
	case task.KindComposite:
		c := p.gen.NewComposite()
		res.Task, res.Result = c, a.TryAddComposite(c)
	default:
		return res, ferrors.ValidationError("unknown task kind").
			WithContext("kind", string(kind)).
			Build()
	}

	p.recorder.IncTaskProposal(string(kind), metrics.ResultLabel(res.Result))
	if res.Result != account.Accepted {
		slog.Debug("Task candidate rejected",
			logfields.PlayerID(a.ID().String()),
			logfields.TaskKind(string(kind)),
			logfields.Outcome(string(res.Result)))
		return res, nil
	}

	if err := p.players.Save(ctx); err != nil {
		return res, err
	}
	slog.Info("Task generated",
		logfields.PlayerID(a.ID().String()),
		logfields.TaskKind(string(kind)),
		logfields.Task(res.Task.Encode()))
	publish(ctx, p.publisher, events.TaskGenerated, events.TaskEvent{
		PlayerID:  a.ID().String(),
		Kind:      string(kind),
		Task:      res.Task.Encode(),
		Reward:    res.Task.Reward(),
		Timestamp: time.Now().UTC(),
	})
	return res, nil
}

// publish is best effort; delivery failures never undo a state change.
func publish(ctx context.Context, p events.Publisher, event string, payload any) {
	if err := p.Publish(ctx, event, payload); err != nil {
		slog.Warn("Failed to publish event", slog.String("event", event), logfields.Error(err))
	}
}
