// Package scheduler runs the per-player task generation loops on gocron.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"

	"git.home.luguber.info/inful/farmworlds/internal/account"
	"git.home.luguber.info/inful/farmworlds/internal/economy"
	ferrors "git.home.luguber.info/inful/farmworlds/internal/foundation/errors"
	"git.home.luguber.info/inful/farmworlds/internal/logfields"
	"git.home.luguber.info/inful/farmworlds/internal/metrics"
	"git.home.luguber.info/inful/farmworlds/internal/task"
)

// Proposer is what a loop calls on every run.
type Proposer interface {
	Propose(ctx context.Context, a *account.PlayerAccount, kind task.Kind) (economy.ProposalResult, error)
}

// Period bounds the random delay between two runs of a loop.
type Period struct {
	Min time.Duration
	Max time.Duration
}

func (p Period) validate() error {
	if p.Min <= 0 || p.Max < p.Min {
		return ferrors.ValidationError("invalid generator period").
			WithContext("min", p.Min.String()).
			WithContext("max", p.Max.String()).
			Build()
	}
	return nil
}

// definition re-samples a delay in [Min, Max] on every run. A fixed period is
// used when both bounds agree.
func (p Period) definition() gocron.JobDefinition {
	if p.Min == p.Max {
		return gocron.DurationJob(p.Min)
	}
	return gocron.DurationRandomJob(p.Min, p.Max)
}

// Scheduler wraps a gocron scheduler holding two jobs per online player.
type Scheduler struct {
	scheduler gocron.Scheduler
	proposer  Proposer
	recorder  metrics.Recorder

	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
	stopErr  error

	mu       sync.Mutex
	period   Period
	sessions map[uuid.UUID]*account.PlayerAccount
}

// New creates a scheduler. It does not run jobs until Start.
func New(proposer Proposer, period Period, recorder metrics.Recorder) (*Scheduler, error) {
	if err := period.validate(); err != nil {
		return nil, err
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	s, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
		gocron.WithGlobalJobOptions(gocron.WithSingletonMode(gocron.LimitModeReschedule)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		scheduler: s,
		proposer:  proposer,
		recorder:  recorder,
		ctx:       ctx,
		cancel:    cancel,
		period:    period,
		sessions:  map[uuid.UUID]*account.PlayerAccount{},
	}, nil
}

// Start begins running jobs.
func (s *Scheduler) Start() {
	slog.Info("Starting scheduler")
	s.scheduler.Start()
}

// Stop removes every job and shuts gocron down. Runs in flight are allowed to
// finish; their context is cancelled. Later calls return the first result.
func (s *Scheduler) Stop() error {
	s.stopOnce.Do(func() {
		slog.Info("Stopping scheduler")
		s.mu.Lock()
		clear(s.sessions)
		s.mu.Unlock()
		s.recorder.SetActiveSessions(0)
		s.stopErr = s.scheduler.Shutdown()
		s.cancel()
	})
	return s.stopErr
}

// StartSession registers the single and composite loops for a. Starting an
// already running session is a no-op.
func (s *Scheduler) StartSession(a *account.PlayerAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[a.ID()]; ok {
		return nil
	}
	if err := s.scheduleLocked(a); err != nil {
		s.scheduler.RemoveByTags(a.ID().String())
		return err
	}
	s.sessions[a.ID()] = a
	s.recorder.SetActiveSessions(len(s.sessions))
	slog.Info("Task loops started", logfields.PlayerID(a.ID().String()))
	return nil
}

func (s *Scheduler) scheduleLocked(a *account.PlayerAccount) error {
	id := a.ID().String()
	for _, kind := range task.Kinds {
		_, err := s.scheduler.NewJob(
			s.period.definition(),
			gocron.NewTask(s.run, a, kind),
			gocron.WithName(fmt.Sprintf("%s-%s", kind, id)),
			gocron.WithTags(id),
		)
		if err != nil {
			return fmt.Errorf("failed to create %s task loop: %w", kind, err)
		}
	}
	return nil
}

// StopSession removes both loops of player. A run already in progress is not
// interrupted.
func (s *Scheduler) StopSession(player uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[player]; !ok {
		return
	}
	s.scheduler.RemoveByTags(player.String())
	delete(s.sessions, player)
	s.recorder.SetActiveSessions(len(s.sessions))
	slog.Info("Task loops stopped", logfields.PlayerID(player.String()))
}

// Active reports whether player has running loops.
func (s *Scheduler) Active(player uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[player]
	return ok
}

// Sessions is the number of players with running loops.
func (s *Scheduler) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// SetPeriod changes the loop period. Running sessions are rescheduled.
func (s *Scheduler) SetPeriod(p Period) error {
	if err := p.validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.period = p
	for id, a := range s.sessions {
		s.scheduler.RemoveByTags(id.String())
		if err := s.scheduleLocked(a); err != nil {
			delete(s.sessions, id)
			s.recorder.SetActiveSessions(len(s.sessions))
			return err
		}
	}
	slog.Info("Generator period changed", slog.Duration("min", p.Min), slog.Duration("max", p.Max))
	return nil
}

func (s *Scheduler) run(a *account.PlayerAccount, kind task.Kind) {
	if s.ctx.Err() != nil {
		return
	}
	if _, err := s.proposer.Propose(s.ctx, a, kind); err != nil {
		slog.Error("Task generation failed",
			logfields.PlayerID(a.ID().String()),
			logfields.TaskKind(string(kind)),
			logfields.Error(err))
	}
}
