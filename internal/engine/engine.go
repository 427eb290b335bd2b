// Package engine wires the registries, the task economy and the generator
// loops to a game host. It is the surface a server integration calls into on
// player join, quit and world change.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"git.home.luguber.info/inful/farmworlds/internal/config"
	"git.home.luguber.info/inful/farmworlds/internal/economy"
	"git.home.luguber.info/inful/farmworlds/internal/events"
	"git.home.luguber.info/inful/farmworlds/internal/host"
	"git.home.luguber.info/inful/farmworlds/internal/logfields"
	"git.home.luguber.info/inful/farmworlds/internal/metrics"
	"git.home.luguber.info/inful/farmworlds/internal/registry"
	"git.home.luguber.info/inful/farmworlds/internal/scheduler"
	"git.home.luguber.info/inful/farmworlds/internal/task"
)

// Status is the lifecycle state of an Engine.
type Status string

const (
	StatusStopped  Status = "stopped"
	StatusRunning  Status = "running"
	StatusStopping Status = "stopping"
)

// Engine is safe for concurrent use by the host's event callbacks.
type Engine struct {
	cfg       config.FarmsConfig
	repo      *registry.Repository
	host      host.Host
	gen       *task.Generator
	proposer  *economy.Proposer
	completer *economy.Completer
	scheduler *scheduler.Scheduler
	publisher events.Publisher
	recorder  metrics.Recorder
	now       func() time.Time

	status atomic.Value // Status
	// farmMu serializes farm creation so one owner never ends up with two farms.
	farmMu sync.Mutex
}

// Option customizes New.
type Option func(*options)

type options struct {
	recorder  metrics.Recorder
	publisher events.Publisher
	rng       *rand.Rand
	now       func() time.Time
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option { return func(o *options) { o.recorder = r } }

// WithPublisher sets the event publisher. The engine closes it on Shutdown.
func WithPublisher(p events.Publisher) Option { return func(o *options) { o.publisher = p } }

// WithRand seeds task generation.
func WithRand(r *rand.Rand) Option { return func(o *options) { o.rng = r } }

// WithClock overrides the clock used for event timestamps.
func WithClock(now func() time.Time) Option { return func(o *options) { o.now = now } }

// New builds an engine over an initialized repository.
func New(cfg *config.Config, repo *registry.Repository, h host.Host, opts ...Option) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if repo == nil || h == nil {
		return nil, fmt.Errorf("repository and host are required")
	}
	o := options{
		recorder:  metrics.NoopRecorder{},
		publisher: events.NoopPublisher{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	gen := task.NewGenerator(cfg.Tasks.TaskCatalog(), cfg.Tasks.Tuning(), o.rng)
	proposer := economy.NewProposer(gen, repo.Players, o.recorder, o.publisher)
	minPeriod, maxPeriod := cfg.Tasks.Period()
	sched, err := scheduler.New(proposer, scheduler.Period{Min: minPeriod, Max: maxPeriod}, o.recorder)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:       cfg.Farms,
		repo:      repo,
		host:      h,
		gen:       gen,
		proposer:  proposer,
		completer: economy.NewCompleter(h, repo.Players, o.recorder, o.publisher),
		scheduler: sched,
		publisher: o.publisher,
		recorder:  o.recorder,
		now:       o.now,
	}
	e.status.Store(StatusStopped)
	return e, nil
}

// Start runs the generator loops and starts sessions for players already
// online.
func (e *Engine) Start(ctx context.Context) error {
	e.scheduler.Start()
	e.status.Store(StatusRunning)

	online, err := e.host.GetOnlinePlayers(ctx)
	if err != nil {
		return e.abortStart(err)
	}
	for _, p := range online {
		if _, err := e.OnJoin(ctx, p.ID, p.Name); err != nil {
			return e.abortStart(err)
		}
	}
	slog.Info("Engine started", slog.Int("online", len(online)))
	return nil
}

// abortStart stops the loops started so far and returns err.
func (e *Engine) abortStart(err error) error {
	if stopErr := e.scheduler.Stop(); stopErr != nil {
		slog.Warn("Failed to stop scheduler", logfields.Error(stopErr))
	}
	e.status.Store(StatusStopped)
	slog.Error("Engine start failed", logfields.Error(err))
	return err
}

// Status returns the lifecycle state.
func (e *Engine) Status() Status {
	return e.status.Load().(Status)
}

// Repository exposes the registries.
func (e *Engine) Repository() *registry.Repository { return e.repo }

// Shutdown stops every loop, flushes every table and closes the publisher.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.status.Store(StatusStopping)
	errSched := e.scheduler.Stop()
	errFlush := e.repo.Shutdown(ctx)
	errPub := e.publisher.Close()
	e.status.Store(StatusStopped)
	slog.Info("Engine stopped")
	return errors.Join(errSched, errFlush, errPub)
}

func (e *Engine) publish(ctx context.Context, event string, payload any) {
	if err := e.publisher.Publish(ctx, event, payload); err != nil {
		slog.Warn("Failed to publish event", slog.String("event", event), logfields.Error(err))
	}
}
