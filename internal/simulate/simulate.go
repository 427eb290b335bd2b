// Package simulate drives an engine with synthetic players on an in-memory
// host. It backs the simulate command and end-to-end tests.
package simulate

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/farmworlds/internal/economy"
	"git.home.luguber.info/inful/farmworlds/internal/engine"
	"git.home.luguber.info/inful/farmworlds/internal/host/memhost"
	"git.home.luguber.info/inful/farmworlds/internal/logfields"
	"git.home.luguber.info/inful/farmworlds/internal/task"
)

// LobbyWorld is where synthetic players spawn.
const LobbyWorld = "world"

// Options configures Run.
type Options struct {
	Players  int
	Duration time.Duration
	// Interval is how often each player gathers items and tries its tasks.
	Interval time.Duration
	// MaxGift bounds the items handed out per material and round.
	MaxGift int
	Seed    uint64
	// Materials are handed out at random. Empty means the default catalog.
	Materials []string
}

func (o Options) withDefaults() Options {
	if o.Players <= 0 {
		o.Players = 1
	}
	if o.Interval <= 0 {
		o.Interval = 100 * time.Millisecond
	}
	if o.MaxGift <= 0 {
		o.MaxGift = 4
	}
	if len(o.Materials) == 0 {
		for _, r := range task.DefaultCatalog().Requests {
			o.Materials = append(o.Materials, r.Material)
		}
	}
	return o
}

// Summary counts what happened during a run.
type Summary struct {
	Players           int
	FarmsCreated      int
	Completed         int
	InsufficientItems int
	Stale             int
	Errors            int
	Rewards           float64
}

func (s Summary) String() string {
	return fmt.Sprintf("players=%d farms=%d completed=%d insufficient=%d stale=%d errors=%d rewards=%.1f",
		s.Players, s.FarmsCreated, s.Completed, s.InsufficientItems, s.Stale, s.Errors, s.Rewards)
}

type tally struct {
	mu sync.Mutex
	s  Summary
}

func (t *tally) add(fn func(*Summary)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(&t.s)
}

// Run joins the synthetic players, lets them play until Duration elapses or
// ctx is cancelled, then takes them offline. The engine must have been built
// over h and started.
func Run(ctx context.Context, e *engine.Engine, h *memhost.Host, opts Options) (Summary, error) {
	opts = opts.withDefaults()
	if opts.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Duration)
		defer cancel()
	}

	var t tally
	var g workerGroup
	for i := range opts.Players {
		p := player{
			id:   uuid.New(),
			name: fmt.Sprintf("sim%03d", i+1),
			rng:  rand.New(rand.NewPCG(opts.Seed, uint64(i))),
		}
		g.Go(func() { p.play(ctx, e, h, opts, &t) })
	}
	<-ctx.Done()

	wait, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := g.StopAndWait(wait)
	var out Summary
	t.add(func(s *Summary) {
		s.Players = opts.Players
		out = *s
	})
	if err != nil {
		return out, err
	}
	slog.Info("Simulation finished", slog.String("summary", out.String()))
	return out, nil
}

type player struct {
	id   uuid.UUID
	name string
	rng  *rand.Rand
}

func (p player) play(ctx context.Context, e *engine.Engine, h *memhost.Host, opts Options, t *tally) {
	// Leaving uses a fresh context; ctx is already done by then.
	bg := context.Background()

	h.Join(p.id, p.name)
	if _, err := e.OnJoin(ctx, p.id, p.name); err != nil {
		p.fail(t, "join", err)
		return
	}
	defer func() {
		e.OnQuit(p.id)
		h.Quit(p.id)
	}()

	f, created, err := e.CreateFarm(ctx, p.id)
	if err != nil {
		p.fail(t, "create farm", err)
		return
	}
	if created {
		t.add(func(s *Summary) { s.FarmsCreated++ })
	}
	if err := e.OnWorldChange(ctx, p.id, p.name, LobbyWorld, f.WorldName); err != nil {
		p.fail(t, "enter farm", err)
	}
	defer func() {
		if err := e.OnWorldChange(bg, p.id, p.name, f.WorldName, LobbyWorld); err != nil {
			p.fail(t, "leave farm", err)
		}
	}()

	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		p.gather(h, opts)
		p.settle(ctx, e, t)
	}
}

func (p player) gather(h *memhost.Host, opts Options) {
	for range 3 {
		m := opts.Materials[p.rng.IntN(len(opts.Materials))]
		h.Give(p.id, m, 1+p.rng.IntN(opts.MaxGift))
	}
}

func (p player) settle(ctx context.Context, e *engine.Engine, t *tally) {
	a, ok := e.Repository().Players.Get(p.id)
	if !ok {
		return
	}
	for _, tk := range a.OpenTasks() {
		out, err := e.CompleteTask(ctx, p.id, tk)
		if err != nil {
			if ctx.Err() == nil {
				p.fail(t, "complete task", err)
			}
			return
		}
		t.add(func(s *Summary) {
			switch out.Status {
			case economy.StatusCompleted:
				s.Completed++
				s.Rewards += out.Reward
			case economy.StatusInsufficientItems:
				s.InsufficientItems++
			case economy.StatusStale:
				s.Stale++
			}
		})
	}
}

func (p player) fail(t *tally, op string, err error) {
	slog.Warn("Simulated player error",
		logfields.PlayerName(p.name),
		slog.String("op", op),
		logfields.Error(err))
	t.add(func(s *Summary) { s.Errors++ })
}
