package commands

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/farmworlds/internal/config"
	"git.home.luguber.info/inful/farmworlds/internal/engine"
	"git.home.luguber.info/inful/farmworlds/internal/events"
	"git.home.luguber.info/inful/farmworlds/internal/host/memhost"
	"git.home.luguber.info/inful/farmworlds/internal/metrics"
	"git.home.luguber.info/inful/farmworlds/internal/registry"
	"git.home.luguber.info/inful/farmworlds/internal/simulate"
	"git.home.luguber.info/inful/farmworlds/internal/store"
	"git.home.luguber.info/inful/farmworlds/internal/store/memstore"
)

// SimulateCmd implements the 'simulate' command.
type SimulateCmd struct {
	Players       int           `short:"p" help:"Number of synthetic players" default:"5"`
	Duration      time.Duration `short:"d" help:"How long to run (0 runs until interrupted)" default:"30s"`
	Interval      time.Duration `help:"How often each player gathers items and settles tasks" default:"500ms"`
	Seed          uint64        `help:"Random seed" default:"1"`
	Persist       bool          `help:"Write to the configured store instead of memory"`
	MetricsListen string        `name:"metrics-listen" help:"Serve /metrics on this address (overrides metrics.listen)"`
}

func (s *SimulateCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.LoadOrDefault(root.Config)
	if err != nil {
		return err
	}
	if s.MetricsListen != "" {
		cfg.Metrics.Listen = s.MetricsListen
	}
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return s.run(ctx, g, cfg, root.Config)
}

func (s *SimulateCmd) run(ctx context.Context, g *Global, cfg *config.Config, configPath string) error {
	var st store.Store = memstore.New()
	if s.Persist {
		var err error
		if st, err = openStore(ctx, cfg.Storage); err != nil {
			return err
		}
	}
	defer closeStore(st)

	reg := prom.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(reg)
	if cfg.Metrics.Listen != "" {
		srv := metrics.Serve(cfg.Metrics.Listen, reg)
		defer func() { _ = srv.Stop() }()
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.Events.URL != "" {
		p, err := events.NewNATSPublisher(cfg.Events.URL, cfg.Events.SubjectPrefix)
		if err != nil {
			return err
		}
		publisher = p
	}

	repo, err := registry.Init(ctx, st, registry.Options{
		WorldPrefix: cfg.Farms.WorldPrefix,
		Quotas:      cfg.Tasks.Quotas(),
		Retry:       cfg.Storage.Retry,
		Recorder:    recorder,
	})
	if err != nil {
		return err
	}
	h := memhost.New(simulate.LobbyWorld, cfg.Farms.TemplateWorld)
	e, err := engine.New(cfg, repo, h,
		engine.WithRecorder(recorder),
		engine.WithPublisher(publisher),
		engine.WithRand(rand.New(rand.NewPCG(s.Seed, s.Seed^0x9e3779b97f4a7c15))),
	)
	if err != nil {
		return err
	}
	if err := e.Start(ctx); err != nil {
		return err
	}

	if _, statErr := os.Stat(configPath); statErr == nil {
		w, err := config.NewWatcher(configPath, 0, func(c *config.Config) {
			if err := e.ApplyTuning(c.Tasks); err != nil {
				slog.Warn("Ignoring reloaded task tuning", "error", err)
			}
		})
		if err != nil {
			slog.Warn("Configuration watcher unavailable", "error", err)
		} else if err := w.Start(ctx); err != nil {
			slog.Warn("Configuration watcher unavailable", "error", err)
		} else {
			defer func() { _ = w.Stop() }()
		}
	}

	sum, runErr := simulate.Run(ctx, e, h, simulate.Options{
		Players:  s.Players,
		Duration: s.Duration,
		Interval: s.Interval,
		Seed:     s.Seed,
	})

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if err := e.Shutdown(stopCtx); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}
	fmt.Fprintln(g.out(), sum.String())
	return nil
}
