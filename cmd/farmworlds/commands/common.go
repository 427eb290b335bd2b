package commands

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/farmworlds/internal/config"
	"git.home.luguber.info/inful/farmworlds/internal/store"
	"git.home.luguber.info/inful/farmworlds/internal/store/driver"
)

// Global is passed to every subcommand.
type Global struct {
	Logger *slog.Logger
	// Out receives command output. Nil means stdout.
	Out io.Writer
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"farmworlds.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Init     InitCmd     `cmd:"" help:"Write a default configuration file"`
	Inspect  InspectCmd  `cmd:"" help:"Print the stored farms or players"`
	Migrate  MigrateCmd  `cmd:"" help:"Copy every table to another storage backend"`
	Simulate SimulateCmd `cmd:"" help:"Run the engine against synthetic players"`
}

// AfterApply runs after flag parsing; setup logging once. The logging section
// of the configuration applies when the file can be read.
func (c *CLI) AfterApply() error {
	logging := config.Default().Logging
	if cfg, err := config.LoadOrDefault(c.Config); err == nil {
		logging = cfg.Logging
	}
	slog.SetDefault(logging.NewLogger(os.Stderr, c.Verbose))
	return nil
}

func openStore(ctx context.Context, cfg config.StorageConfig) (store.Store, error) {
	s, err := driver.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	slog.Info("Store opened", "driver", string(cfg.Driver))
	return s, nil
}

func closeStore(s store.Store) {
	if err := s.Close(); err != nil {
		slog.Warn("Failed to close store", "error", err)
	}
}
