package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"git.home.luguber.info/inful/farmworlds/internal/config"
	"git.home.luguber.info/inful/farmworlds/internal/registry"
)

// InspectCmd groups the read-only table dumps.
type InspectCmd struct {
	Farms   InspectFarmsCmd   `cmd:"" help:"One line per farm"`
	Players InspectPlayersCmd `cmd:"" help:"One line per player account"`
}

type InspectFarmsCmd struct{}

type InspectPlayersCmd struct{}

func (c *InspectFarmsCmd) Run(g *Global, root *CLI) error {
	return withRepository(root, func(repo *registry.Repository) error {
		return printFarms(g.out(), repo)
	})
}

func (c *InspectPlayersCmd) Run(g *Global, root *CLI) error {
	return withRepository(root, func(repo *registry.Repository) error {
		return printPlayers(g.out(), repo)
	})
}

func withRepository(root *CLI, fn func(*registry.Repository) error) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	ctx := context.Background()
	s, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer closeStore(s)
	repo, err := registry.Init(ctx, s, registry.Options{
		WorldPrefix: cfg.Farms.WorldPrefix,
		Quotas:      cfg.Tasks.Quotas(),
		Retry:       cfg.Storage.Retry,
	})
	if err != nil {
		return err
	}
	return fn(repo)
}

func printFarms(w io.Writer, repo *registry.Repository) error {
	for _, f := range repo.Farms.All() {
		last := "-"
		if n := len(f.History); n > 0 {
			last = f.History[n-1].String()
		}
		if _, err := fmt.Fprintf(w, "%s owner=%s whitelist=%d history=%d last=%s\n",
			f.WorldName, f.Owner, len(f.Whitelist), len(f.History), last); err != nil {
			return err
		}
	}
	return nil
}

func printPlayers(w io.Writer, repo *registry.Repository) error {
	for _, a := range repo.Players.All() {
		s := a.Snapshot()
		var open []string
		for _, t := range a.OpenTasks() {
			open = append(open, t.Encode())
		}
		if _, err := fmt.Fprintf(w, "%s name=%s balance=%.1f single=%d/%d composite=%d/%d tasks=[%s]\n",
			s.ID, s.DisplayName, s.Balance,
			len(s.SingleTasks), s.Quotas.MaxSingle,
			len(s.CompositeTasks), s.Quotas.MaxComposite,
			strings.Join(open, " ")); err != nil {
			return err
		}
	}
	return nil
}
