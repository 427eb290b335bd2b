package commands

import (
	"context"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/farmworlds/internal/config"
	ferrors "git.home.luguber.info/inful/farmworlds/internal/foundation/errors"
	"git.home.luguber.info/inful/farmworlds/internal/registry"
	"git.home.luguber.info/inful/farmworlds/internal/store"
)

// MigrateCmd copies every table from the configured backend to another one.
type MigrateCmd struct {
	ToDriver string `name:"to-driver" required:"" help:"Target driver (memory|sqlite|postgres|s3)"`
	ToDir    string `name:"to-dir" help:"Target sqlite directory"`
	ToDSN    string `name:"to-dsn" help:"Target postgres DSN"`
	ToBucket string `name:"to-bucket" help:"Target S3 bucket"`
	ToPrefix string `name:"to-prefix" help:"Target S3 key prefix"`
	Verify   bool   `help:"Decode every copied row after the copy" default:"true" negatable:""`
}

func (m *MigrateCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	target, err := m.target(cfg.Storage)
	if err != nil {
		return err
	}
	return RunMigrate(context.Background(), g, cfg, target, m.Verify)
}

// target derives the destination storage from the source one and the flags.
func (m *MigrateCmd) target(src config.StorageConfig) (config.StorageConfig, error) {
	dst := src
	dst.Driver = config.NormalizeDriver(m.ToDriver)
	if m.ToDir != "" {
		dst.SQLite.Dir = m.ToDir
	}
	if m.ToDSN != "" {
		dst.Postgres.DSN = m.ToDSN
	}
	if m.ToBucket != "" {
		dst.S3.Bucket = m.ToBucket
	}
	if m.ToPrefix != "" {
		dst.S3.Prefix = m.ToPrefix
	}
	if err := dst.Validate(); err != nil {
		return dst, err
	}
	if dst == src {
		return dst, ferrors.ValidationError("migration target is the configured store").Build()
	}
	return dst, nil
}

func RunMigrate(ctx context.Context, g *Global, cfg *config.Config, target config.StorageConfig, verify bool) error {
	src, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer closeStore(src)
	dst, err := openStore(ctx, target)
	if err != nil {
		return err
	}
	defer closeStore(dst)

	if err := store.Copy(ctx, dst, src, store.Tables...); err != nil {
		return err
	}
	slog.Info("Tables copied",
		slog.String("from", string(cfg.Storage.Driver)),
		slog.String("to", string(target.Driver)))

	if verify {
		repo, err := registry.Init(ctx, dst, registry.Options{WorldPrefix: cfg.Farms.WorldPrefix})
		if err != nil {
			return err
		}
		fmt.Fprintf(g.out(), "verified farms=%d players=%d\n", repo.Farms.Len(), repo.Players.Len())
	}
	fmt.Fprintf(g.out(), "migrated %s -> %s\n", cfg.Storage.Driver, target.Driver)
	return nil
}
