// Package driver opens the store backend named by the storage configuration.
package driver

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/farmworlds/internal/config"
	ferrors "git.home.luguber.info/inful/farmworlds/internal/foundation/errors"
	"git.home.luguber.info/inful/farmworlds/internal/logfields"
	"git.home.luguber.info/inful/farmworlds/internal/store"
	"git.home.luguber.info/inful/farmworlds/internal/store/memstore"
	"git.home.luguber.info/inful/farmworlds/internal/store/pgstore"
	"git.home.luguber.info/inful/farmworlds/internal/store/s3store"
	"git.home.luguber.info/inful/farmworlds/internal/store/sqlitestore"
)

// Open returns the backend for cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig) (store.Store, error) {
	slog.Debug("Opening store", logfields.Driver(string(cfg.Driver)))
	switch cfg.Driver {
	case config.DriverMemory:
		return memstore.New(), nil
	case config.DriverSQLite, "":
		return sqlitestore.New(cfg.SQLite.Dir)
	case config.DriverPostgres:
		return pgstore.Open(ctx, cfg.Postgres.DSN)
	case config.DriverS3:
		return s3store.New(ctx, s3store.Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			Prefix:          cfg.S3.Prefix,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			PathStyle:       cfg.S3.PathStyle,
		})
	default:
		return nil, ferrors.ConfigError("unknown storage driver").
			WithContext("driver", string(cfg.Driver)).
			WithContext("valid", config.Drivers()).
			Build()
	}
}
