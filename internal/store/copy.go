package store

import (
	"context"
	"log/slog"

	ferrors "git.home.luguber.info/inful/farmworlds/internal/foundation/errors"
	"git.home.luguber.info/inful/farmworlds/internal/logfields"
)

// Copy replaces each named table in dst with its rows from src. Rows are moved
// verbatim; no decoding happens.
func Copy(ctx context.Context, dst, src Store, tables ...string) error {
	if len(tables) == 0 {
		tables = Tables
	}
	for _, table := range tables {
		rows, err := src.LoadAll(ctx, table)
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryIO, "read source table").
				WithContext("table", table).
				Build()
		}
		if err := dst.SaveAll(ctx, table, rows); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryIO, "write destination table").
				WithContext("table", table).
				Build()
		}
		slog.Info("Copied table", logfields.Table(table), logfields.Rows(len(rows)))
	}
	return nil
}
