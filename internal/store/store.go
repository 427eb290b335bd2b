// Package store persists aggregates as whole tables of encoded rows.
//
// A Store knows nothing about aggregates: it keeps an ordered list of text
// rows per table name. SaveAll replaces the table in one step, so a failed
// write leaves the previous contents intact. Table binds a codec and a lock
// to one table name and is what the registries use.
package store

import (
	"context"
	"regexp"

	ferrors "git.home.luguber.info/inful/farmworlds/internal/foundation/errors"
)

// Table names used by the registries.
const (
	TableFarms   = "farms"
	TablePlayers = "players"
)

// Tables lists every table in load order.
var Tables = []string{TableFarms, TablePlayers}

// Store is a keyed collection of row tables.
type Store interface {
	// SaveAll replaces the whole table with rows. The table is created if absent.
	SaveAll(ctx context.Context, table string, rows []string) error
	// LoadAll returns every row of table. A missing table is empty.
	LoadAll(ctx context.Context, table string) ([]string, error)
	Close() error
}

var tableName = regexp.MustCompile(`^[a-z][a-z0-9_]{0,62}$`)

// ValidateTable rejects names that cannot be used as file, SQL or object names.
func ValidateTable(name string) error {
	if !tableName.MatchString(name) {
		return ferrors.ValidationError("invalid table name").
			WithContext("table", name).
			Build()
	}
	return nil
}
