package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyPlayerID   = "player_id"
	KeyPlayerName = "player_name"
	KeyFarm       = "farm"
	KeyWorld      = "world"
	KeyTaskKind   = "task_kind"
	KeyTask       = "task"
	KeyOutcome    = "outcome"
	KeyTable      = "table"
	KeyRows       = "rows"
	KeyDriver     = "driver"
	KeyDurationMS = "duration_ms"
	KeyJobID      = "job_id"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func PlayerID(id string) slog.Attr     { return slog.String(KeyPlayerID, id) }
func PlayerName(name string) slog.Attr { return slog.String(KeyPlayerName, name) }
func Farm(world string) slog.Attr      { return slog.String(KeyFarm, world) }
func World(name string) slog.Attr      { return slog.String(KeyWorld, name) }
func TaskKind(kind string) slog.Attr   { return slog.String(KeyTaskKind, kind) }
func Task(encoded string) slog.Attr    { return slog.String(KeyTask, encoded) }
func Outcome(o string) slog.Attr       { return slog.String(KeyOutcome, o) }
func Table(name string) slog.Attr      { return slog.String(KeyTable, name) }
func Rows(n int) slog.Attr             { return slog.Int(KeyRows, n) }
func Driver(name string) slog.Attr     { return slog.String(KeyDriver, name) }
func JobID(id string) slog.Attr        { return slog.String(KeyJobID, id) }
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
