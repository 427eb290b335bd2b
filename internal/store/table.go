package store

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"git.home.luguber.info/inful/farmworlds/internal/codec"
	ferrors "git.home.luguber.info/inful/farmworlds/internal/foundation/errors"
	"git.home.luguber.info/inful/farmworlds/internal/logfields"
	"git.home.luguber.info/inful/farmworlds/internal/metrics"
	"git.home.luguber.info/inful/farmworlds/internal/retry"
)

// Table binds a table name to a codec. Saves of one table are serialized.
type Table[T any] struct {
	name     string
	store    Store
	codec    codec.Codec[T]
	recorder metrics.Recorder
	retry    retry.Policy

	mu sync.Mutex
}

// NewTable creates a Table. A nil recorder records nothing.
func NewTable[T any](s Store, name string, c codec.Codec[T], recorder metrics.Recorder) (*Table[T], error) {
	if err := ValidateTable(name); err != nil {
		return nil, err
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Table[T]{name: name, store: s, codec: c, recorder: recorder}, nil
}

func (t *Table[T]) Name() string { return t.name }

// SetRetry makes saves retry transient store failures with p.
func (t *Table[T]) SetRetry(p retry.Policy) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.retry = p
}

// Save encodes every item and replaces the table. Nothing is written if any
// item fails to encode.
func (t *Table[T]) Save(ctx context.Context, items []T) error {
	return t.SaveFunc(ctx, func() []T { return items })
}

// SaveFunc takes the table lock, then collects the items with snapshot and
// writes them. Collecting under the lock keeps a later snapshot from being
// overwritten by an earlier one.
func (t *Table[T]) SaveFunc(ctx context.Context, snapshot func() []T) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	items := snapshot()
	rows := make([]string, 0, len(items))
	for _, item := range items {
		row, err := t.codec.Encode(item)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	start := time.Now()
	err := t.retry.Do(ctx, transient, func(attempt int) error {
		if attempt > 0 {
			slog.Warn("Retrying table save", logfields.Table(t.name), slog.Int("attempt", attempt))
		}
		return t.store.SaveAll(ctx, t.name, rows)
	})
	if err != nil {
		slog.Error("Failed to save table",
			logfields.Table(t.name),
			logfields.Rows(len(rows)),
			logfields.Error(err))
		if ferrors.IsClassified(err) {
			return err
		}
		return ferrors.IOError("save table").
			WithCause(err).
			WithContext("table", t.name).
			Build()
	}
	elapsed := time.Since(start)
	t.recorder.ObserveStoreSave(t.name, elapsed, len(rows))
	slog.Info("Saved table",
		logfields.Table(t.name),
		logfields.Rows(len(rows)),
		logfields.Duration(elapsed))
	return nil
}

// transient reports whether a failed save may succeed when repeated.
func transient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if ce, ok := ferrors.AsClassified(err); ok {
		return ce.CanRetry()
	}
	return true
}

// Load decodes every row. The first undecodable row fails the whole load.
func (t *Table[T]) Load(ctx context.Context) ([]T, error) {
	rows, err := t.store.LoadAll(ctx, t.name)
	if err != nil {
		if ferrors.IsClassified(err) {
			return nil, err
		}
		return nil, ferrors.IOError("load table").
			WithCause(err).
			WithContext("table", t.name).
			Build()
	}
	out := make([]T, 0, len(rows))
	for i, row := range rows {
		item, err := t.codec.Decode(row)
		if err != nil {
			return nil, ferrors.FormatError("corrupt row").
				WithCause(err).
				WithContext("table", t.name).
				WithContext("row", i).
				Build()
		}
		out = append(out, item)
	}
	slog.Debug("Loaded table", logfields.Table(t.name), logfields.Rows(len(out)))
	return out, nil
}
