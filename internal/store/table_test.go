package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/farmworlds/internal/codec"
	"git.home.luguber.info/inful/farmworlds/internal/farm"
	ferrors "git.home.luguber.info/inful/farmworlds/internal/foundation/errors"
	"git.home.luguber.info/inful/farmworlds/internal/retry"
	"git.home.luguber.info/inful/farmworlds/internal/store"
	"git.home.luguber.info/inful/farmworlds/internal/store/memstore"
	"git.home.luguber.info/inful/farmworlds/internal/store/sqlitestore"
)

func farms(n int) []*farm.Farm {
	out := make([]*farm.Farm, 0, n)
	for range n {
		f := farm.New(uuid.New(), "")
		f.AddToWhitelist(uuid.New())
		out = append(out, f)
	}
	return out
}

func requireSameFarms(t *testing.T, want, got []*farm.Farm) {
	t.Helper()
	require.Len(t, got, len(want))
	for _, w := range want {
		found := false
		for _, g := range got {
			if w.Equal(g) {
				found = true
				break
			}
		}
		require.True(t, found, "missing farm %s", w.WorldName)
	}
}

func TestTable_FullReplace(t *testing.T) {
	backends := map[string]func(t *testing.T) store.Store{
		"memory": func(*testing.T) store.Store { return memstore.New() },
		"sqlite": func(t *testing.T) store.Store {
			s, err := sqlitestore.New(t.TempDir())
			require.NoError(t, err)
			return s
		},
	}
	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			tbl, err := store.NewTable[*farm.Farm](open(t), store.TableFarms, codec.FarmCodec{}, nil)
			require.NoError(t, err)

			first := farms(5)
			require.NoError(t, tbl.Save(t.Context(), first))
			second := farms(2)
			require.NoError(t, tbl.Save(t.Context(), second))

			got, err := tbl.Load(t.Context())
			require.NoError(t, err)
			requireSameFarms(t, second, got)
		})
	}
}

func TestTable_CorruptRowFailsLoad(t *testing.T) {
	mem := memstore.New()
	good := farms(1)
	row, err := codec.FarmCodec{}.Encode(good[0])
	require.NoError(t, err)
	mem.Put(store.TableFarms, row, "{broken")

	tbl, err := store.NewTable[*farm.Farm](mem, store.TableFarms, codec.FarmCodec{}, nil)
	require.NoError(t, err)
	_, err = tbl.Load(t.Context())
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryFormat))
}

func TestTable_SaveFailureIsIOError(t *testing.T) {
	mem := memstore.New()
	mem.FailWith(errors.New("disk full"))
	tbl, err := store.NewTable[*farm.Farm](mem, store.TableFarms, codec.FarmCodec{}, nil)
	require.NoError(t, err)

	err = tbl.Save(t.Context(), farms(1))
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryIO))
	require.Zero(t, mem.Saves(store.TableFarms))
}

func TestNewTable_RejectsBadName(t *testing.T) {
	_, err := store.NewTable[*farm.Farm](memstore.New(), "Farms!", codec.FarmCodec{}, nil)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
}

func TestCopy(t *testing.T) {
	src := memstore.New()
	src.Put(store.TableFarms, "a", "b")
	src.Put(store.TablePlayers, "c")

	dst, err := sqlitestore.New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Copy(t.Context(), dst, src))

	rows, err := dst.LoadAll(t.Context(), store.TableFarms)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, rows)
	rows, err = dst.LoadAll(t.Context(), store.TablePlayers)
	require.NoError(t, err)
	require.Equal(t, []string{"c"}, rows)
}

type flakyStore struct {
	*memstore.Store
	failures int
	err      error
	calls    int
}

func (f *flakyStore) SaveAll(ctx context.Context, table string, rows []string) error {
	f.calls++
	if f.calls <= f.failures {
		return f.err
	}
	return f.Store.SaveAll(ctx, table, rows)
}

func TestTable_RetriesTransientFailures(t *testing.T) {
	fs := &flakyStore{Store: memstore.New(), failures: 2, err: errors.New("connection reset")}
	tbl, err := store.NewTable[*farm.Farm](fs, store.TableFarms, codec.FarmCodec{}, nil)
	require.NoError(t, err)
	tbl.SetRetry(retry.NewPolicy(retry.ModeFixed, time.Millisecond, time.Millisecond, 2))

	require.NoError(t, tbl.Save(t.Context(), farms(1)))
	require.Equal(t, 3, fs.calls)
	require.Equal(t, 1, fs.Saves(store.TableFarms))
}

func TestTable_DoesNotRetryPermanentFailures(t *testing.T) {
	fs := &flakyStore{Store: memstore.New(), failures: 5, err: ferrors.ConfigError("bad table").Build()}
	tbl, err := store.NewTable[*farm.Farm](fs, store.TableFarms, codec.FarmCodec{}, nil)
	require.NoError(t, err)
	tbl.SetRetry(retry.NewPolicy(retry.ModeFixed, time.Millisecond, time.Millisecond, 3))

	err = tbl.Save(t.Context(), farms(1))
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
	require.Equal(t, 1, fs.calls)
}
