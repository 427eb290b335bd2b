package driver

import (
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/farmworlds/internal/config"
	ferrors "git.home.luguber.info/inful/farmworlds/internal/foundation/errors"
	"git.home.luguber.info/inful/farmworlds/internal/store/memstore"
	"git.home.luguber.info/inful/farmworlds/internal/store/sqlitestore"
)

func TestOpen(t *testing.T) {
	s, err := Open(t.Context(), config.StorageConfig{Driver: config.DriverMemory})
	require.NoError(t, err)
	require.IsType(t, &memstore.Store{}, s)

	s, err = Open(t.Context(), config.StorageConfig{
		Driver: config.DriverSQLite,
		SQLite: config.SQLiteConfig{Dir: t.TempDir()},
	})
	require.NoError(t, err)
	require.IsType(t, &sqlitestore.Store{}, s)
	require.NoError(t, s.Close())

	_, err = Open(t.Context(), config.StorageConfig{Driver: config.DriverS3})
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig), "bucket is required")

	_, err = Open(t.Context(), config.StorageConfig{Driver: "mongo"})
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}
