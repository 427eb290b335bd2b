package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifiedError(t *testing.T) {
	t.Run("builder sets every field", func(t *testing.T) {
		cause := errors.New("short read")
		err := WrapError(cause, CategoryIO, "load players").
			WithContext("table", "players").
			Retryable().
			Build()

		assert.Equal(t, CategoryIO, err.Category())
		assert.Equal(t, SeverityError, err.Severity())
		assert.Equal(t, RetryBackoff, err.RetryStrategy())
		assert.Equal(t, "load players", err.Message())
		assert.ErrorIs(t, err, cause)
		table, ok := err.Context().GetString("table")
		require.True(t, ok)
		assert.Equal(t, "players", table)
		assert.Equal(t, "[io:error] load players: short read", err.Error())
	})

	t.Run("taxonomy defaults", func(t *testing.T) {
		assert.True(t, FormatError("x").Build().IsFatal())
		assert.True(t, ValidationError("x").Build().IsFatal())
		assert.True(t, InsufficientItemsError("x").Build().IsUserFacing())
		assert.True(t, InsufficientBalanceError("x").Build().IsUserFacing())
		assert.False(t, InsufficientItemsError("x").Build().CanRetry())
		assert.True(t, IOError("x").Build().CanRetry())
	})

	t.Run("category survives wrapping", func(t *testing.T) {
		err := fmt.Errorf("decode row 3: %w", FormatError("bad field count").Build())
		assert.True(t, IsClassified(err))
		assert.True(t, HasCategory(err, CategoryFormat))
		assert.False(t, HasCategory(err, CategoryIO))
		assert.Equal(t, CategoryFormat, GetCategory(err))
		assert.Equal(t, SeverityFatal, GetSeverity(err))
	})

	t.Run("unclassified fallbacks", func(t *testing.T) {
		err := errors.New("plain")
		assert.False(t, IsClassified(err))
		assert.Equal(t, CategoryInternal, GetCategory(err))
		assert.Equal(t, SeverityError, GetSeverity(err))
	})

	t.Run("sentinel matching ignores context", func(t *testing.T) {
		sentinel := NotFoundError("farm not found").Build()
		err := sentinel.WithContext("owner", "abc")
		assert.ErrorIs(t, err, sentinel)
		_, ok := sentinel.Context().Get("owner")
		assert.False(t, ok, "WithContext must not mutate the receiver")
	})
}

func TestErrorContextMerge(t *testing.T) {
	var empty ErrorContext
	other := ErrorContext{"a": 1}
	assert.Equal(t, other, empty.Merge(other))

	base := ErrorContext{"a": 1, "b": 2}
	merged := base.Merge(ErrorContext{"b": 3})
	assert.Equal(t, 3, merged["b"])
	assert.Equal(t, 2, base["b"])
}
