package store_test

import (
	"context"
	"testing"

	"github.com/serroba/ratelog/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreContract checks the behaviour every snapshot store shares.
func runStoreContract(t *testing.T, s ratelimit.Store) {
	t.Helper()

	ctx := context.Background()

	t.Run("missing snapshot loads empty", func(t *testing.T) {
		require.NoError(t, s.Reset(ctx))

		data, err := s.Load(ctx)

		require.NoError(t, err)
		assert.Empty(t, data)
	})

	t.Run("persist then load returns the same snapshot", func(t *testing.T) {
		want := ratelimit.Snapshot{
			"abc": {100, 100, 101},
			"def": {200},
		}

		require.NoError(t, s.Persist(ctx, want))

		got, err := s.Load(ctx)

		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("persist replaces the whole snapshot", func(t *testing.T) {
		require.NoError(t, s.Persist(ctx, ratelimit.Snapshot{"abc": {1}, "def": {2}}))
		require.NoError(t, s.Persist(ctx, ratelimit.Snapshot{"xyz": {3}}))

		got, err := s.Load(ctx)

		require.NoError(t, err)
		assert.Equal(t, ratelimit.Snapshot{"xyz": {3}}, got)
	})

	t.Run("reset removes the snapshot", func(t *testing.T) {
		require.NoError(t, s.Persist(ctx, ratelimit.Snapshot{"abc": {1}}))
		require.NoError(t, s.Reset(ctx))

		got, err := s.Load(ctx)

		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("reset without snapshot is not an error", func(t *testing.T) {
		require.NoError(t, s.Reset(ctx))
		assert.NoError(t, s.Reset(ctx))
	})
}
