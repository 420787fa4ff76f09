package kv

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStoreTests runs the standard store test suite against any Store implementation.
// newStore must return an empty store and a cleanup function.
func RunStoreTests(t *testing.T, newStore func(t *testing.T) (Store, func())) {
	t.Run("Get", func(t *testing.T) {
		runGetTests(t, newStore)
	})
	t.Run("Set", func(t *testing.T) {
		runSetTests(t, newStore)
	})
	t.Run("Remove", func(t *testing.T) {
		runRemoveTests(t, newStore)
	})
	t.Run("Close", func(t *testing.T) {
		runCloseTests(t, newStore)
	})
}

func runGetTests(t *testing.T, newStore func(t *testing.T) (Store, func())) {
	t.Run("absent key reports not ok", func(t *testing.T) {
		store, cleanup := newStore(t)
		defer cleanup()

		value, ok, err := store.Get(context.Background(), "missing")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, value)
	})

	t.Run("empty key is rejected", func(t *testing.T) {
		store, cleanup := newStore(t)
		defer cleanup()

		_, _, err := store.Get(context.Background(), "")
		assert.ErrorIs(t, err, ErrEmptyKey)
	})
}

func runSetTests(t *testing.T, newStore func(t *testing.T) (Store, func())) {
	t.Run("stores and returns value", func(t *testing.T) {
		store, cleanup := newStore(t)
		defer cleanup()
		ctx := context.Background()

		require.NoError(t, store.Set(ctx, "favorites", `[{"id":1}]`))

		value, ok, err := store.Get(ctx, "favorites")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, `[{"id":1}]`, value)
	})

	t.Run("overwrites previous value", func(t *testing.T) {
		store, cleanup := newStore(t)
		defer cleanup()
		ctx := context.Background()

		require.NoError(t, store.Set(ctx, "favorites", "first"))
		require.NoError(t, store.Set(ctx, "favorites", "second"))

		value, ok, err := store.Get(ctx, "favorites")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "second", value)
	})

	t.Run("empty value is distinct from absent", func(t *testing.T) {
		store, cleanup := newStore(t)
		defer cleanup()
		ctx := context.Background()

		require.NoError(t, store.Set(ctx, "blank", ""))

		value, ok, err := store.Get(ctx, "blank")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Empty(t, value)
	})

	t.Run("keys are independent", func(t *testing.T) {
		store, cleanup := newStore(t)
		defer cleanup()
		ctx := context.Background()

		require.NoError(t, store.Set(ctx, "a", "1"))
		require.NoError(t, store.Set(ctx, "b", "2"))

		a, _, err := store.Get(ctx, "a")
		require.NoError(t, err)
		b, _, err := store.Get(ctx, "b")
		require.NoError(t, err)
		assert.Equal(t, "1", a)
		assert.Equal(t, "2", b)
	})

	t.Run("stores large values", func(t *testing.T) {
		store, cleanup := newStore(t)
		defer cleanup()
		ctx := context.Background()

		big := strings.Repeat("x", 256*1024)
		require.NoError(t, store.Set(ctx, "big", big))

		value, ok, err := store.Get(ctx, "big")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Len(t, value, len(big))
	})

	t.Run("empty key is rejected", func(t *testing.T) {
		store, cleanup := newStore(t)
		defer cleanup()

		err := store.Set(context.Background(), "", "v")
		assert.ErrorIs(t, err, ErrEmptyKey)
	})
}

func runRemoveTests(t *testing.T, newStore func(t *testing.T) (Store, func())) {
	t.Run("removes existing key", func(t *testing.T) {
		store, cleanup := newStore(t)
		defer cleanup()
		ctx := context.Background()

		require.NoError(t, store.Set(ctx, "favorites", "[]"))
		require.NoError(t, store.Remove(ctx, "favorites"))

		_, ok, err := store.Get(ctx, "favorites")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("removing absent key succeeds", func(t *testing.T) {
		store, cleanup := newStore(t)
		defer cleanup()

		assert.NoError(t, store.Remove(context.Background(), "never-set"))
	})
}

func runCloseTests(t *testing.T, newStore func(t *testing.T) (Store, func())) {
	t.Run("operations fail after close", func(t *testing.T) {
		store, cleanup := newStore(t)
		defer cleanup()
		ctx := context.Background()

		require.NoError(t, store.Close())

		_, _, err := store.Get(ctx, "k")
		assert.ErrorIs(t, err, ErrStoreClosed)
		assert.ErrorIs(t, store.Set(ctx, "k", "v"), ErrStoreClosed)
		assert.ErrorIs(t, store.Remove(ctx, "k"), ErrStoreClosed)
	})

	t.Run("close is idempotent", func(t *testing.T) {
		store, cleanup := newStore(t)
		defer cleanup()

		require.NoError(t, store.Close())
		assert.NoError(t, store.Close())
	})
}
