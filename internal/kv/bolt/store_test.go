package bolt

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/artpar/arttools/internal/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	kv.RunStoreTests(t, func(t *testing.T) (kv.Store, func()) {
		store, err := New(filepath.Join(t.TempDir(), "kv.bolt"))
		require.NoError(t, err)
		return store, func() { store.Close() }
	})
}

func TestStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.bolt")
	ctx := context.Background()

	store, err := New(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "favorites", "[]"))
	require.NoError(t, store.Close())

	store, err = New(path)
	require.NoError(t, err)
	defer store.Close()

	value, ok, err := store.Get(ctx, "favorites")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", value)
}
