package favorites

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/artpar/arttools/internal/core"
	"github.com/artpar/arttools/internal/kv"
	"github.com/artpar/arttools/internal/kv/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyKV wraps a kv.Store with injectable failures and gates. Get waits
// for getGate to close; each Set consumes one value from setGate.
type flakyKV struct {
	kv.Store

	mu       sync.Mutex
	getErr   error
	setErr   error
	getGate  chan struct{}
	setGate  chan struct{}
	setCalls int
}

func (f *flakyKV) Get(ctx context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	gate, err := f.getGate, f.getErr
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", false, ctx.Err()
		}
	}
	if err != nil {
		return "", false, err
	}
	return f.Store.Get(ctx, key)
}

func (f *flakyKV) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	f.setCalls++
	gate, err := f.setGate, f.setErr
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err != nil {
		return err
	}
	return f.Store.Set(ctx, key, value)
}

func (f *flakyKV) sets() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.setCalls
}

func item(id int64, name string) core.Item {
	return core.Item{ID: core.IntID(id), ArtName: name, Price: float64(id), Image: "u"}
}

func ids(items []core.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID.String()
	}
	return out
}

func newLoadedStore(t *testing.T, seed ...core.Item) (*Store, *memory.Store) {
	t.Helper()

	backend := memory.New()
	if len(seed) > 0 {
		value, err := Encode(seed)
		require.NoError(t, err)
		require.NoError(t, backend.Set(context.Background(), Key, value))
	}

	store := New(backend)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Load(context.Background()))
	return store, backend
}

func stored(t *testing.T, backend kv.Store) (string, bool) {
	t.Helper()
	value, ok, err := backend.Get(context.Background(), Key)
	require.NoError(t, err)
	return value, ok
}

func TestStore_Load(t *testing.T) {
	t.Run("absent key yields empty collection", func(t *testing.T) {
		store, _ := newLoadedStore(t)

		assert.Empty(t, store.All())
		assert.True(t, store.Hydrated())
	})

	t.Run("restores stored collection in order", func(t *testing.T) {
		store, _ := newLoadedStore(t, item(3, "c"), item(1, "a"), item(2, "b"))

		assert.Equal(t, []string{"3", "1", "2"}, ids(store.All()))
	})

	t.Run("malformed data yields empty collection", func(t *testing.T) {
		backend := memory.New()
		require.NoError(t, backend.Set(context.Background(), Key, "{not json"))

		store := New(backend)
		defer store.Close()

		require.NoError(t, store.Load(context.Background()))
		assert.Empty(t, store.All())
	})

	t.Run("read failure yields empty collection", func(t *testing.T) {
		backend := &flakyKV{Store: memory.New(), getErr: errors.New("disk gone")}

		store := New(backend)
		defer store.Close()

		require.NoError(t, store.Load(context.Background()))
		assert.Empty(t, store.All())
		assert.True(t, store.Hydrated())
	})

	t.Run("closes ready channel", func(t *testing.T) {
		store, _ := newLoadedStore(t)

		select {
		case <-store.Ready():
		default:
			t.Fatal("ready channel not closed")
		}
	})

	t.Run("cancelled load leaves store unhydrated", func(t *testing.T) {
		backend := &flakyKV{Store: memory.New(), getGate: make(chan struct{})}
		store := New(backend)
		defer store.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		assert.ErrorIs(t, store.Load(ctx), context.Canceled)
		assert.False(t, store.Hydrated())
	})

	t.Run("reload picks up external changes", func(t *testing.T) {
		store, backend := newLoadedStore(t, item(1, "a"))

		value, err := Encode([]core.Item{item(1, "a"), item(9, "z")})
		require.NoError(t, err)
		require.NoError(t, backend.Set(context.Background(), Key, value))

		require.NoError(t, store.Load(context.Background()))
		assert.Equal(t, []string{"1", "9"}, ids(store.All()))
	})

	t.Run("reload keeps memory when read fails", func(t *testing.T) {
		backend := &flakyKV{Store: memory.New()}
		store := New(backend)
		defer store.Close()
		ctx := context.Background()

		require.NoError(t, store.Load(ctx))
		change, err := store.Toggle(ctx, item(1, "a"))
		require.NoError(t, err)
		require.NoError(t, change.Wait(ctx))

		backend.mu.Lock()
		backend.getErr = errors.New("flaky")
		backend.mu.Unlock()

		require.NoError(t, store.Load(ctx))
		assert.Equal(t, []string{"1"}, ids(store.All()))
	})

	t.Run("reload does not drop a mutation made while writes drain", func(t *testing.T) {
		gate := make(chan struct{})
		backend := &flakyKV{Store: memory.New(), setGate: gate}
		store := New(backend)
		defer store.Close()
		ctx := context.Background()

		require.NoError(t, store.Load(ctx))

		first, err := store.Toggle(ctx, item(1, "a"))
		require.NoError(t, err)

		reloaded := make(chan error, 1)
		go func() { reloaded <- store.Load(ctx) }()
		time.Sleep(20 * time.Millisecond)

		second, err := store.Toggle(ctx, item(2, "b"))
		require.NoError(t, err)

		gate <- struct{}{}
		require.NoError(t, first.Wait(ctx))
		select {
		case err := <-reloaded:
			require.NoError(t, err)
		case <-time.After(time.Second):
			gate <- struct{}{}
			t.Fatal("reload waited on a write queued after it started")
		}
		gate <- struct{}{}
		require.NoError(t, second.Wait(ctx))

		assert.Equal(t, []string{"1", "2"}, ids(store.All()))

		value, _ := stored(t, backend.Store)
		decoded, err := Decode(value)
		require.NoError(t, err)
		assert.Equal(t, []string{"1", "2"}, ids(decoded))
	})
}

func TestStore_Toggle(t *testing.T) {
	t.Run("scenario: add to empty collection persists exact json", func(t *testing.T) {
		store, backend := newLoadedStore(t)
		ctx := context.Background()

		change, err := store.Toggle(ctx, core.Item{ID: core.IntID(1), ArtName: "Pen", Price: 2.5, Image: "u1"})
		require.NoError(t, err)
		assert.True(t, change.Added)
		require.NoError(t, change.Wait(ctx))

		assert.Equal(t, []string{"1"}, ids(store.All()))

		value, ok := stored(t, backend)
		assert.True(t, ok)
		assert.Equal(t, `[{"id":1,"artName":"Pen","price":2.5,"image":"u1"}]`, value)
	})

	t.Run("scenario: toggling an existing id removes it", func(t *testing.T) {
		store, _ := newLoadedStore(t, item(1, "a"), item(2, "b"))

		change, err := store.Toggle(context.Background(), core.Item{ID: core.IntID(1)})
		require.NoError(t, err)
		assert.False(t, change.Added)
		assert.Equal(t, 1, change.Removed)

		assert.Equal(t, []string{"2"}, ids(store.All()))
	})

	t.Run("appends to the end", func(t *testing.T) {
		store, _ := newLoadedStore(t, item(5, "e"))

		_, err := store.Toggle(context.Background(), item(2, "b"))
		require.NoError(t, err)

		assert.Equal(t, []string{"5", "2"}, ids(store.All()))
	})

	t.Run("toggle twice is an involution", func(t *testing.T) {
		seed := []core.Item{item(1, "a"), item(2, "b"), item(3, "c")}
		candidates := []core.Item{item(2, "b"), item(7, "new")}

		for _, candidate := range candidates {
			store, _ := newLoadedStore(t, seed...)
			before := store.All()
			ctx := context.Background()

			_, err := store.Toggle(ctx, candidate)
			require.NoError(t, err)
			_, err = store.Toggle(ctx, candidate)
			require.NoError(t, err)

			after := store.All()
			if candidate.ID.Equal(core.IntID(2)) {
				// Re-adding moves the item to the end.
				assert.ElementsMatch(t, ids(before), ids(after))
			} else {
				assert.Equal(t, before, after)
			}
		}
	})

	t.Run("string and numeric ids match", func(t *testing.T) {
		store, _ := newLoadedStore(t, item(4, "d"))

		_, err := store.Toggle(context.Background(), core.Item{ID: core.StringID("4")})
		require.NoError(t, err)

		assert.Empty(t, store.All())
	})

	t.Run("rejects items without id", func(t *testing.T) {
		store, _ := newLoadedStore(t)

		_, err := store.Toggle(context.Background(), core.Item{ArtName: "nameless"})
		assert.ErrorIs(t, err, core.ErrInvalidID)
	})

	t.Run("stored item is not aliased by caller", func(t *testing.T) {
		store, _ := newLoadedStore(t)
		it := core.Item{ID: core.IntID(1), Reviews: []core.Review{{Rating: 5}}}

		_, err := store.Toggle(context.Background(), it)
		require.NoError(t, err)
		it.Reviews[0].Rating = 1

		got, ok := store.Get(core.IntID(1))
		require.True(t, ok)
		assert.Equal(t, 5, got.Reviews[0].Rating)
	})
}

func TestStore_Remove(t *testing.T) {
	t.Run("removes matching id", func(t *testing.T) {
		store, backend := newLoadedStore(t, item(1, "a"), item(2, "b"))
		ctx := context.Background()

		change, err := store.Remove(ctx, core.IntID(1))
		require.NoError(t, err)
		assert.Equal(t, 1, change.Removed)
		require.NoError(t, change.Wait(ctx))

		value, _ := stored(t, backend)
		decoded, err := Decode(value)
		require.NoError(t, err)
		assert.Equal(t, []string{"2"}, ids(decoded))
	})

	t.Run("absent id is a no-op without a write", func(t *testing.T) {
		backend := &flakyKV{Store: memory.New()}
		store := New(backend)
		defer store.Close()
		ctx := context.Background()
		require.NoError(t, store.Load(ctx))

		before := store.All()
		change, err := store.Remove(ctx, core.IntID(42))
		require.NoError(t, err)

		assert.Zero(t, change.Removed)
		assert.Nil(t, change.Flush)
		assert.NoError(t, change.Wait(ctx))
		assert.Equal(t, before, store.All())
		assert.Zero(t, backend.sets())
	})

	t.Run("rejects zero id", func(t *testing.T) {
		store, _ := newLoadedStore(t)

		_, err := store.Remove(context.Background(), core.ItemID{})
		assert.ErrorIs(t, err, core.ErrInvalidID)
	})
}

func TestStore_RemoveMany(t *testing.T) {
	t.Run("scenario: removes listed ids", func(t *testing.T) {
		store, _ := newLoadedStore(t, item(1, "a"), item(2, "b"), item(3, "c"))

		change, err := store.RemoveMany(context.Background(), core.IntID(1), core.IntID(3))
		require.NoError(t, err)
		assert.Equal(t, 2, change.Removed)

		assert.Equal(t, []string{"2"}, ids(store.All()))
	})

	t.Run("equals filtering and repeated removes in any order", func(t *testing.T) {
		seed := []core.Item{item(1, "a"), item(2, "b"), item(3, "c"), item(4, "d"), item(5, "e")}
		remove := []core.ItemID{core.IntID(4), core.IntID(9), core.IntID(1)}
		ctx := context.Background()

		many, _ := newLoadedStore(t, seed...)
		_, err := many.RemoveMany(ctx, remove...)
		require.NoError(t, err)

		var filtered []core.Item
		for _, it := range seed {
			if !containsID(remove, it.ID) {
				filtered = append(filtered, it)
			}
		}
		assert.Equal(t, filtered, many.All())

		orders := [][]int{{0, 1, 2}, {2, 1, 0}, {1, 2, 0}}
		for _, order := range orders {
			one, _ := newLoadedStore(t, seed...)
			for _, i := range order {
				_, err := one.Remove(ctx, remove[i])
				require.NoError(t, err)
			}
			assert.Equal(t, many.All(), one.All())
		}
	})

	t.Run("empty id set is a no-op", func(t *testing.T) {
		store, _ := newLoadedStore(t, item(1, "a"))

		change, err := store.RemoveMany(context.Background())
		require.NoError(t, err)
		assert.Nil(t, change.Flush)
		assert.Len(t, store.All(), 1)
	})
}

func TestStore_Clear(t *testing.T) {
	store, backend := newLoadedStore(t, item(1, "a"), item(2, "b"))
	ctx := context.Background()

	change, err := store.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, change.Removed)
	require.NoError(t, change.Wait(ctx))

	assert.Empty(t, store.All())
	_, ok := stored(t, backend)
	assert.False(t, ok)
}

func TestStore_WriteThrough(t *testing.T) {
	t.Run("storage converges to the last mutation", func(t *testing.T) {
		store, backend := newLoadedStore(t)
		ctx := context.Background()

		var last Change
		for i := int64(1); i <= 20; i++ {
			var err error
			last, err = store.Toggle(ctx, item(i, "x"))
			require.NoError(t, err)
		}
		_, err := store.Remove(ctx, core.IntID(10))
		require.NoError(t, err)
		last, err = store.Remove(ctx, core.IntID(20))
		require.NoError(t, err)
		require.NoError(t, last.Wait(ctx))

		value, _ := stored(t, backend)
		decoded, err := Decode(value)
		require.NoError(t, err)
		assert.Equal(t, ids(store.All()), ids(decoded))
		assert.Len(t, decoded, 18)
	})

	t.Run("write failure is observable and memory still updates", func(t *testing.T) {
		backend := &flakyKV{Store: memory.New(), setErr: errors.New("quota exceeded")}
		store := New(backend)
		defer store.Close()
		ctx := context.Background()
		require.NoError(t, store.Load(ctx))

		change, err := store.Toggle(ctx, item(1, "a"))
		require.NoError(t, err)

		werr := change.Wait(ctx)
		assert.EqualError(t, werr, "quota exceeded")
		assert.EqualError(t, change.Flush.Err(), "quota exceeded")
		assert.Equal(t, []string{"1"}, ids(store.All()))

		stats := store.Stats()
		assert.Equal(t, int64(1), stats.Writes)
		assert.Equal(t, int64(1), stats.Failures)
		assert.EqualError(t, stats.LastError, "quota exceeded")
	})

	t.Run("uses custom key", func(t *testing.T) {
		backend := memory.New()
		store := New(backend, WithKey("profile:favorites"))
		defer store.Close()
		ctx := context.Background()
		require.NoError(t, store.Load(ctx))

		change, err := store.Toggle(ctx, item(1, "a"))
		require.NoError(t, err)
		require.NoError(t, change.Wait(ctx))

		_, ok, err := backend.Get(ctx, "profile:favorites")
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestStore_Hydration(t *testing.T) {
	t.Run("mutations wait for load", func(t *testing.T) {
		gate := make(chan struct{})
		backend := &flakyKV{Store: memory.New(), getGate: gate}
		seed, err := Encode([]core.Item{item(1, "a")})
		require.NoError(t, err)
		require.NoError(t, backend.Store.Set(context.Background(), Key, seed))

		store := New(backend)
		defer store.Close()

		loaded := make(chan error, 1)
		go func() { loaded <- store.Load(context.Background()) }()

		toggled := make(chan Change, 1)
		go func() {
			change, err := store.Toggle(context.Background(), item(2, "b"))
			assert.NoError(t, err)
			toggled <- change
		}()

		select {
		case <-toggled:
			t.Fatal("toggle completed before hydration")
		case <-time.After(50 * time.Millisecond):
		}

		close(gate)
		require.NoError(t, <-loaded)
		change := <-toggled
		require.NoError(t, change.Wait(context.Background()))

		assert.Equal(t, []string{"1", "2"}, ids(store.All()))
	})

	t.Run("waiting mutation honours context", func(t *testing.T) {
		store := New(memory.New())
		defer store.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := store.Toggle(ctx, item(1, "a"))
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("early mutations are replayed onto loaded data", func(t *testing.T) {
		backend := memory.New()
		seed, err := Encode([]core.Item{item(1, "a"), item(2, "b")})
		require.NoError(t, err)
		require.NoError(t, backend.Set(context.Background(), Key, seed))

		store := New(backend, WithoutHydrationWait())
		defer store.Close()
		ctx := context.Background()

		added, err := store.Toggle(ctx, item(3, "c"))
		require.NoError(t, err)
		removed, err := store.Remove(ctx, core.IntID(1))
		require.NoError(t, err)

		// Nothing is written before hydration.
		value, _ := stored(t, backend)
		assert.Equal(t, seed, value)

		require.NoError(t, store.Load(ctx))
		require.NoError(t, added.Wait(ctx))
		require.NoError(t, removed.Wait(ctx))

		assert.Equal(t, []string{"2", "3"}, ids(store.All()))

		value, _ = stored(t, backend)
		decoded, err := Decode(value)
		require.NoError(t, err)
		assert.Equal(t, []string{"2", "3"}, ids(decoded))
	})
}

func TestStore_Close(t *testing.T) {
	t.Run("drains pending writes", func(t *testing.T) {
		backend := memory.New()
		store := New(backend)
		ctx := context.Background()
		require.NoError(t, store.Load(ctx))

		for i := int64(1); i <= 5; i++ {
			_, err := store.Toggle(ctx, item(i, "x"))
			require.NoError(t, err)
		}
		require.NoError(t, store.Close())

		value, _ := stored(t, backend)
		decoded, err := Decode(value)
		require.NoError(t, err)
		assert.Len(t, decoded, 5)
	})

	t.Run("operations fail after close", func(t *testing.T) {
		store := New(memory.New())
		ctx := context.Background()
		require.NoError(t, store.Load(ctx))
		require.NoError(t, store.Close())

		_, err := store.Toggle(ctx, item(1, "a"))
		assert.ErrorIs(t, err, ErrStoreClosed)
		_, err = store.Remove(ctx, core.IntID(1))
		assert.ErrorIs(t, err, ErrStoreClosed)
		_, err = store.Clear(ctx)
		assert.ErrorIs(t, err, ErrStoreClosed)
		assert.ErrorIs(t, store.Load(ctx), ErrStoreClosed)
		assert.NoError(t, store.Close())
	})

	t.Run("unblocks mutations waiting for hydration", func(t *testing.T) {
		store := New(memory.New())

		errc := make(chan error, 1)
		go func() {
			_, err := store.Toggle(context.Background(), item(1, "a"))
			errc <- err
		}()

		time.Sleep(10 * time.Millisecond)
		require.NoError(t, store.Close())
		assert.ErrorIs(t, <-errc, ErrStoreClosed)
	})

	t.Run("fails deferred flushes", func(t *testing.T) {
		store := New(memory.New(), WithoutHydrationWait())

		change, err := store.Toggle(context.Background(), item(1, "a"))
		require.NoError(t, err)
		require.NoError(t, store.Close())

		assert.ErrorIs(t, change.Wait(context.Background()), ErrStoreClosed)
	})
}

func TestStore_ReadAccessors(t *testing.T) {
	store, _ := newLoadedStore(t, item(1, "a"), item(2, "b"))

	assert.Equal(t, 2, store.Len())
	assert.True(t, store.Contains(core.IntID(2)))
	assert.False(t, store.Contains(core.IntID(3)))

	got, ok := store.Get(core.IntID(1))
	require.True(t, ok)
	assert.Equal(t, "a", got.ArtName)

	snapshot := store.All()
	snapshot[0].ArtName = "mutated"
	again, _ := store.Get(core.IntID(1))
	assert.Equal(t, "a", again.ArtName)
}
