// Package favorites owns the user's favorites collection and mirrors it into
// a kv.Store under a fixed key.
//
// Mutations update the in-memory collection synchronously and hand a full
// snapshot to a single writer goroutine, so storage receives every state in
// mutation order. Each mutation returns a Change whose Flush reports the
// outcome of its write.
package favorites

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/artpar/arttools/internal/core"
	"github.com/artpar/arttools/internal/kv"
	"github.com/rs/zerolog"
)

// Key is where the collection is stored.
const Key = "favorites"

const (
	defaultQueueSize    = 64
	defaultWriteTimeout = 10 * time.Second
)

// ErrStoreClosed is returned by operations on a closed Store.
var ErrStoreClosed = errors.New("favorites store is closed")

// Stats counts write-through activity.
type Stats struct {
	Writes    int64
	Failures  int64
	LastError error
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for persistence warnings.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) {
		s.log = log
	}
}

// WithKey overrides the storage key.
func WithKey(key string) Option {
	return func(s *Store) {
		s.key = key
	}
}

// WithWriteTimeout bounds each write to storage.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.writeTimeout = d
	}
}

// WithoutHydrationWait lets mutations run before Load has completed instead
// of blocking. Such mutations are replayed on top of the loaded collection
// and written once hydration finishes.
func WithoutHydrationWait() Option {
	return func(s *Store) {
		s.waitHydration = false
	}
}

type operation func(items []core.Item) result

type result struct {
	items  []core.Item
	change Change
	write  bool
	drop   bool
}

type writeRequest struct {
	payload string
	drop    bool
	flushes []*Flush
}

// Store is the authoritative favorites collection.
type Store struct {
	kv            kv.Store
	key           string
	log           zerolog.Logger
	writeTimeout  time.Duration
	waitHydration bool

	mu       sync.Mutex
	items    []core.Item
	hydrated bool
	closed   bool
	gen      uint64
	last     *Flush
	replay   []operation
	deferred []*Flush

	ready   chan struct{}
	done    chan struct{}
	queue   chan writeRequest
	stopped chan struct{}

	statsMu sync.Mutex
	stats   Stats
}

// New creates a Store over store. The collection is empty until Load runs.
func New(store kv.Store, opts ...Option) *Store {
	s := &Store{
		kv:            store,
		key:           Key,
		log:           zerolog.Nop(),
		writeTimeout:  defaultWriteTimeout,
		waitHydration: true,
		items:         []core.Item{},
		ready:         make(chan struct{}),
		done:          make(chan struct{}),
		queue:         make(chan writeRequest, defaultQueueSize),
		stopped:       make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	go s.run()
	return s
}

// Load reads the collection from storage. A missing key, a failed read and
// malformed data all produce an empty collection; failures are logged, not
// returned. The first Load marks the store hydrated. Later calls re-read
// storage and replace the collection unless a mutation happened meanwhile
// or the read failed.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStoreClosed
	}
	// gen and last are read together: a mutation landing while the last
	// write drains bumps gen, and the stale read below is discarded.
	gen, last := s.gen, s.last
	s.mu.Unlock()

	// Storage is behind memory until queued writes land.
	if last != nil {
		select {
		case <-last.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	value, ok, err := s.kv.Get(ctx, s.key)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	loaded, readOK := s.decodeStored(value, ok, err)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	if s.hydrated {
		if readOK && s.gen == gen {
			s.items = loaded
		}
		return nil
	}

	items := loaded
	for _, op := range s.replay {
		items = op(items).items
	}
	replayed, deferred := len(s.replay), s.deferred
	s.replay, s.deferred = nil, nil

	s.items = items
	s.hydrated = true
	close(s.ready)

	if replayed > 0 {
		s.enqueueLocked(items, false, deferred...)
	}

	s.log.Debug().
		Str("key", s.key).
		Int("count", len(items)).
		Int("replayed", replayed).
		Msg("favorites hydrated")

	return nil
}

func (s *Store) decodeStored(value string, ok bool, err error) ([]core.Item, bool) {
	switch {
	case err != nil:
		s.log.Warn().Err(err).Str("key", s.key).Msg("failed to read favorites, treating as empty")
		return []core.Item{}, false
	case !ok:
		return []core.Item{}, true
	}

	items, err := Decode(value)
	if err != nil {
		s.log.Warn().Err(err).Str("key", s.key).Msg("stored favorites are malformed, treating as empty")
		return []core.Item{}, false
	}
	return items, true
}

// Ready is closed once the first Load has completed.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// Hydrated reports whether the first Load has completed.
func (s *Store) Hydrated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hydrated
}

// Toggle removes the item if a favorite with the same id exists, otherwise
// appends it.
func (s *Store) Toggle(ctx context.Context, item core.Item) (Change, error) {
	if err := item.Validate(); err != nil {
		return Change{}, err
	}
	item = item.Clone()

	return s.mutate(ctx, func(items []core.Item) result {
		if i := indexOf(items, item.ID); i >= 0 {
			return result{items: without(items, i), change: Change{Removed: 1}, write: true}
		}

		next := make([]core.Item, len(items), len(items)+1)
		copy(next, items)
		next = append(next, item)
		return result{items: next, change: Change{Added: true}, write: true}
	})
}

// Remove removes the favorite with the given id. Removing an absent id is a
// no-op and writes nothing.
func (s *Store) Remove(ctx context.Context, id core.ItemID) (Change, error) {
	return s.RemoveMany(ctx, id)
}

// RemoveMany removes every favorite whose id is in ids.
func (s *Store) RemoveMany(ctx context.Context, ids ...core.ItemID) (Change, error) {
	for _, id := range ids {
		if id.IsZero() {
			return Change{}, core.ErrInvalidID
		}
	}
	ids = append([]core.ItemID(nil), ids...)

	return s.mutate(ctx, func(items []core.Item) result {
		next := make([]core.Item, 0, len(items))
		for _, it := range items {
			if !containsID(ids, it.ID) {
				next = append(next, it)
			}
		}

		removed := len(items) - len(next)
		if removed == 0 {
			return result{items: items}
		}
		return result{items: next, change: Change{Removed: removed}, write: true}
	})
}

// Clear empties the collection and deletes the storage key.
func (s *Store) Clear(ctx context.Context) (Change, error) {
	return s.mutate(ctx, func(items []core.Item) result {
		return result{items: []core.Item{}, change: Change{Removed: len(items)}, write: true, drop: true}
	})
}

func (s *Store) mutate(ctx context.Context, op operation) (Change, error) {
	if s.waitHydration {
		select {
		case <-s.ready:
		case <-s.done:
			return Change{}, ErrStoreClosed
		case <-ctx.Done():
			return Change{}, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Change{}, ErrStoreClosed
	}

	res := op(s.items)
	s.items = res.items

	if !s.hydrated {
		// Replayed against the loaded collection, including no-op removals
		// whose target may only exist in storage.
		s.replay = append(s.replay, op)
		f := newFlush()
		s.deferred = append(s.deferred, f)
		res.change.Flush = f
		return res.change, nil
	}

	if res.write {
		res.change.Flush = s.enqueueLocked(res.items, res.drop)
	}
	return res.change, nil
}

// enqueueLocked hands a snapshot to the writer. s.mu must be held.
func (s *Store) enqueueLocked(items []core.Item, drop bool, extra ...*Flush) *Flush {
	f := newFlush()
	flushes := append([]*Flush{f}, extra...)

	var payload string
	if !drop {
		var err error
		payload, err = Encode(items)
		if err != nil {
			s.recordWrite(err)
			for _, fl := range flushes {
				fl.finish(err)
			}
			return f
		}
	}

	s.gen++
	s.last = f
	s.queue <- writeRequest{payload: payload, drop: drop, flushes: flushes}
	return f
}

func (s *Store) run() {
	defer close(s.stopped)

	for req := range s.queue {
		err := s.persist(req)
		s.recordWrite(err)
		for _, f := range req.flushes {
			f.finish(err)
		}
	}
}

func (s *Store) persist(req writeRequest) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
	defer cancel()

	if req.drop {
		return s.kv.Remove(ctx, s.key)
	}
	return s.kv.Set(ctx, s.key, req.payload)
}

func (s *Store) recordWrite(err error) {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()

	s.stats.Writes++
	if err != nil {
		s.stats.Failures++
		s.stats.LastError = err
		s.log.Warn().Err(err).Str("key", s.key).Msg("failed to persist favorites")
	}
}

// All returns a copy of the collection in insertion order.
func (s *Store) All() []core.Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Item, len(s.items))
	for i, it := range s.items {
		out[i] = it.Clone()
	}
	return out
}

// Get returns the favorite with the given id.
func (s *Store) Get(id core.ItemID) (core.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := indexOf(s.items, id); i >= 0 {
		return s.items[i].Clone(), true
	}
	return core.Item{}, false
}

// Contains reports whether id is a favorite.
func (s *Store) Contains(id core.ItemID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return indexOf(s.items, id) >= 0
}

// Len returns the number of favorites.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Stats returns write-through counters.
func (s *Store) Stats() Stats {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	return s.stats
}

// Close waits for queued writes and stops the writer. It does not close the
// underlying kv.Store.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	deferred := s.deferred
	s.replay, s.deferred = nil, nil
	close(s.queue)
	close(s.done)
	s.mu.Unlock()

	<-s.stopped

	for _, f := range deferred {
		f.finish(ErrStoreClosed)
	}
	return nil
}

func without(items []core.Item, i int) []core.Item {
	next := make([]core.Item, 0, len(items)-1)
	next = append(next, items[:i]...)
	return append(next, items[i+1:]...)
}

func containsID(ids []core.ItemID, id core.ItemID) bool {
	for _, candidate := range ids {
		if candidate.Equal(id) {
			return true
		}
	}
	return false
}
