// Package app is the application container: it owns the key-value backend,
// the favorites store and the catalog source, and hands them to the CLI and
// the TUI.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/artpar/arttools/internal/catalog"
	"github.com/artpar/arttools/internal/config"
	"github.com/artpar/arttools/internal/core"
	"github.com/artpar/arttools/internal/favorites"
	"github.com/artpar/arttools/internal/kv"
	"github.com/artpar/arttools/internal/kv/memory"
	"github.com/artpar/arttools/internal/script"
	"github.com/rs/zerolog"
)

// Favorites is the view of the favorites store given to presentation code.
type Favorites interface {
	All() []core.Item
	Contains(id core.ItemID) bool
	Len() int
	Toggle(ctx context.Context, item core.Item) (favorites.Change, error)
	Remove(ctx context.Context, id core.ItemID) (favorites.Change, error)
	RemoveMany(ctx context.Context, ids ...core.ItemID) (favorites.Change, error)
	Clear(ctx context.Context) (favorites.Change, error)
}

var _ Favorites = (*favorites.Store)(nil)

// App is the main application container with dependency injection.
type App struct {
	config    config.Config
	log       zerolog.Logger
	kv        kv.Store
	ownsKV    bool
	source    catalog.Source
	engine    *script.Engine
	favorites *favorites.Store
	favOpts   []favorites.Option

	startOnce sync.Once
	stopLoad  context.CancelFunc
	loaded    chan struct{}
	loadErr   error

	mu      sync.Mutex
	items   []core.Item
	fetched bool
	closed  bool
}

// Option is a function that configures the App.
type Option func(*App)

// WithConfig sets the application configuration.
func WithConfig(cfg config.Config) Option {
	return func(a *App) {
		a.config = cfg
	}
}

// WithKV sets the backend for favorites. The caller keeps ownership and
// closes it.
func WithKV(store kv.Store) Option {
	return func(a *App) {
		a.kv = store
		a.ownsKV = false
	}
}

// withOwnedKV sets a backend that App.Close closes.
func withOwnedKV(store kv.Store) Option {
	return func(a *App) {
		a.kv = store
		a.ownsKV = true
	}
}

// WithCatalog sets the product source.
func WithCatalog(source catalog.Source) Option {
	return func(a *App) {
		a.source = source
	}
}

// WithLogger sets the logger handed to every component.
func WithLogger(log zerolog.Logger) Option {
	return func(a *App) {
		a.log = log
	}
}

// WithFavoritesOptions passes extra options to the favorites store.
func WithFavoritesOptions(opts ...favorites.Option) Option {
	return func(a *App) {
		a.favOpts = append(a.favOpts, opts...)
	}
}

// New creates a new App with the given options. Without WithKV favorites
// live in memory; without WithCatalog the built-in catalog is served.
func New(opts ...Option) *App {
	a := &App{
		config: config.Default(),
		log:    zerolog.Nop(),
		loaded: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.kv == nil {
		a.kv = memory.New()
		a.ownsKV = true
	}
	if a.source == nil {
		a.source = catalog.NewDefaultSource()
	}

	a.engine = script.NewEngine(script.WithConsoleHandler(func(level, msg string) {
		a.log.Debug().Str("console", level).Msg(msg)
	}))

	favOpts := append([]favorites.Option{favorites.WithLogger(a.log)}, a.favOpts...)
	a.favorites = favorites.New(a.kv, favOpts...)

	return a
}

// Open creates an App from configuration, opening the configured backend
// and catalog source.
func Open(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	store, err := OpenKV(ctx, cfg)
	if err != nil {
		return nil, err
	}

	base := []Option{
		WithConfig(cfg),
		withOwnedKV(store),
		WithCatalog(NewSource(cfg.Catalog)),
	}
	return New(append(base, opts...)...), nil
}

// Config returns the application configuration.
func (a *App) Config() config.Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() zerolog.Logger {
	return a.log
}

// Start hydrates the favorites store in the background. Only the first call
// has an effect. Hydration keeps ctx values but not its cancellation; it
// ends when it completes or the App is closed.
func (a *App) Start(ctx context.Context) {
	a.startOnce.Do(func() {
		loadCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		a.mu.Lock()
		a.stopLoad = cancel
		a.mu.Unlock()

		go func() {
			defer cancel()
			a.loadErr = a.favorites.Load(loadCtx)
			if a.loadErr != nil {
				a.log.Warn().Err(a.loadErr).Msg("favorites hydration did not complete")
			}
			close(a.loaded)
		}()
	})
}

// WaitReady starts hydration if needed and blocks until it has finished.
func (a *App) WaitReady(ctx context.Context) error {
	a.Start(ctx)

	select {
	case <-a.loaded:
		return a.loadErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Favorites returns the favorites store.
func (a *App) Favorites() Favorites {
	return a.favorites
}

// FavoritesStats reports write-through activity.
func (a *App) FavoritesStats() favorites.Stats {
	return a.favorites.Stats()
}

// Catalog returns the product list, fetching it on first use.
func (a *App) Catalog(ctx context.Context) ([]core.Item, error) {
	a.mu.Lock()
	if a.fetched {
		items := a.items
		a.mu.Unlock()
		return items, nil
	}
	a.mu.Unlock()

	return a.fetchCatalog(ctx)
}

// Refresh re-fetches the catalog and re-reads favorites from storage.
func (a *App) Refresh(ctx context.Context) ([]core.Item, error) {
	items, err := a.fetchCatalog(ctx)
	if err != nil {
		return nil, err
	}

	if err := a.WaitReady(ctx); err != nil {
		return nil, err
	}
	if err := a.favorites.Load(ctx); err != nil {
		return nil, err
	}
	return items, nil
}

func (a *App) fetchCatalog(ctx context.Context) ([]core.Item, error) {
	items, err := a.source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	a.mu.Lock()
	a.items = items
	a.fetched = true
	a.mu.Unlock()

	a.log.Debug().Int("count", len(items)).Msg("catalog loaded")
	return items, nil
}

// Compile turns a filter expression into a catalog matcher.
func (a *App) Compile(expr string) (catalog.Matcher, error) {
	p, err := a.engine.Compile(expr)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Close stops the favorites writer after pending writes and closes a
// backend opened by Open.
func (a *App) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	stopLoad := a.stopLoad
	a.mu.Unlock()

	if stopLoad != nil {
		stopLoad()
	}

	var errs []error
	if err := a.favorites.Close(); err != nil {
		errs = append(errs, err)
	}
	if a.ownsKV {
		if err := a.kv.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close storage: %w", err))
		}
	}
	return errors.Join(errs...)
}
