package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/artpar/arttools/internal/catalog"
	"github.com/artpar/arttools/internal/config"
	"github.com/artpar/arttools/internal/kv"
	"github.com/artpar/arttools/internal/kv/bolt"
	"github.com/artpar/arttools/internal/kv/filesystem"
	"github.com/artpar/arttools/internal/kv/memory"
	"github.com/artpar/arttools/internal/kv/redis"
	"github.com/artpar/arttools/internal/kv/sqlite"
)

// OpenKV opens the backend named by cfg.Storage.Driver.
func OpenKV(ctx context.Context, cfg config.Config) (kv.Store, error) {
	path := cfg.StoragePath()

	switch cfg.Storage.Driver {
	case config.DriverMemory:
		return memory.New(), nil

	case config.DriverFile:
		store, err := filesystem.New(path)
		if err != nil {
			return nil, err
		}
		return store, nil

	case config.DriverSQLite:
		if err := ensureParent(path); err != nil {
			return nil, err
		}
		store, err := sqlite.New(path)
		if err != nil {
			return nil, err
		}
		return store, nil

	case config.DriverBolt:
		if err := ensureParent(path); err != nil {
			return nil, err
		}
		store, err := bolt.New(path)
		if err != nil {
			return nil, err
		}
		return store, nil

	case config.DriverRedis:
		store, err := redis.New(ctx, redis.Options{
			Addr:     cfg.Storage.RedisAddr,
			Password: cfg.Storage.RedisPassword,
			DB:       cfg.Storage.RedisDB,
			Prefix:   cfg.Storage.KeyPrefix,
		})
		if err != nil {
			return nil, err
		}
		return store, nil

	default:
		return nil, fmt.Errorf("%w: %q", kv.ErrUnknownDriver, cfg.Storage.Driver)
	}
}

// NewSource picks the catalog source: URL, then file, then the built-in list.
func NewSource(cfg config.CatalogConfig) catalog.Source {
	switch {
	case cfg.URL != "":
		var opts []catalog.HTTPOption
		if cfg.Timeout > 0 {
			opts = append(opts, catalog.WithTimeout(cfg.Timeout))
		}
		return catalog.NewHTTPSource(cfg.URL, opts...)
	case cfg.File != "":
		return catalog.NewFileSource(cfg.File)
	default:
		return catalog.NewDefaultSource()
	}
}

func ensureParent(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}
