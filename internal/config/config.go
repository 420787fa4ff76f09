// Package config loads arttools settings from defaults, an optional YAML
// file and ARTTOOLS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the data directory.
const FileName = "config.yaml"

// Storage drivers.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverBolt   = "bolt"
	DriverRedis  = "redis"
)

// Config holds application configuration.
type Config struct {
	DataDir  string        `yaml:"data_dir"`
	Storage  StorageConfig `yaml:"storage"`
	Catalog  CatalogConfig `yaml:"catalog"`
	LogLevel string        `yaml:"log_level"`
}

// StorageConfig selects the key-value backend for favorites.
type StorageConfig struct {
	Driver        string `yaml:"driver"`
	Path          string `yaml:"path"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	KeyPrefix     string `yaml:"key_prefix"`
}

// CatalogConfig selects where the product list comes from. URL wins over
// File; with neither set the built-in catalog is used.
type CatalogConfig struct {
	URL     string        `yaml:"url"`
	File    string        `yaml:"file"`
	Timeout time.Duration `yaml:"timeout"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		DataDir: filepath.Join("~", ".config", "arttools"),
		Storage: StorageConfig{
			Driver:    DriverSQLite,
			RedisAddr: "localhost:6379",
			KeyPrefix: "arttools:",
		},
		Catalog: CatalogConfig{
			Timeout: 30 * time.Second,
		},
		LogLevel: "warn",
	}
}

// Load builds the configuration. An explicit path must exist; with an empty
// path the file in the data directory is read if present.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		dataDir := getEnv("ARTTOOLS_DATA_DIR", cfg.DataDir)
		path = filepath.Join(ExpandHome(dataDir), FileName)
	}

	content, err := os.ReadFile(ExpandHome(path))
	switch {
	case err == nil:
		if err := yaml.Unmarshal(content, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	cfg.expand()
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	cfg.DataDir = getEnv("ARTTOOLS_DATA_DIR", cfg.DataDir)
	cfg.LogLevel = getEnv("ARTTOOLS_LOG_LEVEL", cfg.LogLevel)

	cfg.Storage.Driver = getEnv("ARTTOOLS_STORAGE", cfg.Storage.Driver)
	cfg.Storage.Path = getEnv("ARTTOOLS_STORAGE_PATH", cfg.Storage.Path)
	cfg.Storage.RedisAddr = getEnv("ARTTOOLS_REDIS_ADDR", cfg.Storage.RedisAddr)
	cfg.Storage.RedisPassword = getEnv("ARTTOOLS_REDIS_PASSWORD", cfg.Storage.RedisPassword)
	cfg.Storage.KeyPrefix = getEnv("ARTTOOLS_KEY_PREFIX", cfg.Storage.KeyPrefix)
	if v := os.Getenv("ARTTOOLS_REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid ARTTOOLS_REDIS_DB %q: %w", v, err)
		}
		cfg.Storage.RedisDB = db
	}

	cfg.Catalog.URL = getEnv("ARTTOOLS_CATALOG_URL", cfg.Catalog.URL)
	cfg.Catalog.File = getEnv("ARTTOOLS_CATALOG_FILE", cfg.Catalog.File)
	if v := os.Getenv("ARTTOOLS_CATALOG_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid ARTTOOLS_CATALOG_TIMEOUT %q: %w", v, err)
		}
		cfg.Catalog.Timeout = d
	}
	return nil
}

func (c *Config) expand() {
	c.DataDir = ExpandHome(c.DataDir)
	c.Storage.Path = ExpandHome(c.Storage.Path)
	c.Catalog.File = ExpandHome(c.Catalog.File)
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
}

// StoragePath returns the backend location, defaulting to a per-driver
// file in the data directory.
func (c Config) StoragePath() string {
	if c.Storage.Path != "" {
		return ExpandHome(c.Storage.Path)
	}

	dataDir := ExpandHome(c.DataDir)
	switch c.Storage.Driver {
	case DriverSQLite:
		return filepath.Join(dataDir, "favorites.db")
	case DriverBolt:
		return filepath.Join(dataDir, "favorites.bolt")
	case DriverFile:
		return filepath.Join(dataDir, "kv")
	default:
		return ""
	}
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
