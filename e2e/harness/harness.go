// Package harness provides E2E testing utilities for arttools.
package harness

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/artpar/arttools/internal/config"
)

// E2EHarness is the main test orchestrator. Every runner it hands out
// shares one data directory, so favorites written by one surface are seen
// by the others.
type E2EHarness struct {
	t       *testing.T
	server  *httptest.Server
	dataDir string
	storage string
	timeout time.Duration
}

// Config configures the harness.
type Config struct {
	// CatalogHandlers are mounted on a test server; the catalog is read
	// from CatalogPath on it. Without handlers the built-in catalog is used.
	CatalogHandlers map[string]http.HandlerFunc
	CatalogPath     string
	Storage         string        // Default: sqlite
	Timeout         time.Duration // Default: 5 seconds
}

// New creates a new E2E harness.
func New(t *testing.T, cfg Config) *E2EHarness {
	t.Helper()

	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Storage == "" {
		cfg.Storage = config.DriverSQLite
	}

	h := &E2EHarness{
		t:       t,
		dataDir: t.TempDir(),
		storage: cfg.Storage,
		timeout: cfg.Timeout,
	}

	if len(cfg.CatalogHandlers) > 0 {
		mux := http.NewServeMux()
		for pattern, handler := range cfg.CatalogHandlers {
			mux.HandleFunc(pattern, handler)
		}
		h.server = httptest.NewServer(mux)
		t.Cleanup(h.server.Close)
	}

	return h
}

// CatalogURL returns the catalog endpoint, or "" for the built-in catalog.
func (h *E2EHarness) CatalogURL(path string) string {
	if h.server == nil {
		return ""
	}
	return h.server.URL + path
}

// DataDir returns the shared data directory.
func (h *E2EHarness) DataDir() string {
	return h.dataDir
}

// Config builds the configuration every runner uses.
func (h *E2EHarness) Config(catalogURL string) config.Config {
	cfg := config.Default()
	cfg.DataDir = h.dataDir
	cfg.Storage.Driver = h.storage
	cfg.Catalog.URL = catalogURL
	cfg.Catalog.Timeout = h.timeout
	cfg.LogLevel = "disabled"
	return cfg
}

// Timeout returns the configured timeout.
func (h *E2EHarness) Timeout() time.Duration {
	return h.timeout
}

// CLI returns a CLI runner for this harness.
func (h *E2EHarness) CLI() *CLIRunner {
	return &CLIRunner{harness: h}
}

// TUI returns a TUI runner for this harness.
func (h *E2EHarness) TUI() *TUIRunner {
	return &TUIRunner{harness: h}
}
