// Package filesystem implements kv.Store as one file per key in a directory.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/artpar/arttools/internal/kv"
)

const fileExt = ".value"

// Store writes each key to <basePath>/<escaped key>.value.
type Store struct {
	mu       sync.RWMutex
	basePath string
	closed   bool
}

// New creates a new filesystem-based kv store.
func New(basePath string) (*Store, error) {
	// Create directory if it doesn't exist
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create kv directory: %w", err)
	}

	return &Store{basePath: basePath}, nil
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if err := kv.CheckKey(key); err != nil {
		return "", false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", false, kv.ErrStoreClosed
	}

	content, err := os.ReadFile(s.keyPath(key))
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read key file: %w", err)
	}

	return string(content), true, nil
}

// Set writes value to the key's file. The write goes through a temporary
// file and a rename so readers never see a partial value.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := kv.CheckKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return kv.ErrStoreClosed
	}

	tmp, err := os.CreateTemp(s.basePath, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write key file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write key file: %w", err)
	}

	if err := os.Rename(tmpName, s.keyPath(key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace key file: %w", err)
	}

	return nil
}

// Remove deletes the key's file.
func (s *Store) Remove(ctx context.Context, key string) error {
	if err := kv.CheckKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return kv.ErrStoreClosed
	}

	if err := os.Remove(s.keyPath(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove key file: %w", err)
	}

	return nil
}

// Close marks the store closed. Files stay on disk.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

func (s *Store) keyPath(key string) string {
	return filepath.Join(s.basePath, url.PathEscape(key)+fileExt)
}
