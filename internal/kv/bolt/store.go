// Package bolt implements kv.Store on a bbolt database file.
package bolt

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/artpar/arttools/internal/kv"
	"go.etcd.io/bbolt"
)

const bucketKV = "kv"

// Store keeps every key in a single bucket.
type Store struct {
	mu     sync.RWMutex
	db     *bbolt.DB
	closed bool
}

// New opens (or creates) the bbolt file at path.
func New(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketKV))
		return err
	}); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("failed to initialize bolt database: %w", err)
	}

	return &Store{db: db}, nil
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

	var (
		value string
		ok    bool
	)

	err := s.db.View(func(tx *bbolt.Tx) error {
		// A cursor distinguishes an empty value from a missing key.
		k, v := tx.Bucket([]byte(bucketKV)).Cursor().Seek([]byte(key))
		if bytes.Equal(k, []byte(key)) {
			value = string(v)
			ok = true
		}

		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("failed to read key %q: %w", key, err)
	}

	return value, ok, nil
}

// Set stores value under key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := kv.CheckKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return kv.ErrStoreClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketKV)).Put([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}

	return nil
}

// Remove deletes key.
func (s *Store) Remove(ctx context.Context, key string) error {
	if err := kv.CheckKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return kv.ErrStoreClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketKV)).Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("failed to remove key %q: %w", key, err)
	}

	return nil
}

// Close closes the underlying database file.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}
