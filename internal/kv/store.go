// Package kv defines the string-keyed persistence facility that the
// favorites store mirrors its collection into, plus the drivers that
// implement it.
package kv

import (
	"context"
	"errors"
)

// Common errors.
var (
	ErrStoreClosed   = errors.New("kv store is closed")
	ErrUnknownDriver = errors.New("unknown kv driver")
	ErrEmptyKey      = errors.New("kv key is empty")
)

// Store defines a small asynchronous-friendly key-value store.
type Store interface {
	// Get returns the value stored under key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error

	// Close releases the store's resources.
	Close() error
}

// CheckKey validates a key before it reaches a driver.
func CheckKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return nil
}
