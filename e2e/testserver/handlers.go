// Package testserver provides catalog HTTP handlers for E2E tests.
package testserver

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

// Handlers provides reusable response handlers.
type Handlers struct{}

// JSON returns a handler that responds with JSON.
func (Handlers) JSON(code int, data interface{}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(data)
	}
}

// Delayed returns a handler with simulated latency.
func (Handlers) Delayed(delay time.Duration, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(delay):
			next(w, r)
		case <-r.Context().Done():
		}
	}
}

// Error returns a handler that responds with an error.
func (Handlers) Error(code int, message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]string{"error": message})
	}
}

// Counted wraps next and counts the requests it serves.
func (Handlers) Counted(hits *int64, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(hits, 1)
		next(w, r)
	}
}
