package memory

import (
	"testing"

	"github.com/artpar/arttools/internal/kv"
)

func TestStore(t *testing.T) {
	kv.RunStoreTests(t, func(t *testing.T) (kv.Store, func()) {
		s := New()
		return s, func() { s.Close() }
	})
}
