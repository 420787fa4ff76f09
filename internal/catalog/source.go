// Package catalog supplies the art-tool product list and the filters the
// browse screens apply to it.
package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/artpar/arttools/internal/core"
	"github.com/google/uuid"
)

// ErrNotFound is returned when an item is not in the catalog.
var ErrNotFound = errors.New("catalog item not found")

// Source fetches the product list.
type Source interface {
	Fetch(ctx context.Context) ([]core.Item, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]core.Item, error)

// Fetch calls f.
func (f SourceFunc) Fetch(ctx context.Context) ([]core.Item, error) {
	return f(ctx)
}

// idNamespace seeds the ids generated for catalog entries that ship without one.
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/artpar/arttools/catalog"))

// normalize assigns missing ids and drops later duplicates.
func normalize(items []core.Item) []core.Item {
	out := make([]core.Item, 0, len(items))
	seen := make(map[string]bool, len(items))

	for _, it := range items {
		if it.ID.IsZero() {
			it.ID = core.StringID(deriveID(it))
		}
		if seen[it.ID.String()] {
			continue
		}
		seen[it.ID.String()] = true
		out = append(out, it)
	}
	return out
}

// deriveID is stable across runs so favorites of id-less entries survive restarts.
func deriveID(it core.Item) string {
	name := strings.ToLower(strings.TrimSpace(it.Brand)) + "/" + strings.ToLower(strings.TrimSpace(it.ArtName))
	return uuid.NewSHA1(idNamespace, []byte(name)).String()
}

// Find returns the item with the given id.
func Find(items []core.Item, id core.ItemID) (core.Item, error) {
	for _, it := range items {
		if it.ID.Equal(id) {
			return it, nil
		}
	}
	return core.Item{}, ErrNotFound
}
