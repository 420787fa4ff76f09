package favorites

import (
	"encoding/json"
	"fmt"

	"github.com/artpar/arttools/internal/core"
)

// Encode serializes a collection as a JSON array. An empty collection is "[]".
func Encode(items []core.Item) (string, error) {
	if items == nil {
		items = []core.Item{}
	}

	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("failed to encode favorites: %w", err)
	}
	return string(data), nil
}

// Decode parses a serialized collection. Items without an id are dropped and
// only the first item of each id is kept, so the result is always a valid
// collection.
func Decode(value string) ([]core.Item, error) {
	var raw []core.Item
	if err := json.Unmarshal([]byte(value), &raw); err != nil {
		return nil, fmt.Errorf("failed to decode favorites: %w", err)
	}

	items := make([]core.Item, 0, len(raw))
	for _, it := range raw {
		if it.Validate() != nil || indexOf(items, it.ID) >= 0 {
			continue
		}
		items = append(items, it)
	}
	return items, nil
}

func indexOf(items []core.Item, id core.ItemID) int {
	for i := range items {
		if items[i].ID.Equal(id) {
			return i
		}
	}
	return -1
}
