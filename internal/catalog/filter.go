package catalog

import (
	"strings"

	"github.com/artpar/arttools/internal/core"
)

// Brands returns the distinct brand names in order of first appearance.
// Items without a brand are skipped.
func Brands(items []core.Item) []string {
	var brands []string
	seen := make(map[string]bool)

	for _, it := range items {
		if it.Brand == "" || seen[it.Brand] {
			continue
		}
		seen[it.Brand] = true
		brands = append(brands, it.Brand)
	}
	return brands
}

// FilterByBrand returns the items of brand. An empty brand matches everything.
func FilterByBrand(items []core.Item, brand string) []core.Item {
	if brand == "" {
		return items
	}
	return filter(items, func(it core.Item) bool {
		return strings.EqualFold(it.Brand, brand)
	})
}

// Search returns items whose name contains query, ignoring case.
func Search(items []core.Item, query string) []core.Item {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return items
	}
	return filter(items, func(it core.Item) bool {
		return strings.Contains(strings.ToLower(it.ArtName), query)
	})
}

// DealsOnly returns items with an active limited-time deal.
func DealsOnly(items []core.Item) []core.Item {
	return filter(items, core.Item.HasDeal)
}

// Matcher decides whether an item passes a custom filter.
type Matcher interface {
	Match(item core.Item) (bool, error)
}

// Query combines the browse filters. Zero fields do not filter.
type Query struct {
	Brand  string
	Search string
	Deals  bool
	Where  Matcher
}

// Apply runs the query over items, preserving order.
func (q Query) Apply(items []core.Item) ([]core.Item, error) {
	out := FilterByBrand(items, q.Brand)
	out = Search(out, q.Search)
	if q.Deals {
		out = DealsOnly(out)
	}
	if q.Where == nil {
		return out, nil
	}

	matched := make([]core.Item, 0, len(out))
	for _, it := range out {
		ok, err := q.Where.Match(it)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, it)
		}
	}
	return matched, nil
}

// FilterReviews returns reviews rated at least minRating.
func FilterReviews(reviews []core.Review, minRating int) []core.Review {
	out := make([]core.Review, 0, len(reviews))
	for _, r := range reviews {
		if r.Rating >= minRating {
			out = append(out, r)
		}
	}
	return out
}

// AverageRating returns the mean rating, or 0 with no reviews.
func AverageRating(reviews []core.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	total := 0
	for _, r := range reviews {
		total += r.Rating
	}
	return float64(total) / float64(len(reviews))
}

func filter(items []core.Item, keep func(core.Item) bool) []core.Item {
	out := make([]core.Item, 0, len(items))
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}
