package catalog

import (
	"strings"

	"github.com/ValentinKolb/kvmarket/lib/market/model"
)

// Query selects products for browsing. Zero values match everything.
type Query struct {
	Search   string         // case-insensitive substring of title or description, whitespace included
	Category model.Category // exact category
}

// Filter returns the products matching q, order preserved.
// The input slice is not modified.
func Filter(products []model.Product, q Query) []model.Product {
	search := strings.ToLower(q.Search)

	matched := make([]model.Product, 0, len(products))
	for _, p := range products {
		if q.Category != "" && p.Category != q.Category {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Title), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		matched = append(matched, p)
	}
	return matched
}
