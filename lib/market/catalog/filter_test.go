package catalog

import (
	"testing"

	"github.com/ValentinKolb/kvmarket/lib/market/model"
	"github.com/stretchr/testify/assert"
)

func ids(products []model.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func TestFilter(t *testing.T) {
	products := []model.Product{
		{ID: "1", Title: "Smartphone X", Description: "fast", Category: model.CategoryElectronics},
		{ID: "2", Title: "Phone case", Description: "leather", Category: model.CategoryOther},
		{ID: "3", Title: "Headset", Description: "works with any PHONE", Category: model.CategoryElectronics},
		{ID: "4", Title: "Laptop", Description: "thin", Category: model.CategoryElectronics},
	}

	t.Run("search and category", func(t *testing.T) {
		got := Filter(products, Query{Search: "phone", Category: model.CategoryElectronics})
		assert.Equal(t, []string{"1", "3"}, ids(got))
	})

	t.Run("search only", func(t *testing.T) {
		got := Filter(products, Query{Search: "PHONE"})
		assert.Equal(t, []string{"1", "2", "3"}, ids(got))
	})

	t.Run("category only", func(t *testing.T) {
		got := Filter(products, Query{Category: model.CategoryOther})
		assert.Equal(t, []string{"2"}, ids(got))
	})

	t.Run("empty query matches all", func(t *testing.T) {
		got := Filter(products, Query{})
		assert.Equal(t, []string{"1", "2", "3", "4"}, ids(got))
	})

	t.Run("search keeps surrounding whitespace", func(t *testing.T) {
		got := Filter(products, Query{Search: "phone "})
		assert.Equal(t, []string{"2"}, ids(got))
	})

	t.Run("no match", func(t *testing.T) {
		assert.Empty(t, Filter(products, Query{Search: "bicycle"}))
	})
}
