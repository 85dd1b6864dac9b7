package product

import (
	"strings"
	"testing"

	"github.com/ValentinKolb/kvmarket/lib/market/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeed(t *testing.T) {
	seed := `
products:
  - title: Desk lamp
    description: Warm white, dimmable
    category: home & garden
    price: 24.90
  - title: Go in Action
    category: Books
    price: "35"
    imageUrl: https://example.com/book.png
`
	fields, err := parseSeed(strings.NewReader(seed))
	require.NoError(t, err)
	require.Len(t, fields, 2)

	assert.Equal(t, "Desk lamp", fields[0].Title)
	assert.Equal(t, model.CategoryHomeGarden, fields[0].Category)
	assert.True(t, decimal.RequireFromString("24.90").Equal(fields[0].Price))
	assert.Equal(t, model.CategoryBooks, fields[1].Category)
	assert.Equal(t, "https://example.com/book.png", fields[1].ImageURL)
}

func TestParseSeedRejectsInvalidEntries(t *testing.T) {
	cases := map[string]string{
		"unknown category": "products:\n  - {title: x, category: Food, price: 1}\n",
		"bad price":        "products:\n  - {title: x, category: Books, price: cheap}\n",
		"negative price":   "products:\n  - {title: x, category: Books, price: -1}\n",
		"missing title":    "products:\n  - {category: Books, price: 1}\n",
		"unknown field":    "products:\n  - {title: x, category: Books, price: 1, colour: red}\n",
	}
	for name, seed := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parseSeed(strings.NewReader(seed))
			assert.Error(t, err)
		})
	}
}
