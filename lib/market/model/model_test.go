package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	cases := map[string]Category{
		"Electronics":    CategoryElectronics,
		"electronics":    CategoryElectronics,
		"Home & Garden":  CategoryHomeGarden,
		"home-garden":    CategoryHomeGarden,
		"toys and games": CategoryToysGames,
		" other ":        CategoryOther,
	}
	for in, want := range cases {
		got, err := ParseCategory(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseCategory("Groceries")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Len(t, Categories, 9)
}

func TestErrorMatchesByCode(t *testing.T) {
	err := fmt.Errorf("update: %w", Errorf(CodeNotFound, "product %s not found", "42"))

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrForbidden)

	var merr *Error
	require.True(t, errors.As(err, &merr))
	assert.Equal(t, "product 42 not found", merr.Msg)
	assert.Equal(t, "NotFound", merr.Code.String())
}

func TestProductFieldsValidate(t *testing.T) {
	valid := ProductFields{Title: "Phone", Category: CategoryElectronics, Price: decimal.NewFromInt(10)}
	require.NoError(t, valid.Validate())

	free := valid
	free.Price = decimal.Zero
	assert.NoError(t, free.Validate())

	blank := valid
	blank.Title = "  "
	assert.ErrorIs(t, blank.Validate(), ErrInvalidInput)

	negative := valid
	negative.Price = decimal.NewFromInt(-1)
	assert.ErrorIs(t, negative.Validate(), ErrInvalidInput)

	unknown := valid
	unknown.Category = "Food"
	assert.ErrorIs(t, unknown.Validate(), ErrInvalidInput)
}

func TestProductPatchApply(t *testing.T) {
	p := Product{Title: "Old", Description: "desc", Category: CategoryBooks, Price: decimal.NewFromInt(5)}
	title := "New"
	price := decimal.RequireFromString("7.50")

	patch := ProductPatch{Title: &title, Price: &price}
	assert.False(t, patch.Empty())
	assert.True(t, ProductPatch{}.Empty())

	f := patch.Apply(p)
	assert.Equal(t, "New", f.Title)
	assert.Equal(t, "desc", f.Description)
	assert.Equal(t, CategoryBooks, f.Category)
	assert.True(t, price.Equal(f.Price))
}

func TestLinesTotal(t *testing.T) {
	lines := []CartLine{
		{Product: Product{Price: decimal.NewFromInt(10)}, Quantity: 2},
		{Product: Product{Price: decimal.NewFromInt(5)}, Quantity: 1},
	}
	assert.True(t, decimal.NewFromInt(25).Equal(LinesTotal(lines)))
	assert.Equal(t, 3, ItemCount(lines))
	assert.True(t, LinesTotal(nil).IsZero())
}

func TestAccountPublic(t *testing.T) {
	a := Account{ID: "1", PasswordHash: []byte("hash"), FirstName: "Ada", LastName: "Lovelace"}
	assert.Nil(t, a.Public().PasswordHash)
	assert.NotNil(t, a.PasswordHash)
	assert.Equal(t, "Ada Lovelace", a.FullName())
}

func TestPurchaseJSONLayout(t *testing.T) {
	p := Purchase{
		ID:     "p1",
		UserID: "u1",
		Lines:  []CartLine{{Product: Product{ID: "x"}, Quantity: 2}},
		Total:  decimal.NewFromInt(10),
	}
	raw, err := json.Marshal(p)
	require.NoError(t, err)

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Contains(t, fields, "products")
	assert.NotContains(t, fields, "items")
	assert.Contains(t, fields, "userId")
}
