package catalog

import (
	"testing"
	"time"

	"github.com/ValentinKolb/kvmarket/lib/db"
	"github.com/ValentinKolb/kvmarket/lib/db/engines/maple"
	"github.com/ValentinKolb/kvmarket/lib/market/codec"
	"github.com/ValentinKolb/kvmarket/lib/market/model"
	"github.com/ValentinKolb/kvmarket/lib/store/lstore"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore() *Store {
	kv := lstore.NewLocalStore(func() db.KVDB { return maple.NewMapleDB(nil) })
	return New(kv, codec.NewJSONCodec())
}

func fields(title string, category model.Category, price int64) model.ProductFields {
	return model.ProductFields{
		Title:       title,
		Description: title + " description",
		Category:    category,
		Price:       decimal.NewFromInt(price),
	}
}

func TestCreateAndList(t *testing.T) {
	s := newStore()

	a, err := s.Create(fields("Phone", model.CategoryElectronics, 100), "u1", "ada")
	require.NoError(t, err)
	b, err := s.Create(fields("Chair", model.CategoryFurniture, 40), "u2", "bob")
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, "ada", a.SellerUsername)
	assert.Equal(t, a.CreatedAt, a.UpdatedAt)

	products, err := s.List()
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, a.ID, products[0].ID)
	assert.Equal(t, b.ID, products[1].ID)

	got, err := s.Get(b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Chair", got.Title)

	_, err = s.Get("missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestCreateValidation(t *testing.T) {
	s := newStore()

	_, err := s.Create(fields(" ", model.CategoryBooks, 1), "u1", "ada")
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	_, err = s.Create(fields("Book", "Food", 1), "u1", "ada")
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	_, err = s.Create(fields("Book", model.CategoryBooks, -1), "u1", "ada")
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	_, err = s.Create(fields("Book", model.CategoryBooks, 1), "", "")
	assert.ErrorIs(t, err, model.ErrNotAuthenticated)

	products, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestListByUser(t *testing.T) {
	s := newStore()
	var ada []string
	for i, seller := range []string{"u1", "u2", "u1", "u3", "u1"} {
		p, err := s.Create(fields("Item", model.CategoryOther, int64(i)), seller, seller)
		require.NoError(t, err)
		if seller == "u1" {
			ada = append(ada, p.ID)
		}
	}

	own, err := s.ListByUser("u1")
	require.NoError(t, err)
	require.Len(t, own, 3)
	for i, p := range own {
		assert.Equal(t, ada[i], p.ID, "insertion order is preserved")
		assert.Equal(t, "u1", p.SellerID)
	}

	none, err := s.ListByUser("nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUpdate(t *testing.T) {
	s := newStore()
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return created }

	p, err := s.Create(fields("Phone", model.CategoryElectronics, 100), "u1", "ada")
	require.NoError(t, err)

	s.now = func() time.Time { return created.Add(time.Hour) }
	price := decimal.RequireFromString("89.90")
	updated, err := s.Update("u1", p.ID, model.ProductPatch{Price: &price})
	require.NoError(t, err)
	assert.True(t, price.Equal(updated.Price))
	assert.Equal(t, "Phone", updated.Title)
	assert.True(t, created.Equal(updated.CreatedAt))
	assert.True(t, created.Add(time.Hour).Equal(updated.UpdatedAt))

	stored, err := s.Get(p.ID)
	require.NoError(t, err)
	assert.True(t, price.Equal(stored.Price))

	_, err = s.Update("u1", "missing", model.ProductPatch{Price: &price})
	assert.ErrorIs(t, err, model.ErrNotFound)

	negative := decimal.NewFromInt(-5)
	_, err = s.Update("u1", p.ID, model.ProductPatch{Price: &negative})
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestOwnership(t *testing.T) {
	s := newStore()
	p, err := s.Create(fields("Phone", model.CategoryElectronics, 100), "u1", "ada")
	require.NoError(t, err)

	title := "Stolen"
	_, err = s.Update("u2", p.ID, model.ProductPatch{Title: &title})
	assert.ErrorIs(t, err, model.ErrForbidden)

	err = s.Delete("u2", p.ID)
	assert.ErrorIs(t, err, model.ErrForbidden)

	stored, err := s.Get(p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Phone", stored.Title)
}

func TestDelete(t *testing.T) {
	s := newStore()
	a, err := s.Create(fields("A", model.CategoryBooks, 1), "u1", "ada")
	require.NoError(t, err)
	b, err := s.Create(fields("B", model.CategoryBooks, 2), "u1", "ada")
	require.NoError(t, err)

	require.NoError(t, s.Delete("u1", a.ID))

	products, err := s.List()
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, b.ID, products[0].ID)
}

func TestDeleteMissingIsNoop(t *testing.T) {
	s := newStore()
	_, err := s.Create(fields("A", model.CategoryBooks, 1), "u1", "ada")
	require.NoError(t, err)

	before, err := s.List()
	require.NoError(t, err)

	require.NoError(t, s.Delete("u1", "does-not-exist"))

	after, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}
