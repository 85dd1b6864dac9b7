package market

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/ValentinKolb/kvmarket/lib/db"
	"github.com/ValentinKolb/kvmarket/lib/db/engines/maple"
	"github.com/ValentinKolb/kvmarket/lib/market/catalog"
	"github.com/ValentinKolb/kvmarket/lib/market/codec"
	"github.com/ValentinKolb/kvmarket/lib/market/model"
	"github.com/ValentinKolb/kvmarket/lib/market/session"
	"github.com/ValentinKolb/kvmarket/lib/store"
	"github.com/ValentinKolb/kvmarket/lib/store/fstore"
	"github.com/ValentinKolb/kvmarket/lib/store/lstore"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func mapleFactory() db.KVDB {
	return maple.NewMapleDB(nil)
}

func newMarket(t *testing.T, c codec.ICodec) *Marketplace {
	t.Helper()
	m := New(lstore.NewLocalStore(mapleFactory), c, session.WithBcryptCost(bcrypt.MinCost))
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func openFileMarket(t *testing.T, path string) *Marketplace {
	t.Helper()
	kv, err := fstore.NewFileStore(mapleFactory, fstore.Options{Path: path, Registry: gometrics.NewRegistry()})
	require.NoError(t, err)
	return New(kv, codec.NewJSONCodec(), session.WithBcryptCost(bcrypt.MinCost))
}

func register(t *testing.T, m *Marketplace, name string) model.Account {
	t.Helper()
	a, err := m.Register(name+"@example.com", "secret1", name)
	require.NoError(t, err)
	return a
}

func listing(t *testing.T, m *Marketplace, title string, category model.Category, price string) model.Product {
	t.Helper()
	p, err := m.CreateProduct(model.ProductFields{
		Title:       title,
		Description: title + " for sale",
		Category:    category,
		Price:       decimal.RequireFromString(price),
	})
	require.NoError(t, err)
	return p
}

func TestLoginRequired(t *testing.T) {
	m := newMarket(t, codec.NewJSONCodec())

	_, err := m.CreateProduct(model.ProductFields{Title: "x", Category: model.CategoryOther})
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.ErrorIs(t, m.AddToCart("any"), ErrNotAuthenticated)
	assert.ErrorIs(t, m.ClearCart(), ErrNotAuthenticated)
	_, _, err = m.Checkout()
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	_, err = m.Dashboard()
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	_, err = m.MyProducts()
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	// browsing needs no account
	products, err := m.Products(catalog.Query{})
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestCannotBuyOwnProduct(t *testing.T) {
	m := newMarket(t, codec.NewJSONCodec())
	register(t, m, "ada")
	p := listing(t, m, "Phone", model.CategoryElectronics, "100")

	assert.ErrorIs(t, m.AddToCart(p.ID), ErrOwnProduct)

	lines, _, err := m.Cart()
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestAddUnknownProduct(t *testing.T) {
	m := newMarket(t, codec.NewJSONCodec())
	register(t, m, "ada")
	assert.ErrorIs(t, m.AddToCart("missing"), ErrNotFound)
}

func TestShoppingFlow(t *testing.T) {
	for _, c := range []codec.ICodec{codec.NewJSONCodec(), codec.NewGOBCodec()} {
		t.Run(string(c.Name()), func(t *testing.T) {
			m := newMarket(t, c)

			register(t, m, "seller")
			lamp := listing(t, m, "Lamp", model.CategoryHomeGarden, "10")
			book := listing(t, m, "Book", model.CategoryBooks, "5")
			require.NoError(t, m.Logout())

			register(t, m, "buyer")
			require.NoError(t, m.AddToCart(lamp.ID))
			require.NoError(t, m.AddToCart(lamp.ID))
			require.NoError(t, m.AddToCart(book.ID))

			lines, total, err := m.Cart()
			require.NoError(t, err)
			assert.Len(t, lines, 2)
			assert.True(t, decimal.NewFromInt(25).Equal(total), total.String())

			purchase, ok, err := m.Checkout()
			require.NoError(t, err)
			require.True(t, ok)
			assert.True(t, decimal.NewFromInt(25).Equal(purchase.Total))

			_, ok, err = m.Checkout()
			require.NoError(t, err)
			assert.False(t, ok)

			history, err := m.Purchases()
			require.NoError(t, err)
			require.Len(t, history, 1)

			d, err := m.Dashboard()
			require.NoError(t, err)
			assert.Equal(t, "buyer", d.Account.Username)
			assert.Equal(t, 0, d.Listings)
			assert.Equal(t, 1, d.Purchases)
			assert.Equal(t, 3, d.ItemsBought)
			assert.True(t, decimal.NewFromInt(25).Equal(d.TotalSpent))
			assert.Equal(t, 0, d.CartLines)
		})
	}
}

func TestOwnershipThroughMarketplace(t *testing.T) {
	m := newMarket(t, codec.NewJSONCodec())
	register(t, m, "ada")
	p := listing(t, m, "Phone", model.CategoryElectronics, "100")
	require.NoError(t, m.Logout())

	register(t, m, "mallory")
	title := "mine now"
	_, err := m.UpdateProduct(p.ID, model.ProductPatch{Title: &title})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, m.DeleteProduct(p.ID), ErrForbidden)
	assert.NoError(t, m.DeleteProduct("missing"))

	_, err = m.Login("ada@example.com", "secret1")
	require.NoError(t, err)
	updated, err := m.UpdateProduct(p.ID, model.ProductPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "mine now", updated.Title)
	require.NoError(t, m.DeleteProduct(p.ID))

	_, err = m.Product(p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProfileChangeKeepsSellerUsername(t *testing.T) {
	m := newMarket(t, codec.NewJSONCodec())
	register(t, m, "ada")
	p := listing(t, m, "Phone", model.CategoryElectronics, "100")

	name := "countess"
	_, err := m.UpdateProfile(model.ProfilePatch{Username: &name})
	require.NoError(t, err)

	stored, err := m.Product(p.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada", stored.SellerUsername)

	// new listings use the new name
	q := listing(t, m, "Tablet", model.CategoryElectronics, "200")
	assert.Equal(t, "countess", q.SellerUsername)
}

func TestSessionSwapShowsOtherCart(t *testing.T) {
	m := newMarket(t, codec.NewJSONCodec())
	register(t, m, "seller")
	p := listing(t, m, "Phone", model.CategoryElectronics, "100")
	require.NoError(t, m.Logout())

	register(t, m, "alice")
	require.NoError(t, m.AddToCart(p.ID))
	require.NoError(t, m.Logout())

	register(t, m, "bob")
	lines, _, err := m.Cart()
	require.NoError(t, err)
	assert.Empty(t, lines)

	_, err = m.Login("alice@example.com", "secret1")
	require.NoError(t, err)
	lines, _, err = m.Cart()
	require.NoError(t, err)
	assert.Len(t, lines, 1)
}

func TestBrowseFilter(t *testing.T) {
	m := newMarket(t, codec.NewJSONCodec())
	register(t, m, "ada")
	phone := listing(t, m, "Smartphone", model.CategoryElectronics, "300")
	listing(t, m, "Phone stand", model.CategoryFurniture, "15")
	listing(t, m, "Laptop", model.CategoryElectronics, "900")

	products, err := m.Products(catalog.Query{Search: "PHONE", Category: model.CategoryElectronics})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, phone.ID, products[0].ID)

	mine, err := m.MyProducts()
	require.NoError(t, err)
	assert.Len(t, mine, 3)
}

func TestStateSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "market.db")

	m := openFileMarket(t, path)
	register(t, m, "seller")
	p := listing(t, m, "Phone", model.CategoryElectronics, "99.95")
	require.NoError(t, m.Logout())
	register(t, m, "buyer")
	require.NoError(t, m.AddToCart(p.ID))
	require.NoError(t, m.Close())

	reopened := openFileMarket(t, path)
	t.Cleanup(func() { _ = reopened.Close() })

	current, ok, err := reopened.CurrentAccount()
	require.NoError(t, err)
	require.True(t, ok, "session is persisted")
	assert.Equal(t, "buyer", current.Username)

	lines, total, err := reopened.Cart()
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.True(t, decimal.RequireFromString("99.95").Equal(total))

	products, err := reopened.Products(catalog.Query{})
	require.NoError(t, err)
	assert.Len(t, products, 1)
}

// failingStore refuses every write like a full disk would
type failingStore struct {
	store.IStore
}

func (f failingStore) Set(string, []byte) error {
	return store.NewError(store.RetCPersistenceError, "disk full")
}

func TestStorageErrorsKeepStoreError(t *testing.T) {
	m := New(failingStore{lstore.NewLocalStore(mapleFactory)}, codec.NewJSONCodec(), session.WithBcryptCost(bcrypt.MinCost))

	_, err := m.Register("ada@example.com", "secret1", "ada")
	require.Error(t, err)

	var storeErr *store.Error
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, store.RetCPersistenceError, storeErr.Code)
}

func TestCorruptCollection(t *testing.T) {
	kv := lstore.NewLocalStore(mapleFactory)
	require.NoError(t, kv.Set("products", []byte("not json")))
	m := New(kv, codec.NewJSONCodec())

	_, err := m.Products(catalog.Query{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding products")
}

func TestWriteMetrics(t *testing.T) {
	m := newMarket(t, codec.NewJSONCodec())
	register(t, m, "ada")
	_, err := m.Register("ada@example.com", "secret1", "ada")
	require.Error(t, err)

	var buf bytes.Buffer
	m.WriteMetrics(&buf)
	out := buf.String()

	assert.Contains(t, out, `kvmarket_operations_total{op="register"} 2`)
	assert.Contains(t, out, `kvmarket_operation_errors_total{op="register"} 1`)
	assert.Contains(t, out, "kvmarket_store_keys")
}
