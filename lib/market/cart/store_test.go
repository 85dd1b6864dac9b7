package cart

import (
	"testing"

	"github.com/ValentinKolb/kvmarket/lib/db"
	"github.com/ValentinKolb/kvmarket/lib/db/engines/maple"
	"github.com/ValentinKolb/kvmarket/lib/market/codec"
	"github.com/ValentinKolb/kvmarket/lib/market/model"
	"github.com/ValentinKolb/kvmarket/lib/store"
	"github.com/ValentinKolb/kvmarket/lib/store/lstore"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSession is a settable ActiveAccount
type fakeSession struct {
	id string
}

func (f *fakeSession) ActiveAccountID() (string, bool, error) {
	return f.id, f.id != "", nil
}

func newStore(t *testing.T, c codec.ICodec) (*Store, *fakeSession, store.IStore) {
	t.Helper()
	kv := lstore.NewLocalStore(func() db.KVDB { return maple.NewMapleDB(nil) })
	session := &fakeSession{id: "buyer"}
	return New(kv, c, session), session, kv
}

func product(id string, price int64) model.Product {
	return model.Product{ID: id, Title: "Product " + id, Price: decimal.NewFromInt(price), SellerID: "seller"}
}

func TestAddToCartTwiceIncrementsQuantity(t *testing.T) {
	s, _, _ := newStore(t, codec.NewJSONCodec())
	p := product("p1", 10)

	require.NoError(t, s.AddToCart(p))
	require.NoError(t, s.AddToCart(p))

	lines, err := s.Lines()
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
}

func TestLineOrderIsInsertionOrder(t *testing.T) {
	s, _, _ := newStore(t, codec.NewJSONCodec())
	for _, id := range []string{"c", "a", "b", "a"} {
		require.NoError(t, s.AddToCart(product(id, 1)))
	}

	lines, err := s.Lines()
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, "c", lines[0].Product.ID)
	assert.Equal(t, "a", lines[1].Product.ID)
	assert.Equal(t, 2, lines[1].Quantity)
	assert.Equal(t, "b", lines[2].Product.ID)
}

func TestUpdateQuantity(t *testing.T) {
	s, _, _ := newStore(t, codec.NewJSONCodec())
	require.NoError(t, s.AddToCart(product("p1", 10)))
	require.NoError(t, s.AddToCart(product("p2", 5)))

	require.NoError(t, s.UpdateQuantity("p1", 4))
	total, err := s.Total()
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(45).Equal(total), total.String())

	require.NoError(t, s.UpdateQuantity("p1", 0))
	lines, err := s.Lines()
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "p2", lines[0].Product.ID)

	total, err = s.Total()
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(5).Equal(total), "removed line must not count")

	require.NoError(t, s.UpdateQuantity("p2", -3))
	lines, err = s.Lines()
	require.NoError(t, err)
	assert.Empty(t, lines)

	// unknown product: nothing to update
	require.NoError(t, s.UpdateQuantity("nope", 3))
	lines, err = s.Lines()
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestRemoveAndClear(t *testing.T) {
	s, _, kv := newStore(t, codec.NewJSONCodec())
	require.NoError(t, s.AddToCart(product("p1", 10)))
	require.NoError(t, s.AddToCart(product("p2", 5)))

	require.NoError(t, s.RemoveFromCart("p1"))
	require.NoError(t, s.RemoveFromCart("missing"))
	lines, err := s.Lines()
	require.NoError(t, err)
	require.Len(t, lines, 1)

	require.NoError(t, s.ClearCart())
	lines, err = s.Lines()
	require.NoError(t, err)
	assert.Empty(t, lines)

	has, err := kv.Has(CartKey("buyer"))
	require.NoError(t, err)
	assert.False(t, has)
}

func TestCheckout(t *testing.T) {
	for _, c := range []codec.ICodec{codec.NewJSONCodec(), codec.NewGOBCodec()} {
		t.Run(string(c.Name()), func(t *testing.T) {
			s, _, _ := newStore(t, c)
			p1 := product("p1", 10)
			require.NoError(t, s.AddToCart(p1))
			require.NoError(t, s.AddToCart(p1))
			require.NoError(t, s.AddToCart(product("p2", 5)))

			purchase, ok, err := s.Checkout()
			require.NoError(t, err)
			require.True(t, ok)
			assert.True(t, decimal.NewFromInt(25).Equal(purchase.Total), purchase.Total.String())
			assert.Equal(t, "buyer", purchase.UserID)
			assert.Len(t, purchase.Lines, 2)
			assert.NotEmpty(t, purchase.ID)

			lines, err := s.Lines()
			require.NoError(t, err)
			assert.Empty(t, lines, "checkout empties the cart")

			_, ok, err = s.Checkout()
			require.NoError(t, err)
			assert.False(t, ok, "second checkout is a no-op")

			history, err := s.Purchases()
			require.NoError(t, err)
			require.Len(t, history, 1)
			assert.Equal(t, purchase.ID, history[0].ID)
			assert.True(t, purchase.Total.Equal(history[0].Total))
		})
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	s, _, _ := newStore(t, codec.NewJSONCodec())

	_, ok, err := s.Checkout()
	require.NoError(t, err)
	assert.False(t, ok)

	history, err := s.Purchases()
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestWithoutSession(t *testing.T) {
	s, session, kv := newStore(t, codec.NewJSONCodec())
	session.id = ""

	require.NoError(t, s.AddToCart(product("p1", 10)))
	lines, err := s.Lines()
	require.NoError(t, err)
	assert.Empty(t, lines)

	_, ok, err := s.Checkout()
	require.NoError(t, err)
	assert.False(t, ok)

	info, err := kv.GetDBInfo()
	require.NoError(t, err)
	assert.Equal(t, 0, info.Keys, "nothing is written without a session")
}

func TestSessionSwapSwitchesCart(t *testing.T) {
	s, session, _ := newStore(t, codec.NewJSONCodec())

	require.NoError(t, s.AddToCart(product("p1", 10)))
	_, ok, err := s.Checkout()
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, s.AddToCart(product("p2", 3)))

	session.id = "other"
	lines, err := s.Lines()
	require.NoError(t, err)
	assert.Empty(t, lines)
	history, err := s.Purchases()
	require.NoError(t, err)
	assert.Empty(t, history)

	require.NoError(t, s.AddToCart(product("p3", 7)))

	session.id = "buyer"
	lines, err = s.Lines()
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "p2", lines[0].Product.ID)
	history, err = s.Purchases()
	require.NoError(t, err)
	assert.Len(t, history, 1)
}
