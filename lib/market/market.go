package market

import (
	"fmt"
	"io"
	"time"

	"github.com/ValentinKolb/kvmarket/lib/db"
	"github.com/ValentinKolb/kvmarket/lib/market/cart"
	"github.com/ValentinKolb/kvmarket/lib/market/catalog"
	"github.com/ValentinKolb/kvmarket/lib/market/codec"
	"github.com/ValentinKolb/kvmarket/lib/market/model"
	"github.com/ValentinKolb/kvmarket/lib/market/session"
	"github.com/ValentinKolb/kvmarket/lib/store"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/shopspring/decimal"
)

var log = logger.GetLogger("market")

// Marketplace is the application context. It owns the session, catalog and cart stores
// on top of one key-value store and enforces the rules that span stores: a login is
// needed to sell or buy, and nobody can buy their own product.
type Marketplace struct {
	kv    store.IStore
	codec codec.ICodec

	Sessions *session.Store
	Catalog  *catalog.Store
	Carts    *cart.Store

	metrics *metrics.Set
}

// New wires the stores of a marketplace. The key-value store is closed by Close.
func New(kv store.IStore, c codec.ICodec, opts ...session.Option) *Marketplace {
	sessions := session.New(kv, c, opts...)
	m := &Marketplace{
		kv:       kv,
		codec:    c,
		Sessions: sessions,
		Catalog:  catalog.New(kv, c),
		Carts:    cart.New(kv, c, sessions),
		metrics:  metrics.NewSet(),
	}
	m.metrics.NewGauge("kvmarket_store_keys", func() float64 {
		info, err := kv.GetDBInfo()
		if err != nil {
			return 0
		}
		return float64(info.Keys)
	})
	m.metrics.NewGauge("kvmarket_store_size_bytes", func() float64 {
		info, err := kv.GetDBInfo()
		if err != nil {
			return 0
		}
		return float64(info.SizeBytes)
	})
	m.metrics.NewGauge("kvmarket_accounts", func() float64 {
		accounts, err := m.Sessions.Accounts()
		if err != nil {
			return 0
		}
		return float64(len(accounts))
	})
	m.metrics.NewGauge("kvmarket_products", func() float64 {
		products, err := m.Catalog.List()
		if err != nil {
			return 0
		}
		return float64(len(products))
	})
	return m
}

// Close releases the key-value store
func (m *Marketplace) Close() error {
	return m.kv.Close()
}

// Codec returns the codec used for all collections
func (m *Marketplace) Codec() codec.ICodec {
	return m.codec
}

// StoreInfo returns information about the underlying database
func (m *Marketplace) StoreInfo() (db.DatabaseInfo, error) {
	return m.kv.GetDBInfo()
}

// --------------------------------------------------------------------------
// Accounts
// --------------------------------------------------------------------------

func (m *Marketplace) Register(email, password, username string) (model.Account, error) {
	defer m.track("register", time.Now())
	a, err := m.Sessions.Register(email, password, username)
	return a, m.result("register", err)
}

func (m *Marketplace) Login(email, password string) (model.Account, error) {
	defer m.track("login", time.Now())
	a, err := m.Sessions.Login(email, password)
	return a, m.result("login", err)
}

func (m *Marketplace) Logout() error {
	defer m.track("logout", time.Now())
	return m.result("logout", m.Sessions.Logout())
}

// CurrentAccount returns the logged in account, the boolean is false without a session
func (m *Marketplace) CurrentAccount() (model.Account, bool, error) {
	return m.Sessions.Current()
}

func (m *Marketplace) UpdateProfile(patch model.ProfilePatch) (model.Account, error) {
	defer m.track("update_profile", time.Now())
	a, err := m.Sessions.UpdateProfile(patch)
	return a, m.result("update_profile", err)
}

// --------------------------------------------------------------------------
// Catalog
// --------------------------------------------------------------------------

// Products returns the catalog filtered by q
func (m *Marketplace) Products(q catalog.Query) ([]model.Product, error) {
	defer m.track("list_products", time.Now())
	products, err := m.Catalog.List()
	if err != nil {
		return nil, m.result("list_products", err)
	}
	return catalog.Filter(products, q), nil
}

// Product returns a single product
func (m *Marketplace) Product(id string) (model.Product, error) {
	p, err := m.Catalog.Get(id)
	return p, m.result("get_product", err)
}

// MyProducts returns the listings of the logged in account
func (m *Marketplace) MyProducts() ([]model.Product, error) {
	account, err := m.requireAccount()
	if err != nil {
		return nil, err
	}
	return m.Catalog.ListByUser(account.ID)
}

// CreateProduct lists a new product for the logged in account
func (m *Marketplace) CreateProduct(fields model.ProductFields) (model.Product, error) {
	defer m.track("create_product", time.Now())
	account, err := m.requireAccount()
	if err != nil {
		return model.Product{}, m.result("create_product", err)
	}
	p, err := m.Catalog.Create(fields, account.ID, account.Username)
	return p, m.result("create_product", err)
}

func (m *Marketplace) UpdateProduct(id string, patch model.ProductPatch) (model.Product, error) {
	defer m.track("update_product", time.Now())
	account, err := m.requireAccount()
	if err != nil {
		return model.Product{}, m.result("update_product", err)
	}
	p, err := m.Catalog.Update(account.ID, id, patch)
	return p, m.result("update_product", err)
}

func (m *Marketplace) DeleteProduct(id string) error {
	defer m.track("delete_product", time.Now())
	account, err := m.requireAccount()
	if err != nil {
		return m.result("delete_product", err)
	}
	return m.result("delete_product", m.Catalog.Delete(account.ID, id))
}

// --------------------------------------------------------------------------
// Cart and checkout
// --------------------------------------------------------------------------

// Cart returns the lines and the total of the logged in account's cart
func (m *Marketplace) Cart() ([]model.CartLine, decimal.Decimal, error) {
	if _, err := m.requireAccount(); err != nil {
		return nil, decimal.Zero, err
	}
	lines, err := m.Carts.Lines()
	if err != nil {
		return nil, decimal.Zero, err
	}
	return lines, model.LinesTotal(lines), nil
}

// AddToCart adds one unit of a catalog product to the cart
func (m *Marketplace) AddToCart(productID string) error {
	defer m.track("add_to_cart", time.Now())
	account, err := m.requireAccount()
	if err != nil {
		return m.result("add_to_cart", err)
	}
	p, err := m.Catalog.Get(productID)
	if err != nil {
		return m.result("add_to_cart", err)
	}
	if p.SellerID == account.ID {
		return m.result("add_to_cart", ErrOwnProduct)
	}
	return m.result("add_to_cart", m.Carts.AddToCart(p))
}

func (m *Marketplace) RemoveFromCart(productID string) error {
	defer m.track("remove_from_cart", time.Now())
	if _, err := m.requireAccount(); err != nil {
		return m.result("remove_from_cart", err)
	}
	return m.result("remove_from_cart", m.Carts.RemoveFromCart(productID))
}

func (m *Marketplace) UpdateQuantity(productID string, quantity int) error {
	defer m.track("update_quantity", time.Now())
	if _, err := m.requireAccount(); err != nil {
		return m.result("update_quantity", err)
	}
	return m.result("update_quantity", m.Carts.UpdateQuantity(productID, quantity))
}

func (m *Marketplace) ClearCart() error {
	defer m.track("clear_cart", time.Now())
	if _, err := m.requireAccount(); err != nil {
		return m.result("clear_cart", err)
	}
	return m.result("clear_cart", m.Carts.ClearCart())
}

// Checkout converts the cart into a purchase. ok is false for an empty cart.
func (m *Marketplace) Checkout() (model.Purchase, bool, error) {
	defer m.track("checkout", time.Now())
	if _, err := m.requireAccount(); err != nil {
		return model.Purchase{}, false, m.result("checkout", err)
	}
	p, ok, err := m.Carts.Checkout()
	if ok {
		m.metrics.GetOrCreateCounter("kvmarket_checkout_items_total").Add(model.ItemCount(p.Lines))
		m.metrics.GetOrCreateFloatCounter("kvmarket_checkout_revenue_total").Add(p.Total.InexactFloat64())
	}
	return p, ok, m.result("checkout", err)
}

// Purchases returns the purchase history of the logged in account, oldest first
func (m *Marketplace) Purchases() ([]model.Purchase, error) {
	if _, err := m.requireAccount(); err != nil {
		return nil, err
	}
	return m.Carts.Purchases()
}

// --------------------------------------------------------------------------
// Metrics
// --------------------------------------------------------------------------

// WriteMetrics writes all operation metrics in Prometheus text format
func (m *Marketplace) WriteMetrics(w io.Writer) {
	m.metrics.WritePrometheus(w)
}

// track records the duration of an operation
func (m *Marketplace) track(op string, start time.Time) {
	m.metrics.GetOrCreateHistogram(fmt.Sprintf(`kvmarket_operation_duration_seconds{op=%q}`, op)).UpdateDuration(start)
}

// result counts the outcome of an operation and passes err through
func (m *Marketplace) result(op string, err error) error {
	m.metrics.GetOrCreateCounter(fmt.Sprintf(`kvmarket_operations_total{op=%q}`, op)).Inc()
	if err != nil {
		m.metrics.GetOrCreateCounter(fmt.Sprintf(`kvmarket_operation_errors_total{op=%q}`, op)).Inc()
		log.Debugf("%s failed: %v", op, err)
	}
	return err
}

// requireAccount returns the logged in account or ErrNotAuthenticated
func (m *Marketplace) requireAccount() (model.Account, error) {
	account, ok, err := m.Sessions.Current()
	if err != nil {
		return model.Account{}, err
	}
	if !ok {
		return model.Account{}, ErrNotAuthenticated
	}
	return account, nil
}
