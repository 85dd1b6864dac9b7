// Package market is the application context of kvmarket. A Marketplace owns the three
// stores of the system on top of a single store.IStore:
//
//   - session.Store: account registry and the active session
//   - catalog.Store: the global product catalog
//   - cart.Store: per-account carts and purchase histories
//
// The stores can be used on their own. The Marketplace adds the rules that span them
// (a login is required to sell or buy, a seller cannot buy their own product), the
// dashboard summary, and operation metrics in a VictoriaMetrics set.
//
// Usage Example:
//
//	kv := lstore.NewLocalStore(func() db.KVDB { return maple.NewMapleDB(nil) })
//	m := market.New(kv, codec.NewJSONCodec())
//	defer m.Close()
//
//	_, err := m.Register("ada@example.com", "secret1", "ada")
//	phone, err := m.CreateProduct(model.ProductFields{
//		Title:    "Phone",
//		Category: model.CategoryElectronics,
//		Price:    decimal.RequireFromString("199.00"),
//	})
//
// All errors returned for rule violations are *market.Error values; storage failures
// keep their *store.Error in the wrapped chain.
package market
