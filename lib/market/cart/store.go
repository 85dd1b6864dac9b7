package cart

import (
	"fmt"
	"sync"
	"time"

	"github.com/ValentinKolb/kvmarket/lib/market/codec"
	"github.com/ValentinKolb/kvmarket/lib/market/model"
	"github.com/ValentinKolb/kvmarket/lib/store"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/shopspring/decimal"
)

var log = logger.GetLogger("cart")

// CartKey returns the key of the cart of an account
func CartKey(accountID string) string {
	return "cart:" + accountID
}

// PurchasesKey returns the key of the purchase history of an account
func PurchasesKey(accountID string) string {
	return "purchases:" + accountID
}

// ActiveAccount provides the id of the logged in account
type ActiveAccount interface {
	ActiveAccountID() (id string, ok bool, err error)
}

// Store owns the carts and purchase histories. All operations act on the account
// reported by the ActiveAccount provider; without an active account reads are empty
// and writes are no-ops.
type Store struct {
	kv      store.IStore
	codec   codec.ICodec
	session ActiveAccount

	// mu guards the read-modify-write of carts and histories
	mu sync.Mutex

	now func() time.Time
}

// New creates a cart store on top of kv
func New(kv store.IStore, c codec.ICodec, session ActiveAccount) *Store {
	return &Store{
		kv:      kv,
		codec:   c,
		session: session,
		now:     time.Now,
	}
}

// --------------------------------------------------------------------------
// Cart
// --------------------------------------------------------------------------

// Lines returns the cart of the active account
func (s *Store) Lines() ([]model.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok, err := s.session.ActiveAccountID()
	if err != nil || !ok {
		return nil, err
	}
	return s.loadCart(id)
}

// AddToCart increments the quantity of the line for product, or appends a new line
// with quantity 1. The existing line keeps the product snapshot taken when it was added.
func (s *Store) AddToCart(product model.Product) error {
	return s.mutateCart(func(lines []model.CartLine) []model.CartLine {
		for i := range lines {
			if lines[i].Product.ID == product.ID {
				lines[i].Quantity++
				return lines
			}
		}
		return append(lines, model.CartLine{Product: product, Quantity: 1})
	})
}

// RemoveFromCart deletes the line for productID if present
func (s *Store) RemoveFromCart(productID string) error {
	return s.mutateCart(func(lines []model.CartLine) []model.CartLine {
		return removeLine(lines, productID)
	})
}

// UpdateQuantity sets the quantity of a line. A quantity <= 0 removes the line.
func (s *Store) UpdateQuantity(productID string, quantity int) error {
	return s.mutateCart(func(lines []model.CartLine) []model.CartLine {
		if quantity <= 0 {
			return removeLine(lines, productID)
		}
		for i := range lines {
			if lines[i].Product.ID == productID {
				lines[i].Quantity = quantity
			}
		}
		return lines
	})
}

// ClearCart empties the cart of the active account
func (s *Store) ClearCart() error {
	return s.mutateCart(func([]model.CartLine) []model.CartLine {
		return nil
	})
}

// Total sums price times quantity over the cart
func (s *Store) Total() (decimal.Decimal, error) {
	lines, err := s.Lines()
	if err != nil {
		return decimal.Zero, err
	}
	return model.LinesTotal(lines), nil
}

// --------------------------------------------------------------------------
// Checkout
// --------------------------------------------------------------------------

// Checkout turns the whole cart into one purchase and empties the cart.
// ok is false (and nothing is written) when the cart is empty or no account is active.
func (s *Store) Checkout() (purchase model.Purchase, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, active, err := s.session.ActiveAccountID()
	if err != nil || !active {
		return model.Purchase{}, false, err
	}
	lines, err := s.loadCart(id)
	if err != nil {
		return model.Purchase{}, false, err
	}
	if len(lines) == 0 {
		return model.Purchase{}, false, nil
	}

	history, err := s.loadPurchases(id)
	if err != nil {
		return model.Purchase{}, false, err
	}

	purchase = model.Purchase{
		ID:     model.NewID(),
		UserID: id,
		Lines:  lines,
		Total:  model.LinesTotal(lines),
		Date:   s.now().UTC(),
	}

	// history is written before the cart is emptied
	if err := s.save(PurchasesKey(id), append(history, purchase), "purchases"); err != nil {
		return model.Purchase{}, false, err
	}
	if err := s.saveCart(id, nil); err != nil {
		return model.Purchase{}, false, err
	}

	log.Infof("checkout %s by %s: %d lines, total %s", purchase.ID, id, len(lines), purchase.Total.StringFixed(2))
	return purchase, true, nil
}

// Purchases returns the purchase history of the active account, oldest first
func (s *Store) Purchases() ([]model.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok, err := s.session.ActiveAccountID()
	if err != nil || !ok {
		return nil, err
	}
	return s.loadPurchases(id)
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// mutateCart loads the cart of the active account, applies fn and stores the result.
// Without an active account nothing happens.
func (s *Store) mutateCart(fn func([]model.CartLine) []model.CartLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok, err := s.session.ActiveAccountID()
	if err != nil {
		return err
	}
	if !ok {
		log.Debugf("cart change without active account ignored")
		return nil
	}
	lines, err := s.loadCart(id)
	if err != nil {
		return err
	}
	return s.saveCart(id, fn(lines))
}

func removeLine(lines []model.CartLine, productID string) []model.CartLine {
	kept := lines[:0]
	for _, l := range lines {
		if l.Product.ID != productID {
			kept = append(kept, l)
		}
	}
	return kept
}

func (s *Store) loadCart(accountID string) ([]model.CartLine, error) {
	var lines []model.CartLine
	if err := s.load(CartKey(accountID), &lines, "cart"); err != nil {
		return nil, err
	}
	return lines, nil
}

// saveCart stores the lines. An empty cart is stored as a missing key.
func (s *Store) saveCart(accountID string, lines []model.CartLine) error {
	if len(lines) == 0 {
		if err := s.kv.Delete(CartKey(accountID)); err != nil {
			return fmt.Errorf("writing cart: %w", err)
		}
		return nil
	}
	return s.save(CartKey(accountID), lines, "cart")
}

func (s *Store) loadPurchases(accountID string) ([]model.Purchase, error) {
	var history []model.Purchase
	if err := s.load(PurchasesKey(accountID), &history, "purchases"); err != nil {
		return nil, err
	}
	return history, nil
}

func (s *Store) load(key string, v any, what string) error {
	raw, ok, err := s.kv.Get(key)
	if err != nil {
		return fmt.Errorf("reading %s: %w", what, err)
	}
	if !ok {
		return nil
	}
	if err := s.codec.Decode(raw, v); err != nil {
		return fmt.Errorf("decoding %s: %w", what, err)
	}
	return nil
}

func (s *Store) save(key string, v any, what string) error {
	raw, err := s.codec.Encode(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", what, err)
	}
	if err := s.kv.Set(key, raw); err != nil {
		return fmt.Errorf("writing %s: %w", what, err)
	}
	return nil
}
