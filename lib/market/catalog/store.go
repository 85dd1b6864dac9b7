package catalog

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ValentinKolb/kvmarket/lib/market/codec"
	"github.com/ValentinKolb/kvmarket/lib/market/model"
	"github.com/ValentinKolb/kvmarket/lib/store"
	"github.com/lni/dragonboat/v4/logger"
)

// KeyProducts is the key of the global product collection
const KeyProducts = "products"

var log = logger.GetLogger("catalog")

// Store owns the global product catalog. Update and Delete are only allowed for the
// seller of a product.
type Store struct {
	kv    store.IStore
	codec codec.ICodec

	// mu guards the read-modify-write of the collection
	mu sync.Mutex

	now func() time.Time
}

// New creates a catalog store on top of kv
func New(kv store.IStore, c codec.ICodec) *Store {
	return &Store{
		kv:    kv,
		codec: c,
		now:   time.Now,
	}
}

// List returns all products in insertion order
func (s *Store) List() ([]model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Get returns a single product
func (s *Store) Get(id string) (model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.load()
	if err != nil {
		return model.Product{}, err
	}
	i := indexOf(products, id)
	if i < 0 {
		return model.Product{}, model.Errorf(model.CodeNotFound, "product %s not found", id)
	}
	return products[i], nil
}

// ListByUser returns the products of one seller in insertion order
func (s *Store) ListByUser(sellerID string) ([]model.Product, error) {
	products, err := s.List()
	if err != nil {
		return nil, err
	}
	var own []model.Product
	for _, p := range products {
		if p.SellerID == sellerID {
			own = append(own, p)
		}
	}
	return own, nil
}

// Create validates fields and appends a new product owned by sellerID
func (s *Store) Create(fields model.ProductFields, sellerID, sellerUsername string) (model.Product, error) {
	fields.Title = strings.TrimSpace(fields.Title)
	fields.Description = strings.TrimSpace(fields.Description)
	if err := fields.Validate(); err != nil {
		return model.Product{}, err
	}
	if sellerID == "" {
		return model.Product{}, model.ErrNotAuthenticated
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.load()
	if err != nil {
		return model.Product{}, err
	}

	now := s.now().UTC()
	product := model.Product{
		ID:             model.NewID(),
		Title:          fields.Title,
		Description:    fields.Description,
		Category:       fields.Category,
		Price:          fields.Price,
		ImageURL:       fields.ImageURL,
		SellerID:       sellerID,
		SellerUsername: sellerUsername,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.save(append(products, product)); err != nil {
		return model.Product{}, err
	}

	log.Infof("product %s listed by %s", product.ID, sellerID)
	return product, nil
}

// Update merges the non-nil fields of patch into the product and refreshes UpdatedAt.
func (s *Store) Update(actorID, id string, patch model.ProductPatch) (model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.load()
	if err != nil {
		return model.Product{}, err
	}
	i := indexOf(products, id)
	if i < 0 {
		return model.Product{}, model.Errorf(model.CodeNotFound, "product %s not found", id)
	}
	if products[i].SellerID != actorID {
		log.Warningf("%s tried to update product %s of %s", actorID, id, products[i].SellerID)
		return model.Product{}, model.ErrForbidden
	}

	fields := patch.Apply(products[i])
	fields.Title = strings.TrimSpace(fields.Title)
	fields.Description = strings.TrimSpace(fields.Description)
	if err := fields.Validate(); err != nil {
		return model.Product{}, err
	}

	p := products[i]
	p.Title = fields.Title
	p.Description = fields.Description
	p.Category = fields.Category
	p.Price = fields.Price
	p.ImageURL = fields.ImageURL
	p.UpdatedAt = s.now().UTC()
	products[i] = p

	if err := s.save(products); err != nil {
		return model.Product{}, err
	}

	log.Debugf("product %s updated", id)
	return p, nil
}

// Delete removes the product. Deleting a missing id is a no-op.
func (s *Store) Delete(actorID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.load()
	if err != nil {
		return err
	}
	i := indexOf(products, id)
	if i < 0 {
		return nil
	}
	if products[i].SellerID != actorID {
		log.Warningf("%s tried to delete product %s of %s", actorID, id, products[i].SellerID)
		return model.ErrForbidden
	}

	if err := s.save(append(products[:i], products[i+1:]...)); err != nil {
		return err
	}

	log.Infof("product %s deleted", id)
	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func (s *Store) load() ([]model.Product, error) {
	raw, ok, err := s.kv.Get(KeyProducts)
	if err != nil {
		return nil, fmt.Errorf("reading products: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var products []model.Product
	if err := s.codec.Decode(raw, &products); err != nil {
		return nil, fmt.Errorf("decoding products: %w", err)
	}
	return products, nil
}

func (s *Store) save(products []model.Product) error {
	if len(products) == 0 {
		if err := s.kv.Delete(KeyProducts); err != nil {
			return fmt.Errorf("writing products: %w", err)
		}
		return nil
	}
	raw, err := s.codec.Encode(products)
	if err != nil {
		return fmt.Errorf("encoding products: %w", err)
	}
	if err := s.kv.Set(KeyProducts, raw); err != nil {
		return fmt.Errorf("writing products: %w", err)
	}
	return nil
}

func indexOf(products []model.Product, id string) int {
	for i := range products {
		if products[i].ID == id {
			return i
		}
	}
	return -1
}
