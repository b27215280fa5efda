package cart

import (
	"context"
	"strconv"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jafarshop/ecostore/internal/domain"
	"github.com/jafarshop/ecostore/internal/storage"
	apperrors "github.com/jafarshop/ecostore/pkg/errors"
)

// ProductLookup resolves catalog products by id
type ProductLookup interface {
	ByID(id int64) (domain.Product, bool)
}

// Store is the shopping cart. It holds at most one line per product and
// every mutation is written to storage immediately.
type Store struct {
	mu    sync.RWMutex
	items []domain.CartItem

	products ProductLookup
	store    storage.Store
	logger   *zap.Logger
}

// NewStore creates a new cart store
func NewStore(products ProductLookup, store storage.Store, logger *zap.Logger) *Store {
	return &Store{
		products: products,
		store:    store,
		logger:   logger,
	}
}

// Restore loads the persisted cart
func (s *Store) Restore(ctx context.Context) {
	var items []domain.CartItem
	if _, err := s.store.Get(ctx, storage.KeyCart, &items); err != nil {
		s.logger.Warn("Failed to read cached cart", zap.Error(err))
		items = nil
	}

	s.mu.Lock()
	s.items = normalize(items)
	s.mu.Unlock()
}

// Add puts one unit of the product in the cart. Unknown products return
// *errors.ErrNotFound and unavailable ones *errors.ErrOutOfStock; the cart is
// left unchanged in both cases.
func (s *Store) Add(ctx context.Context, productID int64) (domain.CartItem, error) {
	product, ok := s.products.ByID(productID)
	if !ok {
		return domain.CartItem{}, &apperrors.ErrNotFound{Resource: "product", ID: strconv.FormatInt(productID, 10)}
	}
	if !product.InStock {
		return domain.CartItem{}, &apperrors.ErrOutOfStock{ProductID: product.ID, Name: product.Name}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID == productID {
			s.items[i].Quantity++
			s.persist(ctx)
			return s.items[i], nil
		}
	}

	item := lineFor(product)
	s.items = append(s.items, item)
	s.persist(ctx)
	return item, nil
}

// BuyNow replaces the whole cart with one unit of the product
func (s *Store) BuyNow(ctx context.Context, productID int64) error {
	product, ok := s.products.ByID(productID)
	if !ok {
		return &apperrors.ErrNotFound{Resource: "product", ID: strconv.FormatInt(productID, 10)}
	}
	if !product.InStock {
		return &apperrors.ErrOutOfStock{ProductID: product.ID, Name: product.Name}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = []domain.CartItem{lineFor(product)}
	s.persist(ctx)
	return nil
}

// UpdateQuantity sets the quantity of a line. A quantity of zero or less
// removes the line.
func (s *Store) UpdateQuantity(ctx context.Context, productID int64, quantity int) {
	if quantity <= 0 {
		s.Remove(ctx, productID)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == productID {
			s.items[i].Quantity = quantity
			s.persist(ctx)
			return
		}
	}
}

// Remove deletes the line of a product. Removing an absent product is a no-op.
func (s *Store) Remove(ctx context.Context, productID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.items[:0:0]
	for _, item := range s.items {
		if item.ID != productID {
			kept = append(kept, item)
		}
	}
	s.items = kept
	s.persist(ctx)
}

// Clear empties the cart
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.persist(ctx)
}

// Replace swaps in a cart obtained elsewhere, e.g. the remote mirror
func (s *Store) Replace(ctx context.Context, items []domain.CartItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = normalize(items)
	s.persist(ctx)
}

// Items returns a copy of the cart lines in insertion order
func (s *Store) Items() []domain.CartItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.CartItem(nil), s.items...)
}

// Count returns the badge number: the sum of line quantities
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, item := range s.items {
		n += item.Quantity
	}
	return n
}

// Subtotal returns the sum of line totals
func (s *Store) Subtotal() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return subtotal(s.items)
}

// IsEmpty reports whether the cart has no lines
func (s *Store) IsEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items) == 0
}

// persist writes the cart. Caller holds mu. A failed write is logged and
// the in-memory cart stays authoritative.
func (s *Store) persist(ctx context.Context) {
	items := s.items
	if items == nil {
		items = []domain.CartItem{}
	}
	if err := s.store.Set(ctx, storage.KeyCart, items); err != nil {
		s.logger.Warn("Failed to persist cart", zap.Error(err))
	}
}

func lineFor(p domain.Product) domain.CartItem {
	return domain.CartItem{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		Image:    p.Image,
		Quantity: 1,
	}
}

// normalize merges duplicate lines and drops non-positive quantities
func normalize(items []domain.CartItem) []domain.CartItem {
	var out []domain.CartItem
	index := make(map[int64]int)
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		if i, ok := index[item.ID]; ok {
			out[i].Quantity += item.Quantity
			continue
		}
		index[item.ID] = len(out)
		out = append(out, item)
	}
	return out
}

// subtotal sums the line totals of items
func subtotal(items []domain.CartItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.LineTotal())
	}
	return sum
}
