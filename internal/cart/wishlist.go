package cart

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/jafarshop/ecostore/internal/domain"
	"github.com/jafarshop/ecostore/internal/storage"
)

// Wishlist is an ordered set of product ids
type Wishlist struct {
	mu  sync.RWMutex
	ids []int64

	store  storage.Store
	logger *zap.Logger
}

// NewWishlist creates a new wishlist
func NewWishlist(store storage.Store, logger *zap.Logger) *Wishlist {
	return &Wishlist{
		store:  store,
		logger: logger,
	}
}

// Restore loads the persisted wishlist
func (w *Wishlist) Restore(ctx context.Context) {
	var ids []int64
	if _, err := w.store.Get(ctx, storage.KeyWishlist, &ids); err != nil {
		w.logger.Warn("Failed to read cached wishlist", zap.Error(err))
		ids = nil
	}
	w.Replace(ctx, ids)
}

// Replace swaps in a wishlist obtained elsewhere, dropping duplicates
func (w *Wishlist) Replace(ctx context.Context, ids []int64) {
	seen := make(map[int64]bool, len(ids))
	var out []int64
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.ids = out
	w.persist(ctx)
}

// Add inserts a product id. It reports false when the id was already present.
func (w *Wishlist) Add(ctx context.Context, productID int64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, id := range w.ids {
		if id == productID {
			return false
		}
	}
	w.ids = append(w.ids, productID)
	w.persist(ctx)
	return true
}

// Remove deletes a product id. It reports false when the id was absent.
func (w *Wishlist) Remove(ctx context.Context, productID int64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, id := range w.ids {
		if id == productID {
			w.ids = append(w.ids[:i:i], w.ids[i+1:]...)
			w.persist(ctx)
			return true
		}
	}
	return false
}

// Contains reports whether the product is wishlisted
func (w *Wishlist) Contains(productID int64) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, id := range w.ids {
		if id == productID {
			return true
		}
	}
	return false
}

// IDs returns a copy of the wishlisted ids
func (w *Wishlist) IDs() []int64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]int64(nil), w.ids...)
}

// Products resolves the wishlist against the catalog, skipping ids the
// catalog no longer has
func (w *Wishlist) Products(lookup ProductLookup) []domain.Product {
	var out []domain.Product
	for _, id := range w.IDs() {
		if p, ok := lookup.ByID(id); ok {
			out = append(out, p)
		}
	}
	return out
}

func (w *Wishlist) persist(ctx context.Context) {
	ids := w.ids
	if ids == nil {
		ids = []int64{}
	}
	if err := w.store.Set(ctx, storage.KeyWishlist, ids); err != nil {
		w.logger.Warn("Failed to persist wishlist", zap.Error(err))
	}
}
