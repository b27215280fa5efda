package orders

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/jafarshop/ecostore/internal/domain"
	"github.com/jafarshop/ecostore/internal/storage"
)

// Source provides the remote order history
type Source interface {
	Orders(ctx context.Context, userID int64) ([]domain.Order, error)
	CreateOrder(ctx context.Context, userID int64, order domain.Order) (string, error)
}

// History is the newest-first order list. Orders are only ever added; their
// status is advanced by the remote system.
type History struct {
	mu     sync.RWMutex
	orders []domain.Order

	source Source
	store  storage.Store
	logger *zap.Logger
}

// NewHistory creates a new order history
func NewHistory(source Source, store storage.Store, logger *zap.Logger) *History {
	return &History{
		source: source,
		store:  store,
		logger: logger,
	}
}

// Load fetches the history and overwrites the cached copy. A remote failure
// is returned unchanged and leaves the current list in place.
func (h *History) Load(ctx context.Context, userID int64) error {
	orders, err := h.source.Orders(ctx, userID)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.orders = orders
	h.persist(ctx)
	return nil
}

// Restore replaces the list with the cached copy
func (h *History) Restore(ctx context.Context) {
	var orders []domain.Order
	if _, err := h.store.Get(ctx, storage.KeyOrders, &orders); err != nil {
		h.logger.Warn("Failed to read cached orders", zap.Error(err))
		orders = nil
	}

	h.mu.Lock()
	h.orders = orders
	h.mu.Unlock()
}

// Prepend adds an order at the front of the history and persists it
func (h *History) Prepend(ctx context.Context, order domain.Order) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.orders = append([]domain.Order{order}, h.orders...)
	h.persist(ctx)
}

// Submit sends a placed order to the remote API. The local copy stays
// authoritative, so a failure is only logged.
func (h *History) Submit(ctx context.Context, userID int64, order domain.Order) {
	remoteID, err := h.source.CreateOrder(ctx, userID, order)
	if err != nil {
		h.logger.Warn("Failed to submit order",
			zap.Int64("order_id", order.ID),
			zap.Error(err),
		)
		return
	}
	h.logger.Info("Order submitted",
		zap.Int64("order_id", order.ID),
		zap.String("remote_order_id", remoteID),
	)
}

// List returns a copy of the history, newest first
func (h *History) List() []domain.Order {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]domain.Order(nil), h.orders...)
}

// ByID looks up an order
func (h *History) ByID(id int64) (domain.Order, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, o := range h.orders {
		if o.ID == id {
			return o, true
		}
	}
	return domain.Order{}, false
}

func (h *History) persist(ctx context.Context) {
	orders := h.orders
	if orders == nil {
		orders = []domain.Order{}
	}
	if err := h.store.Set(ctx, storage.KeyOrders, orders); err != nil {
		h.logger.Warn("Failed to persist orders", zap.Error(err))
	}
}
