package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jafarshop/ecostore/internal/account"
	"github.com/jafarshop/ecostore/internal/cart"
	"github.com/jafarshop/ecostore/internal/catalog"
	"github.com/jafarshop/ecostore/internal/checkout"
	"github.com/jafarshop/ecostore/internal/config"
	"github.com/jafarshop/ecostore/internal/domain"
	"github.com/jafarshop/ecostore/internal/orders"
	"github.com/jafarshop/ecostore/internal/storage"
	"github.com/jafarshop/ecostore/internal/widget"
	apperrors "github.com/jafarshop/ecostore/pkg/errors"
)

// OfflineNotice is shown once when start-up had to fall back to saved data
const OfflineNotice = "Offline mode: the store is showing saved data"

// Remote is everything the storefront needs from the remote APIs
type Remote interface {
	catalog.Source
	orders.Source
	account.Remote
	checkout.PromoValidator
	widget.Assistant
	CartMirror
}

// Storefront is the application state of the single storefront user. It
// owns every store and is the only place where they are wired together.
type Storefront struct {
	Catalog  *catalog.Store
	Cart     *cart.Store
	Wishlist *cart.Wishlist
	Checkout *checkout.Flow
	Orders   *orders.History
	Account  *account.Service
	Widget   *widget.Widget

	mirror *mirror
	store  storage.Store
	cfg    *config.Config
	now    func() time.Time
	logger *zap.Logger

	mu      sync.Mutex
	notices []domain.Notice
	offline bool
}

// NewStorefront wires the stores. Nothing is loaded until Init.
func NewStorefront(cfg *config.Config, remote Remote, store storage.Store, logger *zap.Logger) *Storefront {
	products := catalog.NewStore(remote, store, logger)
	items := cart.NewStore(products, store, logger)
	history := orders.NewHistory(remote, store, logger)
	accounts := account.NewService(remote, store, cfg.Remote.UserID, logger)

	return &Storefront{
		Catalog:  products,
		Cart:     items,
		Wishlist: cart.NewWishlist(store, logger),
		Checkout: checkout.NewFlow(items, history, remote, cfg.Checkout.CourierSurcharge, logger),
		Orders:   history,
		Account:  accounts,
		Widget:   widget.New(remote, widget.NewHost(cfg.Widget), cfg.Widget, logger),
		mirror:   newMirror(remote, accounts, logger),
		store:    store,
		cfg:      cfg,
		now:      time.Now,
		logger:   logger,
	}
}

// Init restores the session and loads every resource. Each resource falls
// back to its saved copy on its own; a single offline notice is queued if
// any of them had to.
func (s *Storefront) Init(ctx context.Context) {
	s.Account.Restore(ctx)
	userID := s.Account.UserID()
	degraded := false

	if err := s.Catalog.Load(ctx); err != nil {
		n := s.Catalog.Restore(ctx)
		s.logger.Warn("Catalog unavailable, using saved copy", zap.Int("products", n), zap.Error(err))
		degraded = true
	}
	if err := s.Catalog.LoadBrands(ctx); err != nil {
		s.logger.Debug("Brand list unavailable, deriving from catalog", zap.Error(err))
	}

	if items, err := s.mirror.fetchCart(ctx, userID); err != nil {
		s.Cart.Restore(ctx)
		degraded = true
	} else {
		s.Cart.Replace(ctx, items)
	}

	if ids, err := s.mirror.fetchWishlist(ctx, userID); err != nil {
		s.Wishlist.Restore(ctx)
		degraded = true
	} else {
		s.Wishlist.Replace(ctx, ids)
	}

	if err := s.Orders.Load(ctx, userID); err != nil {
		s.Orders.Restore(ctx)
		degraded = true
	}

	if err := s.Account.LoadProfile(ctx); err != nil {
		degraded = true
	}

	s.mu.Lock()
	s.offline = degraded
	s.mu.Unlock()
	if degraded {
		s.Notify(domain.NoticeInfo, OfflineNotice)
	}

	s.logger.Info("Storefront initialized",
		zap.Int("products", s.Catalog.Len()),
		zap.Int("cart_items", s.Cart.Count()),
		zap.Int("orders", len(s.Orders.List())),
		zap.Bool("offline", degraded),
	)
}

// Reload refreshes the catalog from the remote API
func (s *Storefront) Reload(ctx context.Context) error {
	if err := s.Catalog.Load(ctx); err != nil {
		return err
	}
	if err := s.Catalog.LoadBrands(ctx); err != nil {
		s.logger.Debug("Brand list unavailable, deriving from catalog", zap.Error(err))
	}
	s.mu.Lock()
	s.offline = false
	s.mu.Unlock()
	return nil
}

// Offline reports whether saved data is being shown
func (s *Storefront) Offline() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offline
}

// Notify queues a notice for the next rendered page
func (s *Storefront) Notify(level domain.NoticeLevel, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, domain.Notice{Level: level, Text: text})
}

// DrainNotices returns and clears the queued notices
func (s *Storefront) DrainNotices() []domain.Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	notices := s.notices
	s.notices = nil
	return notices
}

// notifyError turns an action error into a notice. Errors that are not
// user-facing are logged and replaced by a generic text.
func (s *Storefront) notifyError(err error) {
	var text string
	switch {
	case err == nil:
		return
	case apperrors.IsRemoteUnavailable(err):
		text = "The service is temporarily unavailable. Please try again later."
	default:
		if tr, ok := apperrors.AsInvalidStateTransition(err); ok {
			// a repeated confirm arrives after the cart was cleared
			text = "Please complete the current checkout step first"
			if tr.To == "confirmed" && s.Cart.IsEmpty() {
				text = "This order was already placed"
			}
			s.Notify(domain.NoticeInfo, text)
			return
		}
		if v, ok := apperrors.AsValidation(err); ok {
			text = v.Message
		} else if u, ok := apperrors.AsUnauthorized(err); ok {
			text = u.Message
		} else if _, ok := apperrors.AsOutOfStock(err); ok {
			text = "This product is out of stock"
		} else if _, ok := apperrors.AsNotFound(err); ok {
			text = "Product not found"
		} else {
			s.logger.Error("Unexpected storefront error", zap.Error(err))
			text = "Something went wrong. Please try again."
		}
	}
	s.Notify(domain.NoticeError, text)
}

// Dump returns the persisted state keyed by storage key
func (s *Storefront) Dump(ctx context.Context) (map[string]interface{}, error) {
	keys, err := s.store.Keys(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]interface{}, len(keys))
	for _, key := range keys {
		var v interface{}
		if _, err := s.store.Get(ctx, key, &v); err != nil {
			return nil, err
		}
		out[key] = v
	}
	return out, nil
}

// Wishlisted reports whether a product is in the wishlist
func (s *Storefront) Wishlisted(id int64) bool {
	return s.Wishlist.Contains(id)
}
