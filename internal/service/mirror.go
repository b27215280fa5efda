package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/jafarshop/ecostore/internal/domain"
)

// CartMirror is the remote copy of the cart and wishlist
type CartMirror interface {
	Cart(ctx context.Context, userID int64) ([]domain.CartItem, error)
	SaveCart(ctx context.Context, userID int64, items []domain.CartItem) error
	Wishlist(ctx context.Context, userID int64) ([]int64, error)
	AddToWishlist(ctx context.Context, userID, productID int64) error
	RemoveFromWishlist(ctx context.Context, userID, productID int64) error
}

type userIDer interface {
	UserID() int64
}

// mirror pushes local cart and wishlist changes to the remote API. Pushes
// are best-effort: the local state is already persisted and stays in place
// when the API is unreachable.
type mirror struct {
	remote CartMirror
	user   userIDer
	logger *zap.Logger
}

func newMirror(remote CartMirror, user userIDer, logger *zap.Logger) *mirror {
	return &mirror{
		remote: remote,
		user:   user,
		logger: logger,
	}
}

func (m *mirror) fetchCart(ctx context.Context, userID int64) ([]domain.CartItem, error) {
	return m.remote.Cart(ctx, userID)
}

func (m *mirror) fetchWishlist(ctx context.Context, userID int64) ([]int64, error) {
	return m.remote.Wishlist(ctx, userID)
}

// pushCart replaces the remote cart with items. It reports whether the push
// reached the API.
func (m *mirror) pushCart(ctx context.Context, items []domain.CartItem) bool {
	userID := m.user.UserID()
	if err := m.remote.SaveCart(ctx, userID, items); err != nil {
		m.logger.Warn("Failed to mirror cart",
			zap.Int64("user_id", userID),
			zap.Int("lines", len(items)),
			zap.Error(err),
		)
		return false
	}
	return true
}

func (m *mirror) wishlistAdd(ctx context.Context, productID int64) bool {
	userID := m.user.UserID()
	if err := m.remote.AddToWishlist(ctx, userID, productID); err != nil {
		m.logger.Warn("Failed to mirror wishlist add",
			zap.Int64("user_id", userID),
			zap.Int64("product_id", productID),
			zap.Error(err),
		)
		return false
	}
	return true
}

func (m *mirror) wishlistRemove(ctx context.Context, productID int64) bool {
	userID := m.user.UserID()
	if err := m.remote.RemoveFromWishlist(ctx, userID, productID); err != nil {
		m.logger.Warn("Failed to mirror wishlist remove",
			zap.Int64("user_id", userID),
			zap.Int64("product_id", productID),
			zap.Error(err),
		)
		return false
	}
	return true
}
