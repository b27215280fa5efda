package remote

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/jafarshop/ecostore/internal/domain"
)

// CartLine is a cart entry as the store API returns it
type CartLine struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Image     string          `json:"image"`
	Brand     string          `json:"brand,omitempty"`
}

// CartItem converts the line to the local cart representation
func (l CartLine) CartItem() domain.CartItem {
	return domain.CartItem{
		ID:       l.ProductID,
		Name:     l.Name,
		Price:    l.Price,
		Image:    l.Image,
		Quantity: l.Quantity,
	}
}

type wishlistEntry struct {
	ProductID int64 `json:"product_id"`
}

// AuthResult is returned by login and registration
type AuthResult struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
}

// PromoResult is the promo validation answer. Discount is a rate in [0,1].
type PromoResult struct {
	Valid    bool            `json:"valid"`
	Discount decimal.Decimal `json:"discount"`
	Error    string          `json:"error,omitempty"`
}

type createOrderResponse struct {
	OrderID ID `json:"order_id"`
}

func userQuery(userID int64) string {
	return "?user_id=" + strconv.FormatInt(userID, 10)
}

// Products fetches the full catalog
func (c *Client) Products(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if err := c.do(ctx, http.MethodGet, c.store("/products"), nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// Brands fetches the brand list
func (c *Client) Brands(ctx context.Context) ([]string, error) {
	var brands []string
	if err := c.do(ctx, http.MethodGet, c.store("/products/brands"), nil, &brands); err != nil {
		return nil, err
	}
	return brands, nil
}

// Cart fetches the mirrored cart of a user
func (c *Client) Cart(ctx context.Context, userID int64) ([]domain.CartItem, error) {
	var lines []CartLine
	if err := c.do(ctx, http.MethodGet, c.store("/cart"+userQuery(userID)), nil, &lines); err != nil {
		return nil, err
	}
	items := make([]domain.CartItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, l.CartItem())
	}
	return items, nil
}

// SaveCart replaces the mirrored cart of a user
func (c *Client) SaveCart(ctx context.Context, userID int64, items []domain.CartItem) error {
	lines := make([]CartLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, CartLine{
			ProductID: item.ID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
			Image:     item.Image,
		})
	}
	body := map[string]interface{}{
		"user_id": userID,
		"items":   lines,
	}
	return c.do(ctx, http.MethodPost, c.store("/cart"), body, nil)
}

// Wishlist fetches the wishlisted product ids of a user
func (c *Client) Wishlist(ctx context.Context, userID int64) ([]int64, error) {
	var entries []wishlistEntry
	if err := c.do(ctx, http.MethodGet, c.store("/wishlist"+userQuery(userID)), nil, &entries); err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ProductID)
	}
	return ids, nil
}

// AddToWishlist adds a product to the remote wishlist
func (c *Client) AddToWishlist(ctx context.Context, userID, productID int64) error {
	body := map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
	}
	return c.do(ctx, http.MethodPost, c.store("/wishlist"), body, nil)
}

// RemoveFromWishlist removes a product from the remote wishlist
func (c *Client) RemoveFromWishlist(ctx context.Context, userID, productID int64) error {
	path := fmt.Sprintf("/wishlist/%d%s", productID, userQuery(userID))
	return c.do(ctx, http.MethodDelete, c.store(path), nil, nil)
}

// Orders fetches the order history of a user
func (c *Client) Orders(ctx context.Context, userID int64) ([]domain.Order, error) {
	var orders []domain.Order
	if err := c.do(ctx, http.MethodGet, c.store("/orders"+userQuery(userID)), nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// CreateOrder submits an order and returns the id assigned by the API
func (c *Client) CreateOrder(ctx context.Context, userID int64, order domain.Order) (string, error) {
	body := struct {
		UserID int64 `json:"user_id"`
		domain.Order
	}{UserID: userID, Order: order}

	var resp createOrderResponse
	if err := c.do(ctx, http.MethodPost, c.store("/orders"), body, &resp); err != nil {
		return "", err
	}
	return string(resp.OrderID), nil
}

// Profile fetches the profile of a user
func (c *Client) Profile(ctx context.Context, userID int64) (*domain.UserProfile, error) {
	var profile domain.UserProfile
	if err := c.do(ctx, http.MethodGet, c.store("/users/profile"+userQuery(userID)), nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateProfile stores the profile of a user
func (c *Client) UpdateProfile(ctx context.Context, userID int64, profile domain.UserProfile) error {
	body := struct {
		UserID int64 `json:"user_id"`
		domain.UserProfile
	}{UserID: userID, UserProfile: profile}
	return c.do(ctx, http.MethodPost, c.store("/users/profile"), body, nil)
}

// Login checks credentials
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
	}
	var result AuthResult
	if err := c.do(ctx, http.MethodPost, c.store("/users/login"), body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Register creates an account
func (c *Client) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	body := map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	}
	var result AuthResult
	if err := c.do(ctx, http.MethodPost, c.store("/users/register"), body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ValidatePromo asks the API whether a promo code is valid
func (c *Client) ValidatePromo(ctx context.Context, code string) (*PromoResult, error) {
	body := map[string]string{"promo_code": code}
	var result PromoResult
	if err := c.do(ctx, http.MethodPost, c.store("/promo/validate"), body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SubscribeNewsletter subscribes an email to the newsletter
func (c *Client) SubscribeNewsletter(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return c.do(ctx, http.MethodPost, c.store("/newsletter/subscribe"), body, nil)
}
