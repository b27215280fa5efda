package render

import (
	"html/template"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jafarshop/ecostore/internal/account"
	"github.com/jafarshop/ecostore/internal/checkout"
	"github.com/jafarshop/ecostore/internal/domain"
	"github.com/jafarshop/ecostore/internal/widget"
)

// Layout is the page chrome around every view
type Layout struct {
	Title         string
	Active        string
	CartCount     int
	WishlistCount int
	Session       account.Session
	Notices       []domain.Notice
	Offline       bool
	Widget        widget.State
	RefreshURL    string
	RefreshAfter  int
	Body          template.HTML
}

// ProductCard is a product tile in a listing
type ProductCard struct {
	Product    domain.Product
	InWishlist bool
}

// HomeView lists highlighted products
type HomeView struct {
	Popular []ProductCard
	New     []ProductCard
}

// CatalogView is the filterable product listing
type CatalogView struct {
	Products   []ProductCard
	Total      int
	Query      string
	Sort       domain.SortKey
	SortKeys   []domain.SortKey
	Filter     domain.FilterState
	Categories []string
	Brands     []string
	Features   []string
	Page       int
	HasMore    bool
	NextURL    template.URL
}

// ProductView is the product detail page
type ProductView struct {
	Card    ProductCard
	Related []ProductCard
}

// CartView is the cart page
type CartView struct {
	Items    []domain.CartItem
	Count    int
	Subtotal decimal.Decimal
}

// CheckoutView is one step of the checkout wizard. Focus names the field
// that failed validation.
type CheckoutView struct {
	Checkout     checkout.Snapshot
	Focus        string
	PromoMessage string
	Surcharge    decimal.Decimal
}

// ConfirmationView is shown once an order is placed
type ConfirmationView struct {
	Order domain.Order
	Delay time.Duration
}

// AccountView is the personal account with its tabs
type AccountView struct {
	Tab      string
	Session  account.Session
	Profile  domain.UserProfile
	Orders   []domain.Order
	Wishlist []ProductCard
}

// AuthView is the login or registration form
type AuthView struct {
	Register bool
	Name     string
	Email    string
	Focus    string
}

// ErrorView is a generic error page
type ErrorView struct {
	Status  int
	Message string
}

// Cards wraps products with their wishlist flag
func Cards(products []domain.Product, wishlisted func(int64) bool) []ProductCard {
	cards := make([]ProductCard, 0, len(products))
	for _, p := range products {
		cards = append(cards, ProductCard{Product: p, InWishlist: wishlisted(p.ID)})
	}
	return cards
}
