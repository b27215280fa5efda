package service

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jafarshop/ecostore/internal/domain"
)

// ContactForm is the first checkout step
type ContactForm struct {
	Name  string `form:"customer-name" json:"name"`
	Email string `form:"customer-email" json:"email"`
	Phone string `form:"customer-phone" json:"phone"`
}

// AddressForm is the second checkout step
type AddressForm struct {
	City      string `form:"delivery-city" json:"city"`
	Street    string `form:"delivery-street" json:"street"`
	House     string `form:"delivery-house" json:"house"`
	Apartment string `form:"delivery-apartment" json:"apartment"`
}

// DeliveryForm is the third checkout step
type DeliveryForm struct {
	Delivery string `form:"delivery" json:"delivery"`
	Payment  string `form:"payment" json:"payment"`
}

// CheckoutForm carries whichever step is being submitted
type CheckoutForm struct {
	ContactForm
	AddressForm
	DeliveryForm
	AgreeTerms string `form:"agree-terms" json:"agree_terms"`
	PromoCode  string `form:"promo-code" json:"promo_code"`
}

// LoginForm is the sign-in form
type LoginForm struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// RegisterForm is the registration form
type RegisterForm struct {
	Name     string `form:"name" json:"name"`
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
	Confirm  string `form:"confirm" json:"confirm"`
}

// ProfileForm is the profile editor
type ProfileForm struct {
	Name  string `form:"name" json:"name"`
	Email string `form:"email" json:"email"`
	Phone string `form:"phone" json:"phone"`
}

// NewsletterForm is the footer subscription form
type NewsletterForm struct {
	Email string `form:"email" json:"email"`
}

// CatalogQuery is the catalog listing query string
type CatalogQuery struct {
	Query      string   `form:"q"`
	Sort       string   `form:"sort"`
	Categories []string `form:"category"`
	Brands     []string `form:"brand"`
	Features   []string `form:"feature"`
	MinPrice   string   `form:"min_price"`
	MaxPrice   string   `form:"max_price"`
	MinRating  float64  `form:"rating"`
	Page       int      `form:"page"`
}

// Filter builds the filter predicate. Malformed or negative prices leave
// that bound open.
func (q CatalogQuery) Filter() domain.FilterState {
	return domain.FilterState{
		Categories: q.Categories,
		Brands:     q.Brands,
		Features:   q.Features,
		MinRating:  q.MinRating,
		MinPrice:   parsePrice(q.MinPrice),
		MaxPrice:   parsePrice(q.MaxPrice),
	}
}

func parsePrice(v string) decimal.NullDecimal {
	v = strings.TrimSpace(v)
	if v == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(v)
	if err != nil || d.IsNegative() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// ChatRequest is a widget chat message
type ChatRequest struct {
	Message string `form:"message" json:"message"`
}

// VoiceRequest is text standing in for speech. The chat form posts it as
// "message".
type VoiceRequest struct {
	Text    string `form:"text" json:"text"`
	Message string `form:"message" json:"message"`
}

// SearchRequest is an instruction search
type SearchRequest struct {
	Query string `form:"query" json:"query"`
}

// ContextReport is the page context posted by an embedding page
type ContextReport struct {
	URL         string          `json:"url" binding:"required"`
	DOMSnapshot string          `json:"dom_snapshot"`
	Viewport    domain.Viewport `json:"viewport"`
}

// PageContext converts the report
func (r ContextReport) PageContext() domain.PageContext {
	return domain.PageContext{URL: r.URL, DOMSnapshot: r.DOMSnapshot, Viewport: r.Viewport}
}
