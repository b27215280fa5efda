package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a catalog entry. Products are replaced wholesale when the
// catalog reloads and are never patched in place.
type Product struct {
	ID            int64               `json:"id"`
	Name          string              `json:"name"`
	Price         decimal.Decimal     `json:"price"`
	OriginalPrice decimal.NullDecimal `json:"originalPrice"`
	Category      string              `json:"category"`
	Brand         string              `json:"brand"`
	Description   string              `json:"description"`
	Image         string              `json:"image"`
	InStock       bool                `json:"inStock"`
	IsBestseller  bool                `json:"isBestseller"`
	IsNew         bool                `json:"isNew"`
	Rating        float64             `json:"rating"`
	Reviews       int                 `json:"reviews"`
	Features      []string            `json:"features"`
}

// UnmarshalJSON treats a product without an inStock field as available.
func (p *Product) UnmarshalJSON(data []byte) error {
	type alias Product
	aux := struct {
		*alias
		InStock *bool `json:"inStock"`
	}{alias: (*alias)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	p.InStock = aux.InStock == nil || *aux.InStock
	return nil
}

// DiscountPercent returns the rounded markdown against the original price,
// or zero when the product is not discounted.
func (p Product) DiscountPercent() int64 {
	if !p.OriginalPrice.Valid || !p.OriginalPrice.Decimal.GreaterThan(p.Price) {
		return 0
	}
	off := p.OriginalPrice.Decimal.Sub(p.Price).Div(p.OriginalPrice.Decimal).Mul(decimal.NewFromInt(100))
	return off.Round(0).IntPart()
}

// HasFeature reports whether the product carries the feature tag
func (p Product) HasFeature(feature string) bool {
	for _, f := range p.Features {
		if f == feature {
			return true
		}
	}
	return false
}

// CartItem is a cart line. Display fields are copied from the product when
// the line is created.
type CartItem struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image"`
	Quantity int             `json:"quantity"`
}

// LineTotal returns price times quantity
func (i CartItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ContactInfo holds the first checkout step
type ContactInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Address holds the second checkout step
type Address struct {
	City      string `json:"city"`
	Street    string `json:"street"`
	House     string `json:"house"`
	Apartment string `json:"apartment,omitempty"`
}

// OrderDelivery is the delivery block frozen into an order
type OrderDelivery struct {
	Address
	Type DeliveryMethod  `json:"type"`
	Cost decimal.Decimal `json:"cost"`
}

// Order represents a confirmed order. Items are a snapshot of the cart at
// confirmation time.
type Order struct {
	ID          int64            `json:"id"`
	CreatedAt   time.Time        `json:"created_at"`
	Items       []CartItem       `json:"items"`
	Customer    ContactInfo      `json:"customer"`
	Delivery    OrderDelivery    `json:"delivery"`
	Payment     PaymentMethod    `json:"payment"`
	Subtotal    decimal.Decimal  `json:"subtotal"`
	Discount    decimal.Decimal  `json:"discount"`
	Total       decimal.Decimal  `json:"total"`
	TotalAmount *decimal.Decimal `json:"total_amount,omitempty"`
	Status      OrderStatus      `json:"status"`
}

// orderTimeLayouts are tried in order when reading an order date
var orderTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// UnmarshalJSON reads the order date from created_at, or from date when
// created_at is missing. A date in an unknown format leaves CreatedAt zero
// instead of failing the whole order.
func (o *Order) UnmarshalJSON(data []byte) error {
	type alias Order
	aux := struct {
		*alias
		CreatedAt json.RawMessage `json:"created_at"`
		Date      json.RawMessage `json:"date"`
	}{alias: (*alias)(o)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	o.CreatedAt = parseOrderTime(aux.CreatedAt)
	if o.CreatedAt.IsZero() {
		o.CreatedAt = parseOrderTime(aux.Date)
	}
	return nil
}

func parseOrderTime(raw json.RawMessage) time.Time {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return time.Time{}
	}
	s = strings.TrimSpace(s)
	for _, layout := range orderTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// GrandTotal returns the amount to display for the order. Orders coming from
// the remote API may carry total_amount instead of total, and very old ones
// neither.
func (o Order) GrandTotal() decimal.Decimal {
	if o.TotalAmount != nil && !o.TotalAmount.IsZero() {
		return *o.TotalAmount
	}
	if !o.Total.IsZero() {
		return o.Total
	}
	sum := decimal.Zero
	for _, item := range o.Items {
		sum = sum.Add(item.LineTotal())
	}
	return sum
}

// ItemCount returns the number of units in the order
func (o Order) ItemCount() int {
	n := 0
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}

// UserProfile is the single local user
type UserProfile struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Bonuses int    `json:"bonuses"`
}

// DefaultProfile is shown when neither the remote API nor the cache has one
func DefaultProfile() UserProfile {
	return UserProfile{
		Name:    "Ivan Ivanov",
		Email:   "ivan@example.com",
		Phone:   "+7 999 123-45-67",
		Bonuses: 150,
	}
}

// FilterState is a conjunctive predicate over the catalog. Empty sets and
// invalid price bounds do not constrain anything.
type FilterState struct {
	Categories []string
	Brands     []string
	Features   []string
	MinRating  float64
	MinPrice   decimal.NullDecimal
	MaxPrice   decimal.NullDecimal
}

// IsZero reports whether the filter lets every product through
func (f FilterState) IsZero() bool {
	return len(f.Categories) == 0 && len(f.Brands) == 0 && len(f.Features) == 0 &&
		f.MinRating == 0 && !f.MinPrice.Valid && !f.MaxPrice.Valid
}

// Matches applies the filter to a single product. All selected features must
// be present.
func (f FilterState) Matches(p Product) bool {
	if len(f.Categories) > 0 && !contains(f.Categories, p.Category) {
		return false
	}
	if len(f.Brands) > 0 && !contains(f.Brands, p.Brand) {
		return false
	}
	for _, feature := range f.Features {
		if !p.HasFeature(feature) {
			return false
		}
	}
	if f.MinRating > 0 && p.Rating < f.MinRating {
		return false
	}
	if f.MinPrice.Valid && p.Price.LessThan(f.MinPrice.Decimal) {
		return false
	}
	if f.MaxPrice.Valid && p.Price.GreaterThan(f.MaxPrice.Decimal) {
		return false
	}
	return true
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

// Instruction is a step-by-step answer attached to a chat message
type Instruction struct {
	ID    string   `json:"instruction_id"`
	Steps []string `json:"steps"`
}

// ChatMessage is one entry in the widget conversation
type ChatMessage struct {
	ID          string       `json:"id"`
	Role        Role         `json:"role"`
	Content     string       `json:"content"`
	Timestamp   time.Time    `json:"timestamp"`
	Pending     bool         `json:"pending,omitempty"`
	Instruction *Instruction `json:"instruction,omitempty"`
}

// Task is an entry in the widget task browser. Key identifies the row and
// is unique within a list; several rows may share a task id.
type Task struct {
	Key        string `json:"key"`
	ID         string `json:"task_id"`
	Title      string `json:"title"`
	UsageCount int    `json:"usage_count"`
}

// Notice is a transient user-visible message
type Notice struct {
	Level NoticeLevel `json:"level"`
	Text  string      `json:"text"`
}

// Viewport is the browser window size reported by the page
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// PageContext describes the page the assistant widget is shown on
type PageContext struct {
	URL         string   `json:"url"`
	DOMSnapshot string   `json:"dom_snapshot"`
	Viewport    Viewport `json:"viewport"`
}
