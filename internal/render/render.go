package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jafarshop/ecostore/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Static returns the stylesheet and other assets served under /static
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Renderer projects view data into markup. Rendering never mutates the data
// it is given, and the same input always yields the same output.
type Renderer struct {
	tmpl *template.Template
}

// New parses the embedded templates
func New() (*Renderer, error) {
	tmpl, err := template.New("").Funcs(funcs()).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Fragment renders a named template to markup
func (r *Renderer) Fragment(name string, data interface{}) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}

// Page renders the named view inside the site layout
func (r *Renderer) Page(w io.Writer, name string, layout Layout, data interface{}) error {
	body, err := r.Fragment(name, data)
	if err != nil {
		return err
	}
	layout.Body = body
	if err := r.tmpl.ExecuteTemplate(w, "layout", layout); err != nil {
		return fmt.Errorf("failed to render layout: %w", err)
	}
	return nil
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"money":         Money,
		"stars":         Stars,
		"statusLabel":   func(s domain.OrderStatus) string { return s.Label() },
		"statusColor":   func(s domain.OrderStatus) string { return s.Color() },
		"date":          func(o domain.Order) string { return o.CreatedAt.Format("02.01.2006") },
		"inSet":         inSet,
		"lineTotal":     func(i domain.CartItem) decimal.Decimal { return i.LineTotal() },
		"add":           func(a, b int) int { return a + b },
		"join":          strings.Join,
		"hasInt":        func(m map[int64]bool, id int64) bool { return m[id] },
		"autofocus":     autofocus,
		"sortLabel":     sortLabel,
		"deliveryLabel": deliveryLabel,
		"paymentLabel":  paymentLabel,
	}
}

// Money formats an amount in roubles
func Money(d decimal.Decimal) string {
	return d.Round(2).String() + "₽"
}

// Stars draws a five-star rating, rounding down
func Stars(rating float64) string {
	full := int(math.Floor(rating))
	if full < 0 {
		full = 0
	}
	if full > 5 {
		full = 5
	}
	return strings.Repeat("★", full) + strings.Repeat("☆", 5-full)
}

func inSet(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

// autofocus marks the field that failed validation
func autofocus(focus, field string) template.HTMLAttr {
	if focus != "" && focus == field {
		return "autofocus"
	}
	return ""
}

func sortLabel(k domain.SortKey) string {
	switch k {
	case domain.SortPriceAsc:
		return "Price: low to high"
	case domain.SortPriceDesc:
		return "Price: high to low"
	case domain.SortNewest:
		return "Newest"
	case domain.SortRating:
		return "Rating"
	default:
		return "Popularity"
	}
}

func deliveryLabel(d domain.DeliveryMethod) string {
	switch d {
	case domain.DeliveryCourier:
		return "Courier"
	case domain.DeliveryPickup:
		return "Pickup"
	default:
		return "-"
	}
}

func paymentLabel(p domain.PaymentMethod) string {
	switch p {
	case domain.PaymentCard:
		return "Card"
	case domain.PaymentCash:
		return "Cash on delivery"
	default:
		return "-"
	}
}
