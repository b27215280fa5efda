package checkout

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jafarshop/ecostore/internal/domain"
	apperrors "github.com/jafarshop/ecostore/pkg/errors"
)

// Step is a checkout wizard step
type Step int

const (
	StepContact Step = iota + 1
	StepAddress
	StepDeliveryPayment
	StepReview
)

func (s Step) String() string {
	switch s {
	case StepContact:
		return "contact"
	case StepAddress:
		return "address"
	case StepDeliveryPayment:
		return "delivery-payment"
	case StepReview:
		return "review"
	default:
		return "unknown"
	}
}

// Form field ids, used to focus the first invalid input
const (
	FieldName       = "customer-name"
	FieldEmail      = "customer-email"
	FieldPhone      = "customer-phone"
	FieldCity       = "delivery-city"
	FieldStreet     = "delivery-street"
	FieldHouse      = "delivery-house"
	FieldDelivery   = "delivery"
	FieldPayment    = "payment"
	FieldAgreeTerms = "agree-terms"
	FieldPromo      = "promo-code"
)

// Cart is the part of the cart the checkout reads and clears
type Cart interface {
	Items() []domain.CartItem
	Subtotal() decimal.Decimal
	IsEmpty() bool
	Clear(ctx context.Context)
}

// OrderRecorder keeps the order history
type OrderRecorder interface {
	Prepend(ctx context.Context, order domain.Order)
}

// Totals is the price breakdown shown during checkout
type Totals struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Delivery decimal.Decimal
	Total    decimal.Decimal
}

// Flow is the checkout wizard. Forward moves validate the current step;
// backward moves are always allowed.
type Flow struct {
	mu sync.Mutex

	step       Step
	contact    domain.ContactInfo
	address    domain.Address
	delivery   domain.DeliveryMethod
	payment    domain.PaymentMethod
	agreeTerms bool
	promoCode  string
	promoRate  decimal.Decimal

	cart      Cart
	orders    OrderRecorder
	promos    PromoValidator
	surcharge decimal.Decimal
	logger    *zap.Logger
}

// NewFlow creates a checkout flow. surcharge is the courier delivery cost.
func NewFlow(cart Cart, orders OrderRecorder, promos PromoValidator, surcharge decimal.Decimal, logger *zap.Logger) *Flow {
	return &Flow{
		step:      StepContact,
		cart:      cart,
		orders:    orders,
		promos:    promos,
		surcharge: surcharge,
		logger:    logger,
	}
}

// Snapshot is a read-only copy of the wizard state for rendering
type Snapshot struct {
	Step       Step
	Contact    domain.ContactInfo
	Address    domain.Address
	Delivery   domain.DeliveryMethod
	Payment    domain.PaymentMethod
	AgreeTerms bool
	PromoCode  string
	PromoRate  decimal.Decimal
	Items      []domain.CartItem
	Totals     Totals
}

// Snapshot returns the current state
func (f *Flow) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Snapshot{
		Step:       f.step,
		Contact:    f.contact,
		Address:    f.address,
		Delivery:   f.delivery,
		Payment:    f.payment,
		AgreeTerms: f.agreeTerms,
		PromoCode:  f.promoCode,
		PromoRate:  f.promoRate,
		Items:      f.cart.Items(),
		Totals:     f.totals(),
	}
}

// Step returns the current step
func (f *Flow) Step() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

// Start enters the wizard at the first step. The cart must not be empty.
func (f *Flow) Start() error {
	if f.cart.IsEmpty() {
		return &apperrors.ErrValidation{Step: "cart", Message: "Your cart is empty!"}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.step = StepContact
	return nil
}

// SetContact stores the first step's form values
func (f *Flow) SetContact(c domain.ContactInfo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contact = c
}

// SetAddress stores the second step's form values
func (f *Flow) SetAddress(a domain.Address) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.address = a
}

// SetDeliveryPayment stores the third step's selections. Unknown values are
// kept as unselected.
func (f *Flow) SetDeliveryPayment(d domain.DeliveryMethod, p domain.PaymentMethod) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delivery = ""
	if d.IsValid() {
		f.delivery = d
	}
	f.payment = ""
	if p.IsValid() {
		f.payment = p
	}
}

// SetAgreeTerms records the terms checkbox
func (f *Flow) SetAgreeTerms(agree bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.agreeTerms = agree
}

// Next validates the current step and advances. On failure the step is
// unchanged and the *errors.ErrValidation names the first invalid field.
func (f *Flow) Next() (Step, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.step >= StepReview {
		return f.step, &apperrors.ErrInvalidStateTransition{From: f.step.String(), To: "next"}
	}
	if err := f.validate(f.step); err != nil {
		return f.step, err
	}
	f.step++
	return f.step, nil
}

// Back returns to the previous step
func (f *Flow) Back() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step > StepContact {
		f.step--
	}
	return f.step
}

// Validate runs the validation of a single step
func (f *Flow) Validate(step Step) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.validate(step)
}

func (f *Flow) validate(step Step) error {
	invalid := func(field, msg string) error {
		return &apperrors.ErrValidation{Step: step.String(), Field: field, Message: msg}
	}

	switch step {
	case StepContact:
		email := strings.TrimSpace(f.contact.Email)
		switch {
		case strings.TrimSpace(f.contact.Name) == "":
			return invalid(FieldName, "Please enter your name")
		case email == "":
			return invalid(FieldEmail, "Please enter your email")
		case !domain.ValidEmail(email):
			return invalid(FieldEmail, "Please enter a valid email")
		case strings.TrimSpace(f.contact.Phone) == "":
			return invalid(FieldPhone, "Please enter your phone number")
		}
	case StepAddress:
		switch {
		case strings.TrimSpace(f.address.City) == "":
			return invalid(FieldCity, "Please enter your city")
		case strings.TrimSpace(f.address.Street) == "":
			return invalid(FieldStreet, "Please enter your street")
		case strings.TrimSpace(f.address.House) == "":
			return invalid(FieldHouse, "Please enter your house number")
		}
	case StepDeliveryPayment:
		switch {
		case f.delivery == "":
			return invalid(FieldDelivery, "Please choose a delivery method")
		case f.payment == "":
			return invalid(FieldPayment, "Please choose a payment method")
		}
	}
	return nil
}

// ApplyPromo validates a promo code and keeps its rate for the totals. When
// the promo API is unreachable the offline codes are used.
func (f *Flow) ApplyPromo(ctx context.Context, code string) (decimal.Decimal, error) {
	code = NormalizePromo(code)
	if code == "" {
		return decimal.Zero, &apperrors.ErrValidation{Step: "promo", Field: FieldPromo, Message: "Enter a promo code"}
	}

	rate, offline, err := resolvePromo(ctx, f.promos, code, f.logger)
	if err != nil {
		return decimal.Zero, err
	}

	f.mu.Lock()
	f.promoCode = code
	f.promoRate = rate
	f.mu.Unlock()

	f.logger.Info("Promo code applied",
		zap.String("code", code),
		zap.String("rate", rate.String()),
		zap.Bool("offline", offline),
	)
	return rate, nil
}

// ClearPromo drops an applied promo code
func (f *Flow) ClearPromo() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.promoCode = ""
	f.promoRate = decimal.Zero
}

// Totals computes the price breakdown from the current cart
func (f *Flow) Totals() Totals {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.totals()
}

func (f *Flow) totals() Totals {
	subtotal := f.cart.Subtotal()
	discount := Discount(subtotal, f.promoRate)
	delivery := decimal.Zero
	if f.delivery == domain.DeliveryCourier {
		delivery = f.surcharge
	}
	total := subtotal.Sub(discount).Add(delivery)
	if total.IsNegative() {
		total = decimal.Zero
	}
	return Totals{
		Subtotal: subtotal,
		Discount: discount,
		Delivery: delivery,
		Total:    total,
	}
}

// Confirm places the order. It requires the review step, the terms
// checkbox, all step validations and a non-empty cart. On success the order
// is prepended to the history, the cart is cleared and the wizard resets.
func (f *Flow) Confirm(ctx context.Context, now time.Time) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.step != StepReview {
		return nil, &apperrors.ErrInvalidStateTransition{From: f.step.String(), To: "confirmed"}
	}
	if !f.agreeTerms {
		return nil, &apperrors.ErrValidation{
			Step:    StepReview.String(),
			Field:   FieldAgreeTerms,
			Message: "Please agree to the delivery and return terms",
		}
	}
	for _, step := range []Step{StepContact, StepAddress, StepDeliveryPayment} {
		if err := f.validate(step); err != nil {
			return nil, err
		}
	}

	items := f.cart.Items()
	if len(items) == 0 {
		return nil, &apperrors.ErrValidation{Step: StepReview.String(), Message: "Your cart is empty!"}
	}

	totals := f.totals()
	order := domain.Order{
		ID:        now.UnixMilli(),
		CreatedAt: now.UTC(),
		Items:     items,
		Customer: domain.ContactInfo{
			Name:  strings.TrimSpace(f.contact.Name),
			Email: strings.TrimSpace(f.contact.Email),
			Phone: strings.TrimSpace(f.contact.Phone),
		},
		Delivery: domain.OrderDelivery{
			Address: domain.Address{
				City:      strings.TrimSpace(f.address.City),
				Street:    strings.TrimSpace(f.address.Street),
				House:     strings.TrimSpace(f.address.House),
				Apartment: strings.TrimSpace(f.address.Apartment),
			},
			Type: f.delivery,
			Cost: totals.Delivery,
		},
		Payment:  f.payment,
		Subtotal: totals.Subtotal,
		Discount: totals.Discount,
		Total:    totals.Total,
		Status:   domain.OrderStatusProcessing,
	}

	f.orders.Prepend(ctx, order)
	f.cart.Clear(ctx)

	f.step = StepContact
	f.agreeTerms = false
	f.promoCode = ""
	f.promoRate = decimal.Zero

	f.logger.Info("Order placed",
		zap.Int64("order_id", order.ID),
		zap.Int("items", len(order.Items)),
		zap.String("total", order.Total.String()),
	)
	return &order, nil
}
