package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jafarshop/ecostore/internal/cart"
	"github.com/jafarshop/ecostore/internal/domain"
	"github.com/jafarshop/ecostore/internal/remote"
	"github.com/jafarshop/ecostore/internal/storage"
	apperrors "github.com/jafarshop/ecostore/pkg/errors"
)

type catalogStub map[int64]domain.Product

func (c catalogStub) ByID(id int64) (domain.Product, bool) {
	p, ok := c[id]
	return p, ok
}

type recorder struct {
	orders []domain.Order
}

func (r *recorder) Prepend(ctx context.Context, order domain.Order) {
	r.orders = append([]domain.Order{order}, r.orders...)
}

type promoStub struct {
	result *remote.PromoResult
	err    error
	calls  []string
}

func (p *promoStub) ValidatePromo(ctx context.Context, code string) (*remote.PromoResult, error) {
	p.calls = append(p.calls, code)
	return p.result, p.err
}

func offline() *promoStub {
	return &promoStub{err: &apperrors.ErrRemoteUnavailable{Endpoint: "POST /promo/validate"}}
}

type fixture struct {
	flow   *Flow
	cart   *cart.Store
	orders *recorder
}

func newFixture(t *testing.T, promos PromoValidator) fixture {
	t.Helper()
	products := catalogStub{
		1: {ID: 1, Name: "Soap", Price: decimal.NewFromInt(400), InStock: true},
		2: {ID: 2, Name: "Bottle", Price: decimal.NewFromInt(200), InStock: true},
	}
	c := cart.NewStore(products, storage.NewMemoryStore(), zap.NewNop())
	rec := &recorder{}
	return fixture{
		flow:   NewFlow(c, rec, promos, decimal.NewFromInt(300), zap.NewNop()),
		cart:   c,
		orders: rec,
	}
}

// fillCart builds a subtotal of 1000
func (fx fixture) fillCart(t *testing.T) {
	ctx := context.Background()
	_, err := fx.cart.Add(ctx, 1)
	require.NoError(t, err)
	_, err = fx.cart.Add(ctx, 1)
	require.NoError(t, err)
	_, err = fx.cart.Add(ctx, 2)
	require.NoError(t, err)
}

func (fx fixture) fillForms() {
	fx.flow.SetContact(domain.ContactInfo{Name: "Anna", Email: "anna@example.com", Phone: "+7 900 000-00-00"})
	fx.flow.SetAddress(domain.Address{City: "Kazan", Street: "Baumana", House: "12", Apartment: "4"})
	fx.flow.SetDeliveryPayment(domain.DeliveryCourier, domain.PaymentCard)
}

func fieldOf(t *testing.T, err error) string {
	t.Helper()
	v, ok := apperrors.AsValidation(err)
	require.True(t, ok, "expected validation error, got %v", err)
	return v.Field
}

func TestStartRequiresItems(t *testing.T) {
	fx := newFixture(t, offline())
	err := fx.flow.Start()
	_, ok := apperrors.AsValidation(err)
	assert.True(t, ok)

	fx.fillCart(t)
	assert.NoError(t, fx.flow.Start())
	assert.Equal(t, StepContact, fx.flow.Step())
}

func TestContactValidationOrder(t *testing.T) {
	fx := newFixture(t, offline())
	fx.fillCart(t)
	require.NoError(t, fx.flow.Start())

	_, err := fx.flow.Next()
	assert.Equal(t, FieldName, fieldOf(t, err))

	fx.flow.SetContact(domain.ContactInfo{Name: "Anna"})
	_, err = fx.flow.Next()
	assert.Equal(t, FieldEmail, fieldOf(t, err))

	fx.flow.SetContact(domain.ContactInfo{Name: "Anna", Email: "not-an-email", Phone: "123"})
	step, err := fx.flow.Next()
	assert.Equal(t, FieldEmail, fieldOf(t, err))
	assert.Equal(t, StepContact, step)

	fx.flow.SetContact(domain.ContactInfo{Name: "Anna", Email: "anna@example.com"})
	_, err = fx.flow.Next()
	assert.Equal(t, FieldPhone, fieldOf(t, err))

	assert.Len(t, fx.cart.Items(), 2)
	assert.Empty(t, fx.orders.orders)
}

func TestAddressAndDeliveryValidation(t *testing.T) {
	fx := newFixture(t, offline())
	fx.fillCart(t)
	fx.flow.SetContact(domain.ContactInfo{Name: "Anna", Email: "anna@example.com", Phone: "1"})

	step, err := fx.flow.Next()
	require.NoError(t, err)
	assert.Equal(t, StepAddress, step)

	fx.flow.SetAddress(domain.Address{City: "Kazan", Street: "  "})
	_, err = fx.flow.Next()
	assert.Equal(t, FieldStreet, fieldOf(t, err))

	fx.flow.SetAddress(domain.Address{City: "Kazan", Street: "Baumana"})
	_, err = fx.flow.Next()
	assert.Equal(t, FieldHouse, fieldOf(t, err))

	fx.flow.SetAddress(domain.Address{City: "Kazan", Street: "Baumana", House: "1"})
	step, err = fx.flow.Next()
	require.NoError(t, err)
	assert.Equal(t, StepDeliveryPayment, step)

	fx.flow.SetDeliveryPayment("teleport", domain.PaymentCash)
	_, err = fx.flow.Next()
	assert.Equal(t, FieldDelivery, fieldOf(t, err))

	fx.flow.SetDeliveryPayment(domain.DeliveryPickup, "")
	_, err = fx.flow.Next()
	assert.Equal(t, FieldPayment, fieldOf(t, err))
}

func TestBackIsUnconditional(t *testing.T) {
	fx := newFixture(t, offline())
	fx.fillCart(t)
	fx.fillForms()

	for i := 0; i < 3; i++ {
		_, err := fx.flow.Next()
		require.NoError(t, err)
	}
	assert.Equal(t, StepReview, fx.flow.Step())

	_, err := fx.flow.Next()
	assert.Error(t, err)

	fx.flow.SetContact(domain.ContactInfo{})
	assert.Equal(t, StepDeliveryPayment, fx.flow.Back())
	assert.Equal(t, StepAddress, fx.flow.Back())
	assert.Equal(t, StepContact, fx.flow.Back())
	assert.Equal(t, StepContact, fx.flow.Back())
}

func TestPromoOfflineTable(t *testing.T) {
	promos := offline()
	fx := newFixture(t, promos)
	fx.fillCart(t)

	rate, err := fx.flow.ApplyPromo(context.Background(), " welcome20 ")
	require.NoError(t, err)
	assert.Equal(t, []string{"WELCOME20"}, promos.calls)
	assert.True(t, rate.Equal(decimal.RequireFromString("0.2")))

	totals := fx.flow.Totals()
	assert.True(t, totals.Subtotal.Equal(decimal.NewFromInt(1000)))
	assert.True(t, totals.Discount.Equal(decimal.NewFromInt(200)))
	assert.True(t, totals.Total.Equal(decimal.NewFromInt(800)))

	fx.flow.SetDeliveryPayment(domain.DeliveryCourier, domain.PaymentCard)
	assert.True(t, fx.flow.Totals().Total.Equal(decimal.NewFromInt(1100)))

	_, err = fx.flow.ApplyPromo(context.Background(), "FREE100")
	assert.Equal(t, FieldPromo, fieldOf(t, err))
	assert.True(t, fx.flow.Totals().Discount.Equal(decimal.NewFromInt(200)))

	_, err = fx.flow.ApplyPromo(context.Background(), "   ")
	assert.Equal(t, FieldPromo, fieldOf(t, err))
}

func TestPromoRemoteAnswerWins(t *testing.T) {
	promos := &promoStub{result: &remote.PromoResult{Valid: true, Discount: decimal.RequireFromString("0.05")}}
	fx := newFixture(t, promos)
	fx.fillCart(t)

	_, err := fx.flow.ApplyPromo(context.Background(), "SPRING5")
	require.NoError(t, err)
	assert.True(t, fx.flow.Totals().Discount.Equal(decimal.NewFromInt(50)))

	promos.result = &remote.PromoResult{Valid: false}
	_, err = fx.flow.ApplyPromo(context.Background(), "WELCOME20")
	assert.Equal(t, FieldPromo, fieldOf(t, err))
}

func TestDiscountRounds(t *testing.T) {
	got := Discount(decimal.NewFromInt(333), decimal.RequireFromString("0.15"))
	assert.True(t, got.Equal(decimal.NewFromInt(50)))
}

func TestConfirmRequiresTermsAndReview(t *testing.T) {
	fx := newFixture(t, offline())
	fx.fillCart(t)
	fx.fillForms()
	ctx := context.Background()

	_, err := fx.flow.Confirm(ctx, time.Now())
	var transition *apperrors.ErrInvalidStateTransition
	assert.ErrorAs(t, err, &transition)

	for i := 0; i < 3; i++ {
		_, err := fx.flow.Next()
		require.NoError(t, err)
	}

	_, err = fx.flow.Confirm(ctx, time.Now())
	assert.Equal(t, FieldAgreeTerms, fieldOf(t, err))

	fx.flow.SetAgreeTerms(true)
	fx.flow.SetContact(domain.ContactInfo{Name: "Anna", Email: "not-an-email", Phone: "1"})
	_, err = fx.flow.Confirm(ctx, time.Now())
	assert.Equal(t, FieldEmail, fieldOf(t, err))

	assert.Len(t, fx.cart.Items(), 2)
	assert.Empty(t, fx.orders.orders)
}

func TestConfirmPlacesOrder(t *testing.T) {
	fx := newFixture(t, offline())
	fx.fillCart(t)
	fx.fillForms()
	ctx := context.Background()

	_, err := fx.flow.ApplyPromo(ctx, "WELCOME20")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := fx.flow.Next()
		require.NoError(t, err)
	}
	fx.flow.SetAgreeTerms(true)

	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	order, err := fx.flow.Confirm(ctx, now)
	require.NoError(t, err)

	assert.Equal(t, now.UnixMilli(), order.ID)
	assert.Equal(t, domain.OrderStatusProcessing, order.Status)
	assert.Len(t, order.Items, 2)
	assert.Equal(t, "4", order.Delivery.Apartment)
	assert.Equal(t, domain.DeliveryCourier, order.Delivery.Type)
	assert.True(t, order.Delivery.Cost.Equal(decimal.NewFromInt(300)))
	assert.True(t, order.Subtotal.Equal(decimal.NewFromInt(1000)))
	assert.True(t, order.Discount.Equal(decimal.NewFromInt(200)))
	assert.True(t, order.Total.Equal(decimal.NewFromInt(1100)))

	require.Len(t, fx.orders.orders, 1)
	assert.Equal(t, order.ID, fx.orders.orders[0].ID)
	assert.True(t, fx.cart.IsEmpty())

	snap := fx.flow.Snapshot()
	assert.Equal(t, StepContact, snap.Step)
	assert.False(t, snap.AgreeTerms)
	assert.Empty(t, snap.PromoCode)
	assert.Equal(t, "Anna", snap.Contact.Name)
}

func TestOrderSnapshotIsFrozen(t *testing.T) {
	fx := newFixture(t, offline())
	fx.fillCart(t)
	fx.fillForms()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, _ = fx.flow.Next()
	}
	fx.flow.SetAgreeTerms(true)

	order, err := fx.flow.Confirm(ctx, time.Now())
	require.NoError(t, err)

	_, _ = fx.cart.Add(ctx, 1)
	assert.Equal(t, 2, order.Items[0].Quantity)
}
