package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jafarshop/ecostore/internal/account"
	"github.com/jafarshop/ecostore/internal/catalog"
	"github.com/jafarshop/ecostore/internal/checkout"
	"github.com/jafarshop/ecostore/internal/domain"
	apperrors "github.com/jafarshop/ecostore/pkg/errors"
)

// AddToCart adds one unit of a product. Unknown and out-of-stock products
// leave the cart unchanged and only produce a notice.
func (s *Storefront) AddToCart(ctx context.Context, productID int64) bool {
	item, err := s.Cart.Add(ctx, productID)
	if err != nil {
		if oos, ok := apperrors.AsOutOfStock(err); ok {
			s.Notify(domain.NoticeError, fmt.Sprintf("%s is out of stock", oos.Name))
			return false
		}
		s.notifyError(err)
		return false
	}
	s.mirror.pushCart(ctx, s.Cart.Items())
	s.Notify(domain.NoticeSuccess, fmt.Sprintf("%s added to cart", item.Name))
	return true
}

// BuyNow replaces the cart with the product and opens checkout
func (s *Storefront) BuyNow(ctx context.Context, productID int64) bool {
	if err := s.Cart.BuyNow(ctx, productID); err != nil {
		s.notifyError(err)
		return false
	}
	s.mirror.pushCart(ctx, s.Cart.Items())
	return s.StartCheckout()
}

// UpdateQuantity sets a line quantity; zero or less removes the line
func (s *Storefront) UpdateQuantity(ctx context.Context, productID int64, quantity int) {
	s.Cart.UpdateQuantity(ctx, productID, quantity)
	s.mirror.pushCart(ctx, s.Cart.Items())
}

// RemoveFromCart removes a line if present
func (s *Storefront) RemoveFromCart(ctx context.Context, productID int64) {
	s.Cart.Remove(ctx, productID)
	s.mirror.pushCart(ctx, s.Cart.Items())
	s.Notify(domain.NoticeInfo, "Item removed from cart")
}

// ToggleWishlist adds the product to the wishlist or removes it. It
// reports whether the product is wishlisted afterwards.
func (s *Storefront) ToggleWishlist(ctx context.Context, productID int64) bool {
	if s.Wishlist.Contains(productID) {
		s.Wishlist.Remove(ctx, productID)
		s.mirror.wishlistRemove(ctx, productID)
		s.Notify(domain.NoticeInfo, "Removed from wishlist")
		return false
	}

	if _, ok := s.Catalog.ByID(productID); !ok {
		s.notifyError(&apperrors.ErrNotFound{Resource: "product", ID: fmt.Sprint(productID)})
		return false
	}
	s.Wishlist.Add(ctx, productID)
	s.mirror.wishlistAdd(ctx, productID)
	s.Notify(domain.NoticeSuccess, "Added to wishlist")
	return true
}

// CatalogPage runs a catalog query and cuts the cumulative page
func (s *Storefront) CatalogPage(q CatalogQuery) ([]domain.Product, int, bool) {
	all := s.Catalog.Query(q.Query, q.Filter(), domain.SortKey(q.Sort))
	page, more := catalog.Page(all, q.Page, s.cfg.Catalog.PerPage)
	return page, len(all), more
}

// StartCheckout enters the wizard at the contact step
func (s *Storefront) StartCheckout() bool {
	if err := s.Checkout.Start(); err != nil {
		s.notifyError(err)
		return false
	}
	return true
}

// CheckoutNext stores the fields of the current step and advances. On a
// validation failure it returns the field to focus.
func (s *Storefront) CheckoutNext(form CheckoutForm) (checkout.Step, string) {
	s.storeStep(form)

	step, err := s.Checkout.Next()
	if err != nil {
		s.notifyError(err)
		if v, ok := apperrors.AsValidation(err); ok {
			return step, v.Field
		}
		return step, ""
	}
	return step, ""
}

// CheckoutBack keeps what was typed on the current step and goes back
func (s *Storefront) CheckoutBack(form CheckoutForm) checkout.Step {
	s.storeStep(form)
	return s.Checkout.Back()
}

func (s *Storefront) storeStep(form CheckoutForm) {
	switch s.Checkout.Step() {
	case checkout.StepContact:
		s.Checkout.SetContact(domain.ContactInfo{
			Name:  form.ContactForm.Name,
			Email: form.ContactForm.Email,
			Phone: form.Phone,
		})
	case checkout.StepAddress:
		s.Checkout.SetAddress(domain.Address{
			City:      form.City,
			Street:    form.Street,
			House:     form.House,
			Apartment: form.Apartment,
		})
	case checkout.StepDeliveryPayment:
		s.Checkout.SetDeliveryPayment(domain.DeliveryMethod(form.Delivery), domain.PaymentMethod(form.Payment))
	case checkout.StepReview:
		s.Checkout.SetAgreeTerms(form.AgreeTerms != "")
	}
}

// ApplyPromo applies a promo code to the checkout totals
func (s *Storefront) ApplyPromo(ctx context.Context, code string) (string, bool) {
	if _, err := s.Checkout.ApplyPromo(ctx, code); err != nil {
		s.notifyError(err)
		if v, ok := apperrors.AsValidation(err); ok {
			return v.Message, false
		}
		return "", false
	}
	totals := s.Checkout.Totals()
	msg := fmt.Sprintf("Promo code applied: -%s₽", totals.Discount.String())
	s.Notify(domain.NoticeSuccess, msg)
	return msg, true
}

// PlaceOrder confirms the checkout. The order is recorded locally first and
// then submitted to the remote API best-effort.
func (s *Storefront) PlaceOrder(ctx context.Context, agreeTerms bool) (*domain.Order, string) {
	s.Checkout.SetAgreeTerms(agreeTerms)

	order, err := s.Checkout.Confirm(ctx, s.now())
	if err != nil {
		s.notifyError(err)
		if v, ok := apperrors.AsValidation(err); ok {
			return nil, v.Field
		}
		return nil, ""
	}

	s.Orders.Submit(ctx, s.Account.UserID(), *order)
	s.mirror.pushCart(ctx, nil)
	s.Notify(domain.NoticeSuccess, fmt.Sprintf("Order #%d placed. Thank you!", order.ID))
	return order, ""
}

// Login signs in and refreshes the per-user resources
func (s *Storefront) Login(ctx context.Context, form LoginForm) (string, bool) {
	session, offline, err := s.Account.Login(ctx, form.Email, form.Password)
	if err != nil {
		s.notifyError(err)
		return fieldOf(err), false
	}
	s.afterSignIn(ctx, session, offline)
	return "", true
}

// Register creates an account and signs in
func (s *Storefront) Register(ctx context.Context, form RegisterForm) (string, bool) {
	session, offline, err := s.Account.Register(ctx, account.RegisterInput{
		Name:     form.Name,
		Email:    form.Email,
		Password: form.Password,
		Confirm:  form.Confirm,
	})
	if err != nil {
		s.notifyError(err)
		return fieldOf(err), false
	}
	s.afterSignIn(ctx, session, offline)
	return "", true
}

func (s *Storefront) afterSignIn(ctx context.Context, session account.Session, offline bool) {
	if offline {
		s.Notify(domain.NoticeInfo, fmt.Sprintf("Welcome, %s! (offline mode)", session.Name))
		return
	}
	s.Notify(domain.NoticeSuccess, fmt.Sprintf("Welcome, %s!", session.Name))

	if err := s.Orders.Load(ctx, session.UserID); err != nil {
		s.logger.Debug("Order history unavailable after login", zap.Error(err))
	}
	if err := s.Account.LoadProfile(ctx); err != nil {
		s.logger.Debug("Profile unavailable after login", zap.Error(err))
	}
}

// Logout signs out
func (s *Storefront) Logout(ctx context.Context) {
	s.Account.Logout(ctx)
	s.Notify(domain.NoticeInfo, "You have signed out")
}

// UpdateProfile saves the profile form
func (s *Storefront) UpdateProfile(ctx context.Context, form ProfileForm) bool {
	offline, err := s.Account.UpdateProfile(ctx, form.Name, form.Email, form.Phone)
	if err != nil {
		s.notifyError(err)
		return false
	}
	if offline {
		s.Notify(domain.NoticeInfo, "Profile saved locally")
	} else {
		s.Notify(domain.NoticeSuccess, "Profile saved")
	}
	return true
}

// Subscribe signs an email up for the newsletter
func (s *Storefront) Subscribe(ctx context.Context, email string) bool {
	if _, err := s.Account.Subscribe(ctx, email); err != nil {
		s.notifyError(err)
		return false
	}
	s.Notify(domain.NoticeSuccess, "Thank you for subscribing!")
	return true
}

func fieldOf(err error) string {
	if v, ok := apperrors.AsValidation(err); ok {
		return v.Field
	}
	return ""
}
