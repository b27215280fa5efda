package handlers

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/ecostore/internal/checkout"
	"github.com/jafarshop/ecostore/internal/config"
	"github.com/jafarshop/ecostore/internal/domain"
	"github.com/jafarshop/ecostore/internal/render"
	"github.com/jafarshop/ecostore/internal/service"
)

func checkoutURL(focus string) string {
	if focus == "" {
		return "/checkout"
	}
	return "/checkout?focus=" + url.QueryEscape(focus)
}

func bindCheckout(c *gin.Context, logger *zap.Logger) service.CheckoutForm {
	var form service.CheckoutForm
	if err := c.ShouldBind(&form); err != nil {
		logger.Debug("Malformed checkout form", zap.Error(err))
	}
	return form
}

// HandleCheckout handles GET /checkout
func HandleCheckout(cfg *config.Config, sf *service.Storefront, views *render.Renderer, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sf.Cart.IsEmpty() {
			sf.Notify(domain.NoticeError, "Your cart is empty!")
			c.Redirect(http.StatusSeeOther, "/cart")
			return
		}

		view := render.CheckoutView{
			Checkout:  sf.Checkout.Snapshot(),
			Focus:     c.Query("focus"),
			Surcharge: cfg.Checkout.CourierSurcharge,
		}
		renderPage(c, sf, views, logger, http.StatusOK, "checkout", render.Layout{Title: "Checkout", Active: "cart"}, view)
	}
}

// HandleStartCheckout handles POST /checkout/start
func HandleStartCheckout(sf *service.Storefront, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !sf.StartCheckout() {
			c.Redirect(http.StatusSeeOther, "/cart")
			return
		}
		c.Redirect(http.StatusSeeOther, "/checkout")
	}
}

// HandleCheckoutNext handles POST /checkout/next
func HandleCheckoutNext(sf *service.Storefront, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		form := bindCheckout(c, logger)
		_, focus := sf.CheckoutNext(form)
		c.Redirect(http.StatusSeeOther, checkoutURL(focus))
	}
}

// HandleCheckoutBack handles POST /checkout/back
func HandleCheckoutBack(sf *service.Storefront, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sf.CheckoutBack(bindCheckout(c, logger))
		c.Redirect(http.StatusSeeOther, "/checkout")
	}
}

// HandleApplyPromo handles POST /checkout/promo
func HandleApplyPromo(sf *service.Storefront, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		form := bindCheckout(c, logger)
		if _, ok := sf.ApplyPromo(c.Request.Context(), form.PromoCode); !ok {
			c.Redirect(http.StatusSeeOther, checkoutURL(checkout.FieldPromo))
			return
		}
		c.Redirect(http.StatusSeeOther, "/checkout")
	}
}

// HandlePlaceOrder handles POST /checkout/confirm
func HandlePlaceOrder(sf *service.Storefront, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		form := bindCheckout(c, logger)

		order, focus := sf.PlaceOrder(c.Request.Context(), form.AgreeTerms != "")
		if order == nil {
			c.Redirect(http.StatusSeeOther, checkoutURL(focus))
			return
		}

		logger.Info("Order placed",
			zap.Int64("order_id", order.ID),
			zap.String("total", order.Total.String()),
		)
		c.Redirect(http.StatusSeeOther, "/checkout/confirmation/"+strconv.FormatInt(order.ID, 10))
	}
}

// HandleConfirmation handles GET /checkout/confirmation/:id. The page
// returns to the home page after the configured delay.
func HandleConfirmation(cfg *config.Config, sf *service.Storefront, views *render.Renderer, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			renderError(c, sf, views, logger, http.StatusBadRequest, "Invalid order ID")
			return
		}

		order, found := sf.Orders.ByID(id)
		if !found {
			renderError(c, sf, views, logger, http.StatusNotFound, "Order not found")
			return
		}

		layout := render.Layout{
			Title:        "Order placed",
			RefreshURL:   "/",
			RefreshAfter: int(cfg.Checkout.RedirectDelay.Seconds()),
		}
		view := render.ConfirmationView{Order: order, Delay: cfg.Checkout.RedirectDelay}
		renderPage(c, sf, views, logger, http.StatusOK, "confirmation", layout, view)
	}
}
