package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/ecostore/internal/domain"
	"github.com/jafarshop/ecostore/internal/render"
	"github.com/jafarshop/ecostore/internal/service"
)

// HandleCart handles GET /cart
func HandleCart(sf *service.Storefront, views *render.Renderer, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		view := render.CartView{
			Items:    sf.Cart.Items(),
			Count:    sf.Cart.Count(),
			Subtotal: sf.Cart.Subtotal(),
		}
		renderPage(c, sf, views, logger, http.StatusOK, "cart", render.Layout{Title: "Cart", Active: "cart"}, view)
	}
}

// HandleAddToCart handles POST /cart/add/:id
func HandleAddToCart(sf *service.Storefront, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			sf.Notify(domain.NoticeError, "Product not found")
			redirectBack(c, "/catalog")
			return
		}

		sf.AddToCart(c.Request.Context(), id)
		redirectBack(c, "/catalog")
	}
}

// HandleBuyNow handles POST /cart/buy/:id
func HandleBuyNow(sf *service.Storefront, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok || !sf.BuyNow(c.Request.Context(), id) {
			redirectBack(c, "/catalog")
			return
		}
		c.Redirect(http.StatusSeeOther, "/checkout")
	}
}

// HandleUpdateQuantity handles POST /cart/update/:id
func HandleUpdateQuantity(sf *service.Storefront, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			c.Redirect(http.StatusSeeOther, "/cart")
			return
		}

		// Parse quantity
		quantity, err := strconv.Atoi(c.PostForm("quantity"))
		if err != nil {
			sf.Notify(domain.NoticeError, "Please enter a valid quantity")
			c.Redirect(http.StatusSeeOther, "/cart")
			return
		}

		sf.UpdateQuantity(c.Request.Context(), id, quantity)
		c.Redirect(http.StatusSeeOther, "/cart")
	}
}

// HandleRemoveFromCart handles POST /cart/remove/:id
func HandleRemoveFromCart(sf *service.Storefront, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, ok := pathID(c); ok {
			sf.RemoveFromCart(c.Request.Context(), id)
		}
		c.Redirect(http.StatusSeeOther, "/cart")
	}
}

// HandleToggleWishlist handles POST /wishlist/toggle/:id
func HandleToggleWishlist(sf *service.Storefront, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, ok := pathID(c); ok {
			sf.ToggleWishlist(c.Request.Context(), id)
		}
		redirectBack(c, "/catalog")
	}
}
