package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/ecostore/internal/api/handlers"
	"github.com/jafarshop/ecostore/internal/api/middleware"
	"github.com/jafarshop/ecostore/internal/config"
	"github.com/jafarshop/ecostore/internal/render"
	"github.com/jafarshop/ecostore/internal/service"
)

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, sf *service.Storefront, views *render.Renderer, logger *zap.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(loggingMiddleware(logger))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"offline":  sf.Offline(),
			"products": sf.Catalog.Len(),
		})
	})

	router.StaticFS("/static", http.FS(render.Static()))

	// Pages
	router.GET("/", handlers.HandleHome(sf, views, logger))
	router.GET("/catalog", handlers.HandleCatalog(sf, views, logger))
	router.GET("/product/:id", handlers.HandleProduct(sf, views, logger))
	router.POST("/newsletter", handlers.HandleSubscribe(sf, logger))

	cart := router.Group("")
	{
		cart.GET("/cart", handlers.HandleCart(sf, views, logger))
		cart.POST("/cart/add/:id", handlers.HandleAddToCart(sf, logger))
		cart.POST("/cart/buy/:id", handlers.HandleBuyNow(sf, logger))
		cart.POST("/cart/update/:id", handlers.HandleUpdateQuantity(sf, logger))
		cart.POST("/cart/remove/:id", handlers.HandleRemoveFromCart(sf, logger))
		cart.POST("/wishlist/toggle/:id", handlers.HandleToggleWishlist(sf, logger))
	}

	checkout := router.Group("/checkout")
	{
		checkout.GET("", handlers.HandleCheckout(cfg, sf, views, logger))
		checkout.POST("/start", handlers.HandleStartCheckout(sf, logger))
		checkout.POST("/next", handlers.HandleCheckoutNext(sf, logger))
		checkout.POST("/back", handlers.HandleCheckoutBack(sf, logger))
		checkout.POST("/promo", handlers.HandleApplyPromo(sf, logger))
		checkout.POST("/confirm", handlers.HandlePlaceOrder(sf, logger))
		checkout.GET("/confirmation/:id", handlers.HandleConfirmation(cfg, sf, views, logger))
	}

	// Account routes
	router.GET("/login", handlers.HandleLoginPage(false, sf, views, logger))
	router.POST("/login", handlers.HandleLogin(sf, logger))
	router.GET("/register", handlers.HandleLoginPage(true, sf, views, logger))
	router.POST("/register", handlers.HandleRegister(sf, logger))
	router.POST("/logout", handlers.HandleLogout(sf, logger))

	account := router.Group("/account")
	account.Use(handlers.RequireLogin(sf))
	{
		account.GET("", handlers.HandleAccount(sf, views, logger))
		account.POST("/profile", handlers.HandleUpdateProfile(sf, logger))
	}

	// Widget API (embeddable from other origins)
	widget := router.Group("/widget")
	widget.Use(middleware.WidgetCORS(cfg.CORSOrigins))
	{
		widget.GET("/state", handlers.HandleWidgetState(sf, logger))
		widget.GET("/panel", handlers.HandleWidgetPanel(sf, views, logger))
		widget.POST("/open", handlers.HandleWidgetOpen(sf, logger))
		widget.POST("/close", handlers.HandleWidgetClose(sf, logger))
		widget.POST("/tab/:tab", handlers.HandleWidgetTab(sf, logger))
		widget.POST("/tasks", handlers.HandleWidgetTasks(sf, logger))
		widget.POST("/tasks/:id/toggle", handlers.HandleWidgetToggle(sf, logger))
		widget.POST("/chat", handlers.HandleWidgetChat(sf, logger))
		widget.POST("/voice", handlers.HandleWidgetVoice(sf, logger))
		widget.POST("/search", handlers.HandleWidgetSearch(sf, logger))
		widget.POST("/search/:id", handlers.HandleWidgetSelect(sf, logger))
		widget.GET("/help", handlers.HandleWidgetHelp(sf, logger))
		widget.POST("/context", handlers.HandleWidgetContext(sf, logger))
		widget.GET("/export/:format/:id", handlers.HandleWidgetExport(sf, logger))

		// Preflight requests are answered by the CORS middleware
		widget.OPTIONS("/*path", func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		})
	}

	router.NoRoute(handlers.HandleNotFound(sf, views, logger))

	return router
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", middleware.GetRequestID(c)),
		)
	}
}
