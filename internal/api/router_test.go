package api

import (
	"context"
	"io"
	"mime"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jafarshop/ecostore/internal/api/middleware"
	"github.com/jafarshop/ecostore/internal/config"
	"github.com/jafarshop/ecostore/internal/remote"
	"github.com/jafarshop/ecostore/internal/render"
	"github.com/jafarshop/ecostore/internal/service"
	"github.com/jafarshop/ecostore/internal/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func storeAPI() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/products", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[
			{"id":1,"name":"Bamboo brush","price":400,"category":"bath","brand":"EcoSmile","rating":4.5,"reviews":10},
			{"id":2,"name":"Glass jar","price":200,"category":"kitchen","brand":"GreenLife","rating":4.1,"reviews":3}
		]`)
	})
	mux.HandleFunc("/api/products/brands", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `["EcoSmile","GreenLife"]`)
	})
	for _, path := range []string{"/api/cart", "/api/wishlist", "/api/orders"} {
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet {
				_, _ = io.WriteString(w, `[]`)
			}
		})
	}
	mux.HandleFunc("/assistant/export/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, "1. Open the cart\n")
	})
	mux.HandleFunc("/api/users/profile", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"name":"","email":"","phone":"","bonuses":0}`)
	})
	return mux
}

func setupRouter(t *testing.T) (*gin.Engine, *service.Storefront) {
	t.Helper()
	srv := httptest.NewServer(storeAPI())
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		Environment: "test",
		Remote: config.RemoteConfig{
			BaseURL:          srv.URL + "/api",
			AssistantBaseURL: srv.URL + "/assistant",
			Timeout:          2 * time.Second,
			UserID:           1,
		},
		Checkout:    config.CheckoutConfig{CourierSurcharge: decimal.NewFromInt(300), RedirectDelay: 2 * time.Second},
		Catalog:     config.CatalogConfig{PerPage: 8},
		Widget:      config.WidgetConfig{Greeting: "Hi", PopularLimit: 5, HostMode: config.HostStandalone},
		CORSOrigins: []string{"https://shop.example.com"},
	}

	logger := zap.NewNop()
	client := remote.NewClient(cfg.Remote, logger)
	sf := service.NewStorefront(cfg, client, storage.NewMemoryStore(), logger)
	sf.Init(context.Background())

	views, err := render.New()
	require.NoError(t, err)
	return NewRouter(cfg, sf, views, logger), sf
}

func postForm(router http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	router, _ := setupRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"products":2`)
	assert.Contains(t, w.Body.String(), `"offline":false`)
}

func TestHomePage(t *testing.T) {
	router, _ := setupRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "Bamboo brush")
	assert.Contains(t, w.Body.String(), "EcoStore")
}

func TestStaticAssets(t *testing.T) {
	router, _ := setupRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/static/site.css", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "#ai-assistant-widget")
}

func TestUnknownPageRendersNotFound(t *testing.T) {
	router, _ := setupRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Page not found")
}

func TestAddToCartRedirectsBack(t *testing.T) {
	router, sf := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/cart/add/1", nil)
	req.Header.Set("Referer", "http://evil.example.com/catalog?q=brush")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/catalog?q=brush", w.Header().Get("Location"))
	assert.Equal(t, 1, sf.Cart.Count())

	w = postForm(router, "/cart/add/abc", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/catalog", w.Header().Get("Location"))
	assert.Equal(t, 1, sf.Cart.Count())
}

func TestRedirectBackStaysOnSite(t *testing.T) {
	router, _ := setupRouter(t)

	for _, ref := range []string{
		"http://x//evil.example.com/p",
		"http://x/\\evil.example.com/p",
	} {
		req := httptest.NewRequest(http.MethodPost, "/cart/add/1", nil)
		req.Header.Set("Referer", ref)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusSeeOther, w.Code, ref)
		assert.Equal(t, "/catalog", w.Header().Get("Location"), ref)
	}
}

func TestCheckoutRequiresItems(t *testing.T) {
	router, _ := setupRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/checkout", nil))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/cart", w.Header().Get("Location"))
}

func TestCheckoutInvalidEmailFocusesField(t *testing.T) {
	router, _ := setupRouter(t)

	postForm(router, "/cart/add/2", nil)
	w := postForm(router, "/checkout/start", nil)
	require.Equal(t, "/checkout", w.Header().Get("Location"))

	w = postForm(router, "/checkout/next", url.Values{
		"customer-name":  {"Anna"},
		"customer-email": {"anna-at-example"},
		"customer-phone": {"+7 900 000 00 00"},
	})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/checkout?focus=customer-email", w.Header().Get("Location"))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/checkout?focus=customer-email", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Please enter a valid email")
	assert.Contains(t, w.Body.String(), "anna-at-example")
}

func TestAccountRequiresLogin(t *testing.T) {
	router, _ := setupRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/account", nil))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestWidgetChatEmptyMessage(t *testing.T) {
	router, sf := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/widget/chat", strings.NewReader(`{"message":"   "}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Len(t, sf.Widget.State().Messages, 1)
}

func TestWidgetStateJSON(t *testing.T) {
	router, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/widget/state", nil)
	req.Header.Set("Accept", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Hi")
}

func TestWidgetExportQuotesFilename(t *testing.T) {
	router, _ := setupRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/widget/export/txt/a%22b", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1. Open the cart\n", w.Body.String())

	disposition, params, err := mime.ParseMediaType(w.Header().Get("Content-Disposition"))
	require.NoError(t, err)
	assert.Equal(t, "attachment", disposition)
	assert.Equal(t, `instruction_a"b.txt`, params["filename"])
}

func TestWidgetCORS(t *testing.T) {
	router, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/widget/chat", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://shop.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/widget/state", nil)
	req.Header.Set("Origin", "https://other.example.com")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequestID(t *testing.T) {
	router, _ := setupRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	_, err := uuid.Parse(w.Header().Get(middleware.RequestIDHeader))
	assert.NoError(t, err)

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(middleware.RequestIDHeader, id)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, id, w.Header().Get(middleware.RequestIDHeader))
}
