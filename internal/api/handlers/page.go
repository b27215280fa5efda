package handlers

import (
	"bytes"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/ecostore/internal/render"
	"github.com/jafarshop/ecostore/internal/service"
)

// renderPage writes a full page. Queued notices are consumed by the page.
func renderPage(c *gin.Context, sf *service.Storefront, views *render.Renderer, logger *zap.Logger,
	status int, name string, layout render.Layout, data interface{}) {
	layout.CartCount = sf.Cart.Count()
	layout.WishlistCount = len(sf.Wishlist.IDs())
	layout.Session = sf.Account.Session()
	layout.Notices = sf.DrainNotices()
	layout.Offline = sf.Offline()
	layout.Widget = sf.Widget.State()

	var buf bytes.Buffer
	if err := views.Page(&buf, name, layout, data); err != nil {
		logger.Error("Failed to render page", zap.String("view", name), zap.Error(err))
		c.String(http.StatusInternalServerError, "internal error")
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

func renderError(c *gin.Context, sf *service.Storefront, views *render.Renderer, logger *zap.Logger, status int, msg string) {
	renderPage(c, sf, views, logger, status, "error", render.Layout{Title: http.StatusText(status)},
		render.ErrorView{Status: status, Message: msg})
}

// redirectBack sends the browser to the page it came from, or to fallback.
// Only the path of the referer is used, never its host.
func redirectBack(c *gin.Context, fallback string) {
	target := fallback
	if ref := c.Request.Referer(); ref != "" {
		if u, err := url.Parse(ref); err == nil && localPath(u.Path) {
			target = u.Path
			if u.RawQuery != "" {
				target += "?" + u.RawQuery
			}
		}
	}
	c.Redirect(http.StatusSeeOther, target)
}

// localPath reports whether p stays on this site when used as a Location.
// Browsers read "//host" and "/\host" as another host.
func localPath(p string) bool {
	return strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//") && !strings.ContainsRune(p, '\\')
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// HandleNotFound renders the 404 page
func HandleNotFound(sf *service.Storefront, views *render.Renderer, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		renderError(c, sf, views, logger, http.StatusNotFound, "Page not found")
	}
}
