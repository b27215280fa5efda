package handlers

import (
	"html/template"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/ecostore/internal/domain"
	"github.com/jafarshop/ecostore/internal/render"
	"github.com/jafarshop/ecostore/internal/service"
)

const highlightCount = 4

var sortKeys = []domain.SortKey{
	domain.SortPopularity,
	domain.SortPriceAsc,
	domain.SortPriceDesc,
	domain.SortNewest,
	domain.SortRating,
}

// HandleHome handles GET /
func HandleHome(sf *service.Storefront, views *render.Renderer, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		view := render.HomeView{
			Popular: render.Cards(sf.Catalog.Popular(highlightCount), sf.Wishlisted),
			New:     render.Cards(sf.Catalog.New(highlightCount), sf.Wishlisted),
		}
		renderPage(c, sf, views, logger, http.StatusOK, "home", render.Layout{Active: "home"}, view)
	}
}

// HandleCatalog handles GET /catalog
func HandleCatalog(sf *service.Storefront, views *render.Renderer, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q service.CatalogQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			logger.Debug("Ignoring malformed catalog query", zap.Error(err))
			q = service.CatalogQuery{Query: c.Query("q")}
		}
		if q.Page < 1 {
			q.Page = 1
		}
		if q.Sort == "" {
			q.Sort = string(domain.SortPopularity)
		}

		products, total, more := sf.CatalogPage(q)

		next := url.Values{}
		for k, v := range c.Request.URL.Query() {
			next[k] = v
		}
		next.Set("page", strconv.Itoa(q.Page+1))

		view := render.CatalogView{
			Products:   render.Cards(products, sf.Wishlisted),
			Total:      total,
			Query:      q.Query,
			Sort:       domain.SortKey(q.Sort),
			SortKeys:   sortKeys,
			Filter:     q.Filter(),
			Categories: sf.Catalog.Categories(),
			Brands:     sf.Catalog.Brands(),
			Features:   sf.Catalog.Features(),
			Page:       q.Page,
			HasMore:    more,
			NextURL:    template.URL("/catalog?" + next.Encode()),
		}
		renderPage(c, sf, views, logger, http.StatusOK, "catalog", render.Layout{Title: "Catalog", Active: "catalog"}, view)
	}
}

// HandleProduct handles GET /product/:id
func HandleProduct(sf *service.Storefront, views *render.Renderer, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			renderError(c, sf, views, logger, http.StatusBadRequest, "Invalid product")
			return
		}

		product, found := sf.Catalog.ByID(id)
		if !found {
			renderError(c, sf, views, logger, http.StatusNotFound, "Product not found")
			return
		}

		view := render.ProductView{
			Card:    render.ProductCard{Product: product, InWishlist: sf.Wishlisted(id)},
			Related: render.Cards(sf.Catalog.Related(id, highlightCount), sf.Wishlisted),
		}
		renderPage(c, sf, views, logger, http.StatusOK, "product", render.Layout{Title: product.Name, Active: "catalog"}, view)
	}
}
