package handlers

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/ecostore/internal/render"
	"github.com/jafarshop/ecostore/internal/service"
)

var accountTabs = map[string]bool{"orders": true, "wishlist": true, "profile": true, "bonuses": true}

// RequireLogin redirects to the login page unless the user is signed in
func RequireLogin(sf *service.Storefront) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !sf.Account.Session().LoggedIn {
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// HandleAccount handles GET /account
func HandleAccount(sf *service.Storefront, views *render.Renderer, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tab := c.DefaultQuery("tab", "orders")
		if !accountTabs[tab] {
			tab = "orders"
		}

		view := render.AccountView{
			Tab:      tab,
			Session:  sf.Account.Session(),
			Profile:  sf.Account.Profile(),
			Orders:   sf.Orders.List(),
			Wishlist: render.Cards(sf.Wishlist.Products(sf.Catalog), sf.Wishlisted),
		}
		active := "account"
		if tab == "wishlist" {
			active = "wishlist"
		}
		renderPage(c, sf, views, logger, http.StatusOK, "account", render.Layout{Title: "Personal account", Active: active}, view)
	}
}

// HandleUpdateProfile handles POST /account/profile
func HandleUpdateProfile(sf *service.Storefront, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form service.ProfileForm
		if err := c.ShouldBind(&form); err != nil {
			logger.Debug("Malformed profile form", zap.Error(err))
		}
		sf.UpdateProfile(c.Request.Context(), form)
		c.Redirect(http.StatusSeeOther, "/account?tab=profile")
	}
}

// HandleLoginPage handles GET /login and GET /register
func HandleLoginPage(register bool, sf *service.Storefront, views *render.Renderer, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sf.Account.Session().LoggedIn {
			c.Redirect(http.StatusSeeOther, "/account")
			return
		}

		title := "Sign in"
		if register {
			title = "Register"
		}
		view := render.AuthView{
			Register: register,
			Name:     c.Query("name"),
			Email:    c.Query("email"),
			Focus:    c.Query("focus"),
		}
		renderPage(c, sf, views, logger, http.StatusOK, "auth", render.Layout{Title: title, Active: "account"}, view)
	}
}

// HandleLogin handles POST /login
func HandleLogin(sf *service.Storefront, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form service.LoginForm
		if err := c.ShouldBind(&form); err != nil {
			logger.Debug("Malformed login form", zap.Error(err))
		}

		if focus, ok := sf.Login(c.Request.Context(), form); !ok {
			q := url.Values{"email": {form.Email}}
			if focus != "" {
				q.Set("focus", focus)
			}
			c.Redirect(http.StatusSeeOther, "/login?"+q.Encode())
			return
		}
		c.Redirect(http.StatusSeeOther, "/account")
	}
}

// HandleRegister handles POST /register
func HandleRegister(sf *service.Storefront, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form service.RegisterForm
		if err := c.ShouldBind(&form); err != nil {
			logger.Debug("Malformed registration form", zap.Error(err))
		}

		if focus, ok := sf.Register(c.Request.Context(), form); !ok {
			q := url.Values{"name": {form.Name}, "email": {form.Email}}
			if focus != "" {
				q.Set("focus", focus)
			}
			c.Redirect(http.StatusSeeOther, "/register?"+q.Encode())
			return
		}
		c.Redirect(http.StatusSeeOther, "/account")
	}
}

// HandleLogout handles POST /logout
func HandleLogout(sf *service.Storefront, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sf.Logout(c.Request.Context())
		c.Redirect(http.StatusSeeOther, "/")
	}
}

// HandleSubscribe handles POST /newsletter
func HandleSubscribe(sf *service.Storefront, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form service.NewsletterForm
		if err := c.ShouldBind(&form); err != nil {
			logger.Debug("Malformed newsletter form", zap.Error(err))
		}
		sf.Subscribe(c.Request.Context(), form.Email)
		redirectBack(c, "/")
	}
}
