package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/storefront/internal/catalog"
	"github.com/Skotchmaster/storefront/internal/checkout"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/guard"
	"github.com/Skotchmaster/storefront/internal/workspace"
)

const (
	CSRFCookie     = "XSRF-TOKEN"
	CSRFHeader     = "X-CSRF-Token"
	csrfContextKey = "csrf"
)

type Deps struct {
	Logger   *slog.Logger
	Registry *workspace.Registry
	Auth     AuthAPI
	Catalog  *catalog.Service
	Checkout *checkout.Service
	Events   events.Publisher

	LoginRate    int
	CookieSecure bool

	// Ready reports whether backing storage is reachable; nil means always ready.
	Ready func(ctx context.Context) error
}

func New(d *Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	// X-Forwarded-For is only honoured from private and loopback proxies.
	e.IPExtractor = echo.ExtractIPFromXFFHeader()

	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	e.Use(middleware.RequestID())
	e.Use(RequestLogger(d.Logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	Register(e, d)
	return e
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable"})
			}
		}
		return c.NoContent(http.StatusOK)
	})

	authH := &AuthHTTP{API: d.Auth, Events: d.Events}
	catalogH := &CatalogHTTP{Svc: d.Catalog}
	cartH := &CartHTTP{Catalog: d.Catalog, Events: d.Events}
	checkoutH := &CheckoutHTTP{Svc: d.Checkout, Events: d.Events}
	accountH := &AccountHTTP{Catalog: d.Catalog}
	limiter := NewLoginLimiter(d.LoginRate)

	api := e.Group("/api")
	api.Use(Workspaces(d.Registry, d.CookieSecure))
	api.Use(middleware.CSRFWithConfig(middleware.CSRFConfig{
		TokenLookup:    "header:" + CSRFHeader,
		ContextKey:     csrfContextKey,
		CookieName:     CSRFCookie,
		CookiePath:     "/",
		CookieSecure:   d.CookieSecure,
		CookieSameSite: http.SameSiteLaxMode,
	}))

	api.GET("/session", authH.Session)
	api.POST("/auth/login", authH.Login, limiter.Middleware)
	api.POST("/auth/register", authH.Register)
	api.POST("/auth/logout", authH.Logout)

	api.GET("/home", catalogH.Home)
	api.GET("/products", catalogH.Products)
	api.GET("/products/search", catalogH.Search)
	api.GET("/products/:id", catalogH.Product)
	api.GET("/categories", catalogH.Categories)

	api.POST("/cart/items", cartH.AddToCart)

	authed := Require(guard.Authenticated)
	api.GET("/cart", cartH.GetCart, authed)
	api.PATCH("/cart/items/:productId", cartH.UpdateQuantity, authed)
	api.DELETE("/cart/items/:productId", cartH.RemoveFromCart, authed)
	api.DELETE("/cart", cartH.ClearCart, authed)
	api.GET("/checkout", checkoutH.Form, authed)
	api.POST("/checkout", checkoutH.PlaceOrder, authed)
	api.GET("/profile", accountH.Profile, authed)
	api.GET("/orders", accountH.Orders, authed)
	api.GET("/promotions", accountH.Promotions, authed)

	api.GET("/admin/dashboard", accountH.Dashboard, Require(guard.Admin))
}
