package httpserver

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/food_market/internal/logging"
	authmw "github.com/Skotchmaster/food_market/internal/middleware/auth"
	"github.com/Skotchmaster/food_market/internal/role"
)

type Deps struct {
	CartHandler    *CartHTTP
	OrderHandler   *OrderHTTP
	PaymentHandler *PaymentHTTP
	ProfileHandler *ProfileHTTP
	CatalogHandler *CatalogHTTP
	Auth           *authmw.AutoRefreshMiddleware
	// Ready reports whether the backing stores answer.
	Ready func(ctx context.Context) error
}

// cookieCSRF guards cookie-authenticated requests. Bearer clients are not
// exposed to cross-site form posts and skip the check.
func cookieCSRF() echo.MiddlewareFunc {
	return middleware.CSRFWithConfig(middleware.CSRFConfig{
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
		},
		TokenLookup:    "header:X-CSRF-Token",
		CookieName:     "XSRF-TOKEN",
		CookiePath:     "/",
		CookieSameSite: http.SameSiteLaxMode,
	})
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready == nil {
			return c.NoContent(http.StatusOK)
		}
		if err := d.Ready(c.Request().Context()); err != nil {
			logging.FromContext(c.Request().Context()).Warn("not_ready", "error", err)
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})

	v1 := e.Group("/api/v1", cookieCSRF())

	v1.GET("/vendors", d.CatalogHandler.ListVendors)
	v1.GET("/vendors/:id", d.CatalogHandler.GetVendor)
	v1.GET("/vendors/:id/products", d.CatalogHandler.ListProducts)
	v1.GET("/payment-methods", d.PaymentHandler.Methods)

	authed := v1.Group("", d.Auth.RequireAuth)

	cart := authed.Group("/cart")
	cart.GET("", d.CartHandler.GetCart)
	cart.POST("", d.CartHandler.AddToCart)
	cart.DELETE("", d.CartHandler.ClearCart)
	cart.PATCH("/items/:product_id", d.CartHandler.SetQuantity)
	cart.DELETE("/items/:product_id", d.CartHandler.RemoveItem)

	authed.POST("/checkout", d.OrderHandler.Checkout)

	orders := authed.Group("/orders")
	orders.GET("", d.OrderHandler.ListOrders)
	orders.GET("/:id", d.OrderHandler.GetOrder)
	orders.POST("/:id/status", d.OrderHandler.ChangeStatus)
	orders.POST("/:id/advance", d.OrderHandler.Advance)
	orders.POST("/:id/payment", d.PaymentHandler.Submit)

	authed.POST("/vendor-applications", d.ProfileHandler.Apply)
	authed.GET("/dashboard", d.ProfileHandler.Dashboard)

	vendor := v1.Group("/vendor", d.Auth.RequireRole(role.Vendor))
	vendor.GET("/orders", d.OrderHandler.ListVendorOrders)

	admin := v1.Group("/admin", d.Auth.RequireAdmin)
	admin.GET("/vendor-applications", d.ProfileHandler.ListApplications)
	admin.POST("/vendor-applications/:user_id/approve", d.ProfileHandler.Approve)
	admin.POST("/vendor-applications/:user_id/reject", d.ProfileHandler.Reject)
	admin.PATCH("/users/:user_id/role", d.ProfileHandler.SetRole)
	admin.POST("/orders/:id/payment/verify", d.PaymentHandler.Verify)
}
