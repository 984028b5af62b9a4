package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/food_market/internal/logging"
	"github.com/Skotchmaster/food_market/internal/service"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func (h *CatalogHTTP) ListVendors(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.list_vendors")

	page, size := pageParams(c)
	res, err := h.Svc.ListVendors(ctx, page, size)
	if err != nil {
		return fail(l, "list_vendors_error", err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *CatalogHTTP) GetVendor(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.get_vendor")

	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(l, "get_vendor_error", "invalid vendor id", err)
	}

	v, err := h.Svc.GetVendor(ctx, id)
	if err != nil {
		return fail(l, "get_vendor_error", err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *CatalogHTTP) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.list_products")

	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(l, "list_products_error", "invalid vendor id", err)
	}

	ps, err := h.Svc.ListProducts(ctx, id)
	if err != nil {
		return fail(l, "list_products_error", err)
	}
	return c.JSON(http.StatusOK, ps)
}
