package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/food_market/internal/logging"
	"github.com/Skotchmaster/food_market/internal/service"
	"github.com/Skotchmaster/food_market/internal/transport"
)

type CartHTTP struct {
	Svc *service.CartService
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	userID, err := getID(c)
	if err != nil {
		return unauthorized(l, "get_cart_error", err)
	}

	v, err := h.Svc.GetCart(ctx, userID)
	if err != nil {
		return fail(l, "get_cart_error", err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *CartHTTP) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	userID, err := getID(c)
	if err != nil {
		return unauthorized(l, "add_to_cart_error", err)
	}

	var req transport.AddToCartRequest
	if err := bindValid(c, &req); err != nil {
		return badRequest(l, "add_to_cart_error", "product_id required, quantity must be 1-99", err)
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}

	v, err := h.Svc.AddToCart(ctx, userID, req.ProductID, qty)
	if err != nil {
		return fail(l, "add_to_cart_error", err)
	}

	l.Info("add_to_cart_success", "product_id", req.ProductID, "quantity", qty)
	return c.JSON(http.StatusCreated, v)
}

func (h *CartHTTP) SetQuantity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.set_quantity")

	userID, err := getID(c)
	if err != nil {
		return unauthorized(l, "set_quantity_error", err)
	}
	productID, err := pathID(c, "product_id")
	if err != nil {
		return badRequest(l, "set_quantity_error", "invalid product id", err)
	}

	var req transport.SetQuantityRequest
	if err := bindValid(c, &req); err != nil {
		return badRequest(l, "set_quantity_error", "quantity required, at most 99", err)
	}

	v, err := h.Svc.SetQuantity(ctx, userID, productID, *req.Quantity)
	if err != nil {
		return fail(l, "set_quantity_error", err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove_item")

	userID, err := getID(c)
	if err != nil {
		return unauthorized(l, "remove_item_error", err)
	}
	productID, err := pathID(c, "product_id")
	if err != nil {
		return badRequest(l, "remove_item_error", "invalid product id", err)
	}

	v, err := h.Svc.RemoveItem(ctx, userID, productID)
	if err != nil {
		return fail(l, "remove_item_error", err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *CartHTTP) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	userID, err := getID(c)
	if err != nil {
		return unauthorized(l, "clear_cart_error", err)
	}

	if err := h.Svc.ClearCart(ctx, userID); err != nil {
		return fail(l, "clear_cart_error", err)
	}

	l.Info("cart successfully cleared")
	return c.NoContent(http.StatusNoContent)
}
