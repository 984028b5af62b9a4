package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/food_market/internal/checkout"
	"github.com/Skotchmaster/food_market/internal/logging"
	"github.com/Skotchmaster/food_market/internal/models"
	"github.com/Skotchmaster/food_market/internal/service"
	"github.com/Skotchmaster/food_market/internal/transport"
)

const headerIdempotencyKey = "Idempotency-Key"

type OrderHTTP struct {
	Svc *service.OrderService
}

func (h *OrderHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.checkout")

	userID, err := getID(c)
	if err != nil {
		return unauthorized(l, "checkout_error", err)
	}

	var req transport.CheckoutRequest
	if err := bindValid(c, &req); err != nil {
		return badRequest(l, "checkout_error", "delivery_address and phone required", err)
	}

	key := strings.TrimSpace(c.Request().Header.Get(headerIdempotencyKey))
	order, replayed, err := h.Svc.Checkout(ctx, userID, checkout.Details{
		DeliveryAddress: req.DeliveryAddress,
		Phone:           req.Phone,
		Notes:           req.Notes,
	}, key)
	resp := transport.CheckoutResponse{Order: order, Replayed: replayed}
	switch {
	case errors.Is(err, service.ErrCartNotCleared) && order != nil:
		l.Warn("checkout_cart_not_cleared", "order_id", order.ID, "error", err)
		resp.Warning = "order placed; clear your cart before ordering again"
	case err != nil:
		return fail(l, "checkout_error", err)
	}

	status := http.StatusCreated
	if replayed {
		status = http.StatusOK
	}
	l.Info("checkout_success", "order_id", order.ID, "replayed", replayed)
	return c.JSON(status, resp)
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list")

	userID, err := getID(c)
	if err != nil {
		return unauthorized(l, "list_orders_error", err)
	}

	page, size := pageParams(c)
	orders, err := h.Svc.ListMine(ctx, userID, page, size)
	if err != nil {
		return fail(l, "list_orders_error", err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHTTP) ListVendorOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list_vendor")

	userID, err := getID(c)
	if err != nil {
		return unauthorized(l, "list_vendor_orders_error", err)
	}

	page, size := pageParams(c)
	orders, err := h.Svc.ListForVendor(ctx, userID, c.QueryParam("status"), page, size)
	if err != nil {
		return fail(l, "list_vendor_orders_error", err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get")

	actor, err := getActor(c)
	if err != nil {
		return unauthorized(l, "get_order_error", err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(l, "get_order_error", "invalid order id", err)
	}

	order, err := h.Svc.GetOrder(ctx, actor, id)
	if err != nil {
		return fail(l, "get_order_error", err)
	}
	history, err := h.Svc.History(ctx, actor, id)
	if err != nil {
		return fail(l, "get_order_error", err)
	}

	payments, err := h.Svc.Payments(ctx, actor, id)
	if err != nil {
		return fail(l, "get_order_error", err)
	}

	detail := transport.OrderDetail{Order: order, History: history, Payments: payments, Final: order.Status.Terminal()}
	if next, ok := models.NextStatus(order.Status); ok {
		detail.NextStatus = &next
	}
	if detail.History == nil {
		detail.History = []models.OrderStatusEvent{}
	}
	if detail.Payments == nil {
		detail.Payments = []models.Payment{}
	}
	return c.JSON(http.StatusOK, detail)
}

func (h *OrderHTTP) ChangeStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.change_status")

	actor, err := getActor(c)
	if err != nil {
		return unauthorized(l, "change_status_error", err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(l, "change_status_error", "invalid order id", err)
	}

	var req transport.ChangeStatusRequest
	if err := bindValid(c, &req); err != nil {
		return badRequest(l, "change_status_error", "unknown status", err)
	}

	order, err := h.Svc.ChangeStatus(ctx, actor, id, req.Status)
	if err != nil {
		return fail(l, "change_status_error", err)
	}

	l.Info("change_status_success", "order_id", order.ID, "status", order.Status)
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) Advance(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.advance")

	actor, err := getActor(c)
	if err != nil {
		return unauthorized(l, "advance_error", err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(l, "advance_error", "invalid order id", err)
	}

	order, err := h.Svc.Advance(ctx, actor, id)
	if err != nil {
		return fail(l, "advance_error", err)
	}

	l.Info("advance_success", "order_id", order.ID, "status", order.Status)
	return c.JSON(http.StatusOK, order)
}
