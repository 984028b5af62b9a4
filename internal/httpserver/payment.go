package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/food_market/internal/logging"
	"github.com/Skotchmaster/food_market/internal/service"
	"github.com/Skotchmaster/food_market/internal/transport"
)

type PaymentHTTP struct {
	Svc *service.PaymentService
}

func (h *PaymentHTTP) Methods(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Svc.Methods())
}

func (h *PaymentHTTP) Submit(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.submit")

	userID, err := getID(c)
	if err != nil {
		return unauthorized(l, "submit_payment_error", err)
	}
	orderID, err := pathID(c, "id")
	if err != nil {
		return badRequest(l, "submit_payment_error", "invalid order id", err)
	}

	var req transport.SubmitPaymentRequest
	if err := bindValid(c, &req); err != nil {
		return badRequest(l, "submit_payment_error", "method required", err)
	}

	order, payment, err := h.Svc.Submit(ctx, userID, orderID, req.Method)
	if err != nil {
		return fail(l, "submit_payment_error", err)
	}

	l.Info("submit_payment_success", "order_id", order.ID, "reference", payment.Reference)
	return c.JSON(http.StatusCreated, transport.SubmitPaymentResponse{Order: order, Payment: payment})
}

func (h *PaymentHTTP) Verify(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.verify")

	orderID, err := pathID(c, "id")
	if err != nil {
		return badRequest(l, "verify_payment_error", "invalid order id", err)
	}

	var req transport.VerifyPaymentRequest
	if err := bindValid(c, &req); err != nil {
		return badRequest(l, "verify_payment_error", "paid required", err)
	}

	order, err := h.Svc.Verify(ctx, orderID, *req.Paid)
	if err != nil {
		return fail(l, "verify_payment_error", err)
	}

	l.Info("verify_payment_success", "order_id", order.ID, "payment_status", order.PaymentStatus)
	return c.JSON(http.StatusOK, order)
}
