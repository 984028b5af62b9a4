package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/food_market/internal/logging"
	"github.com/Skotchmaster/food_market/internal/service"
	"github.com/Skotchmaster/food_market/internal/transport"
)

type ProfileHTTP struct {
	Svc *service.ProfileService
}

func (h *ProfileHTTP) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "profile.dashboard")

	userID, err := getID(c)
	if err != nil {
		return unauthorized(l, "dashboard_error", err)
	}

	path, err := h.Svc.Dashboard(ctx, userID)
	if err != nil {
		return fail(l, "dashboard_error", err)
	}
	return c.Redirect(http.StatusSeeOther, path)
}

func (h *ProfileHTTP) Apply(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "profile.apply")

	userID, err := getID(c)
	if err != nil {
		return unauthorized(l, "vendor_application_error", err)
	}

	var req transport.VendorApplicationRequest
	if err := bindValid(c, &req); err != nil {
		return badRequest(l, "vendor_application_error", "business_name, description and category required", err)
	}

	p, err := h.Svc.Apply(ctx, userID, service.Application{
		BusinessName: req.BusinessName,
		Description:  req.Description,
		Category:     req.Category,
	})
	if err != nil {
		return fail(l, "vendor_application_error", err)
	}

	l.Info("vendor_application_submitted")
	return c.JSON(http.StatusCreated, p)
}

func (h *ProfileHTTP) ListApplications(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.list_applications")

	page, size := pageParams(c)
	ps, err := h.Svc.ListApplications(ctx, c.QueryParam("status"), page, size)
	if err != nil {
		return fail(l, "list_applications_error", err)
	}
	return c.JSON(http.StatusOK, ps)
}

func (h *ProfileHTTP) Approve(c echo.Context) error {
	return h.decide(c, true)
}

func (h *ProfileHTTP) Reject(c echo.Context) error {
	return h.decide(c, false)
}

func (h *ProfileHTTP) decide(c echo.Context, approve bool) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.decide_application", "approve", approve)

	userID, err := pathID(c, "user_id")
	if err != nil {
		return badRequest(l, "decide_application_error", "invalid user id", err)
	}

	p, v, err := h.Svc.Decide(ctx, userID, approve)
	if err != nil {
		return fail(l, "decide_application_error", err)
	}

	l.Info("decide_application_success", "user_id", userID)
	return c.JSON(http.StatusOK, transport.DecisionResponse{Profile: p, Vendor: v})
}

func (h *ProfileHTTP) SetRole(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.set_role")

	userID, err := pathID(c, "user_id")
	if err != nil {
		return badRequest(l, "set_role_error", "invalid user id", err)
	}

	var req transport.SetRoleRequest
	if err := bindValid(c, &req); err != nil {
		return badRequest(l, "set_role_error", "role must be admin, vendor or customer", err)
	}

	if err := h.Svc.SetRole(ctx, userID, req.Role); err != nil {
		return fail(l, "set_role_error", err)
	}

	l.Info("set_role_success", "user_id", userID, "role", req.Role)
	return c.NoContent(http.StatusNoContent)
}
