package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/food_market/internal/cart"
	"github.com/Skotchmaster/food_market/internal/middleware/auth"
	"github.com/Skotchmaster/food_market/internal/models"
	"github.com/Skotchmaster/food_market/internal/role"
	"github.com/Skotchmaster/food_market/internal/service"
)

// RequestValidator plugs go-playground/validator into echo's c.Validate.
type RequestValidator struct {
	V *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{V: validator.New(validator.WithRequiredStructEnabled())}
}

func (rv *RequestValidator) Validate(i any) error {
	return rv.V.Struct(i)
}

func getID(c echo.Context) (uuid.UUID, error) {
	s, ok := c.Get(auth.CtxUserID).(string)
	if !ok || s == "" {
		return uuid.Nil, errors.New("unauthorized")
	}
	userID, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, errors.New("unauthorized")
	}
	return userID, nil
}

func getActor(c echo.Context) (service.Actor, error) {
	id, err := getID(c)
	if err != nil {
		return service.Actor{}, err
	}
	r, ok := c.Get(auth.CtxRole).(role.Role)
	if !ok || !r.Valid() {
		return service.Actor{}, errors.New("unauthorized")
	}
	return service.Actor{ID: id, Role: r}, nil
}

func pathID(c echo.Context, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Param(name))
}

func pageParams(c echo.Context) (page, size int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	size, _ = strconv.Atoi(c.QueryParam("size"))
	return page, size
}

// bindValid binds the body into req and validates it.
func bindValid(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return err
	}
	return c.Validate(req)
}

// fail logs err under event and converts it to the matching HTTP error.
func fail(l *slog.Logger, event string, err error) error {
	status, msg := http.StatusInternalServerError, "internal error"
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, cart.ErrInvalidQuantity):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrForbidden):
		status, msg = http.StatusForbidden, "forbidden"
	case errors.Is(err, service.ErrNotFound):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, service.ErrConflict), errors.Is(err, models.ErrInvalidTransition):
		status, msg = http.StatusConflict, err.Error()
	}

	if status >= http.StatusInternalServerError {
		l.Error(event, "status", status, "error", err)
	} else {
		l.Warn(event, "status", status, "reason", msg, "error", err)
	}
	return echo.NewHTTPError(status, msg)
}

func badRequest(l *slog.Logger, event, reason string, err error) error {
	l.Warn(event, "status", http.StatusBadRequest, "reason", reason, "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, reason)
}

func unauthorized(l *slog.Logger, event string, err error) error {
	l.Warn(event, "status", http.StatusUnauthorized, "error", err)
	return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
}
