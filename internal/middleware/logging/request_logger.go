package loggingmw

import (
	"log/slog"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/food_market/internal/logging"
	authmw "github.com/Skotchmaster/food_market/internal/middleware/auth"
)

// RequestLogger puts a request scoped logger into the context and writes one
// line per finished request. Health probes are not logged.
func RequestLogger(base *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if strings.HasPrefix(c.Request().URL.Path, "/health/") {
				return next(c)
			}

			rid := c.Request().Header.Get(echo.HeaderXRequestID)
			if rid == "" {
				rid = c.Response().Header().Get(echo.HeaderXRequestID)
			}
			l := base.With(
				"method", c.Request().Method,
				"route", c.Path(),
				"remote_ip", c.RealIP(),
			)
			if rid != "" {
				l = l.With("request_id", rid)
				c.Response().Header().Set(echo.HeaderXRequestID, rid)
			}
			c.SetRequest(c.Request().WithContext(logging.IntoContext(c.Request().Context(), l)))

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			attrs := []any{"status", c.Response().Status, "duration_ms", time.Since(start).Milliseconds()}
			if uid, ok := c.Get(authmw.CtxUserID).(string); ok {
				attrs = append(attrs, "user_id", uid, "role", c.Get(authmw.CtxRole))
			}
			if err != nil {
				attrs = append(attrs, "error", err.Error())
			}

			switch status := c.Response().Status; {
			case status >= 500:
				l.Error("request completed", attrs...)
			case status >= 400:
				l.Warn("request completed", attrs...)
			default:
				l.Info("request completed", append(attrs, "bytes", c.Response().Size)...)
			}
			return nil
		}
	}
}
