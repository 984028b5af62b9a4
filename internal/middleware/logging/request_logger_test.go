package loggingmw

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/food_market/internal/logging"
	authmw "github.com/Skotchmaster/food_market/internal/middleware/auth"
	"github.com/Skotchmaster/food_market/internal/role"
)

func lines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		out = append(out, m)
	}
	return out
}

func newEcho(buf *bytes.Buffer) *echo.Echo {
	e := echo.New()
	e.Use(RequestLogger(logging.NewWithWriter(buf, "info")))
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/api/v1/orders/:id", func(c echo.Context) error {
		c.Set(authmw.CtxUserID, "u-1")
		c.Set(authmw.CtxRole, role.Customer)
		logging.FromContext(c.Request().Context()).Info("inside")
		return c.NoContent(http.StatusNoContent)
	})
	e.GET("/api/v1/boom", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusConflict, "nope")
	})
	return e
}

func TestRequestLogger_Success(t *testing.T) {
	var buf bytes.Buffer
	e := newEcho(&buf)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/42", nil)
	req.Header.Set(echo.HeaderXRequestID, "rid-1")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "rid-1", rec.Header().Get(echo.HeaderXRequestID))

	got := lines(t, &buf)
	require.Len(t, got, 2)
	assert.Equal(t, "inside", got[0]["msg"])
	assert.Equal(t, "rid-1", got[0]["request_id"])
	assert.Equal(t, "/api/v1/orders/:id", got[1]["route"])
	assert.Equal(t, "u-1", got[1]["user_id"])
	assert.Equal(t, "customer", got[1]["role"])
	assert.Equal(t, "INFO", got[1]["level"])
}

func TestRequestLogger_ErrorIsRendered(t *testing.T) {
	var buf bytes.Buffer
	e := newEcho(&buf)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/boom", nil))

	assert.Equal(t, http.StatusConflict, rec.Code)
	got := lines(t, &buf)
	require.Len(t, got, 1)
	assert.Equal(t, "WARN", got[0]["level"])
	assert.EqualValues(t, http.StatusConflict, got[0]["status"])
	assert.NotContains(t, got[0], "user_id")
}

func TestRequestLogger_SkipsHealth(t *testing.T) {
	var buf bytes.Buffer
	e := newEcho(&buf)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, buf.Len())
}
