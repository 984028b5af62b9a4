package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/food_market/internal/authclient"
	"github.com/Skotchmaster/food_market/internal/logging"
	"github.com/Skotchmaster/food_market/internal/role"
	"github.com/Skotchmaster/food_market/internal/tokens"
)

const (
	CtxUserID = "user_id"
	CtxRole   = "role"
)

// Refresher renews an expired access token with the auth provider.
type Refresher interface {
	RefreshTokens(ctx context.Context, refreshToken, accessToken string) (*authclient.RefreshResponse, error)
}

// RoleLookup resolves the role a user currently has. Roles are read from the
// profile store on every request, so a promotion takes effect immediately.
type RoleLookup interface {
	RoleOf(ctx context.Context, userID uuid.UUID) (role.Role, error)
}

type AutoRefreshMiddleware struct {
	JWTSecret []byte
	Refresher Refresher
	Roles     RoleLookup
}

func NewAutoRefreshMiddleware(secret []byte, refresher Refresher, roles RoleLookup) *AutoRefreshMiddleware {
	return &AutoRefreshMiddleware{
		JWTSecret: secret,
		Refresher: refresher,
		Roles:     roles,
	}
}

func (m *AutoRefreshMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.authenticate(next, nil)
}

// RequireRole admits only users whose role is one of allowed.
func (m *AutoRefreshMiddleware) RequireRole(allowed ...role.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return m.authenticate(next, allowed)
	}
}

func (m *AutoRefreshMiddleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.authenticate(next, []role.Role{role.Admin})
}

func (m *AutoRefreshMiddleware) authenticate(next echo.HandlerFunc, allowed []role.Role) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("middleware", "auth")

		access, fromCookie := accessToken(c)
		if access == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		claims, err := tokens.AccessClaimsFromToken(access, m.JWTSecret)
		if err != nil {
			if !fromCookie || !errors.Is(err, jwt.ErrTokenExpired) {
				if fromCookie {
					clearAuthCookies(c)
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
			}
			claims, err = m.refresh(c, access)
			if err != nil {
				l.Warn("token_refresh_failed", "error", err)
				clearAuthCookies(c)
				return echo.NewHTTPError(http.StatusUnauthorized, "refresh failed")
			}
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid subject")
		}

		r, err := m.Roles.RoleOf(ctx, userID)
		if err != nil {
			l.Warn("role_lookup_failed", "user_id", userID, "error", err)
			return echo.NewHTTPError(http.StatusForbidden, "no profile for user")
		}
		if len(allowed) > 0 && !contains(allowed, r) {
			return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
		}

		c.Set(CtxUserID, userID.String())
		c.Set(CtxRole, r)
		return next(c)
	}
}

func (m *AutoRefreshMiddleware) refresh(c echo.Context, access string) (*tokens.AccessClaims, error) {
	refreshCookie, err := c.Cookie(tokens.RefreshCookie)
	if err != nil || refreshCookie.Value == "" {
		return nil, errors.New("refresh token missing")
	}

	res, err := m.Refresher.RefreshTokens(c.Request().Context(), refreshCookie.Value, access)
	if err != nil {
		return nil, err
	}

	claims, err := tokens.AccessClaimsFromToken(res.AccessToken, m.JWTSecret)
	if err != nil {
		return nil, err
	}

	c.SetCookie(tokens.CreateCookie(tokens.AccessCookie, res.AccessToken, "/", time.Unix(res.AccessExp, 0)))
	c.SetCookie(tokens.CreateCookie(tokens.RefreshCookie, res.RefreshToken, "/", time.Unix(res.RefreshExp, 0)))
	return claims, nil
}

// accessToken prefers the cookie and falls back to a bearer header.
func accessToken(c echo.Context) (string, bool) {
	if ck, err := c.Cookie(tokens.AccessCookie); err == nil && ck.Value != "" {
		return ck.Value, true
	}
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	if t, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(t), false
	}
	return "", false
}

func contains(rs []role.Role, r role.Role) bool {
	for _, x := range rs {
		if x == r {
			return true
		}
	}
	return false
}

func clearAuthCookies(c echo.Context) {
	c.SetCookie(tokens.DeleteCookie(tokens.AccessCookie, "/"))
	c.SetCookie(tokens.DeleteCookie(tokens.RefreshCookie, "/"))
}
