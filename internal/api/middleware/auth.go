package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/MikeLinPlan/account-system/internal/api/metrics"
	"github.com/MikeLinPlan/account-system/internal/core/domain"
	"github.com/MikeLinPlan/account-system/internal/core/ports"
)

// Auth authenticates the request and enforces a minimum role. Two credentials
// are accepted, tried in order: the signed session cookie, then the personal
// access token via "Authorization: Bearer". Missing or invalid credentials
// produce 401; an authenticated but disabled or under-privileged account
// produces 403.
func Auth(secret string, users ports.UserRepository, minRole int) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, err := resolvePrincipal(c, secret, users)
			if err != nil {
				return err
			}

			if p.Status != domain.UserStatusEnabled {
				metrics.AuthFailuresTotal.WithLabelValues("disabled").Inc()
				return echo.NewHTTPError(http.StatusForbidden, "user is disabled")
			}
			if p.Role < minRole {
				metrics.AuthFailuresTotal.WithLabelValues("insufficient_role").Inc()
				return echo.NewHTTPError(http.StatusForbidden, "insufficient privileges")
			}

			SetPrincipal(c, p)
			return next(c)
		}
	}
}

func resolvePrincipal(c echo.Context, secret string, users ports.UserRepository) (*Principal, error) {
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		p, err := parseSessionCookie(cookie.Value, secret)
		if err != nil {
			metrics.AuthFailuresTotal.WithLabelValues("invalid_session").Inc()
			return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid session")
		}
		return p, nil
	}

	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		metrics.AuthFailuresTotal.WithLabelValues("missing_credentials").Inc()
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "not logged in and no access token provided")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		metrics.AuthFailuresTotal.WithLabelValues("invalid_bearer").Inc()
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}

	user, err := users.FindByAccessToken(c.Request().Context(), parts[1])
	if err != nil {
		metrics.AuthFailuresTotal.WithLabelValues("invalid_bearer").Inc()
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
	}

	return &Principal{
		ID:       user.ID,
		Username: user.Username,
		Role:     user.Role,
		Status:   user.Status,
		Bearer:   true,
	}, nil
}
