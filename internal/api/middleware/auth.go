package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/rulesiliveby/rules-api/internal/pkg/token"
)

// ContextUserID is the echo context key carrying the authenticated user id.
const ContextUserID = "user_id"

// Authenticate extracts the bearer access token, verifies it, and attaches
// the resolved user id to the request context. It is a read-only gate: an
// absent or invalid token leaves the request unauthenticated and the request
// proceeds — RequireAuth decides whether that is acceptable.
func Authenticate(tokens *token.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return next(c)
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return next(c)
			}

			userID, err := tokens.Verify(parts[1])
			if err != nil {
				return next(c)
			}

			c.Set(ContextUserID, userID)
			return next(c)
		}
	}
}

// RequireAuth rejects requests that carry no authenticated principal.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, _ := c.Get(ContextUserID).(string)
			if userID == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			return next(c)
		}
	}
}
