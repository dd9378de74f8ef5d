package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rulesiliveby/rules-api/internal/api/middleware"
)

// principal extracts the authenticated user id injected by the Authenticate
// middleware. Routes behind RequireAuth always have one; the check here is a
// fast-fail guard for misconfigured routes.
func principal(c echo.Context) (string, error) {
	userID, _ := c.Get(middleware.ContextUserID).(string)
	if userID == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return userID, nil
}
