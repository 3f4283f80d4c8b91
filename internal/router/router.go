// Package router defines how HTTP routes are registered for the API.
// Guards compose in a fixed order on every protected route: authenticate
// first, then the global-role gate if any, then the institution-role gate
// if any.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/ecotrack/waste-admin/internal/handler"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only the health check used by load balancers.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}
