package router

import (
	"github.com/labstack/echo/v4"

	"github.com/ecotrack/waste-admin/internal/handler"
)

// RegisterAuth registers the session endpoints.  Login and refresh are
// public; logout and me require a valid access token via the provided
// authentication middleware.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, authn echo.MiddlewareFunc) {
	g := e.Group("/v1/auth")
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)

	g.POST("/logout", a.Logout, authn)
	g.GET("/me", a.Me, authn)
}
