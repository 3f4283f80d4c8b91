package router

import (
	"github.com/labstack/echo/v4"

	"github.com/ecotrack/waste-admin/internal/handler"
	"github.com/ecotrack/waste-admin/internal/middleware"
	"github.com/ecotrack/waste-admin/internal/model"
)

// RegisterUsers registers user management endpoints under /v1/users.
// Listing all users, deleting users and managing memberships are
// platform-admin operations; creation and update are open to any
// authenticated caller with the finer rules enforced in the handlers.
func RegisterUsers(e *echo.Echo, h *handler.UserHandler, authn echo.MiddlewareFunc) {
	g := e.Group("/v1/users", authn)

	g.GET("", h.List, middleware.RequireGlobalRole(model.RolePlatformAdmin))
	g.POST("", h.Create)
	g.PUT("/:userId", h.Update)
	g.DELETE("/:userId", h.Delete, middleware.RequireGlobalRole(model.RolePlatformAdmin))

	// Institution-scoped listing: members and institution admins of the
	// targeted institution, with the usual platform-admin bypass.
	g.GET("/institution/:institutionId", h.ListByInstitution,
		middleware.RequireInstitutionRole("institutionId", model.InstitutionAdmin, model.InstitutionEditor))

	g.POST("/:userId/institution", h.Assign, middleware.RequireGlobalRole(model.RolePlatformAdmin))
	g.DELETE("/:userId/institution/:institutionId", h.Remove, middleware.RequireGlobalRole(model.RolePlatformAdmin))
}
