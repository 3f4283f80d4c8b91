package router

import (
	"github.com/labstack/echo/v4"

	"github.com/ecotrack/waste-admin/internal/handler"
	"github.com/ecotrack/waste-admin/internal/middleware"
	"github.com/ecotrack/waste-admin/internal/model"
)

// RegisterInstitutions registers institution management endpoints under
// /v1/institutions.  Mutations are platform-admin only; the list is also
// open to regulator viewers, and single-institution reads are available
// to that institution's members.
func RegisterInstitutions(e *echo.Echo, h *handler.InstitutionHandler, authn echo.MiddlewareFunc) {
	g := e.Group("/v1/institutions", authn)

	g.GET("", h.List, middleware.RequireGlobalRole(model.RolePlatformAdmin, model.RoleRegulatorViewer))
	g.GET("/:institutionId", h.Get,
		middleware.RequireInstitutionRole("institutionId", model.InstitutionAdmin, model.InstitutionEditor))

	g.POST("", h.Create, middleware.RequireGlobalRole(model.RolePlatformAdmin))
	g.PUT("/:institutionId", h.Update, middleware.RequireGlobalRole(model.RolePlatformAdmin))
	g.PATCH("/:institutionId/toggle-active", h.ToggleActive, middleware.RequireGlobalRole(model.RolePlatformAdmin))
	g.DELETE("/:institutionId", h.Delete, middleware.RequireGlobalRole(model.RolePlatformAdmin))
}
