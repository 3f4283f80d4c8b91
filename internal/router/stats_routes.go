package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/ecotrack/waste-admin/internal/config"
	"github.com/ecotrack/waste-admin/internal/handler"
	"github.com/ecotrack/waste-admin/internal/middleware"
	"github.com/ecotrack/waste-admin/internal/model"
)

// RegisterStats registers the dashboard endpoints under /v1/stats.  The
// admin view is platform-admin only; the institution view is open to the
// owning institution admin (platform admins bypass as everywhere).
// Responses are cached in Redis for a short TTL; the cache sits after
// the guards so it can never serve data to an unauthorized caller.
func RegisterStats(e *echo.Echo, h *handler.StatsHandler, authn echo.MiddlewareFunc, cacheCfg config.CacheConfig, rdb *redis.Client) {
	g := e.Group("/v1/stats", authn)
	cache := middleware.StatsCache(cacheCfg, rdb)

	g.GET("/admin", h.Admin,
		middleware.RequireGlobalRole(model.RolePlatformAdmin), cache)
	g.GET("/institution/:institutionId", h.Institution,
		middleware.RequireInstitutionRole("institutionId", model.InstitutionAdmin), cache)
}
