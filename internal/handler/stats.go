package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ecotrack/waste-admin/internal/repository"
)

// StatsHandler serves the read-only dashboard projections.  All access
// control happens in the guards registered on the routes; by the time a
// request reaches these handlers it is already authorized.
type StatsHandler struct {
	Stats        *repository.StatsRepo
	Institutions *repository.InstitutionRepo
}

func NewStatsHandler(s *repository.StatsRepo, i *repository.InstitutionRepo) *StatsHandler {
	return &StatsHandler{Stats: s, Institutions: i}
}

// Admin returns platform-wide aggregates for the admin dashboard.
func (h *StatsHandler) Admin(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	stats, err := h.Stats.Admin(ctx)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "load statistics failed")
	}
	return respond(c, http.StatusOK, "", stats)
}

// Institution returns member aggregates for one institution.
func (h *StatsHandler) Institution(c echo.Context) error {
	instID, ok := pathID(c, "institutionId")
	if !ok {
		return fail(c, http.StatusBadRequest, "institution id required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	inst, err := h.Institutions.GetByID(ctx, instID)
	if err != nil {
		if errors.Is(err, repository.ErrInstitutionNotFound) {
			return fail(c, http.StatusNotFound, "institution not found")
		}
		return fail(c, http.StatusInternalServerError, "load statistics failed")
	}
	stats, err := h.Stats.Institution(ctx, instID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "load statistics failed")
	}
	return respond(c, http.StatusOK, "", echo.Map{
		"institution": instViewOf(inst),
		"stats":       stats,
	})
}
