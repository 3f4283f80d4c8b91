package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ecotrack/waste-admin/internal/middleware"
	"github.com/ecotrack/waste-admin/internal/model"
	"github.com/ecotrack/waste-admin/internal/queue"
	"github.com/ecotrack/waste-admin/internal/repository"
	queue_publisher "github.com/ecotrack/waste-admin/internal/service"
)

// InstitutionHandler bundles dependencies for institution management.
type InstitutionHandler struct {
	Institutions *repository.InstitutionRepo
	Memberships  *repository.MembershipRepo
}

func NewInstitutionHandler(i *repository.InstitutionRepo, m *repository.MembershipRepo) *InstitutionHandler {
	return &InstitutionHandler{Institutions: i, Memberships: m}
}

// ----- DTOs -----

type createInstitutionReq struct {
	Name           string `json:"name"`
	Type           string `json:"type"`
	TerritoryLevel string `json:"territoryLevel"`
	TerritoryCode  string `json:"territoryCode"`
}

type updateInstitutionReq struct {
	Name           *string `json:"name"`
	Type           *string `json:"type"`
	TerritoryLevel *string `json:"territoryLevel"`
	TerritoryCode  *string `json:"territoryCode"`
	IsActive       *bool   `json:"isActive"`
}

type institutionView struct {
	ID             uint64    `json:"id"`
	Name           string    `json:"name"`
	Type           string    `json:"type"`
	TerritoryLevel string    `json:"territoryLevel"`
	TerritoryCode  string    `json:"territoryCode"`
	IsActive       bool      `json:"isActive"`
	CreatedAt      time.Time `json:"createdAt"`
}

func instViewOf(i *model.Institution) institutionView {
	return institutionView{
		ID:             i.ID,
		Name:           i.Name,
		Type:           i.Type,
		TerritoryLevel: i.TerritoryLevel,
		TerritoryCode:  i.TerritoryCode,
		IsActive:       i.IsActive,
		CreatedAt:      i.CreatedAt,
	}
}

type institutionMemberView struct {
	ID              uint64 `json:"id"`
	Email           string `json:"email"`
	GlobalRole      string `json:"globalRole"`
	IsActive        bool   `json:"isActive"`
	InstitutionRole string `json:"institutionRole"`
}

// List returns every institution with its member count and a short
// member summary.
func (h *InstitutionHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	insts, err := h.Institutions.List(ctx)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "list institutions failed")
	}

	type listItem struct {
		institutionView
		UsersCount int                     `json:"usersCount"`
		Users      []institutionMemberView `json:"users"`
	}
	items := make([]listItem, 0, len(insts))
	for _, inst := range insts {
		members, err := h.Memberships.ListForInstitution(ctx, inst.ID)
		if err != nil {
			return fail(c, http.StatusInternalServerError, "list institutions failed")
		}
		views := make([]institutionMemberView, 0, len(members))
		for _, m := range members {
			views = append(views, institutionMemberView{
				ID: m.UserID, Email: m.Email, GlobalRole: m.GlobalRole,
				IsActive: m.IsActive, InstitutionRole: m.InstitutionRole,
			})
		}
		items = append(items, listItem{
			institutionView: instViewOf(inst),
			UsersCount:      len(members),
			Users:           views,
		})
	}
	return respond(c, http.StatusOK, "", echo.Map{"institutions": items})
}

// Get returns one institution with its full member list.
func (h *InstitutionHandler) Get(c echo.Context) error {
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
		return fail(c, http.StatusInternalServerError, "load institution failed")
	}
	members, err := h.Memberships.ListForInstitution(ctx, instID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "load institution failed")
	}
	views := make([]institutionMemberView, 0, len(members))
	for _, m := range members {
		views = append(views, institutionMemberView{
			ID: m.UserID, Email: m.Email, GlobalRole: m.GlobalRole,
			IsActive: m.IsActive, InstitutionRole: m.InstitutionRole,
		})
	}
	return respond(c, http.StatusOK, "", echo.Map{
		"institution": instViewOf(inst),
		"users":       views,
	})
}

// Create registers a new institution.  The (name, territoryCode) pair
// must be unique; enum fields are validated against the shared
// definitions in the model package.
func (h *InstitutionHandler) Create(c echo.Context) error {
	var req createInstitutionReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Type == "" || req.TerritoryLevel == "" || req.TerritoryCode == "" {
		return fail(c, http.StatusBadRequest, "all fields are required")
	}
	if !model.ValidInstitutionType(req.Type) {
		return fail(c, http.StatusBadRequest, "invalid institution type")
	}
	if !model.ValidTerritoryLevel(req.TerritoryLevel) {
		return fail(c, http.StatusBadRequest, "invalid territory level")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	exists, err := h.Institutions.ExistsByNameAndCode(ctx, req.Name, req.TerritoryCode)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "create institution failed")
	}
	if exists {
		return fail(c, http.StatusConflict, "an institution with this name and code already exists")
	}

	inst := &model.Institution{
		Name:           req.Name,
		Type:           req.Type,
		TerritoryLevel: req.TerritoryLevel,
		TerritoryCode:  req.TerritoryCode,
		IsActive:       true,
	}
	if err := h.Institutions.Create(ctx, inst); err != nil {
		return fail(c, http.StatusInternalServerError, "create institution failed")
	}

	var actorID uint64
	if actor := middleware.CurrentIdentity(c); actor != nil {
		actorID = actor.ID
	}
	_ = queue_publisher.PublishAccountEvent(ctx, queue.AccountEvent{
		Kind:            queue.EventInstitutionCreated,
		InstitutionID:   inst.ID,
		InstitutionName: inst.Name,
		ActorID:         actorID,
		OccurredAt:      time.Now().UTC().Format(time.RFC3339),
	})

	return respond(c, http.StatusCreated, "institution created", echo.Map{"institution": instViewOf(inst)})
}

// Update applies a partial update to an institution.
func (h *InstitutionHandler) Update(c echo.Context) error {
	instID, ok := pathID(c, "institutionId")
	if !ok {
		return fail(c, http.StatusBadRequest, "institution id required")
	}
	var req updateInstitutionReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if req.Type != nil && !model.ValidInstitutionType(*req.Type) {
		return fail(c, http.StatusBadRequest, "invalid institution type")
	}
	if req.TerritoryLevel != nil && !model.ValidTerritoryLevel(*req.TerritoryLevel) {
		return fail(c, http.StatusBadRequest, "invalid territory level")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Institutions.GetByID(ctx, instID); err != nil {
		if errors.Is(err, repository.ErrInstitutionNotFound) {
			return fail(c, http.StatusNotFound, "institution not found")
		}
		return fail(c, http.StatusInternalServerError, "update institution failed")
	}

	inst, err := h.Institutions.Update(ctx, instID, repository.InstitutionUpdate{
		Name:           req.Name,
		Type:           req.Type,
		TerritoryLevel: req.TerritoryLevel,
		TerritoryCode:  req.TerritoryCode,
		IsActive:       req.IsActive,
	})
	if err != nil {
		if errors.Is(err, repository.ErrInstitutionNotFound) {
			return fail(c, http.StatusNotFound, "institution not found")
		}
		return fail(c, http.StatusInternalServerError, "update institution failed")
	}
	return respond(c, http.StatusOK, "institution updated", echo.Map{"institution": instViewOf(inst)})
}

// ToggleActive flips the active flag.
func (h *InstitutionHandler) ToggleActive(c echo.Context) error {
	instID, ok := pathID(c, "institutionId")
	if !ok {
		return fail(c, http.StatusBadRequest, "institution id required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	inst, err := h.Institutions.ToggleActive(ctx, instID)
	if err != nil {
		if errors.Is(err, repository.ErrInstitutionNotFound) {
			return fail(c, http.StatusNotFound, "institution not found")
		}
		return fail(c, http.StatusInternalServerError, "toggle institution failed")
	}
	return respond(c, http.StatusOK, "institution updated", echo.Map{"institution": instViewOf(inst)})
}

// Delete removes an institution.  An institution that still has members
// cannot be deleted; members must be removed first.
func (h *InstitutionHandler) Delete(c echo.Context) error {
	instID, ok := pathID(c, "institutionId")
	if !ok {
		return fail(c, http.StatusBadRequest, "institution id required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Institutions.Delete(ctx, instID); err != nil {
		switch {
		case errors.Is(err, repository.ErrInstitutionNotFound):
			return fail(c, http.StatusNotFound, "institution not found")
		case errors.Is(err, repository.ErrConflict):
			return fail(c, http.StatusConflict, "cannot delete an institution with assigned users")
		default:
			return fail(c, http.StatusInternalServerError, "delete institution failed")
		}
	}
	return respond(c, http.StatusOK, "institution deleted", nil)
}
