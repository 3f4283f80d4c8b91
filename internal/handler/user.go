package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ecotrack/waste-admin/internal/config"
	"github.com/ecotrack/waste-admin/internal/middleware"
	"github.com/ecotrack/waste-admin/internal/model"
	"github.com/ecotrack/waste-admin/internal/queue"
	"github.com/ecotrack/waste-admin/internal/repository"
	queue_publisher "github.com/ecotrack/waste-admin/internal/service"
	"github.com/ecotrack/waste-admin/internal/utils"
)

// UserHandler bundles dependencies for user management endpoints.
type UserHandler struct {
	Cfg          config.Config
	Users        *repository.UserRepo
	Memberships  *repository.MembershipRepo
	Institutions *repository.InstitutionRepo
}

func NewUserHandler(cfg config.Config, u *repository.UserRepo, m *repository.MembershipRepo, i *repository.InstitutionRepo) *UserHandler {
	return &UserHandler{Cfg: cfg, Users: u, Memberships: m, Institutions: i}
}

// userView is the sanitized user representation returned by the API.
// The password hash is never serialized.
type userView struct {
	ID           uint64                      `json:"id"`
	Email        string                      `json:"email"`
	GlobalRole   string                      `json:"globalRole"`
	IsActive     bool                        `json:"isActive"`
	CreatedAt    time.Time                   `json:"createdAt"`
	Institutions []model.IdentityInstitution `json:"institutions"`
}

func viewOf(u model.User, insts []model.IdentityInstitution) userView {
	if insts == nil {
		insts = []model.IdentityInstitution{}
	}
	return userView{
		ID:           u.ID,
		Email:        u.Email,
		GlobalRole:   u.GlobalRole,
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
		Institutions: insts,
	}
}

// ----- DTOs -----

type createUserReq struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	GlobalRole      string `json:"globalRole"`
	InstitutionID   uint64 `json:"institutionId"`
	InstitutionRole string `json:"institutionRole"`
}

type updateUserReq struct {
	Email      *string `json:"email"`
	Password   *string `json:"password"`
	GlobalRole *string `json:"globalRole"`
	IsActive   *bool   `json:"isActive"`
}

type assignReq struct {
	InstitutionID   uint64 `json:"institutionId"`
	InstitutionRole string `json:"institutionRole"`
}

// List returns every user with their institution memberships.
func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.ListAll(ctx)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "list users failed")
	}
	views := make([]userView, 0, len(users))
	for _, u := range users {
		insts, err := h.Memberships.ListForUser(ctx, u.ID)
		if err != nil {
			return fail(c, http.StatusInternalServerError, "list users failed")
		}
		views = append(views, viewOf(u, insts))
	}
	return respond(c, http.StatusOK, "", echo.Map{"users": views})
}

// ListByInstitution returns the members of one institution.  Access is
// enforced by the institution-role guard on the route.
func (h *UserHandler) ListByInstitution(c echo.Context) error {
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
		return fail(c, http.StatusInternalServerError, "list members failed")
	}
	members, err := h.Memberships.ListForInstitution(ctx, instID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "list members failed")
	}

	type memberView struct {
		ID              uint64    `json:"id"`
		Email           string    `json:"email"`
		GlobalRole      string    `json:"globalRole"`
		IsActive        bool      `json:"isActive"`
		InstitutionRole string    `json:"institutionRole"`
		CreatedAt       time.Time `json:"createdAt"`
	}
	views := make([]memberView, 0, len(members))
	for _, m := range members {
		views = append(views, memberView{
			ID: m.UserID, Email: m.Email, GlobalRole: m.GlobalRole,
			IsActive: m.IsActive, InstitutionRole: m.InstitutionRole, CreatedAt: m.CreatedAt,
		})
	}
	return respond(c, http.StatusOK, "", echo.Map{
		"institution": echo.Map{"id": inst.ID, "name": inst.Name},
		"users":       views,
	})
}

// Create registers a new user and optionally assigns it to an
// institution in the same call.  A caller without the platform admin
// role may only create STANDARD_USER accounts.
func (h *UserHandler) Create(c echo.Context) error {
	actor := middleware.CurrentIdentity(c)
	if actor == nil {
		return fail(c, http.StatusUnauthorized, "authentication required")
	}

	var req createUserReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, "email and password are required")
	}
	role := req.GlobalRole
	if role == "" {
		role = model.RoleStandardUser
	}
	if !model.ValidGlobalRole(role) {
		return fail(c, http.StatusBadRequest, "invalid global role")
	}
	if actor.GlobalRole != model.RolePlatformAdmin && role != model.RoleStandardUser {
		return fail(c, http.StatusForbidden, "cannot create users with this role")
	}
	if req.InstitutionID != 0 && !model.ValidInstitutionRole(req.InstitutionRole) {
		return fail(c, http.StatusBadRequest, "invalid institution role")
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "create user failed")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Users.Create(ctx, req.Email, hash, role, true)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return fail(c, http.StatusConflict, "email is already in use")
		}
		return fail(c, http.StatusInternalServerError, "create user failed")
	}

	if req.InstitutionID != 0 {
		if _, err := h.Institutions.GetByID(ctx, req.InstitutionID); err != nil {
			if errors.Is(err, repository.ErrInstitutionNotFound) {
				return fail(c, http.StatusNotFound, "institution not found")
			}
			return fail(c, http.StatusInternalServerError, "create user failed")
		}
		if err := h.Memberships.Upsert(ctx, id, req.InstitutionID, req.InstitutionRole); err != nil {
			return fail(c, http.StatusInternalServerError, "assign institution failed")
		}
	}

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "create user failed")
	}
	insts, err := h.Memberships.ListForUser(ctx, id)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "create user failed")
	}

	_ = queue_publisher.PublishAccountEvent(ctx, queue.AccountEvent{
		Kind:       queue.EventUserCreated,
		UserID:     u.ID,
		Email:      u.Email,
		GlobalRole: u.GlobalRole,
		ActorID:    actor.ID,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})

	return respond(c, http.StatusCreated, "user created", echo.Map{"user": viewOf(u, insts)})
}

// Update applies a partial update to a user.  Only a platform admin may
// touch the global role, and nobody may change their own.
func (h *UserHandler) Update(c echo.Context) error {
	actor := middleware.CurrentIdentity(c)
	if actor == nil {
		return fail(c, http.StatusUnauthorized, "authentication required")
	}
	userID, ok := pathID(c, "userId")
	if !ok {
		return fail(c, http.StatusBadRequest, "user id required")
	}

	var req updateUserReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	if req.GlobalRole != nil {
		if !model.ValidGlobalRole(*req.GlobalRole) {
			return fail(c, http.StatusBadRequest, "invalid global role")
		}
		if actor.GlobalRole != model.RolePlatformAdmin {
			return fail(c, http.StatusForbidden, "cannot modify the global role")
		}
		if userID == actor.ID && *req.GlobalRole != actor.GlobalRole {
			return fail(c, http.StatusBadRequest, "cannot change your own role")
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return fail(c, http.StatusNotFound, "user not found")
		}
		return fail(c, http.StatusInternalServerError, "update user failed")
	}

	upd := repository.UserUpdate{
		Email:      req.Email,
		GlobalRole: req.GlobalRole,
		IsActive:   req.IsActive,
	}
	if req.Password != nil && *req.Password != "" {
		hash, err := utils.HashPassword(*req.Password, h.Cfg.BcryptCost)
		if err != nil {
			return fail(c, http.StatusInternalServerError, "update user failed")
		}
		upd.PasswordHash = &hash
	}

	u, err := h.Users.Update(ctx, userID, upd)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			return fail(c, http.StatusConflict, "email is already in use")
		case errors.Is(err, repository.ErrUserNotFound):
			return fail(c, http.StatusNotFound, "user not found")
		default:
			return fail(c, http.StatusInternalServerError, "update user failed")
		}
	}
	insts, err := h.Memberships.ListForUser(ctx, userID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "update user failed")
	}
	return respond(c, http.StatusOK, "user updated", echo.Map{"user": viewOf(u, insts)})
}

// Delete removes a user and all its memberships.  Deleting one's own
// account is always rejected.
func (h *UserHandler) Delete(c echo.Context) error {
	actor := middleware.CurrentIdentity(c)
	if actor == nil {
		return fail(c, http.StatusUnauthorized, "authentication required")
	}
	userID, ok := pathID(c, "userId")
	if !ok {
		return fail(c, http.StatusBadRequest, "user id required")
	}
	if userID == actor.ID {
		return fail(c, http.StatusBadRequest, "cannot delete your own account")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return fail(c, http.StatusNotFound, "user not found")
		}
		return fail(c, http.StatusInternalServerError, "delete user failed")
	}
	if err := h.Users.Delete(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return fail(c, http.StatusNotFound, "user not found")
		}
		return fail(c, http.StatusInternalServerError, "delete user failed")
	}

	_ = queue_publisher.PublishAccountEvent(ctx, queue.AccountEvent{
		Kind:       queue.EventUserDeleted,
		UserID:     u.ID,
		Email:      u.Email,
		ActorID:    actor.ID,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})

	return respond(c, http.StatusOK, "user deleted", nil)
}

// Assign adds or updates a user's membership in an institution.  The
// unique (user, institution) key gives this upsert semantics: assigning
// the same pair twice updates the role and never duplicates the row.
func (h *UserHandler) Assign(c echo.Context) error {
	userID, ok := pathID(c, "userId")
	if !ok {
		return fail(c, http.StatusBadRequest, "user id required")
	}
	var req assignReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if req.InstitutionID == 0 || req.InstitutionRole == "" {
		return fail(c, http.StatusBadRequest, "institution id and role are required")
	}
	if !model.ValidInstitutionRole(req.InstitutionRole) {
		return fail(c, http.StatusBadRequest, "invalid institution role")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return fail(c, http.StatusNotFound, "user not found")
		}
		return fail(c, http.StatusInternalServerError, "assign failed")
	}
	if _, err := h.Institutions.GetByID(ctx, req.InstitutionID); err != nil {
		if errors.Is(err, repository.ErrInstitutionNotFound) {
			return fail(c, http.StatusNotFound, "institution not found")
		}
		return fail(c, http.StatusInternalServerError, "assign failed")
	}
	if err := h.Memberships.Upsert(ctx, userID, req.InstitutionID, req.InstitutionRole); err != nil {
		return fail(c, http.StatusInternalServerError, "assign failed")
	}
	return respond(c, http.StatusOK, "user assigned to institution", nil)
}

// Remove deletes a user's membership in an institution.
func (h *UserHandler) Remove(c echo.Context) error {
	userID, ok := pathID(c, "userId")
	if !ok {
		return fail(c, http.StatusBadRequest, "user id required")
	}
	instID, ok := pathID(c, "institutionId")
	if !ok {
		return fail(c, http.StatusBadRequest, "institution id required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Memberships.Delete(ctx, userID, instID); err != nil {
		if errors.Is(err, repository.ErrMembershipNotFound) {
			return fail(c, http.StatusNotFound, "user is not a member of this institution")
		}
		return fail(c, http.StatusInternalServerError, "remove failed")
	}
	return respond(c, http.StatusOK, "user removed from institution", nil)
}
