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
	"github.com/ecotrack/waste-admin/internal/repository"
	"github.com/ecotrack/waste-admin/internal/utils"
)

// AuthHandler bundles dependencies for the session endpoints.
type AuthHandler struct {
	Cfg         config.Config
	Users       *repository.UserRepo
	Memberships *repository.MembershipRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, m *repository.MembershipRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Memberships: m}
}

// ----- DTOs -----

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}

// Login verifies credentials and returns a sanitized user view together
// with one access and one refresh token.  Unknown email and wrong
// password produce the identical response so the endpoint cannot be used
// to enumerate accounts.  Nothing is persisted: token possession is the
// session.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, "email and password are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return fail(c, http.StatusUnauthorized, "invalid credentials")
		}
		return fail(c, http.StatusInternalServerError, "login failed")
	}
	if !u.IsActive {
		return fail(c, http.StatusForbidden, "account is disabled")
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return fail(c, http.StatusUnauthorized, "invalid credentials")
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTAccessSecret, u.ID, h.Cfg.AccessTTLMin)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "issue access token failed")
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.JWTRefreshSecret, u.ID, h.Cfg.RefreshTTLDays)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "issue refresh token failed")
	}

	insts, err := h.Memberships.ListForUser(ctx, u.ID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "login failed")
	}

	return respond(c, http.StatusOK, "authenticated", echo.Map{
		"user":         viewOf(u, insts),
		"accessToken":  access.Token,
		"refreshToken": refresh.Token,
	})
}

// Logout is a stateless no-op: no session row exists and no revocation
// list is kept, so invalidating tokens is the client's responsibility.
func (h *AuthHandler) Logout(c echo.Context) error {
	return respond(c, http.StatusOK, "logged out", nil)
}

// Refresh exchanges a valid refresh token for a new access token.  The
// refresh token itself is not rotated.  The user is re-checked so a
// deactivated or deleted account cannot keep minting access tokens.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return fail(c, http.StatusBadRequest, "refreshToken is required")
	}

	userID, err := utils.VerifyToken(h.Cfg.JWTRefreshSecret, strings.TrimSpace(req.RefreshToken))
	if err != nil {
		return fail(c, http.StatusForbidden, "invalid or expired refresh token")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return fail(c, http.StatusForbidden, "user invalid or inactive")
		}
		return fail(c, http.StatusInternalServerError, "refresh failed")
	}
	if !u.IsActive {
		return fail(c, http.StatusForbidden, "user invalid or inactive")
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTAccessSecret, u.ID, h.Cfg.AccessTTLMin)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "issue access token failed")
	}
	return respond(c, http.StatusOK, "", echo.Map{"accessToken": access.Token})
}

// Me returns the current identity.  The user and memberships are re-read
// here; in the rare race where the record vanished between authentication
// and this read, a 404 is returned.
func (h *AuthHandler) Me(c echo.Context) error {
	id := middleware.CurrentIdentity(c)
	if id == nil {
		return fail(c, http.StatusUnauthorized, "authentication required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id.ID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return fail(c, http.StatusNotFound, "user not found")
		}
		return fail(c, http.StatusInternalServerError, "load user failed")
	}
	insts, err := h.Memberships.ListForUser(ctx, u.ID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "load user failed")
	}
	return respond(c, http.StatusOK, "", echo.Map{"user": viewOf(u, insts)})
}
