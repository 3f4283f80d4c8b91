// Package middleware provides the authentication and authorization chain
// applied in front of protected handlers.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ecotrack/waste-admin/internal/model"
	"github.com/ecotrack/waste-admin/internal/repository"
	"github.com/ecotrack/waste-admin/internal/utils"
)

// identityKey is the context key under which the resolved identity
// snapshot is stored for downstream guards and handlers.
const identityKey = "identity"

// CurrentIdentity returns the identity snapshot attached by Authenticate,
// or nil when the request was not authenticated.
func CurrentIdentity(c echo.Context) *model.Identity {
	if id, ok := c.Get(identityKey).(*model.Identity); ok {
		return id
	}
	return nil
}

// SetIdentity attaches an identity snapshot to the context.  Exported for
// tests that exercise guards without running the full middleware.
func SetIdentity(c echo.Context, id *model.Identity) {
	c.Set(identityKey, id)
}

// Authenticate returns an Echo middleware that validates a Bearer access
// token and resolves it to a live user.  The user record and its
// memberships are read fresh from the database on every request rather
// than trusted from token claims, so role and membership changes apply on
// the next request, not after token expiry.
//
// Failure modes: missing or malformed Authorization header -> 401;
// invalid or expired token -> 403; unknown or deactivated user -> 403.
func Authenticate(accessSecret string, users *repository.UserRepo, memberships *repository.MembershipRepo) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			userID, err := utils.VerifyToken(accessSecret, raw)
			if err != nil {
				// Expired and invalid tokens are distinct internally but
				// produce the same response to the client.
				return c.JSON(http.StatusForbidden, echo.Map{"success": false, "message": "invalid or expired token"})
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			u, err := users.GetByID(ctx, userID)
			if err != nil {
				if errors.Is(err, repository.ErrUserNotFound) {
					return c.JSON(http.StatusForbidden, echo.Map{"success": false, "message": "user not found or inactive"})
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "authentication failed"})
			}
			if !u.IsActive {
				return c.JSON(http.StatusForbidden, echo.Map{"success": false, "message": "user not found or inactive"})
			}

			insts, err := memberships.ListForUser(ctx, u.ID)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "authentication failed"})
			}

			SetIdentity(c, &model.Identity{
				ID:           u.ID,
				Email:        u.Email,
				GlobalRole:   u.GlobalRole,
				Institutions: insts,
			})
			return next(c)
		}
	}
}
