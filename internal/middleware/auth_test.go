package middleware

import (
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecotrack/waste-admin/internal/model"
	"github.com/ecotrack/waste-admin/internal/repository"
	"github.com/ecotrack/waste-admin/internal/utils"
)

const testAccessSecret = "test-access-secret"

func userRows(id uint64, email, role string, active bool) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "email", "password_hash", "global_role", "is_active", "created_at", "updated_at"}).
		AddRow(id, email, "$2a$10$hash", role, active, now, now)
}

func TestAuthenticateMissingToken(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	authn := Authenticate(testAccessSecret, repository.NewUserRepo(db), repository.NewMembershipRepo(db))
	c, rec := newTestContext(t, http.MethodGet, "/", "")

	require.NoError(t, authn(okHandler)(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing bearer token")
}

func TestAuthenticateInvalidToken(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	authn := Authenticate(testAccessSecret, repository.NewUserRepo(db), repository.NewMembershipRepo(db))
	c, rec := newTestContext(t, http.MethodGet, "/", "")
	c.Request().Header.Set("Authorization", "Bearer garbage")

	require.NoError(t, authn(okHandler)(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid or expired token")
}

func TestAuthenticateWrongSecret(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	tok, err := utils.NewAccessToken("some-other-secret", 1, 15)
	require.NoError(t, err)

	authn := Authenticate(testAccessSecret, repository.NewUserRepo(db), repository.NewMembershipRepo(db))
	c, rec := newTestContext(t, http.MethodGet, "/", "")
	c.Request().Header.Set("Authorization", "Bearer "+tok.Token)

	require.NoError(t, authn(okHandler)(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuthenticateUnknownUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	tok, err := utils.NewAccessToken(testAccessSecret, 77, 15)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id=").
		WithArgs(uint64(77)).
		WillReturnRows(sqlmock.NewRows([]string{"id"})) // no rows

	authn := Authenticate(testAccessSecret, repository.NewUserRepo(db), repository.NewMembershipRepo(db))
	c, rec := newTestContext(t, http.MethodGet, "/", "")
	c.Request().Header.Set("Authorization", "Bearer "+tok.Token)

	require.NoError(t, authn(okHandler)(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "user not found or inactive")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthenticateInactiveUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	tok, err := utils.NewAccessToken(testAccessSecret, 5, 15)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id=").
		WithArgs(uint64(5)).
		WillReturnRows(userRows(5, "off@test.ro", model.RoleStandardUser, false))

	authn := Authenticate(testAccessSecret, repository.NewUserRepo(db), repository.NewMembershipRepo(db))
	c, rec := newTestContext(t, http.MethodGet, "/", "")
	c.Request().Header.Set("Authorization", "Bearer "+tok.Token)

	require.NoError(t, authn(okHandler)(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "user not found or inactive")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthenticateSuccessAttachesIdentity(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	tok, err := utils.NewAccessToken(testAccessSecret, 5, 15)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id=").
		WithArgs(uint64(5)).
		WillReturnRows(userRows(5, "editor@test.ro", model.RoleStandardUser, true))
	mock.ExpectQuery("FROM user_institutions ui").
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "type", "territory_level", "institution_role"}).
			AddRow(3, "Primăria Sector 3", model.InstitutionPrimarieSector, model.TerritorySector, model.InstitutionEditor))

	authn := Authenticate(testAccessSecret, repository.NewUserRepo(db), repository.NewMembershipRepo(db))
	c, rec := newTestContext(t, http.MethodGet, "/", "")
	c.Request().Header.Set("Authorization", "Bearer "+tok.Token)

	var seen *model.Identity
	require.NoError(t, authn(func(c echo.Context) error {
		seen = CurrentIdentity(c)
		return okHandler(c)
	})(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, uint64(5), seen.ID)
	assert.Equal(t, "editor@test.ro", seen.Email)
	assert.Equal(t, model.RoleStandardUser, seen.GlobalRole)
	require.Len(t, seen.Institutions, 1)
	assert.Equal(t, uint64(3), seen.Institutions[0].ID)
	assert.Equal(t, model.InstitutionEditor, seen.Institutions[0].Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}
