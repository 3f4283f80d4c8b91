package handler

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecotrack/waste-admin/internal/middleware"
	"github.com/ecotrack/waste-admin/internal/model"
	"github.com/ecotrack/waste-admin/internal/repository"
)

func newUserHandler(t *testing.T) (*UserHandler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	h := NewUserHandler(testConfig(),
		repository.NewUserRepo(db),
		repository.NewMembershipRepo(db),
		repository.NewInstitutionRepo(db))
	return h, mock, func() { db.Close() }
}

func adminIdentity() *model.Identity {
	return &model.Identity{ID: 1, Email: "admin@test.ro", GlobalRole: model.RolePlatformAdmin}
}

func institutionRow(id uint64, name string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "name", "type", "territory_level", "territory_code", "is_active", "created_at", "updated_at"}).
		AddRow(id, name, model.InstitutionPrimarieSector, model.TerritorySector, "S3", true, now, now)
}

func TestCreateUserRoleCeiling(t *testing.T) {
	h, _, closeDB := newUserHandler(t)
	defer closeDB()

	c, rec := newJSONContext(t, http.MethodPost, "/v1/users",
		`{"email":"new@test.ro","password":"secret","globalRole":"PLATFORM_ADMIN"}`)
	middleware.SetIdentity(c, &model.Identity{ID: 2, Email: "user@test.ro", GlobalRole: model.RoleStandardUser})

	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "cannot create users with this role")
}

func TestCreateUserInvalidRole(t *testing.T) {
	h, _, closeDB := newUserHandler(t)
	defer closeDB()

	c, rec := newJSONContext(t, http.MethodPost, "/v1/users",
		`{"email":"new@test.ro","password":"secret","globalRole":"SUPERUSER"}`)
	middleware.SetIdentity(c, adminIdentity())

	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid global role")
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	h, mock, closeDB := newUserHandler(t)
	defer closeDB()

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'taken@test.ro' for key 'users.email'"))

	c, rec := newJSONContext(t, http.MethodPost, "/v1/users",
		`{"email":"taken@test.ro","password":"secret"}`)
	middleware.SetIdentity(c, adminIdentity())

	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "email is already in use")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateUserOwnRoleChangeRejected(t *testing.T) {
	h, _, closeDB := newUserHandler(t)
	defer closeDB()

	c, rec := newJSONContext(t, http.MethodPut, "/v1/users/1",
		`{"globalRole":"STANDARD_USER"}`)
	c.SetParamNames("userId")
	c.SetParamValues("1")
	middleware.SetIdentity(c, adminIdentity())

	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "cannot change your own role")
}

func TestUpdateUserRoleRequiresAdmin(t *testing.T) {
	h, _, closeDB := newUserHandler(t)
	defer closeDB()

	c, rec := newJSONContext(t, http.MethodPut, "/v1/users/3",
		`{"globalRole":"REGULATOR_VIEWER"}`)
	c.SetParamNames("userId")
	c.SetParamValues("3")
	middleware.SetIdentity(c, &model.Identity{ID: 2, Email: "user@test.ro", GlobalRole: model.RoleStandardUser})

	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "cannot modify the global role")
}

func TestDeleteOwnAccountRejected(t *testing.T) {
	h, _, closeDB := newUserHandler(t)
	defer closeDB()

	c, rec := newJSONContext(t, http.MethodDelete, "/v1/users/1", "")
	c.SetParamNames("userId")
	c.SetParamValues("1")
	middleware.SetIdentity(c, adminIdentity())

	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "cannot delete your own account")
}

func TestDeleteUnknownUser(t *testing.T) {
	h, mock, closeDB := newUserHandler(t)
	defer closeDB()

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id=").
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	c, rec := newJSONContext(t, http.MethodDelete, "/v1/users/99", "")
	c.SetParamNames("userId")
	c.SetParamValues("99")
	middleware.SetIdentity(c, adminIdentity())

	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "user not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignUpserts(t *testing.T) {
	h, mock, closeDB := newUserHandler(t)
	defer closeDB()

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id=").
		WithArgs(uint64(3)).
		WillReturnRows(userRow(3, "member@test.ro", "$2a$10$hash", model.RoleStandardUser, true))
	mock.ExpectQuery("SELECT (.+) FROM institutions WHERE id=").
		WithArgs(uint64(5)).
		WillReturnRows(institutionRow(5, "Primăria Sector 3"))
	mock.ExpectExec("ON DUPLICATE KEY UPDATE institution_role").
		WithArgs(uint64(3), uint64(5), model.InstitutionEditor).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, rec := newJSONContext(t, http.MethodPost, "/v1/users/3/institution",
		`{"institutionId":5,"institutionRole":"INSTITUTION_EDITOR"}`)
	c.SetParamNames("userId")
	c.SetParamValues("3")
	middleware.SetIdentity(c, adminIdentity())

	require.NoError(t, h.Assign(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "user assigned to institution")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignInvalidRole(t *testing.T) {
	h, _, closeDB := newUserHandler(t)
	defer closeDB()

	c, rec := newJSONContext(t, http.MethodPost, "/v1/users/3/institution",
		`{"institutionId":5,"institutionRole":"OWNER"}`)
	c.SetParamNames("userId")
	c.SetParamValues("3")
	middleware.SetIdentity(c, adminIdentity())

	require.NoError(t, h.Assign(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid institution role")
}

func TestRemoveNonMember(t *testing.T) {
	h, mock, closeDB := newUserHandler(t)
	defer closeDB()

	mock.ExpectExec("DELETE FROM user_institutions WHERE user_id=").
		WithArgs(uint64(3), uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	c, rec := newJSONContext(t, http.MethodDelete, "/v1/users/3/institution/5", "")
	c.SetParamNames("userId", "institutionId")
	c.SetParamValues("3", "5")
	middleware.SetIdentity(c, adminIdentity())

	require.NoError(t, h.Remove(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "user is not a member of this institution")
	assert.NoError(t, mock.ExpectationsWereMet())
}
