package model

import "time"

// Global roles assigned platform-wide to a user.  These values are stored
// verbatim in the users.global_role column and embedded in API responses.
const (
	RolePlatformAdmin   = "PLATFORM_ADMIN"
	RoleRegulatorViewer = "REGULATOR_VIEWER"
	RoleStandardUser    = "STANDARD_USER"
)

// User represents an application user record as stored in the `users`
// table.  The json tags are omitted because these structs are used by the
// repository layer; handlers define separate response types with
// appropriate JSON tags.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address, stored lower-cased.
//  PasswordHash – bcrypt hashed password, never serialized.
//  GlobalRole   – platform-wide role (PLATFORM_ADMIN, REGULATOR_VIEWER, STANDARD_USER).
//  IsActive     – whether the account may authenticate.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	GlobalRole   string    // users.global_role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// ValidGlobalRole reports whether s is one of the defined global roles.
// All creation and update paths go through this single check so the
// accepted set cannot drift between endpoints.
func ValidGlobalRole(s string) bool {
	switch s {
	case RolePlatformAdmin, RoleRegulatorViewer, RoleStandardUser:
		return true
	}
	return false
}
