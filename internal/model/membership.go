package model

import "time"

// Institution-scoped roles carried by a membership.
const (
	InstitutionAdmin  = "INSTITUTION_ADMIN"
	InstitutionEditor = "INSTITUTION_EDITOR"
)

// Membership links one user to one institution with an institution-scoped
// role.  The (UserID, InstitutionID) pair is unique; assigning an existing
// pair again updates the role in place (upsert).
//
// Fields:
//  UserID        – user_institutions.user_id
//  InstitutionID – user_institutions.institution_id
//  Role          – user_institutions.institution_role
//  CreatedAt     – timestamp of creation.
type Membership struct {
	UserID        uint64    // user_institutions.user_id
	InstitutionID uint64    // user_institutions.institution_id
	Role          string    // user_institutions.institution_role
	CreatedAt     time.Time // user_institutions.created_at
}

// ValidInstitutionRole reports whether s is a known institution role.
func ValidInstitutionRole(s string) bool {
	return s == InstitutionAdmin || s == InstitutionEditor
}
