// Package repository contains data access logic separated from HTTP
// handlers.  Sentinel errors defined here let handlers distinguish
// failure scenarios without inspecting driver errors: for example
// ErrConflict signals that a delete cannot proceed because dependent
// records exist, and handlers translate it into an HTTP 409.
package repository

import "errors"

// ErrUserNotFound is returned when a user row cannot be found.
var ErrUserNotFound = errors.New("user not found")

// ErrInstitutionNotFound is returned when an institution row cannot be found.
var ErrInstitutionNotFound = errors.New("institution not found")

// ErrMembershipNotFound is returned when no membership exists for a
// (user, institution) pair.
var ErrMembershipNotFound = errors.New("membership not found")

// ErrEmailExists is returned when an insert or update would violate the
// unique constraint on users.email.
var ErrEmailExists = errors.New("email already exists")

// ErrConflict is returned when an operation cannot proceed because of
// conflicting state, such as deleting an institution that still has
// members.  Handlers translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")
