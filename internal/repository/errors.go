// Package repository defines the MySQL-backed stores and the error values
// shared across them.  Higher layers use these sentinels to distinguish a
// missing row from a conflicting one without inspecting driver errors.
package repository

import "errors"

// ErrNotFound is returned when a lookup matches no row.  Handlers
// translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a guarded update finds the row in a state
// that no longer satisfies its precondition, or an insert hits a unique
// key.  Handlers should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")
