// Package domain holds the core entities and the sentinel errors shared
// by repositories, services and handlers. The sentinels let the HTTP
// layer translate failures to status codes with errors.Is instead of
// string matching.
package domain

import "errors"

// ErrValidation marks malformed or out-of-policy input. Not transient,
// never retried.
var ErrValidation = errors.New("validation failed")

// ErrConflict is returned when a date range overlaps an existing active
// booking or pending request line on the same unit, whether detected at
// pre-check or by the store's atomic insert. Callers may retry with a
// different range.
var ErrConflict = errors.New("conflict")

// ErrNotFound is returned when a referenced booking or request line does
// not exist.
var ErrNotFound = errors.New("not found")

// ErrAlreadyDecided is returned when deciding a request line that is no
// longer pending. The earlier decision stands; nothing is re-applied.
var ErrAlreadyDecided = errors.New("already decided")

// ErrForbidden is returned when the caller lacks the admin role for an
// admin-only operation.
var ErrForbidden = errors.New("forbidden")

// ErrUnauthenticated is returned when no caller identity is present.
var ErrUnauthenticated = errors.New("unauthenticated")

// ErrUnavailable marks a transient store or transport failure, safe to
// retry with backoff.
var ErrUnavailable = errors.New("temporarily unavailable")
