// Package apperr defines the stable error kinds returned across package
// boundaries. Handlers map these to HTTP status codes in one place; inner
// layers wrap them with context via fmt.Errorf("...: %w", ...).
package apperr

import "errors"

var (
	// ErrNotFound covers unknown invite codes and rows that genuinely do not
	// exist. Unknown families are deliberately NOT reported as not-found to
	// non-members; the guard returns ErrForbidden so callers cannot probe
	// which family ids exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden covers missing memberships and capability-matrix denials,
	// including owner-attempting-leave and non-owner-attempting-delete.
	ErrForbidden = errors.New("forbidden")

	// ErrExpired is returned when an invite code is past its validity window.
	ErrExpired = errors.New("expired")

	// ErrConflict is an invite-code generation collision. It is retried
	// internally and only escapes when retries are exhausted.
	ErrConflict = errors.New("conflict")

	// ErrValidation covers malformed input: empty family names, bad email
	// addresses, unknown roles.
	ErrValidation = errors.New("invalid input")
)
