package workflow

import "errors"

// Operation failure kinds. Handlers map these to HTTP statuses; callers can
// branch with errors.Is. Detail is attached by wrapping with %w.
var (
	// ErrNotFound is returned when a referenced claim or item does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a precondition no longer holds: the claim
	// is not pending, the item is already returned, or the item has claims
	// blocking deletion. The operation had no effect.
	ErrConflict = errors.New("conflict")

	// ErrInvalidArgument is returned for malformed input, before any store
	// access.
	ErrInvalidArgument = errors.New("invalid argument")
)
