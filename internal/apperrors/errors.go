// Package apperrors defines the error taxonomy surfaced by the game
// core. Every sentinel is terminal for the caller; nothing is retried
// internally.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks missing or malformed required fields.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a missing referenced entity: league, challenge,
	// building, balance, asset or request.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks a state the caller must not blindly retry:
	// already-accepted request, already-member, league-full.
	ErrConflict = errors.New("conflict")

	// ErrInsufficientResources marks a sender lacking funds. The caller
	// may recover by choosing a smaller amount.
	ErrInsufficientResources = errors.New("insufficient resources")

	// ErrUnauthorized marks a non-owner attempting an owner-only action.
	ErrUnauthorized = errors.New("unauthorized")
)

// Validationf wraps ErrValidation with a field-level message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFoundf wraps ErrNotFound with the entity description.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Conflictf wraps ErrConflict with the conflicting condition.
func Conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}
