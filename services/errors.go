package services

import "errors"

// Domain errors returned by the auth service and the pickup lifecycle
// engine. Expected conditions (wrong status, wrong code, missing record)
// are ordinary values the caller matches with errors.Is; they are never
// panics. The HTTP layer owns translating them into user-facing messages.
var (
	// ErrInvalidCode is returned when the verification code does not match
	// the configured value.
	ErrInvalidCode = errors.New("verification code is incorrect")

	// ErrNotFound is returned when no pickup exists for the given id.
	ErrNotFound = errors.New("pickup not found")

	// ErrInvalidTransition is returned when a lifecycle operation is invoked
	// on a pickup whose current status does not permit it.
	ErrInvalidTransition = errors.New("pickup status does not allow this transition")

	// ErrInvalidInput is returned when operation input fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCodeMismatch is returned when the entered pickup code does not
	// match the code issued at acceptance.
	ErrCodeMismatch = errors.New("pickup code does not match")

	// ErrUnauthorized is returned when the acting user is not the party the
	// operation belongs to.
	ErrUnauthorized = errors.New("not authorized to act on this pickup")
)
