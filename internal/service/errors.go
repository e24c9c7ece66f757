package service

import "errors"

// Failure taxonomy surfaced to the handler boundary. Handlers map these
// onto HTTP statuses and the JSON error envelope; anything else is an
// upstream failure reported generically.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrNotFound           = errors.New("not found or unauthorized")
	ErrStateConflict      = errors.New("operation not allowed in current state")
	ErrDuplicateAttempt   = errors.New("creation attempt already in progress")
)

// ValidationError carries the first human-readable validation message
// for a malformed request.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func Invalid(msg string) error { return &ValidationError{Message: msg} }
