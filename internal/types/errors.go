package types

import "errors"

// Sentinel errors shared across repositories, services and handlers.
// Handlers translate these into HTTP statuses; everything else wraps them
// with fmt.Errorf("...: %w", err) so errors.Is keeps working.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("resource already exists")
	ErrValidation   = errors.New("validation failed")
)
