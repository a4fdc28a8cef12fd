package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors. Services return these (or typed wrappers matching them via
// Is) so the API layer can map them to deterministic HTTP responses.
var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrTokenMissing         = errors.New("missing authentication token")
	ErrTokenInvalid         = errors.New("invalid authentication token")
	ErrTokenExpired         = errors.New("authentication token expired")
	ErrForbidden            = errors.New("access forbidden")
	ErrValidation           = errors.New("validation failed")
	ErrUserNotFound         = errors.New("user not found")
	ErrUserExists           = errors.New("user already exists")
	ErrIncidentNotFound     = errors.New("incident not found")
	ErrAreaNotFound         = errors.New("area not found")
	ErrAreaExists           = errors.New("area already exists")
	ErrAreaInUse            = errors.New("area is referenced by incidents")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrIncidentClosed       = errors.New("incident is closed")
	ErrTooManyAttempts      = errors.New("too many login attempts")
)

// ForbiddenError names the capability the actor was missing. It matches
// ErrForbidden via errors.Is.
type ForbiddenError struct {
	Capability Capability
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("access forbidden: requires %s", e.Capability)
}

func (e *ForbiddenError) Is(target error) bool { return target == ErrForbidden }

// Forbidden returns a ForbiddenError for the given capability.
func Forbidden(capability Capability) error { return &ForbiddenError{Capability: capability} }

// FieldError names the offending input field. It matches ErrValidation via
// errors.Is.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *FieldError) Is(target error) bool { return target == ErrValidation }

// Invalid returns a FieldError for the given field and reason.
func Invalid(field, reason string) error { return &FieldError{Field: field, Reason: reason} }
