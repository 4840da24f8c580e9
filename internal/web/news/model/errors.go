// Package model defines the documents stored by the news service.
package model

import (
	"fmt"

	"github.com/Laisky/errors/v2"
)

var (
	// ErrNotFound the document does not exist or is not visible to the caller.
	ErrNotFound = errors.New("not found")
	// ErrValidation the input breaks a field rule.
	ErrValidation = errors.New("validation failed")
	// ErrConflict the write collides with existing data.
	ErrConflict = errors.New("conflict")
	// ErrForbidden the caller may not perform the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthorized the caller is not authenticated.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidTransition the article workflow does not allow the action from its current status.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrRateLimited the caller or an upstream provider is rate limited.
	ErrRateLimited = errors.New("rate limited")
	// ErrUpstream an upstream provider failed.
	ErrUpstream = errors.New("upstream provider failed")
	// ErrUnavailable an optional backend such as storage or translation is not configured.
	ErrUnavailable = errors.New("service unavailable")
	// ErrInvalidCredentials indicates the login credentials are invalid.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError is a field level validation failure, it matches ErrValidation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Unwrap lets errors.Is(err, ErrValidation) match.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Invalid builds a ValidationError for field.
func Invalid(field, format string, args ...any) error {
	return errors.WithStack(&ValidationError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	})
}
