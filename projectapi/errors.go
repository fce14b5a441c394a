package projectapi

import (
	"errors"
	"fmt"
)

// ValidationError is a user-facing precondition failure: a prerequisite
// document is incomplete, so the requested flow aborts before any generation
// call is made.
type ValidationError struct {
	// Message is shown to the user.
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a user-facing validation error.
func NewValidationError(message string) error {
	return &ValidationError{Message: message}
}

// IsValidationError reports whether err is a prerequisite validation failure.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// FetchError indicates a collaborator API call failed (network or HTTP).
// Callers treat it as non-fatal: the initial load falls back to an empty
// document, prerequisite checks surface a retry message.
type FetchError struct {
	err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch: %v", e.err)
}

func (e *FetchError) Unwrap() error {
	return e.err
}

// NewFetchError wraps an error as a collaborator fetch failure.
func NewFetchError(err error) error {
	return &FetchError{err: err}
}

// IsFetchError reports whether err is a collaborator fetch failure.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}
