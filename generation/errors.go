package generation

import (
	"errors"
	"fmt"
)

// ServiceError indicates the generation service call itself failed (network,
// provider, HTTP error). The prior document is always left untouched.
type ServiceError struct {
	err error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("generation service: %v", e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

// NewServiceError wraps an error as a generation service failure.
func NewServiceError(err error) error {
	return &ServiceError{err: err}
}

// IsServiceError reports whether err is a generation service failure.
func IsServiceError(err error) bool {
	var se *ServiceError
	return errors.As(err, &se)
}

// ParseError indicates the generation response could not be parsed as
// structured data, even after fence stripping.
type ParseError struct {
	err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("generation response: %v", e.err)
}

func (e *ParseError) Unwrap() error {
	return e.err
}

// NewParseError wraps an error as a generation parse failure.
func NewParseError(err error) error {
	return &ParseError{err: err}
}

// IsParseError reports whether err is a generation parse failure.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// TransientError represents a temporary provider error that may succeed on
// retry.
type TransientError struct {
	err error
}

func (e *TransientError) Error() string {
	return e.err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.err
}

// NewTransientError wraps an error as transient (retryable).
func NewTransientError(err error) error {
	return &TransientError{err: err}
}

// FatalError represents a permanent provider error that should not be retried.
type FatalError struct {
	err error
}

func (e *FatalError) Error() string {
	return e.err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.err
}

// NewFatalError wraps an error as fatal (non-retryable).
func NewFatalError(err error) error {
	return &FatalError{err: err}
}

// IsTransient returns true if the error should be retried.
func IsTransient(err error) bool {
	var transient *TransientError
	return errors.As(err, &transient)
}

// IsFatal returns true if the error should not be retried.
func IsFatal(err error) bool {
	var fatal *FatalError
	return errors.As(err, &fatal)
}
