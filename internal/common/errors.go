// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Error kinds. Every failure surfaced by the ledger core wraps exactly one of
// these so callers can classify it with errors.Is.
var (
	// ErrValidation marks bad input: non-positive amounts, inverted date
	// ranges, negative budgets, unknown payment methods.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks an operation that targets an id that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrIntegrity marks a violated category/subcategory cross-reference.
	ErrIntegrity = errors.New("integrity error")
	// ErrStorage marks an unavailable store or a failed read/write.
	ErrStorage = errors.New("storage error")
	// ErrCollaborator marks a failed call to an external service such as the
	// narrative generator. It never implies ledger data was affected.
	ErrCollaborator = errors.New("collaborator error")
)

// Configuration errors.
var (
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Validationf returns an ErrValidation with a formatted detail message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFoundf returns an ErrNotFound with a formatted detail message.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Integrityf returns an ErrIntegrity with a formatted detail message.
func Integrityf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrIntegrity, fmt.Sprintf(format, args...))
}

// InvalidReferencef reports bad caller input that would break a
// category/subcategory cross-reference. It matches both ErrIntegrity and
// ErrValidation.
func InvalidReferencef(format string, args ...any) error {
	return fmt.Errorf("%w: %w: %s", ErrIntegrity, ErrValidation, fmt.Sprintf(format, args...))
}

// StorageErr wraps a driver error as ErrStorage, keeping both in the chain.
func StorageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

// CollaboratorErr wraps a collaborator failure as ErrCollaborator.
func CollaboratorErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrCollaborator, op, err)
}

// Kind returns a short name for the error kind, or "internal" when err does
// not wrap any of the ledger error kinds.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrIntegrity):
		return "integrity"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrStorage):
		return "storage"
	case errors.Is(err, ErrCollaborator):
		return "collaborator"
	default:
		return "internal"
	}
}

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRateLimit) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
