package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned for requests the caller must correct, such as an unknown
	// document type or missing critical fields.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned when a document template does not exist.
	ErrNotFound = errors.New("not found")
	// ErrExternalService is returned when the language model call fails.
	ErrExternalService = errors.New("external service error")
)

// ValidationError names the request field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// Is lets errors.Is(err, ErrInvalidInput) match validation failures.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// WrapError wraps an error with additional context.
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}
