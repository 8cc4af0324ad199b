package utils

import (
	"errors"
	"fmt"
)

// InvalidInputError represents a malformed numeric input (non-positive spot,
// strike or time, mismatched history lengths). It is the only error class the
// analytics core propagates; everything else degrades to documented fallbacks.
type InvalidInputError struct {
	Message string
}

// Error returns the error message string.
func (e *InvalidInputError) Error() string {
	return e.Message
}

// NewInvalidInputError creates a new InvalidInputError with a specific message.
func NewInvalidInputError(message string) error {
	return &InvalidInputError{
		Message: message,
	}
}

// NewInvalidInputErrorf creates a new InvalidInputError with a formatted message.
func NewInvalidInputErrorf(format string, args ...interface{}) error {
	return &InvalidInputError{
		Message: fmt.Sprintf(format, args...),
	}
}

// IsInvalidInput reports whether err wraps an InvalidInputError.
func IsInvalidInput(err error) bool {
	var target *InvalidInputError
	return errors.As(err, &target)
}
