package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized covers bad credentials and every token rejection.
	// Callers must not tell the client which case occurred.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrConflict is returned when the username is already taken.
	ErrConflict = errors.New("conflict")
	// ErrValidation is wrapped by every *ValidationError.
	ErrValidation = errors.New("validation failed")
)

// Error codes carried in request-reply responses.
const (
	CodeValidation   = "validation"
	CodeConflict     = "conflict"
	CodeUnauthorized = "unauthorized"
	CodeInternal     = "internal"
)

// ValidationError reports malformed signup input for a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrValidation, e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// ErrorCode classifies err into one of the wire error codes.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return CodeValidation
	case errors.Is(err, ErrConflict):
		return CodeConflict
	case errors.Is(err, ErrUnauthorized):
		return CodeUnauthorized
	default:
		return CodeInternal
	}
}

// errorFromCode rebuilds a sentinel error from a wire error code.
func errorFromCode(code, field, message string) error {
	switch code {
	case "":
		return nil
	case CodeValidation:
		return &ValidationError{Field: field, Message: message}
	case CodeConflict:
		return ErrConflict
	case CodeUnauthorized:
		return ErrUnauthorized
	default:
		return fmt.Errorf("auth service: %s", message)
	}
}
