// Package apperror defines the domain errors shared by the store, upload,
// service and HTTP layers.
//
// Each failure class is a sentinel error. Constructors return *AppError values
// that wrap a sentinel, so callers check the class with errors.Is and read the
// human-readable message with errors.As. Only the HTTP layer knows which status
// code a class maps to.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrValidation           = errors.New("validation error")
	ErrConflict             = errors.New("conflict")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrPayloadTooLarge      = errors.New("payload too large")
	ErrStoreUnavailable     = errors.New("store unavailable")
	ErrChannelUnavailable   = errors.New("notification channel unavailable")
)

type AppError struct {
	Err     error  // sentinel class
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// MissingFile is the validation error for an upload request without a file part.
func MissingFile(field string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: "No image file uploaded",
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Unauthorized is returned when a protected route receives no valid credential.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

func UnsupportedMediaType(filename, mediaType string) *AppError {
	return &AppError{
		Err:     ErrUnsupportedMediaType,
		Message: fmt.Sprintf("Only image files are allowed! (%s, %s)", filename, mediaType),
		Field:   "memeFile",
	}
}

func PayloadTooLarge(limit int64) *AppError {
	return &AppError{
		Err:     ErrPayloadTooLarge,
		Message: fmt.Sprintf("File too large: the limit is %d bytes", limit),
		Field:   "memeFile",
	}
}

// StoreUnavailable wraps an infrastructure failure of the record store.
// The cause stays in the chain so logs keep the driver error.
func StoreUnavailable(op string, cause error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, cause)
}

// ChannelUnavailable wraps a failed notification delivery.
func ChannelUnavailable(cause error) error {
	return fmt.Errorf("%w: %w", ErrChannelUnavailable, cause)
}
