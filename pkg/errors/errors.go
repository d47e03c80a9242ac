// Package errors defines the application error taxonomy shared by all
// layers. Services return *AppError values; the HTTP layer maps them to
// status codes without inspecting the underlying cause.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for classification with errors.Is.
var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrInvalidInput     = errors.New("invalid input")
	ErrUnavailable      = errors.New("unavailable")
	ErrIndexUnavailable = errors.New("search index unavailable")
	ErrInternal         = errors.New("internal error")
)

// AppError carries a machine-readable code, a human-readable message and
// the HTTP status the transport layer should answer with.
type AppError struct {
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// NotFound builds an AppError for a missing resource.
func NotFound(resource string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found", resource),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// AlreadyExists builds an AppError for a uniqueness conflict.
func AlreadyExists(resource string) *AppError {
	return &AppError{
		Code:    "ALREADY_EXISTS",
		Message: fmt.Sprintf("%s already exists", resource),
		Status:  http.StatusConflict,
		Err:     ErrAlreadyExists,
	}
}

// InvalidInput builds an AppError for a caller mistake.
func InvalidInput(msg string) *AppError {
	return &AppError{
		Code:    "INVALID_INPUT",
		Message: msg,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// Unavailable builds an AppError for a dependency that cannot serve.
func Unavailable(msg string) *AppError {
	return &AppError{
		Code:    "UNAVAILABLE",
		Message: msg,
		Status:  http.StatusServiceUnavailable,
		Err:     ErrUnavailable,
	}
}

// Internal wraps an unexpected error. The cause is logged server-side and
// never leaks to clients.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL",
		Message: "internal server error",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// Wrap annotates err with context while preserving its classification.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return &AppError{
			Code:    appErr.Code,
			Message: fmt.Sprintf("%s: %s", msg, appErr.Message),
			Status:  appErr.Status,
			Err:     appErr,
		}
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// HTTPStatus resolves the status code for any error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnavailable), errors.Is(err, ErrIndexUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
