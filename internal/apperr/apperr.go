// Package apperr holds the error categories shared by every layer.
//
// Packages declare their own sentinel errors and wrap one of these categories,
// e.g. orders.ErrInvalidStatus wraps ErrValidation, so HTTP handlers can map
// any error to a status code without importing every domain package.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation    = errors.New("validation failed")
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrUnavailable   = errors.New("upstream unavailable")
	ErrStateConflict = errors.New("invalid for current state")
	ErrUnauthorized  = errors.New("unauthorized")
)

// Wrap returns an error that matches both category and the new message.
func Wrap(category error, msg string) error {
	return fmt.Errorf("%s: %w", msg, category)
}

// Validation builds a field-level validation error.
func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// ValidationError describes one rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + " " + e.Reason
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// HTTPStatus maps an error to the response code handlers should use.
// Unknown errors are treated as internal failures.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict), errors.Is(err, ErrStateConflict):
		return http.StatusConflict
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Public returns what a handler may show a client: status, a stable error
// code and a message. Internal errors get a generic message.
func Public(err error) (status int, code, message string) {
	status = HTTPStatus(err)
	switch {
	case errors.Is(err, ErrValidation):
		code = "validation_failed"
	case errors.Is(err, ErrUnauthorized):
		code = "unauthorized"
	case errors.Is(err, ErrNotFound):
		code = "not_found"
	case errors.Is(err, ErrStateConflict):
		code = "state_conflict"
	case errors.Is(err, ErrConflict):
		code = "conflict"
	case errors.Is(err, ErrUnavailable):
		code = "upstream_unavailable"
	default:
		return status, "internal_error", "internal error"
	}
	return status, code, err.Error()
}
