// Package apperr carries the API failure taxonomy: a message, the HTTP
// status code it maps to, and an optional list of detail strings.
package apperr

import (
	"errors"
	"net/http"
)

// Error is a typed failure value surfaced to API clients.
type Error struct {
	Message    string   `json:"error"`
	StatusCode int      `json:"-"`
	Details    []string `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

// New constructs an Error with an arbitrary status code.
func New(message string, statusCode int, details ...string) *Error {
	return &Error{Message: message, StatusCode: statusCode, Details: details}
}

// BadRequest signals invalid input detected at the boundary.
func BadRequest(message string, details ...string) *Error {
	return New(message, http.StatusBadRequest, details...)
}

// Forbidden signals a failed authorization check.
func Forbidden(message string) *Error {
	return New(message, http.StatusForbidden)
}

// NotFound signals an absent entity.
func NotFound(message string) *Error {
	return New(message, http.StatusNotFound)
}

// Internal signals an unanticipated server-side failure. The underlying
// cause is logged by the caller, never echoed to clients.
func Internal(message string) *Error {
	return New(message, http.StatusInternalServerError)
}

// From unwraps err into an *Error, or wraps it as a generic internal
// failure when it carries no status of its own.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("An unexpected error occurred")
}
