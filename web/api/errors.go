package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/screwyprof/hnttax/web/hnt"
)

// Error classes. An *Error matches the class of its HTTP code with errors.Is.
var (
	ErrBadRequest          = errors.New(http.StatusText(http.StatusBadRequest))
	ErrNotFound            = errors.New(http.StatusText(http.StatusNotFound))
	ErrInternalServerError = errors.New(http.StatusText(http.StatusInternalServerError))
)

// Error represents a structured API error response
type Error struct {
	cause    error  // The original error (for logging/debugging)
	message  string // Safe user-facing message
	httpCode int    // HTTP status code (also used as API error code)
}

// HTTPCode returns the HTTP status code for this error
func (e *Error) HTTPCode() int {
	return e.httpCode
}

// Error implements the error interface
func (e *Error) Error() string {
	return e.message
}

// Unwrap returns the underlying cause for error unwrapping
func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches the error class of the HTTP code, then the cause chain
func (e *Error) Is(target error) bool {
	if class, ok := classes[e.httpCode]; ok && class == target {
		return true
	}
	return errors.Is(e.cause, target)
}

var classes = map[int]error{
	http.StatusBadRequest:          ErrBadRequest,
	http.StatusNotFound:            ErrNotFound,
	http.StatusInternalServerError: ErrInternalServerError,
}

// Cause returns the original error for logging purposes
func (e *Error) Cause() error {
	return e.cause
}

// MarshalJSON implements json.Marshaler interface
func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"code":    e.httpCode,
		"message": e.message,
	})
}

// Constructor functions for different error types

func BadRequest(cause error) *Error {
	return &Error{
		cause:    cause,
		message:  cause.Error(), // 4xx errors are safe to expose
		httpCode: http.StatusBadRequest,
	}
}

// NotFound reports a missing resource; the cause is safe to expose
func NotFound(cause error) *Error {
	return &Error{
		cause:    cause,
		message:  cause.Error(),
		httpCode: http.StatusNotFound,
	}
}

func InternalServerError(cause error) *Error {
	return &Error{
		cause:    cause,
		message:  http.StatusText(http.StatusInternalServerError), // Never expose internal error details
		httpCode: http.StatusInternalServerError,
	}
}

// Wrap classifies a domain error into a safe API error.
// API errors are returned unchanged; anything unrecognised is internal.
func Wrap(err error) *Error {
	if err == nil {
		return nil
	}

	var apiErr *Error
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, hnt.ErrReportNotFound):
		return NotFound(hnt.ErrReportNotFound)
	case errors.Is(err, hnt.ErrInvalidWallet),
		errors.Is(err, hnt.ErrInvalidYear),
		errors.Is(err, hnt.ErrInvalidPerPage):
		return BadRequest(err)
	default:
		return InternalServerError(err)
	}
}
