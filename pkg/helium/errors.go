package helium

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for failure cases
var (
	// ErrTransientUpstream means the API kept failing at the transport level
	// (or with 5xx/429) until the retry budget ran out.
	ErrTransientUpstream = errors.New("helium API unavailable")
	// ErrMalformedResponse means the API answered but the body did not have the expected shape.
	ErrMalformedResponse = errors.New("malformed helium API response")
	// ErrNotFound means the API answered with an error body instead of data.
	ErrNotFound = errors.New("not found on helium")
)

// StatusError is returned for non-2xx responses
type StatusError struct {
	Code int
	URL  string
	Body []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d from %s", e.Code, e.URL)
}

// Temporary reports whether the status is worth retrying
func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= http.StatusInternalServerError
}

// IsNotFound reports whether err is a 404 response or an error body from the API
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var sErr *StatusError
	return errors.As(err, &sErr) && sErr.Code == http.StatusNotFound
}

// IsStatus reports whether err carries a non-transient HTTP error status
func IsStatus(err error) bool {
	var sErr *StatusError
	return errors.As(err, &sErr) && !sErr.Temporary()
}

type transportError struct {
	err error
}

func (e *transportError) Error() string { return "making request: " + e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }
