package fetcher

import (
	"fmt"
	"net/http"
)

type errStatusNotOK int

func (e errStatusNotOK) Error() string {
	return fmt.Sprintf("non-2xx HTTP status code: %d %s", int(e), http.StatusText(int(e)))
}

// TransportError is returned when the endpoint could not be reached or answered with a non-2xx status
type TransportError struct {
	URL string
	Err error
}

// Error returns the error string
func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error on %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying error
func (e *TransportError) Unwrap() error {
	return e.Err
}

// MalformedResponseError is returned when the response body violates the expected shape
type MalformedResponseError struct {
	URL    string
	Path   string
	Reason string
}

// Error returns the error string
func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response from %s: %s: %s", e.URL, e.Path, e.Reason)
}

func newMalformed(path string, reason string) *MalformedResponseError {
	return &MalformedResponseError{
		Path:   path,
		Reason: reason,
	}
}
