package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrAuthenticationFailed is returned when the login endpoint answers with a non-2xx status.
	ErrAuthenticationFailed = errors.New("authentication failed")
	// ErrUnauthorized is returned for 401 and 403 answers to authenticated calls.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound is returned for 404 answers.
	ErrNotFound = errors.New("not found")
	// ErrTransport wraps failures where no response was received.
	ErrTransport = errors.New("transport failure")
	// ErrMalformedResponse is returned when a 2xx body cannot be decoded.
	ErrMalformedResponse = errors.New("malformed response")
)

// StatusError describes a non-2xx response.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Is maps status codes onto the package sentinels.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}
