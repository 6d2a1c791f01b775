// Package classify maps transport/HTTP outcomes into the closed set of
// failure categories that drive retry decisions. The mapping is shared
// by the availability search and the booking path so retry policy stays
// centralized.
package classify

import (
	"errors"
	"fmt"
	"time"
)

// Class is the failure category of a remote call outcome.
type Class int

const (
	// Fatal covers any non-2xx status without special handling, schema
	// mismatches, and network-level failures.
	Fatal Class = iota
	// AuthExpired is a 401: the bearer token is no longer accepted.
	AuthExpired
	// RateLimited is a 429, optionally carrying a server-specified wait.
	RateLimited
	// Conflict is a 409: the resource was claimed by another client.
	Conflict
)

func (c Class) String() string {
	switch c {
	case AuthExpired:
		return "auth_expired"
	case RateLimited:
		return "rate_limited"
	case Conflict:
		return "conflict"
	}
	return "fatal"
}

// ErrMalformedResponse marks a 2xx response whose body did not match
// the expected schema. It classifies as Fatal.
var ErrMalformedResponse = errors.New("malformed response")

// APIError is a non-2xx response from the remote service.
type APIError struct {
	Op         string
	Status     int
	Message    string
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: status %d", e.Op, e.Status)
}

// Class maps the HTTP status to its failure category.
func (e *APIError) Class() Class {
	switch e.Status {
	case 401:
		return AuthExpired
	case 409:
		return Conflict
	case 429:
		return RateLimited
	}
	return Fatal
}

// Classify determines the failure category of err. Anything that is not
// a recognized APIError status is Fatal, including transport errors and
// timeouts.
func Classify(err error) Class {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Class()
	}
	return Fatal
}

// RetryAfterOf extracts the server-specified wait from a rate-limited
// error, if one was present.
func RetryAfterOf(err error) (time.Duration, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == 429 && apiErr.RetryAfter > 0 {
		return apiErr.RetryAfter, true
	}
	return 0, false
}
