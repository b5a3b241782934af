// Package client implements the session-aware API client for the ticketing
// service: credential attachment, 401 interception with a single in-flight
// renewal, retry-once semantics, durable session restore, and the session
// gate used to drive navigation.
package client

import "fmt"

// ValidationError reports malformed input rejected by the server (HTTP 400).
// It is never retried.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConflictError reports a state conflict such as a duplicate registration or
// a sold-out event (HTTP 409). It is never retried.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// AuthenticationError reports bad login credentials, an expired or invalid
// session, or a failed renewal. When a renewal fails the session has already
// been cleared by the time this error reaches the caller; the caller's only
// recourse is to prompt for login again.
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string { return e.Message }

// NetworkError wraps a transport failure. The client does not retry these;
// the caller decides whether to try again.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("network error: %v", e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }
