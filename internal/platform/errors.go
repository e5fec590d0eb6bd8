package platform

import (
	"errors"
	"fmt"
)

// Sentinel errors for the upstream platform API. Callers branch on these
// with errors.Is, never on status codes or response bodies.
var (
	// ErrNotFound indicates the quiz or attempt does not exist upstream.
	ErrNotFound = errors.New("platform: resource not found")
	// ErrUnauthorized indicates a rejected token or quiz password.
	ErrUnauthorized = errors.New("platform: unauthorized")
	// ErrConflict indicates the attempt limit for the quiz is exhausted.
	ErrConflict = errors.New("platform: attempt conflict")
	// ErrUnavailable indicates an upstream failure (5xx or transport error).
	ErrUnavailable = errors.New("platform: upstream unavailable")
)

// statusError maps an HTTP status to the sentinel taxonomy, keeping the
// status and endpoint in the message for logs.
func statusError(endpoint string, status int) error {
	var sentinel error
	switch {
	case status == 404:
		sentinel = ErrNotFound
	case status == 401 || status == 403:
		sentinel = ErrUnauthorized
	case status == 409:
		sentinel = ErrConflict
	case status >= 500:
		sentinel = ErrUnavailable
	default:
		return fmt.Errorf("platform: %s returned status %d", endpoint, status)
	}
	return fmt.Errorf("%w (%s returned %d)", sentinel, endpoint, status)
}
