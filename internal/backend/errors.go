package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrServerContract means a response body could not be parsed as the
	// structured data the API promises. Never treated as success.
	ErrServerContract = errors.New("backend: response violates server contract")

	// ErrNetworkUnavailable means the request never produced a response.
	ErrNetworkUnavailable = errors.New("backend: network unavailable")

	// ErrUpstreamUnauthorized means the provider-side authorization behind a
	// code exchange is expired or rejected; the user can retry from scratch.
	ErrUpstreamUnauthorized = errors.New("backend: upstream authorization expired")
)

// APIError is a non-2xx response with a parsed error payload.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend: server error: %d", e.Status)
	}
	return fmt.Sprintf("backend: %s (status %d)", e.Message, e.Status)
}

// IsNotFound reports whether err is an APIError with a 404 status.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == 404
}
