package auth

import (
	"errors"
	"fmt"
)

// ErrAuthenticationFailed covers rejected credentials on password login.
// The session is left untouched.
var ErrAuthenticationFailed = errors.New("auth: authentication failed")

// ValidationError is a local input problem caught before any network call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("auth: invalid %s: %s", e.Field, e.Reason)
}
