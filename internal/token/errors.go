package token

import (
	"fmt"
	"strings"
)

// SigningError is returned when the assertion cannot be signed with the
// credential's key.
type SigningError struct {
	Err error
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("signing token assertion: %v", e.Err)
}

func (e *SigningError) Unwrap() error { return e.Err }

// ExchangeError is returned when the token endpoint is unreachable or does
// not hand back a usable access token.
type ExchangeError struct {
	// StatusCode is zero when no response was received.
	StatusCode  int
	Code        string
	Description string
	Err         error
}

func (e *ExchangeError) Error() string {
	var b strings.Builder
	b.WriteString("token exchange failed")
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
	}
	if e.Code != "" {
		b.WriteString(": " + e.Code)
	}
	if e.Description != "" {
		b.WriteString(": " + e.Description)
	}
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *ExchangeError) Unwrap() error { return e.Err }
