package notification

import "fmt"

// DispatchError is returned when a message could not be handed to the
// provider or the provider's reply could not be read.
type DispatchError struct {
	Provider string
	// StatusCode is zero when no response was received.
	StatusCode int
	Err        error
}

func (e *DispatchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("sending notification via %s: status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("sending notification via %s: %v", e.Provider, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }
