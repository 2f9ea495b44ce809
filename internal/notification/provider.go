// Package notification turns database change events into push notifications
// and delivers them through a messaging provider.
package notification

import (
	"context"
	"encoding/json"

	"golang.org/x/oauth2"
)

// Message is the content to be delivered by a Provider.
type Message struct {
	Topic string `json:"topic"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Provider is the interface for notification delivery backends.
type Provider interface {
	// Name returns the provider identifier (e.g. "fcm").
	Name() string
	// Send publishes msg for projectID, authenticating with tok. The
	// provider's response body is returned unmodified, including structured
	// error replies.
	Send(ctx context.Context, msg Message, tok *oauth2.Token, projectID string) (json.RawMessage, error)
}
