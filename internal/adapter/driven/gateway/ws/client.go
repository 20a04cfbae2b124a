package ws

import "github.com/Wyydra/relay/internal/core/domain"

// Client is one live socket held by the hub.
type Client interface {
	ID() string
	UserID() domain.Identity
	Subscribed(conversationID string) bool
	Send(env domain.Envelope) error
	Close() error
}
