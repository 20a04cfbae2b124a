package port

import (
	"context"

	"github.com/Wyydra/relay/internal/core/domain"
)

// SignalingBridge is the control plane of the tier holding client sockets.
type SignalingBridge interface {
	Notify(ctx context.Context, env domain.Envelope) (domain.DeliveryResult, error)
	Broadcast(ctx context.Context, env domain.Envelope) (domain.DeliveryResult, error)
}

// Notifier routes an envelope through the relay.
type Notifier interface {
	Notify(ctx context.Context, env domain.Envelope) (domain.DeliveryResult, error)
}

// PresencePublisher announces that a user's sockets came or went. Failures are
// the publisher's to log; a socket is never refused over presence.
type PresencePublisher interface {
	Publish(ctx context.Context, env domain.Envelope)
}
