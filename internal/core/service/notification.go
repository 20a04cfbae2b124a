package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Wyydra/relay/internal/core/domain"
	"github.com/Wyydra/relay/internal/core/port"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// NotificationService forwards envelopes to the signaling bridge. It keeps no
// state between calls and never retries.
type NotificationService struct {
	bridge         port.SignalingBridge
	broadcastTypes []string
}

func NewNotificationService(bridge port.SignalingBridge, broadcastTypes []string) *NotificationService {
	if len(broadcastTypes) == 0 {
		broadcastTypes = []string{domain.TypeUserPresence}
	}
	return &NotificationService{
		bridge:         bridge,
		broadcastTypes: lo.Uniq(broadcastTypes),
	}
}

func (s *NotificationService) Route(ctx context.Context, env domain.Envelope) (domain.DeliveryResult, error) {
	if env.Type == "" {
		return domain.DeliveryResult{}, &domain.MissingFieldError{Field: domain.FieldType}
	}
	if env.Addressing == nil {
		return domain.DeliveryResult{}, &domain.MissingFieldError{Field: domain.FieldRecipient}
	}

	l := log.With().
		Str("type", env.Type).
		Str("addressing", string(env.Addressing.Kind())).
		Str("target", env.Addressing.Target()).
		Logger()

	var (
		res domain.DeliveryResult
		err error
	)
	switch env.Addressing.Kind() {
	case domain.AddressBroadcast:
		if !lo.Contains(s.broadcastTypes, env.Type) {
			return domain.DeliveryResult{}, fmt.Errorf("%w: type %q cannot be broadcast", domain.ErrInvalidInput, env.Type)
		}
		res, err = s.bridge.Broadcast(ctx, env)
	default:
		res, err = s.bridge.Notify(ctx, env)
	}

	if err != nil {
		ev := l.Error().Err(err)
		var bErr *domain.BridgeError
		if errors.As(err, &bErr) {
			ev = ev.Int("status", bErr.Status).Str("body", bErr.Body)
		}
		ev.Msg("Bridge forwarding failed")
		return domain.DeliveryResult{}, err
	}

	l.Debug().Bool("ok", res.OK).Msg("Notification forwarded")
	return res, nil
}

// Notify satisfies port.Notifier for in-process callers.
func (s *NotificationService) Notify(ctx context.Context, env domain.Envelope) (domain.DeliveryResult, error) {
	return s.Route(ctx, env)
}

// Publish routes env and only logs a failure. Use it when real-time delivery
// annotates an action that must succeed on its own.
func (s *NotificationService) Publish(ctx context.Context, env domain.Envelope) {
	if _, err := s.Route(ctx, env); err != nil {
		log.Warn().Err(err).Str("type", env.Type).Msg("Dropping notification")
	}
}
