package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Wyydra/relay/internal/core/domain"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func TestNotificationService_Route(t *testing.T) {
	ctx := context.Background()

	t.Run("should send presence broadcasts to the broadcast endpoint", func(t *testing.T) {
		req := require.New(t)
		bridge := &fakeBridge{result: domain.DeliveryResult{OK: true, Delivered: lo.ToPtr(3), Connections: lo.ToPtr(4)}}
		svc := NewNotificationService(bridge, nil)

		res, err := svc.Route(ctx, domain.NewEnvelope(domain.TypeUserPresence, domain.Broadcast{}, map[string]any{"status": "online"}))

		req.NoError(err)
		req.Len(bridge.broadcasts, 1)
		req.Empty(bridge.notified)
		req.Equal(3, *res.Delivered)
		req.Equal(4, *res.Connections)
	})

	t.Run("should send targeted envelopes to the unicast endpoint", func(t *testing.T) {
		req := require.New(t)
		bridge := &fakeBridge{result: domain.DeliveryResult{OK: true}}
		svc := NewNotificationService(bridge, nil)

		for _, addr := range []domain.Addressing{domain.Unicast{ToUserID: "u2"}, domain.Conversation{ConversationID: "c1"}} {
			res, err := svc.Route(ctx, domain.NewEnvelope("new_message", addr, nil))
			req.NoError(err)
			req.True(res.OK)
		}
		req.Len(bridge.notified, 2)
		req.Empty(bridge.broadcasts)
	})

	t.Run("should reject broadcasts of non broadcastable types", func(t *testing.T) {
		req := require.New(t)
		bridge := &fakeBridge{}
		svc := NewNotificationService(bridge, []string{domain.TypeUserPresence})

		_, err := svc.Route(ctx, domain.NewEnvelope("new_message", domain.Broadcast{}, nil))

		req.ErrorIs(err, domain.ErrInvalidInput)
		req.Zero(bridge.total())
	})

	t.Run("should reject envelopes without recipient and make no call", func(t *testing.T) {
		req := require.New(t)
		bridge := &fakeBridge{}
		svc := NewNotificationService(bridge, nil)

		_, err := svc.Route(ctx, domain.Envelope{Type: "x"})

		var missing *domain.MissingFieldError
		req.True(errors.As(err, &missing))
		req.Equal(domain.FieldRecipient, missing.Field)
		req.Zero(bridge.total())
	})

	t.Run("should propagate bridge failures after a single attempt", func(t *testing.T) {
		req := require.New(t)
		bridge := &fakeBridge{err: &domain.BridgeError{Status: 503, Body: `{"error":"down"}`}}
		svc := NewNotificationService(bridge, nil)

		_, err := svc.Route(ctx, domain.NewEnvelope("new_message", domain.Unicast{ToUserID: "u2"}, nil))

		req.ErrorIs(err, domain.ErrBridgeUnavailable)
		var bErr *domain.BridgeError
		req.True(errors.As(err, &bErr))
		req.Equal(`{"error":"down"}`, bErr.Details())
		req.Equal(1, bridge.total())
	})
}

func TestNotificationService_Publish_SwallowsErrors(t *testing.T) {
	bridge := &fakeBridge{err: &domain.BridgeError{Err: errBoom}}
	svc := NewNotificationService(bridge, nil)

	require.NotPanics(t, func() {
		svc.Publish(context.Background(), domain.NewEnvelope("new_message", domain.Unicast{ToUserID: "u2"}, nil))
	})
	require.Equal(t, 1, bridge.total())
}
