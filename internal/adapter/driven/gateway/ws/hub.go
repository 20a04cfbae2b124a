package ws

import (
	"context"
	"errors"

	"github.com/Wyydra/relay/internal/core/domain"
	"github.com/rs/zerolog/log"
)

var ErrHubStopped = errors.New("hub stopped")

type delivery struct {
	env   domain.Envelope
	reply chan domain.DeliveryResult
}

// Hub holds client sockets and fans envelopes out to them. It implements
// port.SignalingBridge, so it can back the relay directly.
type Hub struct {
	clients    map[Client]bool
	deliver    chan delivery
	count      chan chan int
	register   chan Client
	unregister chan Client
	quit       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[Client]bool),
		deliver:    make(chan delivery),
		count:      make(chan chan int),
		register:   make(chan Client),
		unregister: make(chan Client),
		quit:       make(chan struct{}),
	}
}

func (h *Hub) Notify(ctx context.Context, env domain.Envelope) (domain.DeliveryResult, error) {
	return h.submit(ctx, env)
}

func (h *Hub) Broadcast(ctx context.Context, env domain.Envelope) (domain.DeliveryResult, error) {
	if _, ok := env.Addressing.(domain.Broadcast); !ok {
		env.Addressing = domain.Broadcast{}
	}
	return h.submit(ctx, env)
}

func (h *Hub) submit(ctx context.Context, env domain.Envelope) (domain.DeliveryResult, error) {
	d := delivery{env: env, reply: make(chan domain.DeliveryResult, 1)}
	select {
	case h.deliver <- d:
	case <-h.quit:
		return domain.DeliveryResult{}, ErrHubStopped
	case <-ctx.Done():
		return domain.DeliveryResult{}, ctx.Err()
	}

	select {
	case res := <-d.reply:
		return res, nil
	case <-ctx.Done():
		return domain.DeliveryResult{}, ctx.Err()
	}
}

// Connections returns the number of registered sockets.
func (h *Hub) Connections(ctx context.Context) (int, error) {
	reply := make(chan int, 1)
	select {
	case h.count <- reply:
	case <-h.quit:
		return 0, ErrHubStopped
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	return <-reply, nil
}

func (h *Hub) Run() {
	for {
		select {
		case <-h.quit:
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			return

		case client := <-h.register:
			h.clients[client] = true
			log.Info().Str("client_id", client.ID()).Str("user_id", client.UserID().String()).Int("count", len(h.clients)).Msg("Client registered")

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
				log.Info().Str("client_id", client.ID()).Int("count", len(h.clients)).Msg("Client unregistered")
			}

		case d := <-h.deliver:
			d.reply <- h.fanOut(d.env)

		case reply := <-h.count:
			reply <- len(h.clients)
		}
	}
}

func (h *Hub) fanOut(env domain.Envelope) domain.DeliveryResult {
	connections := len(h.clients)
	delivered := 0
	for client := range h.clients {
		if !matches(client, env.Addressing) {
			continue
		}
		if err := client.Send(env); err != nil {
			log.Error().Err(err).Str("client_id", client.ID()).Msg("Error sending notification")
			client.Close()
			delete(h.clients, client)
			continue
		}
		delivered++
	}

	log.Debug().
		Str("type", env.Type).
		Str("addressing", string(env.Addressing.Kind())).
		Int("delivered", delivered).
		Int("connections", connections).
		Msg("Fan-out done")

	if env.Addressing.Kind() == domain.AddressBroadcast {
		return domain.DeliveryResult{OK: true, Delivered: &delivered, Connections: &connections}
	}
	return domain.DeliveryResult{OK: true}
}

func matches(c Client, addr domain.Addressing) bool {
	switch a := addr.(type) {
	case domain.Broadcast:
		return true
	case domain.Unicast:
		return c.UserID() == a.ToUserID
	case domain.Conversation:
		return c.Subscribed(a.ConversationID)
	}
	return false
}

func (h *Hub) Register(c Client) {
	select {
	case h.register <- c:
	case <-h.quit:
		c.Close()
	}
}

func (h *Hub) Unregister(c Client) {
	select {
	case h.unregister <- c:
	case <-h.quit:
	}
}

func (h *Hub) Stop() {
	close(h.quit)
}
