package http

import (
	"context"
	"net/http"
	"time"

	"github.com/Wyydra/relay/internal/adapter/driven/gateway/ws"
	"github.com/Wyydra/relay/internal/core/domain"
	"github.com/Wyydra/relay/internal/core/port"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// TODO: restrict to the web app origin once it is configurable
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WSClient struct {
	id            domain.ConnectionID
	user          domain.Identity
	conversations []string
	conn          *websocket.Conn
}

func (c *WSClient) ID() string {
	return c.id.String()
}

func (c *WSClient) UserID() domain.Identity {
	return c.user
}

func (c *WSClient) Subscribed(conversationID string) bool {
	return lo.Contains(c.conversations, conversationID)
}

func (c *WSClient) Send(env domain.Envelope) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteJSON(env)
}

func (c *WSClient) Close() error {
	return c.conn.Close()
}

func presenceEnvelope(user domain.Identity, status string) domain.Envelope {
	return domain.NewEnvelope(domain.TypeUserPresence, domain.Broadcast{}, map[string]any{
		"userId": user.String(),
		"status": status,
	})
}

// ServeWS upgrades a client socket and keeps it registered on hub until the
// peer goes away. Clients identify with ?user_id= and may subscribe to
// conversations with repeated ?conversation_id=. When presence is set, the
// user is announced online after registering and offline after leaving.
func ServeWS(hub *ws.Hub, presence port.PresencePublisher) http.HandlerFunc {
	announce := func(user domain.Identity, status string) {
		if presence == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		defer cancel()
		presence.Publish(ctx, presenceEnvelope(user, status))
	}

	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		user := domain.Identity(q.Get("user_id"))
		if err := user.Validate(); err != nil {
			writeError(w, err)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error().Err(err).Msg("Error while upgrading ws")
			return
		}

		client := &WSClient{
			id:            domain.NewConnectionID(),
			user:          user,
			conversations: lo.Uniq(lo.Compact(q["conversation_id"])),
			conn:          conn,
		}

		l := log.With().Str("client_id", client.ID()).Str("user_id", user.String()).Logger()
		l.Info().Msg("New client connected")

		hub.Register(client)
		announce(user, "online")

		defer func() {
			l.Info().Msg("Client disconnected")
			hub.Unregister(client)
			announce(user, "offline")
		}()

		// inbound frames are ignored; reading keeps control frames flowing
		for {
			if _, _, err := conn.NextReader(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
					l.Error().Err(err).Msg("Unexpected close error")
				}
				return
			}
		}
	}
}
