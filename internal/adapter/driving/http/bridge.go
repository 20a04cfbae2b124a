package http

import (
	"crypto/subtle"
	"fmt"
	"net/http"

	"github.com/Wyydra/relay/internal/adapter/driven/gateway/bridge"
	"github.com/Wyydra/relay/internal/adapter/driven/gateway/ws"
	"github.com/Wyydra/relay/internal/core/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// BridgeHandler serves the signaling bridge control plane on top of a hub.
type BridgeHandler struct {
	Hub    *ws.Hub
	Secret string
}

func NewBridgeHandler(hub *ws.Hub, secret string) *BridgeHandler {
	return &BridgeHandler{Hub: hub, Secret: secret}
}

func (h *BridgeHandler) NewRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.Health)
	r.Get("/ws", ServeWS(h.Hub, nil))

	r.Group(func(r chi.Router) {
		r.Use(h.requireSecret)
		r.Post(bridge.NotifyPath, h.Notify)
		r.Post(bridge.BroadcastPath, h.Broadcast)
	})

	return r
}

func (h *BridgeHandler) Health(w http.ResponseWriter, r *http.Request) {
	n, err := h.Hub.Connections(r.Context())
	if err != nil {
		h.unavailable(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "connections": n})
}

func (h *BridgeHandler) requireSecret(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Secret != "" {
			got := r.Header.Get(bridge.SecretHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(h.Secret)) != 1 {
				writeJSON(w, http.StatusUnauthorized, errorDTO{Error: "invalid bridge secret"})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (h *BridgeHandler) Notify(w http.ResponseWriter, r *http.Request) {
	env, err := decodeEnvelope(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	if env.Addressing.Kind() == domain.AddressBroadcast {
		writeError(w, fmt.Errorf("%w: broadcast envelopes go to %s", domain.ErrInvalidInput, bridge.BroadcastPath))
		return
	}

	res, err := h.Hub.Notify(r.Context(), env)
	if err != nil {
		h.unavailable(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": res.OK})
}

func (h *BridgeHandler) Broadcast(w http.ResponseWriter, r *http.Request) {
	env, err := decodeEnvelope(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := h.Hub.Broadcast(r.Context(), env)
	if err != nil {
		h.unavailable(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"delivered":   *res.Delivered,
		"connections": *res.Connections,
	})
}

func (h *BridgeHandler) unavailable(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("Hub delivery failed")
	writeJSON(w, http.StatusServiceUnavailable, errorDTO{Error: err.Error()})
}
