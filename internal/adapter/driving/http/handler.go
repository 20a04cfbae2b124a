package http

import (
	"net/http"

	"github.com/Wyydra/relay/internal/adapter/driven/gateway/ws"
	"github.com/Wyydra/relay/internal/core/port"
	"github.com/Wyydra/relay/internal/core/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	TokenService        *service.TokenService
	NotificationService *service.NotificationService
	// Sessions is optional. When set, /token requires a bearer session token
	// whose subject is the requested identity, and /notify requires one whose
	// subject becomes the notification's sender.
	Sessions port.SessionVerifier
	// Hub is optional. When set, the relay also accepts client sockets on /ws.
	Hub *ws.Hub

	validate *validator.Validate
}

func NewHandler(tokenService *service.TokenService, notificationService *service.NotificationService, sessions port.SessionVerifier, hub *ws.Hub) *Handler {
	return &Handler{
		TokenService:        tokenService,
		NotificationService: notificationService,
		Sessions:            sessions,
		Hub:                 hub,
		validate:            validator.New(),
	}
}

func (h *Handler) NewRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.Health)
	r.Post("/token", h.IssueToken)
	r.Post("/notify", h.Notify)

	if h.Hub != nil {
		var presence port.PresencePublisher
		if h.NotificationService != nil {
			presence = h.NotificationService
		}
		r.Get("/ws", ServeWS(h.Hub, presence))
	}

	return r
}
