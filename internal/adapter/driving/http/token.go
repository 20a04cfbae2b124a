package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Wyydra/relay/internal/core/domain"
	"github.com/rs/zerolog/log"
)

type tokenRequestDTO struct {
	Identity    string `json:"identity" validate:"required"`
	RoomName    string `json:"roomName" validate:"required,max=64"`
	DisplayName string `json:"displayName" validate:"max=128"`
}

type tokenResponseDTO struct {
	Token        string    `json:"token"`
	SignalingURL string    `json:"signalingUrl"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

func (h *Handler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequestDTO
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
		return
	}

	identity := domain.Identity(req.Identity)
	if h.Sessions != nil {
		caller, err := h.Sessions.Verify(bearerToken(r))
		if err != nil {
			log.Warn().Err(err).Str("identity", req.Identity).Msg("Rejected session")
			writeError(w, err)
			return
		}
		if caller != identity {
			log.Warn().Str("caller", caller.String()).Str("identity", req.Identity).Msg("Token requested for another identity")
			writeError(w, domain.ErrUnauthorized)
			return
		}
	}

	cred, err := h.TokenService.Issue(r.Context(), identity, domain.RoomName(req.RoomName), req.DisplayName)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponseDTO{
		Token:        cred.Token,
		SignalingURL: cred.SignalingURL,
		ExpiresAt:    cred.ExpiresAt,
	})
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}
