package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Wyydra/relay/internal/core/domain"
	"github.com/rs/zerolog/log"
)

const maxBodyBytes = 64 << 10

type errorDTO struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Error while writing response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	dto := errorDTO{Error: err.Error()}

	var bErr *domain.BridgeError
	var missing *domain.MissingFieldError
	switch {
	case errors.As(err, &bErr):
		dto.Error = domain.ErrBridgeUnavailable.Error()
		dto.Details = bErr.Details()
	case errors.As(err, &missing):
		dto.Details = missing.Field
	case errors.Is(err, domain.ErrSigningUnavailable):
		// configuration details stay in the logs
		dto.Error = domain.ErrSigningUnavailable.Error()
	}

	writeJSON(w, status, dto)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrBridgeUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
