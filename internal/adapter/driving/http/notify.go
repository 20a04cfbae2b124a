package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Wyydra/relay/internal/core/domain"
	"github.com/rs/zerolog/log"
)

func decodeEnvelope(w http.ResponseWriter, r *http.Request) (domain.Envelope, error) {
	var env domain.Envelope
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&env); err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return domain.Envelope{}, err
		}
		return domain.Envelope{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return env, nil
}

func (h *Handler) Notify(w http.ResponseWriter, r *http.Request) {
	var caller domain.Identity
	if h.Sessions != nil {
		var err error
		if caller, err = h.Sessions.Verify(bearerToken(r)); err != nil {
			log.Warn().Err(err).Msg("Rejected session")
			writeError(w, err)
			return
		}
	}

	env, err := decodeEnvelope(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	if caller != "" {
		// the sender is whoever the session says, not what the body claims
		env.Payload[domain.FieldFrom] = caller.String()
	}

	res, err := h.NotificationService.Route(r.Context(), env)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
