package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Wyydra/relay/internal/core/domain"
	"github.com/Wyydra/relay/internal/core/port"
	"github.com/rs/zerolog/log"
)

const DefaultTokenTTL = 10 * time.Minute

type TokenService struct {
	signer       port.TokenSigner
	signalingURL string
	ttl          time.Duration
	now          func() time.Time
}

// NewTokenService returns an issuer. A nil signer is allowed: every Issue then
// fails with domain.ErrSigningUnavailable.
func NewTokenService(signer port.TokenSigner, signalingURL string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{
		signer:       signer,
		signalingURL: signalingURL,
		ttl:          ttl,
		now:          time.Now,
	}
}

func (s *TokenService) Issue(ctx context.Context, id domain.Identity, room domain.RoomName, displayName string) (domain.Credential, error) {
	if s.signer == nil {
		return domain.Credential{}, domain.ErrSigningUnavailable
	}
	if err := id.Validate(); err != nil {
		return domain.Credential{}, err
	}
	if room == "" || len(room) > domain.MaxRoomNameLength {
		return domain.Credential{}, fmt.Errorf("%w: room name must be 1-%d characters", domain.ErrInvalidInput, domain.MaxRoomNameLength)
	}
	if !domain.BelongsTo(room, id) {
		log.Warn().Str("identity", id.String()).Str("room", room.String()).Msg("Token requested for foreign room")
		return domain.Credential{}, domain.ErrUnauthorized
	}
	if displayName == "" {
		displayName = id.String()
	}

	grant := domain.NewAccessGrant(id, room, displayName, s.now(), s.ttl)
	token, err := s.signer.Sign(grant)
	if err != nil {
		log.Error().Err(err).Str("room", room.String()).Msg("Signing failed")
		return domain.Credential{}, fmt.Errorf("%w: %v", domain.ErrSigningUnavailable, err)
	}

	log.Debug().
		Str("identity", id.String()).
		Str("room", room.String()).
		Str("token_id", grant.ID.String()).
		Time("expires_at", grant.ExpiresAt).
		Msg("Issued call token")

	return domain.Credential{
		Token:        token,
		SignalingURL: s.signalingURL,
		ExpiresAt:    grant.ExpiresAt,
	}, nil
}
