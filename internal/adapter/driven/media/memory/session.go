package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/Wyydra/relay/internal/core/domain"
	"github.com/rs/zerolog/log"
)

var ErrNotConnected = errors.New("media session not connected")

// Session stands in for the external media layer. It only records the
// credential it was handed.
type Session struct {
	mu        sync.Mutex
	cred      *domain.Credential
	connected bool
}

func NewSession() *Session {
	return &Session{}
}

func (s *Session) Connect(ctx context.Context, cred domain.Credential) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = &cred
	s.connected = true
	log.Info().Str("url", cred.SignalingURL).Time("expires_at", cred.ExpiresAt).Msg("Media session connected")
	return nil
}

func (s *Session) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return ErrNotConnected
	}
	s.connected = false
	log.Info().Msg("Media session disconnected")
	return nil
}

func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}
