package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Wyydra/relay/internal/core/domain"
	"github.com/Wyydra/relay/internal/core/port"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// backgroundTimeout bounds the fire-and-forget work started by Leave and by a
// successful Start.
const backgroundTimeout = 5 * time.Second

// Negotiator drives a single call attempt from Idle to Ready or Failed. It is
// not reusable: start a new Negotiator for a new attempt.
type Negotiator struct {
	self        domain.Identity
	displayName string
	tokens      port.TokenRequester
	media       port.MediaSession
	notifier    port.Notifier

	mu      sync.Mutex
	state   domain.SessionState
	room    domain.RoomName
	cred    domain.Credential
	failure *domain.Failure

	// background tracks fire-and-forget goroutines so tests can wait on them.
	background sync.WaitGroup
	// lastNotify is closed once the most recent peer notification is done.
	// Each notification waits on its predecessor so the peer sees them in order.
	lastNotify chan struct{}
	l          zerolog.Logger
}

// NewNegotiator builds an attempt for self. media and notifier may be nil.
func NewNegotiator(self domain.Identity, displayName string, tokens port.TokenRequester, media port.MediaSession, notifier port.Notifier) *Negotiator {
	return &Negotiator{
		self:        self,
		displayName: displayName,
		tokens:      tokens,
		media:       media,
		notifier:    notifier,
		state:       domain.StateIdle,
		l:           log.With().Str("self", self.String()).Logger(),
	}
}

func (n *Negotiator) State() domain.SessionState {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

func (n *Negotiator) Room() domain.RoomName {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.room
}

// Credential is only meaningful in StateReady.
func (n *Negotiator) Credential() domain.Credential {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.cred
}

// Failure is nil unless the attempt is in StateFailed.
func (n *Negotiator) Failure() *domain.Failure {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.failure
}

// Start runs the attempt against peer. proposedRoom is the room named by an
// invitation, if any; it must match the room derived from both identities.
func (n *Negotiator) Start(ctx context.Context, peer domain.Identity, proposedRoom domain.RoomName) (domain.Credential, error) {
	if err := n.transition(domain.StateIdle, domain.StateResolvingIdentity); err != nil {
		return domain.Credential{}, err
	}

	room, err := domain.ResolveRoom(n.self, peer)
	if err != nil {
		return domain.Credential{}, n.fail(domain.FailureInvalidInput, "cannot derive call room", err)
	}
	if proposedRoom != "" && proposedRoom != room {
		return domain.Credential{}, n.fail(domain.FailureNotAuthorized,
			fmt.Sprintf("room %q does not match this call", proposedRoom), domain.ErrUnauthorized)
	}
	if !domain.BelongsTo(room, n.self) {
		return domain.Credential{}, n.fail(domain.FailureNotAuthorized, "you are not a member of this call", domain.ErrUnauthorized)
	}

	n.mu.Lock()
	n.room = room
	n.mu.Unlock()

	if err := n.transition(domain.StateResolvingIdentity, domain.StateRequestingToken); err != nil {
		return domain.Credential{}, err
	}

	cred, err := n.tokens.RequestToken(ctx, port.TokenRequest{
		Identity:    n.self,
		Room:        room,
		DisplayName: n.displayName,
	})
	if err != nil {
		return domain.Credential{}, n.fail(failureCode(err), failureMessage(err), err)
	}

	if err := n.transition(domain.StateRequestingToken, domain.StateAwaitingGrant); err != nil {
		return domain.Credential{}, err
	}
	if cred.Token == "" {
		return domain.Credential{}, n.fail(domain.FailureTokenRejected, "server returned an empty token", domain.ErrSigningUnavailable)
	}

	n.mu.Lock()
	n.cred = cred
	n.state = domain.StateReady
	n.mu.Unlock()

	n.l.Info().Str("room", room.String()).Msg("Call ready")
	n.notifyPeer(domain.TypeCallInvite, peer, room)

	return cred, nil
}

// Leave is accepted only from StateReady. It does not wait for the media layer
// to acknowledge the disconnect.
func (n *Negotiator) Leave() error {
	n.mu.Lock()
	if n.state != domain.StateReady {
		state := n.state
		n.mu.Unlock()
		return fmt.Errorf("%w: leave from %s", domain.ErrInvalidTransition, state)
	}
	n.state = domain.StateLeft
	room := n.room
	n.mu.Unlock()
	peer, _ := room.Peer(n.self)

	if n.media != nil {
		n.background.Add(1)
		go func() {
			defer n.background.Done()
			ctx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
			defer cancel()
			if err := n.media.Disconnect(ctx); err != nil {
				n.l.Warn().Err(err).Str("room", room.String()).Msg("Media disconnect failed")
			}
		}()
	}
	n.notifyPeer(domain.TypeCallEnded, peer, room)
	return nil
}

// Wait blocks until background work started by the attempt has finished.
func (n *Negotiator) Wait() {
	n.background.Wait()
}

func (n *Negotiator) notifyPeer(typ string, peer domain.Identity, room domain.RoomName) {
	if n.notifier == nil {
		return
	}
	env := domain.NewEnvelope(typ, domain.Unicast{ToUserID: peer}, map[string]any{
		domain.FieldFrom: n.self.String(),
		"fromName":       n.displayName,
		"roomName":       room.String(),
	})

	done := make(chan struct{})
	n.mu.Lock()
	prev := n.lastNotify
	n.lastNotify = done
	n.mu.Unlock()

	n.background.Add(1)
	go func() {
		defer n.background.Done()
		defer close(done)
		if prev != nil {
			<-prev
		}
		ctx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
		defer cancel()
		if _, err := n.notifier.Notify(ctx, env); err != nil {
			n.l.Warn().Err(err).Str("type", typ).Str("peer", peer.String()).Msg("Peer notification failed")
		}
	}()
}

func (n *Negotiator) transition(from, to domain.SessionState) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.state != from {
		return fmt.Errorf("%w: %s -> %s from %s", domain.ErrInvalidTransition, from, to, n.state)
	}
	n.state = to
	return nil
}

func (n *Negotiator) fail(code domain.FailureCode, msg string, err error) error {
	f := &domain.Failure{Code: code, Message: msg, Err: err}

	n.mu.Lock()
	n.state = domain.StateFailed
	n.failure = f
	n.mu.Unlock()

	n.l.Warn().Err(err).Str("code", string(code)).Msg("Call attempt failed")
	return f
}

func failureCode(err error) domain.FailureCode {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return domain.FailureNotAuthorized
	case errors.Is(err, domain.ErrInvalidInput):
		return domain.FailureInvalidInput
	case errors.Is(err, domain.ErrSigningUnavailable):
		return domain.FailureTokenRejected
	default:
		return domain.FailureNetwork
	}
}

func failureMessage(err error) string {
	switch failureCode(err) {
	case domain.FailureNotAuthorized:
		return "you are not allowed to join this call"
	case domain.FailureInvalidInput:
		return "the call request was rejected as invalid"
	case domain.FailureTokenRejected:
		return "calls are temporarily unavailable"
	default:
		return "could not reach the call server"
	}
}
