package domain

import "fmt"

type SessionState string

const (
	StateIdle              SessionState = "idle"
	StateResolvingIdentity SessionState = "resolving_identity"
	StateRequestingToken   SessionState = "requesting_token"
	StateAwaitingGrant     SessionState = "awaiting_grant"
	StateReady             SessionState = "ready"
	StateFailed            SessionState = "failed"
	StateLeft              SessionState = "left"
)

type FailureCode string

const (
	FailureNotAuthorized FailureCode = "not_authorized"
	FailureInvalidInput  FailureCode = "invalid_input"
	FailureTokenRejected FailureCode = "token_rejected"
	FailureNetwork       FailureCode = "network"
)

// Failure explains why a call attempt ended in StateFailed.
type Failure struct {
	Code    FailureCode
	Message string
	Err     error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Code, f.Message)
}

func (f *Failure) Unwrap() error {
	return f.Err
}
