package port

import "github.com/Wyydra/relay/internal/core/domain"

// TokenSigner serializes a grant into an opaque signed token.
type TokenSigner interface {
	Sign(grant domain.AccessGrant) (string, error)
}

// SessionVerifier proves which identity is making a request.
type SessionVerifier interface {
	Verify(token string) (domain.Identity, error)
}
