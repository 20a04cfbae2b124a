package port

import (
	"context"

	"github.com/Wyydra/relay/internal/core/domain"
)

type TokenRequest struct {
	Identity    domain.Identity
	Room        domain.RoomName
	DisplayName string
}

type TokenRequester interface {
	RequestToken(ctx context.Context, req TokenRequest) (domain.Credential, error)
}

// MediaSession is the external call layer a credential is handed to.
type MediaSession interface {
	Connect(ctx context.Context, cred domain.Credential) error
	Disconnect(ctx context.Context) error
}
