package domain

import "time"

type Capabilities struct {
	Join      bool
	Publish   bool
	Subscribe bool
}

// CallCapabilities is granted to both parties of a two-party call.
var CallCapabilities = Capabilities{Join: true, Publish: true, Subscribe: true}

// AccessGrant is valid for exactly one identity on exactly one room.
type AccessGrant struct {
	ID           TokenID
	Identity     Identity
	DisplayName  string
	Room         RoomName
	Capabilities Capabilities
	IssuedAt     time.Time
	ExpiresAt    time.Time
}

func NewAccessGrant(id Identity, room RoomName, displayName string, now time.Time, ttl time.Duration) AccessGrant {
	return AccessGrant{
		ID:           NewTokenID(),
		Identity:     id,
		DisplayName:  displayName,
		Room:         room,
		Capabilities: CallCapabilities,
		IssuedAt:     now,
		ExpiresAt:    now.Add(ttl),
	}
}

// Credential is the signed form of an AccessGrant handed to a client.
type Credential struct {
	Token        string
	SignalingURL string
	ExpiresAt    time.Time
}
