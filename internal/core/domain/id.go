package domain

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// RoomDelimiter separates the two identities of a call room name.
const RoomDelimiter = "-"

// MaxRoomNameLength bounds room names accepted for token issuance.
const MaxRoomNameLength = 64

type Identity string

func (id Identity) String() string {
	return string(id)
}

func (id Identity) Validate() error {
	if id == "" {
		return fmt.Errorf("%w: empty", ErrInvalidIdentity)
	}
	if strings.Contains(string(id), RoomDelimiter) {
		return fmt.Errorf("%w: %q contains %q", ErrInvalidIdentity, string(id), RoomDelimiter)
	}
	return nil
}

type RoomName string

func (r RoomName) String() string {
	return string(r)
}

// ResolveRoom names the two-party room for a and b. The result does not
// depend on argument order.
func ResolveRoom(a, b Identity) (RoomName, error) {
	if err := a.Validate(); err != nil {
		return "", err
	}
	if err := b.Validate(); err != nil {
		return "", err
	}
	if a == b {
		return "", fmt.Errorf("%w: cannot call yourself", ErrInvalidIdentity)
	}

	ids := []string{string(a), string(b)}
	slices.Sort(ids)
	return RoomName(strings.Join(ids, RoomDelimiter)), nil
}

// Members splits a two-party room name. ok is false when the name does not
// have exactly two non-empty components.
func (r RoomName) Members() (members []Identity, ok bool) {
	parts := strings.Split(string(r), RoomDelimiter)
	if len(parts) != 2 || lo.Contains(parts, "") {
		return nil, false
	}
	return lo.Map(parts, func(p string, _ int) Identity { return Identity(p) }), true
}

// BelongsTo reports whether id is one of the two identities named by room.
func BelongsTo(room RoomName, id Identity) bool {
	if id == "" {
		return false
	}
	members, ok := room.Members()
	if !ok {
		return false
	}
	return lo.Contains(members, id)
}

// Peer returns the other member of room.
func (r RoomName) Peer(self Identity) (Identity, bool) {
	if !BelongsTo(r, self) {
		return "", false
	}
	members, _ := r.Members()
	other, _ := lo.Find(members, func(m Identity) bool { return m != self })
	return other, other != ""
}

type TokenID string

func NewTokenID() TokenID {
	return TokenID(uuid.New().String())
}

func (id TokenID) String() string {
	return string(id)
}

type ConnectionID uuid.UUID

func NewConnectionID() ConnectionID {
	return ConnectionID(uuid.New())
}

func (id ConnectionID) String() string {
	return uuid.UUID(id).String()
}
