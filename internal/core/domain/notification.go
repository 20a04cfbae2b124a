package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"strings"
)

const (
	FieldType           = "type"
	FieldToUserID       = "toUserId"
	FieldConversationID = "conversationId"
	FieldBroadcast      = "broadcast"
	FieldRecipient      = "recipient"
	FieldFrom           = "from"
)

const (
	TypeUserPresence = "user_presence"
	TypeCallInvite   = "call_invite"
	TypeCallEnded    = "call_ended"
)

type AddressingKind string

const (
	AddressUnicast      AddressingKind = "unicast"
	AddressConversation AddressingKind = "conversation"
	AddressBroadcast    AddressingKind = "broadcast"
)

// Addressing is one of Unicast, Conversation or Broadcast.
type Addressing interface {
	Kind() AddressingKind
	Target() string
}

type Unicast struct {
	ToUserID Identity
}

func (Unicast) Kind() AddressingKind { return AddressUnicast }
func (u Unicast) Target() string     { return u.ToUserID.String() }

type Conversation struct {
	ConversationID string
}

func (Conversation) Kind() AddressingKind { return AddressConversation }
func (c Conversation) Target() string     { return c.ConversationID }

type Broadcast struct{}

func (Broadcast) Kind() AddressingKind { return AddressBroadcast }
func (Broadcast) Target() string       { return "*" }

// Envelope is an application event on its way to the signaling bridge.
type Envelope struct {
	Type       string
	Addressing Addressing
	Payload    map[string]any
}

func NewEnvelope(typ string, addr Addressing, payload map[string]any) Envelope {
	return Envelope{Type: typ, Addressing: addr, Payload: payload}
}

// ParseEnvelope decides the addressing of a raw notification body. Keys other
// than the addressing fields are kept as payload.
func ParseEnvelope(raw map[string]any) (Envelope, error) {
	typ, _ := raw[FieldType].(string)
	if strings.TrimSpace(typ) == "" {
		return Envelope{}, &MissingFieldError{Field: FieldType}
	}

	var candidates []Addressing
	if to, ok := stringField(raw, FieldToUserID); ok {
		candidates = append(candidates, Unicast{ToUserID: Identity(to)})
	}
	if conv, ok := stringField(raw, FieldConversationID); ok {
		candidates = append(candidates, Conversation{ConversationID: conv})
	}
	if b, _ := raw[FieldBroadcast].(bool); b {
		candidates = append(candidates, Broadcast{})
	}

	switch len(candidates) {
	case 0:
		return Envelope{}, &MissingFieldError{Field: FieldRecipient}
	case 1:
	default:
		return Envelope{}, fmt.Errorf("%w: ambiguous recipient, exactly one of %s, %s or %s=true is allowed",
			ErrInvalidInput, FieldToUserID, FieldConversationID, FieldBroadcast)
	}

	payload := maps.Clone(raw)
	for _, k := range []string{FieldType, FieldToUserID, FieldConversationID, FieldBroadcast} {
		delete(payload, k)
	}

	return Envelope{Type: typ, Addressing: candidates[0], Payload: payload}, nil
}

func stringField(raw map[string]any, key string) (string, bool) {
	v, ok := raw[key].(string)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

// Map renders the envelope in its wire form: payload keys plus type and the
// addressing field.
func (e Envelope) Map() map[string]any {
	m := make(map[string]any, len(e.Payload)+2)
	maps.Copy(m, e.Payload)
	m[FieldType] = e.Type
	switch a := e.Addressing.(type) {
	case Unicast:
		m[FieldToUserID] = a.ToUserID.String()
	case Conversation:
		m[FieldConversationID] = a.ConversationID
	case Broadcast:
		m[FieldBroadcast] = true
	}
	return m
}

func (e Envelope) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Map())
}

// UnmarshalJSON keeps payload numbers as json.Number so ids survive the hop
// through the relay unchanged.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	env, err := ParseEnvelope(raw)
	if err != nil {
		return err
	}
	*e = env
	return nil
}

// DeliveryResult is what the bridge reported. Delivered and Connections are
// only set for broadcasts.
type DeliveryResult struct {
	OK          bool `json:"ok"`
	Delivered   *int `json:"delivered,omitempty"`
	Connections *int `json:"connections,omitempty"`
}
