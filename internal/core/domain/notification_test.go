package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnvelope_Addressing(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		want Addressing
	}{
		{"unicast", map[string]any{"type": "new_message", "toUserId": "u2"}, Unicast{ToUserID: "u2"}},
		{"conversation", map[string]any{"type": "new_message", "conversationId": "c1"}, Conversation{ConversationID: "c1"}},
		{"broadcast", map[string]any{"type": "user_presence", "broadcast": true}, Broadcast{}},
		{"broadcast false is ignored", map[string]any{"type": "x", "toUserId": "u2", "broadcast": false}, Unicast{ToUserID: "u2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := ParseEnvelope(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, env.Addressing)
		})
	}
}

func TestParseEnvelope_MissingFields(t *testing.T) {
	tests := []struct {
		name  string
		raw   map[string]any
		field string
	}{
		{"no type", map[string]any{"toUserId": "u2"}, FieldType},
		{"blank type", map[string]any{"type": "  ", "toUserId": "u2"}, FieldType},
		{"non string type", map[string]any{"type": 3, "toUserId": "u2"}, FieldType},
		{"no recipient", map[string]any{"type": "x", "text": "hi"}, FieldRecipient},
		{"empty recipient", map[string]any{"type": "x", "toUserId": ""}, FieldRecipient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEnvelope(tt.raw)
			var missing *MissingFieldError
			require.True(t, errors.As(err, &missing))
			assert.Equal(t, tt.field, missing.Field)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestParseEnvelope_AmbiguousRecipient(t *testing.T) {
	_, err := ParseEnvelope(map[string]any{"type": "x", "toUserId": "u2", "conversationId": "c1"})
	require.ErrorIs(t, err, ErrInvalidInput)

	var missing *MissingFieldError
	assert.False(t, errors.As(err, &missing))
}

func TestEnvelope_PayloadRoundTrip(t *testing.T) {
	req := require.New(t)
	body := []byte(`{"type":"new_message","conversationId":"c1","text":"hello","seq":9007199254740993,"meta":{"n":1}}`)

	var env Envelope
	req.NoError(json.Unmarshal(body, &env))
	req.Equal("new_message", env.Type)
	req.Equal("hello", env.Payload["text"])
	req.Equal(json.Number("9007199254740993"), env.Payload["seq"])
	req.NotContains(env.Payload, FieldConversationID)

	out, err := json.Marshal(env)
	req.NoError(err)
	req.JSONEq(string(body), string(out))
	req.Contains(string(out), `"seq":9007199254740993`)
}

func TestEnvelope_UnmarshalRejectsMalformed(t *testing.T) {
	req := require.New(t)
	var env Envelope

	req.ErrorIs(json.Unmarshal([]byte(`{"toUserId":"u2"}`), &env), ErrInvalidInput)

	var missing *MissingFieldError
	req.ErrorAs(json.Unmarshal([]byte(`{"type":"x"}`), &env), &missing)
	req.Equal(FieldRecipient, missing.Field)
}
