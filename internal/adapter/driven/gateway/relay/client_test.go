package relay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Wyydra/relay/internal/core/domain"
	"github.com/Wyydra/relay/internal/core/port"
	"github.com/stretchr/testify/require"
)

func TestClient_RequestToken(t *testing.T) {
	req := require.New(t)
	expires := time.Date(2026, 1, 1, 12, 10, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req.Equal("/token", r.URL.Path)
		req.Equal("Bearer session", r.Header.Get("Authorization"))

		var body tokenRequest
		req.NoError(json.NewDecoder(r.Body).Decode(&body))
		req.Equal(tokenRequest{Identity: "u1", RoomName: "u1-u2", DisplayName: "Alice"}, body)

		_ = json.NewEncoder(w).Encode(tokenResponse{Token: "tok", SignalingURL: "wss://media", ExpiresAt: expires})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "session", time.Second)
	cred, err := c.RequestToken(context.Background(), port.TokenRequest{Identity: "u1", Room: "u1-u2", DisplayName: "Alice"})

	req.NoError(err)
	req.Equal("tok", cred.Token)
	req.Equal("wss://media", cred.SignalingURL)
	req.True(expires.Equal(cred.ExpiresAt))
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		body   string
		want   error
	}{
		{http.StatusBadRequest, `{"error":"invalid input"}`, domain.ErrInvalidInput},
		{http.StatusForbidden, `{"error":"forbidden"}`, domain.ErrUnauthorized},
		{http.StatusInternalServerError, `{"error":"token signing unavailable"}`, domain.ErrSigningUnavailable},
		{http.StatusBadGateway, `{"error":"bridge","details":"503"}`, domain.ErrBridgeUnavailable},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			req := require.New(t)
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(srv.URL, "", time.Second)
			_, err := c.RequestToken(context.Background(), port.TokenRequest{Identity: "u1", Room: "u1-u2"})

			req.ErrorIs(err, tt.want)
			var apiErr *APIError
			req.True(errors.As(err, &apiErr))
			req.Equal(tt.status, apiErr.Status)
			req.NotEmpty(apiErr.Message)
		})
	}
}

func TestClient_Notify(t *testing.T) {
	req := require.New(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		req.NoError(json.NewDecoder(r.Body).Decode(&body))
		req.Equal("call_invite", body["type"])
		req.Equal("u2", body["toUserId"])
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	res, err := c.Notify(context.Background(), domain.NewEnvelope(domain.TypeCallInvite, domain.Unicast{ToUserID: "u2"}, nil))

	req.NoError(err)
	req.True(res.OK)
}
