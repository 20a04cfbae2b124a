package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Wyydra/relay/internal/core/domain"
	"github.com/Wyydra/relay/internal/core/port"
)

const DefaultTimeout = 10 * time.Second

// APIError is a non-2xx answer from the relay.
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("relay returned %d: %s (%s)", e.Status, e.Message, e.Details)
	}
	return fmt.Sprintf("relay returned %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusBadRequest:
		return domain.ErrInvalidInput
	case e.Status == http.StatusForbidden || e.Status == http.StatusUnauthorized:
		return domain.ErrUnauthorized
	case e.Status == http.StatusBadGateway:
		return domain.ErrBridgeUnavailable
	case e.Status >= 500:
		return domain.ErrSigningUnavailable
	}
	return nil
}

// Client calls the relay control plane. It implements port.TokenRequester and
// port.Notifier.
type Client struct {
	baseURL      string
	sessionToken string
	http         *http.Client
}

func NewClient(baseURL, sessionToken string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		sessionToken: sessionToken,
		http:         &http.Client{Timeout: timeout},
	}
}

type tokenRequest struct {
	Identity    string `json:"identity"`
	RoomName    string `json:"roomName"`
	DisplayName string `json:"displayName,omitempty"`
}

type tokenResponse struct {
	Token        string    `json:"token"`
	SignalingURL string    `json:"signalingUrl"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

func (c *Client) RequestToken(ctx context.Context, req port.TokenRequest) (domain.Credential, error) {
	var resp tokenResponse
	err := c.post(ctx, "/token", tokenRequest{
		Identity:    req.Identity.String(),
		RoomName:    req.Room.String(),
		DisplayName: req.DisplayName,
	}, &resp)
	if err != nil {
		return domain.Credential{}, err
	}
	return domain.Credential{
		Token:        resp.Token,
		SignalingURL: resp.SignalingURL,
		ExpiresAt:    resp.ExpiresAt,
	}, nil
}

func (c *Client) Notify(ctx context.Context, env domain.Envelope) (domain.DeliveryResult, error) {
	var res domain.DeliveryResult
	if err := c.post(ctx, "/notify", env, &res); err != nil {
		return domain.DeliveryResult{}, err
	}
	return res, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.sessionToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.sessionToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("relay %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{Status: resp.StatusCode}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		if json.Unmarshal(raw, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("relay %s: decode response: %w", path, err)
	}
	return nil
}
