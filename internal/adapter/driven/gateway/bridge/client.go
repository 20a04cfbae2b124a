package bridge

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
	"github.com/google/uuid"
)

const (
	NotifyPath         = "/notify"
	BroadcastPath      = "/notify-broadcast"
	SecretHeader       = "X-Bridge-Secret"
	RequestIDHeader    = "X-Request-Id"
	DefaultTimeout     = 5 * time.Second
	maxErrorBodyBytes  = 4 << 10
	maxResultBodyBytes = 64 << 10
)

// Client speaks the signaling bridge control plane. It implements
// port.SignalingBridge and makes exactly one request per call.
type Client struct {
	baseURL string
	secret  string
	timeout time.Duration
	http    *http.Client
}

type Option func(*Client)

func WithSecret(secret string) Option {
	return func(c *Client) { c.secret = secret }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		http:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Notify(ctx context.Context, env domain.Envelope) (domain.DeliveryResult, error) {
	var res domain.DeliveryResult
	if err := c.post(ctx, NotifyPath, env, &res); err != nil {
		return domain.DeliveryResult{}, err
	}
	return res, nil
}

func (c *Client) Broadcast(ctx context.Context, env domain.Envelope) (domain.DeliveryResult, error) {
	var res struct {
		Delivered   int `json:"delivered"`
		Connections int `json:"connections"`
	}
	if err := c.post(ctx, BroadcastPath, env, &res); err != nil {
		return domain.DeliveryResult{}, err
	}
	return domain.DeliveryResult{
		OK:          true,
		Delivered:   &res.Delivered,
		Connections: &res.Connections,
	}, nil
}

func (c *Client) post(ctx context.Context, path string, env domain.Envelope, out any) error {
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("%w: encode envelope: %v", domain.ErrInvalidInput, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return &domain.BridgeError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())
	if c.secret != "" {
		req.Header.Set(SecretHeader, c.secret)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.BridgeError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return &domain.BridgeError{Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResultBodyBytes)).Decode(out); err != nil {
		return &domain.BridgeError{Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
