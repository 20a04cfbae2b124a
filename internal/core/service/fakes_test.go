package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Wyydra/relay/internal/core/domain"
	"github.com/Wyydra/relay/internal/core/port"
)

type fakeSigner struct {
	mu     sync.Mutex
	grants []domain.AccessGrant
	err    error
}

func (f *fakeSigner) Sign(grant domain.AccessGrant) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.grants = append(f.grants, grant)
	return "signed:" + grant.ID.String(), nil
}

func (f *fakeSigner) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.grants)
}

type fakeBridge struct {
	mu         sync.Mutex
	notified   []domain.Envelope
	broadcasts []domain.Envelope
	result     domain.DeliveryResult
	err        error
}

func (f *fakeBridge) Notify(_ context.Context, env domain.Envelope) (domain.DeliveryResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notified = append(f.notified, env)
	return f.result, f.err
}

func (f *fakeBridge) Broadcast(_ context.Context, env domain.Envelope) (domain.DeliveryResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broadcasts = append(f.broadcasts, env)
	return f.result, f.err
}

func (f *fakeBridge) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.notified) + len(f.broadcasts)
}

type fakeRequester struct {
	mu       sync.Mutex
	requests []port.TokenRequest
	cred     domain.Credential
	err      error
	// block, when set, holds RequestToken until closed.
	block chan struct{}
}

func (f *fakeRequester) RequestToken(ctx context.Context, req port.TokenRequest) (domain.Credential, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return domain.Credential{}, ctx.Err()
		}
	}
	return f.cred, f.err
}

func (f *fakeRequester) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type fakeMedia struct {
	mu           sync.Mutex
	disconnects  int
	disconnectFn func() error
}

func (f *fakeMedia) Connect(context.Context, domain.Credential) error {
	return nil
}

func (f *fakeMedia) Disconnect(context.Context) error {
	f.mu.Lock()
	f.disconnects++
	fn := f.disconnectFn
	f.mu.Unlock()
	if fn != nil {
		return fn()
	}
	return nil
}

func (f *fakeMedia) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.disconnects
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []domain.Envelope
	err  error
	// hold, when set, keeps notifications of type holdType waiting until closed.
	hold     chan struct{}
	holdType string
}

func (f *fakeNotifier) Notify(_ context.Context, env domain.Envelope) (domain.DeliveryResult, error) {
	if f.hold != nil && env.Type == f.holdType {
		<-f.hold
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, env)
	if f.err != nil {
		return domain.DeliveryResult{}, f.err
	}
	return domain.DeliveryResult{OK: true}, nil
}

func (f *fakeNotifier) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, e := range f.sent {
		out = append(out, e.Type)
	}
	return out
}

var errBoom = errors.New("boom")

const (
	timeout = time.Second
	tick    = 5 * time.Millisecond
)
