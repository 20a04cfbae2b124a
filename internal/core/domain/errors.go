package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidIdentity    = fmt.Errorf("%w: invalid identity", ErrInvalidInput)
	ErrUnauthorized       = errors.New("identity is not a member of the room")
	ErrBridgeUnavailable  = errors.New("signaling bridge unavailable")
	ErrSigningUnavailable = errors.New("token signing unavailable")
	ErrInvalidTransition  = errors.New("invalid session transition")
)

// MissingFieldError reports a required envelope field that was absent.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field: %s", e.Field)
}

func (e *MissingFieldError) Unwrap() error {
	return ErrInvalidInput
}

// BridgeError describes a failed forwarding attempt. Status is zero when the
// bridge could not be reached at all.
type BridgeError struct {
	Status int
	Body   string
	Err    error
}

func (e *BridgeError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %v", ErrBridgeUnavailable, e.Err)
	}
	return fmt.Sprintf("%s: status %d", ErrBridgeUnavailable, e.Status)
}

func (e *BridgeError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrBridgeUnavailable}
	}
	return []error{ErrBridgeUnavailable, e.Err}
}

// Details is the text surfaced to callers under the "details" key.
func (e *BridgeError) Details() string {
	if e.Body != "" {
		return e.Body
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return ""
}
