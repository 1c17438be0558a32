package email

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured is returned by Send when the channel is switched off
	// or has no sender address.
	ErrNotConfigured = errors.New("email channel not configured")

	// ErrInvalidMessage marks a Message rejected before reaching a provider.
	ErrInvalidMessage = errors.New("invalid email message")
)

func invalidMessage(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidMessage, reason)
}

// DeliveryError is a provider failure. Provider names the transport that
// refused the message, e.g. "gomail/smtp" or "aws/sesv2".
type DeliveryError struct {
	Provider string
	Err      error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("email delivery via %s: %v", e.Provider, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
