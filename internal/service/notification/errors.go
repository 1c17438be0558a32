package notification

import "errors"

var (
	ErrNotConfigured = errors.New("notification channel is not configured")
	ErrNoRecipient   = errors.New("notification has no recipient")
)
