package pasetotoken

import (
	"errors"
	"fmt"
)

var (
	// ErrKeyConfig reports a key set or manager that cannot issue or verify
	// session tokens. Startup fails on it.
	ErrKeyConfig = errors.New("session token config")

	// ErrTokenRejected wraps the reason a presented token was refused.
	ErrTokenRejected = errors.New("session token rejected")
)

func keyConfigError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrKeyConfig, fmt.Sprintf(format, args...))
}

func rejected(err error) error {
	return fmt.Errorf("%w: %v", ErrTokenRejected, err)
}
