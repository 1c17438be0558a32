package auth

import (
	"time"

	"github.com/clinicheck/clinicheck_backend/config"
)

type Config struct {
	MinPasswordLength int
	// MaxFailedAttempts failed logins within Lockout block further logins
	// for that email until the window expires.
	MaxFailedAttempts int
	Lockout           time.Duration
}

func DefaultConfig() Config {
	return Config{
		MinPasswordLength: 6,
		MaxFailedAttempts: 5,
		Lockout:           15 * time.Minute,
	}
}

func FromCentralConfig(c config.AuthenticationConfig) Config {
	out := DefaultConfig()
	if c.MinPasswordLength > 0 {
		out.MinPasswordLength = c.MinPasswordLength
	}
	if c.MaxFailedAttempts > 0 {
		out.MaxFailedAttempts = c.MaxFailedAttempts
	}
	if c.LockoutMinutes > 0 {
		out.Lockout = time.Duration(c.LockoutMinutes) * time.Minute
	}
	return out
}
