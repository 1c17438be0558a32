package pasetotoken

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/clinicheck/clinicheck_backend/config"
)

// BearerToken extracts the token of an "Authorization: Bearer <token>"
// header. ok is false when the header is absent; a malformed header yields
// ok true with an empty token so callers can reject it.
func BearerToken(c fiber.Ctx) (token string, ok bool) {
	h := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if h == "" {
		return "", false
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", true
	}
	return strings.TrimSpace(parts[1]), true
}

// NewPasetoManager creates a new PASETO manager from config. Outside
// production a missing local key is replaced by an ephemeral one, reported
// through the ephemeral return value.
func NewPasetoManager(cfg *config.Config) (mgr *Manager, ephemeral bool, err error) {
	p := cfg.Authentication.Paseto

	var keys Keys
	if Mode(p.Mode) == ModeLocal && strings.TrimSpace(p.LocalKeyHex) == "" && cfg.Server.Environment != "production" {
		keys, ephemeral = NewLocalKeys(), true
	} else {
		keys, err = LoadKeys(KeyStrings{
			Mode:         Mode(p.Mode),
			SymmetricHex: p.LocalKeyHex,
			SecretHex:    p.SecretKeyHex,
			PublicHex:    p.PublicKeyHex,
		})
		if err != nil {
			return nil, false, err
		}
	}

	mgr, err = New(Config{
		Mode:       Mode(p.Mode),
		Issuer:     p.Issuer,
		Audience:   p.Audience,
		AccessTTL:  time.Duration(p.AccessTTLMinutes) * time.Minute,
		RefreshTTL: time.Duration(p.RefreshTTLDays) * 24 * time.Hour,
	}, keys)
	if err != nil {
		return nil, false, err
	}

	return mgr, ephemeral, nil
}
