package middleware

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/clinicheck/clinicheck_backend/pkg/logs"
	pasetotoken "github.com/clinicheck/clinicheck_backend/pkg/paseto"
	"github.com/clinicheck/clinicheck_backend/pkg/reqctx"
)

// LegacyCallerParam is the query/body field older clients use to name
// themselves.
const LegacyCallerParam = "userUid"

// TokenAuthenticator validates an access token and returns its caller.
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*reqctx.Caller, error)
}

// ResolveCaller attaches the caller to the request context.
//
// A Bearer access token wins; an invalid one is rejected with 401. Without a
// token, and when legacy is set, the userUid query parameter or JSON body
// field names the caller. Requests with neither continue anonymously.
func ResolveCaller(authn TokenAuthenticator, legacy bool) fiber.Handler {
	return func(c fiber.Ctx) error {
		if token, present := pasetotoken.BearerToken(c); present {
			caller, err := authn.Authenticate(c.Context(), token)
			if err != nil {
				logs.FromContext(c.Context()).Debug("access token rejected", "error", err)
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "token inválido"})
			}
			c.SetContext(reqctx.WithCaller(c.Context(), caller))
			return c.Next()
		}

		if legacy {
			if uid := legacyCallerID(c); uid != "" {
				c.SetContext(reqctx.WithCaller(c.Context(), &reqctx.Caller{UID: uid}))
			}
		}
		return c.Next()
	}
}

// AuthRequired rejects anonymous requests and legacy callers.
func AuthRequired() fiber.Handler {
	return func(c fiber.Ctx) error {
		caller, ok := reqctx.CallerFromContext(c.Context())
		if !ok || !caller.Verified {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
		}
		return c.Next()
	}
}

func legacyCallerID(c fiber.Ctx) string {
	if uid := strings.TrimSpace(c.Query(LegacyCallerParam)); uid != "" {
		return uid
	}
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		return ""
	}
	var body struct {
		UserUID string `json:"userUid"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return ""
	}
	return strings.TrimSpace(body.UserUID)
}
