package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/clinicheck/clinicheck_backend/internal/service/identity"
	"github.com/clinicheck/clinicheck_backend/pkg/authorize"
	"github.com/clinicheck/clinicheck_backend/pkg/reqctx"
)

// RequirePermission checks the role of a token-authenticated caller against
// the permission table. Anonymous and legacy userUid callers pass through;
// the services apply their own rules to them.
func RequirePermission(auth authorize.Authorizer, resolver identity.Resolver, resource authorize.Resource, action authorize.Action) fiber.Handler {
	return func(c fiber.Ctx) error {
		caller, ok := reqctx.CallerFromContext(c.Context())
		if !ok || !caller.Verified {
			return c.Next()
		}

		id, err := resolver.Resolve(c.Context(), caller.UID)
		if err != nil {
			if errors.Is(err, identity.ErrUnknownCaller) {
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
		}

		// unknown roles fail with ErrInvalidArgs and are denied as well
		if allowed, err := auth.Enforce(c.Context(), id.Role, resource, action); err != nil || !allowed {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
		}
		return c.Next()
	}
}
