package handler

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/clinicheck/clinicheck_backend/pkg/logs"
	"github.com/clinicheck/clinicheck_backend/pkg/reqctx"
)

func ok(c fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{"data": data})
}

func created(c fiber.Ctx, data any) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": data})
}

// raw writes v without the data envelope. The patient app reads these
// bodies at top level.
func raw(c fiber.Ctx, status int, v any) error {
	return c.Status(status).JSON(v)
}

func noContent(c fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}

func badRequest(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

func unauthorized(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": msg})
}

func forbidden(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": msg})
}

func notFound(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": msg})
}

func conflict(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": msg})
}

func tooManyRequests(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": msg})
}

// internalError logs err and answers with msg, or a generic message.
func internalError(c fiber.Ctx, err error, msg string) error {
	logs.FromContext(c.Context()).Error("request failed",
		"method", c.Method(), "path", c.Path(), "error", err)
	if msg == "" {
		msg = "error interno del servidor"
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": msg})
}

const invalidBody = "cuerpo de la solicitud inválido"

// callerID is the uid resolved by the caller middleware, "" when anonymous.
func callerID(c fiber.Ctx) string {
	return reqctx.CallerUID(c.Context())
}

// bodyFields decodes a JSON object body and removes the caller field.
func bodyFields(c fiber.Ctx) (map[string]any, error) {
	fields := map[string]any{}
	if len(strings.TrimSpace(string(c.Body()))) == 0 {
		return fields, nil
	}
	if err := c.Bind().JSON(&fields); err != nil {
		return nil, err
	}
	delete(fields, "userUid")
	return fields, nil
}
