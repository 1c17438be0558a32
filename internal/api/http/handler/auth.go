package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/clinicheck/clinicheck_backend/internal/service/auth"
	"github.com/clinicheck/clinicheck_backend/pkg/reqctx"
)

type AuthHandler struct {
	svc auth.Service
}

func NewAuthHandler(svc auth.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type credentialsBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /auth/register
func (h *AuthHandler) Register(c fiber.Ctx) error {
	var body struct {
		credentialsBody
		Type string `json:"type"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, invalidBody)
	}

	res, err := h.svc.Register(c.Context(), auth.RegisterRequest{
		Email:    body.Email,
		Password: body.Password,
		Type:     body.Type,
	})
	if err != nil {
		return mapAuthError(c, err)
	}
	msg := "Usuario creado exitosamente"
	if t := strings.TrimSpace(body.Type); t != "" {
		msg = "Usuario " + t + " creado exitosamente"
	}
	return raw(c, fiber.StatusCreated, fiber.Map{"message": msg, "uid": res.UID, "email": res.Email})
}

// mobileLogin is the patient app's login body.
type mobileLogin struct {
	Message string `json:"message"`
	*auth.LoginResult
}

// POST /auth/login
func (h *AuthHandler) Login(c fiber.Ctx) error {
	return h.login(c, h.svc.Login, func(res *auth.LoginResult) error {
		return raw(c, fiber.StatusOK, mobileLogin{Message: "Login exitoso", LoginResult: res})
	})
}

// POST /auth/dashboard/login
func (h *AuthHandler) DashboardLogin(c fiber.Ctx) error {
	return h.login(c, h.svc.DashboardLogin, func(res *auth.LoginResult) error {
		return ok(c, res)
	})
}

func (h *AuthHandler) login(
	c fiber.Ctx,
	fn func(ctx context.Context, req auth.LoginRequest) (*auth.LoginResult, error),
	write func(res *auth.LoginResult) error,
) error {
	var body credentialsBody
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, invalidBody)
	}

	res, err := fn(c.Context(), auth.LoginRequest{Email: body.Email, Password: body.Password})
	if err != nil {
		return mapAuthError(c, err)
	}
	return write(res)
}

// POST /auth/refresh
func (h *AuthHandler) Refresh(c fiber.Ctx) error {
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, invalidBody)
	}
	if strings.TrimSpace(body.RefreshToken) == "" {
		return badRequest(c, "refreshToken es requerido")
	}

	tokens, err := h.svc.RefreshTokens(c.Context(), body.RefreshToken)
	if err != nil {
		return mapAuthError(c, err)
	}
	return ok(c, tokens)
}

// POST /auth/logout  (requires AuthRequired middleware)
func (h *AuthHandler) Logout(c fiber.Ctx) error {
	caller, found := reqctx.CallerFromContext(c.Context())
	if !found || caller.SessionID == "" {
		return unauthorized(c, "unauthorized")
	}

	if err := h.svc.Logout(c.Context(), caller.SessionID); err != nil {
		return internalError(c, err, "")
	}
	return noContent(c)
}

func mapAuthError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, auth.ErrMissingFields),
		errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrWeakPassword):
		return badRequest(c, err.Error())
	case errors.Is(err, auth.ErrEmailInUse):
		return conflict(c, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrSessionNotFound),
		errors.Is(err, auth.ErrInvalidToken):
		return unauthorized(c, err.Error())
	case errors.Is(err, auth.ErrAccountDisabled),
		errors.Is(err, auth.ErrRoleNotAllowed):
		return forbidden(c, err.Error())
	case errors.Is(err, auth.ErrNoRoleRecord):
		return notFound(c, err.Error())
	case errors.Is(err, auth.ErrTooManyAttempts):
		return tooManyRequests(c, err.Error())
	default:
		return internalError(c, err, "Error interno del servidor")
	}
}
