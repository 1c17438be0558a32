package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/clinicheck/clinicheck_backend/internal/service/response"
)

// ResponseHandler serves survey responses.
type ResponseHandler struct {
	svc response.Service
}

func NewResponseHandler(svc response.Service) *ResponseHandler {
	return &ResponseHandler{svc: svc}
}

func mapResponseError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, response.ErrMissingFields):
		return badRequest(c, err.Error())
	case errors.Is(err, response.ErrUnknownPatient):
		return forbidden(c, err.Error())
	case errors.Is(err, response.ErrSurveyNotFound):
		return notFound(c, err.Error())
	default:
		return internalError(c, err, "Error al procesar la respuesta")
	}
}

// GET /respuestas
func (h *ResponseHandler) List(c fiber.Ctx) error {
	respuestas, err := h.svc.List(c.Context())
	if err != nil {
		return mapResponseError(c, err)
	}
	return ok(c, respuestas)
}

// POST /respuestas
func (h *ResponseHandler) Submit(c fiber.Ctx) error {
	var body response.SubmitRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, invalidBody)
	}

	id, err := h.svc.Submit(c.Context(), body)
	if err != nil {
		return mapResponseError(c, err)
	}
	return raw(c, fiber.StatusCreated, fiber.Map{"message": "Respuesta guardada exitosamente", "id": id})
}
