package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/clinicheck/clinicheck_backend/internal/service/survey"
)

type SurveyHandler struct {
	svc survey.Service
}

func NewSurveyHandler(svc survey.Service) *SurveyHandler {
	return &SurveyHandler{svc: svc}
}

func mapSurveyError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, survey.ErrMissingID):
		return badRequest(c, err.Error())
	case errors.Is(err, survey.ErrNotFound):
		return notFound(c, err.Error())
	default:
		return internalError(c, err, "Error al procesar la encuesta")
	}
}

// GET /encuestas
func (h *SurveyHandler) List(c fiber.Ctx) error {
	encuestas, err := h.svc.List(c.Context())
	if err != nil {
		return mapSurveyError(c, err)
	}
	return ok(c, encuestas)
}

// GET /encuestas/:id
func (h *SurveyHandler) Get(c fiber.Ctx) error {
	encuesta, err := h.svc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return mapSurveyError(c, err)
	}
	return ok(c, encuesta)
}

// POST /encuestas
func (h *SurveyHandler) Create(c fiber.Ctx) error {
	fields, err := bodyFields(c)
	if err != nil {
		return badRequest(c, invalidBody)
	}
	id, err := h.svc.Create(c.Context(), fields)
	if err != nil {
		return mapSurveyError(c, err)
	}
	return created(c, fiber.Map{"id": id})
}

// PUT /encuestas/:id
func (h *SurveyHandler) Update(c fiber.Ctx) error {
	fields, err := bodyFields(c)
	if err != nil {
		return badRequest(c, invalidBody)
	}
	id := c.Params("id")
	if err := h.svc.Update(c.Context(), id, fields); err != nil {
		return mapSurveyError(c, err)
	}
	return ok(c, fiber.Map{"id": id})
}

// DELETE /encuestas/:id
func (h *SurveyHandler) Delete(c fiber.Ctx) error {
	id := c.Params("id")
	if err := h.svc.Delete(c.Context(), id); err != nil {
		return mapSurveyError(c, err)
	}
	return ok(c, fiber.Map{"id": id})
}
