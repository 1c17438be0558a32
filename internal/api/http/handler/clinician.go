package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/clinicheck/clinicheck_backend/internal/service/clinician"
)

type ClinicianHandler struct {
	svc clinician.Service
}

func NewClinicianHandler(svc clinician.Service) *ClinicianHandler {
	return &ClinicianHandler{svc: svc}
}

func mapClinicianError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, clinician.ErrMissingID):
		return badRequest(c, err.Error())
	case errors.Is(err, clinician.ErrNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, clinician.ErrAccountRemoval):
		return internalError(c, err, clinician.ErrAccountRemoval.Error())
	default:
		return internalError(c, err, "Error al procesar el médico")
	}
}

// GET /medicos
func (h *ClinicianHandler) List(c fiber.Ctx) error {
	medicos, err := h.svc.List(c.Context())
	if err != nil {
		return mapClinicianError(c, err)
	}
	return ok(c, medicos)
}

// POST /medicos
func (h *ClinicianHandler) Create(c fiber.Ctx) error {
	fields, err := bodyFields(c)
	if err != nil {
		return badRequest(c, invalidBody)
	}
	id, err := h.svc.Create(c.Context(), fields)
	if err != nil {
		return mapClinicianError(c, err)
	}
	return created(c, fiber.Map{"id": id})
}

// PUT /medicos/:id
func (h *ClinicianHandler) Update(c fiber.Ctx) error {
	fields, err := bodyFields(c)
	if err != nil {
		return badRequest(c, invalidBody)
	}
	id := c.Params("id")
	if err := h.svc.Update(c.Context(), id, fields); err != nil {
		return mapClinicianError(c, err)
	}
	return ok(c, fiber.Map{"id": id})
}

// DELETE /medicos/:id
func (h *ClinicianHandler) Delete(c fiber.Ctx) error {
	id := c.Params("id")
	if err := h.svc.Delete(c.Context(), id); err != nil {
		return mapClinicianError(c, err)
	}
	return ok(c, fiber.Map{"id": id})
}
