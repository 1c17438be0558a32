package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/clinicheck/clinicheck_backend/internal/service/appointment"
	"github.com/clinicheck/clinicheck_backend/internal/service/identity"
)

type AppointmentHandler struct {
	svc appointment.Service
}

func NewAppointmentHandler(svc appointment.Service) *AppointmentHandler {
	return &AppointmentHandler{svc: svc}
}

func mapAppointmentError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, appointment.ErrMissingID),
		errors.Is(err, appointment.ErrMissingCaller),
		errors.Is(err, appointment.ErrInvalidEstado),
		errors.Is(err, identity.ErrMissingCaller):
		return badRequest(c, err.Error())
	case errors.Is(err, appointment.ErrNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, appointment.ErrPermissionDenied):
		return forbidden(c, err.Error())
	case errors.Is(err, identity.ErrUnknownCaller):
		return forbidden(c, err.Error())
	case errors.Is(err, appointment.ErrInvalidState):
		return conflict(c, err.Error())
	default:
		return internalError(c, err, "Error al procesar la cita")
	}
}

// GET /citas?userUid=
func (h *AppointmentHandler) List(c fiber.Ctx) error {
	citas, err := h.svc.List(c.Context(), callerID(c))
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return ok(c, citas)
}

// POST /citas
func (h *AppointmentHandler) Create(c fiber.Ctx) error {
	fields, err := bodyFields(c)
	if err != nil {
		return badRequest(c, invalidBody)
	}

	id, err := h.svc.Create(c.Context(), fields)
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return raw(c, fiber.StatusCreated, fiber.Map{"message": "Cita creada exitosamente", "id": id})
}

// PUT /citas/:id
func (h *AppointmentHandler) Update(c fiber.Ctx) error {
	fields, err := bodyFields(c)
	if err != nil {
		return badRequest(c, invalidBody)
	}

	id := c.Params("id")
	if err := h.svc.Update(c.Context(), id, callerID(c), fields); err != nil {
		return mapAppointmentError(c, err)
	}
	return ok(c, fiber.Map{"id": id})
}
