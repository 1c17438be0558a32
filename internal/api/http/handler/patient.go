package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/clinicheck/clinicheck_backend/internal/service/identity"
	"github.com/clinicheck/clinicheck_backend/internal/service/patient"
)

type PatientHandler struct {
	svc patient.Service
}

func NewPatientHandler(svc patient.Service) *PatientHandler {
	return &PatientHandler{svc: svc}
}

func mapPatientError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, patient.ErrMissingEmail),
		errors.Is(err, patient.ErrMissingName),
		errors.Is(err, patient.ErrMissingCaller),
		errors.Is(err, patient.ErrInvalidEmail),
		errors.Is(err, patient.ErrWeakPassword):
		return badRequest(c, err.Error())
	case errors.Is(err, patient.ErrNotAuthorized),
		errors.Is(err, identity.ErrUnknownCaller):
		return forbidden(c, err.Error())
	case errors.Is(err, patient.ErrNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, patient.ErrEmailInUse):
		return conflict(c, err.Error())
	case errors.Is(err, patient.ErrMailNotConfigured),
		errors.Is(err, patient.ErrMailFailed):
		return internalError(c, err, err.Error())
	default:
		return internalError(c, err, "Error al procesar el paciente")
	}
}

// GET /pacientes?userUid=
func (h *PatientHandler) List(c fiber.Ctx) error {
	pacientes, err := h.svc.List(c.Context(), callerID(c))
	if err != nil {
		return mapPatientError(c, err)
	}
	return ok(c, pacientes)
}

// POST /pacientes
func (h *PatientHandler) Create(c fiber.Ctx) error {
	fields, err := bodyFields(c)
	if err != nil {
		return badRequest(c, invalidBody)
	}
	email, _ := fields["email"].(string)
	password, _ := fields["password"].(string)
	delete(fields, "email")

	res, err := h.svc.Create(c.Context(), patient.CreateRequest{
		Email:    email,
		Password: password,
		Fields:   fields,
	})
	if err != nil {
		return mapPatientError(c, err)
	}
	return created(c, res)
}

// PUT /pacientes/:id
func (h *PatientHandler) Update(c fiber.Ctx) error {
	fields, err := bodyFields(c)
	if err != nil {
		return badRequest(c, invalidBody)
	}

	id := c.Params("id")
	if err := h.svc.Update(c.Context(), id, callerID(c), fields); err != nil {
		return mapPatientError(c, err)
	}
	return ok(c, fiber.Map{"id": id})
}

// DELETE /pacientes/:id?userUid=
func (h *PatientHandler) Delete(c fiber.Ctx) error {
	id := c.Params("id")
	if err := h.svc.Delete(c.Context(), id, callerID(c)); err != nil {
		return mapPatientError(c, err)
	}
	return ok(c, fiber.Map{"id": id})
}
