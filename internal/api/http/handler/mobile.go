package handler

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/clinicheck/clinicheck_backend/internal/schema"
	"github.com/clinicheck/clinicheck_backend/internal/service/appointment"
	"github.com/clinicheck/clinicheck_backend/internal/service/patient"
)

// MobileHandler serves the patient app. Bodies are written without the
// data envelope.
type MobileHandler struct {
	appointments appointment.Service
	patients     patient.Service
}

func NewMobileHandler(appointments appointment.Service, patients patient.Service) *MobileHandler {
	return &MobileHandler{appointments: appointments, patients: patients}
}

// GET /movil/citas?medicoUid= | ?userUid=
func (h *MobileHandler) Appointments(c fiber.Ctx) error {
	if medico := strings.TrimSpace(c.Query("medicoUid")); medico != "" {
		slots, err := h.appointments.BusySlots(c.Context(), medico)
		if err != nil {
			return internalError(c, err, "Error al obtener citas de paciente")
		}
		return raw(c, fiber.StatusOK, slots)
	}

	uid := strings.TrimSpace(c.Query("userUid"))
	if uid == "" {
		uid = callerID(c)
	}
	if uid == "" {
		return raw(c, fiber.StatusOK, []any{})
	}

	status, err := h.appointments.Status(c.Context(), uid)
	if err != nil {
		return internalError(c, err, "Error al obtener citas de paciente")
	}
	return raw(c, fiber.StatusOK, status)
}

// POST /movil/citas/cancelar
func (h *MobileHandler) Cancel(c fiber.Ctx) error {
	id, err := h.appointments.CancelLatest(c.Context(), callerID(c))
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return raw(c, fiber.StatusOK, fiber.Map{"id": id, "estado": schema.EstadoCanceladoPorPaciente})
}

// GET /movil/datos?userUid=
func (h *MobileHandler) Profile(c fiber.Ctx) error {
	uid := strings.TrimSpace(c.Query("userUid"))
	if uid == "" {
		uid = callerID(c)
	}
	if uid == "" {
		return badRequest(c, "Falta userUid")
	}

	data, err := h.patients.Profile(c.Context(), uid)
	if err != nil {
		return mapPatientError(c, err)
	}
	return raw(c, fiber.StatusOK, data)
}
