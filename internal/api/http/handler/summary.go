package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/clinicheck/clinicheck_backend/internal/service/identity"
	"github.com/clinicheck/clinicheck_backend/internal/service/summary"
)

type SummaryHandler struct {
	svc summary.Service
}

func NewSummaryHandler(svc summary.Service) *SummaryHandler {
	return &SummaryHandler{svc: svc}
}

// GET /resumen?userUid=
func (h *SummaryHandler) Get(c fiber.Ctx) error {
	s, err := h.svc.Get(c.Context(), callerID(c))
	if err != nil {
		if errors.Is(err, identity.ErrUnknownCaller) {
			return forbidden(c, err.Error())
		}
		return internalError(c, err, "Error al obtener el resumen")
	}
	return ok(c, s)
}
