package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/clinicheck/clinicheck_backend/internal/api/http/handler"
	"github.com/clinicheck/clinicheck_backend/pkg/authorize"
)

type permFunc func(authorize.Resource, authorize.Action) fiber.Handler

func (r *Router) registerAuthRoutes(api fiber.Router, ah *handler.AuthHandler, authRequired fiber.Handler) {
	a := api.Group("/auth")
	a.Post("/register", ah.Register)
	a.Post("/login", ah.Login)
	a.Post("/dashboard/login", ah.DashboardLogin)
	a.Post("/refresh", ah.Refresh)
	a.Post("/logout", authRequired, ah.Logout)
}

func (r *Router) registerAppointmentRoutes(api fiber.Router, h *handler.AppointmentHandler, requirePerm permFunc) {
	citas := api.Group("/citas")
	citas.Get("/", requirePerm(authorize.ResourceAppointment, authorize.ActionList), h.List)
	citas.Post("/", requirePerm(authorize.ResourceAppointment, authorize.ActionCreate), h.Create)
	citas.Put("/:id", requirePerm(authorize.ResourceAppointment, authorize.ActionUpdate), h.Update)
}

func (r *Router) registerPatientRoutes(api fiber.Router, h *handler.PatientHandler, requirePerm permFunc) {
	pacientes := api.Group("/pacientes")
	pacientes.Get("/", requirePerm(authorize.ResourcePatient, authorize.ActionList), h.List)
	pacientes.Post("/", requirePerm(authorize.ResourcePatient, authorize.ActionCreate), h.Create)
	pacientes.Put("/:id", requirePerm(authorize.ResourcePatient, authorize.ActionUpdate), h.Update)
	pacientes.Delete("/:id", requirePerm(authorize.ResourcePatient, authorize.ActionDelete), h.Delete)
}

func (r *Router) registerClinicianRoutes(api fiber.Router, h *handler.ClinicianHandler, requirePerm permFunc) {
	medicos := api.Group("/medicos")
	medicos.Get("/", requirePerm(authorize.ResourceClinician, authorize.ActionList), h.List)
	medicos.Post("/", requirePerm(authorize.ResourceClinician, authorize.ActionCreate), h.Create)
	medicos.Put("/:id", requirePerm(authorize.ResourceClinician, authorize.ActionUpdate), h.Update)
	medicos.Delete("/:id", requirePerm(authorize.ResourceClinician, authorize.ActionDelete), h.Delete)
}

func (r *Router) registerSurveyRoutes(api fiber.Router, h *handler.SurveyHandler, requirePerm permFunc) {
	encuestas := api.Group("/encuestas")
	encuestas.Get("/", requirePerm(authorize.ResourceSurvey, authorize.ActionList), h.List)
	encuestas.Post("/", requirePerm(authorize.ResourceSurvey, authorize.ActionCreate), h.Create)
	encuestas.Get("/:id", requirePerm(authorize.ResourceSurvey, authorize.ActionRead), h.Get)
	encuestas.Put("/:id", requirePerm(authorize.ResourceSurvey, authorize.ActionUpdate), h.Update)
	encuestas.Delete("/:id", requirePerm(authorize.ResourceSurvey, authorize.ActionDelete), h.Delete)
}

func (r *Router) registerResponseRoutes(api fiber.Router, h *handler.ResponseHandler, sh *handler.SummaryHandler, requirePerm permFunc) {
	respuestas := api.Group("/respuestas")
	respuestas.Get("/", requirePerm(authorize.ResourceResponse, authorize.ActionList), h.List)
	respuestas.Post("/", requirePerm(authorize.ResourceResponse, authorize.ActionCreate), h.Submit)

	api.Get("/resumen", requirePerm(authorize.ResourceSummary, authorize.ActionRead), sh.Get)
}

func (r *Router) registerMobileRoutes(api fiber.Router, h *handler.MobileHandler, requirePerm permFunc) {
	movil := api.Group("/movil")
	movil.Get("/citas", requirePerm(authorize.ResourceAppointment, authorize.ActionRead), h.Appointments)
	movil.Post("/citas/cancelar", requirePerm(authorize.ResourceAppointment, authorize.ActionCancel), h.Cancel)
	movil.Get("/datos", requirePerm(authorize.ResourceProfile, authorize.ActionRead), h.Profile)
}
