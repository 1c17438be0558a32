package router

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/clinicheck/clinicheck_backend/config"
	"github.com/clinicheck/clinicheck_backend/internal/api/http/handler"
	"github.com/clinicheck/clinicheck_backend/internal/api/http/middleware"
	"github.com/clinicheck/clinicheck_backend/internal/service/appointment"
	"github.com/clinicheck/clinicheck_backend/internal/service/auth"
	"github.com/clinicheck/clinicheck_backend/internal/service/clinician"
	"github.com/clinicheck/clinicheck_backend/internal/service/identity"
	"github.com/clinicheck/clinicheck_backend/internal/service/patient"
	"github.com/clinicheck/clinicheck_backend/internal/service/response"
	"github.com/clinicheck/clinicheck_backend/internal/service/summary"
	"github.com/clinicheck/clinicheck_backend/internal/service/survey"
	"github.com/clinicheck/clinicheck_backend/pkg/authorize"
	"github.com/clinicheck/clinicheck_backend/pkg/observability"
)

// Module provides the Router to the fx graph.
var Module = fx.Module("router", fx.Provide(NewRouter))

type Params struct {
	fx.In

	Cfg            *config.Config
	Redis          *redis.Client `optional:"true"`
	Auth           authorize.Authorizer
	Resolver       identity.Resolver
	AuthSvc        auth.Service
	AppointmentSvc appointment.Service
	PatientSvc     patient.Service
	ClinicianSvc   clinician.Service
	SurveySvc      survey.Service
	ResponseSvc    response.Service
	SummarySvc     summary.Service
	OTel           *observability.Provider `optional:"true"`
}

type Router struct {
	p Params
}

func NewRouter(p Params) *Router {
	return &Router{p: p}
}

func (r *Router) Register(app *fiber.App) {
	// 1. Health & Metrics
	r.registerSystemRoutes(app)

	// 2. Initialize Middlewares
	authRequired := middleware.AuthRequired()
	requirePerm := func(res authorize.Resource, act authorize.Action) fiber.Handler {
		return middleware.RequirePermission(r.p.Auth, r.p.Resolver, res, act)
	}

	// 3. Initialize Handlers
	authH := handler.NewAuthHandler(r.p.AuthSvc)
	appointmentH := handler.NewAppointmentHandler(r.p.AppointmentSvc)
	patientH := handler.NewPatientHandler(r.p.PatientSvc)
	clinicianH := handler.NewClinicianHandler(r.p.ClinicianSvc)
	surveyH := handler.NewSurveyHandler(r.p.SurveySvc)
	responseH := handler.NewResponseHandler(r.p.ResponseSvc)
	summaryH := handler.NewSummaryHandler(r.p.SummarySvc)
	mobileH := handler.NewMobileHandler(r.p.AppointmentSvc, r.p.PatientSvc)

	api := app.Group("/api", middleware.ResolveCaller(r.p.AuthSvc, r.p.Cfg.Authentication.LegacyCallerParam))

	// 4. Delegate to sub-files
	r.registerAuthRoutes(api, authH, authRequired)
	r.registerAppointmentRoutes(api, appointmentH, requirePerm)
	r.registerPatientRoutes(api, patientH, requirePerm)
	r.registerClinicianRoutes(api, clinicianH, requirePerm)
	r.registerSurveyRoutes(api, surveyH, requirePerm)
	r.registerResponseRoutes(api, responseH, summaryH, requirePerm)
	r.registerMobileRoutes(api, mobileH, requirePerm)
}

func (r *Router) registerSystemRoutes(app *fiber.App) {
	app.Get(healthcheck.LivenessEndpoint, healthcheck.New())
	app.Get(healthcheck.ReadinessEndpoint, healthcheck.New(healthcheck.Config{
		Probe: func(c fiber.Ctx) bool {
			if r.p.Redis == nil {
				return true
			}
			return r.p.Redis.Ping(c.Context()).Err() == nil
		},
	}))
	app.Get(healthcheck.StartupEndpoint, healthcheck.New())

	if r.p.OTel != nil && r.p.OTel.Registry != nil && r.p.Cfg.Observability.Metrics.Enabled {
		path := r.p.Cfg.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, adaptor.HTTPHandler(promhttp.HandlerFor(r.p.OTel.Registry, promhttp.HandlerOpts{})))
	}
}
