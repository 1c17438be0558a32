package app

import (
	"log/slog"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/clinicheck/clinicheck_backend/config"
	"github.com/clinicheck/clinicheck_backend/internal/service/appointment"
	"github.com/clinicheck/clinicheck_backend/internal/service/auth"
	"github.com/clinicheck/clinicheck_backend/internal/service/clinician"
	"github.com/clinicheck/clinicheck_backend/internal/service/identity"
	"github.com/clinicheck/clinicheck_backend/internal/service/notification"
	"github.com/clinicheck/clinicheck_backend/internal/service/patient"
	"github.com/clinicheck/clinicheck_backend/internal/service/response"
	"github.com/clinicheck/clinicheck_backend/internal/service/summary"
	"github.com/clinicheck/clinicheck_backend/internal/service/survey"
	"github.com/clinicheck/clinicheck_backend/pkg/authorize"
	"github.com/clinicheck/clinicheck_backend/pkg/docstore"
	pasetotoken "github.com/clinicheck/clinicheck_backend/pkg/paseto"
	"github.com/clinicheck/clinicheck_backend/pkg/util/password"
)

// ServiceModule provides all application service dependencies.
var ServiceModule = fx.Module("services",
	fx.Provide(
		ProvidePasetoManager,
		ProvidePasswordHasher,
		ProvideIdentityResolver,
		ProvideAuthService,
		ProvideAppointmentService,
		ProvidePatientService,
		ProvideClinicianService,
		ProvideSurveyService,
		ProvideResponseService,
		ProvideSummaryService,
	),
)

func ProvidePasetoManager(cfg *config.Config) (*pasetotoken.Manager, error) {
	mgr, ephemeral, err := pasetotoken.NewPasetoManager(cfg)
	if err != nil {
		return nil, err
	}
	if ephemeral {
		slog.Warn("paseto local key not set; using an ephemeral key, tokens will not survive a restart")
	}
	return mgr, nil
}

func ProvidePasswordHasher(cfg *config.Config) *password.Hasher {
	return password.NewHasher(password.FromCentralConfig(cfg.Password))
}

func ProvideIdentityResolver(store docstore.Store, cfg *config.Config) identity.Resolver {
	return identity.New(store, identity.Config{FailClosed: cfg.Authorization.FailClosed})
}

func ProvideAuthService(
	store docstore.Store,
	rdb *redis.Client,
	paseto *pasetotoken.Manager,
	hasher *password.Hasher,
	cfg *config.Config,
) auth.Service {
	return auth.New(store, rdb, paseto, hasher, auth.FromCentralConfig(cfg.Authentication))
}

func ProvideAppointmentService(
	store docstore.Store,
	resolver identity.Resolver,
	notifier notification.Dispatcher,
	cfg *config.Config,
) (appointment.Service, error) {
	c, err := appointment.FromCentralConfig(cfg)
	if err != nil {
		return nil, err
	}
	return appointment.New(store, resolver, notifier, c), nil
}

func ProvidePatientService(
	store docstore.Store,
	resolver identity.Resolver,
	accounts auth.Service,
	notifier notification.Dispatcher,
	authz authorize.Authorizer,
	cfg *config.Config,
) patient.Service {
	return patient.New(store, resolver, accounts, notifier, authz, patient.FromCentralConfig(cfg))
}

func ProvideClinicianService(store docstore.Store, accounts auth.Service) clinician.Service {
	return clinician.New(store, accounts)
}

func ProvideSurveyService(store docstore.Store) survey.Service {
	return survey.New(store)
}

func ProvideResponseService(store docstore.Store) response.Service {
	return response.New(store)
}

func ProvideSummaryService(
	resolver identity.Resolver,
	patients patient.Service,
	clinicians clinician.Service,
	surveys survey.Service,
	appointments appointment.Service,
	responses response.Service,
) summary.Service {
	return summary.New(resolver, patients, clinicians, surveys, appointments, responses)
}
