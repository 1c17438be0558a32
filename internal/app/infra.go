package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/clinicheck/clinicheck_backend/config"
	"github.com/clinicheck/clinicheck_backend/internal/service/notification"
	"github.com/clinicheck/clinicheck_backend/pkg/authorize"
	"github.com/clinicheck/clinicheck_backend/pkg/awsclient"
	"github.com/clinicheck/clinicheck_backend/pkg/constants"
	"github.com/clinicheck/clinicheck_backend/pkg/database"
	"github.com/clinicheck/clinicheck_backend/pkg/docstore"
	"github.com/clinicheck/clinicheck_backend/pkg/email"
	"github.com/clinicheck/clinicheck_backend/pkg/observability"
	redispkg "github.com/clinicheck/clinicheck_backend/pkg/redis"
)

// InfraModule provides all infrastructure dependencies.
var InfraModule = fx.Module("infra",
	fx.Provide(ProvideRedis),
	fx.Provide(ProvideStore),
	fx.Provide(ProvideAuthorization),
	fx.Provide(ProvideEmailSender),
	fx.Provide(ProvideNotificationDispatcher),
	fx.Provide(ProvideOTel),
)

func ProvideRedis(lc fx.Lifecycle, cfg *config.Config) (*redis.Client, error) {
	rdb, err := redispkg.NewRedisFromCentral(cfg.Redis)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing Redis connection")
			return rdb.Close()
		},
	})
	return rdb, nil
}

// ProvideStore opens the document store selected by store.driver.
func ProvideStore(lc fx.Lifecycle, cfg *config.Config) (docstore.Store, error) {
	return OpenStore(context.Background(), lc, cfg)
}

// OpenStore is ProvideStore for callers outside the fx graph; lc may be nil,
// in which case closing the postgres pool is left to process exit.
func OpenStore(ctx context.Context, lc fx.Lifecycle, cfg *config.Config) (docstore.Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Store.Driver))
	switch driver {
	case constants.StoreDriverMemory, "":
		slog.Warn("using in-memory document store; data is lost on restart")
		return docstore.NewMemory(), nil

	case constants.StoreDriverDynamoDB:
		awsCfg, err := awsclient.LoadConfig(ctx, cfg.AWS)
		if err != nil {
			return nil, err
		}
		slog.Info("document store ready", "driver", driver, "table_prefix", cfg.Store.TablePrefix)
		return docstore.NewDynamo(awsclient.NewDynamoDB(awsCfg), cfg.Store.TablePrefix), nil

	case constants.StoreDriverPostgres:
		pool, err := database.NewPoolFromCentral(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		if lc != nil {
			lc.Append(fx.Hook{
				OnStop: func(ctx context.Context) error {
					slog.Debug("closing postgres pool")
					pool.Close()
					return nil
				},
			})
		}
		slog.Info("document store ready", "driver", driver, "database", cfg.Database.DBName)
		return docstore.NewPostgres(pool), nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func ProvideAuthorization() (authorize.Authorizer, error) {
	authz, err := authorize.NewSeeded(context.Background())
	if err != nil {
		return nil, err
	}
	return authz, nil
}

// ProvideEmailSender builds the sender for email.provider. A sender that is
// not configured is still returned; callers check Configured.
func ProvideEmailSender(cfg *config.Config) (email.Sender, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Email.Provider)) {
	case constants.EmailProviderSES:
		awsCfg, err := awsclient.LoadConfig(context.Background(), cfg.AWS)
		if err != nil {
			return nil, err
		}
		return email.NewSESSender(awsclient.NewSES(awsCfg), email.FromCentralConfig(cfg.Email)), nil
	case constants.EmailProviderSMTP, "":
		client, err := email.NewFromCentral(cfg.Email)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Email.Provider)
	}
}

func ProvideNotificationDispatcher(lc fx.Lifecycle, cfg *config.Config, sender email.Sender) notification.Dispatcher {
	timeout := time.Duration(cfg.Email.SMTP.TimeoutSeconds) * time.Second
	d := notification.New(sender, timeout)
	if !d.Configured() {
		slog.Warn("email is not configured; notifications and patient onboarding are disabled")
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("waiting for pending notifications")
			return d.Wait(ctx)
		},
	})
	return d
}

func ProvideOTel(lc fx.Lifecycle, cfg *config.Config) (*observability.Provider, error) {
	if !cfg.Observability.Enabled {
		return nil, nil
	}
	provider, err := observability.InitTelemetry(context.Background(), observability.Config{
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		Environment:    cfg.Server.Environment,
		OTLPEndpoint:   cfg.Observability.Tracing.OTLPEndpoint,
		OTLPInsecure:   cfg.Observability.Tracing.OTLPInsecure,
		SamplingRate:   cfg.Observability.Tracing.SamplingRate,
	})
	if err != nil {
		return nil, err
	}
	slog.Info("observability initialized",
		"tracing", cfg.Observability.Tracing.Enabled,
		"metrics", cfg.Observability.Metrics.Enabled,
	)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("shutting down observability providers")
			return provider.Shutdown(ctx)
		},
	})
	return provider, nil
}
