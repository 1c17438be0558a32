package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/clinicheck/clinicheck_backend/pkg/constants"
)

// legacyEnv maps config keys to the environment variable names used by the
// previous deployment. The prefixed name always wins.
var legacyEnv = map[string]string{
	"email.smtp.host":     "SMTP_HOST",
	"email.smtp.port":     "SMTP_PORT",
	"email.smtp.username": "SMTP_USER",
	"email.smtp.password": "SMTP_PASS",
	"email.smtp.use_tls":  "SMTP_SECURE",
	"email.from":          "SMTP_FROM",
	"patients.app_url":    "NEXT_PUBLIC_APP_URL",
}

func ReadConfig(configPath string) (*Config, error) {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName(constants.ConfigName)
	v.SetConfigType(constants.ConfigFormat)
	v.AddConfigPath(configPath)

	setDefaults(v)

	// e.g. CLINICHECK_STORE_DRIVER overrides store.driver
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		prefixed := constants.EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	// No default for email.enabled: an unset flag is inferred from the
	// SMTP credentials below.
	if err := v.BindEnv("email.enabled"); err != nil {
		return nil, fmt.Errorf("bind env email.enabled: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if !v.IsSet("email.enabled") {
		config.Email.Enabled = config.Email.SMTP.Host != "" && config.Email.SMTP.Username != ""
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.timeout_seconds", 30)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.rate_limit.max", 20)
	v.SetDefault("server.rate_limit.expiration_seconds", 30)

	v.SetDefault("store.driver", constants.StoreDriverMemory)
	v.SetDefault("store.table_prefix", constants.AppName+"_")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("redis.addr", "localhost:6379")

	v.SetDefault("authentication.session_ttl_minutes", 60*24*30)
	v.SetDefault("authentication.min_password_length", 6)
	v.SetDefault("authentication.max_failed_attempts", 5)
	v.SetDefault("authentication.lockout_minutes", 15)
	v.SetDefault("authentication.legacy_caller_param", true)
	v.SetDefault("authentication.paseto.mode", "local")
	v.SetDefault("authentication.paseto.issuer", constants.AppName)
	v.SetDefault("authentication.paseto.audience", constants.AppName)
	v.SetDefault("authentication.paseto.access_ttl_minutes", 60)
	v.SetDefault("authentication.paseto.refresh_ttl_days", 30)

	v.SetDefault("authorization.fail_closed", false)

	v.SetDefault("appointments.lock_terminal_states", false)
	v.SetDefault("appointments.timezone", "America/Mexico_City")

	v.SetDefault("patients.phone_region", "MX")
	v.SetDefault("patients.temp_password_length", 10)
	v.SetDefault("patients.app_url", "https://clini-check.vercel.app")

	v.SetDefault("email.provider", constants.EmailProviderSMTP)
	v.SetDefault("email.app_name", "CliniCheck")
	v.SetDefault("email.smtp.port", 587)
	v.SetDefault("email.smtp.timeout_seconds", 30)

	v.SetDefault("password.memory_kib", 64*1024)
	v.SetDefault("password.iterations", 3)
	v.SetDefault("password.parallelism", 2)
	v.SetDefault("password.salt_length", 16)
	v.SetDefault("password.key_length", 32)

	v.SetDefault("observability.service_name", constants.AppName+"_backend")
	v.SetDefault("observability.metrics.path", "/metrics")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output.stdout", true)
}
