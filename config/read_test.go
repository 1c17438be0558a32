package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644))
	return dir
}

func TestReadConfig_Defaults(t *testing.T) {
	cfg, err := ReadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, 6, cfg.Authentication.MinPasswordLength)
	assert.True(t, cfg.Authentication.LegacyCallerParam)
	assert.False(t, cfg.Authorization.FailClosed)
	assert.Equal(t, 10, cfg.Patients.TempPasswordLength)
	assert.Equal(t, "smtp", cfg.Email.Provider)
}

func TestReadConfig_FileAndEnv(t *testing.T) {
	dir := writeConfig(t, `
store:
  driver: postgres
server:
  port: 8080
email:
  enabled: true
  provider: smtp
  smtp:
    host: mail.internal
`)
	t.Setenv("CLINICHECK_SERVER_PORT", "9090")

	cfg, err := ReadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "mail.internal", cfg.Email.SMTP.Host)
}

func TestReadConfig_LegacySMTPVariables(t *testing.T) {
	t.Setenv("SMTP_HOST", "smtp.legacy.test")
	t.Setenv("SMTP_USER", "mailer")
	t.Setenv("SMTP_PASS", "secret")
	t.Setenv("SMTP_FROM", "CliniCheck <no-reply@legacy.test>")
	t.Setenv("NEXT_PUBLIC_APP_URL", "https://app.legacy.test")

	cfg, err := ReadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "smtp.legacy.test", cfg.Email.SMTP.Host)
	assert.Equal(t, "mailer", cfg.Email.SMTP.Username)
	assert.Equal(t, "secret", cfg.Email.SMTP.Password)
	assert.Equal(t, "CliniCheck <no-reply@legacy.test>", cfg.Email.From)
	assert.Equal(t, "https://app.legacy.test", cfg.Patients.AppURL)
}

func TestReadConfig_EmailEnabledFromSMTPCredentials(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		file    string
		enabled bool
	}{
		{
			name:    "legacy host and user enable email",
			env:     map[string]string{"SMTP_HOST": "smtp.example.com", "SMTP_USER": "user@example.com", "SMTP_PASS": "pw"},
			enabled: true,
		},
		{
			name:    "host without user stays disabled",
			env:     map[string]string{"SMTP_HOST": "smtp.example.com"},
			enabled: false,
		},
		{
			name:    "explicit env flag wins",
			env:     map[string]string{"SMTP_HOST": "smtp.example.com", "SMTP_USER": "user@example.com", "CLINICHECK_EMAIL_ENABLED": "false"},
			enabled: false,
		},
		{
			name:    "explicit file flag wins",
			env:     map[string]string{"SMTP_HOST": "smtp.example.com", "SMTP_USER": "user@example.com"},
			file:    "email:\n  enabled: false\n",
			enabled: false,
		},
		{
			name:    "nothing configured",
			enabled: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, val := range tt.env {
				t.Setenv(k, val)
			}
			dir := t.TempDir()
			if tt.file != "" {
				dir = writeConfig(t, tt.file)
			}

			cfg, err := ReadConfig(dir)
			require.NoError(t, err)
			assert.Equal(t, tt.enabled, cfg.Email.Enabled)
		})
	}
}

func TestReadConfig_PrefixedBeatsLegacy(t *testing.T) {
	t.Setenv("SMTP_HOST", "smtp.legacy.test")
	t.Setenv("CLINICHECK_EMAIL_SMTP_HOST", "smtp.current.test")

	cfg, err := ReadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "smtp.current.test", cfg.Email.SMTP.Host)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown driver", mutate: func(c *Config) { c.Store.Driver = "mongo" }, wantErr: true},
		{name: "dynamodb without region", mutate: func(c *Config) { c.Store.Driver = "dynamodb" }, wantErr: true},
		{name: "smtp without host", mutate: func(c *Config) { c.Email.Enabled = true }, wantErr: true},
		{name: "ses with region", mutate: func(c *Config) {
			c.Email.Enabled = true
			c.Email.Provider = "ses"
			c.AWS.Region = "us-east-1"
		}},
		{name: "unknown email provider", mutate: func(c *Config) {
			c.Email.Enabled = true
			c.Email.Provider = "pigeon"
		}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Store:          StoreConfig{Driver: "memory"},
				Email:          EmailConfig{Provider: "smtp"},
				Authentication: AuthenticationConfig{MinPasswordLength: 6},
			}
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
