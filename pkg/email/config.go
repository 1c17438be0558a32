package email

import (
	"fmt"
	"strings"
	"time"

	"github.com/clinicheck/clinicheck_backend/config"
)

// Config holds email service configuration
type Config struct {
	Enabled bool
	From    string

	// SMTP settings
	SMTPHost           string
	SMTPPort           int
	SMTPUsername       string
	SMTPPassword       string
	SMTPUseTLS         bool
	SMTPTimeoutSeconds int

	// SES settings
	SESConfigurationSet string

	AppName string
}

// DefaultConfig returns sensible defaults for email configuration
func DefaultConfig() Config {
	return Config{
		Enabled:            false,
		SMTPPort:           587,
		SMTPTimeoutSeconds: 30,
		AppName:            "CliniCheck",
	}
}

// SMTPTimeout returns the SMTP timeout as a duration
func (c Config) SMTPTimeout() time.Duration {
	if c.SMTPTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.SMTPTimeoutSeconds) * time.Second
}

// FromCentralConfig converts central config.EmailConfig to package Config.
// Without an explicit sender the address falls back to "<AppName> <user>".
// Port 465 always means implicit TLS.
func FromCentralConfig(c config.EmailConfig) Config {
	out := Config{
		Enabled:             c.Enabled,
		From:                strings.TrimSpace(c.From),
		SMTPHost:            c.SMTP.Host,
		SMTPPort:            c.SMTP.Port,
		SMTPUsername:        c.SMTP.Username,
		SMTPPassword:        c.SMTP.Password,
		SMTPUseTLS:          c.SMTP.UseTLS || c.SMTP.Port == 465,
		SMTPTimeoutSeconds:  c.SMTP.TimeoutSeconds,
		SESConfigurationSet: c.SES.ConfigurationSet,
		AppName:             c.AppName,
	}
	if out.AppName == "" {
		out.AppName = DefaultConfig().AppName
	}
	if out.From == "" && out.SMTPUsername != "" {
		out.From = fmt.Sprintf("%s <%s>", out.AppName, out.SMTPUsername)
	}
	return out
}
