package patient

import (
	"strings"

	"github.com/clinicheck/clinicheck_backend/config"
	"github.com/clinicheck/clinicheck_backend/pkg/util/codes"
)

const defaultAppURL = "https://clini-check.vercel.app"

type Config struct {
	// PhoneRegion is the ISO region used to read numbers without a
	// country code, e.g. "MX".
	PhoneRegion        string
	TempPasswordLength int
	// AppURL is the public web URL; the download page is AppURL/descargar.
	AppURL  string
	AppName string
}

func FromCentralConfig(c *config.Config) Config {
	out := Config{
		PhoneRegion:        strings.ToUpper(c.Patients.PhoneRegion),
		TempPasswordLength: c.Patients.TempPasswordLength,
		AppURL:             strings.TrimRight(c.Patients.AppURL, "/"),
		AppName:            c.Email.AppName,
	}
	if out.TempPasswordLength <= 0 {
		out.TempPasswordLength = codes.TemporaryPasswordLength
	}
	if out.AppURL == "" {
		out.AppURL = defaultAppURL
	}
	return out
}

func (c Config) downloadURL() string {
	base := strings.TrimRight(c.AppURL, "/")
	if base == "" {
		base = defaultAppURL
	}
	return base + "/descargar"
}
