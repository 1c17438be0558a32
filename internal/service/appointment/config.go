package appointment

import (
	"fmt"
	"time"

	"github.com/clinicheck/clinicheck_backend/config"
)

type Config struct {
	// LockTerminalStates rejects estado changes on confirmado, rechazado
	// and cancelado_por_paciente appointments for non-admin callers.
	LockTerminalStates bool

	// Location is the clinic timezone used to decide whether a confirmed
	// appointment date has passed.
	Location *time.Location

	// AppName signs notification emails.
	AppName string

	Now func() time.Time
}

func FromCentralConfig(c *config.Config) (Config, error) {
	loc := time.UTC
	if tz := c.Appointments.Timezone; tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return Config{}, fmt.Errorf("appointments.timezone: %w", err)
		}
		loc = l
	}
	return Config{
		LockTerminalStates: c.Appointments.LockTerminalStates,
		Location:           loc,
		AppName:            c.Email.AppName,
	}, nil
}

func (c Config) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c Config) location() *time.Location {
	if c.Location != nil {
		return c.Location
	}
	return time.UTC
}
