package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/clinicheck/clinicheck_backend/pkg/email"
	"github.com/clinicheck/clinicheck_backend/pkg/logs"
	"github.com/clinicheck/clinicheck_backend/pkg/observability"
)

// Notification kinds, used as the metric "kind" label.
const (
	KindAppointmentStatus = "appointment_status"
	KindPatientWelcome    = "patient_welcome"
)

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

// Dispatcher is the outbound notification channel. It is built once at
// startup and shared by every service that notifies.
type Dispatcher interface {
	Configured() bool
	// Send delivers m and returns the delivery error.
	Send(ctx context.Context, kind string, m email.Message) error
	// Dispatch delivers m in the background. Failures are logged and
	// counted, never returned.
	Dispatch(ctx context.Context, kind string, m email.Message)
	// Wait blocks until background deliveries finish or ctx ends.
	Wait(ctx context.Context) error
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type dispatcher struct {
	sender  email.Sender
	timeout time.Duration
	wg      sync.WaitGroup
}

// New wraps sender. timeout bounds each background delivery; zero means 30s.
func New(sender email.Sender, timeout time.Duration) Dispatcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &dispatcher{sender: sender, timeout: timeout}
}

func (d *dispatcher) Configured() bool {
	return d.sender != nil && d.sender.Configured()
}

func (d *dispatcher) Send(ctx context.Context, kind string, m email.Message) error {
	if !d.Configured() {
		observability.RecordNotification(ctx, kind, observability.NotificationSkipped)
		return ErrNotConfigured
	}
	if len(m.To) == 0 || strings.TrimSpace(m.To[0]) == "" {
		observability.RecordNotification(ctx, kind, observability.NotificationSkipped)
		return ErrNoRecipient
	}

	if err := d.sender.Send(ctx, m); err != nil {
		observability.RecordNotification(ctx, kind, observability.NotificationFailed)
		return fmt.Errorf("send %s: %w", kind, err)
	}
	observability.RecordNotification(ctx, kind, observability.NotificationSent)
	return nil
}

func (d *dispatcher) Dispatch(ctx context.Context, kind string, m email.Message) {
	if !d.Configured() {
		observability.RecordNotification(ctx, kind, observability.NotificationSkipped)
		logs.FromContext(ctx).Debug("notification skipped, channel not configured", "kind", kind)
		return
	}

	// The request context ends with the response; keep its values only.
	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer cancel()

		if err := d.Send(bg, kind, m); err != nil && !errors.Is(err, ErrNoRecipient) {
			logs.FromContext(bg).Warn("notification delivery failed", "kind", kind, "to", m.To, "error", err)
		}
	}()
}

func (d *dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
