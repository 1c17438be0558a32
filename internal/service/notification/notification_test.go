package notification

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicheck/clinicheck_backend/pkg/docstore"
	"github.com/clinicheck/clinicheck_backend/pkg/email"
	"github.com/clinicheck/clinicheck_backend/pkg/reqctx"
)

type fakeSender struct {
	mu         sync.Mutex
	configured bool
	err        error
	sent       []email.Message
}

func (f *fakeSender) Configured() bool { return f.configured }

func (f *fakeSender) Send(_ context.Context, m email.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, m)
	return f.err
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func msgTo(addr string) email.Message {
	return email.Message{To: []string{addr}, Subject: "s", TextBody: "t"}
}

func TestDispatcher_SendNotConfigured(t *testing.T) {
	d := New(&fakeSender{}, time.Second)
	assert.False(t, d.Configured())
	assert.ErrorIs(t, d.Send(context.Background(), KindPatientWelcome, msgTo("a@b.c")), ErrNotConfigured)

	assert.False(t, New(nil, 0).Configured())
}

func TestDispatcher_SendWrapsError(t *testing.T) {
	boom := errors.New("smtp down")
	d := New(&fakeSender{configured: true, err: boom}, time.Second)

	err := d.Send(context.Background(), KindPatientWelcome, msgTo("a@b.c"))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	assert.ErrorIs(t, d.Send(context.Background(), KindPatientWelcome, email.Message{}), ErrNoRecipient)
}

func TestDispatcher_DispatchIsAsyncAndSwallowsErrors(t *testing.T) {
	s := &fakeSender{configured: true, err: errors.New("bounced")}
	d := New(s, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	d.Dispatch(ctx, KindAppointmentStatus, msgTo("p@x.com"))
	cancel()

	require.NoError(t, d.Wait(context.Background()))
	assert.Equal(t, 1, s.count())
}

func TestDispatcher_DeliveryFailureLogsRequestID(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	d := New(&fakeSender{configured: true, err: errors.New("bounced")}, time.Second)
	ctx := reqctx.WithRequestMeta(context.Background(), &reqctx.RequestMeta{RequestID: "req-42"})
	ctx = reqctx.WithCaller(ctx, &reqctx.Caller{UID: "m1-uid"})
	d.Dispatch(ctx, KindAppointmentStatus, msgTo("p@x.com"))
	require.NoError(t, d.Wait(context.Background()))

	out := buf.String()
	assert.Contains(t, out, "notification delivery failed")
	assert.Contains(t, out, `"request_id":"req-42"`)
	assert.Contains(t, out, `"caller":"m1-uid"`)
}

func TestDispatcher_DispatchSkipsWhenNotConfigured(t *testing.T) {
	s := &fakeSender{}
	d := New(s, time.Second)
	d.Dispatch(context.Background(), KindAppointmentStatus, msgTo("p@x.com"))
	require.NoError(t, d.Wait(context.Background()))
	assert.Zero(t, s.count())
}

func TestAppointmentStatusMessage(t *testing.T) {
	patient := &docstore.Document{ID: "P1", Data: map[string]any{"nombre": "Ana <b>", "email": " ana@x.com "}}
	cita := &docstore.Document{ID: "C1", Data: map[string]any{"fecha": "2025-05-02", "hora": "10:30"}}

	tests := []struct {
		estado  string
		subject string
		text    string
	}{
		{"confirmado", "Tu cita fue confirmada - CliniCheck", "del 2025-05-02 a las 10:30 fue confirmada"},
		{"rechazado", "Tu cita no pudo ser confirmada - CliniCheck", "fue rechazada"},
		{"en_espera", "Actualización de tu cita - CliniCheck", "cambió a: en_espera"},
	}
	for _, tt := range tests {
		t.Run(tt.estado, func(t *testing.T) {
			m := AppointmentStatusMessage("", tt.estado, patient, cita)
			assert.Equal(t, []string{"ana@x.com"}, m.To)
			assert.Equal(t, tt.subject, m.Subject)
			assert.Contains(t, m.TextBody, tt.text)
			assert.Contains(t, m.HTMLBody, "Ana &lt;b&gt;")
		})
	}

	noEmail := AppointmentStatusMessage("X", "confirmado", &docstore.Document{Data: map[string]any{}}, cita)
	assert.Empty(t, noEmail.To)
	assert.Contains(t, noEmail.TextBody, "Hola Paciente")
}
