package appointment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicheck/clinicheck_backend/internal/schema"
	"github.com/clinicheck/clinicheck_backend/internal/service/identity"
	"github.com/clinicheck/clinicheck_backend/pkg/docstore"
	"github.com/clinicheck/clinicheck_backend/pkg/email"
)

type fakeNotifier struct {
	mu         sync.Mutex
	configured bool
	sent       []email.Message
}

func (f *fakeNotifier) Configured() bool { return f.configured }

func (f *fakeNotifier) Send(_ context.Context, _ string, m email.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, m)
	return nil
}

func (f *fakeNotifier) Dispatch(ctx context.Context, kind string, m email.Message) {
	_ = f.Send(ctx, kind, m)
}

func (f *fakeNotifier) Wait(context.Context) error { return nil }

type fixture struct {
	store    *docstore.MemoryStore
	svc      Service
	notifier *fakeNotifier
}

var t0 = time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	ctx := context.Background()
	store := docstore.NewMemory(docstore.WithClock(func() time.Time { return t0 }))

	set := func(col, id string, data map[string]any) {
		require.NoError(t, store.Set(ctx, col, id, data))
	}
	set(schema.Usuarios, "admin-uid", map[string]any{"rol": "admin"})
	set(schema.Usuarios, "m1-uid", map[string]any{"rol": "medico"})
	set(schema.Usuarios, "m2-uid", map[string]any{"rol": "medico"})
	set(schema.Usuarios, "m3-uid", map[string]any{"rol": "medico"})
	set(schema.Usuarios, "pac-uid", map[string]any{"rol": "paciente"})
	set(schema.Medicos, "M1", map[string]any{"uid": "m1-uid", "nombre": "Uno"})
	set(schema.Medicos, "M2", map[string]any{"uid": "m2-uid", "nombre": "Dos"})
	set(schema.Pacientes, "P1", map[string]any{"uid": "pac-uid", "nombre": "Ana", "email": "ana@x.com", "medicoId": "M1"})

	set(schema.Citas, "A1", map[string]any{"medicoId": "M1", "estado": "pendiente", "pacienteId": "pac-uid"})
	set(schema.Citas, "A2", map[string]any{"medicoUid": "m1-uid", "estado": "pendiente"})
	set(schema.Citas, "A3", map[string]any{"doctorUid": "m1-uid", "estado": "confirmado"})
	set(schema.Citas, "A4", map[string]any{"medicoId": "M2", "estado": "pendiente"})
	set(schema.Citas, "A5", map[string]any{"estado": "pendiente"})
	set(schema.Citas, "A6", map[string]any{"pacienteId": "P1", "estado": "pendiente"})

	if cfg.Now == nil {
		cfg.Now = func() time.Time { return t0 }
	}
	n := &fakeNotifier{configured: true}
	return &fixture{
		store:    store,
		notifier: n,
		svc:      New(store, identity.New(store, identity.Config{}), n, cfg),
	}
}

func ids(docs []*docstore.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}

func TestList(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	tests := []struct {
		name   string
		caller string
		want   []string
	}{
		{"no caller sees everything", "", []string{"A1", "A2", "A3", "A4", "A5", "A6"}},
		{"admin sees everything", "admin-uid", []string{"A1", "A2", "A3", "A4", "A5", "A6"}},
		{"clinician union of references", "m1-uid", []string{"A1", "A2", "A3"}},
		{"other clinician", "m2-uid", []string{"A4"}},
		{"medico without record", "m3-uid", []string{}},
		{"unknown caller defaults to medico", "ghost", []string{}},
		{"patient sees own", "pac-uid", []string{"A1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, err := f.svc.List(ctx, tt.caller)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(docs))
		})
	}
}

func TestList_ClinicianNeverSeesForeignAppointments(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	me := identity.Identity{UID: "m1-uid", ClinicianID: "M1"}

	docs, err := f.svc.List(ctx, "m1-uid")
	require.NoError(t, err)
	for _, d := range docs {
		assert.True(t, identity.OwnsAppointment(me, d), d.ID)
	}
}

func TestCreate(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	id, err := f.svc.Create(ctx, map[string]any{"pacienteUid": "pac-uid", "fecha": "2025-07-01", "id": "forged"})
	require.NoError(t, err)
	assert.NotEqual(t, "forged", id)

	doc, err := f.store.Get(ctx, schema.Citas, id)
	require.NoError(t, err)
	assert.Equal(t, schema.EstadoPendiente, doc.String("estado"))
	created, ok := docstore.Time(doc, "createdAt")
	require.True(t, ok)
	assert.True(t, created.Equal(t0))

	id2, err := f.svc.Create(ctx, map[string]any{"estado": "confirmado"})
	require.NoError(t, err)
	doc2, err := f.store.Get(ctx, schema.Citas, id2)
	require.NoError(t, err)
	assert.Equal(t, "confirmado", doc2.String("estado"))
}

func TestUpdate_Authorization(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		caller string
		want   error
	}{
		{"missing id", "", "m1-uid", ErrMissingID},
		{"missing caller", "A1", "", ErrMissingCaller},
		{"owner by medicoId", "A1", "m1-uid", nil},
		{"owner by medicoUid", "A2", "m1-uid", nil},
		{"owner by doctorUid", "A3", "m1-uid", nil},
		{"owner through patient assignment", "A6", "m1-uid", nil},
		{"other clinician", "A1", "m2-uid", ErrPermissionDenied},
		{"medico without record", "A1", "m3-uid", ErrPermissionDenied},
		{"patient cannot update", "A1", "pac-uid", ErrPermissionDenied},
		{"admin anything", "A4", "admin-uid", nil},
		{"missing appointment", "nope", "m1-uid", ErrNotFound},
		{"missing appointment admin", "nope", "admin-uid", ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, Config{})
			err := f.svc.Update(context.Background(), tt.id, tt.caller, map[string]any{"estado": "confirmado"})
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestUpdate_DeniedLeavesRecordUnchanged(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	err := f.svc.Update(ctx, "A1", "m3-uid", map[string]any{"estado": "rechazado"})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	doc, err := f.store.Get(ctx, schema.Citas, "A1")
	require.NoError(t, err)
	assert.Equal(t, "pendiente", doc.String("estado"))
	assert.NotContains(t, doc.Data, "updatedAt")
}

func TestUpdate_MergesAndNotifies(t *testing.T) {
	f := newFixture(t, Config{AppName: "CliniCheck"})
	ctx := context.Background()

	err := f.svc.Update(ctx, "A1", "m1-uid", map[string]any{
		"estado":    "confirmado",
		"createdAt": "1999-01-01T00:00:00Z",
		"id":        "other",
	})
	require.NoError(t, err)

	doc, err := f.store.Get(ctx, schema.Citas, "A1")
	require.NoError(t, err)
	assert.Equal(t, "confirmado", doc.String("estado"))
	assert.Equal(t, "M1", doc.String("medicoId"))
	assert.NotContains(t, doc.Data, "createdAt")
	_, ok := docstore.Time(doc, "updatedAt")
	assert.True(t, ok)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, []string{"ana@x.com"}, f.notifier.sent[0].To)
	assert.Contains(t, f.notifier.sent[0].Subject, "confirmada")
}

func TestUpdate_NoNotificationWithoutEstadoOrEmail(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	require.NoError(t, f.svc.Update(ctx, "A1", "m1-uid", map[string]any{"hora": "12:00"}))
	require.NoError(t, f.svc.Update(ctx, "A2", "m1-uid", map[string]any{"estado": "rechazado"}))
	assert.Empty(t, f.notifier.sent)

	f.notifier.configured = false
	require.NoError(t, f.svc.Update(ctx, "A1", "m1-uid", map[string]any{"estado": "rechazado"}))
	assert.Empty(t, f.notifier.sent)
}

func TestUpdate_EstadoMustBeText(t *testing.T) {
	tests := []struct {
		name   string
		estado any
		want   error
		stored string
	}{
		{"null", nil, ErrInvalidEstado, "pendiente"},
		{"blank", "   ", ErrInvalidEstado, "pendiente"},
		{"number", 3, ErrInvalidEstado, "pendiente"},
		{"object", map[string]any{"v": "confirmado"}, ErrInvalidEstado, "pendiente"},
		{"normalized", "  Confirmado ", nil, "confirmado"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, Config{AppName: "CliniCheck"})
			ctx := context.Background()

			err := f.svc.Update(ctx, "A1", "m1-uid", map[string]any{"estado": tt.estado})
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
				assert.Empty(t, f.notifier.sent)
			} else {
				require.NoError(t, err)
				require.Len(t, f.notifier.sent, 1)
				assert.NotContains(t, f.notifier.sent[0].TextBody, "<nil>")
			}

			doc, err := f.store.Get(ctx, schema.Citas, "A1")
			require.NoError(t, err)
			assert.Equal(t, tt.stored, doc.Data["estado"])
		})
	}
}

func TestUpdate_LockTerminalStates(t *testing.T) {
	ctx := context.Background()

	open := newFixture(t, Config{})
	require.NoError(t, open.svc.Update(ctx, "A3", "m1-uid", map[string]any{"estado": "rechazado"}))

	locked := newFixture(t, Config{LockTerminalStates: true})
	assert.ErrorIs(t, locked.svc.Update(ctx, "A3", "m1-uid", map[string]any{"estado": "rechazado"}), ErrInvalidState)
	require.NoError(t, locked.svc.Update(ctx, "A3", "m1-uid", map[string]any{"estado": "confirmado", "hora": "10:00"}))
	require.NoError(t, locked.svc.Update(ctx, "A3", "m1-uid", map[string]any{"motivo": "traer estudios"}))
	require.NoError(t, locked.svc.Update(ctx, "A3", "admin-uid", map[string]any{"estado": "rechazado"}))
}

func seedPatientHistory(t *testing.T, f *fixture, latestEstado string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.store.Set(ctx, schema.Citas, "old", map[string]any{
		"pacienteUid": "pat-2", "estado": "pendiente", "createdAt": "2025-01-01T00:00:00Z",
	}))
	require.NoError(t, f.store.Set(ctx, schema.Citas, "new", map[string]any{
		"pacienteId": "pat-2", "estado": latestEstado, "fecha": "2025-06-20", "hora": "09:30",
		"createdAt": "2025-05-01T00:00:00Z",
	}))
	require.NoError(t, f.store.Set(ctx, schema.Citas, "undated", map[string]any{
		"pacienteUid": "pat-2", "estado": "pendiente",
	}))
}

func TestCancelLatest(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	seedPatientHistory(t, f, "pendiente")

	id, err := f.svc.CancelLatest(ctx, "pat-2")
	require.NoError(t, err)
	assert.Equal(t, "new", id)

	doc, err := f.store.Get(ctx, schema.Citas, "new")
	require.NoError(t, err)
	assert.Equal(t, schema.EstadoCanceladoPorPaciente, doc.String("estado"))
	assert.Equal(t, "pat-2", doc.String("canceladoPor"))
	cancelled, ok := docstore.Time(doc, "canceladoEn")
	require.True(t, ok)
	assert.True(t, cancelled.Equal(t0))

	old, err := f.store.Get(ctx, schema.Citas, "old")
	require.NoError(t, err)
	assert.Equal(t, "pendiente", old.String("estado"))
}

func TestCancelLatest_Errors(t *testing.T) {
	ctx := context.Background()

	f := newFixture(t, Config{})
	seedPatientHistory(t, f, "confirmado")
	_, err := f.svc.CancelLatest(ctx, "pat-2")
	assert.ErrorIs(t, err, ErrInvalidState)
	doc, err := f.store.Get(ctx, schema.Citas, "new")
	require.NoError(t, err)
	assert.Equal(t, "confirmado", doc.String("estado"))

	_, err = f.svc.CancelLatest(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)

	// Unrecognized states are not pendiente.
	g := newFixture(t, Config{})
	seedPatientHistory(t, g, "en_revision")
	_, err = g.svc.CancelLatest(ctx, "pat-2")
	assert.ErrorIs(t, err, ErrInvalidState)
	doc, err = g.store.Get(ctx, schema.Citas, "new")
	require.NoError(t, err)
	assert.Equal(t, "en_revision", doc.String("estado"))

	// Only undated records: nothing qualifies as latest.
	require.NoError(t, f.store.Set(ctx, schema.Citas, "u", map[string]any{"pacienteUid": "pat-3"}))
	_, err = f.svc.CancelLatest(ctx, "pat-3")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.CancelLatest(ctx, "")
	assert.ErrorIs(t, err, ErrMissingCaller)
}

func TestStatus(t *testing.T) {
	tests := []struct {
		estado string
		fecha  string
		want   bool
	}{
		{"pendiente", "2025-06-20", false},
		{"rechazado", "2025-06-20", true},
		{"cancelado_por_paciente", "2025-06-20", true},
		{"confirmado", "2025-06-20", false},
		{"confirmado", "2025-06-10", false},
		{"confirmado", "2025-06-09", true},
		{"confirmado", "", true},
		{"confirmado", "pronto", true},
		{"en_revision", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.estado+"/"+tt.fecha, func(t *testing.T) {
			f := newFixture(t, Config{})
			ctx := context.Background()
			require.NoError(t, f.store.Set(ctx, schema.Citas, "c", map[string]any{
				"pacienteUid": "pat-9", "estado": tt.estado, "fecha": tt.fecha, "hora": "08:00",
				"createdAt": "2025-05-01T00:00:00Z",
			}))

			st, err := f.svc.Status(ctx, "pat-9")
			require.NoError(t, err)
			assert.Equal(t, tt.want, st.PuedePedirCita)
			assert.Equal(t, tt.estado, st.Estado)
			assert.Equal(t, "08:00", st.Hora)
		})
	}
}

func TestStatus_NoAppointments(t *testing.T) {
	f := newFixture(t, Config{})
	st, err := f.svc.Status(context.Background(), "fresh")
	require.NoError(t, err)
	assert.Equal(t, &Status{PuedePedirCita: true}, st)
}

func TestStatus_UsesClinicTimezone(t *testing.T) {
	loc := time.FixedZone("UTC-6", -6*3600)
	// 03:00 UTC on the 10th is still the 9th in the clinic.
	now := time.Date(2025, 6, 10, 3, 0, 0, 0, time.UTC)
	f := newFixture(t, Config{Location: loc, Now: func() time.Time { return now }})
	ctx := context.Background()
	require.NoError(t, f.store.Set(ctx, schema.Citas, "c", map[string]any{
		"pacienteUid": "pat-9", "estado": "confirmado", "fecha": "2025-06-09",
		"createdAt": "2025-05-01T00:00:00Z",
	}))

	st, err := f.svc.Status(ctx, "pat-9")
	require.NoError(t, err)
	assert.False(t, st.PuedePedirCita)
}

func TestBusySlots(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	require.NoError(t, f.store.Set(ctx, schema.Citas, "b1", map[string]any{"medicoId": "M9", "fecha": "2025-07-01", "hora": "09:00", "estado": "confirmado"}))
	require.NoError(t, f.store.Set(ctx, schema.Citas, "b2", map[string]any{"medicoId": "M9", "fecha": "2025-07-01", "hora": "10:00", "estado": "rechazado"}))
	require.NoError(t, f.store.Set(ctx, schema.Citas, "b3", map[string]any{"medicoId": "M9", "fecha": "2025-07-02", "hora": "11:00"}))
	require.NoError(t, f.store.Set(ctx, schema.Citas, "b4", map[string]any{"medicoId": "M9", "fecha": "2025-07-03", "hora": "12:00", "estado": "cancelado_por_paciente"}))

	slots, err := f.svc.BusySlots(ctx, "M9")
	require.NoError(t, err)
	assert.Equal(t, []Slot{{"2025-07-01", "09:00"}, {"2025-07-02", "11:00"}}, slots)

	empty, err := f.svc.BusySlots(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestBackfillClinicianIDs(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	require.NoError(t, f.store.Set(ctx, schema.Citas, "orphan", map[string]any{"doctorUid": "no-record"}))

	n, err := f.svc.BackfillClinicianIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, id := range []string{"A2", "A3"} {
		doc, err := f.store.Get(ctx, schema.Citas, id)
		require.NoError(t, err)
		assert.Equal(t, "M1", doc.String("medicoId"), id)
	}

	n, err = f.svc.BackfillClinicianIDs(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
