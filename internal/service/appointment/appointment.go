package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/clinicheck/clinicheck_backend/internal/schema"
	"github.com/clinicheck/clinicheck_backend/internal/service/identity"
	"github.com/clinicheck/clinicheck_backend/internal/service/notification"
	"github.com/clinicheck/clinicheck_backend/pkg/docstore"
	"github.com/clinicheck/clinicheck_backend/pkg/logs"
)

const dateLayout = "2006-01-02"

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// Status tells the mobile client whether the patient may request a new
// appointment, and describes the latest one.
type Status struct {
	PuedePedirCita bool   `json:"puedePedirCita"`
	Fecha          string `json:"fecha,omitempty"`
	Hora           string `json:"hora,omitempty"`
	Estado         string `json:"estado,omitempty"`
}

// Slot is a taken date/time of a clinician.
type Slot struct {
	Fecha string `json:"fecha"`
	Hora  string `json:"hora"`
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	// List returns the appointments visible to callerID. An empty callerID
	// lists the whole collection.
	List(ctx context.Context, callerID string) ([]*docstore.Document, error)
	Create(ctx context.Context, payload map[string]any) (string, error)
	Update(ctx context.Context, id, callerID string, fields map[string]any) error
	// CancelLatest cancels the caller's latest appointment and returns its id.
	CancelLatest(ctx context.Context, callerID string) (string, error)
	Status(ctx context.Context, patientUID string) (*Status, error)
	BusySlots(ctx context.Context, clinicianID string) ([]Slot, error)
	// BackfillClinicianIDs sets medicoId on appointments that only carry
	// medicoUid or doctorUid. It returns the number of updated records.
	BackfillClinicianIDs(ctx context.Context) (int, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type appointmentService struct {
	store    docstore.Store
	resolver identity.Resolver
	notifier notification.Dispatcher
	cfg      Config
}

func New(store docstore.Store, resolver identity.Resolver, notifier notification.Dispatcher, cfg Config) Service {
	return &appointmentService{
		store:    store,
		resolver: resolver,
		notifier: notifier,
		cfg:      cfg,
	}
}

func (s *appointmentService) List(ctx context.Context, callerID string) ([]*docstore.Document, error) {
	callerID = strings.TrimSpace(callerID)
	if callerID == "" {
		return s.all(ctx)
	}

	id, err := s.resolver.Resolve(ctx, callerID)
	if err != nil {
		return nil, err
	}

	switch {
	case id.IsAdmin():
		return s.all(ctx)
	case id.IsPatient():
		return s.byPatient(ctx, callerID)
	case !id.HasClinician():
		return []*docstore.Document{}, nil
	}

	sets := make([][]*docstore.Document, 0, len(identity.ClinicianReferences))
	for _, field := range identity.ClinicianReferences {
		value := identity.ReferenceValue(id, field)
		if value == "" {
			continue
		}
		docs, err := s.store.Where(ctx, schema.Citas, field, value)
		if err != nil {
			return nil, fmt.Errorf("list appointments by %s: %w", field, err)
		}
		sets = append(sets, docs)
	}
	return docstore.Union(sets...), nil
}

func (s *appointmentService) all(ctx context.Context) ([]*docstore.Document, error) {
	docs, err := s.store.All(ctx, schema.Citas)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	if docs == nil {
		docs = []*docstore.Document{}
	}
	return docs, nil
}

// byPatient returns the appointments referencing uid as pacienteId or
// pacienteUid.
func (s *appointmentService) byPatient(ctx context.Context, uid string) ([]*docstore.Document, error) {
	byID, err := s.store.Where(ctx, schema.Citas, schema.FieldPacienteID, uid)
	if err != nil {
		return nil, fmt.Errorf("list appointments by patient: %w", err)
	}
	byUID, err := s.store.Where(ctx, schema.Citas, schema.FieldPacienteUID, uid)
	if err != nil {
		return nil, fmt.Errorf("list appointments by patient: %w", err)
	}
	return docstore.Union(byID, byUID), nil
}

func (s *appointmentService) Create(ctx context.Context, payload map[string]any) (string, error) {
	data := make(map[string]any, len(payload)+2)
	for k, v := range payload {
		data[k] = v
	}
	delete(data, docstore.FieldID)
	if e, _ := data[schema.FieldEstado].(string); strings.TrimSpace(e) == "" {
		data[schema.FieldEstado] = schema.EstadoPendiente
	}
	data[schema.FieldCreatedAt] = docstore.ServerTimestamp

	id, err := s.store.Add(ctx, schema.Citas, data)
	if err != nil {
		return "", fmt.Errorf("create appointment: %w", err)
	}
	return id, nil
}

func (s *appointmentService) Update(ctx context.Context, id, callerID string, fields map[string]any) error {
	id, callerID = strings.TrimSpace(id), strings.TrimSpace(callerID)
	if id == "" {
		return ErrMissingID
	}
	if callerID == "" {
		return ErrMissingCaller
	}

	newEstado, estadoSet, err := estadoField(fields)
	if err != nil {
		return err
	}

	caller, err := s.resolver.Resolve(ctx, callerID)
	if err != nil {
		return err
	}
	if !caller.IsAdmin() && !caller.HasClinician() {
		return ErrPermissionDenied
	}

	cita, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	var patient *docstore.Document
	if !caller.IsAdmin() {
		allowed := identity.OwnsAppointment(caller, cita)
		if !allowed {
			// The appointment may only reference the patient, whose
			// assigned clinician then decides.
			if patient, err = s.patientOf(ctx, cita); err != nil {
				return err
			}
			allowed = patient != nil && patient.String(schema.FieldMedicoID) == caller.ClinicianID
		}
		if !allowed {
			return ErrPermissionDenied
		}
	}

	changes := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		if k == docstore.FieldID || k == schema.FieldCreatedAt {
			continue
		}
		changes[k] = v
	}
	if estadoSet {
		changes[schema.FieldEstado] = newEstado
	}

	current := cita.String(schema.FieldEstado)
	if estadoSet && s.cfg.LockTerminalStates && !caller.IsAdmin() &&
		schema.IsTerminal(current) && newEstado != strings.ToLower(strings.TrimSpace(current)) {
		return ErrInvalidState
	}

	changes[schema.FieldUpdatedAt] = docstore.ServerTimestamp
	if err := s.store.Merge(ctx, schema.Citas, id, changes); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("update appointment: %w", err)
	}

	if estadoSet {
		for k, v := range changes {
			cita.Data[k] = v
		}
		s.notifyStatus(ctx, cita, patient, newEstado)
	}
	return nil
}

// estadoField returns the trimmed, lower-cased estado of an update. An
// estado that is present must be a non-empty string.
func estadoField(fields map[string]any) (string, bool, error) {
	v, ok := fields[schema.FieldEstado]
	if !ok {
		return "", false, nil
	}
	str, isString := v.(string)
	estado := strings.ToLower(strings.TrimSpace(str))
	if !isString || estado == "" {
		return "", false, ErrInvalidEstado
	}
	return estado, true, nil
}

func (s *appointmentService) load(ctx context.Context, id string) (*docstore.Document, error) {
	cita, err := s.store.Get(ctx, schema.Citas, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return cita, nil
}

func (s *appointmentService) patientOf(ctx context.Context, cita *docstore.Document) (*docstore.Document, error) {
	for _, field := range []string{schema.FieldPacienteID, schema.FieldPacienteUID} {
		p, err := s.resolver.PatientFor(ctx, cita.String(field))
		if err != nil || p != nil {
			return p, err
		}
	}
	return nil, nil
}

// notifyStatus hands the status email to the dispatcher. Lookup failures
// are logged; the update has already been committed.
func (s *appointmentService) notifyStatus(ctx context.Context, cita, patient *docstore.Document, estado string) {
	if s.notifier == nil || !s.notifier.Configured() {
		return
	}

	log := logs.FromContext(ctx)
	if patient == nil {
		p, err := s.patientOf(ctx, cita)
		if err != nil {
			log.Warn("appointment notification: patient lookup failed", "cita", cita.ID, "error", err)
			return
		}
		patient = p
	}
	if patient == nil || strings.TrimSpace(patient.String(schema.FieldEmail)) == "" {
		log.Debug("appointment notification skipped, no patient email", "cita", cita.ID)
		return
	}

	msg := notification.AppointmentStatusMessage(s.cfg.AppName, estado, patient, cita)
	s.notifier.Dispatch(ctx, notification.KindAppointmentStatus, msg)
}

func (s *appointmentService) CancelLatest(ctx context.Context, callerID string) (string, error) {
	callerID = strings.TrimSpace(callerID)
	if callerID == "" {
		return "", ErrMissingCaller
	}

	docs, err := s.byPatient(ctx, callerID)
	if err != nil {
		return "", err
	}
	latest := docstore.Latest(docs, schema.FieldCreatedAt)
	if latest == nil {
		return "", ErrNotFound
	}
	// A record without estado is pendiente, as Create would have stored it.
	// Any other unrecognized value is not cancellable.
	if e := strings.ToLower(strings.TrimSpace(latest.String(schema.FieldEstado))); e != "" && e != schema.EstadoPendiente {
		return "", ErrInvalidState
	}

	err = s.store.Merge(ctx, schema.Citas, latest.ID, map[string]any{
		schema.FieldEstado:       schema.EstadoCanceladoPorPaciente,
		schema.FieldCanceladoPor: callerID,
		schema.FieldCanceladoEn:  docstore.ServerTimestamp,
		schema.FieldUpdatedAt:    docstore.ServerTimestamp,
	})
	if errors.Is(err, docstore.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("cancel appointment: %w", err)
	}

	logs.FromContext(ctx).Info("appointment cancelled by patient", "cita", latest.ID)
	return latest.ID, nil
}

func (s *appointmentService) Status(ctx context.Context, patientUID string) (*Status, error) {
	patientUID = strings.TrimSpace(patientUID)
	if patientUID == "" {
		return nil, ErrMissingCaller
	}

	docs, err := s.byPatient(ctx, patientUID)
	if err != nil {
		return nil, err
	}
	latest := docstore.Latest(docs, schema.FieldCreatedAt)
	if latest == nil {
		return &Status{PuedePedirCita: true}, nil
	}

	st := &Status{
		Fecha:  latest.String(schema.FieldFecha),
		Hora:   latest.String(schema.FieldHora),
		Estado: latest.String(schema.FieldEstado),
	}
	switch strings.ToLower(strings.TrimSpace(st.Estado)) {
	case schema.EstadoRechazado, schema.EstadoCanceladoPorPaciente:
		st.PuedePedirCita = true
	case schema.EstadoConfirmado:
		st.PuedePedirCita = s.datePassed(st.Fecha)
	default:
		st.PuedePedirCita = false
	}
	return st, nil
}

// datePassed reports whether fecha is before today in the clinic
// timezone. Empty or unparsable dates count as passed.
func (s *appointmentService) datePassed(fecha string) bool {
	fecha = strings.TrimSpace(fecha)
	if fecha == "" {
		return true
	}
	loc := s.cfg.location()
	day, err := time.ParseInLocation(dateLayout, fecha, loc)
	if err != nil {
		return true
	}
	y, m, d := s.cfg.now().In(loc).Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return day.Before(today)
}

func (s *appointmentService) BusySlots(ctx context.Context, clinicianID string) ([]Slot, error) {
	clinicianID = strings.TrimSpace(clinicianID)
	if clinicianID == "" {
		return nil, ErrMissingID
	}

	docs, err := s.store.Where(ctx, schema.Citas, schema.FieldMedicoID, clinicianID)
	if err != nil {
		return nil, fmt.Errorf("list clinician appointments: %w", err)
	}

	slots := make([]Slot, 0, len(docs))
	for _, d := range docs {
		switch strings.ToLower(strings.TrimSpace(d.String(schema.FieldEstado))) {
		case schema.EstadoRechazado, schema.EstadoCanceladoPorPaciente:
			continue
		}
		slots = append(slots, Slot{Fecha: d.String(schema.FieldFecha), Hora: d.String(schema.FieldHora)})
	}
	return slots, nil
}

func (s *appointmentService) BackfillClinicianIDs(ctx context.Context) (int, error) {
	docs, err := s.store.All(ctx, schema.Citas)
	if err != nil {
		return 0, fmt.Errorf("list appointments: %w", err)
	}

	log := logs.FromContext(ctx)
	clinicians := map[string]string{}
	updated := 0
	for _, d := range docs {
		if d.String(schema.FieldMedicoID) != "" {
			continue
		}
		uid := d.String(schema.FieldMedicoUID)
		if uid == "" {
			uid = d.String(schema.FieldDoctorUID)
		}
		if uid == "" {
			continue
		}

		clinicianID, cached := clinicians[uid]
		if !cached {
			rec, err := s.resolver.ClinicianFor(ctx, uid)
			if err != nil {
				return updated, err
			}
			if rec != nil {
				clinicianID = rec.ID
			}
			clinicians[uid] = clinicianID
		}
		if clinicianID == "" {
			log.Warn("backfill: no clinician record for appointment", "cita", d.ID, "uid", uid)
			continue
		}

		if err := s.store.Merge(ctx, schema.Citas, d.ID, map[string]any{schema.FieldMedicoID: clinicianID}); err != nil {
			return updated, fmt.Errorf("backfill %s: %w", d.ID, err)
		}
		updated++
	}
	return updated, nil
}
