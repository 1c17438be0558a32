package patient

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/clinicheck/clinicheck_backend/internal/schema"
	"github.com/clinicheck/clinicheck_backend/internal/service/auth"
	"github.com/clinicheck/clinicheck_backend/internal/service/identity"
	"github.com/clinicheck/clinicheck_backend/internal/service/notification"
	"github.com/clinicheck/clinicheck_backend/pkg/authorize"
	"github.com/clinicheck/clinicheck_backend/pkg/docstore"
	"github.com/clinicheck/clinicheck_backend/pkg/email"
	"github.com/clinicheck/clinicheck_backend/pkg/logs"
	"github.com/clinicheck/clinicheck_backend/pkg/util/codes"
)

const minGivenPasswordLength = 6

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type CreateRequest struct {
	Email    string
	Password string
	// Fields holds the remaining body fields (nombre, telefono, medicoId...).
	Fields map[string]any
}

type CreateResult struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Accounts is the part of the identity provider the patient service uses.
type Accounts interface {
	CreateAccount(ctx context.Context, email, password string) (string, error)
	DeleteAccount(ctx context.Context, uid string) error
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	List(ctx context.Context, callerID string) ([]*docstore.Document, error)
	Create(ctx context.Context, req CreateRequest) (*CreateResult, error)
	Update(ctx context.Context, id, callerID string, fields map[string]any) error
	Delete(ctx context.Context, id, callerID string) error
	// Profile returns the patient whose uid is uid, with the name of the
	// assigned clinician under medicoNombre.
	Profile(ctx context.Context, uid string) (map[string]any, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type patientService struct {
	store    docstore.Store
	resolver identity.Resolver
	accounts Accounts
	notifier notification.Dispatcher
	authz    authorize.Authorizer
	cfg      Config
}

func New(
	store docstore.Store,
	resolver identity.Resolver,
	accounts Accounts,
	notifier notification.Dispatcher,
	authz authorize.Authorizer,
	cfg Config,
) Service {
	return &patientService{
		store:    store,
		resolver: resolver,
		accounts: accounts,
		notifier: notifier,
		authz:    authz,
		cfg:      cfg,
	}
}

func (s *patientService) List(ctx context.Context, callerID string) ([]*docstore.Document, error) {
	callerID = strings.TrimSpace(callerID)
	if callerID != "" {
		id, err := s.resolver.Resolve(ctx, callerID)
		if err != nil {
			return nil, err
		}
		// Only a confirmed medico is scoped; anyone else sees every patient.
		if id.Known && id.Role == authorize.RoleMedico {
			if !id.HasClinician() {
				return []*docstore.Document{}, nil
			}
			docs, err := s.store.Where(ctx, schema.Pacientes, schema.FieldMedicoID, id.ClinicianID)
			if err != nil {
				return nil, fmt.Errorf("list clinician patients: %w", err)
			}
			return docs, nil
		}
	}

	docs, err := s.store.All(ctx, schema.Pacientes)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	return docs, nil
}

// Create registers a patient: identity account, usuarios role record,
// pacientes document and the welcome email with the credentials. A failure
// at any step undoes the completed ones.
func (s *patientService) Create(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	if !s.notifier.Configured() {
		return nil, ErrMailNotConfigured
	}

	addr := strings.ToLower(strings.TrimSpace(req.Email))
	if addr == "" {
		return nil, ErrMissingEmail
	}
	data := sanitize(req.Fields, s.cfg.PhoneRegion)
	nombre, _ := data[schema.FieldNombre].(string)
	if nombre == "" {
		return nil, ErrMissingName
	}

	pw := strings.TrimSpace(req.Password)
	if len(pw) < minGivenPasswordLength {
		generated, err := codes.TemporaryPassword(s.cfg.TempPasswordLength)
		if err != nil {
			return nil, fmt.Errorf("generate password: %w", err)
		}
		pw = generated
	}

	log := logs.FromContext(ctx).With("email", addr)
	sg := newSaga("create_patient")
	fail := func(err error) (*CreateResult, error) {
		sg.rollback(ctx, log, err)
		return nil, err
	}

	// 1. identity account
	uid, err := s.accounts.CreateAccount(ctx, addr, pw)
	if err != nil {
		return nil, translateAccountError(err)
	}
	sg.done("cuentas/"+uid, func(ctx context.Context) error {
		return s.accounts.DeleteAccount(ctx, uid)
	})

	// 2. role record
	err = s.store.Set(ctx, schema.Usuarios, uid, map[string]any{
		schema.FieldEmail:      addr,
		schema.FieldRol:        string(authorize.RolePaciente),
		schema.FieldNombre:     nombre,
		schema.FieldTelefono:   stringOr(data[schema.FieldTelefono], ""),
		schema.FieldMedicoID:   nullable(data[schema.FieldMedicoID]),
		schema.FieldEncuestaID: nullable(data[schema.FieldEncuestaID]),
		schema.FieldCreatedAt:  docstore.ServerTimestamp,
	})
	if err != nil {
		return fail(fmt.Errorf("create user record: %w", err))
	}
	sg.done(schema.Usuarios+"/"+uid, func(ctx context.Context) error {
		return s.store.Delete(ctx, schema.Usuarios, uid)
	})

	// 3. patient document
	data[schema.FieldEmail] = addr
	data[schema.FieldUID] = uid
	data[schema.FieldCreatedAt] = docstore.ServerTimestamp
	patientID, err := s.store.Add(ctx, schema.Pacientes, data)
	if err != nil {
		return fail(fmt.Errorf("create patient: %w", err))
	}
	sg.done(schema.Pacientes+"/"+patientID, func(ctx context.Context) error {
		return s.store.Delete(ctx, schema.Pacientes, patientID)
	})

	// 4. credentials email
	msg := email.BuildPatientWelcomeEmail(email.PatientWelcomeData{
		Nombre:      nombre,
		Email:       addr,
		Password:    pw,
		DownloadURL: s.cfg.downloadURL(),
		AppName:     s.cfg.AppName,
	})
	if err := s.notifier.Send(ctx, notification.KindPatientWelcome, msg); err != nil {
		sg.rollback(ctx, log, err)
		return nil, ErrMailFailed
	}

	log.Info("patient created", "patient", patientID, "uid", uid)
	return &CreateResult{ID: patientID, Email: addr}, nil
}

func translateAccountError(err error) error {
	switch {
	case errors.Is(err, auth.ErrEmailInUse):
		return ErrEmailInUse
	case errors.Is(err, auth.ErrInvalidEmail), errors.Is(err, auth.ErrMissingFields):
		return ErrInvalidEmail
	case errors.Is(err, auth.ErrWeakPassword):
		return ErrWeakPassword
	default:
		return fmt.Errorf("create account: %w", err)
	}
}

func stringOr(v any, def string) string {
	if s, ok := v.(string); ok {
		return s
	}
	return def
}

func nullable(v any) any {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return nil
}

func (s *patientService) requireAdmin(ctx context.Context, callerID string) error {
	callerID = strings.TrimSpace(callerID)
	if callerID == "" {
		return ErrMissingCaller
	}
	id, err := s.resolver.Resolve(ctx, callerID)
	if errors.Is(err, identity.ErrUnknownCaller) {
		return ErrNotAuthorized
	}
	if err != nil {
		return err
	}
	if !authorize.IsAdmin(ctx, s.authz, id.Role, authorize.ResourcePatient) {
		return ErrNotAuthorized
	}
	return nil
}

func (s *patientService) get(ctx context.Context, id string) (*docstore.Document, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrNotFound
	}
	doc, err := s.store.Get(ctx, schema.Pacientes, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get patient: %w", err)
	}
	return doc, nil
}

func (s *patientService) Update(ctx context.Context, id, callerID string, fields map[string]any) error {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return err
	}
	if _, err := s.get(ctx, id); err != nil {
		return err
	}

	changes := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		switch k {
		case docstore.FieldID, "userUid", schema.FieldCreatedAt:
			continue
		}
		changes[k] = v
	}
	changes[schema.FieldUpdatedAt] = docstore.ServerTimestamp

	if err := s.store.Merge(ctx, schema.Pacientes, id, changes); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("update patient: %w", err)
	}
	return nil
}

func (s *patientService) Delete(ctx context.Context, id, callerID string) error {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return err
	}
	doc, err := s.get(ctx, id)
	if err != nil {
		return err
	}

	if uid := doc.String(schema.FieldUID); uid != "" {
		if err := s.accounts.DeleteAccount(ctx, uid); err != nil {
			logs.FromContext(ctx).Warn("patient account not deleted", "patient", id, "uid", uid, "error", err)
		}
	}

	if err := s.store.Delete(ctx, schema.Pacientes, id); err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}
	return nil
}

func (s *patientService) Profile(ctx context.Context, uid string) (map[string]any, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, ErrMissingCaller
	}
	docs, err := s.store.Where(ctx, schema.Pacientes, schema.FieldUID, uid)
	if err != nil {
		return nil, fmt.Errorf("find patient: %w", err)
	}
	if len(docs) == 0 {
		return nil, ErrNotFound
	}

	out := docs[0].Flatten()
	out["medicoNombre"] = nil
	if medicoID := docs[0].String(schema.FieldMedicoID); medicoID != "" {
		medico, err := s.store.Get(ctx, schema.Medicos, medicoID)
		switch {
		case err == nil:
			if nombre := medico.String(schema.FieldNombre); nombre != "" {
				out["medicoNombre"] = nombre
			}
		case !errors.Is(err, docstore.ErrNotFound):
			return nil, fmt.Errorf("get clinician: %w", err)
		}
	}
	return out, nil
}
