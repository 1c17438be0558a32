// Package identity turns a caller uid into a role and, for clinicians, the
// id of their medicos record. It is also the only place that knows which
// appointment fields can reference a clinician.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/clinicheck/clinicheck_backend/internal/schema"
	"github.com/clinicheck/clinicheck_backend/pkg/authorize"
	"github.com/clinicheck/clinicheck_backend/pkg/docstore"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type Identity struct {
	UID  string
	Role authorize.Role
	// ClinicianID is the medicos document id; empty when the caller is not
	// a medico or has no clinician record.
	ClinicianID string
	// Known is false when the role was defaulted because no usuarios
	// record exists.
	Known bool
}

func (i Identity) IsAdmin() bool      { return i.Role == authorize.RoleAdmin }
func (i Identity) IsPatient() bool    { return i.Role == authorize.RolePaciente }
func (i Identity) HasClinician() bool { return i.ClinicianID != "" }

type Config struct {
	// FailClosed makes Resolve reject callers without a usuarios record
	// instead of treating them as medico.
	FailClosed bool
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Resolver interface {
	Resolve(ctx context.Context, callerID string) (Identity, error)
	// ClinicianFor returns the medicos record whose uid is uid, or nil.
	ClinicianFor(ctx context.Context, uid string) (*docstore.Document, error)
	// PatientFor returns the pacientes record referenced by ref, matched
	// by uid first and then as a document id, or nil.
	PatientFor(ctx context.Context, ref string) (*docstore.Document, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type resolver struct {
	store docstore.Store
	cfg   Config
}

func New(store docstore.Store, cfg Config) Resolver {
	return &resolver{store: store, cfg: cfg}
}

func (r *resolver) Resolve(ctx context.Context, callerID string) (Identity, error) {
	callerID = strings.TrimSpace(callerID)
	if callerID == "" {
		return Identity{}, ErrMissingCaller
	}

	id := Identity{UID: callerID, Role: authorize.RoleMedico}

	user, err := r.store.Get(ctx, schema.Usuarios, callerID)
	switch {
	case err == nil:
		id.Known = true
		if rol := strings.ToLower(strings.TrimSpace(user.String(schema.FieldRol))); rol != "" {
			id.Role = authorize.Role(rol)
		}
	case errors.Is(err, docstore.ErrNotFound):
		if r.cfg.FailClosed {
			return Identity{}, ErrUnknownCaller
		}
	default:
		return Identity{}, fmt.Errorf("resolve caller: %w", err)
	}

	if id.Role != authorize.RoleMedico {
		return id, nil
	}

	clinician, err := r.ClinicianFor(ctx, callerID)
	if err != nil {
		return Identity{}, err
	}
	if clinician != nil {
		id.ClinicianID = clinician.ID
	}
	return id, nil
}

func (r *resolver) ClinicianFor(ctx context.Context, uid string) (*docstore.Document, error) {
	if uid == "" {
		return nil, nil
	}
	docs, err := r.store.Where(ctx, schema.Medicos, schema.FieldUID, uid)
	if err != nil {
		return nil, fmt.Errorf("find clinician: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return docs[0], nil
}

func (r *resolver) PatientFor(ctx context.Context, ref string) (*docstore.Document, error) {
	if ref == "" {
		return nil, nil
	}
	docs, err := r.store.Where(ctx, schema.Pacientes, schema.FieldUID, ref)
	if err != nil {
		return nil, fmt.Errorf("find patient: %w", err)
	}
	if len(docs) > 0 {
		return docs[0], nil
	}

	doc, err := r.store.Get(ctx, schema.Pacientes, ref)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get patient: %w", err)
	}
	return doc, nil
}

// ---------------------------------------------------------------------------
// Clinician references
// ---------------------------------------------------------------------------

// ClinicianReferences lists the appointment fields that may point at a
// clinician: medicoId holds the medicos record id, the other two hold the
// clinician's uid. Older records use any of them.
var ClinicianReferences = []string{schema.FieldMedicoID, schema.FieldMedicoUID, schema.FieldDoctorUID}

// OwnsAppointment reports whether cita references the clinician id by any
// clinician field. It does not look at the patient's assignment.
func OwnsAppointment(id Identity, cita *docstore.Document) bool {
	if cita == nil {
		return false
	}
	if id.ClinicianID != "" && cita.String(schema.FieldMedicoID) == id.ClinicianID {
		return true
	}
	if id.UID == "" {
		return false
	}
	return cita.String(schema.FieldMedicoUID) == id.UID || cita.String(schema.FieldDoctorUID) == id.UID
}

// ReferenceValue returns the value to look for in field when collecting
// the appointments of id; empty means the field cannot match.
func ReferenceValue(id Identity, field string) string {
	if field == schema.FieldMedicoID {
		return id.ClinicianID
	}
	return id.UID
}
