package response

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/clinicheck/clinicheck_backend/internal/schema"
	"github.com/clinicheck/clinicheck_backend/pkg/docstore"
	"github.com/clinicheck/clinicheck_backend/pkg/logs"
)

// LatestLimit is how many responses List returns.
const LatestLimit = 50

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type SubmitRequest struct {
	// PacienteID is the patient's identity uid.
	PacienteID string         `json:"pacienteId"`
	EncuestaID string         `json:"encuestaId"`
	Respuestas map[string]any `json:"respuestas"`
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	// List returns the most recent responses, newest first. Responses
	// without createdAt are not listed.
	List(ctx context.Context) ([]*docstore.Document, error)
	Submit(ctx context.Context, req SubmitRequest) (string, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type responseService struct {
	store docstore.Store
}

func New(store docstore.Store) Service {
	return &responseService{store: store}
}

func (s *responseService) List(ctx context.Context) ([]*docstore.Document, error) {
	docs, err := s.store.All(ctx, schema.Respuestas)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	return Newest(docs, LatestLimit), nil
}

// Newest returns at most n dated documents ordered by createdAt, newest
// first.
func Newest(docs []*docstore.Document, n int) []*docstore.Document {
	dated := make([]*docstore.Document, 0, len(docs))
	for _, d := range docs {
		if _, ok := docstore.Time(d, schema.FieldCreatedAt); ok {
			dated = append(dated, d)
		}
	}
	docstore.SortByTimeDesc(dated, schema.FieldCreatedAt)
	if len(dated) > n {
		dated = dated[:n]
	}
	return dated
}

func (s *responseService) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	pacienteID := strings.TrimSpace(req.PacienteID)
	encuestaID := strings.TrimSpace(req.EncuestaID)
	if pacienteID == "" || encuestaID == "" {
		return "", ErrMissingFields
	}

	patients, err := s.store.Where(ctx, schema.Pacientes, schema.FieldUID, pacienteID)
	if err != nil {
		return "", fmt.Errorf("find patient: %w", err)
	}
	if len(patients) == 0 {
		return "", ErrUnknownPatient
	}

	if _, err := s.store.Get(ctx, schema.Encuestas, encuestaID); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return "", ErrSurveyNotFound
		}
		return "", fmt.Errorf("get survey: %w", err)
	}

	answers := req.Respuestas
	if answers == nil {
		answers = map[string]any{}
	}
	id, err := s.store.Add(ctx, schema.Respuestas, map[string]any{
		schema.FieldPacienteID: pacienteID,
		schema.FieldEncuestaID: encuestaID,
		schema.FieldRespuestas: answers,
		schema.FieldCreatedAt:  docstore.ServerTimestamp,
	})
	if err != nil {
		return "", fmt.Errorf("store response: %w", err)
	}

	logs.FromContext(ctx).Info("survey response stored", "response", id, "survey", encuestaID)
	return id, nil
}
