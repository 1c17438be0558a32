package survey

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/clinicheck/clinicheck_backend/internal/schema"
	"github.com/clinicheck/clinicheck_backend/pkg/docstore"
)

type Service interface {
	List(ctx context.Context) ([]*docstore.Document, error)
	Get(ctx context.Context, id string) (*docstore.Document, error)
	Create(ctx context.Context, fields map[string]any) (string, error)
	Update(ctx context.Context, id string, fields map[string]any) error
	Delete(ctx context.Context, id string) error
}

type surveyService struct {
	store docstore.Store
}

func New(store docstore.Store) Service {
	return &surveyService{store: store}
}

func (s *surveyService) List(ctx context.Context) ([]*docstore.Document, error) {
	docs, err := s.store.All(ctx, schema.Encuestas)
	if err != nil {
		return nil, fmt.Errorf("list surveys: %w", err)
	}
	if docs == nil {
		docs = []*docstore.Document{}
	}
	return docs, nil
}

func (s *surveyService) Get(ctx context.Context, id string) (*docstore.Document, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrMissingID
	}
	doc, err := s.store.Get(ctx, schema.Encuestas, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get survey: %w", err)
	}
	return doc, nil
}

func (s *surveyService) Create(ctx context.Context, fields map[string]any) (string, error) {
	data := copyFields(fields)
	data[schema.FieldCreatedAt] = docstore.ServerTimestamp

	id, err := s.store.Add(ctx, schema.Encuestas, data)
	if err != nil {
		return "", fmt.Errorf("create survey: %w", err)
	}
	return id, nil
}

func (s *surveyService) Update(ctx context.Context, id string, fields map[string]any) error {
	if strings.TrimSpace(id) == "" {
		return ErrMissingID
	}
	data := copyFields(fields)
	data[schema.FieldUpdatedAt] = docstore.ServerTimestamp

	err := s.store.Merge(ctx, schema.Encuestas, id, data)
	if errors.Is(err, docstore.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update survey: %w", err)
	}
	return nil
}

func (s *surveyService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, schema.Encuestas, id); err != nil {
		return fmt.Errorf("delete survey: %w", err)
	}
	return nil
}

// copyFields drops the keys a client may not set.
func copyFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		if k == docstore.FieldID || k == schema.FieldCreatedAt {
			continue
		}
		out[k] = v
	}
	return out
}
