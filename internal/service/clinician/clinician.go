package clinician

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/clinicheck/clinicheck_backend/internal/schema"
	"github.com/clinicheck/clinicheck_backend/pkg/docstore"
	"github.com/clinicheck/clinicheck_backend/pkg/logs"
)

// AccountRemover deletes identity accounts.
type AccountRemover interface {
	DeleteAccount(ctx context.Context, uid string) error
}

type Service interface {
	List(ctx context.Context) ([]*docstore.Document, error)
	Create(ctx context.Context, fields map[string]any) (string, error)
	Update(ctx context.Context, id string, fields map[string]any) error
	// Delete removes the clinician's identity account and then the
	// record. The record is kept when the account cannot be removed.
	Delete(ctx context.Context, id string) error
}

type clinicianService struct {
	store    docstore.Store
	accounts AccountRemover
}

func New(store docstore.Store, accounts AccountRemover) Service {
	return &clinicianService{store: store, accounts: accounts}
}

func (s *clinicianService) List(ctx context.Context) ([]*docstore.Document, error) {
	docs, err := s.store.All(ctx, schema.Medicos)
	if err != nil {
		return nil, fmt.Errorf("list clinicians: %w", err)
	}
	if docs == nil {
		docs = []*docstore.Document{}
	}
	return docs, nil
}

func (s *clinicianService) Create(ctx context.Context, fields map[string]any) (string, error) {
	data := withoutReserved(fields)
	data[schema.FieldCreatedAt] = docstore.ServerTimestamp

	id, err := s.store.Add(ctx, schema.Medicos, data)
	if err != nil {
		return "", fmt.Errorf("create clinician: %w", err)
	}
	return id, nil
}

func (s *clinicianService) Update(ctx context.Context, id string, fields map[string]any) error {
	if strings.TrimSpace(id) == "" {
		return ErrMissingID
	}
	data := withoutReserved(fields)
	data[schema.FieldUpdatedAt] = docstore.ServerTimestamp

	err := s.store.Merge(ctx, schema.Medicos, id, data)
	if errors.Is(err, docstore.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update clinician: %w", err)
	}
	return nil
}

func (s *clinicianService) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrMissingID
	}
	doc, err := s.store.Get(ctx, schema.Medicos, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get clinician: %w", err)
	}

	if uid := doc.String(schema.FieldUID); uid != "" {
		if err := s.accounts.DeleteAccount(ctx, uid); err != nil {
			logs.FromContext(ctx).Error("clinician account not deleted", "clinician", id, "uid", uid, "error", err)
			return fmt.Errorf("%w: %v", ErrAccountRemoval, err)
		}
	}

	if err := s.store.Delete(ctx, schema.Medicos, id); err != nil {
		return fmt.Errorf("delete clinician: %w", err)
	}
	return nil
}

func withoutReserved(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		switch k {
		case docstore.FieldID, "userUid", schema.FieldCreatedAt:
			continue
		}
		out[k] = v
	}
	return out
}
