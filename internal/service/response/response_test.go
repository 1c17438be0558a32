package response

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicheck/clinicheck_backend/internal/schema"
	"github.com/clinicheck/clinicheck_backend/pkg/docstore"
)

func TestSubmit(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory()
	require.NoError(t, store.Set(ctx, schema.Pacientes, "P1", map[string]any{"uid": "p1-uid"}))
	require.NoError(t, store.Set(ctx, schema.Encuestas, "E1", map[string]any{"titulo": "Sueño"}))
	svc := New(store)

	tests := []struct {
		name string
		req  SubmitRequest
		want error
	}{
		{"missing patient", SubmitRequest{EncuestaID: "E1"}, ErrMissingFields},
		{"missing survey id", SubmitRequest{PacienteID: "p1-uid"}, ErrMissingFields},
		{"patient doc id is not a uid", SubmitRequest{PacienteID: "P1", EncuestaID: "E1"}, ErrUnknownPatient},
		{"unknown survey", SubmitRequest{PacienteID: "p1-uid", EncuestaID: "E9"}, ErrSurveyNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Submit(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	id, err := svc.Submit(ctx, SubmitRequest{PacienteID: " p1-uid ", EncuestaID: "E1"})
	require.NoError(t, err)
	doc, err := store.Get(ctx, schema.Respuestas, id)
	require.NoError(t, err)
	assert.Equal(t, "p1-uid", doc.String("pacienteId"))
	assert.Equal(t, map[string]any{}, doc.Data["respuestas"])
}

func TestListNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < LatestLimit+5; i++ {
		require.NoError(t, store.Set(ctx, schema.Respuestas, "R"+strconv.Itoa(i), map[string]any{
			"createdAt": base.Add(time.Duration(i) * time.Hour),
		}))
	}
	require.NoError(t, store.Set(ctx, schema.Respuestas, "undated", map[string]any{"encuestaId": "E1"}))

	docs, err := New(store).List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, LatestLimit)
	assert.Equal(t, "R54", docs[0].ID)
	assert.Equal(t, "R5", docs[len(docs)-1].ID)
}
