package docstore

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func sequentialIDs() func() (string, error) {
	n := 0
	return func() (string, error) {
		n++
		return "doc" + strconv.Itoa(n), nil
	}
}

func TestMemoryStore_AddGet(t *testing.T) {
	now := time.Date(2025, 3, 1, 15, 4, 5, 0, time.UTC)
	s := NewMemory(WithClock(fixedClock(now)), WithIDGenerator(sequentialIDs()))
	ctx := context.Background()

	id, err := s.Add(ctx, "citas", map[string]any{
		"pacienteUid": "P1",
		"estado":      "pendiente",
		"createdAt":   ServerTimestamp,
		"id":          "ignored",
	})
	require.NoError(t, err)
	assert.Equal(t, "doc1", id)

	doc, err := s.Get(ctx, "citas", id)
	require.NoError(t, err)
	assert.Equal(t, "P1", doc.String("pacienteUid"))
	assert.NotContains(t, doc.Data, "id")

	created, ok := Time(doc, "createdAt")
	require.True(t, ok)
	assert.True(t, created.Equal(now))
}

func TestMemoryStore_GetMissing(t *testing.T) {
	s := NewMemory()
	_, err := s.Get(context.Background(), "citas", "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Get(context.Background(), "citas", "")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestMemoryStore_WhereCanonicalizesValues(t *testing.T) {
	s := NewMemory(WithIDGenerator(sequentialIDs()))
	ctx := context.Background()

	_, err := s.Add(ctx, "encuestas", map[string]any{"orden": 1, "medicoId": "M1"})
	require.NoError(t, err)
	_, err = s.Add(ctx, "encuestas", map[string]any{"orden": 2, "medicoId": "M2"})
	require.NoError(t, err)

	docs, err := s.Where(ctx, "encuestas", "orden", 1)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "M1", docs[0].String("medicoId"))

	docs, err = s.Where(ctx, "encuestas", "medicoId", "M3")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestMemoryStore_AllSortedByID(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "medicos", "b", map[string]any{"nombre": "B"}))
	require.NoError(t, s.Set(ctx, "medicos", "a", map[string]any{"nombre": "A"}))

	docs, err := s.All(ctx, "medicos")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].ID)
	assert.Equal(t, "b", docs[1].ID)

	empty, err := s.All(ctx, "pacientes")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryStore_MergeAndDelete(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "citas", "C1", map[string]any{"estado": "pendiente", "hora": "10:00"}))

	require.NoError(t, s.Merge(ctx, "citas", "C1", map[string]any{"estado": "confirmado"}))
	doc, err := s.Get(ctx, "citas", "C1")
	require.NoError(t, err)
	assert.Equal(t, "confirmado", doc.String("estado"))
	assert.Equal(t, "10:00", doc.String("hora"))

	assert.ErrorIs(t, s.Merge(ctx, "citas", "C2", map[string]any{"estado": "x"}), ErrNotFound)

	require.NoError(t, s.Delete(ctx, "citas", "C1"))
	require.NoError(t, s.Delete(ctx, "citas", "C1"))
	_, err = s.Get(ctx, "citas", "C1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "pacientes", "P1", map[string]any{"nombre": "Ana"}))

	doc, err := s.Get(ctx, "pacientes", "P1")
	require.NoError(t, err)
	doc.Data["nombre"] = "changed"

	again, err := s.Get(ctx, "pacientes", "P1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", again.String("nombre"))
}

func TestDocument_MarshalJSONFlattensID(t *testing.T) {
	doc := &Document{ID: "X", Data: map[string]any{"a": "b"}}
	b, err := doc.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"X","a":"b"}`, string(b))
}

func TestTime(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  time.Time
		ok    bool
	}{
		{"rfc3339", "2025-01-02T03:04:05Z", time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), true},
		{"time value", time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC), time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC), true},
		{"seconds map", map[string]any{"seconds": float64(86400)}, time.Unix(86400, 0).UTC(), true},
		{"garbage", "yesterday", time.Time{}, false},
		{"number", float64(3), time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Time(&Document{Data: map[string]any{"createdAt": tt.value}}, "createdAt")
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, got.Equal(tt.want), "got %s", got)
			}
		})
	}

	_, ok := Time(&Document{Data: map[string]any{}}, "createdAt")
	assert.False(t, ok)
}
