package docstore

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// MemoryStore keeps documents in process memory. It backs local development
// and service tests.
type MemoryStore struct {
	mu   sync.RWMutex
	cols map[string]map[string]map[string]any
	opts options
}

var _ Store = (*MemoryStore)(nil)

func NewMemory(opts ...Option) *MemoryStore {
	return &MemoryStore{
		cols: make(map[string]map[string]map[string]any),
		opts: buildOptions(opts),
	}
}

func (s *MemoryStore) Get(_ context.Context, collection, id string) (*Document, error) {
	if err := checkRef(collection, id); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.cols[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.copyDoc(id, data)
}

func (s *MemoryStore) All(_ context.Context, collection string) ([]*Document, error) {
	return s.filter(collection, func(map[string]any) bool { return true })
}

func (s *MemoryStore) Where(_ context.Context, collection, field string, value any) ([]*Document, error) {
	want, err := canonicalValue(value)
	if err != nil {
		return nil, err
	}
	return s.filter(collection, func(data map[string]any) bool {
		got, ok := data[field]
		return ok && reflect.DeepEqual(got, want)
	})
}

func (s *MemoryStore) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	id, err := s.opts.newID()
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	if err := s.Set(ctx, collection, id, data); err != nil {
		return "", err
	}
	return id, nil
}

func (s *MemoryStore) Set(_ context.Context, collection, id string, data map[string]any) error {
	if err := checkRef(collection, id); err != nil {
		return err
	}
	prepared, err := prepare(data, s.opts.now())
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	col, ok := s.cols[collection]
	if !ok {
		col = make(map[string]map[string]any)
		s.cols[collection] = col
	}
	col[id] = prepared
	return nil
}

func (s *MemoryStore) Merge(_ context.Context, collection, id string, fields map[string]any) error {
	if err := checkRef(collection, id); err != nil {
		return err
	}
	prepared, err := prepare(fields, s.opts.now())
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.cols[collection][id]
	if !ok {
		return ErrNotFound
	}
	for k, v := range prepared {
		current[k] = v
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, collection, id string) error {
	if err := checkRef(collection, id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cols[collection], id)
	return nil
}

func (s *MemoryStore) filter(collection string, keep func(map[string]any) bool) ([]*Document, error) {
	if collection == "" {
		return nil, fmt.Errorf("%w: empty collection", ErrInvalidArgument)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	col := s.cols[collection]
	ids := make([]string, 0, len(col))
	for id, data := range col {
		if keep(data) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	out := make([]*Document, 0, len(ids))
	for _, id := range ids {
		doc, err := s.copyDoc(id, col[id])
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

// copyDoc hands out a deep copy so callers cannot mutate stored state.
func (s *MemoryStore) copyDoc(id string, data map[string]any) (*Document, error) {
	cp, err := canonicalMap(data)
	if err != nil {
		return nil, err
	}
	return &Document{ID: id, Data: cp}, nil
}
