// Package docstore stores schemaless documents in named collections.
//
// It offers the operations the clinic services need from a document
// database: get by id, equality query on one field, whole-collection scan,
// add with a store-assigned id, set with a caller-chosen id, merge-update
// and delete. Three backends implement Store: DynamoDB (one table per
// collection), PostgreSQL (one JSONB table) and an in-process map.
//
// Values written through any backend are canonicalized through JSON, so
// numbers read back as float64, timestamps as RFC 3339 strings and nested
// objects as map[string]any regardless of the backend.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/clinicheck/clinicheck_backend/pkg/util/codes"
)

var (
	ErrNotFound        = errors.New("docstore: document not found")
	ErrInvalidArgument = errors.New("docstore: invalid argument")
)

// FieldID is reserved: it is the document id and never stored in Data.
const FieldID = "id"

type serverTimestamp struct{}

// ServerTimestamp can be used as a field value in Add, Set and Merge; the
// store replaces it with its own clock.
var ServerTimestamp = serverTimestamp{}

// Store is the document database used by the services.
type Store interface {
	Get(ctx context.Context, collection, id string) (*Document, error)
	All(ctx context.Context, collection string) ([]*Document, error)
	Where(ctx context.Context, collection, field string, value any) ([]*Document, error)
	Add(ctx context.Context, collection string, data map[string]any) (string, error)
	Set(ctx context.Context, collection, id string, data map[string]any) error
	// Merge overwrites the given top-level fields; ErrNotFound if id is absent.
	Merge(ctx context.Context, collection, id string, fields map[string]any) error
	// Delete is idempotent.
	Delete(ctx context.Context, collection, id string) error
}

// Document is one stored record.
type Document struct {
	ID   string
	Data map[string]any
}

// Get returns the raw value of field.
func (d *Document) Get(field string) (any, bool) {
	if d == nil || d.Data == nil {
		return nil, false
	}
	v, ok := d.Data[field]
	return v, ok
}

// String returns field when it holds a string, "" otherwise.
func (d *Document) String(field string) string {
	v, _ := d.Get(field)
	s, _ := v.(string)
	return s
}

// Flatten returns a copy of Data with the id merged in under "id".
func (d *Document) Flatten() map[string]any {
	out := make(map[string]any, len(d.Data)+1)
	for k, v := range d.Data {
		out[k] = v
	}
	out[FieldID] = d.ID
	return out
}

func (d *Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Flatten())
}

// Time reads a timestamp field. It accepts time.Time, RFC 3339 strings and
// the {"seconds": n} shape of exported legacy records.
func Time(d *Document, field string) (time.Time, bool) {
	v, ok := d.Get(field)
	if !ok {
		return time.Time{}, false
	}
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	case map[string]any:
		secs, ok := t["seconds"].(float64)
		if !ok {
			return time.Time{}, false
		}
		nanos, _ := t["nanoseconds"].(float64)
		return time.Unix(int64(secs), int64(nanos)).UTC(), true
	default:
		return time.Time{}, false
	}
}

// ---------------------------------------------------------------------------
// Options
// ---------------------------------------------------------------------------

type Option func(*options)

type options struct {
	now   func() time.Time
	newID func() (string, error)
}

// WithClock sets the clock used for ServerTimestamp.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDGenerator sets the id generator used by Add.
func WithIDGenerator(gen func() (string, error)) Option {
	return func(o *options) { o.newID = gen }
}

func buildOptions(opts []Option) options {
	o := options{
		now:   time.Now,
		newID: codes.DocumentID,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ---------------------------------------------------------------------------
// Helpers shared by the backends
// ---------------------------------------------------------------------------

// prepare drops the reserved id field, resolves ServerTimestamp and
// canonicalizes the remaining values.
func prepare(data map[string]any, now time.Time) (map[string]any, error) {
	resolved := make(map[string]any, len(data))
	for k, v := range data {
		if k == FieldID {
			continue
		}
		if _, ok := v.(serverTimestamp); ok {
			v = now.UTC()
		}
		resolved[k] = v
	}
	return canonicalMap(resolved)
}

func canonicalMap(m map[string]any) (map[string]any, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	out := map[string]any{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return out, nil
}

func canonicalValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return out, nil
}

func checkRef(collection, id string) error {
	if collection == "" {
		return fmt.Errorf("%w: empty collection", ErrInvalidArgument)
	}
	if id == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidArgument)
	}
	return nil
}
