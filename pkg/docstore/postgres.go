package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of *pgxpool.Pool used by PostgresStore.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	pgCreateTable = `CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id TEXT NOT NULL,
	data JSONB NOT NULL DEFAULT '{}'::jsonb,
	PRIMARY KEY (collection, id)
)`
	pgCreateIndex = `CREATE INDEX IF NOT EXISTS documents_data_gin ON documents USING GIN (data jsonb_path_ops)`

	pgGet    = `SELECT data FROM documents WHERE collection = $1 AND id = $2`
	pgAll    = `SELECT id, data FROM documents WHERE collection = $1 ORDER BY id`
	pgWhere  = `SELECT id, data FROM documents WHERE collection = $1 AND data @> $2::jsonb ORDER BY id`
	pgInsert = `INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb)`
	pgUpsert = pgInsert + ` ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data`
	pgMerge  = `UPDATE documents SET data = data || $3::jsonb WHERE collection = $1 AND id = $2`
	pgDelete = `DELETE FROM documents WHERE collection = $1 AND id = $2`
)

// PostgresStore keeps every collection in the single JSONB table
// "documents", keyed by (collection, id).
type PostgresStore struct {
	db   Querier
	opts options
}

var _ Store = (*PostgresStore)(nil)

func NewPostgres(db Querier, opts ...Option) *PostgresStore {
	if db == nil {
		panic("docstore: postgres pool cannot be nil")
	}
	return &PostgresStore{db: db, opts: buildOptions(opts)}
}

// EnsureSchema creates the documents table and its containment index.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, pgCreateTable); err != nil {
		return fmt.Errorf("docstore: create documents table: %w", err)
	}
	if _, err := s.db.Exec(ctx, pgCreateIndex); err != nil {
		return fmt.Errorf("docstore: create documents index: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	if err := checkRef(collection, id); err != nil {
		return nil, err
	}
	var raw []byte
	if err := s.db.QueryRow(ctx, pgGet, collection, id).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("docstore: get %s/%s: %w", collection, id, err)
	}
	return decodeRow(id, raw)
}

func (s *PostgresStore) All(ctx context.Context, collection string) ([]*Document, error) {
	if collection == "" {
		return nil, fmt.Errorf("%w: empty collection", ErrInvalidArgument)
	}
	return s.query(ctx, pgAll, collection)
}

func (s *PostgresStore) Where(ctx context.Context, collection, field string, value any) ([]*Document, error) {
	if collection == "" || field == "" {
		return nil, fmt.Errorf("%w: empty collection or field", ErrInvalidArgument)
	}
	filter, err := json.Marshal(map[string]any{field: value})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return s.query(ctx, pgWhere, collection, string(filter))
}

func (s *PostgresStore) query(ctx context.Context, sql string, args ...any) ([]*Document, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("docstore: query: %w", err)
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("docstore: scan row: %w", err)
		}
		doc, err := decodeRow(id, raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("docstore: iterate rows: %w", err)
	}
	return docs, nil
}

func (s *PostgresStore) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	id, err := s.opts.newID()
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	if err := s.write(ctx, pgInsert, collection, id, data); err != nil {
		return "", err
	}
	return id, nil
}

func (s *PostgresStore) Set(ctx context.Context, collection, id string, data map[string]any) error {
	return s.write(ctx, pgUpsert, collection, id, data)
}

func (s *PostgresStore) write(ctx context.Context, sql, collection, id string, data map[string]any) error {
	if err := checkRef(collection, id); err != nil {
		return err
	}
	body, err := s.encode(data)
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, sql, collection, id, body); err != nil {
		return fmt.Errorf("docstore: write %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *PostgresStore) Merge(ctx context.Context, collection, id string, fields map[string]any) error {
	if err := checkRef(collection, id); err != nil {
		return err
	}
	body, err := s.encode(fields)
	if err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx, pgMerge, collection, id, body)
	if err != nil {
		return fmt.Errorf("docstore: merge %s/%s: %w", collection, id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	if err := checkRef(collection, id); err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, pgDelete, collection, id); err != nil {
		return fmt.Errorf("docstore: delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *PostgresStore) encode(data map[string]any) (string, error) {
	prepared, err := prepare(data, s.opts.now())
	if err != nil {
		return "", err
	}
	b, err := json.Marshal(prepared)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return string(b), nil
}

func decodeRow(id string, raw []byte) (*Document, error) {
	data := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("docstore: decode %s: %w", id, err)
		}
	}
	delete(data, FieldID)
	return &Document{ID: id, Data: data}, nil
}
