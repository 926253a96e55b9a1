package pgvector

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	pgv "github.com/pgvector/pgvector-go"

	"docqa/internal/domain"
	"docqa/internal/vectorstore"
)

// Config configures the Postgres-backed index.
type Config struct {
	DSN        string
	Collection string // table name
}

// Storage implements VectorStore on Postgres with the pgvector extension.
// Each collection is one table; scores are 1 - cosine distance.
type Storage struct {
	db    *sql.DB
	table string
}

func Open(cfg Config) (*Storage, error) {
	if cfg.DSN == "" {
		return nil, errors.New("pgvector: dsn is required")
	}
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, err
	}
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return NewFromDB(db, cfg.Collection)
}

// NewFromDB reuses an existing connection pool.
func NewFromDB(db *sql.DB, collection string) (*Storage, error) {
	if db == nil {
		return nil, errors.New("pgvector: db is required")
	}
	if collection == "" {
		collection = vectorstore.DefaultCollection
	}
	return &Storage{db: db, table: collection}, nil
}

func (s *Storage) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return vectorstore.ErrInvalidDimension
	}
	table := pq.QuoteIdentifier(s.table)
	ddl := fmt.Sprintf(`
CREATE EXTENSION IF NOT EXISTS vector;
DROP TABLE IF EXISTS %[1]s;
CREATE TABLE %[1]s (
  chunk_id     text PRIMARY KEY,
  document_id  text NOT NULL,
  chunk_index  integer NOT NULL,
  content      text NOT NULL,
  metadata     jsonb NOT NULL DEFAULT '{}'::jsonb,
  embedding    vector(%[2]d) NOT NULL,
  created_at   timestamptz NOT NULL DEFAULT now()
);
`, table, dimension)
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

func (s *Storage) Upsert(ctx context.Context, chunks []domain.Chunk, vectors [][]float64) error {
	if len(chunks) != len(vectors) {
		return vectorstore.ErrLengthMismatch
	}
	if len(chunks) == 0 {
		return nil
	}
	if err := s.ensureTable(ctx); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt := fmt.Sprintf(`
INSERT INTO %s (chunk_id, document_id, chunk_index, content, metadata, embedding)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (chunk_id) DO UPDATE SET
  document_id = EXCLUDED.document_id,
  chunk_index = EXCLUDED.chunk_index,
  content     = EXCLUDED.content,
  metadata    = EXCLUDED.metadata,
  embedding   = EXCLUDED.embedding;
`, pq.QuoteIdentifier(s.table))
	for i, ch := range chunks {
		md := ch.Metadata
		if md == nil {
			md = domain.Metadata{}
		}
		metaBytes, err := json.Marshal(md)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, stmt,
			ch.ChunkID, ch.DocumentID, ch.Index, ch.Text, string(metaBytes), pgv.NewVector(toFloat32(vectors[i])),
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Storage) Search(ctx context.Context, vector []float64, topK int) ([]domain.SearchResult, error) {
	if err := s.ensureTable(ctx); err != nil {
		return nil, err
	}
	if topK <= 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`
SELECT chunk_id, document_id, chunk_index, content, metadata, 1 - (embedding <=> $1) AS score
FROM %s
ORDER BY embedding <=> $1, chunk_index
LIMIT $2;
`, pq.QuoteIdentifier(s.table))
	rows, err := s.db.QueryContext(ctx, query, pgv.NewVector(toFloat32(vector)), topK)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.SearchResult
	for rows.Next() {
		var (
			ch    domain.Chunk
			meta  []byte
			score float64
		)
		if err := rows.Scan(&ch.ChunkID, &ch.DocumentID, &ch.Index, &ch.Text, &meta, &score); err != nil {
			return nil, err
		}
		if ch.Metadata, err = vectorstore.DecodeMetadata(meta); err != nil {
			return nil, err
		}
		results = append(results, domain.SearchResult{Chunk: ch, Score: score})
	}
	return results, rows.Err()
}

func (s *Storage) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", pq.QuoteIdentifier(s.table)))
	return err
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) ensureTable(ctx context.Context) error {
	var name sql.NullString
	if err := s.db.QueryRowContext(ctx, "SELECT to_regclass($1)::text", pq.QuoteIdentifier(s.table)).Scan(&name); err != nil {
		return err
	}
	if !name.Valid {
		return vectorstore.ErrNotInitialized
	}
	return nil
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
