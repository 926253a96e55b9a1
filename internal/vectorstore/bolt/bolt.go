package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"docqa/internal/domain"
	"docqa/internal/vectorstore"
)

// FileName is the database file created inside the index directory.
const FileName = "index.db"

var (
	keyDimension = []byte("dimension")
	bucketPoints = []byte("points")
)

// Config configures the on-disk index.
type Config struct {
	Dir        string
	Collection string
}

// Storage persists chunks and vectors in a bbolt file. Each collection is a
// top-level bucket holding its dimension and a nested bucket of points.
type Storage struct {
	db         *bbolt.DB
	collection []byte
}

type point struct {
	DocumentID string          `json:"document_id"`
	ChunkID    string          `json:"chunk_id"`
	Index      int             `json:"index"`
	Text       string          `json:"text"`
	Metadata   domain.Metadata `json:"metadata,omitempty"`
	Vector     []float64       `json:"vector"`
}

// storedPoint defers metadata decoding so numbers keep their integer type.
type storedPoint struct {
	point
	Metadata json.RawMessage `json:"metadata"`
}

// Open creates the directory if needed and opens <dir>/index.db.
func Open(cfg Config) (*Storage, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("bolt: index directory is required")
	}
	if cfg.Collection == "" {
		cfg.Collection = vectorstore.DefaultCollection
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	db, err := bbolt.Open(filepath.Join(cfg.Dir, FileName), 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	return &Storage{db: db, collection: []byte(cfg.Collection)}, nil
}

// Init drops the collection if present and recreates it empty.
func (s *Storage) Init(_ context.Context, dimension int) error {
	if dimension <= 0 {
		return vectorstore.ErrInvalidDimension
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(s.collection) != nil {
			if err := tx.DeleteBucket(s.collection); err != nil {
				return err
			}
		}
		b, err := tx.CreateBucket(s.collection)
		if err != nil {
			return err
		}
		if _, err := b.CreateBucket(bucketPoints); err != nil {
			return err
		}
		var dim [8]byte
		binary.BigEndian.PutUint64(dim[:], uint64(dimension))
		return b.Put(keyDimension, dim[:])
	})
}

func (s *Storage) Upsert(_ context.Context, chunks []domain.Chunk, vectors [][]float64) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, dim, err := s.bucket(tx)
		if err != nil {
			return err
		}
		if err := vectorstore.CheckBatch(chunks, vectors, dim); err != nil {
			return err
		}
		points := b.Bucket(bucketPoints)
		for i, ch := range chunks {
			data, err := json.Marshal(point{
				DocumentID: ch.DocumentID,
				ChunkID:    ch.ChunkID,
				Index:      ch.Index,
				Text:       ch.Text,
				Metadata:   ch.Metadata,
				Vector:     vectors[i],
			})
			if err != nil {
				return err
			}
			if err := points.Put([]byte(ch.ChunkID), data); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Storage) Search(ctx context.Context, vector []float64, topK int) ([]domain.SearchResult, error) {
	var (
		found  []domain.Chunk
		scores []float64
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		b, _, err := s.bucket(tx)
		if err != nil {
			return err
		}
		return b.Bucket(bucketPoints).ForEach(func(_, v []byte) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var p storedPoint
			if err := json.Unmarshal(v, &p); err != nil {
				return err
			}
			md, err := vectorstore.DecodeMetadata(p.Metadata)
			if err != nil {
				return err
			}
			found = append(found, domain.Chunk{
				DocumentID: p.DocumentID,
				ChunkID:    p.ChunkID,
				Index:      p.Index,
				Text:       p.Text,
				Metadata:   md,
			})
			scores = append(scores, vectorstore.Cosine(p.Vector, vector))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if topK <= 0 {
		return nil, nil
	}
	idxs := vectorstore.TopK(scores, topK)
	results := make([]domain.SearchResult, 0, len(idxs))
	for _, j := range idxs {
		results = append(results, domain.SearchResult{Chunk: found[j], Score: scores[j]})
	}
	return results, nil
}

// Clear drops the collection. The file stays in place.
func (s *Storage) Clear(_ context.Context) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(s.collection) == nil {
			return nil
		}
		return tx.DeleteBucket(s.collection)
	})
}

func (s *Storage) Close() error {
	return s.db.Close()
}

// Count returns the number of points in the collection.
func (s *Storage) Count() (int, error) {
	n := 0
	err := s.db.View(func(tx *bbolt.Tx) error {
		b, _, err := s.bucket(tx)
		if err != nil {
			return err
		}
		n = b.Bucket(bucketPoints).Stats().KeyN
		return nil
	})
	return n, err
}

func (s *Storage) bucket(tx *bbolt.Tx) (*bbolt.Bucket, int, error) {
	b := tx.Bucket(s.collection)
	if b == nil {
		return nil, 0, vectorstore.ErrNotInitialized
	}
	raw := b.Get(keyDimension)
	if len(raw) != 8 {
		return nil, 0, fmt.Errorf("bolt: collection %q has no dimension", s.collection)
	}
	return b, int(binary.BigEndian.Uint64(raw)), nil
}
