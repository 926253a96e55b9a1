package vectorstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"sort"

	"docqa/internal/domain"
)

// DefaultCollection names the collection every backend writes to.
const DefaultCollection = "docqa"

var (
	ErrInvalidDimension = errors.New("invalid dimension")
	ErrLengthMismatch   = errors.New("chunks and vectors length mismatch")
	ErrDimensionMatch   = errors.New("vector dimension mismatch")
	ErrNotInitialized   = errors.New("collection not initialized")
)

// CheckBatch validates an upsert batch against the collection dimension.
func CheckBatch(chunks []domain.Chunk, vectors [][]float64, dimension int) error {
	if len(chunks) != len(vectors) {
		return ErrLengthMismatch
	}
	for _, v := range vectors {
		if len(v) != dimension {
			return ErrDimensionMatch
		}
	}
	return nil
}

// Cosine returns the cosine similarity of a and b, or 0 when either is a
// zero vector.
func Cosine(a, b []float64) float64 {
	n := min(len(a), len(b))
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// TopK returns the indexes of the k highest scores in descending order.
// Ties keep insertion order.
func TopK(scores []float64, k int) []int {
	idxs := make([]int, len(scores))
	for i := range scores {
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(i, j int) bool {
		return scores[idxs[i]] > scores[idxs[j]]
	})
	if k < len(idxs) {
		idxs = idxs[:k]
	}
	return idxs
}

// DecodeMetadata unmarshals a JSON object into metadata, keeping integral
// numbers as int64 so they survive a round trip through a store.
func DecodeMetadata(data []byte) (domain.Metadata, error) {
	if len(data) == 0 {
		return domain.Metadata{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return NormalizeMetadata(raw), nil
}

// NormalizeMetadata converts decoded JSON values into scalar Go types.
func NormalizeMetadata(raw map[string]any) domain.Metadata {
	md := make(domain.Metadata, len(raw))
	for k, v := range raw {
		switch n := v.(type) {
		case json.Number:
			if i, err := n.Int64(); err == nil {
				md[k] = i
			} else if f, err := n.Float64(); err == nil {
				md[k] = f
			}
		case float64:
			if n == math.Trunc(n) && math.Abs(n) < 1<<53 {
				md[k] = int64(n)
			} else {
				md[k] = n
			}
		default:
			if domain.IsScalar(v) {
				md[k] = v
			}
		}
	}
	return md
}
