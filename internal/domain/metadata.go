package domain

// Metadata holds provenance attributes attached to pages and chunks.
type Metadata map[string]any

// Clone returns a shallow copy of m.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Scalar returns a copy of m holding only values a vector index can store
// as plain payload: strings, booleans, integers and floats.
func (m Metadata) Scalar() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		if IsScalar(v) {
			out[k] = v
		}
	}
	return out
}

// IsScalar reports whether v is a simple metadata value.
func IsScalar(v any) bool {
	switch v.(type) {
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	}
	return false
}

// FilterComplexMetadata strips non-scalar metadata values from every chunk.
// Chunks are kept; only the offending keys are removed.
func FilterComplexMetadata(chunks []Chunk) []Chunk {
	out := make([]Chunk, len(chunks))
	for i, ch := range chunks {
		ch.Metadata = ch.Metadata.Scalar()
		out[i] = ch
	}
	return out
}
