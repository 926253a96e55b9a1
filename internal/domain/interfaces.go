package domain

import "context"

// Page is one unit of plain text extracted from a source document.
type Page struct {
	Number   int // 1-based
	Text     string
	Metadata Metadata
}

// Document represents a single file loaded into the system.
type Document struct {
	ID    string
	Path  string
	Pages []Page
}

// Text returns the page texts joined by blank lines.
func (d Document) Text() string {
	n := 0
	for _, p := range d.Pages {
		n += len(p.Text) + 2
	}
	buf := make([]byte, 0, n)
	for i, p := range d.Pages {
		if i > 0 {
			buf = append(buf, '\n', '\n')
		}
		buf = append(buf, p.Text...)
	}
	return string(buf)
}

// Chunk is a bounded window of page text used for indexing.
type Chunk struct {
	DocumentID string
	ChunkID    string
	Text       string
	Index      int
	Metadata   Metadata
}

// SearchResult represents a matching chunk with a relevance score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// Loader reads a document from a path.
type Loader interface {
	Load(ctx context.Context, path string) (Document, error)
}

// Chunker splits documents into chunks suitable for retrieval indexing.
type Chunker interface {
	Chunk(document Document) ([]Chunk, error)
}

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(ctx context.Context, corpus []string) error
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
}

// BatchEmbedder is implemented by embedders that can embed many texts per call.
// The returned slice is parallel to texts.
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// VectorStore persists vectors and supports similarity search.
// Init creates a fresh collection and drops whatever it held before.
// Search returns at most topK results ordered by descending score.
type VectorStore interface {
	Init(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, chunks []Chunk, vectors [][]float64) error
	Search(ctx context.Context, vector []float64, topK int) ([]SearchResult, error)
	Clear(ctx context.Context) error
	Close() error
}

// Generator turns a rendered prompt into model output.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// FallbackSearcher answers a question from an external knowledge source.
// It never fails: problems are reported inside the returned text.
type FallbackSearcher interface {
	Search(ctx context.Context, question string) string
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}
