package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"

	"docqa/internal/domain"
)

const (
	DefaultTopK           = 5
	DefaultScoreThreshold = 0.2
	DefaultEmbedBatchSize = 64
)

// Options wires the collaborators of a Session. Summarizer and Logger are
// optional.
type Options struct {
	Loader              domain.Loader
	Chunker             domain.Chunker
	Embedder            domain.Embedder
	Store               domain.VectorStore
	Generator           domain.Generator
	Fallback            domain.FallbackSearcher
	Summarizer          domain.Summarizer
	SummaryMaxSentences int
	EmbedBatchSize      int
	Logger              *slog.Logger
}

// IngestReport describes a successful ingestion.
type IngestReport struct {
	DocumentID string
	Path       string
	Pages      int
	Chunks     int
	Summary    string
}

// Answer is the outcome of a question.
type Answer struct {
	Text         string
	Sources      []domain.SearchResult
	UsedFallback bool
}

// Session answers questions about the most recently ingested document.
// It holds at most one attached index and one cached retriever.
type Session struct {
	mu sync.Mutex

	loader     domain.Loader
	chunker    domain.Chunker
	embedder   domain.Embedder
	store      domain.VectorStore
	generator  domain.Generator
	fallback   domain.FallbackSearcher
	summarizer domain.Summarizer
	maxSummary int
	batchSize  int
	log        *slog.Logger

	index     domain.VectorStore
	retriever *Retriever
}

func NewSession(opts Options) (*Session, error) {
	switch {
	case opts.Loader == nil:
		return nil, errors.New("session: loader is required")
	case opts.Chunker == nil:
		return nil, errors.New("session: chunker is required")
	case opts.Embedder == nil:
		return nil, errors.New("session: embedder is required")
	case opts.Store == nil:
		return nil, errors.New("session: vector store is required")
	case opts.Generator == nil:
		return nil, errors.New("session: generator is required")
	case opts.Fallback == nil:
		return nil, errors.New("session: fallback searcher is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	batch := opts.EmbedBatchSize
	if batch <= 0 {
		batch = DefaultEmbedBatchSize
	}
	return &Session{
		loader:     opts.Loader,
		chunker:    opts.Chunker,
		embedder:   opts.Embedder,
		store:      opts.Store,
		generator:  opts.Generator,
		fallback:   opts.Fallback,
		summarizer: opts.Summarizer,
		maxSummary: opts.SummaryMaxSentences,
		batchSize:  batch,
		log:        logger,
	}, nil
}

// Ingest loads the PDF at path and replaces the session index with a fresh
// one built from its chunks.
func (s *Session) Ingest(ctx context.Context, path string) (*IngestReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.Info("Starting ingestion", slog.String("path", path))
	doc, err := s.loader.Load(ctx, path)
	if err != nil {
		var le *domain.LoadError
		if !errors.As(err, &le) {
			err = &domain.LoadError{Path: path, Err: err}
		}
		return nil, err
	}

	// from here on a failure must not leave a stale index attached
	s.index = nil
	s.retriever = nil

	chunks, err := s.chunker.Chunk(doc)
	if err != nil {
		return nil, domain.NewServiceError("chunk document", err)
	}
	if len(chunks) == 0 {
		return nil, &domain.LoadError{Path: path, Err: errors.New("document produced no chunks")}
	}
	chunks = domain.FilterComplexMetadata(chunks)

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	if err := s.embedder.Prepare(ctx, texts); err != nil {
		return nil, domain.NewServiceError("prepare embedder", err)
	}
	vectors, err := s.embedAll(ctx, texts)
	if err != nil {
		return nil, domain.NewServiceError("embed chunks", err)
	}

	if err := s.store.Init(ctx, len(vectors[0])); err != nil {
		return nil, domain.NewServiceError("create index", err)
	}
	if err := s.store.Upsert(ctx, chunks, vectors); err != nil {
		return nil, domain.NewServiceError("write index", err)
	}
	s.index = s.store

	report := &IngestReport{
		DocumentID: doc.ID,
		Path:       doc.Path,
		Pages:      len(doc.Pages),
		Chunks:     len(chunks),
	}
	if s.summarizer != nil {
		summary, err := s.summarizer.Summarize(doc.Text(), s.maxSummary)
		if err != nil {
			s.log.Warn("Summary failed", slog.String("error", err.Error()))
		}
		report.Summary = summary
	}
	s.log.Info("Ingestion completed. Document embeddings stored successfully.",
		slog.String("document_id", doc.ID),
		slog.Int("pages", report.Pages),
		slog.Int("chunks", report.Chunks),
		slog.String("embedder", s.embedder.Name()),
	)
	return report, nil
}

func (s *Session) embedAll(ctx context.Context, texts []string) ([][]float64, error) {
	var vectors [][]float64
	if be, ok := s.embedder.(domain.BatchEmbedder); ok {
		vectors = make([][]float64, 0, len(texts))
		for start := 0; start < len(texts); start += s.batchSize {
			end := min(start+s.batchSize, len(texts))
			batch, err := be.EmbedBatch(ctx, texts[start:end])
			if err != nil {
				return nil, err
			}
			if len(batch) != end-start {
				return nil, errors.New("embedder returned a short batch")
			}
			vectors = append(vectors, batch...)
		}
	} else {
		vectors = make([][]float64, len(texts))
		for i, t := range texts {
			vec, err := s.embedder.Embed(ctx, t)
			if err != nil {
				return nil, err
			}
			vectors[i] = vec
		}
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, errors.New("embedder returned empty vectors")
	}
	return vectors, nil
}

// Query answers question and returns only the answer text.
func (s *Session) Query(ctx context.Context, question string, k int, threshold float64) (string, error) {
	ans, err := s.Ask(ctx, question, k, threshold)
	if err != nil {
		return "", err
	}
	return ans.Text, nil
}

// Ask retrieves up to k chunks scoring at least threshold and answers from
// them, or from the fallback searcher when none qualify. k <= 0 uses
// DefaultTopK and a negative threshold uses DefaultScoreThreshold.
func (s *Session) Ask(ctx context.Context, question string, k int, threshold float64) (*Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index == nil {
		return nil, domain.ErrNoDocument
	}
	if strings.TrimSpace(question) == "" {
		return nil, domain.ErrEmptyQuestion
	}
	if k <= 0 {
		k = DefaultTopK
	}
	if threshold < 0 {
		threshold = DefaultScoreThreshold
	}
	if s.retriever == nil || !s.retriever.matches(k, threshold) {
		s.retriever = NewRetriever(s.index, s.embedder, k, threshold)
	}

	s.log.Info("Retrieving context", slog.String("question", question), slog.Int("k", k))
	hits, err := s.retriever.Retrieve(ctx, question)
	if err != nil {
		return nil, err
	}

	if len(hits) == 0 {
		s.log.Info("No relevant context found in document. Using fallback search.")
		return &Answer{Text: s.fallback.Search(ctx, question), UsedFallback: true}, nil
	}

	texts := make([]string, len(hits))
	for i, h := range hits {
		texts[i] = h.Chunk.Text
	}
	prompt, err := RenderPrompt(BuildContext(texts), question)
	if err != nil {
		return nil, domain.NewServiceError("render prompt", err)
	}

	s.log.Info("Generating response", slog.Int("sources", len(hits)))
	out, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, domain.NewServiceError("generate answer", err)
	}
	return &Answer{Text: out, Sources: hits}, nil
}

// Clear detaches the index and drops the cached retriever. Stored data is
// left in place.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log.Info("Clearing vector store and retriever")
	s.index = nil
	s.retriever = nil
}

// Ready reports whether a document index is attached.
func (s *Session) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index != nil
}
