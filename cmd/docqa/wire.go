package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"docqa/internal/chunker"
	"docqa/internal/config"
	"docqa/internal/domain"
	"docqa/internal/embedding/openai"
	"docqa/internal/embedding/sentence"
	"docqa/internal/embedding/tfidf"
	"docqa/internal/fallback"
	"docqa/internal/llm"
	"docqa/internal/loader"
	"docqa/internal/logging"
	"docqa/internal/service"
	"docqa/internal/summarizer"
	"docqa/internal/vectorstore/bolt"
	"docqa/internal/vectorstore/memory"
	"docqa/internal/vectorstore/pgvector"
	"docqa/internal/vectorstore/qdrant"
)

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

func newEmbedder(cfg config.EmbedderConfig) (domain.Embedder, error) {
	switch cfg.Type {
	case "tfidf":
		return tfidf.NewEmbedder(), nil
	case "openai":
		if cfg.OpenAI == nil {
			return nil, fmt.Errorf("openai embedder config missing")
		}
		return openai.NewClient(openai.Config{
			BaseURL:    cfg.OpenAI.BaseURL,
			APIKeyEnv:  cfg.OpenAI.APIKeyEnv,
			Model:      cfg.OpenAI.Model,
			Timeout:    seconds(cfg.OpenAI.TimeoutSecs),
			BatchSize:  cfg.OpenAI.BatchSize,
			MaxRetries: cfg.OpenAI.MaxRetries,
		})
	case "hugot":
		if cfg.Hugot == nil {
			return nil, fmt.Errorf("hugot embedder config missing")
		}
		return sentence.NewEmbedder(sentence.Config{
			ModelName: cfg.Hugot.ModelName,
			ModelDir:  cfg.Hugot.ModelDir,
		})
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Type)
	}
}

func newStore(cfg config.VectorStoreConfig) (domain.VectorStore, error) {
	switch cfg.Type {
	case "memory":
		return memory.NewStorage(), nil
	case "bolt":
		if cfg.Bolt == nil {
			return nil, fmt.Errorf("bolt config missing")
		}
		return bolt.Open(bolt.Config{Dir: cfg.Bolt.Dir, Collection: cfg.Bolt.Collection})
	case "qdrant":
		if cfg.Qdrant == nil {
			return nil, fmt.Errorf("qdrant config missing")
		}
		return qdrant.NewStorage(qdrant.Config{
			URL:        cfg.Qdrant.URL,
			APIKey:     getenv(cfg.Qdrant.APIKeyEnv),
			Collection: cfg.Qdrant.Collection,
			Timeout:    seconds(cfg.Qdrant.TimeoutSecs),
		}), nil
	case "pgvector":
		if cfg.PGVector == nil {
			return nil, fmt.Errorf("pgvector config missing")
		}
		dsn := getenv(cfg.PGVector.DSNEnv)
		if dsn == "" {
			return nil, fmt.Errorf("missing postgres dsn in env %s", cfg.PGVector.DSNEnv)
		}
		return pgvector.Open(pgvector.Config{DSN: dsn, Collection: cfg.PGVector.Collection})
	default:
		return nil, fmt.Errorf("unknown vector store: %s", cfg.Type)
	}
}

func newGenerator(cfg config.LLMConfig) (domain.Generator, error) {
	switch cfg.Type {
	case "openai":
		if cfg.OpenAI == nil {
			return nil, fmt.Errorf("openai llm config missing")
		}
		return llm.NewChatClient(llm.Config{
			BaseURL:      cfg.OpenAI.BaseURL,
			APIKeyEnv:    cfg.OpenAI.APIKeyEnv,
			Model:        cfg.OpenAI.Model,
			SystemPrompt: cfg.OpenAI.SystemPrompt,
			Temperature:  cfg.OpenAI.Temperature,
			MaxTokens:    cfg.OpenAI.MaxTokens,
			Timeout:      seconds(cfg.OpenAI.TimeoutSecs),
			MaxRetries:   cfg.OpenAI.MaxRetries,
		})
	default:
		return nil, fmt.Errorf("unknown llm: %s", cfg.Type)
	}
}

func newFallback(cfg config.FallbackConfig, logger *slog.Logger) (domain.FallbackSearcher, error) {
	switch cfg.Type {
	case "tavily":
		if cfg.Tavily == nil {
			return nil, fmt.Errorf("tavily config missing")
		}
		return fallback.NewTavily(fallback.TavilyConfig{
			URL:     cfg.Tavily.URL,
			APIKey:  getenv(cfg.Tavily.APIKeyEnv),
			Timeout: seconds(cfg.Tavily.TimeoutSecs),
		}, logger), nil
	default:
		return nil, fmt.Errorf("unknown fallback: %s", cfg.Type)
	}
}

func newSummarizer(cfg config.SummarizerConfig) (domain.Summarizer, error) {
	switch cfg.Type {
	case "frequency":
		return summarizer.NewFrequencySummarizer(), nil
	default:
		return nil, fmt.Errorf("unknown summarizer: %s", cfg.Type)
	}
}

// app owns the assembled session and the resources to release on exit.
type app struct {
	session *service.Session
	closers []io.Closer
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i].Close()
	}
}

func assemble(cfg *config.AppConfig, logger *slog.Logger) (*app, error) {
	a := &app{}
	fail := func(err error) (*app, error) {
		a.Close()
		return nil, err
	}

	emb, err := newEmbedder(cfg.Embedder)
	if err != nil {
		return fail(fmt.Errorf("embedder: %w", err))
	}
	if c, ok := emb.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}
	store, err := newStore(cfg.VectorStore)
	if err != nil {
		return fail(fmt.Errorf("vector store: %w", err))
	}
	a.closers = append(a.closers, store)
	gen, err := newGenerator(cfg.LLM)
	if err != nil {
		return fail(fmt.Errorf("llm: %w", err))
	}
	fb, err := newFallback(cfg.Fallback, logger)
	if err != nil {
		return fail(fmt.Errorf("fallback: %w", err))
	}
	sum, err := newSummarizer(cfg.Summarizer)
	if err != nil {
		return fail(fmt.Errorf("summarizer: %w", err))
	}

	a.session, err = service.NewSession(service.Options{
		Loader:              loader.NewPDFLoader(),
		Chunker:             chunker.NewWindowChunker(cfg.Chunker.ChunkSize, cfg.Chunker.ChunkOverlap),
		Embedder:            emb,
		Store:               store,
		Generator:           gen,
		Fallback:            fb,
		Summarizer:          sum,
		SummaryMaxSentences: cfg.Summarizer.MaxSentences,
		Logger:              logger,
	})
	if err != nil {
		return fail(err)
	}
	return a, nil
}

// newLogger writes to stderr in one-shot mode. The TUI owns the terminal,
// so there logs go to log.file or nowhere.
func newLogger(cfg config.LogConfig, interactive bool) (*slog.Logger, io.Closer, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		return logging.New(f, level), f, nil
	}
	if interactive {
		return logging.Discard(), nil, nil
	}
	return logging.New(os.Stderr, level), nil, nil
}

func getenv(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}
