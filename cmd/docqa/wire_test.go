package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/config"
	"docqa/internal/embedding/openai"
	"docqa/internal/embedding/tfidf"
	"docqa/internal/fallback"
	"docqa/internal/vectorstore/bolt"
	"docqa/internal/vectorstore/memory"
	"docqa/internal/vectorstore/qdrant"
)

func TestNewEmbedder(t *testing.T) {
	emb, err := newEmbedder(config.EmbedderConfig{Type: "tfidf"})
	require.NoError(t, err)
	assert.IsType(t, &tfidf.Embedder{}, emb)

	emb, err = newEmbedder(config.Default().Embedder)
	require.NoError(t, err)
	assert.IsType(t, &openai.Client{}, emb)

	_, err = newEmbedder(config.EmbedderConfig{Type: "word2vec"})
	assert.Error(t, err)
	_, err = newEmbedder(config.EmbedderConfig{Type: "hugot"})
	assert.Error(t, err)
}

func TestNewStore(t *testing.T) {
	st, err := newStore(config.VectorStoreConfig{Type: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &memory.Storage{}, st)

	dir := filepath.Join(t.TempDir(), "chroma_db")
	st, err = newStore(config.VectorStoreConfig{Type: "bolt", Bolt: &config.BoltConfig{Dir: dir}})
	require.NoError(t, err)
	assert.IsType(t, &bolt.Storage{}, st)
	require.NoError(t, st.Close())
	assert.FileExists(t, filepath.Join(dir, bolt.FileName))

	st, err = newStore(config.VectorStoreConfig{Type: "qdrant", Qdrant: &config.QdrantConfig{URL: "http://localhost:6333"}})
	require.NoError(t, err)
	assert.IsType(t, &qdrant.Storage{}, st)

	t.Setenv("DOCQA_TEST_DSN", "")
	_, err = newStore(config.VectorStoreConfig{Type: "pgvector", PGVector: &config.PGVectorConfig{DSNEnv: "DOCQA_TEST_DSN"}})
	assert.ErrorContains(t, err, "DOCQA_TEST_DSN")

	_, err = newStore(config.VectorStoreConfig{Type: "chroma"})
	assert.Error(t, err)
}

func TestNewFallback(t *testing.T) {
	t.Setenv("TAVILY_API_KEY", "tvly-test")
	fb, err := newFallback(config.Default().Fallback, nil)
	require.NoError(t, err)
	assert.IsType(t, &fallback.Tavily{}, fb)

	_, err = newFallback(config.FallbackConfig{Type: "bing"}, nil)
	assert.Error(t, err)
}

func TestAssemble(t *testing.T) {
	cfg := config.Default()
	cfg.Embedder = config.EmbedderConfig{Type: "tfidf"}
	cfg.VectorStore = config.VectorStoreConfig{Type: "memory"}

	a, err := assemble(cfg, nil)
	require.NoError(t, err)
	defer a.Close()
	assert.NotNil(t, a.session)
	assert.False(t, a.session.Ready())
	assert.Len(t, a.closers, 1)
}

func TestAssemble_ReportsFailingComponent(t *testing.T) {
	cfg := config.Default()
	cfg.Embedder = config.EmbedderConfig{Type: "tfidf"}
	cfg.VectorStore = config.VectorStoreConfig{Type: "memory"}
	cfg.LLM = config.LLMConfig{Type: "anthropic"}

	_, err := assemble(cfg, nil)
	assert.ErrorContains(t, err, "llm:")
}

func TestNewLogger(t *testing.T) {
	logger, closer, err := newLogger(config.LogConfig{Level: "info"}, true)
	require.NoError(t, err)
	assert.NotNil(t, logger)
	assert.Nil(t, closer)

	path := filepath.Join(t.TempDir(), "docqa.log")
	logger, closer, err = newLogger(config.LogConfig{Level: "debug", File: path}, true)
	require.NoError(t, err)
	logger.Debug("to file")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")

	_, _, err = newLogger(config.LogConfig{Level: "shout"}, false)
	assert.Error(t, err)
}
