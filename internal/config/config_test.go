package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 1024, cfg.Chunker.ChunkSize)
	assert.Equal(t, 100, cfg.Chunker.ChunkOverlap)
	assert.Equal(t, "openai", cfg.Embedder.Type)
	assert.Equal(t, DefaultOllamaURL, cfg.Embedder.OpenAI.BaseURL)
	assert.Equal(t, DefaultEmbeddingModel, cfg.Embedder.OpenAI.Model)
	assert.Equal(t, DefaultChatModel, cfg.LLM.OpenAI.Model)
	assert.Equal(t, "bolt", cfg.VectorStore.Type)
	assert.Equal(t, DefaultIndexDir, cfg.VectorStore.Bolt.Dir)
	assert.Equal(t, 5, cfg.Retrieval.TopK)
	assert.InDelta(t, 0.2, cfg.Retrieval.ScoreThreshold, 1e-9)
	assert.Equal(t, DefaultTavilyURL, cfg.Fallback.Tavily.URL)
	assert.Equal(t, DefaultTavilyKeyEnv, cfg.Fallback.Tavily.APIKeyEnv)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_PartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
embedder:
  type: tfidf
vector_store:
  type: qdrant
  qdrant:
    collection: papers
retrieval:
  top_k: 8
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "tfidf", cfg.Embedder.Type)
	assert.Nil(t, cfg.Embedder.OpenAI)
	assert.Equal(t, "http://localhost:6333", cfg.VectorStore.Qdrant.URL)
	assert.Equal(t, "papers", cfg.VectorStore.Qdrant.Collection)
	assert.Equal(t, 8, cfg.Retrieval.TopK)
	assert.InDelta(t, 0.2, cfg.Retrieval.ScoreThreshold, 1e-9)
}

func TestLoad_ExplicitZeroes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
chunker:
  chunk_size: 512
  chunk_overlap: 0
retrieval:
  score_threshold: 0
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 512, cfg.Chunker.ChunkSize)
	assert.Equal(t, 0, cfg.Chunker.ChunkOverlap)
	assert.Zero(t, cfg.Retrieval.ScoreThreshold)
	assert.Equal(t, 5, cfg.Retrieval.TopK)
}

func TestLoad_NegativeValuesFallBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chunker:\n  chunk_overlap: -5\nretrieval:\n  score_threshold: -1\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Chunker.ChunkOverlap)
	assert.InDelta(t, DefaultScoreThreshold, cfg.Retrieval.ScoreThreshold, 1e-9)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"bad yaml":      "chunker: [",
		"unknown store": "vector_store:\n  type: chroma\n",
		"overlap":       "chunker:\n  chunk_size: 50\n  chunk_overlap: 50\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.VectorStore.Bolt.Dir = "/var/lib/docqa"
	cfg.Log.File = "docqa.log"

	require.NoError(t, Save(path, cfg))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadDefault_WritesUserConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())

	cfg, path, err := LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "docqa", "config.yaml"), path)
	assert.FileExists(t, path)
	assert.Equal(t, Default(), cfg)
}
