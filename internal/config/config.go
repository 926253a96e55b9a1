package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	DefaultOllamaURL      = "http://localhost:11434/v1"
	DefaultEmbeddingModel = "mxbai-embed-large"
	DefaultChatModel      = "deepseek-coder:latest"
	DefaultIndexDir       = "chroma_db"
	DefaultTavilyURL      = "https://api.tavily.com/v1/query"
	DefaultTavilyKeyEnv   = "TAVILY_API_KEY"

	DefaultChunkOverlap   = 100
	DefaultScoreThreshold = 0.2
)

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	BatchSize   int    `yaml:"batch_size"`
	MaxRetries  int    `yaml:"max_retries"`
}

type HugotEmbedderConfig struct {
	ModelName string `yaml:"model_name"`
	ModelDir  string `yaml:"model_dir"`
}

// EmbedderConfig selects the text embedder: openai, hugot or tfidf.
type EmbedderConfig struct {
	Type   string                `yaml:"type"`
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
	Hugot  *HugotEmbedderConfig  `yaml:"hugot,omitempty"`
}

// ChunkerConfig configures the character window used to split pages.
type ChunkerConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

type OpenAIChatConfig struct {
	BaseURL      string  `yaml:"base_url"`
	APIKeyEnv    string  `yaml:"api_key_env"`
	Model        string  `yaml:"model"`
	SystemPrompt string  `yaml:"system_prompt,omitempty"`
	Temperature  float64 `yaml:"temperature"`
	MaxTokens    int     `yaml:"max_tokens"`
	TimeoutSecs  int     `yaml:"timeout_secs"`
	MaxRetries   int     `yaml:"max_retries"`
}

// LLMConfig selects the answer generator.
type LLMConfig struct {
	Type   string            `yaml:"type"`
	OpenAI *OpenAIChatConfig `yaml:"openai,omitempty"`
}

// VectorStoreConfig selects the index backend: bolt, memory, qdrant or pgvector.
type VectorStoreConfig struct {
	Type     string          `yaml:"type"`
	Bolt     *BoltConfig     `yaml:"bolt,omitempty"`
	Qdrant   *QdrantConfig   `yaml:"qdrant,omitempty"`
	PGVector *PGVectorConfig `yaml:"pgvector,omitempty"`
}

type BoltConfig struct {
	Dir        string `yaml:"dir"`
	Collection string `yaml:"collection"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

type PGVectorConfig struct {
	DSNEnv     string `yaml:"dsn_env"`
	Collection string `yaml:"collection"`
}

// RetrievalConfig holds the query defaults.
type RetrievalConfig struct {
	TopK           int     `yaml:"top_k"`
	ScoreThreshold float64 `yaml:"score_threshold"`
}

type TavilyConfig struct {
	URL         string `yaml:"url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// FallbackConfig selects the web search used when the document has no answer.
type FallbackConfig struct {
	Type   string        `yaml:"type"`
	Tavily *TavilyConfig `yaml:"tavily,omitempty"`
}

// SummarizerConfig selects and configures the summarizer.
type SummarizerConfig struct {
	Type         string `yaml:"type"`
	MaxSentences int    `yaml:"max_sentences"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file,omitempty"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Chunker     ChunkerConfig     `yaml:"chunker"`
	Embedder    EmbedderConfig    `yaml:"embedder"`
	LLM         LLMConfig         `yaml:"llm"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`
	Fallback    FallbackConfig    `yaml:"fallback"`
	Summarizer  SummarizerConfig  `yaml:"summarizer"`
	Log         LogConfig         `yaml:"log"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	cfg := base()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/docqa/config.yaml.
// If neither exists, it writes defaults to ~/.config/docqa/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := Default()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate rejects unknown component types and impossible chunk settings.
func (c *AppConfig) Validate() error {
	if c.Chunker.ChunkOverlap >= c.Chunker.ChunkSize {
		return fmt.Errorf("chunk_overlap (%d) must be smaller than chunk_size (%d)", c.Chunker.ChunkOverlap, c.Chunker.ChunkSize)
	}
	if err := oneOf("embedder.type", c.Embedder.Type, "openai", "hugot", "tfidf"); err != nil {
		return err
	}
	if err := oneOf("llm.type", c.LLM.Type, "openai"); err != nil {
		return err
	}
	if err := oneOf("vector_store.type", c.VectorStore.Type, "bolt", "memory", "qdrant", "pgvector"); err != nil {
		return err
	}
	if err := oneOf("fallback.type", c.Fallback.Type, "tavily"); err != nil {
		return err
	}
	return oneOf("summarizer.type", c.Summarizer.Type, "frequency")
}

func oneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("unknown %s %q", field, value)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "docqa", "config.yaml"), nil
}

// Default returns the configuration used when no file exists: Ollama for
// embeddings and chat, a bbolt index under ./chroma_db and Tavily fallback.
func Default() *AppConfig {
	cfg := base()
	cfg.Embedder.Type = "openai"
	cfg.LLM.Type = "openai"
	cfg.VectorStore.Type = "bolt"
	cfg.Fallback.Type = "tavily"
	cfg.Summarizer.Type = "frequency"
	applyConfigDefaults(&cfg)
	return &cfg
}

// base presets the fields where 0 is a valid setting. The YAML decoder
// leaves keys absent from the file untouched, so an explicit 0 survives.
func base() AppConfig {
	return AppConfig{
		Chunker:   ChunkerConfig{ChunkOverlap: DefaultChunkOverlap},
		Retrieval: RetrievalConfig{ScoreThreshold: DefaultScoreThreshold},
	}
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Chunker.ChunkSize <= 0 {
		cfg.Chunker.ChunkSize = 1024
	}
	if cfg.Chunker.ChunkOverlap < 0 {
		cfg.Chunker.ChunkOverlap = 0
	}

	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "openai"
	}
	if cfg.Embedder.Type == "openai" {
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
		}
		e := cfg.Embedder.OpenAI
		if e.BaseURL == "" {
			e.BaseURL = DefaultOllamaURL
		}
		if e.APIKeyEnv == "" {
			e.APIKeyEnv = "OPENAI_API_KEY"
		}
		if e.Model == "" {
			e.Model = DefaultEmbeddingModel
		}
		if e.TimeoutSecs == 0 {
			e.TimeoutSecs = 30
		}
		if e.BatchSize == 0 {
			e.BatchSize = 32
		}
	}
	if cfg.Embedder.Type == "hugot" {
		if cfg.Embedder.Hugot == nil {
			cfg.Embedder.Hugot = &HugotEmbedderConfig{}
		}
		if cfg.Embedder.Hugot.ModelDir == "" {
			cfg.Embedder.Hugot.ModelDir = "models"
		}
	}

	if cfg.LLM.Type == "" {
		cfg.LLM.Type = "openai"
	}
	if cfg.LLM.OpenAI == nil {
		cfg.LLM.OpenAI = &OpenAIChatConfig{}
	}
	if cfg.LLM.OpenAI.BaseURL == "" {
		cfg.LLM.OpenAI.BaseURL = DefaultOllamaURL
	}
	if cfg.LLM.OpenAI.APIKeyEnv == "" {
		cfg.LLM.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.LLM.OpenAI.Model == "" {
		cfg.LLM.OpenAI.Model = DefaultChatModel
	}
	if cfg.LLM.OpenAI.TimeoutSecs == 0 {
		cfg.LLM.OpenAI.TimeoutSecs = 120
	}

	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "bolt"
	}
	switch cfg.VectorStore.Type {
	case "bolt":
		if cfg.VectorStore.Bolt == nil {
			cfg.VectorStore.Bolt = &BoltConfig{}
		}
		if cfg.VectorStore.Bolt.Dir == "" {
			cfg.VectorStore.Bolt.Dir = DefaultIndexDir
		}
	case "qdrant":
		if cfg.VectorStore.Qdrant == nil {
			cfg.VectorStore.Qdrant = &QdrantConfig{}
		}
		if cfg.VectorStore.Qdrant.URL == "" {
			cfg.VectorStore.Qdrant.URL = "http://localhost:6333"
		}
		if cfg.VectorStore.Qdrant.TimeoutSecs == 0 {
			cfg.VectorStore.Qdrant.TimeoutSecs = 15
		}
	case "pgvector":
		if cfg.VectorStore.PGVector == nil {
			cfg.VectorStore.PGVector = &PGVectorConfig{}
		}
		if cfg.VectorStore.PGVector.DSNEnv == "" {
			cfg.VectorStore.PGVector.DSNEnv = "DOCQA_PG_DSN"
		}
	}

	if cfg.Retrieval.TopK <= 0 {
		cfg.Retrieval.TopK = 5
	}
	if cfg.Retrieval.ScoreThreshold < 0 {
		cfg.Retrieval.ScoreThreshold = DefaultScoreThreshold
	}

	if cfg.Fallback.Type == "" {
		cfg.Fallback.Type = "tavily"
	}
	if cfg.Fallback.Tavily == nil {
		cfg.Fallback.Tavily = &TavilyConfig{}
	}
	if cfg.Fallback.Tavily.URL == "" {
		cfg.Fallback.Tavily.URL = DefaultTavilyURL
	}
	if cfg.Fallback.Tavily.APIKeyEnv == "" {
		cfg.Fallback.Tavily.APIKeyEnv = DefaultTavilyKeyEnv
	}

	if cfg.Summarizer.Type == "" {
		cfg.Summarizer.Type = "frequency"
	}
	if cfg.Summarizer.MaxSentences == 0 {
		cfg.Summarizer.MaxSentences = 5
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}
