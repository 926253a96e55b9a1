// Package sentence runs a sentence-transformer ONNX model in-process via hugot.
package sentence

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
)

const DefaultModel = "sentence-transformers/all-MiniLM-L6-v2"

// Config selects the model and where it is cached.
type Config struct {
	ModelName string
	ModelDir  string
}

// Embedder implements the Embedder interface with a local feature-extraction pipeline.
type Embedder struct {
	session  *hugot.Session
	pipeline *pipelines.FeatureExtractionPipeline

	mu        sync.Mutex
	dimension int
}

// NewEmbedder downloads the model when missing and starts a Go-backend session.
func NewEmbedder(cfg Config) (*Embedder, error) {
	if cfg.ModelName == "" {
		cfg.ModelName = DefaultModel
	}
	if cfg.ModelDir == "" {
		cfg.ModelDir = "./models"
	}
	modelPath, err := prepareModel(cfg.ModelName, cfg.ModelDir)
	if err != nil {
		return nil, err
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}
	pipeline, err := hugot.NewPipeline(session, hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "docqa-embedder",
	})
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create sentence pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create sentence pipeline: %w", err)
	}
	return &Embedder{session: session, pipeline: pipeline}, nil
}

// prepareModel downloads the model if it doesn't exist and returns the model path.
func prepareModel(modelName, modelDir string) (string, error) {
	modelPath := filepath.Join(modelDir, strings.ReplaceAll(modelName, "/", "_"))
	if _, err := os.Stat(modelPath); err == nil {
		return modelPath, nil
	} else if !os.IsNotExist(err) {
		return "", err
	}
	if err := os.MkdirAll(modelDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create model directory: %w", err)
	}
	opts := hugot.NewDownloadOptions()
	opts.OnnxFilePath = "onnx/model.onnx"
	downloaded, err := hugot.DownloadModel(modelName, modelDir, opts)
	if err != nil {
		return "", fmt.Errorf("failed to download model: %w", err)
	}
	return downloaded, nil
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "sentence" }

// Prepare is a no-op; the model is fixed.
func (e *Embedder) Prepare(context.Context, []string) error { return nil }

// Dimension returns the embedding size seen so far, 0 before the first call.
func (e *Embedder) Dimension() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dimension
}

// Embed returns the sentence embedding of text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	out, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch embeds all texts in one pipeline run.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result, err := e.pipeline.RunPipeline(texts)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("got %d embeddings for %d inputs", len(result.Embeddings), len(texts))
	}
	out := make([][]float64, len(result.Embeddings))
	for i, emb := range result.Embeddings {
		out[i] = toFloat64(emb)
	}
	if len(out) > 0 {
		e.mu.Lock()
		e.dimension = len(out[0])
		e.mu.Unlock()
	}
	return out, nil
}

// Close releases the ONNX session.
func (e *Embedder) Close() error {
	return e.session.Destroy()
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
