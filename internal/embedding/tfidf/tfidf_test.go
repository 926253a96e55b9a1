package tfidf

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedder_RequiresPrepare(t *testing.T) {
	_, err := NewEmbedder().Embed(context.Background(), "hello")
	assert.Error(t, err)
}

func TestEmbedder_PrepareErrors(t *testing.T) {
	e := NewEmbedder()
	assert.Error(t, e.Prepare(context.Background(), nil))
	assert.Error(t, e.Prepare(context.Background(), []string{"the and of"}))
}

func TestEmbedder_DeterministicAndNormalized(t *testing.T) {
	ctx := context.Background()
	e := NewEmbedder()
	require.NoError(t, e.Prepare(ctx, []string{
		"Go is great for concurrent services.",
		"Python is popular for data science.",
	}))
	assert.Equal(t, "tfidf", e.Name())
	assert.Greater(t, e.Dimension(), 0)

	v1, err := e.Embed(ctx, "concurrent services in Go")
	require.NoError(t, err)
	v2, err := e.Embed(ctx, "concurrent services in Go")
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
	assert.Len(t, v1, e.Dimension())

	norm := 0.0
	for _, v := range v1 {
		norm += v * v
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-9)
}

func TestEmbedder_UnknownTermsGiveZeroVector(t *testing.T) {
	ctx := context.Background()
	e := NewEmbedder()
	require.NoError(t, e.Prepare(ctx, []string{"apples and oranges"}))

	v, err := e.Embed(ctx, "completely unrelated words")
	require.NoError(t, err)
	for _, x := range v {
		assert.Zero(t, x)
	}
}

func TestEmbedder_PrepareReplacesVocabulary(t *testing.T) {
	ctx := context.Background()
	e := NewEmbedder()
	require.NoError(t, e.Prepare(ctx, []string{"alpha beta"}))
	assert.Equal(t, 2, e.Dimension())

	require.NoError(t, e.Prepare(ctx, []string{"gamma delta epsilon"}))
	assert.Equal(t, 3, e.Dimension())
}
