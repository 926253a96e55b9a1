package sentence

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareModel_UsesCachedDirectory(t *testing.T) {
	dir := t.TempDir()
	cached := filepath.Join(dir, "sentence-transformers_all-MiniLM-L6-v2")
	require.NoError(t, os.MkdirAll(cached, 0o755))

	path, err := prepareModel(DefaultModel, dir)
	require.NoError(t, err)
	assert.Equal(t, cached, path)
}

func TestToFloat64(t *testing.T) {
	assert.Equal(t, []float64{0.5, -1, 0}, toFloat64([]float32{0.5, -1, 0}))
	assert.Empty(t, toFloat64(nil))
}
