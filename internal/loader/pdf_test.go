package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/domain"
	"docqa/internal/testutil"
)

func TestPDFLoader_LoadPages(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WritePDF(t, dir, "three.pdf", []string{
		"Page one talks about apples.",
		"Page two explains the treaty of Westphalia.\nIt was signed in 1648.",
		"Page three is about (parenthesized) oranges.",
	})

	doc, err := NewPDFLoader().Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, doc.Pages, 3)

	assert.Equal(t, DocumentID(path), doc.ID)
	assert.Equal(t, path, doc.Path)
	assert.Contains(t, doc.Pages[0].Text, "apples")
	assert.Contains(t, doc.Pages[1].Text, "treaty of Westphalia")
	assert.Contains(t, doc.Pages[1].Text, "1648")
	assert.Contains(t, doc.Pages[2].Text, "(parenthesized)")

	meta := doc.Pages[1].Metadata
	assert.Equal(t, 2, doc.Pages[1].Number)
	assert.Equal(t, 2, meta["page"])
	assert.Equal(t, 3, meta["total_pages"])
	assert.Equal(t, path, meta["source"])
	assert.False(t, domain.IsScalar(meta["fonts"]), "font list is complex metadata")
}

func TestPDFLoader_MissingFile(t *testing.T) {
	_, err := NewPDFLoader().Load(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"))
	require.Error(t, err)

	var loadErr *domain.LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestPDFLoader_NotAPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.pdf")
	require.NoError(t, os.WriteFile(path, []byte("just some text, not a pdf"), 0o644))

	_, err := NewPDFLoader().Load(context.Background(), path)
	var loadErr *domain.LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, path, loadErr.Path)
}

func TestPDFLoader_NoText(t *testing.T) {
	path := testutil.WritePDF(t, t.TempDir(), "blank.pdf", []string{""})

	_, err := NewPDFLoader().Load(context.Background(), path)
	var loadErr *domain.LoadError
	require.True(t, errors.As(err, &loadErr))
}

func TestDocumentID_Stable(t *testing.T) {
	assert.Equal(t, DocumentID("a.pdf"), DocumentID("a.pdf"))
	assert.NotEqual(t, DocumentID("a.pdf"), DocumentID("b.pdf"))
	assert.Len(t, DocumentID("a.pdf"), 16)
}
