package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/domain"
)

type call struct {
	Method string
	Path   string
	Body   map[string]any
}

type fakeQdrant struct {
	mu     sync.Mutex
	calls  []call
	exists bool
}

func (f *fakeQdrant) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var body map[string]any
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}
	f.calls = append(f.calls, call{Method: r.Method, Path: r.URL.Path, Body: body})

	switch {
	case r.Method == http.MethodDelete && r.URL.Path == "/collections/docqa":
		if !f.exists {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		f.exists = false
	case r.Method == http.MethodPut && r.URL.Path == "/collections/docqa":
		f.exists = true
	case r.Method == http.MethodPost && r.URL.Path == "/collections/docqa/points/search":
		_, _ = w.Write([]byte(`{"result":[{"score":0.83,"payload":{
			"document_id":"doc","chunk_id":"c1","index":4,"text":"the treaty",
			"metadata":{"source":"a.pdf","page":2}}}]}`))
		return
	}
	_, _ = w.Write([]byte(`{"result":true}`))
}

func TestStorage_InitDropsThenCreates(t *testing.T) {
	fake := &fakeQdrant{exists: true}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	s := NewStorage(Config{URL: srv.URL + "/"})
	require.NoError(t, s.Init(context.Background(), 3))

	require.Len(t, fake.calls, 2)
	assert.Equal(t, http.MethodDelete, fake.calls[0].Method)
	assert.Equal(t, http.MethodPut, fake.calls[1].Method)
	vectors := fake.calls[1].Body["vectors"].(map[string]any)
	assert.EqualValues(t, 3, vectors["size"])
	assert.Equal(t, "Cosine", vectors["distance"])
}

func TestStorage_InitWithoutExistingCollection(t *testing.T) {
	srv := httptest.NewServer(&fakeQdrant{})
	defer srv.Close()

	s := NewStorage(Config{URL: srv.URL})
	assert.NoError(t, s.Init(context.Background(), 3))
}

func TestStorage_UpsertUsesChunkIDs(t *testing.T) {
	fake := &fakeQdrant{exists: true}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	s := NewStorage(Config{URL: srv.URL, APIKey: "secret"})
	chunks := []domain.Chunk{{DocumentID: "doc", ChunkID: "6f1c2c1e-1111-5222-8333-444455556666", Text: "x"}}
	require.NoError(t, s.Upsert(context.Background(), chunks, [][]float64{{1, 2}}))

	require.Len(t, fake.calls, 1)
	points := fake.calls[0].Body["points"].([]any)
	assert.Equal(t, chunks[0].ChunkID, points[0].(map[string]any)["id"])
}

func TestStorage_Search(t *testing.T) {
	srv := httptest.NewServer(&fakeQdrant{exists: true})
	defer srv.Close()

	s := NewStorage(Config{URL: srv.URL})
	res, err := s.Search(context.Background(), []float64{1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.InDelta(t, 0.83, res[0].Score, 1e-9)
	assert.Equal(t, "the treaty", res[0].Chunk.Text)
	assert.Equal(t, 4, res[0].Chunk.Index)
	assert.Equal(t, domain.Metadata{"source": "a.pdf", "page": int64(2)}, res[0].Chunk.Metadata)
}

func TestStorage_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	s := NewStorage(Config{URL: srv.URL})
	_, err := s.Search(context.Background(), []float64{1}, 1)
	assert.ErrorContains(t, err, "502")
	assert.Error(t, s.Clear(context.Background()))
}
