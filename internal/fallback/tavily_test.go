package fallback

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTavily_Answer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer key-123", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "who won?", body["query"])

		_, _ = w.Write([]byte(`{"answer":"the home team"}`))
	}))
	defer srv.Close()

	c := NewTavily(TavilyConfig{URL: srv.URL, APIKey: "key-123"}, nil)
	assert.Equal(t, "the home team", c.Search(context.Background(), "who won?"))
}

func TestTavily_MissingAnswer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	c := NewTavily(TavilyConfig{URL: srv.URL}, nil)
	assert.Equal(t, NoAnswerMessage, c.Search(context.Background(), "q"))
}

func TestTavily_SoftFailures(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
		"unauthorized": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		},
		"malformed body": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()

			c := NewTavily(TavilyConfig{URL: srv.URL}, nil)
			assert.Equal(t, ErrorMessage, c.Search(context.Background(), "q"))
		})
	}
}

func TestTavily_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewTavily(TavilyConfig{URL: url}, nil)
	assert.Equal(t, ErrorMessage, c.Search(context.Background(), "q"))
}
