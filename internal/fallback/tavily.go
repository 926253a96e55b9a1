package fallback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	DefaultTavilyURL = "https://api.tavily.com/v1/query"

	// NoAnswerMessage is returned when the API succeeds without an answer.
	NoAnswerMessage = "No answer found in Tavily."
	// ErrorMessage is returned instead of an error when the API call fails.
	ErrorMessage = "Tavily API error. Please try again later."
)

// TavilyConfig configures the Tavily search client.
type TavilyConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration // 0 keeps the http.Client default
}

// Tavily implements FallbackSearcher against a Tavily-style search API.
// Failures are folded into the returned text so a search outage never
// aborts a query.
type Tavily struct {
	url    string
	apiKey string
	client *http.Client
	log    *slog.Logger
}

func NewTavily(cfg TavilyConfig, logger *slog.Logger) *Tavily {
	if cfg.URL == "" {
		cfg.URL = DefaultTavilyURL
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Tavily{
		url:    cfg.URL,
		apiKey: cfg.APIKey,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    logger,
	}
}

type queryRequest struct {
	Query string `json:"query"`
}

type queryResponse struct {
	Answer *string `json:"answer"`
}

// Search posts the question and returns the answer field, NoAnswerMessage
// or ErrorMessage.
func (t *Tavily) Search(ctx context.Context, question string) string {
	answer, err := t.search(ctx, question)
	if err != nil {
		t.log.Warn("Fallback search failed", slog.String("error", err.Error()))
		return ErrorMessage
	}
	return answer
}

func (t *Tavily) search(ctx context.Context, question string) (string, error) {
	data, err := json.Marshal(queryRequest{Query: question})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

	resp, err := t.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("tavily POST %s failed: %s", t.url, resp.Status)
	}

	var out queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode tavily response: %w", err)
	}
	if out.Answer == nil {
		return NoAnswerMessage, nil
	}
	return *out.Answer, nil
}
