package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	DefaultBaseURL = "http://localhost:11434/v1"
	DefaultModel   = "deepseek-coder:latest"
	openAIHost     = "api.openai.com"
	placeholderKey = "ollama"
)

// Config configures the chat completion client.
type Config struct {
	BaseURL      string
	APIKeyEnv    string
	Model        string
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
	Timeout      time.Duration
	MaxRetries   int
}

// ChatClient implements the Generator interface on an OpenAI-compatible
// chat completions endpoint (OpenAI, Ollama, vLLM, ...).
type ChatClient struct {
	api          sdk.Client
	model        string
	systemPrompt string
	temperature  float64
	maxTokens    int
}

// NewChatClient builds a client. A key is only mandatory for api.openai.com.
func NewChatClient(cfg Config) (*ChatClient, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	key := ""
	if cfg.APIKeyEnv != "" {
		key = os.Getenv(cfg.APIKeyEnv)
	}
	if key == "" {
		if strings.Contains(cfg.BaseURL, openAIHost) {
			return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
		}
		key = placeholderKey
	}
	opts := []option.RequestOption{
		option.WithBaseURL(cfg.BaseURL),
		option.WithAPIKey(key),
		option.WithRequestTimeout(cfg.Timeout),
	}
	if cfg.MaxRetries >= 0 {
		opts = append(opts, option.WithMaxRetries(cfg.MaxRetries))
	}
	return &ChatClient{
		api:          sdk.NewClient(opts...),
		model:        cfg.Model,
		systemPrompt: cfg.SystemPrompt,
		temperature:  cfg.Temperature,
		maxTokens:    cfg.MaxTokens,
	}, nil
}

// Model returns the configured model identifier.
func (c *ChatClient) Model() string { return c.model }

// Generate sends prompt as a single user message and returns the reply text.
func (c *ChatClient) Generate(ctx context.Context, prompt string) (string, error) {
	var messages []sdk.ChatCompletionMessageParamUnion
	if c.systemPrompt != "" {
		messages = append(messages, sdk.SystemMessage(c.systemPrompt))
	}
	messages = append(messages, sdk.UserMessage(prompt))

	params := sdk.ChatCompletionNewParams{
		Model:    sdk.ChatModel(c.model),
		Messages: messages,
	}
	if c.temperature > 0 {
		params.Temperature = sdk.Float(c.temperature)
	}
	if c.maxTokens > 0 {
		params.MaxTokens = sdk.Int(int64(c.maxTokens))
	}

	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
