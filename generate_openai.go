package moviebot

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// OpenAIGenerator produces text via the OpenAI chat completions API.
// Implements Generator.
type OpenAIGenerator struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// OpenAIOption configures an OpenAIGenerator.
type OpenAIOption func(*OpenAIGenerator)

// WithOpenAIModel sets the chat model (default: gpt-4o-mini).
func WithOpenAIModel(model string) OpenAIOption {
	return func(g *OpenAIGenerator) { g.model = model }
}

// WithOpenAIBaseURL sets the API base URL (default: https://api.openai.com).
// Useful for Azure OpenAI, proxies, or compatible APIs.
func WithOpenAIBaseURL(url string) OpenAIOption {
	return func(g *OpenAIGenerator) { g.baseURL = strings.TrimRight(url, "/") }
}

// WithOpenAITimeout sets the HTTP client timeout (default: 30s).
func WithOpenAITimeout(d time.Duration) OpenAIOption {
	return func(g *OpenAIGenerator) { g.client.Timeout = d }
}

// NewOpenAIGenerator creates a generator for OpenAI chat models.
func NewOpenAIGenerator(apiKey string, opts ...OpenAIOption) *OpenAIGenerator {
	g := &OpenAIGenerator{
		apiKey:  apiKey,
		model:   "gpt-4o-mini",
		baseURL: "https://api.openai.com",
		client:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate sends prompt as a single user message.
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string, maxOutputTokens int) (string, error) {
	if g.apiKey == "" {
		return "", &GenerationError{Kind: FailureAuthentication, Err: errNoAPIKey}
	}

	reqBody := openAIChatRequest{
		Model:     g.model,
		Messages:  []openAIChatMessage{{Role: "user", Content: prompt}},
		MaxTokens: maxOutputTokens,
	}

	var resp openAIChatResponse
	headers := map[string]string{"Authorization": "Bearer " + g.apiKey}
	if err := postJSON(ctx, g.client, g.baseURL+"/v1/chat/completions", headers, reqBody, &resp); err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", &GenerationError{Kind: FailureUnavailable, Err: errEmptyResponse}
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", &GenerationError{Kind: FailureUnavailable, Err: errEmptyResponse}
	}
	return text, nil
}

// --- OpenAI chat API types ---

type openAIChatRequest struct {
	Model     string              `json:"model"`
	Messages  []openAIChatMessage `json:"messages"`
	MaxTokens int                 `json:"max_tokens,omitempty"`
}

type openAIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message openAIChatMessage `json:"message"`
	} `json:"choices"`
}
