package moviebot

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// OllamaGenerator produces text via a local Ollama server.
// Implements Generator. No API key required.
type OllamaGenerator struct {
	host   string
	model  string
	client *http.Client
}

// OllamaOption configures an OllamaGenerator.
type OllamaOption func(*OllamaGenerator)

// WithOllamaHost sets the Ollama server URL (default: http://localhost:11434).
func WithOllamaHost(host string) OllamaOption {
	return func(g *OllamaGenerator) { g.host = strings.TrimRight(host, "/") }
}

// WithOllamaTimeout sets the HTTP client timeout (default: 60s).
func WithOllamaTimeout(d time.Duration) OllamaOption {
	return func(g *OllamaGenerator) { g.client.Timeout = d }
}

// NewOllamaGenerator creates a generator for a local Ollama instance.
// The model must be already pulled (e.g., "llama3.2").
func NewOllamaGenerator(model string, opts ...OllamaOption) *OllamaGenerator {
	g := &OllamaGenerator{
		host:   "http://localhost:11434",
		model:  model,
		client: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *OllamaGenerator) Generate(ctx context.Context, prompt string, maxOutputTokens int) (string, error) {
	reqBody := ollamaGenerateRequest{
		Model:  g.model,
		Prompt: prompt,
		Stream: false,
	}
	if maxOutputTokens > 0 {
		reqBody.Options = &ollamaOptions{NumPredict: maxOutputTokens}
	}

	var resp ollamaGenerateResponse
	if err := postJSON(ctx, g.client, g.host+"/api/generate", nil, reqBody, &resp); err != nil {
		return "", err
	}

	text := strings.TrimSpace(resp.Response)
	if text == "" {
		return "", &GenerationError{Kind: FailureUnavailable, Err: errEmptyResponse}
	}
	return text, nil
}

// --- Ollama generate API types ---

type ollamaGenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options *ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	NumPredict int `json:"num_predict"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}
