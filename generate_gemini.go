package moviebot

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// GeminiGenerator produces text via the Gemini generateContent API.
// Implements Generator.
type GeminiGenerator struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// GeminiOption configures a GeminiGenerator.
type GeminiOption func(*GeminiGenerator)

// WithGeminiModel sets the model (default: gemini-2.5-flash-lite).
func WithGeminiModel(model string) GeminiOption {
	return func(g *GeminiGenerator) { g.model = model }
}

// WithGeminiBaseURL overrides the API root.
func WithGeminiBaseURL(u string) GeminiOption {
	return func(g *GeminiGenerator) { g.baseURL = strings.TrimRight(u, "/") }
}

// WithGeminiTimeout sets the HTTP client timeout (default: 30s).
func WithGeminiTimeout(d time.Duration) GeminiOption {
	return func(g *GeminiGenerator) { g.client.Timeout = d }
}

// NewGeminiGenerator creates a generator backed by Gemini.
func NewGeminiGenerator(apiKey string, opts ...GeminiOption) *GeminiGenerator {
	g := &GeminiGenerator{
		apiKey:  apiKey,
		model:   "gemini-2.5-flash-lite",
		baseURL: "https://generativelanguage.googleapis.com",
		client:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string, maxOutputTokens int) (string, error) {
	if g.apiKey == "" {
		return "", &GenerationError{Kind: FailureAuthentication, Err: errNoAPIKey}
	}

	endpoint := g.baseURL + "/v1beta/models/" + g.model + ":generateContent?key=" + url.QueryEscape(g.apiKey)

	reqBody := map[string]any{
		"contents": []map[string]any{
			{"role": "user", "parts": []map[string]any{{"text": prompt}}},
		},
		"generationConfig": map[string]any{
			"maxOutputTokens": maxOutputTokens,
			"temperature":     0.7,
		},
	}

	var resp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := postJSON(ctx, g.client, endpoint, nil, reqBody, &resp); err != nil {
		return "", err
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", &GenerationError{Kind: FailureUnavailable, Err: errEmptyResponse}
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", &GenerationError{Kind: FailureUnavailable, Err: errEmptyResponse}
	}
	return text, nil
}
