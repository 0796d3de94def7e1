package moviebot

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestOpenAIGeneratorSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("wrong path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("wrong auth header: %s", r.Header.Get("Authorization"))
		}

		var req openAIChatRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "gpt-4o-mini" {
			t.Errorf("expected model gpt-4o-mini, got %s", req.Model)
		}
		if req.MaxTokens != 50 {
			t.Errorf("expected max_tokens 50, got %d", req.MaxTokens)
		}
		if len(req.Messages) != 1 || req.Messages[0].Content != "hello" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}

		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Try Heat.  "}}]}`))
	}))
	defer srv.Close()

	g := NewOpenAIGenerator("test-key", WithOpenAIBaseURL(srv.URL))
	got, err := g.Generate(context.Background(), "hello", 50)
	if err != nil {
		t.Fatal(err)
	}
	if got != "Try Heat." {
		t.Errorf("got %q", got)
	}
}

func TestOpenAIGeneratorEmptyKey(t *testing.T) {
	_, err := NewOpenAIGenerator("").Generate(context.Background(), "x", 10)
	if KindOf(err) != FailureAuthentication {
		t.Errorf("expected authentication failure, got %v", err)
	}
}

func TestGeneratorStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   FailureKind
	}{
		{http.StatusUnauthorized, FailureAuthentication},
		{http.StatusForbidden, FailureAuthentication},
		{http.StatusTooManyRequests, FailureRateLimited},
		{http.StatusGatewayTimeout, FailureTimeout},
		{http.StatusInternalServerError, FailureUnavailable},
		{http.StatusServiceUnavailable, FailureUnavailable},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"nope"}`, tt.status)
		}))

		g := NewOpenAIGenerator("k", WithOpenAIBaseURL(srv.URL))
		_, err := g.Generate(context.Background(), "x", 10)
		srv.Close()

		var ge *GenerationError
		if !errors.As(err, &ge) {
			t.Fatalf("status %d: expected *GenerationError, got %v", tt.status, err)
		}
		if ge.Kind != tt.want || ge.StatusCode != tt.status {
			t.Errorf("status %d: got kind %s code %d", tt.status, ge.Kind, ge.StatusCode)
		}
		if !errors.Is(err, ErrExternalService) {
			t.Errorf("status %d: should match ErrExternalService", tt.status)
		}
	}
}

func TestGeneratorTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	g := NewOpenAIGenerator("k", WithOpenAIBaseURL(srv.URL))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := g.Generate(ctx, "x", 10)
	if KindOf(err) != FailureTimeout {
		t.Errorf("expected timeout, got %v", err)
	}
}

func TestOpenAIGeneratorEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := NewOpenAIGenerator("k", WithOpenAIBaseURL(srv.URL)).Generate(context.Background(), "x", 10)
	if KindOf(err) != FailureUnavailable {
		t.Errorf("expected unavailable, got %v", err)
	}
}

func TestGeminiGeneratorSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models/gemini-test:generateContent") {
			t.Errorf("wrong path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "gk" {
			t.Errorf("missing key")
		}
		var body struct {
			GenerationConfig struct {
				MaxOutputTokens int `json:"maxOutputTokens"`
			} `json:"generationConfig"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		if body.GenerationConfig.MaxOutputTokens != 50 {
			t.Errorf("maxOutputTokens = %d", body.GenerationConfig.MaxOutputTokens)
		}
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Watch "},{"text":"Up."}]}}]}`))
	}))
	defer srv.Close()

	g := NewGeminiGenerator("gk", WithGeminiBaseURL(srv.URL), WithGeminiModel("gemini-test"))
	got, err := g.Generate(context.Background(), "p", 50)
	if err != nil {
		t.Fatal(err)
	}
	if got != "Watch Up." {
		t.Errorf("got %q", got)
	}
}

func TestGeminiGeneratorEmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	_, err := NewGeminiGenerator("gk", WithGeminiBaseURL(srv.URL)).Generate(context.Background(), "p", 50)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestOllamaGeneratorSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("wrong path: %s", r.URL.Path)
		}
		var req ollamaGenerateRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "llama3.2" || req.Stream {
			t.Errorf("unexpected request: %+v", req)
		}
		if req.Options == nil || req.Options.NumPredict != 50 {
			t.Errorf("num_predict not set: %+v", req.Options)
		}
		json.NewEncoder(w).Encode(ollamaGenerateResponse{Response: "Toy Story", Done: true})
	}))
	defer srv.Close()

	g := NewOllamaGenerator("llama3.2", WithOllamaHost(srv.URL))
	got, err := g.Generate(context.Background(), "p", 50)
	if err != nil {
		t.Fatal(err)
	}
	if got != "Toy Story" {
		t.Errorf("got %q", got)
	}
}

func TestOllamaGeneratorServerDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewOllamaGenerator("m", WithOllamaHost(url)).Generate(context.Background(), "p", 10)
	if KindOf(err) != FailureUnavailable {
		t.Errorf("expected unavailable, got %v", err)
	}
}
