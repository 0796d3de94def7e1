package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goblincore/moviebot"
)

func newTestServer(cfg Config) *Server {
	d := moviebot.NewDispatcher(&moviebot.Actions{Store: moviebot.NewMemoryStore()})
	return New(d, cfg)
}

func post(t *testing.T, s *Server, body string) (*httptest.ResponseRecorder, webhookResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var resp webhookResponse
	if rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode %q: %v", rec.Body.String(), err)
		}
	}
	return rec, resp
}

func TestWebhookConfirmGenre(t *testing.T) {
	s := newTestServer(Config{})
	rec, resp := post(t, s, `{
		"next_action": "action_confirm_movie_genre",
		"sender_id": "u1",
		"tracker": {
			"sender_id": "u1",
			"slots": {"movie_genre": "comedy"},
			"latest_message": {"text": "I like comedy", "intent": {"name": "inform_genre"}}
		}
	}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if len(resp.Responses) != 1 || resp.Responses[0].Text != "Your preferred movie genre is comedy." {
		t.Errorf("responses = %+v", resp.Responses)
	}
	if len(resp.Events) != 0 {
		t.Errorf("events = %+v", resp.Events)
	}
}

func TestWebhookRestartEvent(t *testing.T) {
	s := newTestServer(Config{})
	rec, resp := post(t, s, `{"next_action": "action_restart", "sender_id": "u1", "tracker": {}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(resp.Events) != 1 || resp.Events[0]["event"] != "restart" {
		t.Errorf("events = %+v", resp.Events)
	}
}

func TestWebhookSlotEventClearsWithNull(t *testing.T) {
	s := newTestServer(Config{})
	rec, _ := post(t, s, `{
		"next_action": "action_set_new_user_profile_info",
		"sender_id": "u1",
		"tracker": {"slots": {"updating_field": "email", "email": "a@example.com"}}
	}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"name":"updating_field","value":null`) {
		t.Errorf("body = %s", rec.Body)
	}
}

func TestWebhookUnknownAction(t *testing.T) {
	s := newTestServer(Config{})
	rec, _ := post(t, s, `{"next_action": "action_nope", "tracker": {}}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	var e errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &e); err != nil {
		t.Fatal(err)
	}
	if e.ActionName != "action_nope" {
		t.Errorf("action_name = %q", e.ActionName)
	}
}

func TestWebhookBadRequests(t *testing.T) {
	s := newTestServer(Config{})
	for _, body := range []string{`{not json`, `{"tracker": {}}`} {
		rec, _ := post(t, s, body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d", body, rec.Code)
		}
	}
}

func TestWebhookRateLimit(t *testing.T) {
	s := newTestServer(Config{RateLimitReqs: 2, RateLimitWindow: time.Minute})
	body := `{"next_action": "action_restart", "tracker": {}}`
	for i := 0; i < 2; i++ {
		if rec, _ := post(t, s, body); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, rec.Code)
		}
	}
	if rec, _ := post(t, s, body); rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}
}

func TestCorrelationIDEchoed(t *testing.T) {
	s := newTestServer(Config{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(CorrelationIDHeader, "abc12345")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get(CorrelationIDHeader); got != "abc12345" {
		t.Errorf("correlation id = %q", got)
	}

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if got := rec.Header().Get(CorrelationIDHeader); len(got) != 8 {
		t.Errorf("generated correlation id = %q", got)
	}
}

func TestHealthActionsAndMetrics(t *testing.T) {
	s := newTestServer(Config{})
	post(t, s, `{"next_action": "action_restart", "tracker": {}}`)

	for path, want := range map[string]string{
		"/health":  `"status":"ok"`,
		"/actions": `{"name":"action_restart"}`,
		"/metrics": "moviebot_action_invocations_total",
	} {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d", path, rec.Code)
			continue
		}
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("%s: body missing %q", path, want)
		}
	}
}
