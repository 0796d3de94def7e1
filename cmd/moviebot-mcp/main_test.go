package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/goblincore/moviebot"
)

type testBot struct {
	*moviebot.Dispatcher
	store moviebot.ProfileStore
}

func (b testBot) Store() moviebot.ProfileStore { return b.store }

func newTestBot() testBot {
	store := moviebot.NewMemoryStore()
	return testBot{Dispatcher: moviebot.NewDispatcher(&moviebot.Actions{Store: store}), store: store}
}

func decodeText(t *testing.T, res *mcp.CallToolResult) map[string]any {
	t.Helper()
	text := res.Content[0].(*mcp.TextContent).Text
	var out map[string]any
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		t.Fatalf("decode %q: %v", text, err)
	}
	return out
}

func TestActionHandlerRunsAction(t *testing.T) {
	h := actionHandler(newTestBot(), moviebot.ActionConfirmGenre)
	res, _, err := h(context.Background(), nil, actionInput{
		SenderID: "u1",
		Slots:    map[string]any{"movie_genre": "horror"},
	})
	if err != nil {
		t.Fatal(err)
	}
	out := decodeText(t, res)
	msgs := out["messages"].([]any)
	if len(msgs) != 1 || msgs[0] != "Your preferred movie genre is horror." {
		t.Errorf("messages = %v", msgs)
	}
	if _, ok := out["outcome"]; ok {
		t.Errorf("unexpected outcome %v", out["outcome"])
	}
}

func TestActionHandlerReportsOutcome(t *testing.T) {
	h := actionHandler(newTestBot(), moviebot.ActionConfirmGenre)
	res, _, _ := h(context.Background(), nil, actionInput{SenderID: "u1"})
	if out := decodeText(t, res); out["outcome"] != "missing_slot" {
		t.Errorf("outcome = %v", out["outcome"])
	}
}

func TestGetProfileHandler(t *testing.T) {
	b := newTestBot()
	h := getProfileHandler(b, time.Second)

	res, _, _ := h(context.Background(), nil, getProfileInput{SenderID: "u1"})
	if out := decodeText(t, res); out["status"] != "not_found" {
		t.Errorf("out = %v", out)
	}

	if _, err := b.store.Upsert(context.Background(), "u1", moviebot.ProfileFields{Name: "ada", Age: 36}); err != nil {
		t.Fatal(err)
	}
	res, _, _ = h(context.Background(), nil, getProfileInput{SenderID: "u1"})
	out := decodeText(t, res)
	if out["name"] != "ada" || out["age"] != float64(36) {
		t.Errorf("out = %v", out)
	}
}

// stallingStore blocks every lookup until the context ends.
type stallingStore struct{ *moviebot.MemoryStore }

func (stallingStore) FindByUserID(ctx context.Context, userID string) (*moviebot.Profile, error) {
	<-ctx.Done()
	return nil, fmt.Errorf("db at 10.0.0.5: %w", ctx.Err())
}

func TestGetProfileHandlerTimeoutIsGeneric(t *testing.T) {
	b := newTestBot()
	b.store = stallingStore{moviebot.NewMemoryStore()}
	h := getProfileHandler(b, 20*time.Millisecond)

	start := time.Now()
	res, _, err := h(context.Background(), nil, getProfileInput{SenderID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("took %v", elapsed)
	}
	text := res.Content[0].(*mcp.TextContent).Text
	if strings.Contains(text, "10.0.0.5") || strings.Contains(text, "deadline") {
		t.Errorf("store detail leaked: %s", text)
	}
	if out := decodeText(t, res); out["status"] != "error" {
		t.Errorf("out = %v", out)
	}
}

func TestResultToMapRestart(t *testing.T) {
	out := resultToMap(moviebot.Result{Events: []moviebot.Event{moviebot.Restart()}})
	events := out["events"].([]map[string]any)
	if len(events) != 1 || events[0]["event"] != "restart" {
		t.Errorf("events = %v", events)
	}
}
