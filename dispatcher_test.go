package moviebot

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/goblincore/moviebot/internal/metrics"
)

func TestDispatcherRegistersAllActions(t *testing.T) {
	d := NewDispatcher(newFixture().actions)
	want := []string{
		ActionAccessProfile, ActionConfirmGenre, ActionCreateProfile, ActionGenerateText,
		ActionMakeRecommendation, ActionPersonalizedRecommendation, ActionPersonalizedGenre,
		ActionRestart, ActionSetNewUserProfileInfo, ActionUnlikelyIntent, ActionIdentifyUser,
	}
	got := map[string]bool{}
	for _, n := range d.Actions() {
		got[n] = true
	}
	if len(got) != len(want) {
		t.Errorf("registered %d actions, want %d", len(got), len(want))
	}
	for _, n := range want {
		if !got[n] {
			t.Errorf("%s not registered", n)
		}
	}
}

func TestDispatchUnknownAction(t *testing.T) {
	d := NewDispatcher(newFixture().actions)
	_, err := d.Dispatch(context.Background(), "action_fly_to_moon", &ConversationState{})
	if !errors.Is(err, ErrUnknownAction) {
		t.Errorf("expected ErrUnknownAction, got %v", err)
	}
}

func TestDispatchRoutesAndCounts(t *testing.T) {
	d := NewDispatcher(newFixture().actions)
	before := testutil.ToFloat64(metrics.ActionInvocations.WithLabelValues(ActionUnlikelyIntent, "ok"))

	st := &ConversationState{LatestMessage: Message{Intent: Intent{Name: "greet"}}}
	res, err := d.Dispatch(context.Background(), ActionUnlikelyIntent, st)
	if err != nil {
		t.Fatal(err)
	}
	if res.Messages[0] != "Hello! How can I assist you today?" {
		t.Errorf("got %v", res.Messages)
	}

	after := testutil.ToFloat64(metrics.ActionInvocations.WithLabelValues(ActionUnlikelyIntent, "ok"))
	if after-before != 1 {
		t.Errorf("invocation counter moved by %v", after-before)
	}
}

func TestDispatchRecoversPanic(t *testing.T) {
	d := NewDispatcher(newFixture().actions)
	d.Register("action_boom", func(ctx context.Context, st *ConversationState) (Result, error) {
		panic("kaboom")
	})

	res, err := d.Dispatch(context.Background(), "action_boom", nil)
	if err == nil {
		t.Fatal("expected error from panicking handler")
	}
	if len(res.Messages) != 1 || res.Messages[0] != msgInternalError {
		t.Errorf("got %+v", res)
	}
	if got := testutil.ToFloat64(metrics.ActionInvocations.WithLabelValues("action_boom", "panic")); got != 1 {
		t.Errorf("panic counter = %v", got)
	}
}

func TestDispatchOutcomeLabels(t *testing.T) {
	d := NewDispatcher(newFixture().actions)
	before := testutil.ToFloat64(metrics.ActionInvocations.WithLabelValues(ActionConfirmGenre, "missing_slot"))
	d.Dispatch(context.Background(), ActionConfirmGenre, &ConversationState{})
	after := testutil.ToFloat64(metrics.ActionInvocations.WithLabelValues(ActionConfirmGenre, "missing_slot"))
	if after-before != 1 {
		t.Errorf("missing_slot counter moved by %v", after-before)
	}
}
