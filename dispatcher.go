package moviebot

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/goblincore/moviebot/internal/logging"
	"github.com/goblincore/moviebot/internal/metrics"
)

// Handler runs one action against the conversation state. The returned
// Result always carries what the user should see; the error reports the
// outcome for logs and metrics.
type Handler func(ctx context.Context, st *ConversationState) (Result, error)

// Dispatcher routes action names to handlers.
type Dispatcher struct {
	handlers map[string]Handler
}

// NewDispatcher registers every built-in action backed by a.
func NewDispatcher(a *Actions) *Dispatcher {
	d := &Dispatcher{handlers: make(map[string]Handler)}
	d.Register(ActionConfirmGenre, a.ConfirmGenre)
	d.Register(ActionMakeRecommendation, a.MakeRecommendation)
	d.Register(ActionCreateProfile, a.CreateProfile)
	d.Register(ActionAccessProfile, a.AccessProfile)
	d.Register(ActionIdentifyUser, a.IdentifyUser)
	d.Register(ActionPersonalizedRecommendation, a.PersonalizedRecommendation)
	d.Register(ActionPersonalizedGenre, a.PersonalizedGenreRecommendation)
	d.Register(ActionGenerateText, a.GenerateText)
	d.Register(ActionUnlikelyIntent, a.UnlikelyIntent)
	d.Register(ActionRestart, a.Restart)
	d.Register(ActionSetNewUserProfileInfo, a.SetNewUserProfileInfo)
	return d
}

// Register adds or replaces the handler for name.
func (d *Dispatcher) Register(name string, h Handler) {
	d.handlers[name] = h
}

// Actions lists the registered action names in sorted order.
func (d *Dispatcher) Actions() []string {
	names := make([]string, 0, len(d.handlers))
	for n := range d.handlers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Dispatch runs the named action. Unknown names return ErrUnknownAction.
// A panicking handler is turned into an apology.
func (d *Dispatcher) Dispatch(ctx context.Context, action string, st *ConversationState) (res Result, err error) {
	h, ok := d.handlers[action]
	if !ok {
		metrics.ActionInvocations.WithLabelValues("unknown", "unknown_action").Inc()
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}
	if st == nil {
		st = &ConversationState{}
	}

	ctx = logging.ContextWithNewCorrelationID(ctx)
	log := logging.Ctx(ctx)
	start := time.Now()

	defer func() {
		outcome := Outcome(err)
		if r := recover(); r != nil {
			log.Error().Str("action", action).Interface("panic", r).Msg("action panicked")
			res = reply(msgInternalError)
			err = fmt.Errorf("action %s panicked: %v", action, r)
			outcome = "panic"
		}
		elapsed := time.Since(start)
		metrics.ActionInvocations.WithLabelValues(action, outcome).Inc()
		metrics.ActionDuration.WithLabelValues(action).Observe(elapsed.Seconds())
		log.Debug().
			Str("action", action).
			Str("sender_id", st.SenderID).
			Str("outcome", outcome).
			Dur("elapsed", elapsed).
			Int("events", len(res.Events)).
			Msg("action dispatched")
	}()

	return h(ctx, st)
}
