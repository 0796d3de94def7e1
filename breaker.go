package moviebot

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/goblincore/moviebot/internal/logging"
	"github.com/goblincore/moviebot/internal/metrics"
)

// BreakerSettings tunes the circuit breakers around external services.
type BreakerSettings struct {
	MinRequests  uint32        // requests in a window before the ratio is considered (default 5)
	FailureRatio float64       // trip threshold (default 0.6)
	Interval     time.Duration // closed-state count reset (default 1m)
	OpenTimeout  time.Duration // open to half-open delay (default 30s)
}

func (s *BreakerSettings) applyDefaults() {
	if s.MinRequests == 0 {
		s.MinRequests = 5
	}
	if s.FailureRatio == 0 {
		s.FailureRatio = 0.6
	}
	if s.Interval == 0 {
		s.Interval = time.Minute
	}
	if s.OpenTimeout == 0 {
		s.OpenTimeout = 30 * time.Second
	}
}

func newBreaker[T any](name string, s BreakerSettings) *gobreaker.CircuitBreaker[T] {
	s.applyDefaults()
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    s.Interval,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= s.FailureRatio
		},
		// A caller giving up is not the service's fault.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

func rejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// BreakerGenerator wraps a Generator with a circuit breaker. Rejected calls
// fail fast as FailureUnavailable.
type BreakerGenerator struct {
	next Generator
	cb   *gobreaker.CircuitBreaker[string]
}

// NewBreakerGenerator wraps next. name labels logs and metrics.
func NewBreakerGenerator(name string, next Generator, s BreakerSettings) *BreakerGenerator {
	return &BreakerGenerator{next: next, cb: newBreaker[string](name, s)}
}

func (b *BreakerGenerator) Generate(ctx context.Context, prompt string, maxOutputTokens int) (string, error) {
	text, err := b.cb.Execute(func() (string, error) {
		return b.next.Generate(ctx, prompt, maxOutputTokens)
	})
	if err != nil && rejected(err) {
		return "", &GenerationError{Kind: FailureUnavailable, Err: err}
	}
	return text, err
}

// State reports the breaker state.
func (b *BreakerGenerator) State() gobreaker.State { return b.cb.State() }

// BreakerSource wraps a ContentSource with a circuit breaker.
type BreakerSource struct {
	next ContentSource
	cb   *gobreaker.CircuitBreaker[[]string]
}

// NewBreakerSource wraps next. name labels logs and metrics.
func NewBreakerSource(name string, next ContentSource, s BreakerSettings) *BreakerSource {
	return &BreakerSource{next: next, cb: newBreaker[[]string](name, s)}
}

func (b *BreakerSource) FetchTitles(ctx context.Context, genre string) ([]string, error) {
	return b.cb.Execute(func() ([]string, error) {
		return b.next.FetchTitles(ctx, genre)
	})
}

// State reports the breaker state.
func (b *BreakerSource) State() gobreaker.State { return b.cb.State() }
