// Package moviebot implements the custom actions of a conversational movie
// recommendation assistant: profile bookkeeping, scraped recommendations and
// age-aware generated recommendations.
package moviebot

import (
	"context"
	"errors"
	"time"

	"github.com/goblincore/moviebot/cache"
	"github.com/goblincore/moviebot/internal/logging"
)

// Bot wires the collaborators and exposes the action dispatcher.
type Bot struct {
	store      ProfileStore
	cache      CandidateCache
	fetcher    *Fetcher
	dispatcher *Dispatcher
	config     Config
	cancelWarm context.CancelFunc
	warmDone   chan struct{}
}

// Init builds a Bot from cfg, filling in default collaborators, and starts the
// cache warm worker when configured.
func Init(cfg Config) (*Bot, error) {
	cfg.ApplyDefaults()
	log := logging.WithComponent("moviebot")

	store := cfg.ProfileStore
	if store == nil {
		s, err := NewSQLiteStore(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		store = s
	}

	source := cfg.ContentSource
	if source == nil {
		source = NewBreakerSource("imdb", NewIMDbSource(WithIMDbTimeout(cfg.ContentTimeout)), BreakerSettings{})
	}

	gen := cfg.Generator
	if gen == nil {
		if cfg.OpenAIAPIKey == "" {
			log.Warn().Msg("no generator configured; personalized recommendations will apologize")
		}
		gen = NewBreakerGenerator("openai",
			NewOpenAIGenerator(cfg.OpenAIAPIKey, WithOpenAIModel(cfg.OpenAIModel), WithOpenAITimeout(cfg.GenerationTimeout)),
			BreakerSettings{})
	}

	cc := cfg.Cache
	if cc == nil {
		cc = cache.NewMemory()
	}

	fetcher := NewFetcher(&timeoutSource{next: source, timeout: cfg.ContentTimeout}, cc, cfg.CandidateTTL)
	actions := &Actions{
		Store:             store,
		Fetcher:           fetcher,
		Generator:         gen,
		MaxOutputTokens:   cfg.MaxOutputTokens,
		StoreTimeout:      cfg.StoreTimeout,
		GenerationTimeout: cfg.GenerationTimeout,
	}

	b := &Bot{
		store:      store,
		cache:      cc,
		fetcher:    fetcher,
		dispatcher: NewDispatcher(actions),
		config:     cfg,
	}

	if cfg.WarmInterval > 0 && len(cfg.WarmGenres) > 0 {
		b.startWarmWorker(cfg.WarmInterval, cfg.WarmGenres)
	}

	log.Info().
		Int("actions", len(b.dispatcher.Actions())).
		Int("max_output_tokens", cfg.MaxOutputTokens).
		Dur("warm_interval", cfg.WarmInterval).
		Msg("initialized")
	return b, nil
}

// Dispatch runs the named action against st.
func (b *Bot) Dispatch(ctx context.Context, action string, st *ConversationState) (Result, error) {
	return b.dispatcher.Dispatch(ctx, action, st)
}

// Actions lists the registered action names.
func (b *Bot) Actions() []string {
	return b.dispatcher.Actions()
}

// Store returns the profile store in use.
func (b *Bot) Store() ProfileStore {
	return b.store
}

// Close stops background work and releases the store and cache.
func (b *Bot) Close() error {
	if b.cancelWarm != nil {
		b.cancelWarm()
		<-b.warmDone
	}
	var errs []error
	if c, ok := b.cache.(interface{ Close() error }); ok {
		errs = append(errs, c.Close())
	}
	errs = append(errs, b.store.Close())
	return errors.Join(errs...)
}

// timeoutSource bounds every fetch by a deadline.
type timeoutSource struct {
	next    ContentSource
	timeout time.Duration
}

func (s *timeoutSource) FetchTitles(ctx context.Context, genre string) ([]string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.next.FetchTitles(ctx, genre)
}
