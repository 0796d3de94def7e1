// Package app assembles a moviebot.Bot from configuration.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/goblincore/moviebot"
	"github.com/goblincore/moviebot/cache"
	"github.com/goblincore/moviebot/internal/config"
	"github.com/goblincore/moviebot/internal/logging"
	"github.com/goblincore/moviebot/supabase"
)

// InitLogging applies the logging section of cfg.
func InitLogging(cfg *config.Config) {
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
}

// NewBot builds the profile store, candidate cache, content source and
// generator selected by cfg and hands them to moviebot.Init.
func NewBot(cfg *config.Config) (*moviebot.Bot, error) {
	store, err := newStore(cfg.Store)
	if err != nil {
		return nil, err
	}

	cc, err := cache.New(cache.Type(cfg.Cache.Driver),
		cache.WithRedisURL(cfg.Cache.RedisURL),
		cache.WithKeyPrefix(cfg.Cache.KeyPrefix))
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("candidate cache: %w", err)
	}
	if err := pingCache(cc); err != nil {
		cc.Close()
		store.Close()
		return nil, fmt.Errorf("candidate cache: %w", err)
	}

	breaker := moviebot.BreakerSettings{
		MinRequests:  cfg.Breaker.MinRequests,
		FailureRatio: cfg.Breaker.FailureRatio,
		Interval:     cfg.Breaker.Interval,
		OpenTimeout:  cfg.Breaker.OpenTimeout,
	}

	source := moviebot.NewBreakerSource("imdb", moviebot.NewIMDbSource(
		moviebot.WithIMDbBaseURL(cfg.Content.BaseURL),
		moviebot.WithIMDbUserAgent(cfg.Content.UserAgent),
		moviebot.WithIMDbTimeout(cfg.Content.Timeout),
		moviebot.WithIMDbRateLimit(cfg.Content.RateEvery, cfg.Content.RateBurst),
	), breaker)

	gen := moviebot.NewBreakerGenerator(cfg.Generation.Provider, newGenerator(cfg.Generation), breaker)

	return moviebot.Init(moviebot.Config{
		DBPath:            cfg.Store.Path,
		MaxOutputTokens:   cfg.Generation.MaxOutputTokens,
		StoreTimeout:      cfg.Store.Timeout,
		ContentTimeout:    cfg.Content.Timeout,
		GenerationTimeout: cfg.Generation.Timeout,
		CandidateTTL:      cfg.Cache.TTL,
		WarmGenres:        cfg.Cache.WarmGenres,
		WarmInterval:      cfg.Cache.WarmInterval,
		ProfileStore:      store,
		ContentSource:     source,
		Generator:         gen,
		Cache:             cc,
	})
}

const cachePingTimeout = 5 * time.Second

// pingCache checks that a networked cache is reachable before serving.
func pingCache(cc cache.Store) error {
	p, ok := cc.(interface{ Ping(context.Context) error })
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), cachePingTimeout)
	defer cancel()
	return p.Ping(ctx)
}

func newStore(cfg config.StoreConfig) (moviebot.ProfileStore, error) {
	switch cfg.Driver {
	case "supabase":
		return supabase.New(supabase.Config{URL: cfg.SupabaseURL, APIKey: cfg.SupabaseKey, Table: cfg.SupabaseTable})
	case "memory":
		return moviebot.NewMemoryStore(), nil
	default:
		return moviebot.NewSQLiteStore(cfg.Path)
	}
}

func newGenerator(cfg config.GenerationConfig) moviebot.Generator {
	switch cfg.Provider {
	case "gemini":
		return moviebot.NewGeminiGenerator(cfg.GeminiAPIKey,
			moviebot.WithGeminiModel(cfg.GeminiModel),
			moviebot.WithGeminiTimeout(cfg.Timeout))
	case "ollama":
		return moviebot.NewOllamaGenerator(cfg.OllamaModel,
			moviebot.WithOllamaHost(cfg.OllamaHost),
			moviebot.WithOllamaTimeout(cfg.Timeout))
	default:
		opts := []moviebot.OpenAIOption{
			moviebot.WithOpenAIModel(cfg.OpenAIModel),
			moviebot.WithOpenAITimeout(cfg.Timeout),
		}
		if cfg.OpenAIBaseURL != "" {
			opts = append(opts, moviebot.WithOpenAIBaseURL(cfg.OpenAIBaseURL))
		}
		if cfg.OpenAIAPIKey == "" {
			logging.Warn().Msg("OPENAI_API_KEY is not set; generated recommendations will fail")
		}
		return moviebot.NewOpenAIGenerator(cfg.OpenAIAPIKey, opts...)
	}
}
