package moviebot

import (
	"context"
	"time"
)

// ProfileStore persists user profiles keyed by the conversation sender id.
// Built-in: SQLiteStore, MemoryStore; supabase.Store in a subpackage.
// Find methods return ErrProfileNotFound when nothing matches.
type ProfileStore interface {
	FindByUserID(ctx context.Context, userID string) (*Profile, error)
	// FindByName matches name and lastName jointly, case-insensitively and exactly.
	FindByName(ctx context.Context, name, lastName string) (*Profile, error)
	// Upsert overwrites all five fields of the profile for userID, creating it if needed.
	Upsert(ctx context.Context, userID string, fields ProfileFields) (*Profile, error)
	Close() error
}

// ContentSource returns the raw, unfiltered candidate titles for a genre.
// Built-in: IMDbSource.
type ContentSource interface {
	FetchTitles(ctx context.Context, genre string) ([]string, error)
}

// Generator sends a prompt to a language model and returns the generated text.
// Failures are reported as *GenerationError.
// Built-in: OpenAIGenerator, GeminiGenerator, OllamaGenerator.
type Generator interface {
	Generate(ctx context.Context, prompt string, maxOutputTokens int) (string, error)
}

// CandidateCache keeps raw title lists per genre between conversations.
// Built-in drivers live in the cache package (memory, redis).
type CandidateCache interface {
	Get(ctx context.Context, key string) ([]string, bool, error)
	Set(ctx context.Context, key string, titles []string, ttl time.Duration) error
}
