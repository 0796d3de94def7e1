// Package config loads moviebot settings from defaults, an optional YAML
// file and environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the full application configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
	Store      StoreConfig      `koanf:"store"`
	Cache      CacheConfig      `koanf:"cache"`
	Content    ContentConfig    `koanf:"content"`
	Generation GenerationConfig `koanf:"generation"`
	Breaker    BreakerConfig    `koanf:"breaker"`
}

// ServerConfig configures the HTTP action server.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs" validate:"min=0"` // 0 disables
	RateLimitWindow time.Duration `koanf:"rate_limit_window" validate:"gt=0"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn warning error disabled off"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// StoreConfig selects and configures the profile store.
type StoreConfig struct {
	Driver        string        `koanf:"driver" validate:"oneof=sqlite supabase memory"`
	Path          string        `koanf:"path" validate:"required_if=Driver sqlite"`
	Timeout       time.Duration `koanf:"timeout" validate:"gt=0"`
	SupabaseURL   string        `koanf:"supabase_url" validate:"required_if=Driver supabase"`
	SupabaseKey   string        `koanf:"supabase_key" validate:"required_if=Driver supabase"`
	SupabaseTable string        `koanf:"supabase_table"`
}

// CacheConfig configures the candidate cache and its warm worker.
type CacheConfig struct {
	Driver       string        `koanf:"driver" validate:"oneof=memory redis"`
	RedisURL     string        `koanf:"redis_url" validate:"required_if=Driver redis"`
	KeyPrefix    string        `koanf:"key_prefix"`
	TTL          time.Duration `koanf:"ttl" validate:"gt=0"`
	WarmGenres   []string      `koanf:"warm_genres"`
	WarmInterval time.Duration `koanf:"warm_interval" validate:"min=0"` // 0 disables
}

// ContentConfig configures the IMDb scraper.
type ContentConfig struct {
	BaseURL   string        `koanf:"base_url" validate:"required,url"`
	UserAgent string        `koanf:"user_agent" validate:"required"`
	Timeout   time.Duration `koanf:"timeout" validate:"gt=0"`
	RateEvery time.Duration `koanf:"rate_every" validate:"gt=0"`
	RateBurst int           `koanf:"rate_burst" validate:"min=1"`
}

// GenerationConfig selects and configures the language model.
type GenerationConfig struct {
	Provider        string        `koanf:"provider" validate:"oneof=openai gemini ollama"`
	MaxOutputTokens int           `koanf:"max_output_tokens" validate:"min=1,max=4096"`
	Timeout         time.Duration `koanf:"timeout" validate:"gt=0"`
	OpenAIAPIKey    string        `koanf:"openai_api_key"`
	OpenAIModel     string        `koanf:"openai_model"`
	OpenAIBaseURL   string        `koanf:"openai_base_url" validate:"omitempty,url"`
	GeminiAPIKey    string        `koanf:"gemini_api_key"`
	GeminiModel     string        `koanf:"gemini_model"`
	OllamaHost      string        `koanf:"ollama_host" validate:"omitempty,url"`
	OllamaModel     string        `koanf:"ollama_model" validate:"required_if=Provider ollama"`
}

// BreakerConfig tunes the circuit breakers around external services.
type BreakerConfig struct {
	MinRequests  uint32        `koanf:"min_requests" validate:"min=1"`
	FailureRatio float64       `koanf:"failure_ratio" validate:"gt=0,lte=1"`
	Interval     time.Duration `koanf:"interval" validate:"gt=0"`
	OpenTimeout  time.Duration `koanf:"open_timeout" validate:"gt=0"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every field constraint and reports all violations.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q", strings.TrimPrefix(fe.Namespace(), "Config."), fe.Tag()))
	}
	return errors.New(strings.Join(msgs, "; "))
}
