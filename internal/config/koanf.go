package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the config file locations searched in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/moviebot/config.yaml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            5055,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimitReqs:   120,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Store: StoreConfig{
			Driver:        "sqlite",
			Path:          "./data/moviebot.db",
			Timeout:       5 * time.Second,
			SupabaseTable: "user_profiles",
		},
		Cache: CacheConfig{
			Driver:    "memory",
			KeyPrefix: "",
			TTL:       6 * time.Hour,
		},
		Content: ContentConfig{
			BaseURL:   "https://www.imdb.com",
			UserAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
			Timeout:   15 * time.Second,
			RateEvery: time.Second,
			RateBurst: 2,
		},
		Generation: GenerationConfig{
			Provider:        "openai",
			MaxOutputTokens: 50,
			Timeout:         30 * time.Second,
			OpenAIModel:     "gpt-4o-mini",
			GeminiModel:     "gemini-2.5-flash-lite",
			OllamaHost:      "http://localhost:11434",
		},
		Breaker: BreakerConfig{
			MinRequests:  5,
			FailureRatio: 0.6,
			Interval:     time.Minute,
			OpenTimeout:  30 * time.Second,
		},
	}
}

// Load layers defaults, the optional config file and the environment, then validates.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := splitSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"cache.warm_genres",
}

// splitSliceFields turns comma-separated env values into slices.
func splitSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		var parts []string
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

var envMappings = map[string]string{
	"http_host":                  "server.host",
	"http_port":                  "server.port",
	"moviebot_rate_limit_reqs":   "server.rate_limit_reqs",
	"moviebot_rate_limit_window": "server.rate_limit_window",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"moviebot_store":         "store.driver",
	"moviebot_db_path":       "store.path",
	"moviebot_store_timeout": "store.timeout",
	"supabase_url":           "store.supabase_url",
	"supabase_key":           "store.supabase_key",
	"supabase_table":         "store.supabase_table",

	"moviebot_cache":         "cache.driver",
	"redis_url":              "cache.redis_url",
	"moviebot_cache_prefix":  "cache.key_prefix",
	"moviebot_cache_ttl":     "cache.ttl",
	"moviebot_warm_genres":   "cache.warm_genres",
	"moviebot_warm_interval": "cache.warm_interval",

	"imdb_base_url":            "content.base_url",
	"imdb_user_agent":          "content.user_agent",
	"moviebot_content_timeout": "content.timeout",

	"moviebot_generator":          "generation.provider",
	"moviebot_max_output_tokens":  "generation.max_output_tokens",
	"moviebot_generation_timeout": "generation.timeout",
	"openai_api_key":              "generation.openai_api_key",
	"openai_model":                "generation.openai_model",
	"openai_base_url":             "generation.openai_base_url",
	"gemini_api_key":              "generation.gemini_api_key",
	"gemini_model":                "generation.gemini_model",
	"ollama_host":                 "generation.ollama_host",
	"ollama_model":                "generation.ollama_model",
}

// envTransformFunc maps known environment variables to config paths and
// drops everything else.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
