// Package config handles configuration loading, parsing, and validation
// from environment variables and optional config files. It provides type-safe
// access to application settings while keeping configuration details separate
// from business logic.
package config

import "time"

// Config holds all application configuration, organized into logical groups.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm" validate:"required"`
	Worker   WorkerConfig   `mapstructure:"worker" validate:"required"`
	Cache    CacheConfig    `mapstructure:"cache" validate:"required"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	// Dev switches logging to a colorized human-readable format.
	Dev bool `mapstructure:"dev"`
}

// DatabaseConfig contains settings for the queried database.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
	// ChunkSize bounds how many rows a single fetch pulls; large results are
	// read in chunks of this size and concatenated.
	ChunkSize int `mapstructure:"chunk_size" validate:"required,gt=0"`
}

// LLMConfig contains Gemini integration settings. The API key is optional:
// without it, SQL generation, summaries, and AI chart advice are unavailable
// and query submission is rejected.
type LLMConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key"`
	ModelName    string `mapstructure:"model_name" validate:"required"`
	MaxRetries   int    `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	// RetryDelay is the base delay before the first retry; subsequent delays
	// grow exponentially with jitter.
	RetryDelay time.Duration `mapstructure:"retry_delay" validate:"gte=0"`
}

// WorkerConfig contains settings for the background task workers.
type WorkerConfig struct {
	Count           int           `mapstructure:"count" validate:"required,gt=0,lte=64"`
	QueueSize       int           `mapstructure:"queue_size" validate:"required,gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// CacheConfig bounds the in-memory caches.
type CacheConfig struct {
	FigureCapacity         int `mapstructure:"figure_capacity" validate:"required,gt=0"`
	RecommendationCapacity int `mapstructure:"recommendation_capacity" validate:"required,gt=0"`
}

// LLMEnabled reports whether an API key was configured.
func (c *Config) LLMEnabled() bool {
	return c.LLM.GeminiAPIKey != ""
}
