package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	ModelProvider string
	TextModel     string // empty means the provider default
	ImageModel    string
	GeminiBaseURL string
	OpenAIBaseURL string

	RedisURL      string // empty uses in-process events
	SessionTTL    time.Duration
	TextTimeout   time.Duration
	ImageTimeout  time.Duration
	ContextWindow int
}

// Load reads configuration from the environment, after loading an optional
// .env file from the working directory. Variables already set win over .env.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		LogLevel:      parseLogLevel(getEnv("LOG_LEVEL", "info")),
		ModelProvider: strings.ToLower(getEnv("MODEL_PROVIDER", ProviderGemini)),
		TextModel:     os.Getenv("TEXT_MODEL"),
		ImageModel:    os.Getenv("IMAGE_MODEL"),
		GeminiBaseURL: os.Getenv("GEMINI_BASE_URL"),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
	}

	var err error
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.TextTimeout, err = getDuration("TEXT_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.ImageTimeout, err = getDuration("IMAGE_TIMEOUT", 120*time.Second); err != nil {
		return nil, err
	}
	if cfg.ContextWindow, err = getInt("CONTEXT_WINDOW", 1000); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	switch c.ModelProvider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("invalid MODEL_PROVIDER %q: supported providers are %s and %s", c.ModelProvider, ProviderGemini, ProviderOpenAI)
	}
	if c.SessionTTL <= 0 || c.TextTimeout <= 0 || c.ImageTimeout <= 0 {
		return fmt.Errorf("SESSION_TTL, TEXT_TIMEOUT and IMAGE_TIMEOUT must be positive")
	}
	if c.ContextWindow <= 0 {
		return fmt.Errorf("CONTEXT_WINDOW must be positive, got %d", c.ContextWindow)
	}
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return d, nil
}

func getInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}
