package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	LLMProvider     string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	ModelName       string

	StageTimeLimit time.Duration
	ContentRating  string
}

// Load reads configuration from the environment, layering a .env file
// underneath if one exists in the working directory.
func Load() (*Config, error) {
	// A missing .env is fine; real env vars always win.
	_ = godotenv.Load()

	limit, err := parseSeconds(getEnv("STAGE_TIME_LIMIT", "300"))
	if err != nil {
		return nil, fmt.Errorf("invalid STAGE_TIME_LIMIT: %w", err)
	}

	return &Config{
		Port:            getEnv("PORT", "8080"),
		Environment:     getEnv("ENVIRONMENT", "development"),
		LogLevel:        parseLogLevel(getEnv("LOG_LEVEL", "info")),
		LLMProvider:     getEnv("LLM_PROVIDER", "openai"),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		ModelName:       getEnv("MODEL_NAME", ""),
		StageTimeLimit:  limit,
		ContentRating:   getEnv("CONTENT_RATING", "PG13"),
	}, nil
}

func parseSeconds(s string) (time.Duration, error) {
	secs, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if secs <= 0 {
		return 0, fmt.Errorf("must be positive, got %d", secs)
	}
	return time.Duration(secs) * time.Second, nil
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
