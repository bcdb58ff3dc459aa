// Package config loads application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrMissingToken is returned when ISSUEPULSE_GITHUB_TOKEN is unset or empty.
var ErrMissingToken = errors.New("ISSUEPULSE_GITHUB_TOKEN is required")

// Config holds the application configuration loaded from environment variables.
type Config struct {
	GitHubToken          string
	ListenAddr           string
	DBPath               string
	HydrationConcurrency int
	PreviousScoreWindow  time.Duration
	OpenAIAPIKey         string
	OpenAIModel          string
	OpenAIBaseURL        string
	LogLevel             slog.Level
}

// LabelSelectionEnabled reports whether an OpenAI key was configured.
func (c *Config) LabelSelectionEnabled() bool {
	return c.OpenAIAPIKey != ""
}

// Load reads configuration from environment variables and returns a validated Config.
// ISSUEPULSE_GITHUB_TOKEN is required. Optional variables with defaults:
// ISSUEPULSE_LISTEN_ADDR (127.0.0.1:8080), ISSUEPULSE_DB_PATH (issuepulse.db),
// ISSUEPULSE_HYDRATION_CONCURRENCY (8), ISSUEPULSE_PREVIOUS_SCORE_WINDOW (168h),
// ISSUEPULSE_OPENAI_MODEL (gpt-4o-mini), ISSUEPULSE_LOG_LEVEL (info).
// ISSUEPULSE_OPENAI_API_KEY and ISSUEPULSE_OPENAI_BASE_URL have no default;
// label selection is disabled without a key.
func Load() (*Config, error) {
	token := strings.TrimSpace(os.Getenv("ISSUEPULSE_GITHUB_TOKEN"))
	if token == "" {
		return nil, ErrMissingToken
	}

	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("ISSUEPULSE_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	dbPath := "issuepulse.db"
	if v, ok := os.LookupEnv("ISSUEPULSE_DB_PATH"); ok {
		dbPath = v
	}

	concurrency := 8
	if v, ok := os.LookupEnv("ISSUEPULSE_HYDRATION_CONCURRENCY"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("ISSUEPULSE_HYDRATION_CONCURRENCY has invalid value %q: %w", v, err)
		}
		if parsed < 1 {
			return nil, fmt.Errorf("ISSUEPULSE_HYDRATION_CONCURRENCY must be at least 1, got %d", parsed)
		}
		concurrency = parsed
	}

	window := 7 * 24 * time.Hour
	if v, ok := os.LookupEnv("ISSUEPULSE_PREVIOUS_SCORE_WINDOW"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("ISSUEPULSE_PREVIOUS_SCORE_WINDOW has invalid duration %q: %w", v, err)
		}
		if parsed <= 0 {
			return nil, fmt.Errorf("ISSUEPULSE_PREVIOUS_SCORE_WINDOW must be positive, got %s", parsed)
		}
		window = parsed
	}

	model := "gpt-4o-mini"
	if v, ok := os.LookupEnv("ISSUEPULSE_OPENAI_MODEL"); ok && v != "" {
		model = v
	}

	level := slog.LevelInfo
	if v, ok := os.LookupEnv("ISSUEPULSE_LOG_LEVEL"); ok && v != "" {
		if err := level.UnmarshalText([]byte(v)); err != nil {
			return nil, fmt.Errorf("ISSUEPULSE_LOG_LEVEL has invalid level %q: %w", v, err)
		}
	}

	return &Config{
		GitHubToken:          token,
		ListenAddr:           listenAddr,
		DBPath:               dbPath,
		HydrationConcurrency: concurrency,
		PreviousScoreWindow:  window,
		OpenAIAPIKey:         os.Getenv("ISSUEPULSE_OPENAI_API_KEY"),
		OpenAIModel:          model,
		OpenAIBaseURL:        os.Getenv("ISSUEPULSE_OPENAI_BASE_URL"),
		LogLevel:             level,
	}, nil
}
