// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	GitHubToken    string
	GitHubUsername string
	GitHubBaseURL  string // empty means api.github.com
	DataDir        string
	ProviderConfig string // path to the LLM provider TOML file
	ScheduleConfig string // path to the scheduler TOML file
	DBPath         string
	ListenAddr     string
	MaxWorkers     int
	MaxRetries     int
	ThrottleWait   time.Duration
	HTTPTimeout    time.Duration
	TelegramToken  string // empty means scheduler notifications fall back to logging
	TelegramChatID string
}

// Load reads configuration from environment variables and returns a validated Config.
// Required variables: WORKRECAP_GITHUB_USERNAME, WORKRECAP_PROVIDER_CONFIG.
// Optional variables: WORKRECAP_GITHUB_TOKEN (warns when absent; fetch disabled until set),
// WORKRECAP_GITHUB_BASE_URL (defaults to api.github.com), WORKRECAP_SCHEDULE_CONFIG
// (scheduler disabled without it).
// Optional variables with defaults: WORKRECAP_DATA_DIR (./data), WORKRECAP_DB_PATH
// (workrecap.db), WORKRECAP_LISTEN_ADDR (127.0.0.1:8088), WORKRECAP_MAX_WORKERS (4),
// WORKRECAP_MAX_RETRIES (3), WORKRECAP_THROTTLE_WAIT (2s), WORKRECAP_HTTP_TIMEOUT (30s).
func Load() (*Config, error) {
	var cfg Config

	token, tokenSet := os.LookupEnv("WORKRECAP_GITHUB_TOKEN")
	if !tokenSet || token == "" {
		slog.Warn("WORKRECAP_GITHUB_TOKEN not set — fetch disabled until credentials configured")
		cfg.GitHubToken = ""
	} else {
		cfg.GitHubToken = token
	}

	username, ok := os.LookupEnv("WORKRECAP_GITHUB_USERNAME")
	if !ok || username == "" {
		return nil, fmt.Errorf("WORKRECAP_GITHUB_USERNAME is required but not set")
	}
	cfg.GitHubUsername = username

	cfg.GitHubBaseURL = os.Getenv("WORKRECAP_GITHUB_BASE_URL")

	providerConfig, ok := os.LookupEnv("WORKRECAP_PROVIDER_CONFIG")
	if !ok || providerConfig == "" {
		return nil, fmt.Errorf("WORKRECAP_PROVIDER_CONFIG is required but not set")
	}
	cfg.ProviderConfig = providerConfig

	// WORKRECAP_SCHEDULE_CONFIG is optional — the scheduler runs in disabled mode
	// without it, still answering status/history/trigger calls.
	if v, ok := os.LookupEnv("WORKRECAP_SCHEDULE_CONFIG"); ok && v != "" {
		cfg.ScheduleConfig = v
	} else {
		slog.Warn("WORKRECAP_SCHEDULE_CONFIG not set — scheduler running in disabled mode")
	}

	cfg.DataDir = "./data"
	if v, ok := os.LookupEnv("WORKRECAP_DATA_DIR"); ok && v != "" {
		cfg.DataDir = v
	}

	cfg.DBPath = "workrecap.db"
	if v, ok := os.LookupEnv("WORKRECAP_DB_PATH"); ok && v != "" {
		cfg.DBPath = v
	}

	cfg.ListenAddr = "127.0.0.1:8088"
	if v, ok := os.LookupEnv("WORKRECAP_LISTEN_ADDR"); ok && v != "" {
		cfg.ListenAddr = v
	}

	cfg.MaxWorkers = 4
	if v, ok := os.LookupEnv("WORKRECAP_MAX_WORKERS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("WORKRECAP_MAX_WORKERS must be a positive integer, got %q", v)
		}
		cfg.MaxWorkers = n
	}

	cfg.MaxRetries = 3
	if v, ok := os.LookupEnv("WORKRECAP_MAX_RETRIES"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("WORKRECAP_MAX_RETRIES must be a non-negative integer, got %q", v)
		}
		cfg.MaxRetries = n
	}

	cfg.ThrottleWait = 2 * time.Second
	if v, ok := os.LookupEnv("WORKRECAP_THROTTLE_WAIT"); ok && v != "" {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("WORKRECAP_THROTTLE_WAIT has invalid duration %q: %w", v, err)
		}
		cfg.ThrottleWait = parsed
	}

	cfg.HTTPTimeout = 30 * time.Second
	if v, ok := os.LookupEnv("WORKRECAP_HTTP_TIMEOUT"); ok && v != "" {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("WORKRECAP_HTTP_TIMEOUT has invalid duration %q: %w", v, err)
		}
		cfg.HTTPTimeout = parsed
	}

	cfg.TelegramToken = os.Getenv("WORKRECAP_TELEGRAM_TOKEN")
	cfg.TelegramChatID = os.Getenv("WORKRECAP_TELEGRAM_CHAT_ID")
	if cfg.TelegramToken == "" || cfg.TelegramChatID == "" {
		slog.Warn("WORKRECAP_TELEGRAM_TOKEN/WORKRECAP_TELEGRAM_CHAT_ID not set — scheduler notifications fall back to logging")
	}

	return &cfg, nil
}
