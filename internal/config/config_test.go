package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// allConfigKeys lists every WORKRECAP_ env var that Load() reads.
var allConfigKeys = []string{
	"WORKRECAP_GITHUB_TOKEN",
	"WORKRECAP_GITHUB_USERNAME",
	"WORKRECAP_GITHUB_BASE_URL",
	"WORKRECAP_PROVIDER_CONFIG",
	"WORKRECAP_SCHEDULE_CONFIG",
	"WORKRECAP_DATA_DIR",
	"WORKRECAP_DB_PATH",
	"WORKRECAP_LISTEN_ADDR",
	"WORKRECAP_MAX_WORKERS",
	"WORKRECAP_MAX_RETRIES",
	"WORKRECAP_THROTTLE_WAIT",
	"WORKRECAP_HTTP_TIMEOUT",
	"WORKRECAP_TELEGRAM_TOKEN",
	"WORKRECAP_TELEGRAM_CHAT_ID",
}

// isolateConfigEnv saves and unsets all WORKRECAP_ env vars so tests don't
// inherit values from the host environment.
func isolateConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range allConfigKeys {
		if orig, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, orig) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
		os.Unsetenv(key)
	}
}

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("WORKRECAP_GITHUB_USERNAME", "testuser")
	t.Setenv("WORKRECAP_PROVIDER_CONFIG", "/etc/workrecap/providers.toml")
}

func TestLoad_Success(t *testing.T) {
	isolateConfigEnv(t)
	setRequired(t)
	t.Setenv("WORKRECAP_GITHUB_TOKEN", "ghp_test123")
	t.Setenv("WORKRECAP_DATA_DIR", "/tmp/data")
	t.Setenv("WORKRECAP_LISTEN_ADDR", "0.0.0.0:9090")
	t.Setenv("WORKRECAP_DB_PATH", "/tmp/test.db")
	t.Setenv("WORKRECAP_MAX_WORKERS", "8")
	t.Setenv("WORKRECAP_MAX_RETRIES", "5")
	t.Setenv("WORKRECAP_THROTTLE_WAIT", "3s")
	t.Setenv("WORKRECAP_HTTP_TIMEOUT", "45s")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "ghp_test123", cfg.GitHubToken)
	assert.Equal(t, "testuser", cfg.GitHubUsername)
	assert.Equal(t, "/tmp/data", cfg.DataDir)
	assert.Equal(t, "0.0.0.0:9090", cfg.ListenAddr)
	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.Equal(t, 8, cfg.MaxWorkers)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 3*time.Second, cfg.ThrottleWait)
	assert.Equal(t, 45*time.Second, cfg.HTTPTimeout)
}

func TestLoad_Defaults(t *testing.T) {
	isolateConfigEnv(t)
	setRequired(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, "workrecap.db", cfg.DBPath)
	assert.Equal(t, "127.0.0.1:8088", cfg.ListenAddr)
	assert.Equal(t, 4, cfg.MaxWorkers)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.ThrottleWait)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "", cfg.ScheduleConfig)
}

// TestLoad_MissingToken verifies that a missing GITHUB_TOKEN does not cause
// an error — it only logs a warning and sets an empty token.
func TestLoad_MissingToken(t *testing.T) {
	isolateConfigEnv(t)
	setRequired(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Equal(t, "", cfg.GitHubToken)
}

func TestLoad_MissingUsername(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("WORKRECAP_PROVIDER_CONFIG", "/etc/workrecap/providers.toml")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WORKRECAP_GITHUB_USERNAME")
}

func TestLoad_MissingProviderConfig(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("WORKRECAP_GITHUB_USERNAME", "testuser")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WORKRECAP_PROVIDER_CONFIG")
}

func TestLoad_EmptyToken(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("WORKRECAP_GITHUB_TOKEN", "")
	setRequired(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Equal(t, "", cfg.GitHubToken)
}

func TestLoad_InvalidMaxWorkers(t *testing.T) {
	isolateConfigEnv(t)
	setRequired(t)
	t.Setenv("WORKRECAP_MAX_WORKERS", "not-a-number")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WORKRECAP_MAX_WORKERS")
}

func TestLoad_InvalidThrottleWait(t *testing.T) {
	isolateConfigEnv(t)
	setRequired(t)
	t.Setenv("WORKRECAP_THROTTLE_WAIT", "not-a-duration")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WORKRECAP_THROTTLE_WAIT")
}

func TestLoad_ScheduleConfigOptional(t *testing.T) {
	isolateConfigEnv(t)
	setRequired(t)
	t.Setenv("WORKRECAP_SCHEDULE_CONFIG", "/etc/workrecap/schedule.toml")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "/etc/workrecap/schedule.toml", cfg.ScheduleConfig)
}

func TestLoad_TelegramOptional(t *testing.T) {
	isolateConfigEnv(t)
	setRequired(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "", cfg.TelegramToken)
	assert.Equal(t, "", cfg.TelegramChatID)
}

func TestLoad_TelegramConfigured(t *testing.T) {
	isolateConfigEnv(t)
	setRequired(t)
	t.Setenv("WORKRECAP_TELEGRAM_TOKEN", "bot-token")
	t.Setenv("WORKRECAP_TELEGRAM_CHAT_ID", "12345")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "bot-token", cfg.TelegramToken)
	assert.Equal(t, "12345", cfg.TelegramChatID)
}
