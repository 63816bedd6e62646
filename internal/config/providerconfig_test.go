package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validProviderTOML = `
[strategy]
mode = "adaptive"

[providers.openai]
api_key = "sk-test"

[providers.anthropic]
api_key = "sk-ant-test"

[tasks.default]
provider = "openai"
model = "gpt-4o-mini"

[tasks.enrich]
provider = "openai"
model = "gpt-4o-mini"

[tasks.daily]
provider = "anthropic"
model = "claude-3-5-haiku-latest"
escalation_model = "claude-3-5-sonnet-latest"
`

func writeTempTOML(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "providers.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadProviderConfig_Valid(t *testing.T) {
	path := writeTempTOML(t, validProviderTOML)

	cfg, err := LoadProviderConfig(path)

	require.NoError(t, err)
	assert.Equal(t, StrategyAdaptive, cfg.Strategy.Mode)
	assert.Equal(t, "sk-test", cfg.Providers["openai"].APIKey)

	task, err := cfg.TaskFor("enrich")
	require.NoError(t, err)
	assert.Equal(t, "openai", task.Provider)

	fallback, err := cfg.TaskFor("query")
	require.NoError(t, err)
	assert.Equal(t, "openai", fallback.Provider, "unknown task falls back to default")
}

func TestLoadProviderConfig_InvalidStrategy(t *testing.T) {
	path := writeTempTOML(t, `
[strategy]
mode = "bogus"

[providers.openai]
api_key = "sk-test"

[tasks.default]
provider = "openai"
model = "gpt-4o-mini"
`)

	cfg, err := LoadProviderConfig(path)

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "strategy mode")
}

func TestLoadProviderConfig_MissingAPIKey(t *testing.T) {
	path := writeTempTOML(t, `
[strategy]
mode = "economy"

[providers.openai]
api_key = ""

[tasks.default]
provider = "openai"
model = "gpt-4o-mini"
`)

	cfg, err := LoadProviderConfig(path)

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_key")
}

func TestLoadProviderConfig_CustomProviderAllowsEmptyKey(t *testing.T) {
	path := writeTempTOML(t, `
[strategy]
mode = "fixed"

[providers.custom]
base_url = "http://localhost:8000/v1"

[tasks.default]
provider = "custom"
model = "local-model"
`)

	cfg, err := LoadProviderConfig(path)

	require.NoError(t, err)
	assert.Equal(t, "", cfg.Providers["custom"].APIKey)
}

func TestLoadProviderConfig_UnknownTaskProvider(t *testing.T) {
	path := writeTempTOML(t, `
[strategy]
mode = "economy"

[providers.openai]
api_key = "sk-test"

[tasks.default]
provider = "openai"
model = "gpt-4o-mini"

[tasks.daily]
provider = "ghost"
model = "whatever"
`)

	cfg, err := LoadProviderConfig(path)

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

func TestLoadProviderConfig_MissingDefaultTask(t *testing.T) {
	path := writeTempTOML(t, `
[strategy]
mode = "economy"

[providers.openai]
api_key = "sk-test"

[tasks.daily]
provider = "openai"
model = "gpt-4o-mini"
`)

	cfg, err := LoadProviderConfig(path)

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "default")
}

func TestScheduleConfig_CronSpec(t *testing.T) {
	daily := DailyTrigger{Hour: 23, Minute: 30}
	assert.Equal(t, "30 23 * * *", daily.CronSpec())

	weekly := WeeklyTrigger{Weekday: 1, Hour: 6, Minute: 0}
	assert.Equal(t, "0 6 * * 1", weekly.CronSpec())

	monthly := MonthlyTrigger{DayOfMonth: 1, Hour: 5, Minute: 15}
	assert.Equal(t, "15 5 1 * *", monthly.CronSpec())

	yearly := YearlyTrigger{Month: 1, Day: 2, Hour: 4, Minute: 0}
	assert.Equal(t, "0 4 2 1 *", yearly.CronSpec())
}
