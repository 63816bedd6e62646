package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// StrategyMode is the router's provider/model selection strategy.
type StrategyMode string

const (
	StrategyEconomy  StrategyMode = "economy"
	StrategyStandard StrategyMode = "standard"
	StrategyPremium  StrategyMode = "premium"
	StrategyAdaptive StrategyMode = "adaptive"
	StrategyFixed    StrategyMode = "fixed"
)

func (m StrategyMode) valid() bool {
	switch m {
	case StrategyEconomy, StrategyStandard, StrategyPremium, StrategyAdaptive, StrategyFixed:
		return true
	default:
		return false
	}
}

// ProviderEntry is one [providers.NAME] block.
type ProviderEntry struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
}

// TaskEntry is one [tasks.TASK] block.
type TaskEntry struct {
	Provider        string `toml:"provider"`
	Model           string `toml:"model"`
	EscalationModel string `toml:"escalation_model"`
	MaxTokens       int    `toml:"max_tokens"`
}

// ProviderConfig is the parsed shape of the LLM provider TOML file.
type ProviderConfig struct {
	Strategy struct {
		Mode StrategyMode `toml:"mode"`
	} `toml:"strategy"`
	Providers map[string]ProviderEntry `toml:"providers"`
	Tasks     map[string]TaskEntry     `toml:"tasks"`
}

// knownTasks are the task names the router enumerates; any other task name
// falls back to "default".
var knownTasks = map[string]bool{
	"enrich": true, "daily": true, "weekly": true, "monthly": true,
	"yearly": true, "query": true, "default": true,
}

// LoadProviderConfig reads and validates the provider TOML file at path.
func LoadProviderConfig(path string) (*ProviderConfig, error) {
	var cfg ProviderConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("parse provider config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks strategy mode validity, that every task's provider exists,
// and that non-"custom" providers carry a non-empty api_key.
func (c *ProviderConfig) Validate() error {
	if !c.Strategy.Mode.valid() {
		return fmt.Errorf("invalid strategy mode %q", c.Strategy.Mode)
	}
	for name, p := range c.Providers {
		if name != "custom" && p.APIKey == "" {
			return fmt.Errorf("provider %q is missing api_key", name)
		}
	}
	for task, t := range c.Tasks {
		if _, ok := c.Providers[t.Provider]; !ok {
			return fmt.Errorf("task %q references unknown provider %q", task, t.Provider)
		}
	}
	if _, ok := c.Tasks["default"]; !ok {
		return fmt.Errorf("provider config must define a [tasks.default] fallback")
	}
	return nil
}

// TaskFor resolves task t, falling back to "default" when t is unrecognized
// or has no specific entry.
func (c *ProviderConfig) TaskFor(t string) (TaskEntry, error) {
	if entry, ok := c.Tasks[t]; ok {
		return entry, nil
	}
	if entry, ok := c.Tasks["default"]; ok {
		return entry, nil
	}
	return TaskEntry{}, fmt.Errorf("no config for task %q and no [tasks.default] fallback", t)
}
