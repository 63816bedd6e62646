package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yongseopkim/workrecap/internal/config"
	"github.com/yongseopkim/workrecap/internal/domain/model"
	"github.com/yongseopkim/workrecap/internal/domain/port/driven"
)

// fakeProvider is a scripted driven.LLMProvider used to exercise the
// router's strategy resolution and escalation protocol without touching a
// real provider SDK.
type fakeProvider struct {
	name      string
	responses map[string]string // modelName -> text to return
	calls     []string          // models called, in order
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Chat(ctx context.Context, modelName string, system, user string, opts driven.ChatOptions) (string, model.TokenUsage, error) {
	f.calls = append(f.calls, modelName)
	return f.responses[modelName], model.TokenUsage{TotalTokens: 10, CallCount: 1}, nil
}

func (f *fakeProvider) ListModels(ctx context.Context) ([]model.ModelInfo, error) {
	return nil, nil
}

func newAdaptiveRouter(t *testing.T, base *fakeProvider) *LLMRouter {
	t.Helper()
	cfg := &config.ProviderConfig{
		Providers: map[string]config.ProviderEntry{"fake": {APIKey: "k"}},
		Tasks: map[string]config.TaskEntry{
			"default": {Provider: "fake", Model: "base-model", EscalationModel: "premium-model"},
		},
	}
	cfg.Strategy.Mode = config.StrategyAdaptive

	r := NewLLMRouter(cfg, NewUsageTracker(nil), 0)
	r.providers["fake"] = base
	return r
}

func TestLLMRouter_AdaptiveEscalation_LowConfidenceEscalates(t *testing.T) {
	base := &fakeProvider{
		name: "fake",
		responses: map[string]string{
			"base-model":    `{"needs_escalation":true,"confidence":0.3,"reason":"unsure","response":"draft"}`,
			"premium-model": "final",
		},
	}
	r := newAdaptiveRouter(t, base)

	text, usage, err := r.Chat(context.Background(), "default", "system", "user", driven.ChatOptions{})

	require.NoError(t, err)
	assert.Equal(t, "final", text)
	assert.Equal(t, 2, usage.CallCount)
	assert.Equal(t, []string{"base-model", "premium-model"}, base.calls)
}

func TestLLMRouter_AdaptiveEscalation_HighConfidenceStaysOnBase(t *testing.T) {
	base := &fakeProvider{
		name: "fake",
		responses: map[string]string{
			"base-model": `{"needs_escalation":false,"confidence":0.95,"reason":"confident","response":"draft-final"}`,
		},
	}
	r := newAdaptiveRouter(t, base)

	text, usage, err := r.Chat(context.Background(), "default", "system", "user", driven.ChatOptions{})

	require.NoError(t, err)
	assert.Equal(t, "draft-final", text)
	assert.Equal(t, 1, usage.CallCount)
	assert.Equal(t, []string{"base-model"}, base.calls)
}

func TestLLMRouter_AdaptiveEscalation_MalformedJSONFallsBackToRawText(t *testing.T) {
	base := &fakeProvider{
		name: "fake",
		responses: map[string]string{
			"base-model": "not json at all",
		},
	}
	r := newAdaptiveRouter(t, base)

	text, usage, err := r.Chat(context.Background(), "default", "system", "user", driven.ChatOptions{})

	require.NoError(t, err)
	assert.Equal(t, "not json at all", text)
	assert.Equal(t, 1, usage.CallCount)
}

func TestLLMRouter_Resolve_StrategyTable(t *testing.T) {
	r := &LLMRouter{}
	task := config.TaskEntry{Model: "base", EscalationModel: "premium"}
	taskNoEscalation := config.TaskEntry{Model: "base"}

	m, esc := r.resolve(task, config.StrategyEconomy)
	assert.Equal(t, "base", m)
	assert.False(t, esc)

	m, esc = r.resolve(task, config.StrategyStandard)
	assert.Equal(t, "base", m)
	assert.True(t, esc)

	m, esc = r.resolve(taskNoEscalation, config.StrategyStandard)
	assert.Equal(t, "base", m)
	assert.False(t, esc)

	m, esc = r.resolve(task, config.StrategyPremium)
	assert.Equal(t, "premium", m)
	assert.False(t, esc)

	m, esc = r.resolve(task, config.StrategyFixed)
	assert.Equal(t, "base", m)
	assert.False(t, esc)
}
