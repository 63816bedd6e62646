package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/yongseopkim/workrecap/internal/adapter/driven/llm"
	"github.com/yongseopkim/workrecap/internal/config"
	"github.com/yongseopkim/workrecap/internal/domain/model"
	"github.com/yongseopkim/workrecap/internal/domain/port/driven"
)

// LLMRouter resolves a task to a provider/model per the configured
// strategy, lazily constructs and memoizes provider instances, runs the
// adaptive escalation protocol when applicable, and forwards all token
// usage to the Usage Tracker.
type LLMRouter struct {
	cfg     *config.ProviderConfig
	usage   *UsageTracker
	timeout time.Duration

	mu        sync.Mutex
	providers map[string]driven.LLMProvider
}

// NewLLMRouter builds a router over cfg, recording all usage into usage.
func NewLLMRouter(cfg *config.ProviderConfig, usage *UsageTracker, httpTimeout time.Duration) *LLMRouter {
	return &LLMRouter{
		cfg:       cfg,
		usage:     usage,
		timeout:   httpTimeout,
		providers: map[string]driven.LLMProvider{},
	}
}

// RegisterProvider pins provider under name, bypassing providerFor's
// built-in adapter switch. Used to wire a provider that has no place in
// that switch (a custom OpenAI-compatible instance already configured
// upstream, or a test double).
func (r *LLMRouter) RegisterProvider(name string, provider driven.LLMProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = provider
}

// providerFor lazily constructs and memoizes the adapter for providerName,
// double-checking under lock so concurrent callers share one instance.
func (r *LLMRouter) providerFor(providerName string) (driven.LLMProvider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.providers[providerName]; ok {
		return p, nil
	}

	entry, ok := r.cfg.Providers[providerName]
	if !ok {
		return nil, fmt.Errorf("no provider configured for %q", providerName)
	}

	var p driven.LLMProvider
	switch providerName {
	case "openai":
		p = llm.NewOpenAIProvider(entry.APIKey, entry.BaseURL, r.timeout)
	case "anthropic":
		p = llm.NewAnthropicProvider(entry.APIKey, entry.BaseURL)
	case "gemini":
		p = llm.NewGeminiProvider(entry.APIKey, entry.BaseURL, r.timeout)
	case "custom":
		p = llm.NewCustomProvider(entry.APIKey, entry.BaseURL, r.timeout)
	default:
		return nil, fmt.Errorf("unknown provider type %q", providerName)
	}

	r.providers[providerName] = p
	return p, nil
}

// resolve implements the strategy table.
func (r *LLMRouter) resolve(task config.TaskEntry, mode config.StrategyMode) (modelName string, useEscalation bool) {
	switch mode {
	case config.StrategyEconomy:
		return task.Model, false
	case config.StrategyStandard:
		return task.Model, task.EscalationModel != ""
	case config.StrategyPremium:
		if task.EscalationModel != "" {
			return task.EscalationModel, false
		}
		return task.Model, false
	case config.StrategyAdaptive:
		return task.Model, task.EscalationModel != ""
	case config.StrategyFixed:
		return task.Model, false
	default:
		return task.Model, false
	}
}

// Chat resolves task's provider/model from the configured strategy, runs
// the call (with adaptive escalation when applicable), and records token
// usage. task falls back to "default" when unrecognized.
func (r *LLMRouter) Chat(ctx context.Context, task string, system, user string, opts driven.ChatOptions) (string, model.TokenUsage, error) {
	taskEntry, err := r.cfg.TaskFor(task)
	if err != nil {
		return "", model.TokenUsage{}, err
	}

	baseModel, useEscalation := r.resolve(taskEntry, r.cfg.Strategy.Mode)

	provider, err := r.providerFor(taskEntry.Provider)
	if err != nil {
		return "", model.TokenUsage{}, err
	}

	if r.cfg.Strategy.Mode == config.StrategyAdaptive && useEscalation && taskEntry.EscalationModel != "" {
		return r.chatWithEscalation(ctx, provider, taskEntry, baseModel, system, user, opts)
	}

	text, usage, err := provider.Chat(ctx, baseModel, system, user, opts)
	if err != nil {
		return "", model.TokenUsage{}, fmt.Errorf("router chat task=%s: %w", task, err)
	}
	r.usage.Record(provider.Name(), baseModel, usage)
	return text, usage, nil
}

// SubmitBatch delegates to the task's provider if it implements
// driven.BatchCapable, otherwise returns a typed error.
func (r *LLMRouter) SubmitBatch(ctx context.Context, task string, requests []model.BatchRequest) (string, error) {
	taskEntry, err := r.cfg.TaskFor(task)
	if err != nil {
		return "", err
	}
	provider, err := r.providerFor(taskEntry.Provider)
	if err != nil {
		return "", err
	}
	batchProvider, ok := provider.(driven.BatchCapable)
	if !ok {
		return "", &model.BatchUnsupportedError{Provider: provider.Name()}
	}
	return batchProvider.SubmitBatch(ctx, taskEntry.Model, requests)
}

func (r *LLMRouter) GetBatchStatus(ctx context.Context, task, batchID string) (model.BatchStatus, error) {
	provider, err := r.batchProviderFor(task)
	if err != nil {
		return "", err
	}
	return provider.GetBatchStatus(ctx, batchID)
}

func (r *LLMRouter) GetBatchResults(ctx context.Context, task, batchID string) ([]model.BatchResult, error) {
	provider, err := r.batchProviderFor(task)
	if err != nil {
		return nil, err
	}
	return provider.GetBatchResults(ctx, batchID)
}

func (r *LLMRouter) batchProviderFor(task string) (driven.BatchCapable, error) {
	taskEntry, err := r.cfg.TaskFor(task)
	if err != nil {
		return nil, err
	}
	provider, err := r.providerFor(taskEntry.Provider)
	if err != nil {
		return nil, err
	}
	batchProvider, ok := provider.(driven.BatchCapable)
	if !ok {
		return nil, &model.BatchUnsupportedError{Provider: provider.Name()}
	}
	return batchProvider, nil
}
