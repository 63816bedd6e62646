// Package application holds the pipeline's services: the LLM router and
// usage tracker, the fetcher/normalizer/summarizer, and the orchestrator
// that sequences them. Each service is a plain constructor-built struct
// taking its dependencies explicitly rather than reaching for globals or
// a DI container.
package application

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/yongseopkim/workrecap/internal/domain/model"
)

// PricingTable maps "provider/model" to per-million-token USD rates. A
// missing entry means cost is not estimated for that model.
type PricingTable map[string]ModelRate

// ModelRate is the per-million-token rate for a single model.
type ModelRate struct {
	PromptPerMillion     float64
	CompletionPerMillion float64
}

// UsageTracker is a lock-guarded aggregate of token usage and estimated
// cost, keyed by "provider/model".
type UsageTracker struct {
	mu      sync.Mutex
	usage   map[string]*model.ModelUsage
	pricing PricingTable
}

// NewUsageTracker builds a tracker. pricing may be nil, in which case cost
// estimation is skipped entirely.
func NewUsageTracker(pricing PricingTable) *UsageTracker {
	return &UsageTracker{usage: map[string]*model.ModelUsage{}, pricing: pricing}
}

func usageKey(provider, modelName string) string {
	return provider + "/" + modelName
}

// Record accumulates usage for provider/modelName, adding estimated cost
// when a pricing entry exists.
func (t *UsageTracker) Record(provider, modelName string, usage model.TokenUsage) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := usageKey(provider, modelName)
	m, ok := t.usage[key]
	if !ok {
		m = &model.ModelUsage{Provider: provider, Model: modelName}
		t.usage[key] = m
	}
	m.PromptTokens += usage.PromptTokens
	m.CompletionTokens += usage.CompletionTokens
	m.TotalTokens += usage.TotalTokens
	m.CacheReadTokens += usage.CacheReadTokens
	m.CacheWriteTokens += usage.CacheWriteTokens
	m.CallCount++

	if t.pricing != nil {
		if rate, ok := t.pricing[key]; ok {
			m.EstimatedCostUSD += float64(usage.PromptTokens) / 1_000_000 * rate.PromptPerMillion
			m.EstimatedCostUSD += float64(usage.CompletionTokens) / 1_000_000 * rate.CompletionPerMillion
		}
	}
}

// Snapshot returns a copy of every tracked model's usage, sorted by key for
// deterministic reporting.
func (t *UsageTracker) Snapshot() []model.ModelUsage {
	t.mu.Lock()
	defer t.mu.Unlock()

	keys := make([]string, 0, len(t.usage))
	for k := range t.usage {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]model.ModelUsage, 0, len(keys))
	for _, k := range keys {
		out = append(out, *t.usage[k])
	}
	return out
}

// FormatReport renders a per-model usage line plus a total line when two or
// more models were used.
func (t *UsageTracker) FormatReport() string {
	snapshot := t.Snapshot()
	if len(snapshot) == 0 {
		return "no LLM usage recorded"
	}

	var b strings.Builder
	var totalTokens, totalCalls int
	var totalCost float64
	for _, m := range snapshot {
		fmt.Fprintf(&b, "%s/%s: %d calls, %d tokens, $%.4f\n", m.Provider, m.Model, m.CallCount, m.TotalTokens, m.EstimatedCostUSD)
		totalTokens += m.TotalTokens
		totalCalls += m.CallCount
		totalCost += m.EstimatedCostUSD
	}
	if len(snapshot) >= 2 {
		fmt.Fprintf(&b, "total: %d calls, %d tokens, $%.4f\n", totalCalls, totalTokens, totalCost)
	}
	return b.String()
}
