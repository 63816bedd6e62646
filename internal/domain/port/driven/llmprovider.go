package driven

import (
	"context"

	"github.com/yongseopkim/workrecap/internal/domain/model"
)

// ChatOptions configures a single chat call. JSONMode requests the
// provider's strict-JSON response mode; CacheSystemPrompt requests
// prompt-caching of the system message where the provider supports it;
// MaxTokens is a soft cap, 0 meaning "provider default".
type ChatOptions struct {
	JSONMode         bool
	CacheSystemPrompt bool
	MaxTokens        int
}

// LLMProvider is the capability interface every language-model adapter
// implements: chat and model listing. Providers that also support
// asynchronous batch submission additionally implement BatchCapable; the
// router type-asserts for it rather than requiring it universally.
type LLMProvider interface {
	// Name identifies the provider for usage-tracking and error messages,
	// e.g. "openai", "anthropic", "gemini", "custom".
	Name() string

	// Chat sends a single system/user exchange and returns the model's text
	// response along with the token usage it consumed.
	Chat(ctx context.Context, modelName string, system, user string, opts ChatOptions) (string, model.TokenUsage, error)

	// ListModels enumerates the models this provider currently exposes.
	ListModels(ctx context.Context) ([]model.ModelInfo, error)
}

// BatchCapable is the optional batch sub-capability. The router refuses
// submit_batch against a provider that does not implement this interface,
// returning a typed model.BatchUnsupportedError.
type BatchCapable interface {
	SubmitBatch(ctx context.Context, modelName string, requests []model.BatchRequest) (string, error)
	GetBatchStatus(ctx context.Context, batchID string) (model.BatchStatus, error)
	GetBatchResults(ctx context.Context, batchID string) ([]model.BatchResult, error)
}
