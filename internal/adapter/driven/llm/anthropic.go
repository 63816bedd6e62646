package llm

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/yongseopkim/workrecap/internal/domain/model"
	"github.com/yongseopkim/workrecap/internal/domain/port/driven"
)

var _ driven.LLMProvider = (*AnthropicProvider)(nil)
var _ driven.BatchCapable = (*AnthropicProvider)(nil)

const defaultAnthropicMaxTokens = 4096

// AnthropicProvider talks to the Anthropic Messages API. It is the one
// adapter that supports prompt caching and batch submission, per
// Anthropic's Messages API.
type AnthropicProvider struct {
	client anthropic.Client
}

// NewAnthropicProvider builds an adapter for the given API key. baseURL
// overrides the SDK's default endpoint when non-empty (used against
// Anthropic-compatible gateways).
func NewAnthropicProvider(apiKey, baseURL string) *AnthropicProvider {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &AnthropicProvider{client: anthropic.NewClient(opts...)}
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

// Chat implements driven.LLMProvider. JSON mode uses an assistant-prefill of
// "[" rather than a response-format flag — the SDK does
// not echo the prefill back, so it is prepended to the returned text.
// CacheSystemPrompt marks the system block with an ephemeral cache_control,
// attributing reused tokens to CacheReadTokens/CacheWriteTokens.
func (p *AnthropicProvider) Chat(ctx context.Context, modelName string, system, user string, opts driven.ChatOptions) (string, model.TokenUsage, error) {
	maxTokens := int64(opts.MaxTokens)
	if maxTokens == 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	systemBlock := anthropic.TextBlockParam{Text: system}
	if opts.CacheSystemPrompt {
		systemBlock.CacheControl = anthropic.NewCacheControlEphemeralParam()
	}

	messages := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
	}
	prefill := ""
	if opts.JSONMode {
		prefill = "["
		messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(prefill)))
	}

	resp, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(modelName),
		MaxTokens: maxTokens,
		System:    []anthropic.TextBlockParam{systemBlock},
		Messages:  messages,
	})
	if err != nil {
		return "", model.TokenUsage{}, fmt.Errorf("anthropic chat: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if variant := block.AsAny(); variant != nil {
			if textBlock, ok := variant.(anthropic.TextBlock); ok {
				text += textBlock.Text
			}
		}
	}

	usage := model.TokenUsage{
		PromptTokens:     int(resp.Usage.InputTokens),
		CompletionTokens: int(resp.Usage.OutputTokens),
		TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		CacheReadTokens:  int(resp.Usage.CacheReadInputTokens),
		CacheWriteTokens: int(resp.Usage.CacheCreationInputTokens),
		CallCount:        1,
	}

	return prefill + text, usage, nil
}

func (p *AnthropicProvider) ListModels(ctx context.Context) ([]model.ModelInfo, error) {
	page, err := p.client.Models.List(ctx, anthropic.ModelListParams{})
	if err != nil {
		return nil, fmt.Errorf("anthropic list models: %w", err)
	}
	out := make([]model.ModelInfo, 0, len(page.Data))
	for _, m := range page.Data {
		out = append(out, model.ModelInfo{ID: m.ID, Provider: p.Name(), Description: m.DisplayName})
	}
	return out, nil
}

// SubmitBatch submits one Messages Batch request per item in requests,
// correlating results by CustomID.
func (p *AnthropicProvider) SubmitBatch(ctx context.Context, modelName string, requests []model.BatchRequest) (string, error) {
	items := make([]anthropic.MessageBatchNewParamsRequest, 0, len(requests))
	for _, r := range requests {
		messages := []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(r.User))}
		if r.JSONMode {
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock("[")))
		}
		items = append(items, anthropic.MessageBatchNewParamsRequest{
			CustomID: r.CustomID,
			Params: anthropic.MessageBatchNewParamsRequestParams{
				Model:     anthropic.Model(modelName),
				MaxTokens: defaultAnthropicMaxTokens,
				System:    []anthropic.TextBlockParam{{Text: r.System}},
				Messages:  messages,
			},
		})
	}

	batch, err := p.client.Messages.Batches.New(ctx, anthropic.MessageBatchNewParams{Requests: items})
	if err != nil {
		return "", fmt.Errorf("anthropic submit batch: %w", err)
	}
	return batch.ID, nil
}

func (p *AnthropicProvider) GetBatchStatus(ctx context.Context, batchID string) (model.BatchStatus, error) {
	batch, err := p.client.Messages.Batches.Get(ctx, batchID)
	if err != nil {
		return "", fmt.Errorf("anthropic get batch status: %w", err)
	}
	switch batch.ProcessingStatus {
	case anthropic.MessageBatchProcessingStatusInProgress:
		return model.BatchProcessing, nil
	case anthropic.MessageBatchProcessingStatusEnded:
		return model.BatchCompleted, nil
	case anthropic.MessageBatchProcessingStatusCanceling:
		return model.BatchFailed, nil
	default:
		return model.BatchSubmitted, nil
	}
}

func (p *AnthropicProvider) GetBatchResults(ctx context.Context, batchID string) ([]model.BatchResult, error) {
	iter := p.client.Messages.Batches.ResultsStreaming(ctx, batchID)
	var out []model.BatchResult
	for iter.Next() {
		entry := iter.Current()
		result := model.BatchResult{CustomID: entry.CustomID}
		switch entry.Result.Type {
		case "succeeded":
			var text string
			for _, block := range entry.Result.Message.Content {
				if variant := block.AsAny(); variant != nil {
					if textBlock, ok := variant.(anthropic.TextBlock); ok {
						text += textBlock.Text
					}
				}
			}
			result.Text = text
			result.Usage = model.TokenUsage{
				PromptTokens:     int(entry.Result.Message.Usage.InputTokens),
				CompletionTokens: int(entry.Result.Message.Usage.OutputTokens),
				TotalTokens:      int(entry.Result.Message.Usage.InputTokens + entry.Result.Message.Usage.OutputTokens),
				CallCount:        1,
			}
		default:
			result.Error = string(entry.Result.Type)
		}
		out = append(out, result)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("anthropic stream batch results: %w", err)
	}
	return out, nil
}
