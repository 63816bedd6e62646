package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/yongseopkim/workrecap/internal/domain/model"
	"github.com/yongseopkim/workrecap/internal/domain/port/driven"
)

var _ driven.LLMProvider = (*CustomProvider)(nil)

// CustomProvider targets an OpenAI-compatible base_url for self-hosted
// models. It reuses the OpenAI wire format but tolerates a missing "usage"
// object, which many self-hosted inference servers omit.
type CustomProvider struct {
	inner *OpenAIProvider
}

// NewCustomProvider builds an adapter against baseURL, which must already
// point at the server's OpenAI-compatible API root.
func NewCustomProvider(apiKey, baseURL string, timeout time.Duration) *CustomProvider {
	return &CustomProvider{inner: NewOpenAIProvider(apiKey, baseURL, timeout)}
}

func (p *CustomProvider) Name() string { return "custom" }

func (p *CustomProvider) Chat(ctx context.Context, modelName string, system, user string, opts driven.ChatOptions) (string, model.TokenUsage, error) {
	reqBody := openAIChatRequest{
		Model: modelName,
		Messages: []openAIChatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens: opts.MaxTokens,
	}
	if opts.JSONMode {
		reqBody.ResponseFormat = &openAIRespFormat{Type: "json_object"}
	}

	resp, err := p.inner.post(ctx, "/chat/completions", reqBody)
	if err != nil {
		return "", model.TokenUsage{}, err
	}
	defer resp.Body.Close()

	var out struct {
		Choices []struct {
			Message openAIChatMessage `json:"message"`
		} `json:"choices"`
		Usage *struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			TotalTokens      int `json:"total_tokens"`
		} `json:"usage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", model.TokenUsage{}, fmt.Errorf("decode custom provider response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", model.TokenUsage{}, fmt.Errorf("custom provider response had no choices")
	}

	usage := model.TokenUsage{CallCount: 1}
	if out.Usage != nil {
		usage.PromptTokens = out.Usage.PromptTokens
		usage.CompletionTokens = out.Usage.CompletionTokens
		usage.TotalTokens = out.Usage.TotalTokens
	}
	return out.Choices[0].Message.Content, usage, nil
}

func (p *CustomProvider) ListModels(ctx context.Context) ([]model.ModelInfo, error) {
	models, err := p.inner.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	for i := range models {
		models[i].Provider = p.Name()
	}
	return models, nil
}
