// Package llm provides the provider adapters behind the driven.LLMProvider
// port: OpenAI, Anthropic, Gemini, and a generic OpenAI-compatible "custom"
// adapter for self-hosted models. Every adapter wraps a plain HTTP client
// and maps wire types to domain types, the same shape used for other
// external-API adapters in this codebase.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/yongseopkim/workrecap/internal/domain/model"
	"github.com/yongseopkim/workrecap/internal/domain/port/driven"
)

var _ driven.LLMProvider = (*OpenAIProvider)(nil)

// OpenAIProvider talks to the OpenAI chat-completions REST API.
type OpenAIProvider struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewOpenAIProvider builds an adapter for the given API key. baseURL
// defaults to https://api.openai.com/v1.
func NewOpenAIProvider(apiKey, baseURL string, timeout time.Duration) *OpenAIProvider {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &OpenAIProvider{apiKey: apiKey, baseURL: baseURL, http: &http.Client{Timeout: timeout}}
}

func (p *OpenAIProvider) Name() string { return "openai" }

type openAIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatRequest struct {
	Model          string              `json:"model"`
	Messages       []openAIChatMessage `json:"messages"`
	MaxTokens      int                 `json:"max_tokens,omitempty"`
	ResponseFormat *openAIRespFormat   `json:"response_format,omitempty"`
}

type openAIRespFormat struct {
	Type string `json:"type"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message openAIChatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Chat implements driven.LLMProvider. JSON mode sets
// response_format={"type":"json_object"}.
func (p *OpenAIProvider) Chat(ctx context.Context, modelName string, system, user string, opts driven.ChatOptions) (string, model.TokenUsage, error) {
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

	resp, err := p.post(ctx, "/chat/completions", reqBody)
	if err != nil {
		return "", model.TokenUsage{}, err
	}
	defer resp.Body.Close()

	var out openAIChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", model.TokenUsage{}, fmt.Errorf("decode openai response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", model.TokenUsage{}, fmt.Errorf("openai response had no choices")
	}

	usage := model.TokenUsage{
		PromptTokens:     out.Usage.PromptTokens,
		CompletionTokens: out.Usage.CompletionTokens,
		TotalTokens:      out.Usage.TotalTokens,
		CallCount:        1,
	}
	return out.Choices[0].Message.Content, usage, nil
}

func (p *OpenAIProvider) ListModels(ctx context.Context) ([]model.ModelInfo, error) {
	resp, err := p.get(ctx, "/models")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode openai models response: %w", err)
	}
	models := make([]model.ModelInfo, 0, len(out.Data))
	for _, m := range out.Data {
		models = append(models, model.ModelInfo{ID: m.ID, Provider: p.Name()})
	}
	return models, nil
}

func (p *OpenAIProvider) post(ctx context.Context, path string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	return p.do(req)
}

func (p *OpenAIProvider) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	return p.do(req)
}

func (p *OpenAIProvider) do(req *http.Request) (*http.Response, error) {
	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", p.Name(), err)
	}
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("%s request failed with status %d: %s", p.Name(), resp.StatusCode, string(body))
	}
	return resp, nil
}
