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

var _ driven.LLMProvider = (*GeminiProvider)(nil)

// GeminiProvider talks to the Gemini generateContent REST API.
type GeminiProvider struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewGeminiProvider builds an adapter for the given API key. baseURL
// defaults to the public Generative Language API root.
func NewGeminiProvider(apiKey, baseURL string, timeout time.Duration) *GeminiProvider {
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	return &GeminiProvider{apiKey: apiKey, baseURL: baseURL, http: &http.Client{Timeout: timeout}}
}

func (p *GeminiProvider) Name() string { return "gemini" }

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerateRequest struct {
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	Contents          []geminiContent        `json:"contents"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiGenerationConfig struct {
	ResponseMIMEType string `json:"responseMimeType,omitempty"`
	MaxOutputTokens  int    `json:"maxOutputTokens,omitempty"`
}

type geminiGenerateResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

// Chat implements driven.LLMProvider. JSON mode sets
// generationConfig.responseMimeType="application/json".
func (p *GeminiProvider) Chat(ctx context.Context, modelName string, system, user string, opts driven.ChatOptions) (string, model.TokenUsage, error) {
	reqBody := geminiGenerateRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: system}}},
		Contents:          []geminiContent{{Role: "user", Parts: []geminiPart{{Text: user}}}},
	}
	if opts.JSONMode || opts.MaxTokens > 0 {
		cfg := &geminiGenerationConfig{MaxOutputTokens: opts.MaxTokens}
		if opts.JSONMode {
			cfg.ResponseMIMEType = "application/json"
		}
		reqBody.GenerationConfig = cfg
	}

	path := fmt.Sprintf("/models/%s:generateContent?key=%s", modelName, p.apiKey)
	resp, err := p.post(ctx, path, reqBody)
	if err != nil {
		return "", model.TokenUsage{}, err
	}
	defer resp.Body.Close()

	var out geminiGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", model.TokenUsage{}, fmt.Errorf("decode gemini response: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", model.TokenUsage{}, fmt.Errorf("gemini response had no candidates")
	}

	usage := model.TokenUsage{
		PromptTokens:     out.UsageMetadata.PromptTokenCount,
		CompletionTokens: out.UsageMetadata.CandidatesTokenCount,
		TotalTokens:      out.UsageMetadata.TotalTokenCount,
		CallCount:        1,
	}
	return out.Candidates[0].Content.Parts[0].Text, usage, nil
}

func (p *GeminiProvider) ListModels(ctx context.Context) ([]model.ModelInfo, error) {
	path := fmt.Sprintf("/models?key=%s", p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("gemini request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var out struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode gemini models response: %w", err)
	}
	models := make([]model.ModelInfo, 0, len(out.Models))
	for _, m := range out.Models {
		models = append(models, model.ModelInfo{ID: m.Name, Provider: p.Name()})
	}
	return models, nil
}

func (p *GeminiProvider) post(ctx context.Context, path string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini request: %w", err)
	}
	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("gemini request failed with status %d: %s", resp.StatusCode, string(respBody))
	}
	return resp, nil
}
