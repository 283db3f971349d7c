// Package ai - gemini.go
// Google Gemini adapter implementing the LLMProvider interface.
// Flash models are the cost-effective default for short narration.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// GeminiProvider implements LLMProvider for the Gemini API.
type GeminiProvider struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	usageStats UsageStats
	budgetGate *BudgetGate
}

// Gemini API structures
type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"system_instruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  *geminiGenCfg   `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenCfg struct {
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	Temperature     float64 `json:"temperature,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
	ModelVersion string `json:"modelVersion"`
}

// NewGeminiProvider creates a new Gemini adapter.
func NewGeminiProvider(budgetGate *BudgetGate) *GeminiProvider {
	apiKey := os.Getenv("GEMINI_API_KEY")

	return &GeminiProvider{
		apiKey:     apiKey,
		baseURL:    "https://generativelanguage.googleapis.com/v1beta/models",
		model:      "gemini-2.0-flash", // Cheap and fast for short lines
		httpClient: &http.Client{Timeout: 60 * time.Second},
		budgetGate: budgetGate,
	}
}

// Name returns the provider name.
func (p *GeminiProvider) Name() string {
	return "Google Gemini"
}

// IsAvailable checks if the API key is configured.
func (p *GeminiProvider) IsAvailable() bool {
	return p.apiKey != ""
}

// Complete sends a completion request to Gemini.
func (p *GeminiProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if !p.IsAvailable() {
		return nil, fmt.Errorf("Gemini API key not configured")
	}

	estimatedCost := p.estimateCost(req)
	if !p.budgetGate.CanSpend(estimatedCost) {
		return nil, fmt.Errorf("budget limit exceeded: %s", p.budgetGate.GetStatus())
	}

	// Gemini separates the system instruction from the turn contents
	// and names the assistant role "model".
	var system *geminiContent
	var contents []geminiContent

	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			system = &geminiContent{Parts: []geminiPart{{Text: m.Content}}}
		case "assistant":
			contents = append(contents, geminiContent{Role: "model", Parts: []geminiPart{{Text: m.Content}}})
		default:
			contents = append(contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: m.Content}}})
		}
	}

	model := p.model
	if req.Model != "" {
		model = req.Model
	}

	gemReq := geminiRequest{
		SystemInstruction: system,
		Contents:          contents,
	}
	if req.MaxTokens > 0 || req.Temperature > 0 {
		gemReq.GenerationConfig = &geminiGenCfg{
			MaxOutputTokens: req.MaxTokens,
			Temperature:     req.Temperature,
		}
	}

	body, err := json.Marshal(gemReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	start := time.Now()

	url := fmt.Sprintf("%s/%s:generateContent", p.baseURL, model)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	latency := time.Since(start)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Gemini error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var gemResp geminiResponse
	if err := json.Unmarshal(respBody, &gemResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(gemResp.Candidates) == 0 || len(gemResp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no response content returned")
	}

	totalTokens := gemResp.UsageMetadata.TotalTokenCount
	actualCost := p.calculateCost(totalTokens, model)
	p.budgetGate.RecordSpend(actualCost)
	p.usageStats.TotalRequests++
	p.usageStats.TotalTokens += totalTokens
	p.usageStats.TotalCostUSD += actualCost

	return &CompletionResponse{
		Content:      gemResp.Candidates[0].Content.Parts[0].Text,
		Model:        gemResp.ModelVersion,
		PromptTokens: gemResp.UsageMetadata.PromptTokenCount,
		OutputTokens: gemResp.UsageMetadata.CandidatesTokenCount,
		TotalTokens:  totalTokens,
		Latency:      latency,
		FinishReason: gemResp.Candidates[0].FinishReason,
	}, nil
}

// estimateCost estimates cost before making a request.
func (p *GeminiProvider) estimateCost(req CompletionRequest) float64 {
	estimatedTokens := 2000 + req.MaxTokens
	return p.calculateCost(estimatedTokens, p.model)
}

// calculateCost computes actual cost based on tokens.
func (p *GeminiProvider) calculateCost(tokens int, model string) float64 {
	// Flash: ~$0.10/1M input, ~$0.40/1M output. Averaged per 1K tokens.
	switch model {
	case "gemini-2.0-flash":
		return float64(tokens) * 0.00000025
	case "gemini-1.5-pro":
		return float64(tokens) * 0.000005
	default:
		return float64(tokens) * 0.000001
	}
}

// GetUsageStats returns current usage statistics.
func (p *GeminiProvider) GetUsageStats() UsageStats {
	p.usageStats.BudgetRemaining = p.budgetGate.MonthlyLimitUSD - p.budgetGate.CurrentMonthSpend
	return p.usageStats
}

// ResetUsage resets all usage counters.
func (p *GeminiProvider) ResetUsage() {
	p.usageStats = UsageStats{LastReset: time.Now()}
}

// Ensure GeminiProvider implements LLMProvider
var _ LLMProvider = (*GeminiProvider)(nil)
