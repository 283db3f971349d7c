// Package ai - openai.go
// OpenAI chat-completions adapter, the fallback voice when Gemini is
// not configured. Same budget gating and usage accounting as gemini.go.
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

// OpenAIProvider implements LLMProvider over the chat completions API.
type OpenAIProvider struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	usageStats UsageStats
	budgetGate *BudgetGate
}

// Chat completions wire format. Unlike Gemini, the system prompt rides
// in the message list and roles map one to one.
type chatPayload struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletion struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// NewOpenAIProvider creates a new OpenAI adapter.
func NewOpenAIProvider(budgetGate *BudgetGate) *OpenAIProvider {
	return &OpenAIProvider{
		apiKey:     os.Getenv("OPENAI_API_KEY"),
		baseURL:    "https://api.openai.com/v1/chat/completions",
		model:      "gpt-4o-mini", // Cheap and fast for short lines
		httpClient: &http.Client{Timeout: 60 * time.Second},
		budgetGate: budgetGate,
	}
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return "OpenAI"
}

// IsAvailable checks if the API key is configured.
func (p *OpenAIProvider) IsAvailable() bool {
	return p.apiKey != ""
}

// Complete sends a completion request to OpenAI.
func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if !p.IsAvailable() {
		return nil, fmt.Errorf("OpenAI API key not configured")
	}

	if !p.budgetGate.CanSpend(p.estimateCost(req)) {
		return nil, fmt.Errorf("budget limit exceeded: %s", p.budgetGate.GetStatus())
	}

	model := p.model
	if req.Model != "" {
		model = req.Model
	}

	start := time.Now()
	raw, err := p.post(ctx, p.buildPayload(model, req))
	if err != nil {
		return nil, err
	}
	latency := time.Since(start)

	var completion chatCompletion
	if err := json.Unmarshal(raw, &completion); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("no response choices returned")
	}

	totalTokens := completion.Usage.TotalTokens
	actualCost := p.calculateCost(totalTokens, model)
	p.budgetGate.RecordSpend(actualCost)
	p.usageStats.TotalRequests++
	p.usageStats.TotalTokens += totalTokens
	p.usageStats.TotalCostUSD += actualCost

	return &CompletionResponse{
		Content:      completion.Choices[0].Message.Content,
		Model:        completion.Model,
		PromptTokens: completion.Usage.PromptTokens,
		OutputTokens: completion.Usage.CompletionTokens,
		TotalTokens:  totalTokens,
		Latency:      latency,
		FinishReason: completion.Choices[0].FinishReason,
	}, nil
}

// buildPayload translates the provider-neutral request into the chat
// completions shape.
func (p *OpenAIProvider) buildPayload(model string, req CompletionRequest) chatPayload {
	messages := make([]chatMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, chatMessage{Role: m.Role, Content: m.Content})
	}
	return chatPayload{
		Model:       model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
}

// post performs the HTTP round trip and returns the raw body of a 200
// response.
func (p *OpenAIProvider) post(ctx context.Context, payload chatPayload) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OpenAI error (status %d): %s", resp.StatusCode, string(raw))
	}
	return raw, nil
}

// estimateCost estimates cost before making a request.
func (p *OpenAIProvider) estimateCost(req CompletionRequest) float64 {
	return p.calculateCost(2000+req.MaxTokens, p.model)
}

// calculateCost computes actual cost based on tokens.
func (p *OpenAIProvider) calculateCost(tokens int, model string) float64 {
	// gpt-4o-mini: ~$0.15/1M input, ~$0.60/1M output. Averaged.
	switch model {
	case "gpt-4o-mini":
		return float64(tokens) * 0.0000004
	case "gpt-4o":
		return float64(tokens) * 0.0000075
	default:
		return float64(tokens) * 0.000001
	}
}

// GetUsageStats returns current usage statistics.
func (p *OpenAIProvider) GetUsageStats() UsageStats {
	p.usageStats.BudgetRemaining = p.budgetGate.MonthlyLimitUSD - p.budgetGate.CurrentMonthSpend
	return p.usageStats
}

// ResetUsage resets all usage counters.
func (p *OpenAIProvider) ResetUsage() {
	p.usageStats = UsageStats{LastReset: time.Now()}
}

var _ LLMProvider = (*OpenAIProvider)(nil)
