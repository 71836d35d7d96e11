package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// OpenAIProvider implements Client against any OpenAI-compatible chat
// completions endpoint.
type OpenAIProvider struct {
	baseURL     string
	model       string
	apiKey      string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
	debug       bool
}

// OpenAIOption configures an OpenAIProvider.
type OpenAIOption func(*OpenAIProvider)

// WithTemperature sets the sampling temperature for all requests.
func WithTemperature(t float64) OpenAIOption {
	return func(p *OpenAIProvider) { p.temperature = t }
}

// WithMaxTokens caps the completion length.
func WithMaxTokens(n int) OpenAIOption {
	return func(p *OpenAIProvider) { p.maxTokens = n }
}

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(d time.Duration) OpenAIOption {
	return func(p *OpenAIProvider) { p.httpClient.Timeout = d }
}

// WithDebug enables request/response dumping to stdout.
func WithDebug(debug bool) OpenAIOption {
	return func(p *OpenAIProvider) { p.debug = debug }
}

// NewOpenAIProvider creates a provider for an OpenAI-compatible API.
func NewOpenAIProvider(baseURL, model, apiKey string, opts ...OpenAIOption) (*OpenAIProvider, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("model cannot be empty")
	}

	provider := &OpenAIProvider{
		baseURL:     baseURL,
		model:       model,
		apiKey:      apiKey,
		temperature: 0.1,
		maxTokens:   4096,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
	for _, opt := range opts {
		opt(provider)
	}
	return provider, nil
}

// Model returns the configured model identifier.
func (p *OpenAIProvider) Model() string {
	return p.model
}

// Complete sends a chat request and returns the first choice's content.
func (p *OpenAIProvider) Complete(ctx context.Context, messages []Message) (string, error) {
	resp, err := p.sendChatRequest(ctx, messages)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response from %s", p.baseURL)
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *OpenAIProvider) sendChatRequest(ctx context.Context, messages []Message) (*ChatResponse, error) {
	req := ChatRequest{
		Model:       p.model,
		Messages:    messages,
		MaxTokens:   p.maxTokens,
		Temperature: p.temperature,
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	if p.debug {
		fmt.Printf("Sending request to %s:\n%s\n", p.baseURL, string(reqBody))
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.baseURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if p.debug {
		fmt.Printf("Response from %s: %s\n", p.baseURL, string(respBody))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, p.handleErrorResponse(resp.StatusCode, respBody)
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &chatResp, nil
}

// CheckConnection verifies the provider is accessible with a minimal request.
func (p *OpenAIProvider) CheckConnection(ctx context.Context) error {
	_, err := p.Complete(ctx, []Message{{Role: "user", Content: "Hi"}})
	return err
}

// handleErrorResponse extracts a useful message from an API error body.
func (p *OpenAIProvider) handleErrorResponse(statusCode int, body []byte) error {
	var apiErr struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    any    `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		return fmt.Errorf("API error (HTTP %d): %s", statusCode, apiErr.Error.Message)
	}

	switch statusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("authentication failed (HTTP 401): check your API key")
	case http.StatusTooManyRequests:
		return fmt.Errorf("rate limited (HTTP 429): try again later")
	default:
		return fmt.Errorf("API error (HTTP %d): %s", statusCode, string(body))
	}
}
