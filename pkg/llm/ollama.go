package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	ollama "github.com/ollama/ollama/api"
)

// OllamaProvider implements Client against a local Ollama server.
type OllamaProvider struct {
	client      *ollama.Client
	model       string
	temperature float64
	maxTokens   int
}

// NewOllamaProvider creates a client for a locally running Ollama server and
// verifies the requested model is available. An empty serverURL falls back to
// OLLAMA_HOST and then the default localhost address.
func NewOllamaProvider(serverURL, model string, temperature float64, maxTokens int) (*OllamaProvider, error) {
	client, err := newOllamaClient(serverURL)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	listResp, err := client.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list local models: %w", err)
	}

	modelFound := false
	for _, m := range listResp.Models {
		if m.Name == model {
			modelFound = true
			break
		}
	}
	if !modelFound {
		availableModels := make([]string, 0, len(listResp.Models))
		for _, m := range listResp.Models {
			availableModels = append(availableModels, m.Name)
		}
		return nil, fmt.Errorf("model %s not found locally. Available models: %v", model, availableModels)
	}

	return &OllamaProvider{
		client:      client,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
	}, nil
}

func newOllamaClient(serverURL string) (*ollama.Client, error) {
	if strings.TrimSpace(serverURL) == "" {
		client, err := ollama.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("could not create ollama client: %w", err)
		}
		return client, nil
	}

	base, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama server url %q: %w", serverURL, err)
	}
	return ollama.NewClient(base, http.DefaultClient), nil
}

// Model returns the configured model identifier.
func (p *OllamaProvider) Model() string {
	return p.model
}

// Complete sends a chat request to the local Ollama server.
func (p *OllamaProvider) Complete(ctx context.Context, messages []Message) (string, error) {
	ollamaMessages := make([]ollama.Message, len(messages))
	for i, msg := range messages {
		ollamaMessages[i] = ollama.Message{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	stream := false
	req := &ollama.ChatRequest{
		Model:    p.model,
		Messages: ollamaMessages,
		Stream:   &stream,
		Options: map[string]interface{}{
			"temperature": p.temperature,
			"num_predict": p.maxTokens,
		},
	}

	var responseContent strings.Builder
	respFunc := func(res ollama.ChatResponse) error {
		responseContent.WriteString(res.Message.Content)
		return nil
	}

	if err := p.client.Chat(ctx, req, respFunc); err != nil {
		return "", fmt.Errorf("ollama chat failed: %w", err)
	}
	return responseContent.String(), nil
}

// CheckConnection verifies the Ollama server is reachable.
func (p *OllamaProvider) CheckConnection(ctx context.Context) error {
	if _, err := p.client.List(ctx); err != nil {
		return fmt.Errorf("ollama server not reachable: %w", err)
	}
	return nil
}
