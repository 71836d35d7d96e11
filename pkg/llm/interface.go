package llm

import "context"

// Client is the capability the synthesis components depend on: given an
// ordered list of chat messages, return the model's text response. Providers
// implement it; tests substitute a mock. Retries and rate limiting are the
// provider's business, not the caller's.
type Client interface {
	// Complete sends the messages and returns the assistant's text.
	Complete(ctx context.Context, messages []Message) (string, error)

	// Model returns the model identifier this client targets.
	Model() string

	// CheckConnection verifies the provider is reachable.
	CheckConnection(ctx context.Context) error
}
