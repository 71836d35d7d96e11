package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestNewOpenAIProviderValidation(t *testing.T) {
	_, err := NewOpenAIProvider("", "gpt-4o-mini", "key")
	assert.Error(t, err)

	_, err = NewOpenAIProvider("http://localhost/v1/chat/completions", "", "key")
	assert.Error(t, err)
}

func TestOpenAIProviderComplete(t *testing.T) {
	var gotReq ChatRequest
	server := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		resp := ChatResponse{Model: gotReq.Model}
		choice := Choice{}
		choice.Message.Role = "assistant"
		choice.Message.Content = "order.total > 100"
		resp.Choices = []Choice{choice}
		json.NewEncoder(w).Encode(resp)
	})

	provider, err := NewOpenAIProvider(server.URL, "gpt-4o-mini", "test-key")
	require.NoError(t, err)

	content, err := provider.Complete(context.Background(), []Message{
		{Role: "system", Content: "You write JSONata."},
		{Role: "user", Content: "match expensive orders"},
	})
	require.NoError(t, err)
	assert.Equal(t, "order.total > 100", content)
	assert.Equal(t, "gpt-4o-mini", gotReq.Model)
	assert.Len(t, gotReq.Messages, 2)
}

func TestOpenAIProviderCompleteNoChoices(t *testing.T) {
	server := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ChatResponse{})
	})

	provider, err := NewOpenAIProvider(server.URL, "gpt-4o-mini", "")
	require.NoError(t, err)

	_, err = provider.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}})
	assert.ErrorContains(t, err, "no choices")
}

func TestOpenAIProviderAPIError(t *testing.T) {
	server := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"quota exceeded","type":"rate_limit"}}`))
	})

	provider, err := NewOpenAIProvider(server.URL, "gpt-4o-mini", "")
	require.NoError(t, err)

	_, err = provider.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}})
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestOpenAIProviderAuthError(t *testing.T) {
	server := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`nope`))
	})

	provider, err := NewOpenAIProvider(server.URL, "gpt-4o-mini", "bad-key")
	require.NoError(t, err)

	_, err = provider.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}})
	assert.ErrorContains(t, err, "authentication failed")
}

func TestOpenAIProviderContextCancelled(t *testing.T) {
	server := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	provider, err := NewOpenAIProvider(server.URL, "gpt-4o-mini", "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = provider.Complete(ctx, []Message{{Role: "user", Content: "hi"}})
	assert.Error(t, err)
}
