package docs

import (
	"context"
	"errors"
	"testing"

	"github.com/alantheprice/querysynth/pkg/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockClient returns canned responses in order.
type mockClient struct {
	responses []string
	err       error
	calls     int
}

func (m *mockClient) Complete(ctx context.Context, messages []llm.Message) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.calls++
	if len(m.responses) == 0 {
		return "", nil
	}
	resp := m.responses[0]
	if len(m.responses) > 1 {
		m.responses = m.responses[1:]
	}
	return resp, nil
}

func (m *mockClient) Model() string { return "mock" }

func (m *mockClient) CheckConnection(ctx context.Context) error { return nil }

func TestSelectParsesJSONArray(t *testing.T) {
	client := &mockClient{responses: []string{`["path-operators", "string-functions"]`}}
	s := NewSelector(client, NewEmbeddedStore())

	selection, text, err := s.Select(context.Background(), "match names", "", nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"path-operators", "string-functions"}, selection)
	assert.Contains(t, text, "=== path-operators ===")
	assert.Contains(t, text, "=== string-functions ===")
}

func TestSelectDropsUnknownNames(t *testing.T) {
	client := &mockClient{responses: []string{`["path-operators", "made-up-doc"]`}}
	s := NewSelector(client, NewEmbeddedStore())

	selection, _, err := s.Select(context.Background(), "task", "", nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"path-operators"}, selection)
}

func TestSelectUnparseableResponse(t *testing.T) {
	client := &mockClient{responses: []string{"I think you should look at paths maybe?"}}
	s := NewSelector(client, NewEmbeddedStore())

	selection, text, err := s.Select(context.Background(), "task", "", nil, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, selection)
	assert.Empty(t, text)
}

func TestSelectFencedJSONResponse(t *testing.T) {
	client := &mockClient{responses: []string{"```json\n[\"boolean-functions\"]\n```"}}
	s := NewSelector(client, NewEmbeddedStore())

	selection, _, err := s.Select(context.Background(), "task", "", nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"boolean-functions"}, selection)
}

func TestSelectCommaSeparatedFallback(t *testing.T) {
	client := &mockClient{responses: []string{"path-operators, comparison-operators"}}
	s := NewSelector(client, NewEmbeddedStore())

	selection, _, err := s.Select(context.Background(), "task", "", nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"path-operators", "comparison-operators"}, selection)
}

func TestSelectPinnedSkipsLLM(t *testing.T) {
	client := &mockClient{responses: []string{`["string-functions"]`}}
	s := NewSelector(client, NewEmbeddedStore())

	pinned := []string{"numeric-functions"}
	selection, text, err := s.Select(context.Background(), "task", "", nil, nil, pinned)
	require.NoError(t, err)
	assert.Equal(t, pinned, selection)
	assert.Contains(t, text, "=== numeric-functions ===")
	assert.Zero(t, client.calls, "pinned selection must not trigger an LLM call")
}

func TestSelectPinnedEmptyIsStillPinned(t *testing.T) {
	client := &mockClient{responses: []string{`["string-functions"]`}}
	s := NewSelector(client, NewEmbeddedStore())

	// An empty (but non-nil) pinned selection means "frozen to nothing".
	selection, text, err := s.Select(context.Background(), "task", "", nil, nil, []string{})
	require.NoError(t, err)
	assert.Empty(t, selection)
	assert.Empty(t, text)
	assert.Zero(t, client.calls)
}

func TestSelectLLMFailure(t *testing.T) {
	client := &mockClient{err: errors.New("connection refused")}
	s := NewSelector(client, NewEmbeddedStore())

	_, _, err := s.Select(context.Background(), "task", "", nil, nil, nil)
	assert.ErrorContains(t, err, "documentation selection failed")
}

func TestEmbeddedStoreCatalogComplete(t *testing.T) {
	store := NewEmbeddedStore()
	for _, name := range Catalog {
		assert.True(t, store.Exists(name), "catalog entry %q has no snippet", name)
		text, err := store.ReadText(name)
		require.NoError(t, err)
		assert.NotEmpty(t, text)
	}
}

func TestEmbeddedStoreMissing(t *testing.T) {
	store := NewEmbeddedStore()
	assert.False(t, store.Exists("nope"))
	_, err := store.ReadText("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}
