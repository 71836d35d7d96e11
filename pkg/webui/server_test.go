package webui

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alantheprice/querysynth/pkg/config"
	"github.com/alantheprice/querysynth/pkg/events"
	"github.com/alantheprice/querysynth/pkg/llm"
	"github.com/alantheprice/querysynth/pkg/synth"
)

// scriptedClient replays canned LLM responses in order.
type scriptedClient struct {
	mu        sync.Mutex
	responses []string
	calls     int
}

func (c *scriptedClient) Complete(ctx context.Context, messages []llm.Message) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.calls >= len(c.responses) {
		return "", fmt.Errorf("unexpected llm call %d", c.calls+1)
	}
	response := c.responses[c.calls]
	c.calls++
	return response, nil
}

func (c *scriptedClient) Model() string { return "scripted" }

func (c *scriptedClient) CheckConnection(ctx context.Context) error { return nil }

func (c *scriptedClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func newTestServer(t *testing.T, client llm.Client) (*WebServer, *httptest.Server) {
	t.Helper()
	cfg := &config.Config{MaxIterations: 10, WebPort: 0}
	ws := NewWebServer(client, events.NewEventBus(), cfg)
	srv := httptest.NewServer(ws.Handler())
	t.Cleanup(srv.Close)
	return ws, srv
}

func synthesizeBody(t *testing.T) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(synth.Request{
		TaskDescription: "orders with a total greater than 100",
		PositiveExamples: []any{
			map[string]any{"order": map[string]any{"total": float64(150)}},
		},
		NegativeExamples: []any{
			map[string]any{"order": map[string]any{"total": float64(50)}},
		},
	})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func readNDJSON(t *testing.T, resp *http.Response) []map[string]any {
	t.Helper()
	var records []map[string]any
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var record map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &record))
		records = append(records, record)
	}
	require.NoError(t, scanner.Err())
	return records
}

func TestSynthesizeStreamsIterationAndTrailer(t *testing.T) {
	client := &scriptedClient{responses: []string{
		`["comparison-operators", "path-operators"]`,
		"order.total > 100",
	}}
	_, srv := newTestServer(t, client)

	resp, err := http.Post(srv.URL+"/api/synthesize", "application/json", synthesizeBody(t))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/x-ndjson", resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, resp.Header.Get("X-Run-Id"))

	records := readNDJSON(t, resp)
	require.Len(t, records, 2)

	iteration := records[0]
	assert.Equal(t, float64(1), iteration["iteration"])
	assert.Equal(t, "order.total > 100", iteration["expression"])
	assert.Equal(t, true, iteration["allPassing"])
	outcomes, ok := iteration["outcomes"].([]any)
	require.True(t, ok)
	assert.Len(t, outcomes, 2)

	trailer := records[1]
	assert.Equal(t, true, trailer["done"])
	assert.Equal(t, RunStatusCompleted, trailer["status"])
	assert.Equal(t, resp.Header.Get("X-Run-Id"), trailer["runId"])

	// One selection call and one candidate call.
	assert.Equal(t, 2, client.callCount())
}

func TestSynthesizeDocumentationFrozenAcrossRecords(t *testing.T) {
	client := &scriptedClient{responses: []string{
		`["comparison-operators"]`,
		"order.total > 200",
		"The threshold is too high; the positive example has total 150.",
		"order.total > 100",
	}}
	_, srv := newTestServer(t, client)

	resp, err := http.Post(srv.URL+"/api/synthesize", "application/json", synthesizeBody(t))
	require.NoError(t, err)
	defer resp.Body.Close()

	records := readNDJSON(t, resp)
	require.Len(t, records, 3)

	first, _ := records[0]["documentation"].([]any)
	second, _ := records[1]["documentation"].([]any)
	assert.Equal(t, []any{"comparison-operators"}, first)
	assert.Equal(t, first, second)

	assert.Equal(t, false, records[0]["allPassing"])
	assert.Equal(t, true, records[1]["allPassing"])
	assert.Equal(t, true, records[2]["done"])
	assert.Equal(t, RunStatusCompleted, records[2]["status"])

	// Selection happened exactly once even though two candidates were built.
	assert.Equal(t, 4, client.callCount())
}

func TestSynthesizeRejectsMissingTask(t *testing.T) {
	_, srv := newTestServer(t, &scriptedClient{})

	resp, err := http.Post(srv.URL+"/api/synthesize", "application/json",
		strings.NewReader(`{"positiveExamples": [], "negativeExamples": []}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSynthesizeRejectsGet(t *testing.T) {
	_, srv := newTestServer(t, &scriptedClient{})

	resp, err := http.Get(srv.URL + "/api/synthesize")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHealthEndpoint(t *testing.T) {
	_, srv := newTestServer(t, &scriptedClient{})

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var payload map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "ok", payload["status"])
}

func TestIndexServed(t *testing.T) {
	_, srv := newTestServer(t, &scriptedClient{})

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
}

func TestIndexUnknownPathIs404(t *testing.T) {
	_, srv := newTestServer(t, &scriptedClient{})

	resp, err := http.Get(srv.URL + "/no-such-page")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
