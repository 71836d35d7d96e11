package synth

import (
	"context"
	"testing"

	"github.com/alantheprice/querysynth/pkg/docs"
	"github.com/alantheprice/querysynth/pkg/evaluator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanCandidate(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{"plain", "a = 1", "a = 1"},
		{"padded", "  a = 1\n", "a = 1"},
		{"fenced", "```\na = 1\n```", "a = 1"},
		{"fenced jsonata", "```jsonata\na = 1\n```", "a = 1"},
		{"empty", "", ""},
		{"whitespace only", "  \n ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanCandidate(tt.response))
		})
	}
}

func TestFormatOutcomes(t *testing.T) {
	outcomes := []evaluator.Outcome{
		{Passed: true, Output: true},
		{Passed: false, Error: "Invalid syntax: unexpected token"},
	}

	text := FormatOutcomes(outcomes)
	assert.Contains(t, text, "Example 1: PASSED (returned true)")
	assert.Contains(t, text, "Example 2: FAILED - Invalid syntax: unexpected token")
}

func TestFormatOutcomesEmpty(t *testing.T) {
	assert.Empty(t, FormatOutcomes(nil))
}

func TestGenerateNextReusesPinnedSelection(t *testing.T) {
	client := &scriptedClient{responses: []string{"a = 1"}}
	selector := docs.NewSelector(client, docs.NewEmbeddedStore())
	g := NewCandidateGenerator(client, selector)

	state := &LearningState{SelectedDocumentation: []string{"path-operators"}}
	candidate, selection, err := g.GenerateNext(context.Background(), "", nil, nil, "task", nil, state)
	require.NoError(t, err)
	assert.Equal(t, "a = 1", candidate)
	assert.Equal(t, []string{"path-operators"}, selection)
	// Only the candidate call happened; the pinned selection skipped the LLM.
	assert.Equal(t, 1, client.calls)
}

func TestGenerateNextEmptyResponse(t *testing.T) {
	client := &scriptedClient{responses: []string{"   "}}
	selector := docs.NewSelector(client, docs.NewEmbeddedStore())
	g := NewCandidateGenerator(client, selector)

	state := &LearningState{SelectedDocumentation: []string{}}
	candidate, _, err := g.GenerateNext(context.Background(), "", nil, nil, "task", nil, state)
	require.NoError(t, err)
	assert.Equal(t, "", candidate)
}

func TestExplainFailuresWithoutFrozenSelection(t *testing.T) {
	// Reasoning must never trigger a selection round-trip, even when the
	// learning state has no frozen selection yet.
	client := &scriptedClient{responses: []string{"use $exists instead of a bare path"}}
	selector := docs.NewSelector(client, docs.NewEmbeddedStore())
	r := NewReasoningGenerator(client, selector)

	outcomes := []evaluator.Outcome{{Passed: false, Error: "Invalid syntax: x"}}
	reasoning, err := r.ExplainFailures(context.Background(), "a =", outcomes, &LearningState{}, "task")
	require.NoError(t, err)
	assert.Equal(t, "use $exists instead of a bare path", reasoning)
	assert.Equal(t, 1, client.calls)
}

func TestExpressionDiff(t *testing.T) {
	assert.Empty(t, ExpressionDiff("", "a = 1"))
	assert.Empty(t, ExpressionDiff("a = 1", "a = 1"))

	diff := ExpressionDiff("a = 2", "a = 1")
	assert.Contains(t, diff, "[-2-]")
	assert.Contains(t, diff, "[+1+]")
}
