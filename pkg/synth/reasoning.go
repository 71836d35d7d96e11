package synth

import (
	"context"
	"fmt"
	"strings"

	"github.com/alantheprice/querysynth/pkg/docs"
	"github.com/alantheprice/querysynth/pkg/evaluator"
	"github.com/alantheprice/querysynth/pkg/llm"
	"github.com/alantheprice/querysynth/pkg/prompts"
)

// ReasoningGenerator asks the LLM to analyze failed outcomes and propose
// fixes grounded in the selected documentation. Its output is carried forward
// as LearningState.LastReasoning for the next candidate prompt.
type ReasoningGenerator struct {
	client   llm.Client
	selector *docs.Selector
}

// NewReasoningGenerator wires a reasoning generator to its collaborators.
func NewReasoningGenerator(client llm.Client, selector *docs.Selector) *ReasoningGenerator {
	return &ReasoningGenerator{client: client, selector: selector}
}

// ExplainFailures returns the model's failure analysis verbatim (trimmed).
// Callers invoke it only when at least one outcome failed. The frozen
// documentation selection from the learning state is reused; no new
// selection round-trip happens here.
func (r *ReasoningGenerator) ExplainFailures(ctx context.Context, currentExpression string, outcomes []evaluator.Outcome, state *LearningState, taskDescription string) (string, error) {
	pinned := state.SelectedDocumentation
	if pinned == nil {
		pinned = []string{}
	}
	_, referenceText, err := r.selector.Select(ctx, taskDescription, currentExpression, nil, nil, pinned)
	if err != nil {
		return "", err
	}

	messages := prompts.FailureReasoning(
		currentExpression,
		taskDescription,
		FormatOutcomes(outcomes),
		strings.Join(state.WorkingPatterns, ", "),
		strings.Join(state.FailedPatterns, ", "),
		referenceText,
	)

	response, err := r.client.Complete(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("failure reasoning failed: %w", err)
	}
	return strings.TrimSpace(response), nil
}
