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

// CandidateGenerator obtains the next candidate expression from the LLM.
// It is stateless; all cross-iteration context arrives via LearningState.
type CandidateGenerator struct {
	client   llm.Client
	selector *docs.Selector
}

// NewCandidateGenerator wires a generator to its collaborators.
func NewCandidateGenerator(client llm.Client, selector *docs.Selector) *CandidateGenerator {
	return &CandidateGenerator{client: client, selector: selector}
}

// GenerateNext returns the next candidate expression and the documentation
// selection used to produce it. The raw LLM response, trimmed and stripped of
// code fences, is the candidate verbatim; its syntax is validated later by
// the evaluator. An empty response degrades to an empty candidate rather than
// an error.
func (g *CandidateGenerator) GenerateNext(ctx context.Context, currentExpression string, positiveExamples, negativeExamples []any, taskDescription string, priorOutcomes []evaluator.Outcome, state *LearningState) (string, []string, error) {
	selection, referenceText, err := g.selector.Select(ctx, taskDescription, currentExpression, positiveExamples, negativeExamples, state.SelectedDocumentation)
	if err != nil {
		return "", nil, err
	}

	messages := prompts.CandidateGeneration(
		taskDescription,
		currentExpression,
		positiveExamples,
		negativeExamples,
		FormatOutcomes(priorOutcomes),
		strings.Join(state.WorkingPatterns, ", "),
		strings.Join(state.FailedPatterns, ", "),
		state.LastReasoning,
		referenceText,
	)

	response, err := g.client.Complete(ctx, messages)
	if err != nil {
		return "", nil, fmt.Errorf("candidate generation failed: %w", err)
	}

	return cleanCandidate(response), selection, nil
}

// cleanCandidate trims whitespace and strips markdown fences the model may
// have wrapped the expression in, returning the remainder verbatim.
func cleanCandidate(response string) string {
	candidate := strings.TrimSpace(response)
	if strings.HasPrefix(candidate, "```") {
		candidate = strings.TrimPrefix(candidate, "```jsonata")
		candidate = strings.TrimPrefix(candidate, "```json")
		candidate = strings.TrimPrefix(candidate, "```")
		candidate = strings.TrimSuffix(strings.TrimSpace(candidate), "```")
		candidate = strings.TrimSpace(candidate)
	}
	return candidate
}

// FormatOutcomes renders evaluation outcomes as numbered lines for prompt
// inclusion, including error text for failures.
func FormatOutcomes(outcomes []evaluator.Outcome) string {
	if len(outcomes) == 0 {
		return ""
	}
	var b strings.Builder
	for i, o := range outcomes {
		status := "PASSED"
		if !o.Passed {
			status = "FAILED"
		}
		fmt.Fprintf(&b, "Example %d: %s", i+1, status)
		if o.Error != "" {
			fmt.Fprintf(&b, " - %s", o.Error)
		} else if o.Output != nil {
			fmt.Fprintf(&b, " (returned %v)", o.Output)
		}
		b.WriteString("\n")
	}
	return b.String()
}
