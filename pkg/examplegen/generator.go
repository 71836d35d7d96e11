// Package examplegen produces labeled example documents for an expression
// via a single LLM round-trip plus a validation filter. Its output seeds the
// synthesis loop's positive/negative example sets.
package examplegen

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/alantheprice/querysynth/pkg/evaluator"
	"github.com/alantheprice/querysynth/pkg/llm"
	"github.com/alantheprice/querysynth/pkg/prompts"
)

// DefaultCount is how many examples of each polarity are requested.
const DefaultCount = 3

// Result is the validated example set returned to the caller.
type Result struct {
	PositiveExamples []any `json:"positiveExamples"`
	NegativeExamples []any `json:"negativeExamples"`
}

// Generator asks the LLM for candidate example documents and keeps only the
// ones the expression can actually be applied to.
type Generator struct {
	client llm.Client
	count  int
}

// NewGenerator builds an example generator.
func NewGenerator(client llm.Client) *Generator {
	return &Generator{client: client, count: DefaultCount}
}

// Generate requests example documents for the expression and filters out any
// the expression does not produce a non-empty, non-null result for. Invalid
// generated examples are dropped, not fatal; an unparseable LLM response is
// an error since there is nothing to fall back to.
func (g *Generator) Generate(ctx context.Context, expression, sampleOutput, description string) (*Result, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, fmt.Errorf("expression cannot be empty")
	}

	messages := prompts.ExampleGeneration(expression, sampleOutput, description, g.count)
	response, err := g.client.Complete(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("example generation failed: %w", err)
	}

	parsed, err := parseResponse(response)
	if err != nil {
		return nil, err
	}

	result := &Result{
		PositiveExamples: filterValid(expression, parsed.PositiveExamples),
		NegativeExamples: filterValid(expression, parsed.NegativeExamples),
	}
	return result, nil
}

// parseResponse extracts the example sets from the model's JSON response,
// tolerating markdown fences.
func parseResponse(response string) (*Result, error) {
	trimmed := strings.TrimSpace(response)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var parsed Result
	if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
		return nil, fmt.Errorf("could not parse example generation response: %w", err)
	}
	return &parsed, nil
}

// filterValid keeps the documents the expression produces a non-empty,
// non-null result for. A boolean result (either polarity) counts as a value.
func filterValid(expression string, examples []any) []any {
	valid := make([]any, 0, len(examples))
	for _, example := range examples {
		if evaluator.ProducesValue(expression, example) {
			valid = append(valid, example)
		} else {
			data, _ := json.Marshal(example)
			log.Printf("Dropping generated example with no expression result: %s", string(data))
		}
	}
	return valid
}
