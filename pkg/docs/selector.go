package docs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/alantheprice/querysynth/pkg/llm"
	"github.com/alantheprice/querysynth/pkg/prompts"
)

// Selector asks the LLM which reference documents matter for a task and loads
// their bodies. The selection from the first iteration of a run is pinned and
// reused for the rest of the run.
type Selector struct {
	client llm.Client
	store  Store
}

// NewSelector creates a selector over the given collaborators.
func NewSelector(client llm.Client, store Store) *Selector {
	return &Selector{client: client, store: store}
}

// Select returns the chosen document names and their concatenated bodies.
// When pinned is non-nil it is reused unchanged and no LLM call is made.
// A selection response that cannot be parsed degrades to an empty selection;
// hallucinated document names are silently dropped.
func (s *Selector) Select(ctx context.Context, taskDescription, currentExpression string, positiveExamples, negativeExamples []any, pinned []string) ([]string, string, error) {
	selection := pinned
	if selection == nil {
		var err error
		selection, err = s.query(ctx, taskDescription, currentExpression, positiveExamples, negativeExamples)
		if err != nil {
			return nil, "", err
		}
	}

	text, err := s.concatenate(selection)
	if err != nil {
		return nil, "", err
	}
	return selection, text, nil
}

// query performs the one LLM round-trip of a run that picks documents.
func (s *Selector) query(ctx context.Context, taskDescription, currentExpression string, positiveExamples, negativeExamples []any) ([]string, error) {
	messages := prompts.DocumentationSelection(taskDescription, currentExpression, positiveExamples, negativeExamples, Catalog)
	response, err := s.client.Complete(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("documentation selection failed: %w", err)
	}

	names := parseSelection(response)
	selection := make([]string, 0, len(names))
	for _, name := range names {
		if s.store.Exists(name) {
			selection = append(selection, name)
		} else {
			log.Printf("Dropping unknown document from selection: %q", name)
		}
	}
	return selection, nil
}

// parseSelection extracts document names from the model's response. It tries
// strict JSON first and falls back to line/comma splitting; a response with
// no recognizable names yields an empty selection rather than an error.
func parseSelection(response string) []string {
	trimmed := strings.TrimSpace(response)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var names []string
	if err := json.Unmarshal([]byte(trimmed), &names); err == nil {
		return cleanNames(names)
	}

	// Fall back to one-name-per-line or comma-separated text.
	var parts []string
	for _, line := range strings.Split(trimmed, "\n") {
		parts = append(parts, strings.Split(line, ",")...)
	}
	return cleanNames(parts)
}

func cleanNames(raw []string) []string {
	names := make([]string, 0, len(raw))
	for _, name := range raw {
		name = strings.TrimSpace(name)
		name = strings.Trim(name, `"'`)
		name = strings.TrimPrefix(name, "- ")
		name = strings.TrimSpace(name)
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

// concatenate loads the selected documents and joins them with per-document
// headers. Missing or empty documents contribute nothing.
func (s *Selector) concatenate(selection []string) (string, error) {
	var b strings.Builder
	for _, name := range selection {
		text, err := s.store.ReadText(name)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return "", err
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		fmt.Fprintf(&b, "=== %s ===\n%s\n\n", name, strings.TrimSpace(text))
	}
	return strings.TrimSpace(b.String()), nil
}
