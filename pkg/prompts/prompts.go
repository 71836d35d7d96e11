// Package prompts builds the LLM message lists used by the synthesis
// components. Keeping all prompt text in one place makes it reviewable and
// keeps the loop logic free of string assembly.
package prompts

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/alantheprice/querysynth/pkg/llm"
)

// syntaxConstraints spells out the JSONata rules every candidate must follow.
// It is included in every candidate-generation prompt.
const syntaxConstraints = `JSONata syntax rules:
- Access properties with dot notation: order.customer.name
- Filter arrays with predicates in square brackets: items[price > 10]
- Index arrays with numbers: items[0], items[-1]
- Escape property names containing spaces or special characters with backticks: ` + "`First Name`" + `
- String literals use double or single quotes; string concatenation uses &
- Boolean operators are the keywords "and" and "or"; use $not() for negation
- Built-in functions start with $: $count(), $exists(), $contains(), $sum()
- The expression MUST evaluate to exactly the boolean true or false`

// candidateSystem is the system message for candidate generation.
const candidateSystem = `You are an expert in JSONata, the JSON query and transformation language.
You write boolean JSONata expressions that match a described behavior.
Respond with ONLY the JSONata expression. No explanations, no markdown fences, no surrounding text.`

// reasoningSystem is the system message for failure analysis.
const reasoningSystem = `You are an expert in JSONata. You analyze why a boolean JSONata expression fails
on specific examples and propose concrete fixes. Prefer the documented functions and operators from the
supplied reference material over ad hoc constructions.`

// selectionSystem is the system message for documentation selection.
const selectionSystem = `You select which JSONata reference documents are relevant to a task.
Respond with ONLY a JSON array of document names, e.g. ["path-operators","string-functions"]. No other text.`

// exampleGenSystem is the system message for example generation.
const exampleGenSystem = `You generate test documents for JSONata expressions.
Respond with ONLY a JSON object of the form {"positiveExamples":[...],"negativeExamples":[...]}. No other text.`

// marshalExamples renders example documents as an indented JSON array for
// inclusion in a prompt.
func marshalExamples(examples []any) string {
	if len(examples) == 0 {
		return "[]"
	}
	data, err := json.MarshalIndent(examples, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", examples)
	}
	return string(data)
}

// CandidateGeneration builds the prompt asking for the next candidate
// expression.
func CandidateGeneration(taskDescription, currentExpression string, positiveExamples, negativeExamples []any, priorOutcomesText, workingPatterns, failedPatterns, lastReasoning, referenceText string) []llm.Message {
	var b strings.Builder

	fmt.Fprintf(&b, "Task: write a JSONata expression that returns true for every positive example and false for every negative example.\n\n")
	fmt.Fprintf(&b, "Behavior description: %s\n\n", taskDescription)
	b.WriteString(syntaxConstraints)
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "Positive examples (expression must return true):\n%s\n\n", marshalExamples(positiveExamples))
	fmt.Fprintf(&b, "Negative examples (expression must return false):\n%s\n\n", marshalExamples(negativeExamples))

	if strings.TrimSpace(currentExpression) != "" {
		fmt.Fprintf(&b, "Current expression:\n%s\n\n", currentExpression)
	}
	if priorOutcomesText != "" {
		fmt.Fprintf(&b, "Results of the current expression:\n%s\n", priorOutcomesText)
	}
	if workingPatterns != "" {
		fmt.Fprintf(&b, "Patterns that worked in the last iteration: %s\n", workingPatterns)
	}
	if failedPatterns != "" {
		fmt.Fprintf(&b, "Patterns that failed in the last iteration: %s\n", failedPatterns)
	}
	if lastReasoning != "" {
		fmt.Fprintf(&b, "\nAnalysis of the previous failures:\n%s\n", lastReasoning)
	}
	if referenceText != "" {
		fmt.Fprintf(&b, "\nJSONata reference material:\n%s\n", referenceText)
	}

	b.WriteString("\nRespond with only the JSONata expression.")

	return []llm.Message{
		{Role: "system", Content: candidateSystem},
		{Role: "user", Content: b.String()},
	}
}

// FailureReasoning builds the prompt asking the model to analyze failed
// outcomes and propose fixes grounded in the reference material.
func FailureReasoning(currentExpression, taskDescription, outcomesText, workingPatterns, failedPatterns, referenceText string) []llm.Message {
	var b strings.Builder

	fmt.Fprintf(&b, "A JSONata expression is failing some of its examples.\n\n")
	fmt.Fprintf(&b, "Behavior description: %s\n\n", taskDescription)
	fmt.Fprintf(&b, "Expression:\n%s\n\n", currentExpression)
	fmt.Fprintf(&b, "Evaluation results:\n%s\n", outcomesText)
	if workingPatterns != "" {
		fmt.Fprintf(&b, "Patterns that passed: %s\n", workingPatterns)
	}
	if failedPatterns != "" {
		fmt.Fprintf(&b, "Patterns that failed: %s\n", failedPatterns)
	}
	if referenceText != "" {
		fmt.Fprintf(&b, "\nJSONata reference material:\n%s\n", referenceText)
	}
	b.WriteString("\nExplain why the expression fails and propose a fix. Prefer documented functions from the reference material over ad hoc solutions. Be concise.")

	return []llm.Message{
		{Role: "system", Content: reasoningSystem},
		{Role: "user", Content: b.String()},
	}
}

// DocumentationSelection builds the prompt asking which reference documents
// are relevant to a task.
func DocumentationSelection(taskDescription, currentExpression string, positiveExamples, negativeExamples []any, catalog []string) []llm.Message {
	var b strings.Builder

	fmt.Fprintf(&b, "Task: %s\n\n", taskDescription)
	if strings.TrimSpace(currentExpression) != "" {
		fmt.Fprintf(&b, "Current expression: %s\n\n", currentExpression)
	}
	fmt.Fprintf(&b, "Positive examples:\n%s\n\n", marshalExamples(positiveExamples))
	fmt.Fprintf(&b, "Negative examples:\n%s\n\n", marshalExamples(negativeExamples))
	fmt.Fprintf(&b, "Available documents: %s\n\n", strings.Join(catalog, ", "))
	b.WriteString("Which documents are relevant to writing this expression? Respond with a JSON array of document names.")

	return []llm.Message{
		{Role: "system", Content: selectionSystem},
		{Role: "user", Content: b.String()},
	}
}

// ExampleGeneration builds the prompt asking for positive and negative test
// documents for an expression.
func ExampleGeneration(expression, sampleOutput, description string, count int) []llm.Message {
	var b strings.Builder

	fmt.Fprintf(&b, "JSONata expression:\n%s\n\n", expression)
	if description != "" {
		fmt.Fprintf(&b, "Intended behavior: %s\n\n", description)
	}
	if sampleOutput != "" {
		fmt.Fprintf(&b, "Example of the expression's output on a matching document:\n%s\n\n", sampleOutput)
	}
	fmt.Fprintf(&b, "Generate %d positive example documents (the expression should produce a meaningful, non-empty result) and %d negative example documents (structurally similar but the expression should not match).\n", count, count)
	b.WriteString(`Respond with JSON: {"positiveExamples":[...],"negativeExamples":[...]}`)

	return []llm.Message{
		{Role: "system", Content: exampleGenSystem},
		{Role: "user", Content: b.String()},
	}
}
