// Package evaluator runs candidate JSONata expressions against example
// documents and classifies the outcome per example.
package evaluator

import (
	"encoding/json"
	"errors"
	"fmt"

	jsonata "github.com/blues/jsonata-go"
)

// Outcome is the per-example verdict for one candidate expression.
// Passed is true only when the expression evaluated to exactly the boolean
// matching the example's expected polarity. Output carries the raw evaluation
// result when evaluation produced one; Error carries the failure description
// otherwise.
type Outcome struct {
	Example any    `json:"example"`
	Passed  bool   `json:"passed"`
	Output  any    `json:"output,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Evaluate runs one expression against one example document.
// Any parse failure, evaluation failure, or non-boolean result yields
// Passed=false with a descriptive error; faults never propagate to the caller.
func Evaluate(expressionText string, example any, expectedPolarity bool) Outcome {
	outcome := Outcome{Example: example}

	expr, err := jsonata.Compile(expressionText)
	if err != nil {
		outcome.Error = fmt.Sprintf("Invalid syntax: %v", err)
		return outcome
	}

	result, err := safeEval(expr, example)
	if err != nil {
		if errors.Is(err, jsonata.ErrUndefined) {
			// Evaluation succeeded but produced no value, which is not a boolean.
			outcome.Error = "Expression must return exactly true or false, got: undefined"
			return outcome
		}
		outcome.Error = fmt.Sprintf("Evaluation failed: %v", err)
		return outcome
	}

	boolResult, ok := result.(bool)
	if !ok {
		outcome.Error = fmt.Sprintf("Expression must return exactly true or false, got: %s", represent(result))
		return outcome
	}

	outcome.Output = boolResult
	outcome.Passed = boolResult == expectedPolarity
	return outcome
}

// EvaluateAll evaluates the expression against every example in order,
// producing exactly one outcome per example. One example's failure never
// aborts evaluation of its siblings.
func EvaluateAll(expressionText string, examples []any, expectedPolarity bool) []Outcome {
	outcomes := make([]Outcome, 0, len(examples))
	for _, example := range examples {
		outcomes = append(outcomes, Evaluate(expressionText, example, expectedPolarity))
	}
	return outcomes
}

// safeEval isolates the JSONata engine per example so a panic inside the
// evaluator surfaces as a per-example fault.
func safeEval(expr *jsonata.Expr, example any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("evaluator panic: %v", r)
		}
	}()
	return expr.Eval(example)
}

// represent renders a non-boolean result for the error message.
func represent(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return string(data)
}

// Apply runs the expression against a document and returns the raw result.
// Used by example generation to check that an expression produces a
// non-empty, non-null value for a candidate example.
func Apply(expressionText string, document any) (any, error) {
	expr, err := jsonata.Compile(expressionText)
	if err != nil {
		return nil, fmt.Errorf("Invalid syntax: %v", err)
	}
	return safeEval(expr, document)
}

// ProducesValue reports whether the expression yields a non-empty, non-null
// result for the document.
func ProducesValue(expressionText string, document any) bool {
	result, err := Apply(expressionText, document)
	if err != nil {
		return false
	}
	switch v := result.(type) {
	case nil:
		return false
	case string:
		return v != ""
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		return true
	}
}
