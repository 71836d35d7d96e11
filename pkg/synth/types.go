// Package synth implements the iterative expression-synthesis loop: generate
// a candidate with the LLM, evaluate it against the labeled examples, feed
// structured results back, repeat until everything passes or the run is
// cancelled.
package synth

import (
	"github.com/alantheprice/querysynth/pkg/evaluator"
)

// Request carries everything needed to start a synthesis run. Examples are
// opaque JSON documents owned by the caller and never mutated.
type Request struct {
	InitialExpression string `json:"initialExpression"`
	PositiveExamples  []any  `json:"positiveExamples"`
	NegativeExamples  []any  `json:"negativeExamples"`
	TaskDescription   string `json:"taskDescription"`
}

// LearningState is the cross-iteration context fed back into prompt
// construction. WorkingPatterns and FailedPatterns are replaced wholesale
// each iteration from that iteration's outcomes; they describe only the
// latest iteration, not full history. SelectedDocumentation is nil until the
// first iteration computes it and is immutable afterwards.
type LearningState struct {
	WorkingPatterns       []string `json:"workingPatterns"`
	FailedPatterns        []string `json:"failedPatterns"`
	LastReasoning         string   `json:"lastReasoning,omitempty"`
	SelectedDocumentation []string `json:"selectedDocumentation,omitempty"`
}

// snapshot returns a deep copy safe to hand to the caller.
func (s *LearningState) snapshot() LearningState {
	copied := LearningState{LastReasoning: s.LastReasoning}
	copied.WorkingPatterns = append([]string(nil), s.WorkingPatterns...)
	copied.FailedPatterns = append([]string(nil), s.FailedPatterns...)
	if s.SelectedDocumentation != nil {
		copied.SelectedDocumentation = append([]string(nil), s.SelectedDocumentation...)
	}
	return copied
}

// Iteration is the record streamed to the caller after each loop pass.
type Iteration struct {
	Iteration     int                 `json:"iteration"`
	Expression    string              `json:"expression"`
	Diff          string              `json:"diff,omitempty"`
	Outcomes      []evaluator.Outcome `json:"outcomes"`
	Documentation []string            `json:"documentation"`
	LearningState LearningState       `json:"learningState"`
	AllPassing    bool                `json:"allPassing"`
}

// IterationSink receives each iteration record in generation order. A sink
// error aborts the run.
type IterationSink func(Iteration) error
