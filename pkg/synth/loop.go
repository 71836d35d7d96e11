package synth

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/alantheprice/querysynth/pkg/evaluator"
	"github.com/alantheprice/querysynth/pkg/events"
	"github.com/alantheprice/querysynth/pkg/patterns"
	"github.com/alantheprice/querysynth/pkg/utils"
)

// ErrExhausted is returned when the loop hits its iteration cap without all
// examples passing. Surfaced distinctly so callers can tell "gave up" from
// "still working" and from collaborator faults.
var ErrExhausted = errors.New("exhausted maximum iterations without all examples passing")

// Loop drives the iterate-evaluate-feedback cycle for one synthesis run.
// It exclusively owns the LearningState and current candidate for the run's
// lifetime; the generators and evaluator are stateless collaborators.
type Loop struct {
	generator     *CandidateGenerator
	reasoner      *ReasoningGenerator
	extractor     patterns.Extractor
	maxIterations int

	bus   *events.EventBus
	runID string
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithEvents mirrors run progress onto an event bus under the given run ID.
func WithEvents(bus *events.EventBus, runID string) LoopOption {
	return func(l *Loop) {
		l.bus = bus
		l.runID = runID
	}
}

// WithExtractor swaps the pattern-extraction strategy.
func WithExtractor(extractor patterns.Extractor) LoopOption {
	return func(l *Loop) { l.extractor = extractor }
}

// NewLoop builds a synthesis loop. maxIterations <= 0 means unbounded, which
// callers should avoid since the loop has no convergence guarantee.
func NewLoop(generator *CandidateGenerator, reasoner *ReasoningGenerator, maxIterations int, opts ...LoopOption) *Loop {
	l := &Loop{
		generator:     generator,
		reasoner:      reasoner,
		extractor:     patterns.NewRegexExtractor(),
		maxIterations: maxIterations,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run executes the synthesis loop until every example passes, the iteration
// cap is hit, the context is cancelled, or a collaborator fails. Each
// completed iteration is delivered to the sink before the next one starts.
// Returns nil on success, ErrExhausted on cap, the context error on
// cancellation, or the collaborator fault.
func (l *Loop) Run(ctx context.Context, req Request, sink IterationSink) error {
	logger := utils.GetLogger()
	state := &LearningState{}
	current := req.InitialExpression
	var priorOutcomes []evaluator.Outcome
	start := time.Now()

	l.publish(events.EventTypeRunStarted, events.RunStartedEvent(l.runID, req.TaskDescription, len(req.PositiveExamples), len(req.NegativeExamples)))

	for iteration := 1; ; iteration++ {
		if l.maxIterations > 0 && iteration > l.maxIterations {
			logger.Logf("Run %s exhausted after %d iterations", l.runID, l.maxIterations)
			err := fmt.Errorf("%w (cap: %d)", ErrExhausted, l.maxIterations)
			l.publish(events.EventTypeRunFailed, events.RunFailedEvent(l.runID, err))
			return err
		}
		if err := ctx.Err(); err != nil {
			return l.cancelled(ctx, iteration-1)
		}

		// GENERATING: an empty current expression is valid on the first pass.
		next, selection, err := l.generator.GenerateNext(ctx, current, req.PositiveExamples, req.NegativeExamples, req.TaskDescription, priorOutcomes, state)
		if err != nil {
			if ctx.Err() != nil {
				return l.cancelled(ctx, iteration-1)
			}
			l.publish(events.EventTypeRunFailed, events.RunFailedEvent(l.runID, err))
			return err
		}

		// Documentation selection happens once per run and is frozen after.
		if state.SelectedDocumentation == nil {
			if selection == nil {
				selection = []string{}
			}
			state.SelectedDocumentation = selection
		}

		previous := current
		current = next
		logger.LogProcessStep(fmt.Sprintf("Iteration %d: evaluating %s", iteration, utils.TruncateString(current, 120)))

		// EVALUATING: positives then negatives, order preserved.
		outcomes := evaluator.EvaluateAll(current, req.PositiveExamples, true)
		outcomes = append(outcomes, evaluator.EvaluateAll(current, req.NegativeExamples, false)...)

		// Pattern sets reflect only this iteration's outcomes.
		state.WorkingPatterns, state.FailedPatterns = l.partitionPatterns(current, outcomes)

		allPassing := true
		passedCount := 0
		for _, o := range outcomes {
			if o.Passed {
				passedCount++
			} else {
				allPassing = false
			}
		}

		// REASONING: only when something failed.
		if !allPassing {
			if err := ctx.Err(); err != nil {
				return l.cancelled(ctx, iteration-1)
			}
			reasoning, rerr := l.reasoner.ExplainFailures(ctx, current, outcomes, state, req.TaskDescription)
			if rerr != nil {
				if ctx.Err() != nil {
					return l.cancelled(ctx, iteration-1)
				}
				l.publish(events.EventTypeRunFailed, events.RunFailedEvent(l.runID, rerr))
				return rerr
			}
			state.LastReasoning = reasoning
		}

		// EMITTING: the record must reach the caller before the next pass.
		if err := ctx.Err(); err != nil {
			return l.cancelled(ctx, iteration-1)
		}
		record := Iteration{
			Iteration:     iteration,
			Expression:    current,
			Diff:          ExpressionDiff(previous, current),
			Outcomes:      outcomes,
			Documentation: append([]string(nil), state.SelectedDocumentation...),
			LearningState: state.snapshot(),
			AllPassing:    allPassing,
		}
		if err := sink(record); err != nil {
			err = fmt.Errorf("failed to deliver iteration %d: %w", iteration, err)
			l.publish(events.EventTypeRunFailed, events.RunFailedEvent(l.runID, err))
			return err
		}
		l.publish(events.EventTypeIteration, events.IterationEvent(l.runID, iteration, current, passedCount, len(outcomes)))

		if allPassing {
			logger.Logf("Run %s converged after %d iterations", l.runID, iteration)
			l.publish(events.EventTypeRunCompleted, events.RunCompletedEvent(l.runID, current, iteration, time.Since(start)))
			return nil
		}
		priorOutcomes = outcomes
	}
}

// partitionPatterns extracts a pattern per outcome and splits the deduplicated
// results by pass/fail. Sorted for stable records.
func (l *Loop) partitionPatterns(expression string, outcomes []evaluator.Outcome) (working, failed []string) {
	workingSet := make(map[string]struct{})
	failedSet := make(map[string]struct{})
	for _, o := range outcomes {
		pattern, ok := l.extractor.Extract(expression, o.Example)
		if !ok {
			continue
		}
		if o.Passed {
			workingSet[pattern] = struct{}{}
		} else {
			failedSet[pattern] = struct{}{}
		}
	}
	working = setToSortedSlice(workingSet)
	failed = setToSortedSlice(failedSet)
	return working, failed
}

func setToSortedSlice(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// cancelled records the cancellation and returns the context's error. No
// record is emitted after cancellation is observed.
func (l *Loop) cancelled(ctx context.Context, completedIterations int) error {
	utils.GetLogger().Logf("Run %s cancelled after %d iterations", l.runID, completedIterations)
	l.publish(events.EventTypeRunCancelled, events.RunCancelledEvent(l.runID, completedIterations))
	if err := ctx.Err(); err != nil {
		return err
	}
	return context.Canceled
}

func (l *Loop) publish(eventType string, data any) {
	if l.bus == nil {
		return
	}
	l.bus.Publish(eventType, data)
}
