// Package patterns derives short symbolic labels from candidate expressions,
// used to track which syntactic idioms worked or failed across iterations.
package patterns

import "regexp"

// Extractor is the strategy for deriving a pattern label from an expression's
// static text. The default is regex-based; a parser-backed implementation can
// be swapped in without touching the synthesis loop.
type Extractor interface {
	// Extract returns a pattern label and true when one was found.
	Extract(expressionText string, example any) (string, bool)
}

var (
	dottedPathRe   = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)+`)
	functionCallRe = regexp.MustCompile(`\$[A-Za-z_][A-Za-z0-9_]*\(`)
)

// RegexExtractor finds the first dotted path reference in the expression,
// falling back to the first $function( invocation. This is a best-effort
// heuristic over the expression text; not matching anything is expected and
// not an error.
type RegexExtractor struct{}

// NewRegexExtractor returns the default extractor.
func NewRegexExtractor() *RegexExtractor {
	return &RegexExtractor{}
}

// Extract implements Extractor.
func (e *RegexExtractor) Extract(expressionText string, example any) (string, bool) {
	if match := dottedPathRe.FindString(expressionText); match != "" {
		return match, true
	}
	if match := functionCallRe.FindString(expressionText); match != "" {
		// Strip the trailing parenthesis so $count( labels as $count.
		return match[:len(match)-1], true
	}
	return "", false
}
