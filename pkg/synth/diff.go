package synth

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// ExpressionDiff renders a compact textual diff between two candidate
// expressions for display alongside an iteration record. Returns the empty
// string when there is nothing to compare.
func ExpressionDiff(previous, next string) string {
	if previous == "" || previous == next {
		return ""
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(previous, next, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var b strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			b.WriteString("[-" + d.Text + "-]")
		case diffmatchpatch.DiffInsert:
			b.WriteString("[+" + d.Text + "+]")
		default:
			b.WriteString(d.Text)
		}
	}
	return b.String()
}
