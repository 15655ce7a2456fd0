package scenario

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DumpDiff renders a line diff between two dumps. Removed lines are
// prefixed with "-", added lines with "+", unchanged lines with a space.
func DumpDiff(want, got string) string {
	dmp := diffmatchpatch.New()

	wantChars, gotChars, lines := dmp.DiffLinesToChars(want, got)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(wantChars, gotChars, false), lines)

	var sb strings.Builder

	for _, d := range diffs {
		prefix := " "

		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		case diffmatchpatch.DiffEqual:
		}

		for line := range strings.Lines(d.Text) {
			sb.WriteString(prefix)
			sb.WriteString(strings.TrimSuffix(line, "\n"))
			sb.WriteByte('\n')
		}
	}

	return sb.String()
}
