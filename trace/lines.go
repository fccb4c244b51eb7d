package trace

import (
	"regexp"
	"strings"

	"github.com/steplens/steplens"
)

// Statement classification works on the normalized source text. The
// normalizer guarantees one statement per line, so a line's leading keyword
// identifies it.

var loopHeaderPat = regexp.MustCompile(`^(for|while)\b.*:\s*$`)

// isLoopHeader is true for 'for' and 'while' header lines.
func isLoopHeader(line string) bool {
	return loopHeaderPat.MatchString(strings.TrimSpace(line))
}

// isBreakStmt is true for a bare 'break' statement.
func isBreakStmt(line string) bool {
	return strings.TrimSpace(line) == "break"
}

var returnPat = regexp.MustCompile(`^return\b|^return$`)

// isReturnStmt is true for 'return' statements.
func isReturnStmt(line string) bool {
	return returnPat.MatchString(strings.TrimSpace(line))
}

// stmtsInLoop returns the lines of the loop body below a header line:
// everything after the header whose indentation is deeper than the
// header's, skipping blank lines.
func stmtsInLoop(lines []string, header int) []int {
	var result []int
	loopIndent := steplens.Indent(lines[header])
	for l := header + 1; l < len(lines); l++ {
		if steplens.IsBlank(lines[l]) {
			continue
		}
		if steplens.Indent(lines[l]) <= loopIndent {
			break
		}
		result = append(result, l)
	}
	return result
}
