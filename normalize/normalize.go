package normalize

import (
	"strings"

	"github.com/npillmayer/schuko/tracing"
	"github.com/steplens/steplens"
	"github.com/steplens/steplens/script"
)

// tracer traces with key 'steplens.normalize'.
func tracer() tracing.Trace {
	return tracing.Select("steplens.normalize")
}

// Lines normalizes source code for tracing. The returned slice has exactly
// one entry per source line.
func Lines(source string) []string {
	lines := strings.Split(source, "\n")
	stripComments(lines)
	injectNoops(lines)
	return lines
}

// stripComments drops comment text and blanks docstring lines, keeping
// every line in place. Lines the scanner cannot make sense of pass through
// untouched; the parser will complain about them later, with the correct
// line number.
func stripComments(lines []string) {
	for i, line := range lines {
		if steplens.IsBlank(line) {
			continue
		}
		toks, err := script.ScanLine(line)
		if err != nil {
			continue
		}
		kept := toks[:0]
		for _, tok := range toks {
			if tok.TokType() == script.Comment {
				line = strings.TrimRight(line[:tok.Span().From()], " \t")
				break
			}
			kept = append(kept, tok)
		}
		if len(kept) == 1 && kept[0].TokType() == script.String {
			line = "" // docstring line
		}
		lines[i] = line
	}
}

// injectNoops replaces blank lines with marker assignments. Indentation is
// computed in two passes: blanks directly under a block header indent one
// level deeper, all others align with the nearest statement below them.
// The first source line, if blank, stays blank; it cannot sit inside any
// block.
func injectNoops(lines []string) {
	headerIndent := ""
	inHeader := false
	for i, line := range lines {
		stripped := strings.TrimSpace(line)
		switch {
		case stripped == "":
			if inHeader {
				lines[i] = headerIndent + "    "
			}
		case strings.HasSuffix(stripped, ":"):
			headerIndent = line[:steplens.Indent(line)]
			inHeader = true
		default:
			inHeader = false
		}
	}
	wsBelow := ""
	for i := len(lines) - 1; i >= 1; i-- {
		line := lines[i]
		if strings.TrimSpace(line) == "" {
			ws := wsBelow
			if len(line) > len(wsBelow) {
				ws = line
			}
			lines[i] = ws + steplens.NoopMarker + " = 0"
		} else {
			wsBelow = line[:steplens.Indent(line)]
		}
	}
}

// TestComments extracts '##' assertion comments from raw source, with their
// 1-based line numbers, in source order.
func TestComments(source string) []steplens.TestComment {
	var comments []steplens.TestComment
	for i, line := range strings.Split(source, "\n") {
		toks, err := script.ScanLine(line)
		if err != nil {
			tracer().Debugf("skipping unscannable line %d", i+1)
			continue
		}
		for _, tok := range toks {
			if tok.TokType() != script.Comment {
				continue
			}
			if text, ok := strings.CutPrefix(tok.Lexeme(), "##"); ok {
				comments = append(comments, steplens.TestComment{
					Text:   strings.TrimSpace(text),
					LineNo: i + 1,
				})
			}
		}
	}
	return comments
}
