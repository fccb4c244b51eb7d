package steplens

import (
	"fmt"
	"strconv"
	"strings"
)

// --- A general purpose interface for tokens --------------------------------

// TokType is a category type for a Token. We do not define any constants here, as
// it is up to the language front end to define them.
type TokType int

// TokTypeStringer is a type to be provided by a scanner/parser combination to be able
// to print out token categories.
type TokTypeStringer func(TokType) string

// Tokens represent input tokens. They are produced by the script scanner and
// reflect terminals of the teaching language.
//
// An example would be a token for a floating point number:
//
//    TokType = Float       // identifier for this kind of tokens
//    Lexeme  = "3.1416"    // lexeme how it appeared in the input stream
//    Value   = 3.1416      // is a float64 value
//    Span    = 67…73       // occurred from position 67 in the input line
//
type Token interface {
	TokType() TokType
	Lexeme() string
	Value() interface{}
	Span() Span
}

// --- Spans ------------------------------------------------------------

// Span is a small type for capturing a length of input token run. A span
// denotes a start position and the position just behind the end.
type Span [2]uint64 // (x…y)

// From returns the start value of a span.
func (s Span) From() uint64 {
	return s[0]
}

// To returns the end value of a span.
func (s Span) To() uint64 {
	return s[1]
}

// Len returns the length of (x…y)
func (s Span) Len() uint64 {
	return s[1] - s[0]
}

func (s Span) String() string {
	return fmt.Sprintf("(%d…%d)", s[0], s[1])
}

// --- Line keys --------------------------------------------------------

// NoopMarker is the variable name the normalizer assigns on injected no-op
// lines. It never shows up in variable snapshots, write-sets or timelines.
const NoopMarker = "__step_lens__"

// TopLevelFrameName is the name of the outermost call frame, mirroring the
// traced language's convention for module scope.
const TopLevelFrameName = "<module>"

// TestComment is a raw '##' assertion comment extracted from the source,
// before parsing. LineNo is 1-based, for error reporting.
type TestComment struct {
	Text   string
	LineNo int
}

// LineKey addresses one slot of a timeline. Ordinary statement recordings are
// keyed by their 0-indexed line number; recordings made at function return are
// keyed by a distinguished return variant of the same line, so that both kinds
// may coexist at one source line.
type LineKey struct {
	Line   int
	Return bool
}

// LineAt creates a key for an ordinary statement recording.
func LineAt(line int) LineKey {
	return LineKey{Line: line}
}

// ReturnAt creates a key for a return-variant recording.
func ReturnAt(line int) LineKey {
	return LineKey{Line: line, Return: true}
}

// String renders a key the way the persisted run record expects it:
// "12" for statements, "R12" for returns.
func (k LineKey) String() string {
	if k.Return {
		return "R" + strconv.Itoa(k.Line)
	}
	return strconv.Itoa(k.Line)
}

// ParseLineKey is the inverse of LineKey.String.
func ParseLineKey(s string) (LineKey, error) {
	ret := false
	if strings.HasPrefix(s, "R") {
		ret = true
		s = s[1:]
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return LineKey{}, fmt.Errorf("not a line key: %q", s)
	}
	return LineKey{Line: n, Return: ret}, nil
}

// CompareLineKeys orders keys by line number, statement recordings before
// return recordings. Used for deterministic serialization of timelines.
func CompareLineKeys(a, b interface{}) int {
	ka, kb := a.(LineKey), b.(LineKey)
	if ka.Line != kb.Line {
		if ka.Line < kb.Line {
			return -1
		}
		return 1
	}
	switch {
	case ka.Return == kb.Return:
		return 0
	case kb.Return:
		return -1
	}
	return 1
}

// --- Source line helpers ----------------------------------------------

// Indent returns the leading-whitespace length of a source line. Tabs count
// as one, matching how the front end measures indentation.
func Indent(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

// IsBlank is true for lines that carry no statement at all.
func IsBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}
