package check

import (
	"fmt"

	"github.com/npillmayer/schuko/tracing"
	"github.com/steplens/steplens"
	"github.com/steplens/steplens/interp"
	"github.com/steplens/steplens/script"
)

// tracer traces with key 'steplens.check'.
func tracer() tracing.Trace {
	return tracing.Select("steplens.check")
}

// Assertion is one parsed '##' test comment.
type Assertion struct {
	Text     string // the assertion source, without the comment marker
	LineNo   int    // 1-based source line the comment appeared on
	Actual   script.Expr
	Expected script.Expr // nil for a bare call assertion
}

// ParseError describes a malformed assertion.
type ParseError struct {
	LineNo int
	Text   string
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s (line %d): %s", e.Msg, e.LineNo, e.Text)
}

// Parse parses an assertion. LineNo is the 1-based source line of the
// comment, used for error reporting only.
func Parse(text string, lineno int) (*Assertion, error) {
	perr := func(msg string) error {
		return &ParseError{LineNo: lineno, Text: text, Msg: msg}
	}
	e, err := script.ParseExpr(text)
	if err != nil {
		return nil, perr(err.Error())
	}
	a := &Assertion{Text: text, LineNo: lineno}
	switch x := e.(type) {
	case *script.Compare:
		if x.Op != "==" {
			return nil, perr("tests may only use a single == comparison")
		}
		if _, ok := x.L.(*script.Call); !ok {
			return nil, perr("left-hand side of == must be a function call")
		}
		a.Actual, a.Expected = x.L, x.R
	case *script.Call:
		a.Actual = x
	default:
		return nil, perr("test line must be a function call or == comparison")
	}
	return a, nil
}

// Evaluator evaluates a parsed expression in the terminal scope of a
// completed run. *trace.Session satisfies it.
type Evaluator interface {
	Eval(e script.Expr) (interp.Value, error)
}

// Result is the outcome of one assertion.
type Result struct {
	Assertion *Assertion
	Actual    interp.Value
	Expected  interp.Value // nil when the assertion had no expected side
	Passed    *bool        // nil when the assertion had no expected side
}

// Run evaluates a single assertion.
func Run(ev Evaluator, a *Assertion) (Result, error) {
	actual, err := ev.Eval(a.Actual)
	if err != nil {
		return Result{}, err
	}
	r := Result{Assertion: a, Actual: actual}
	if a.Expected != nil {
		expected, err := ev.Eval(a.Expected)
		if err != nil {
			return Result{}, err
		}
		r.Expected = expected
		passed := interp.Equal(actual, expected)
		r.Passed = &passed
	}
	return r, nil
}

// RunAll parses and evaluates every assertion, in source order. Malformed
// or failing-to-evaluate assertions are reported and skipped.
func RunAll(ev Evaluator, comments []steplens.TestComment) []Result {
	var results []Result
	for _, c := range comments {
		a, err := Parse(c.Text, c.LineNo)
		if err != nil {
			tracer().Infof("skipping assertion: %v", err)
			continue
		}
		r, err := Run(ev, a)
		if err != nil {
			tracer().Infof("assertion at line %d failed to evaluate: %v", a.LineNo, err)
			continue
		}
		results = append(results, r)
	}
	return results
}
