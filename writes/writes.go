package writes

import (
	"strings"

	"github.com/npillmayer/schuko/tracing"
	"github.com/steplens/steplens"
	"github.com/steplens/steplens/script"
)

// tracer traces with key 'steplens.writes'.
func tracer() tracing.Trace {
	return tracing.Select("steplens.writes")
}

// Set maps a 0-indexed source line to the names that line writes, in
// source order. Names may repeat when a line assigns one twice.
type Set map[int][]string

// Compute parses the (already normalized) source lines and collects the
// write set. When parsing fails on a line at or after an injected no-op
// statement, the offending no-ops are blanked and the parse retried; the
// terminal parse error is returned with a nil set.
func Compute(lines []string) (Set, error) {
	work := make([]string, len(lines))
	copy(work, lines)
	var prog *script.Program
	for {
		var err error
		prog, err = script.Parse(work)
		if err == nil {
			break
		}
		perr, ok := err.(*script.ParseError)
		if !ok {
			return nil, err
		}
		changed := false
		for l := perr.LineNo; l >= 0; l-- {
			if l < len(work) && strings.Contains(work[l], steplens.NoopMarker) {
				work[l] = ""
				changed = true
			}
		}
		if !changed {
			return nil, err
		}
		tracer().Debugf("parse failed at line %d, retrying with no-ops blanked", perr.LineNo)
	}
	set := make(Set)
	collectBody(prog.Body, set)
	return set, nil
}

func (s Set) record(line int, name string) {
	if name == steplens.NoopMarker {
		return
	}
	s[line] = append(s[line], name)
}

func collectBody(body []script.Stmt, set Set) {
	for _, st := range body {
		collectStmt(st, set)
	}
}

func collectStmt(st script.Stmt, set Set) {
	line := st.Line()
	switch n := st.(type) {
	case *script.Assign:
		for _, t := range n.Targets {
			recordTarget(set, line, t)
		}
		collectExpr(n.Value, line, set)
	case *script.AugAssign:
		recordTarget(set, line, n.Target)
		collectExpr(n.Value, line, set)
	case *script.ExprStmt:
		collectExpr(n.X, line, set)
	case *script.If:
		collectExpr(n.Cond, line, set)
		collectBody(n.Body, set)
		collectBody(n.Else, set)
	case *script.While:
		collectExpr(n.Cond, line, set)
		collectBody(n.Body, set)
	case *script.For:
		recordTarget(set, line, n.Target)
		collectExpr(n.Iter, line, set)
		collectBody(n.Body, set)
	case *script.FuncDef:
		collectBody(n.Body, set)
	case *script.ClassDef:
		collectBody(n.Body, set)
	case *script.Return:
		if n.Value != nil {
			collectExpr(n.Value, line, set)
		}
	}
}

// recordTarget records the name an assignment target writes. Subscript
// targets write their root variable; attribute targets mutate an object in
// place and write no name at all.
func recordTarget(set Set, line int, target script.Expr) {
	switch t := target.(type) {
	case *script.Name:
		set.record(line, t.Id)
	case *script.Index:
		if id, ok := rootName(t); ok {
			set.record(line, id)
		} else {
			tracer().Infof("no root variable in subscript target at line %d", line)
		}
		collectExpr(t.Sub, line, set)
	case *script.Attr:
		collectExpr(t.X, line, set)
	}
}

// rootName descends an access chain to the variable it starts from.
func rootName(e script.Expr) (string, bool) {
	for {
		switch x := e.(type) {
		case *script.Name:
			return x.Id, true
		case *script.Index:
			e = x.X
		case *script.Attr:
			e = x.X
		default:
			return "", false
		}
	}
}

// collectExpr finds writes hiding inside expressions, i.e. comprehension
// loop variables.
func collectExpr(e script.Expr, line int, set Set) {
	switch x := e.(type) {
	case *script.ListComp:
		recordTarget(set, line, x.Target)
		collectExpr(x.Iter, line, set)
		collectExpr(x.Elt, line, set)
		if x.Cond != nil {
			collectExpr(x.Cond, line, set)
		}
	case *script.ListLit:
		for _, el := range x.Elts {
			collectExpr(el, line, set)
		}
	case *script.DictLit:
		for i := range x.Keys {
			collectExpr(x.Keys[i], line, set)
			collectExpr(x.Values[i], line, set)
		}
	case *script.Unary:
		collectExpr(x.X, line, set)
	case *script.Binary:
		collectExpr(x.L, line, set)
		collectExpr(x.R, line, set)
	case *script.Compare:
		collectExpr(x.L, line, set)
		collectExpr(x.R, line, set)
	case *script.BoolOp:
		collectExpr(x.L, line, set)
		collectExpr(x.R, line, set)
	case *script.Call:
		collectExpr(x.Fun, line, set)
		for _, a := range x.Args {
			collectExpr(a, line, set)
		}
	case *script.Attr:
		collectExpr(x.X, line, set)
	case *script.Index:
		collectExpr(x.X, line, set)
		collectExpr(x.Sub, line, set)
	}
}
