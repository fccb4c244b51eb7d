package script

import (
	"fmt"

	"github.com/steplens/steplens"
)

// ParseError is returned for syntactically invalid source. LineNo is the
// 0-indexed source line the error was detected on; the write-set analyzer
// uses it to blank injected no-op lines and retry.
type ParseError struct {
	LineNo int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.LineNo+1, e.Msg)
}

func parseErr(line int, format string, args ...interface{}) *ParseError {
	return &ParseError{LineNo: line, Msg: fmt.Sprintf(format, args...)}
}

// --- Line records -----------------------------------------------------

// srcLine is one non-blank source line, tokenized.
type srcLine struct {
	no     int // 0-indexed
	indent int
	toks   []steplens.Token
}

// Parse parses teaching-language source, given line by line. Blank and
// comment-only lines are skipped; they never change block structure.
func Parse(lines []string) (*Program, error) {
	p := &parser{}
	for no, text := range lines {
		if steplens.IsBlank(text) {
			continue
		}
		toks, err := ScanLine(text)
		if err != nil {
			return nil, parseErr(no, "%v", err)
		}
		toks = dropComments(toks)
		if len(toks) == 0 {
			continue
		}
		p.lines = append(p.lines, srcLine{no: no, indent: steplens.Indent(text), toks: toks})
	}
	var body []Stmt
	if len(p.lines) > 0 {
		if p.lines[0].indent != 0 {
			return nil, parseErr(p.lines[0].no, "unexpected indent")
		}
		var err error
		body, err = p.parseBlock(0, false)
		if err != nil {
			return nil, err
		}
		if p.pos < len(p.lines) {
			// only reachable through an indentation mismatch
			return nil, parseErr(p.lines[p.pos].no, "unexpected indent")
		}
	}
	return &Program{Body: body, Lines: lines}, nil
}

// ParseExpr parses a single expression, e.g. an override replacement or an
// assertion operand.
func ParseExpr(text string) (Expr, error) {
	toks, err := ScanLine(text)
	if err != nil {
		return nil, parseErr(0, "%v", err)
	}
	lp := &lineParser{toks: dropComments(toks)}
	e, err := lp.parseExpr()
	if err != nil {
		return nil, err
	}
	if !lp.atEnd() {
		return nil, parseErr(0, "unexpected %q after expression", lp.peek().Lexeme())
	}
	return e, nil
}

func dropComments(toks []steplens.Token) []steplens.Token {
	out := toks[:0]
	for _, t := range toks {
		if t.TokType() != Comment {
			out = append(out, t)
		}
	}
	return out
}

// --- Block structure --------------------------------------------------

type parser struct {
	lines []srcLine
	pos   int
}

// parseBlock parses statements at exactly the given indentation until the
// indentation falls below it. Inside a class body only method definitions
// and pass are permitted.
func (p *parser) parseBlock(indent int, classBody bool) ([]Stmt, error) {
	var body []Stmt
	for p.pos < len(p.lines) {
		ln := p.lines[p.pos]
		if ln.indent < indent {
			break
		}
		if ln.indent > indent {
			return nil, parseErr(ln.no, "unexpected indent")
		}
		s, err := p.parseStmt(ln, classBody)
		if err != nil {
			return nil, err
		}
		body = append(body, s)
	}
	return body, nil
}

// parseSuite parses the indented suite following a ':' header line.
func (p *parser) parseSuite(headerIndent int, headerLine int, classBody bool) ([]Stmt, error) {
	if p.pos >= len(p.lines) || p.lines[p.pos].indent <= headerIndent {
		return nil, parseErr(headerLine, "expected an indented block")
	}
	return p.parseBlock(p.lines[p.pos].indent, classBody)
}

func (p *parser) parseStmt(ln srcLine, classBody bool) (Stmt, error) {
	lp := &lineParser{toks: ln.toks, lineNo: ln.no}
	base := stmt{line: ln.no}
	if classBody && !(lp.atKeyword("def") || lp.atKeyword("pass")) {
		return nil, parseErr(ln.no, "only method definitions are allowed in a class body")
	}
	switch {
	case lp.atKeyword("if"):
		return p.parseIf(ln, lp)
	case lp.atKeyword("elif") || lp.atKeyword("else"):
		return nil, parseErr(ln.no, "%q without a leading if", lp.peek().Lexeme())
	case lp.atKeyword("while"):
		lp.next()
		cond, err := lp.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := lp.expectColonEnd(); err != nil {
			return nil, err
		}
		p.pos++
		body, err := p.parseSuite(ln.indent, ln.no, false)
		if err != nil {
			return nil, err
		}
		return &While{stmt: base, Cond: cond, Body: body}, nil
	case lp.atKeyword("for"):
		lp.next()
		target, err := lp.parseTarget()
		if err != nil {
			return nil, err
		}
		if !lp.eatKeyword("in") {
			return nil, parseErr(ln.no, "expected 'in' in for statement")
		}
		iter, err := lp.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := lp.expectColonEnd(); err != nil {
			return nil, err
		}
		p.pos++
		body, err := p.parseSuite(ln.indent, ln.no, false)
		if err != nil {
			return nil, err
		}
		return &For{stmt: base, Target: target, Iter: iter, Body: body}, nil
	case lp.atKeyword("def"):
		lp.next()
		name, err := lp.expectIdent()
		if err != nil {
			return nil, err
		}
		params, err := lp.parseParams()
		if err != nil {
			return nil, err
		}
		if err := lp.expectColonEnd(); err != nil {
			return nil, err
		}
		p.pos++
		body, err := p.parseSuite(ln.indent, ln.no, false)
		if err != nil {
			return nil, err
		}
		return &FuncDef{stmt: base, Name: name, Params: params, Body: body}, nil
	case lp.atKeyword("class"):
		lp.next()
		name, err := lp.expectIdent()
		if err != nil {
			return nil, err
		}
		if err := lp.expectColonEnd(); err != nil {
			return nil, err
		}
		p.pos++
		body, err := p.parseSuite(ln.indent, ln.no, true)
		if err != nil {
			return nil, err
		}
		return &ClassDef{stmt: base, Name: name, Body: body}, nil
	case lp.atKeyword("return"):
		lp.next()
		var val Expr
		if !lp.atEnd() {
			var err error
			if val, err = lp.parseExpr(); err != nil {
				return nil, err
			}
		}
		if err := lp.expectEnd(); err != nil {
			return nil, err
		}
		p.pos++
		return &Return{stmt: base, Value: val}, nil
	case lp.atKeyword("break"):
		lp.next()
		if err := lp.expectEnd(); err != nil {
			return nil, err
		}
		p.pos++
		return &Break{stmt: base}, nil
	case lp.atKeyword("continue"):
		lp.next()
		if err := lp.expectEnd(); err != nil {
			return nil, err
		}
		p.pos++
		return &Continue{stmt: base}, nil
	case lp.atKeyword("pass"):
		lp.next()
		if err := lp.expectEnd(); err != nil {
			return nil, err
		}
		p.pos++
		return &Pass{stmt: base}, nil
	}
	return p.parseSimpleStmt(ln, lp, base)
}

func (p *parser) parseIf(ln srcLine, lp *lineParser) (Stmt, error) {
	lp.next() // 'if' or 'elif'
	cond, err := lp.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := lp.expectColonEnd(); err != nil {
		return nil, err
	}
	p.pos++
	body, err := p.parseSuite(ln.indent, ln.no, false)
	if err != nil {
		return nil, err
	}
	node := &If{stmt: stmt{line: ln.no}, Cond: cond, Body: body}
	if p.pos < len(p.lines) && p.lines[p.pos].indent == ln.indent {
		next := p.lines[p.pos]
		nlp := &lineParser{toks: next.toks, lineNo: next.no}
		switch {
		case nlp.atKeyword("elif"):
			elifStmt, err := p.parseIf(next, nlp)
			if err != nil {
				return nil, err
			}
			node.Else = []Stmt{elifStmt}
		case nlp.atKeyword("else"):
			nlp.next()
			if err := nlp.expectColonEnd(); err != nil {
				return nil, err
			}
			p.pos++
			if node.Else, err = p.parseSuite(next.indent, next.no, false); err != nil {
				return nil, err
			}
		}
	}
	return node, nil
}

// parseSimpleStmt parses expression statements and (possibly chained or
// augmented) assignments.
func (p *parser) parseSimpleStmt(ln srcLine, lp *lineParser, base stmt) (Stmt, error) {
	first, err := lp.parseExpr()
	if err != nil {
		return nil, err
	}
	switch {
	case lp.atOp("="):
		targets := []Expr{first}
		var value Expr = nil
		for lp.eatOp("=") {
			next, err := lp.parseExpr()
			if err != nil {
				return nil, err
			}
			if lp.atOp("=") {
				targets = append(targets, next)
			} else {
				value = next
			}
		}
		for _, t := range targets {
			if !isTarget(t) {
				return nil, parseErr(ln.no, "cannot assign to this expression")
			}
		}
		if err := lp.expectEnd(); err != nil {
			return nil, err
		}
		p.pos++
		return &Assign{stmt: base, Targets: targets, Value: value}, nil
	case lp.atAnyOp("+=", "-=", "*=", "/="):
		op := lp.next().Lexeme()
		if !isTarget(first) {
			return nil, parseErr(ln.no, "cannot assign to this expression")
		}
		value, err := lp.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := lp.expectEnd(); err != nil {
			return nil, err
		}
		p.pos++
		return &AugAssign{stmt: base, Target: first, Op: op[:1], Value: value}, nil
	}
	if err := lp.expectEnd(); err != nil {
		return nil, err
	}
	p.pos++
	return &ExprStmt{stmt: base, X: first}, nil
}

// isTarget reports whether an expression may appear on the left-hand side
// of an assignment.
func isTarget(e Expr) bool {
	switch e.(type) {
	case *Name, *Index, *Attr:
		return true
	}
	return false
}

// --- Expression parsing -----------------------------------------------

// lineParser is a cursor over the tokens of one line.
type lineParser struct {
	toks   []steplens.Token
	i      int
	lineNo int
}

func (lp *lineParser) atEnd() bool { return lp.i >= len(lp.toks) }

func (lp *lineParser) peek() steplens.Token {
	if lp.atEnd() {
		return LToken{kind: EOF}
	}
	return lp.toks[lp.i]
}

func (lp *lineParser) next() steplens.Token {
	t := lp.peek()
	if !lp.atEnd() {
		lp.i++
	}
	return t
}

func (lp *lineParser) atKeyword(kw string) bool {
	t := lp.peek()
	return t.TokType() == Keyword && t.Lexeme() == kw
}

func (lp *lineParser) eatKeyword(kw string) bool {
	if lp.atKeyword(kw) {
		lp.i++
		return true
	}
	return false
}

func (lp *lineParser) atOp(op string) bool {
	t := lp.peek()
	return t.TokType() == Op && t.Lexeme() == op
}

func (lp *lineParser) atAnyOp(ops ...string) bool {
	for _, op := range ops {
		if lp.atOp(op) {
			return true
		}
	}
	return false
}

func (lp *lineParser) eatOp(op string) bool {
	if lp.atOp(op) {
		lp.i++
		return true
	}
	return false
}

func (lp *lineParser) expectOp(op string) error {
	if !lp.eatOp(op) {
		return parseErr(lp.lineNo, "expected %q, found %q", op, lp.peek().Lexeme())
	}
	return nil
}

func (lp *lineParser) expectIdent() (string, error) {
	t := lp.peek()
	if t.TokType() != Ident {
		return "", parseErr(lp.lineNo, "expected identifier, found %q", t.Lexeme())
	}
	lp.i++
	return t.Lexeme(), nil
}

func (lp *lineParser) expectEnd() error {
	if !lp.atEnd() {
		return parseErr(lp.lineNo, "unexpected %q at end of statement", lp.peek().Lexeme())
	}
	return nil
}

func (lp *lineParser) expectColonEnd() error {
	if err := lp.expectOp(":"); err != nil {
		return err
	}
	return lp.expectEnd()
}

func (lp *lineParser) parseParams() ([]string, error) {
	if err := lp.expectOp("("); err != nil {
		return nil, err
	}
	params := []string{}
	for !lp.atOp(")") {
		name, err := lp.expectIdent()
		if err != nil {
			return nil, err
		}
		params = append(params, name)
		if !lp.eatOp(",") {
			break
		}
	}
	return params, lp.expectOp(")")
}

// parseTarget parses a loop or comprehension target (a bare name).
func (lp *lineParser) parseTarget() (Expr, error) {
	name, err := lp.expectIdent()
	if err != nil {
		return nil, err
	}
	return &Name{Id: name}, nil
}

// parseExpr parses with the usual precedence ladder:
// or < and < not < comparison < additive < multiplicative < unary < postfix.
func (lp *lineParser) parseExpr() (Expr, error) {
	return lp.parseOr()
}

func (lp *lineParser) parseOr() (Expr, error) {
	l, err := lp.parseAnd()
	if err != nil {
		return nil, err
	}
	for lp.eatKeyword("or") {
		r, err := lp.parseAnd()
		if err != nil {
			return nil, err
		}
		l = &BoolOp{Op: "or", L: l, R: r}
	}
	return l, nil
}

func (lp *lineParser) parseAnd() (Expr, error) {
	l, err := lp.parseNot()
	if err != nil {
		return nil, err
	}
	for lp.eatKeyword("and") {
		r, err := lp.parseNot()
		if err != nil {
			return nil, err
		}
		l = &BoolOp{Op: "and", L: l, R: r}
	}
	return l, nil
}

func (lp *lineParser) parseNot() (Expr, error) {
	if lp.eatKeyword("not") {
		x, err := lp.parseNot()
		if err != nil {
			return nil, err
		}
		return &Unary{Op: "not", X: x}, nil
	}
	return lp.parseCompare()
}

func (lp *lineParser) parseCompare() (Expr, error) {
	l, err := lp.parseAdditive()
	if err != nil {
		return nil, err
	}
	var op string
	switch {
	case lp.atAnyOp("==", "!=", "<", "<=", ">", ">="):
		op = lp.next().Lexeme()
	case lp.atKeyword("in"):
		lp.next()
		op = "in"
	default:
		return l, nil
	}
	r, err := lp.parseAdditive()
	if err != nil {
		return nil, err
	}
	if lp.atAnyOp("==", "!=", "<", "<=", ">", ">=") || lp.atKeyword("in") {
		return nil, parseErr(lp.lineNo, "comparisons cannot be chained")
	}
	return &Compare{Op: op, L: l, R: r}, nil
}

func (lp *lineParser) parseAdditive() (Expr, error) {
	l, err := lp.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for lp.atAnyOp("+", "-") {
		op := lp.next().Lexeme()
		r, err := lp.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		l = &Binary{Op: op, L: l, R: r}
	}
	return l, nil
}

func (lp *lineParser) parseMultiplicative() (Expr, error) {
	l, err := lp.parseUnary()
	if err != nil {
		return nil, err
	}
	for lp.atAnyOp("*", "/", "//", "%") {
		op := lp.next().Lexeme()
		r, err := lp.parseUnary()
		if err != nil {
			return nil, err
		}
		l = &Binary{Op: op, L: l, R: r}
	}
	return l, nil
}

func (lp *lineParser) parseUnary() (Expr, error) {
	if lp.eatOp("-") {
		x, err := lp.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Unary{Op: "-", X: x}, nil
	}
	return lp.parsePostfix()
}

func (lp *lineParser) parsePostfix() (Expr, error) {
	e, err := lp.parseAtom()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case lp.eatOp("("):
			args := []Expr{}
			for !lp.atOp(")") {
				a, err := lp.parseExpr()
				if err != nil {
					return nil, err
				}
				args = append(args, a)
				if !lp.eatOp(",") {
					break
				}
			}
			if err := lp.expectOp(")"); err != nil {
				return nil, err
			}
			e = &Call{Fun: e, Args: args}
		case lp.eatOp("."):
			name, err := lp.expectIdent()
			if err != nil {
				return nil, err
			}
			e = &Attr{X: e, Name: name}
		case lp.eatOp("["):
			sub, err := lp.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := lp.expectOp("]"); err != nil {
				return nil, err
			}
			e = &Index{X: e, Sub: sub}
		default:
			return e, nil
		}
	}
}

func (lp *lineParser) parseAtom() (Expr, error) {
	t := lp.peek()
	switch t.TokType() {
	case Int:
		lp.next()
		return &IntLit{V: t.Value().(int64)}, nil
	case Float:
		lp.next()
		return &FloatLit{V: t.Value().(float64)}, nil
	case String:
		lp.next()
		return &StrLit{V: t.Value().(string)}, nil
	case Ident:
		lp.next()
		return &Name{Id: t.Lexeme()}, nil
	case Keyword:
		switch t.Lexeme() {
		case "True":
			lp.next()
			return &BoolLit{V: true}, nil
		case "False":
			lp.next()
			return &BoolLit{V: false}, nil
		case "None":
			lp.next()
			return &NoneLit{}, nil
		}
	case Op:
		switch t.Lexeme() {
		case "(":
			lp.next()
			e, err := lp.parseExpr()
			if err != nil {
				return nil, err
			}
			return e, lp.expectOp(")")
		case "[":
			return lp.parseListDisplay()
		case "{":
			return lp.parseDictDisplay()
		}
	}
	return nil, parseErr(lp.lineNo, "unexpected %q in expression", t.Lexeme())
}

func (lp *lineParser) parseListDisplay() (Expr, error) {
	lp.next() // '['
	if lp.eatOp("]") {
		return &ListLit{}, nil
	}
	first, err := lp.parseExpr()
	if err != nil {
		return nil, err
	}
	if lp.eatKeyword("for") {
		target, err := lp.parseTarget()
		if err != nil {
			return nil, err
		}
		if !lp.eatKeyword("in") {
			return nil, parseErr(lp.lineNo, "expected 'in' in comprehension")
		}
		iter, err := lp.parseOr()
		if err != nil {
			return nil, err
		}
		var cond Expr
		if lp.eatKeyword("if") {
			if cond, err = lp.parseExpr(); err != nil {
				return nil, err
			}
		}
		if err := lp.expectOp("]"); err != nil {
			return nil, err
		}
		return &ListComp{Elt: first, Target: target, Iter: iter, Cond: cond}, nil
	}
	elts := []Expr{first}
	for lp.eatOp(",") {
		e, err := lp.parseExpr()
		if err != nil {
			return nil, err
		}
		elts = append(elts, e)
	}
	if err := lp.expectOp("]"); err != nil {
		return nil, err
	}
	return &ListLit{Elts: elts}, nil
}

func (lp *lineParser) parseDictDisplay() (Expr, error) {
	lp.next() // '{'
	d := &DictLit{}
	for !lp.atOp("}") {
		k, err := lp.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := lp.expectOp(":"); err != nil {
			return nil, err
		}
		v, err := lp.parseExpr()
		if err != nil {
			return nil, err
		}
		d.Keys = append(d.Keys, k)
		d.Values = append(d.Values, v)
		if !lp.eatOp(",") {
			break
		}
	}
	return d, lp.expectOp("}")
}
