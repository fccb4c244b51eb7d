package script

// Syntax tree of the teaching language. Nodes are deliberately small: every
// statement remembers the 0-indexed source line it starts on, which is the
// key both the tracer and the write-set analyzer work with.

// Program is a parsed source file.
type Program struct {
	Body  []Stmt
	Lines []string // the source lines the program was parsed from
}

// --- Statements -------------------------------------------------------

// Stmt is the interface common to all statement nodes.
type Stmt interface {
	Line() int
	stmtNode()
}

type stmt struct {
	line int
}

func (s stmt) Line() int { return s.line }
func (s stmt) stmtNode() {}

// Assign is an assignment statement. Chained assignments ('a = b = 1') carry
// every target, left to right.
type Assign struct {
	stmt
	Targets []Expr
	Value   Expr
}

// AugAssign is an augmented assignment ('x += 1'); Op is the bare operator.
type AugAssign struct {
	stmt
	Target Expr
	Op     string
	Value  Expr
}

// ExprStmt is an expression evaluated for its side effect.
type ExprStmt struct {
	stmt
	X Expr
}

// If is a conditional. 'elif' chains parse as a nested If in Else.
type If struct {
	stmt
	Cond Expr
	Body []Stmt
	Else []Stmt
}

// While is a while loop.
type While struct {
	stmt
	Cond Expr
	Body []Stmt
}

// For is a for-in loop.
type For struct {
	stmt
	Target Expr
	Iter   Expr
	Body   []Stmt
}

// FuncDef is a function definition.
type FuncDef struct {
	stmt
	Name   string
	Params []string
	Body   []Stmt
}

// ClassDef is a class definition; the body may only contain method
// definitions and pass/no-op statements.
type ClassDef struct {
	stmt
	Name string
	Body []Stmt
}

// Return is a return statement; Value may be nil.
type Return struct {
	stmt
	Value Expr
}

// Break is a break statement.
type Break struct{ stmt }

// Continue is a continue statement.
type Continue struct{ stmt }

// Pass is a pass statement (and the parsed form of injected no-op lines).
type Pass struct{ stmt }

// --- Expressions ------------------------------------------------------

// Expr is the interface common to all expression nodes.
type Expr interface {
	exprNode()
}

type expr struct{}

func (expr) exprNode() {}

// Name is an identifier reference.
type Name struct {
	expr
	Id string
}

// IntLit is an integer literal.
type IntLit struct {
	expr
	V int64
}

// FloatLit is a floating point literal.
type FloatLit struct {
	expr
	V float64
}

// StrLit is a string literal (unquoted).
type StrLit struct {
	expr
	V string
}

// BoolLit is True or False.
type BoolLit struct {
	expr
	V bool
}

// NoneLit is None.
type NoneLit struct{ expr }

// ListLit is a list display.
type ListLit struct {
	expr
	Elts []Expr
}

// DictLit is a dict display; Keys and Values run in parallel.
type DictLit struct {
	expr
	Keys   []Expr
	Values []Expr
}

// ListComp is a list comprehension '[Elt for Target in Iter]', with an
// optional trailing 'if Cond'.
type ListComp struct {
	expr
	Elt    Expr
	Target Expr
	Iter   Expr
	Cond   Expr // may be nil
}

// Unary is a prefix operation; Op is "-" or "not".
type Unary struct {
	expr
	Op string
	X  Expr
}

// Binary is an arithmetic operation.
type Binary struct {
	expr
	Op   string
	L, R Expr
}

// Compare is a single comparison; the language does not chain comparisons.
type Compare struct {
	expr
	Op   string
	L, R Expr
}

// BoolOp is a short-circuit "and"/"or".
type BoolOp struct {
	expr
	Op   string
	L, R Expr
}

// Call is a function or method call.
type Call struct {
	expr
	Fun  Expr
	Args []Expr
}

// Attr is an attribute access 'X.Name'.
type Attr struct {
	expr
	X    Expr
	Name string
}

// Index is a subscript 'X[Sub]'.
type Index struct {
	expr
	X   Expr
	Sub Expr
}
