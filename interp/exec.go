package interp

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/steplens/steplens"
	"github.com/steplens/steplens/script"
)

// Hooks is the debugging interface of the interpreter. A tracer attached
// through it is notified before every statement, at every frame return, and
// when an exception is raised. BeforeStatement returning false stops the run
// cleanly (this is how the step budget cuts off runaway loops).
type Hooks interface {
	BeforeStatement(f *Frame, line int) bool
	OnReturn(f *Frame, v Value, line int)
	OnException(f *Frame, err error)
}

// RunError is a runtime error of the traced program. Kind mirrors the
// language's exception class names ("NameError", "TypeError", …).
type RunError struct {
	Kind string
	Msg  string
	Line int
}

func (e *RunError) Error() string {
	return e.Kind + ": " + e.Msg
}

func runErr(kind, format string, args ...interface{}) *RunError {
	return &RunError{Kind: kind, Msg: fmt.Sprintf(format, args...), Line: -1}
}

// Control-flow signals travel as errors but never escape the interpreter.
type breakSignal struct{}

func (breakSignal) Error() string { return "break" }

type continueSignal struct{}

func (continueSignal) Error() string { return "continue" }

type returnSignal struct{ v Value }

func (returnSignal) Error() string { return "return" }

// errQuit aborts execution without an error (step budget reached).
var errQuit = errors.New("execution stopped")

// --- Interpreter ------------------------------------------------------

// Interp executes one program. It is single-threaded and cooperative:
// control transfers synchronously to the hooks at every notification and
// the program resumes only after the hook returns.
type Interp struct {
	prog    *script.Program
	hooks   Hooks
	frames  *FrameStack
	globals *Frame
	stdout  io.Writer
}

// Option configures an interpreter.
type Option func(*Interp)

// WithHooks attaches a tracing hook set.
func WithHooks(h Hooks) Option {
	return func(ip *Interp) { ip.hooks = h }
}

// WithStdout redirects the program's print output.
func WithStdout(w io.Writer) Option {
	return func(ip *Interp) { ip.stdout = w }
}

// New creates an interpreter for a parsed program.
func New(prog *script.Program, opts ...Option) *Interp {
	ip := &Interp{
		prog:   prog,
		frames: &FrameStack{},
		stdout: os.Stdout,
	}
	for _, opt := range opts {
		opt(ip)
	}
	return ip
}

// Globals returns the top-level frame. It stays valid after Run, so that
// override replay and the assertion harness can evaluate expressions in the
// terminal scope.
func (ip *Interp) Globals() *Frame {
	return ip.globals
}

// Run executes the program's top level. A runtime error of the program is
// returned as *RunError; reaching the step budget is not an error.
func (ip *Interp) Run() error {
	mf := ip.frames.Push(steplens.TopLevelFrameName)
	ip.globals = mf
	// bindings that exist before the first traced statement; the tracer
	// captures and excludes them
	mf.Bindings.Define("__name__", Str("__main__"))
	err := ip.execBlock(ip.prog.Body, mf)
	switch e := err.(type) {
	case nil:
		ip.notifyReturn(mf, None, mf.CurrentLine)
		return nil
	case returnSignal:
		err = ip.at(runErr("SyntaxError", "'return' outside function"), mf.CurrentLine)
	case breakSignal, continueSignal:
		err = ip.at(runErr("SyntaxError", "%q outside loop", e.Error()), mf.CurrentLine)
	}
	if errors.Is(err, errQuit) {
		return nil
	}
	if re, ok := err.(*RunError); ok {
		ip.notifyException(mf, re)
		ip.notifyReturn(mf, nil, mf.CurrentLine)
	}
	return err
}

func (ip *Interp) notifyBefore(f *Frame, line int) bool {
	if ip.hooks == nil {
		return true
	}
	return ip.hooks.BeforeStatement(f, line)
}

func (ip *Interp) notifyReturn(f *Frame, v Value, line int) {
	if ip.hooks != nil {
		ip.hooks.OnReturn(f, v, line)
	}
}

func (ip *Interp) notifyException(f *Frame, err error) {
	if ip.hooks != nil {
		ip.hooks.OnException(f, err)
	}
}

// --- Statement execution ----------------------------------------------

func (ip *Interp) execBlock(stmts []script.Stmt, f *Frame) error {
	for _, s := range stmts {
		if err := ip.execStmt(s, f); err != nil {
			return err
		}
	}
	return nil
}

func (ip *Interp) execStmt(s script.Stmt, f *Frame) error {
	f.CurrentLine = s.Line()
	// loop headers notify once per iteration, from inside their own loop
	switch s.(type) {
	case *script.While, *script.For:
	default:
		if !ip.notifyBefore(f, s.Line()) {
			return errQuit
		}
	}
	switch stmt := s.(type) {
	case *script.Assign:
		v, err := ip.evalExpr(stmt.Value, f)
		if err != nil {
			return ip.at(err, s.Line())
		}
		for _, t := range stmt.Targets {
			if err := ip.assign(t, v, f); err != nil {
				return ip.at(err, s.Line())
			}
		}
		return nil
	case *script.AugAssign:
		cur, err := ip.evalExpr(stmt.Target, f)
		if err != nil {
			return ip.at(err, s.Line())
		}
		rhs, err := ip.evalExpr(stmt.Value, f)
		if err != nil {
			return ip.at(err, s.Line())
		}
		v, err := ip.binary(stmt.Op, cur, rhs)
		if err != nil {
			return ip.at(err, s.Line())
		}
		return ip.at(ip.assign(stmt.Target, v, f), s.Line())
	case *script.ExprStmt:
		_, err := ip.evalExpr(stmt.X, f)
		return ip.at(err, s.Line())
	case *script.If:
		cond, err := ip.evalExpr(stmt.Cond, f)
		if err != nil {
			return ip.at(err, s.Line())
		}
		if cond.Truth() {
			return ip.execBlock(stmt.Body, f)
		}
		return ip.execBlock(stmt.Else, f)
	case *script.While:
		return ip.execWhile(stmt, f)
	case *script.For:
		return ip.execFor(stmt, f)
	case *script.FuncDef:
		f.Bindings.Define(stmt.Name, &Function{
			Name:    stmt.Name,
			Params:  stmt.Params,
			Body:    stmt.Body,
			DefLine: stmt.Line(),
		})
		return nil
	case *script.ClassDef:
		return ip.execClassDef(stmt, f)
	case *script.Return:
		v := Value(None)
		if stmt.Value != nil {
			var err error
			if v, err = ip.evalExpr(stmt.Value, f); err != nil {
				return ip.at(err, s.Line())
			}
		}
		return returnSignal{v: v}
	case *script.Break:
		return breakSignal{}
	case *script.Continue:
		return continueSignal{}
	case *script.Pass:
		return nil
	}
	panic(fmt.Sprintf("unhandled statement type %T", s))
}

func (ip *Interp) execWhile(stmt *script.While, f *Frame) error {
	for {
		f.CurrentLine = stmt.Line()
		if !ip.notifyBefore(f, stmt.Line()) {
			return errQuit
		}
		cond, err := ip.evalExpr(stmt.Cond, f)
		if err != nil {
			return ip.at(err, stmt.Line())
		}
		if !cond.Truth() {
			return nil
		}
		switch err := ip.execBlock(stmt.Body, f).(type) {
		case nil, continueSignal:
		case breakSignal:
			return nil
		default:
			return err
		}
	}
}

func (ip *Interp) execFor(stmt *script.For, f *Frame) error {
	// the header notifies once per element plus once for the exhausted
	// check; break leaves the loop without revisiting the header
	f.CurrentLine = stmt.Line()
	if !ip.notifyBefore(f, stmt.Line()) {
		return errQuit
	}
	iter, err := ip.evalExpr(stmt.Iter, f)
	if err != nil {
		return ip.at(err, stmt.Line())
	}
	items, err := iterate(iter)
	if err != nil {
		return ip.at(err, stmt.Line())
	}
	for i, item := range items {
		if i > 0 {
			f.CurrentLine = stmt.Line()
			if !ip.notifyBefore(f, stmt.Line()) {
				return errQuit
			}
		}
		if err := ip.assign(stmt.Target, item, f); err != nil {
			return ip.at(err, stmt.Line())
		}
		switch err := ip.execBlock(stmt.Body, f).(type) {
		case nil, continueSignal:
		case breakSignal:
			return nil
		default:
			return err
		}
	}
	if len(items) > 0 {
		f.CurrentLine = stmt.Line()
		if !ip.notifyBefore(f, stmt.Line()) {
			return errQuit
		}
	}
	return nil
}

// execClassDef executes a class body in a frame of its own, the way the
// language executes class suites, then collects the methods.
func (ip *Interp) execClassDef(stmt *script.ClassDef, f *Frame) error {
	cf := ip.frames.Push(stmt.Name)
	cf.CurrentLine = stmt.Line()
	if err := ip.execBlock(stmt.Body, cf); err != nil {
		if re, ok := err.(*RunError); ok {
			ip.notifyException(cf, re)
			ip.notifyReturn(cf, nil, cf.CurrentLine)
		}
		ip.frames.Pop()
		return err
	}
	cls := &Class{Name: stmt.Name, Methods: make(map[string]*Function)}
	for _, name := range cf.Bindings.Names() {
		v, _ := cf.Bindings.Resolve(name)
		if fn, ok := v.(*Function); ok {
			cls.Methods[name] = fn
		}
	}
	ip.notifyReturn(cf, None, cf.CurrentLine)
	ip.frames.Pop()
	f.Bindings.Define(stmt.Name, cls)
	return nil
}

// callFunction runs a user function in a fresh frame, reporting return and
// exception notifications for that frame.
func (ip *Interp) callFunction(fn *Function, args []Value, callLine int) (Value, error) {
	if len(args) != len(fn.Params) {
		return nil, runErr("TypeError", "%s() takes %d arguments (%d given)",
			fn.Name, len(fn.Params), len(args))
	}
	nf := ip.frames.Push(fn.Name)
	nf.CurrentLine = callLine
	for i, p := range fn.Params {
		nf.Bindings.Define(p, args[i])
	}
	err := ip.execBlock(fn.Body, nf)
	ret := Value(None)
	switch e := err.(type) {
	case nil:
	case returnSignal:
		ret, err = e.v, nil
	case breakSignal, continueSignal:
		err = ip.at(runErr("SyntaxError", "%q outside loop", e.Error()), nf.CurrentLine)
	}
	if err != nil {
		if re, ok := err.(*RunError); ok {
			ip.notifyException(nf, re)
			ip.notifyReturn(nf, nil, nf.CurrentLine)
		}
		ip.frames.Pop()
		return nil, err
	}
	ip.notifyReturn(nf, ret, nf.CurrentLine)
	ip.frames.Pop()
	return ret, nil
}

// assign binds a value to a name, subscript or attribute target.
func (ip *Interp) assign(target script.Expr, v Value, f *Frame) error {
	switch t := target.(type) {
	case *script.Name:
		f.Bindings.Define(t.Id, v)
		return nil
	case *script.Index:
		container, err := ip.evalExpr(t.X, f)
		if err != nil {
			return err
		}
		sub, err := ip.evalExpr(t.Sub, f)
		if err != nil {
			return err
		}
		return setIndex(container, sub, v)
	case *script.Attr:
		obj, err := ip.evalExpr(t.X, f)
		if err != nil {
			return err
		}
		o, ok := obj.(*Object)
		if !ok {
			return runErr("AttributeError", "%s object has no settable attributes", obj.Type())
		}
		o.Attrs.Define(t.Name, v)
		return nil
	}
	return runErr("SyntaxError", "cannot assign to this expression")
}

// at stamps a runtime error with the line it surfaced on, if it does not
// carry one yet.
func (ip *Interp) at(err error, line int) error {
	if re, ok := err.(*RunError); ok && re.Line < 0 {
		re.Line = line
	}
	return err
}
