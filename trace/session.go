package trace

import (
	"fmt"

	"github.com/steplens/steplens"
	"github.com/steplens/steplens/interp"
	"github.com/steplens/steplens/script"
)

// DefaultStepBudget bounds the number of recorded time steps. Reaching it
// ends the session cleanly, with whatever timeline has been collected.
const DefaultStepBudget = 100

// OverrideKey addresses one recording event for override replay.
type OverrideKey struct {
	Line steplens.LineKey
	Time int
}

// Overrides maps recording events to variable replacements: the replacement
// expression is evaluated in the live frame and written back before the
// snapshot is taken (enables "what-if" replay).
type Overrides map[OverrideKey]map[string]string

// Session is the tracer. It implements interp.Hooks and owns all
// session-wide mutable state: the time counter, the active-loop stack, the
// previous-environment pointer and the pending exception. A session drives
// exactly one execution.
type Session struct {
	lines       []string
	ip          *interp.Interp
	time        int
	budget      int
	prevEnv     *Env
	data        *Timeline
	activeLoops *loopStack
	preexisting map[string]bool // top-level names present before tracing; nil until captured
	lastExc     *interp.RunError
	overrides   Overrides
}

var _ interp.Hooks = (*Session)(nil)

// SessionOption configures a session.
type SessionOption func(*Session)

// WithOverrides installs override directives.
func WithOverrides(ov Overrides) SessionOption {
	return func(s *Session) { s.overrides = ov }
}

// WithStepBudget replaces the default step budget.
func WithStepBudget(n int) SessionOption {
	return func(s *Session) { s.budget = n }
}

// NewSession creates a tracer for the given normalized source lines.
func NewSession(lines []string, opts ...SessionOption) *Session {
	s := &Session{
		lines:       lines,
		budget:      DefaultStepBudget,
		data:        NewTimeline(),
		activeLoops: newLoopStack(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bind connects the session to the interpreter it traces. Override replay
// and terminal-scope evaluation need the interpreter's evaluation
// capability.
func (s *Session) Bind(ip *interp.Interp) {
	s.ip = ip
}

// Timeline returns the recorded (raw or materialized) timeline.
func (s *Session) Timeline() *Timeline {
	return s.data
}

// Time returns the next time step to be assigned.
func (s *Session) Time() int {
	return s.time
}

// EvalInTerminal evaluates an expression in the terminal (top-level) scope
// of the completed or ongoing session. The assertion harness builds on this.
func (s *Session) EvalInTerminal(text string) (interp.Value, error) {
	if s.ip == nil {
		return nil, fmt.Errorf("session is not bound to an interpreter")
	}
	return s.ip.EvalExprIn(text, s.ip.Globals())
}

// Eval evaluates an already parsed expression in the terminal scope.
func (s *Session) Eval(e script.Expr) (interp.Value, error) {
	if s.ip == nil {
		return nil, fmt.Errorf("session is not bound to an interpreter")
	}
	return s.ip.EvalIn(e, s.ip.Globals())
}

// --- Hook notifications -----------------------------------------------

// BeforeStatement is called by the interpreter before every statement.
// Returning false stops the run (step budget reached).
func (s *Session) BeforeStatement(f *interp.Frame, line int) bool {
	if f.Name == steplens.TopLevelFrameName && s.preexisting == nil {
		s.preexisting = make(map[string]bool)
		for _, name := range f.Bindings.Names() {
			s.preexisting[name] = true
		}
	}
	if f.Synthetic {
		// comprehension scopes are not meaningful for the visualization
		return true
	}
	s.lastExc = nil
	s.recordLoopEnd(f, line)
	if !s.recordEnv(f, steplens.LineAt(line)) {
		return false
	}
	s.recordLoopBegin(f, line)
	return true
}

// OnException latches the error; it emits no environment by itself.
func (s *Session) OnException(f *interp.Frame, err error) {
	if re, ok := err.(*interp.RunError); ok {
		s.lastExc = re
	} else {
		s.lastExc = &interp.RunError{Kind: "Error", Msg: err.Error(), Line: f.CurrentLine}
	}
}

// OnReturn records a return-variant environment carrying the textual return
// value, or an error banner when an exception is unwinding, then reruns
// loop-end detection (a return can close loops even when no further
// statement follows in the caller).
func (s *Session) OnReturn(f *interp.Frame, v interp.Value, line int) {
	if f.Synthetic {
		return
	}
	key := steplens.ReturnAt(line)
	if !s.recordEnv(f, key) {
		return
	}
	envs := s.data.At(key)
	env := envs[len(envs)-1]
	if s.lastExc == nil {
		if v != nil {
			if r, ok := v.Repr(); ok && f.Name != steplens.TopLevelFrameName {
				env.RV = &r
			}
		}
	} else {
		banner := formatBanner(s.lastExc)
		env.Banner = &banner
	}
	s.recordLoopEnd(f, line)
}

// formatBanner renders an exception the way the external UI displays it.
func formatBanner(err *interp.RunError) string {
	html := fmt.Sprintf("<div style='color:red;'>%s: %s</div>", err.Kind, err.Msg)
	return fmt.Sprintf("```html\n%s\n```", html)
}

// --- Loop tracking ----------------------------------------------------

// recordLoopEnd pops loops the current notification has left and appends
// end markers to every line of each popped loop body.
//
// A return pops every loop of its function in one step; otherwise
// indentation falling to or below the loop header's level closes exactly
// one level of nesting. A preceding break never revisits the loop header,
// so its final iteration is counted here instead.
func (s *Session) recordLoopEnd(f *interp.Frame, line int) {
	if s.prevEnv == nil || s.activeLoops.empty() || s.activeLoops.top().Frame != f {
		return
	}
	prevLine := s.prevEnv.Line.Line
	prevStmt := s.lines[prevLine]
	top := s.activeLoops.top()
	currIndent := steplens.Indent(s.lines[line])
	if isReturnStmt(prevStmt) && s.prevEnv.Frame != nil && f.Name == s.prevEnv.Frame.Name {
		// the previous recording was a return of this same function, so
		// every loop local to it is gone in one step
		for !s.activeLoops.empty() {
			top = s.activeLoops.top()
			top.Iter++
			s.appendEndMarkers(top.HeaderLine)
			s.activeLoops.pop()
		}
	} else if currIndent <= top.Indent && line != top.HeaderLine {
		if isBreakStmt(prevStmt) {
			top.Iter++
		}
		s.appendEndMarkers(top.HeaderLine)
		s.activeLoops.pop()
	}
}

// recordLoopBegin pushes a new loop frame when execution reaches a loop
// header not already on top of the stack, or counts another iteration when
// it re-enters the loop it is already in.
func (s *Session) recordLoopBegin(f *interp.Frame, line int) {
	if !isLoopHeader(s.lines[line]) {
		return
	}
	if !s.activeLoops.empty() && s.activeLoops.top().HeaderLine == line {
		s.activeLoops.top().Iter++
		return
	}
	s.activeLoops.push(&LoopFrame{
		Frame:      f,
		HeaderLine: line,
		Indent:     steplens.Indent(s.lines[line]),
	})
	for _, l := range stmtsInLoop(s.lines, line) {
		s.data.Append(steplens.LineAt(l), s.beginMarker())
	}
}

func (s *Session) appendEndMarkers(header int) {
	for _, l := range stmtsInLoop(s.lines, header) {
		s.data.Append(steplens.LineAt(l), s.endMarker())
	}
}

func (s *Session) beginMarker() *Env {
	iters := s.activeLoops.iterString()
	return &Env{
		Time:      -1,
		BeginLoop: &iters,
		LoopIters: iters,
		LoopIDs:   s.activeLoops.idString(),
	}
}

func (s *Session) endMarker() *Env {
	iters := s.activeLoops.iterString()
	return &Env{
		Time:      -1,
		EndLoop:   &iters,
		LoopIters: iters,
		LoopIDs:   s.activeLoops.idString(),
	}
}

// --- Environment recording --------------------------------------------

// recordEnv applies any override directive for this (line, time) window,
// then captures a snapshot of the frame's live bindings. It returns false
// when the step budget is exhausted.
func (s *Session) recordEnv(f *interp.Frame, key steplens.LineKey) bool {
	if ov, ok := s.overrides[OverrideKey{Line: key, Time: s.time}]; ok {
		s.applyOverride(f, key, ov)
	}
	if s.time >= s.budget {
		tracer().Infof("step budget of %d reached, stopping", s.budget)
		return false
	}
	env := &Env{
		Time:      s.time,
		Frame:     f,
		Line:      key,
		LoopIters: s.activeLoops.iterString(),
		LoopIDs:   s.activeLoops.idString(),
	}
	s.time++
	atTopLevel := f.Name == steplens.TopLevelFrameName
	for _, name := range f.Bindings.Names() {
		if name == steplens.NoopMarker || (atTopLevel && s.preexisting[name]) {
			continue
		}
		v, _ := f.Bindings.Resolve(name)
		if r, ok := v.Repr(); ok {
			env.Vars = append(env.Vars, Var{Name: name, Value: r})
		}
	}
	s.data.Append(key, env)
	if s.prevEnv != nil {
		s.prevEnv.Next = &env.Line
		prev := s.prevEnv.Line
		env.Prev = &prev
	}
	s.prevEnv = env
	return true
}

// applyOverride evaluates replacement expressions and writes them into the
// live frame, for every variable present both in the directive and in the
// frame's bindings.
func (s *Session) applyOverride(f *interp.Frame, key steplens.LineKey, ov map[string]string) {
	if s.ip == nil {
		tracer().Errorf("override at (%s,%d) ignored: session not bound", key, s.time)
		return
	}
	for name, expr := range ov {
		old, ok := f.Read(name)
		if !ok {
			continue
		}
		v, err := s.ip.EvalExprIn(expr, f)
		if err != nil {
			tracer().Errorf("override for %q at (%s,%d) failed: %v", name, key, s.time, err)
			continue
		}
		tracer().P("line", key.String()).Debugf("override %q: %s -> %s",
			name, reprOrType(old), reprOrType(v))
		f.Write(name, v)
	}
}

func reprOrType(v interp.Value) string {
	if r, ok := v.Repr(); ok {
		return r
	}
	return "<" + v.Type() + ">"
}
