package trace

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/emirpasic/gods/stacks/arraystack"

	"github.com/steplens/steplens/interp"
)

// LoopFrame tracks one active loop: the call frame it runs in, the header
// line, the header's indentation, and the iteration count so far.
type LoopFrame struct {
	Frame      *interp.Frame
	HeaderLine int
	Indent     int
	Iter       int
}

func (l *LoopFrame) String() string {
	return fmt.Sprintf("iter %d, frame %s at line %d with indent %d",
		l.Iter, l.Frame.Name, l.HeaderLine, l.Indent)
}

// loopStack is the tracer's active-loop stack. Stack depth bounds loop
// nesting; entries are exclusively owned by the session.
type loopStack struct {
	s *arraystack.Stack
}

func newLoopStack() *loopStack {
	return &loopStack{s: arraystack.New()}
}

func (ls *loopStack) empty() bool { return ls.s.Empty() }

func (ls *loopStack) push(l *LoopFrame) { ls.s.Push(l) }

func (ls *loopStack) top() *LoopFrame {
	v, ok := ls.s.Peek()
	if !ok {
		panic("attempt to access loop frame from empty stack")
	}
	return v.(*LoopFrame)
}

func (ls *loopStack) pop() *LoopFrame {
	v, ok := ls.s.Pop()
	if !ok {
		panic("attempt to pop loop frame from empty stack")
	}
	return v.(*LoopFrame)
}

// all returns the active loops outermost first.
func (ls *loopStack) all() []*LoopFrame {
	vals := ls.s.Values() // top first
	out := make([]*LoopFrame, len(vals))
	for i, v := range vals {
		out[len(vals)-1-i] = v.(*LoopFrame)
	}
	return out
}

// iterString joins the iteration counts of all active loops, outermost
// first ("0,2,1").
func (ls *loopStack) iterString() string {
	parts := []string{}
	for _, l := range ls.all() {
		parts = append(parts, strconv.Itoa(l.Iter))
	}
	return strings.Join(parts, ",")
}

// idString joins the header lines of all active loops, outermost first.
func (ls *loopStack) idString() string {
	parts := []string{}
	for _, l := range ls.all() {
		parts = append(parts, strconv.Itoa(l.HeaderLine))
	}
	return strings.Join(parts, ",")
}
