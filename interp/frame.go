package interp

import (
	"fmt"

	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'steplens.interp'.
func tracer() tracing.Trace {
	return tracing.Select("steplens.interp")
}

// --- Bindings ---------------------------------------------------------

// Bindings is a binding table for one frame (map-like semantics, but names
// keep their insertion order, which is the order variable snapshots use).
type Bindings struct {
	table map[string]Value
	order []string
}

// NewBindings creates an empty binding table.
func NewBindings() *Bindings {
	return &Bindings{table: make(map[string]Value)}
}

// Resolve checks for a name in the table.
func (b *Bindings) Resolve(name string) (Value, bool) {
	v, ok := b.table[name]
	return v, ok
}

// Define binds a name, inserting it on first definition.
func (b *Bindings) Define(name string, v Value) {
	if _, ok := b.table[name]; !ok {
		b.order = append(b.order, name)
	}
	b.table[name] = v
}

// Names returns all bound names in insertion order.
func (b *Bindings) Names() []string {
	return b.order
}

// Len returns the number of bound names.
func (b *Bindings) Len() int {
	return len(b.table)
}

// --- Frames -----------------------------------------------------------

// Frame is a call frame, representing a piece of memory for an active
// function (or module, or comprehension) scope.
type Frame struct {
	Name        string // function name; "<module>" for top level
	Synthetic   bool   // comprehension scopes, filtered by the tracer
	Bindings    *Bindings
	Parent      *Frame
	CurrentLine int // 0-indexed line of the statement being executed
}

// NewFrame creates a new call frame.
func NewFrame(nm string) *Frame {
	return &Frame{
		Name:     nm,
		Bindings: NewBindings(),
	}
}

func (f *Frame) String() string {
	return fmt.Sprintf("<frame %s @ line %d>", f.Name, f.CurrentLine)
}

// IsRoot is a predicate: Is this a root frame?
func (f *Frame) IsRoot() bool {
	return f.Parent == nil
}

// Read is part of the frame capability interface used for override replay:
// it resolves a name in this frame's local bindings only.
func (f *Frame) Read(name string) (Value, bool) {
	return f.Bindings.Resolve(name)
}

// Write is part of the frame capability interface: it (re-)binds a local
// name in the live frame.
func (f *Frame) Write(name string, v Value) {
	f.Bindings.Define(name, v)
}

// ---------------------------------------------------------------------------

// FrameStack is a (call-)stack of frames.
type FrameStack struct {
	frameBase *Frame
	frameTOS  *Frame
}

// Current gets the current frame of a stack (TOS).
func (fst *FrameStack) Current() *Frame {
	if fst.frameTOS == nil {
		panic("attempt to access frame from empty stack")
	}
	return fst.frameTOS
}

// Globals gets the outermost frame, containing global symbols.
func (fst *FrameStack) Globals() *Frame {
	if fst.frameBase == nil {
		panic("attempt to access global frame from empty call stack")
	}
	return fst.frameBase
}

// Push pushes a new frame as TOS. The frame is constructed, having the
// recent TOS as its parent.
func (fst *FrameStack) Push(nm string) *Frame {
	parent := fst.frameTOS
	newf := NewFrame(nm)
	newf.Parent = parent
	if parent == nil { // the new frame is the global frame
		fst.frameBase = newf
	}
	fst.frameTOS = newf
	tracer().P("frame", newf.Name).Debugf("pushing new frame")
	return newf
}

// Pop pops the top-most frame. Returns the popped frame.
func (fst *FrameStack) Pop() *Frame {
	if fst.frameTOS == nil {
		panic("attempt to pop frame from empty call stack")
	}
	f := fst.frameTOS
	tracer().Debugf("popping frame [%s]", f.Name)
	fst.frameTOS = fst.frameTOS.Parent
	return f
}

// Depth returns the number of frames on the stack.
func (fst *FrameStack) Depth() int {
	d := 0
	for f := fst.frameTOS; f != nil; f = f.Parent {
		d++
	}
	return d
}
