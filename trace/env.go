package trace

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/npillmayer/schuko/tracing"

	"github.com/steplens/steplens"
	"github.com/steplens/steplens/interp"
)

// tracer traces with key 'steplens.trace'.
func tracer() tracing.Trace {
	return tracing.Select("steplens.trace")
}

// Var is one captured variable binding, in textual form. Bindings keep the
// order the program introduced them.
type Var struct {
	Name  string
	Value string
}

// Env is a snapshot of variable bindings and loop context captured at one
// point during execution, or a synthetic loop begin/end marker.
//
// Snapshots carry a time step; markers do not (Time is -1). The Frame field
// is needed for same-frame comparisons during tracing and materialization
// and is stripped from the final timeline.
type Env struct {
	Time      int // -1 for markers
	Frame     *interp.Frame
	Line      steplens.LineKey
	Vars      []Var
	LoopIters string // iteration counts of all active loops, outermost first
	LoopIDs   string // header lines of all active loops, outermost first
	Prev      *steplens.LineKey
	Next      *steplens.LineKey
	RV        *string // textual return value, only on return-variant envs
	Banner    *string // formatted error banner, instead of RV
	BeginLoop *string // marks a loop-body line becoming active
	EndLoop   *string // marks a loop-body line going inactive
}

// IsMarker is true for loop begin/end markers.
func (e *Env) IsMarker() bool {
	return e.BeginLoop != nil || e.EndLoop != nil
}

// MarshalJSON renders the flat object shape the external UI consumes: loop
// context under "#" and "$", variables as top-level keys, line linkage under
// "lineno"/"prev_lineno"/"next_lineno", outcomes under "rv" or
// "Exception Thrown".
func (e *Env) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	first := true
	field := func(name string, v interface{}) {
		if !first {
			b.WriteByte(',')
		}
		first = false
		nb, _ := json.Marshal(name)
		vb, _ := json.Marshal(v)
		b.Write(nb)
		b.WriteByte(':')
		b.Write(vb)
	}
	lineKey := func(k steplens.LineKey) interface{} {
		if k.Return {
			return k.String()
		}
		return k.Line
	}
	switch {
	case e.BeginLoop != nil:
		field("begin_loop", *e.BeginLoop)
	case e.EndLoop != nil:
		field("end_loop", *e.EndLoop)
	default:
		field("time", e.Time)
	}
	field("#", e.LoopIters)
	field("$", e.LoopIDs)
	if !e.IsMarker() {
		for _, v := range e.Vars {
			field(v.Name, v.Value)
		}
		field("lineno", lineKey(e.Line))
		if e.Prev != nil {
			field("prev_lineno", lineKey(*e.Prev))
		}
		if e.Next != nil {
			field("next_lineno", lineKey(*e.Next))
		}
		if e.RV != nil {
			field("rv", *e.RV)
		}
		if e.Banner != nil {
			field("Exception Thrown", *e.Banner)
		}
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

func (e *Env) String() string {
	if e.IsMarker() {
		if e.BeginLoop != nil {
			return fmt.Sprintf("<begin loop #%s>", *e.BeginLoop)
		}
		return fmt.Sprintf("<end loop #%s>", *e.EndLoop)
	}
	return fmt.Sprintf("<env t=%d @%s, %d vars>", e.Time, e.Line, len(e.Vars))
}

// --- Timelines --------------------------------------------------------

// Timeline maps line keys to the ordered list of environments recorded at
// that line, in chronological creation order (or, after materialization, in
// successor order).
type Timeline struct {
	m *treemap.Map // steplens.LineKey -> []*Env
}

// NewTimeline creates an empty timeline.
func NewTimeline() *Timeline {
	return &Timeline{m: treemap.NewWith(steplens.CompareLineKeys)}
}

// At returns the environments recorded at a line key.
func (t *Timeline) At(k steplens.LineKey) []*Env {
	if v, ok := t.m.Get(k); ok {
		return v.([]*Env)
	}
	return nil
}

// Append adds an environment at the end of a line's list.
func (t *Timeline) Append(k steplens.LineKey, env *Env) {
	t.m.Put(k, append(t.At(k), env))
}

// Put replaces a line's list.
func (t *Timeline) Put(k steplens.LineKey, envs []*Env) {
	t.m.Put(k, envs)
}

// Keys returns all line keys in order.
func (t *Timeline) Keys() []steplens.LineKey {
	raw := t.m.Keys()
	keys := make([]steplens.LineKey, len(raw))
	for i, k := range raw {
		keys[i] = k.(steplens.LineKey)
	}
	return keys
}

// Each calls visit for every line in order.
func (t *Timeline) Each(visit func(k steplens.LineKey, envs []*Env)) {
	t.m.Each(func(key interface{}, value interface{}) {
		visit(key.(steplens.LineKey), value.([]*Env))
	})
}

// MarshalJSON renders the timeline as an object keyed by line-key strings
// ("12" for statements, "R12" for returns), lines in ascending order.
func (t *Timeline) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	first := true
	var marshalErr error
	t.Each(func(k steplens.LineKey, envs []*Env) {
		if !first {
			b.WriteByte(',')
		}
		first = false
		kb, _ := json.Marshal(k.String())
		b.Write(kb)
		b.WriteByte(':')
		vb, err := json.Marshal(envs)
		if err != nil {
			marshalErr = err
			return
		}
		b.Write(vb)
	})
	b.WriteByte('}')
	return b.Bytes(), marshalErr
}
