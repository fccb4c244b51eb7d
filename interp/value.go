package interp

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/steplens/steplens/script"
)

// Value is a runtime value of the teaching language.
//
// Repr returns the canonical textual form of a value and true, or false for
// values that have no textual form at all (functions, builtins, classes and
// bound methods are omitted from variable snapshots, not rendered empty).
type Value interface {
	Type() string
	Repr() (string, bool)
	Truth() bool
}

// --- Scalars ----------------------------------------------------------

// Int is an integer value.
type Int int64

func (v Int) Type() string { return "int" }

func (v Int) Repr() (string, bool) { return strconv.FormatInt(int64(v), 10), true }

func (v Int) Truth() bool { return v != 0 }

// Float is a floating point value.
type Float float64

func (v Float) Type() string { return "float" }

func (v Float) Repr() (string, bool) {
	s := strconv.FormatFloat(float64(v), 'g', -1, 64)
	// integral floats keep their trailing ".0", the way the language prints them
	if !strings.ContainsAny(s, ".eE") && !strings.Contains(s, "inf") && !strings.Contains(s, "NaN") {
		s += ".0"
	}
	return s, true
}

func (v Float) Truth() bool { return v != 0 }

// Str is a string value.
type Str string

func (v Str) Type() string { return "str" }

func (v Str) Repr() (string, bool) { return quote(string(v)), true }

func (v Str) Truth() bool { return v != "" }

// Bool is a boolean value.
type Bool bool

func (v Bool) Type() string { return "bool" }

func (v Bool) Repr() (string, bool) {
	if v {
		return "True", true
	}
	return "False", true
}

func (v Bool) Truth() bool { return bool(v) }

// NoneType is the type of None.
type NoneType struct{}

// None is the sole value of NoneType.
var None = NoneType{}

func (NoneType) Type() string { return "NoneType" }

func (NoneType) Repr() (string, bool) { return "None", true }

func (NoneType) Truth() bool { return false }

// --- Containers -------------------------------------------------------

// List is a mutable list value.
type List struct {
	Elts []Value
}

func (v *List) Type() string { return "list" }

func (v *List) Repr() (string, bool) {
	var b strings.Builder
	b.WriteByte('[')
	for i, e := range v.Elts {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(reprOr(e, "..."))
	}
	b.WriteByte(']')
	return b.String(), true
}

func (v *List) Truth() bool { return len(v.Elts) > 0 }

// Dict is a mutable dictionary; entries keep insertion order.
type Dict struct {
	Keys []Value
	Vals []Value
}

func (v *Dict) Type() string { return "dict" }

func (v *Dict) Repr() (string, bool) {
	var b strings.Builder
	b.WriteByte('{')
	for i := range v.Keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(reprOr(v.Keys[i], "..."))
		b.WriteString(": ")
		b.WriteString(reprOr(v.Vals[i], "..."))
	}
	b.WriteByte('}')
	return b.String(), true
}

func (v *Dict) Truth() bool { return len(v.Keys) > 0 }

// lookup finds the slot of a key, or -1.
func (v *Dict) lookup(key Value) int {
	for i, k := range v.Keys {
		if Equal(k, key) {
			return i
		}
	}
	return -1
}

// set binds a key, inserting it on first use.
func (v *Dict) set(key, val Value) {
	if i := v.lookup(key); i >= 0 {
		v.Vals[i] = val
		return
	}
	v.Keys = append(v.Keys, key)
	v.Vals = append(v.Vals, val)
}

// --- Callables and objects --------------------------------------------

// Function is a user-defined function.
type Function struct {
	Name    string
	Params  []string
	Body    []script.Stmt
	DefLine int
}

func (v *Function) Type() string { return "function" }

func (v *Function) Repr() (string, bool) { return "", false }

func (v *Function) Truth() bool { return true }

// Builtin is a function provided by the interpreter.
type Builtin struct {
	Name string
	Fn   func(ip *Interp, args []Value) (Value, error)
}

func (v *Builtin) Type() string { return "builtin" }

func (v *Builtin) Repr() (string, bool) { return "", false }

func (v *Builtin) Truth() bool { return true }

// Class is a user-defined class.
type Class struct {
	Name    string
	Methods map[string]*Function
}

func (v *Class) Type() string { return "class" }

func (v *Class) Repr() (string, bool) { return "", false }

func (v *Class) Truth() bool { return true }

// Object is an instance of a class; attributes keep insertion order.
type Object struct {
	Class *Class
	Attrs *Bindings
}

func (v *Object) Type() string { return v.Class.Name }

func (v *Object) Repr() (string, bool) {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(v.Class.Name)
	for _, name := range v.Attrs.Names() {
		av, _ := v.Attrs.Resolve(name)
		b.WriteByte(' ')
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(reprOr(av, "..."))
	}
	b.WriteByte('>')
	return b.String(), true
}

func (v *Object) Truth() bool { return true }

// BoundMethod is a method resolved on an instance.
type BoundMethod struct {
	Recv *Object
	Fn   *Function
}

func (v *BoundMethod) Type() string { return "method" }

func (v *BoundMethod) Repr() (string, bool) { return "", false }

func (v *BoundMethod) Truth() bool { return true }

// --- Helpers ----------------------------------------------------------

func reprOr(v Value, fallback string) string {
	if s, ok := v.Repr(); ok {
		return s
	}
	return fallback
}

// quote renders a string the way the language does: single quotes, escapes
// for quote, backslash, newline and tab.
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\'':
			b.WriteString("\\'")
		case '\\':
			b.WriteString("\\\\")
		case '\n':
			b.WriteString("\\n")
		case '\t':
			b.WriteString("\\t")
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

// Display renders a value the way print does: like Repr, but strings keep
// their raw text and reprless values fall back to a generic form.
func Display(v Value) string {
	if s, ok := v.(Str); ok {
		return string(s)
	}
	if s, ok := v.Repr(); ok {
		return s
	}
	return fmt.Sprintf("<%s>", v.Type())
}

// asNumber converts numeric values (including booleans) to float64.
func asNumber(v Value) (float64, bool) {
	switch n := v.(type) {
	case Int:
		return float64(n), true
	case Float:
		return float64(n), true
	case Bool:
		if n {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// Equal is structural value equality: numbers compare across int/float/bool,
// containers compare element-wise, instances compare by identity.
func Equal(a, b Value) bool {
	if an, ok := asNumber(a); ok {
		if bn, bok := asNumber(b); bok {
			return an == bn
		}
		return false
	}
	switch av := a.(type) {
	case Str:
		bv, ok := b.(Str)
		return ok && av == bv
	case NoneType:
		_, ok := b.(NoneType)
		return ok
	case *List:
		bv, ok := b.(*List)
		if !ok || len(av.Elts) != len(bv.Elts) {
			return false
		}
		for i := range av.Elts {
			if !Equal(av.Elts[i], bv.Elts[i]) {
				return false
			}
		}
		return true
	case *Dict:
		bv, ok := b.(*Dict)
		if !ok || len(av.Keys) != len(bv.Keys) {
			return false
		}
		for i := range av.Keys {
			j := bv.lookup(av.Keys[i])
			if j < 0 || !Equal(av.Vals[i], bv.Vals[j]) {
				return false
			}
		}
		return true
	}
	return a == b
}
