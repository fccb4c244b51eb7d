package interp

import (
	"math"
	"strings"

	"github.com/steplens/steplens/script"
)

// evalExpr evaluates an expression in a frame.
func (ip *Interp) evalExpr(e script.Expr, f *Frame) (Value, error) {
	switch x := e.(type) {
	case *script.IntLit:
		return Int(x.V), nil
	case *script.FloatLit:
		return Float(x.V), nil
	case *script.StrLit:
		return Str(x.V), nil
	case *script.BoolLit:
		return Bool(x.V), nil
	case *script.NoneLit:
		return None, nil
	case *script.Name:
		return ip.resolve(x.Id, f)
	case *script.ListLit:
		l := &List{}
		for _, el := range x.Elts {
			v, err := ip.evalExpr(el, f)
			if err != nil {
				return nil, err
			}
			l.Elts = append(l.Elts, v)
		}
		return l, nil
	case *script.DictLit:
		d := &Dict{}
		for i := range x.Keys {
			k, err := ip.evalExpr(x.Keys[i], f)
			if err != nil {
				return nil, err
			}
			v, err := ip.evalExpr(x.Values[i], f)
			if err != nil {
				return nil, err
			}
			d.set(k, v)
		}
		return d, nil
	case *script.ListComp:
		return ip.evalListComp(x, f)
	case *script.Unary:
		v, err := ip.evalExpr(x.X, f)
		if err != nil {
			return nil, err
		}
		return unary(x.Op, v)
	case *script.Binary:
		l, err := ip.evalExpr(x.L, f)
		if err != nil {
			return nil, err
		}
		r, err := ip.evalExpr(x.R, f)
		if err != nil {
			return nil, err
		}
		return ip.binary(x.Op, l, r)
	case *script.Compare:
		l, err := ip.evalExpr(x.L, f)
		if err != nil {
			return nil, err
		}
		r, err := ip.evalExpr(x.R, f)
		if err != nil {
			return nil, err
		}
		return compare(x.Op, l, r)
	case *script.BoolOp:
		l, err := ip.evalExpr(x.L, f)
		if err != nil {
			return nil, err
		}
		if x.Op == "and" {
			if !l.Truth() {
				return l, nil
			}
		} else if l.Truth() {
			return l, nil
		}
		return ip.evalExpr(x.R, f)
	case *script.Call:
		return ip.evalCall(x, f)
	case *script.Attr:
		v, err := ip.evalExpr(x.X, f)
		if err != nil {
			return nil, err
		}
		return ip.attribute(v, x.Name)
	case *script.Index:
		v, err := ip.evalExpr(x.X, f)
		if err != nil {
			return nil, err
		}
		sub, err := ip.evalExpr(x.Sub, f)
		if err != nil {
			return nil, err
		}
		return getIndex(v, sub)
	}
	return nil, runErr("SyntaxError", "cannot evaluate this expression")
}

// resolve looks a name up: local scope, enclosing scope for comprehension
// frames, then module scope, then builtins.
func (ip *Interp) resolve(name string, f *Frame) (Value, error) {
	if v, ok := f.Bindings.Resolve(name); ok {
		return v, nil
	}
	if f.Synthetic && f.Parent != nil {
		if v, ok := f.Parent.Bindings.Resolve(name); ok {
			return v, nil
		}
	}
	if ip.globals != nil && f != ip.globals {
		if v, ok := ip.globals.Bindings.Resolve(name); ok {
			return v, nil
		}
	}
	if v, ok := builtins[name]; ok {
		return v, nil
	}
	return nil, runErr("NameError", "name %q is not defined", name)
}

func (ip *Interp) evalCall(call *script.Call, f *Frame) (Value, error) {
	fn, err := ip.evalExpr(call.Fun, f)
	if err != nil {
		return nil, err
	}
	args := make([]Value, 0, len(call.Args))
	for _, a := range call.Args {
		v, err := ip.evalExpr(a, f)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	switch callee := fn.(type) {
	case *Builtin:
		return callee.Fn(ip, args)
	case *Function:
		return ip.callFunction(callee, args, f.CurrentLine)
	case *BoundMethod:
		return ip.callFunction(callee.Fn, append([]Value{callee.Recv}, args...), f.CurrentLine)
	case *Class:
		obj := &Object{Class: callee, Attrs: NewBindings()}
		if init, ok := callee.Methods["__init__"]; ok {
			if _, err := ip.callFunction(init, append([]Value{obj}, args...), f.CurrentLine); err != nil {
				return nil, err
			}
		} else if len(args) > 0 {
			return nil, runErr("TypeError", "%s() takes no arguments", callee.Name)
		}
		return obj, nil
	}
	return nil, runErr("TypeError", "%q object is not callable", fn.Type())
}

// evalListComp runs a comprehension in a synthetic frame of its own; the
// tracer filters the notifications that frame produces.
func (ip *Interp) evalListComp(comp *script.ListComp, f *Frame) (Value, error) {
	iter, err := ip.evalExpr(comp.Iter, f)
	if err != nil {
		return nil, err
	}
	items, err := iterate(iter)
	if err != nil {
		return nil, err
	}
	sf := ip.frames.Push("<listcomp>")
	sf.Synthetic = true
	sf.CurrentLine = f.CurrentLine
	defer ip.frames.Pop()
	result := &List{}
	for _, item := range items {
		if !ip.notifyBefore(sf, sf.CurrentLine) {
			return nil, errQuit
		}
		if err := ip.assign(comp.Target, item, sf); err != nil {
			return nil, err
		}
		if comp.Cond != nil {
			c, err := ip.evalExpr(comp.Cond, sf)
			if err != nil {
				return nil, err
			}
			if !c.Truth() {
				continue
			}
		}
		v, err := ip.evalExpr(comp.Elt, sf)
		if err != nil {
			return nil, err
		}
		result.Elts = append(result.Elts, v)
	}
	ip.notifyReturn(sf, result, sf.CurrentLine)
	return result, nil
}

// --- Operators --------------------------------------------------------

func unary(op string, v Value) (Value, error) {
	switch op {
	case "not":
		return Bool(!v.Truth()), nil
	case "-":
		switch n := v.(type) {
		case Int:
			return -n, nil
		case Float:
			return -n, nil
		case Bool:
			if n {
				return Int(-1), nil
			}
			return Int(0), nil
		}
		return nil, runErr("TypeError", "bad operand type for unary -: %q", v.Type())
	}
	return nil, runErr("TypeError", "unknown unary operator %q", op)
}

func (ip *Interp) binary(op string, l, r Value) (Value, error) {
	// non-numeric uses of '+' and '*'
	if op == "+" {
		if ls, ok := l.(Str); ok {
			if rs, ok := r.(Str); ok {
				return ls + rs, nil
			}
			return nil, runErr("TypeError", "can only concatenate str to str")
		}
		if ll, ok := l.(*List); ok {
			if rl, ok := r.(*List); ok {
				out := &List{Elts: append(append([]Value{}, ll.Elts...), rl.Elts...)}
				return out, nil
			}
			return nil, runErr("TypeError", "can only concatenate list to list")
		}
	}
	if op == "*" {
		if s, n, ok := strRepeat(l, r); ok {
			return repeatStr(s, n), nil
		}
		if s, n, ok := strRepeat(r, l); ok {
			return repeatStr(s, n), nil
		}
	}
	li, lIsInt := asInt(l)
	ri, rIsInt := asInt(r)
	lf, lok := asNumber(l)
	rf, rok := asNumber(r)
	if !lok || !rok {
		return nil, runErr("TypeError", "unsupported operand types for %s: %q and %q",
			op, l.Type(), r.Type())
	}
	bothInt := lIsInt && rIsInt
	switch op {
	case "+":
		if bothInt {
			return Int(li + ri), nil
		}
		return Float(lf + rf), nil
	case "-":
		if bothInt {
			return Int(li - ri), nil
		}
		return Float(lf - rf), nil
	case "*":
		if bothInt {
			return Int(li * ri), nil
		}
		return Float(lf * rf), nil
	case "/":
		if rf == 0 {
			return nil, runErr("ZeroDivisionError", "division by zero")
		}
		return Float(lf / rf), nil
	case "//":
		if rf == 0 {
			return nil, runErr("ZeroDivisionError", "integer division or modulo by zero")
		}
		if bothInt {
			return Int(floorDiv(li, ri)), nil
		}
		return Float(math.Floor(lf / rf)), nil
	case "%":
		if rf == 0 {
			return nil, runErr("ZeroDivisionError", "integer division or modulo by zero")
		}
		if bothInt {
			return Int(li - floorDiv(li, ri)*ri), nil
		}
		return Float(lf - math.Floor(lf/rf)*rf), nil
	}
	return nil, runErr("TypeError", "unknown operator %q", op)
}

// floorDiv rounds the quotient towards negative infinity, the way the
// language defines '//'.
func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func asInt(v Value) (int64, bool) {
	switch n := v.(type) {
	case Int:
		return int64(n), true
	case Bool:
		if n {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func strRepeat(a, b Value) (Str, int64, bool) {
	s, sok := a.(Str)
	n, nok := asInt(b)
	return s, n, sok && nok
}

func repeatStr(s Str, n int64) Str {
	var out Str
	for ; n > 0; n-- {
		out += s
	}
	return out
}

func compare(op string, l, r Value) (Value, error) {
	switch op {
	case "==":
		return Bool(Equal(l, r)), nil
	case "!=":
		return Bool(!Equal(l, r)), nil
	case "in":
		return contains(r, l)
	}
	// ordering comparisons on numbers and strings
	if lf, ok := asNumber(l); ok {
		if rf, rok := asNumber(r); rok {
			return orderResult(op, lf < rf, lf == rf), nil
		}
	}
	if ls, ok := l.(Str); ok {
		if rs, rok := r.(Str); rok {
			return orderResult(op, ls < rs, ls == rs), nil
		}
	}
	return nil, runErr("TypeError", "%q not supported between %q and %q", op, l.Type(), r.Type())
}

func orderResult(op string, less, eq bool) Bool {
	switch op {
	case "<":
		return Bool(less)
	case "<=":
		return Bool(less || eq)
	case ">":
		return Bool(!less && !eq)
	case ">=":
		return Bool(!less)
	}
	return false
}

func contains(container, elem Value) (Value, error) {
	switch c := container.(type) {
	case *List:
		for _, e := range c.Elts {
			if Equal(e, elem) {
				return Bool(true), nil
			}
		}
		return Bool(false), nil
	case *Dict:
		return Bool(c.lookup(elem) >= 0), nil
	case Str:
		sub, ok := elem.(Str)
		if !ok {
			return nil, runErr("TypeError", "'in <str>' requires str as left operand")
		}
		return Bool(strings.Contains(string(c), string(sub))), nil
	}
	return nil, runErr("TypeError", "argument of type %q is not iterable", container.Type())
}

// --- Subscripts and attributes ----------------------------------------

func getIndex(container, sub Value) (Value, error) {
	switch c := container.(type) {
	case *List:
		i, err := listIndex(len(c.Elts), sub)
		if err != nil {
			return nil, err
		}
		return c.Elts[i], nil
	case Str:
		runes := []rune(string(c))
		i, err := listIndex(len(runes), sub)
		if err != nil {
			return nil, err
		}
		return Str(string(runes[i])), nil
	case *Dict:
		if i := c.lookup(sub); i >= 0 {
			return c.Vals[i], nil
		}
		return nil, runErr("KeyError", "%s", reprOr(sub, "<key>"))
	}
	return nil, runErr("TypeError", "%q object is not subscriptable", container.Type())
}

func setIndex(container, sub, v Value) error {
	switch c := container.(type) {
	case *List:
		i, err := listIndex(len(c.Elts), sub)
		if err != nil {
			return err
		}
		c.Elts[i] = v
		return nil
	case *Dict:
		c.set(sub, v)
		return nil
	}
	return runErr("TypeError", "%q object does not support item assignment", container.Type())
}

// listIndex resolves a (possibly negative) subscript against a length.
func listIndex(length int, sub Value) (int, error) {
	n, ok := asInt(sub)
	if !ok {
		return 0, runErr("TypeError", "indices must be integers, not %q", sub.Type())
	}
	i := int(n)
	if i < 0 {
		i += length
	}
	if i < 0 || i >= length {
		return 0, runErr("IndexError", "index out of range")
	}
	return i, nil
}

func (ip *Interp) attribute(v Value, name string) (Value, error) {
	switch o := v.(type) {
	case *Object:
		if av, ok := o.Attrs.Resolve(name); ok {
			return av, nil
		}
		if m, ok := o.Class.Methods[name]; ok {
			return &BoundMethod{Recv: o, Fn: m}, nil
		}
	case *List:
		if b, ok := listMethods(o, name); ok {
			return b, nil
		}
	case *Dict:
		if b, ok := dictMethods(o, name); ok {
			return b, nil
		}
	case Str:
		if b, ok := strMethods(o, name); ok {
			return b, nil
		}
	}
	return nil, runErr("AttributeError", "%q object has no attribute %q", v.Type(), name)
}
