package interp

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/steplens/steplens/script"
)

// Builtins of the teaching language. They cover what short teaching-scale
// programs reach for; there is no import mechanism.
var builtins = map[string]Value{}

func init() {
	reg := func(name string, fn func(ip *Interp, args []Value) (Value, error)) {
		builtins[name] = &Builtin{Name: name, Fn: fn}
	}
	reg("print", biPrint)
	reg("range", biRange)
	reg("len", biLen)
	reg("abs", biAbs)
	reg("min", biMinMax(true))
	reg("max", biMinMax(false))
	reg("sum", biSum)
	reg("str", biStr)
	reg("int", biInt)
	reg("float", biFloat)
}

func biPrint(ip *Interp, args []Value) (Value, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = Display(a)
	}
	fmt.Fprintln(ip.stdout, strings.Join(parts, " "))
	return None, nil
}

func biRange(ip *Interp, args []Value) (Value, error) {
	var start, stop, step int64 = 0, 0, 1
	ints := make([]int64, len(args))
	for i, a := range args {
		n, ok := asInt(a)
		if !ok {
			return nil, runErr("TypeError", "range() arguments must be integers")
		}
		ints[i] = n
	}
	switch len(args) {
	case 1:
		stop = ints[0]
	case 2:
		start, stop = ints[0], ints[1]
	case 3:
		start, stop, step = ints[0], ints[1], ints[2]
		if step == 0 {
			return nil, runErr("ValueError", "range() step must not be zero")
		}
	default:
		return nil, runErr("TypeError", "range() takes 1 to 3 arguments")
	}
	l := &List{}
	if step > 0 {
		for i := start; i < stop; i += step {
			l.Elts = append(l.Elts, Int(i))
		}
	} else {
		for i := start; i > stop; i += step {
			l.Elts = append(l.Elts, Int(i))
		}
	}
	return l, nil
}

func biLen(ip *Interp, args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, runErr("TypeError", "len() takes exactly one argument")
	}
	switch v := args[0].(type) {
	case *List:
		return Int(len(v.Elts)), nil
	case *Dict:
		return Int(len(v.Keys)), nil
	case Str:
		return Int(len([]rune(string(v)))), nil
	}
	return nil, runErr("TypeError", "object of type %q has no len()", args[0].Type())
}

func biAbs(ip *Interp, args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, runErr("TypeError", "abs() takes exactly one argument")
	}
	switch v := args[0].(type) {
	case Int:
		if v < 0 {
			return -v, nil
		}
		return v, nil
	case Float:
		if v < 0 {
			return -v, nil
		}
		return v, nil
	case Bool:
		n, _ := asInt(v)
		return Int(n), nil
	}
	return nil, runErr("TypeError", "bad operand type for abs(): %q", args[0].Type())
}

func biMinMax(min bool) func(ip *Interp, args []Value) (Value, error) {
	return func(ip *Interp, args []Value) (Value, error) {
		items := args
		if len(args) == 1 {
			l, ok := args[0].(*List)
			if !ok {
				return nil, runErr("TypeError", "argument is not iterable")
			}
			items = l.Elts
		}
		if len(items) == 0 {
			return nil, runErr("ValueError", "arg is an empty sequence")
		}
		best := items[0]
		for _, v := range items[1:] {
			op := ">"
			if min {
				op = "<"
			}
			less, err := compare(op, v, best)
			if err != nil {
				return nil, err
			}
			if less.Truth() {
				best = v
			}
		}
		return best, nil
	}
}

func biSum(ip *Interp, args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, runErr("TypeError", "sum() takes exactly one argument")
	}
	l, ok := args[0].(*List)
	if !ok {
		return nil, runErr("TypeError", "argument is not iterable")
	}
	var acc Value = Int(0)
	for _, v := range l.Elts {
		var err error
		if acc, err = ip.binary("+", acc, v); err != nil {
			return nil, err
		}
	}
	return acc, nil
}

func biStr(ip *Interp, args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, runErr("TypeError", "str() takes exactly one argument")
	}
	return Str(Display(args[0])), nil
}

func biInt(ip *Interp, args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, runErr("TypeError", "int() takes exactly one argument")
	}
	switch v := args[0].(type) {
	case Int:
		return v, nil
	case Bool:
		n, _ := asInt(v)
		return Int(n), nil
	case Float:
		return Int(int64(v)), nil
	case Str:
		n, err := strconv.ParseInt(strings.TrimSpace(string(v)), 10, 64)
		if err != nil {
			return nil, runErr("ValueError", "invalid literal for int(): %q", string(v))
		}
		return Int(n), nil
	}
	return nil, runErr("TypeError", "int() argument must be a string or a number")
}

func biFloat(ip *Interp, args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, runErr("TypeError", "float() takes exactly one argument")
	}
	switch v := args[0].(type) {
	case Float:
		return v, nil
	case Int:
		return Float(v), nil
	case Bool:
		n, _ := asInt(v)
		return Float(n), nil
	case Str:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
		if err != nil {
			return nil, runErr("ValueError", "could not convert string to float: %q", string(v))
		}
		return Float(f), nil
	}
	return nil, runErr("TypeError", "float() argument must be a string or a number")
}

// --- Methods on container and string values ---------------------------

func listMethods(l *List, name string) (Value, bool) {
	switch name {
	case "append":
		return &Builtin{Name: "append", Fn: func(ip *Interp, args []Value) (Value, error) {
			if len(args) != 1 {
				return nil, runErr("TypeError", "append() takes exactly one argument")
			}
			l.Elts = append(l.Elts, args[0])
			return None, nil
		}}, true
	case "pop":
		return &Builtin{Name: "pop", Fn: func(ip *Interp, args []Value) (Value, error) {
			if len(l.Elts) == 0 {
				return nil, runErr("IndexError", "pop from empty list")
			}
			at := len(l.Elts) - 1
			if len(args) == 1 {
				i, err := listIndex(len(l.Elts), args[0])
				if err != nil {
					return nil, err
				}
				at = i
			} else if len(args) > 1 {
				return nil, runErr("TypeError", "pop() takes at most one argument")
			}
			v := l.Elts[at]
			l.Elts = append(l.Elts[:at], l.Elts[at+1:]...)
			return v, nil
		}}, true
	}
	return nil, false
}

func dictMethods(d *Dict, name string) (Value, bool) {
	if name != "keys" {
		return nil, false
	}
	return &Builtin{Name: "keys", Fn: func(ip *Interp, args []Value) (Value, error) {
		if len(args) != 0 {
			return nil, runErr("TypeError", "keys() takes no arguments")
		}
		return &List{Elts: append([]Value{}, d.Keys...)}, nil
	}}, true
}

func strMethods(s Str, name string) (Value, bool) {
	switch name {
	case "upper":
		return &Builtin{Name: "upper", Fn: func(ip *Interp, args []Value) (Value, error) {
			return Str(strings.ToUpper(string(s))), nil
		}}, true
	case "lower":
		return &Builtin{Name: "lower", Fn: func(ip *Interp, args []Value) (Value, error) {
			return Str(strings.ToLower(string(s))), nil
		}}, true
	}
	return nil, false
}

// iterate flattens an iterable value into its elements, in order.
func iterate(v Value) ([]Value, error) {
	switch c := v.(type) {
	case *List:
		return c.Elts, nil
	case *Dict:
		return append([]Value{}, c.Keys...), nil
	case Str:
		runes := []rune(string(c))
		out := make([]Value, len(runes))
		for i, r := range runes {
			out[i] = Str(string(r))
		}
		return out, nil
	}
	return nil, runErr("TypeError", "%q object is not iterable", v.Type())
}

// --- Expression evaluation in a live frame ----------------------------

// EvalExprIn parses and evaluates an expression in the given frame, without
// emitting tracer notifications. Override replay and the assertion harness
// use this capability.
func (ip *Interp) EvalExprIn(text string, f *Frame) (Value, error) {
	e, err := script.ParseExpr(text)
	if err != nil {
		return nil, err
	}
	return ip.EvalIn(e, f)
}

// EvalIn evaluates an already parsed expression in the given frame, without
// emitting tracer notifications.
func (ip *Interp) EvalIn(e script.Expr, f *Frame) (Value, error) {
	saved := ip.hooks
	ip.hooks = nil
	defer func() { ip.hooks = saved }()
	return ip.evalExpr(e, f)
}
