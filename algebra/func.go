package algebra

import (
	"fmt"

	"github.com/kbukum/flowc/ir"
)

// Func is an opaque handle to a user transform or predicate. Name is the
// stable display name used in plans and JSON. Expr is an optional symbolic
// form (for example "close > 0") that code-generating backends emit in place
// of the Go closure; when it is empty those backends fall back to a
// placeholder, so their output is not checked against Fn.
type Func struct {
	Name string
	Fn   func(any) (any, error)
	Expr string
}

// NamedFunc wraps a transform.
func NamedFunc(name string, fn func(any) (any, error)) Func {
	return Func{Name: name, Fn: fn}
}

// Pred wraps a predicate.
func Pred(name string, fn func(any) bool) Func {
	return Func{Name: name, Fn: func(v any) (any, error) { return fn(v), nil }}
}

// WithExpr returns a copy of f carrying a symbolic expression.
func (f Func) WithExpr(expr string) Func {
	f.Expr = expr
	return f
}

func (f Func) String() string {
	if f.Name == "" {
		return "<lambda>"
	}
	return f.Name
}

// Call applies the transform. A Func without Fn is the identity.
func (f Func) Call(v any) (any, error) {
	if f.Fn == nil {
		return v, nil
	}
	return f.Fn(v)
}

// Test applies the function as a predicate.
func (f Func) Test(v any) (bool, error) {
	if f.Fn == nil {
		return true, nil
	}
	out, err := f.Fn(v)
	if err != nil {
		return false, err
	}
	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("predicate %s returned %T, want bool", f, out)
	}
	return b, nil
}

// ReduceFunc folds one element into an accumulator.
type ReduceFunc struct {
	Name string
	Fn   func(acc, v any) (any, error)
	Expr string
}

func (f ReduceFunc) String() string {
	if f.Name == "" {
		return "<lambda>"
	}
	return f.Name
}

// FuncOf reads a transform or predicate stored under key. Besides Func it
// accepts bare closures, which hand-built graphs may carry.
func FuncOf(n ir.Node, key string) (Func, bool) {
	v, ok := n.Value(key)
	if !ok || v == nil {
		return Func{}, false
	}
	name := n.Str("fn_name", "")
	switch fn := v.(type) {
	case Func:
		return fn, true
	case *Func:
		return *fn, fn != nil
	case func(any) (any, error):
		return Func{Name: name, Fn: fn}, true
	case func(any) any:
		return Func{Name: name, Fn: func(x any) (any, error) { return fn(x), nil }}, true
	case func(any) bool:
		return Pred(name, fn), true
	default:
		return Func{}, false
	}
}

// ReduceFuncOf reads a fold function stored under key.
func ReduceFuncOf(n ir.Node, key string) (ReduceFunc, bool) {
	v, ok := n.Value(key)
	if !ok || v == nil {
		return ReduceFunc{}, false
	}
	switch fn := v.(type) {
	case ReduceFunc:
		return fn, true
	case func(acc, v any) (any, error):
		return ReduceFunc{Name: n.Str("fn_name", ""), Fn: fn}, true
	default:
		return ReduceFunc{}, false
	}
}

// ExprOf returns the symbolic expression recorded for a node's function.
func ExprOf(n ir.Node) string {
	if e := n.Str("expr", ""); e != "" {
		return e
	}
	for _, key := range []string{"fn", "predicate"} {
		if f, ok := FuncOf(n, key); ok && f.Expr != "" {
			return f.Expr
		}
	}
	if f, ok := ReduceFuncOf(n, "fn"); ok {
		return f.Expr
	}
	return ""
}
