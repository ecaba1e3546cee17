package definition

import (
	"sync"

	"github.com/kbukum/flowc/algebra"
	"github.com/kbukum/flowc/errors"
	"github.com/kbukum/flowc/record"
	"github.com/kbukum/flowc/util"
)

// FuncRegistry maps names used in definitions to functions. It is safe for
// concurrent use.
type FuncRegistry struct {
	mu       sync.RWMutex
	funcs    map[string]algebra.Func
	reducers map[string]algebra.ReduceFunc
}

// NewFuncRegistry creates an empty registry.
func NewFuncRegistry() *FuncRegistry {
	return &FuncRegistry{
		funcs:    make(map[string]algebra.Func),
		reducers: make(map[string]algebra.ReduceFunc),
	}
}

// Register adds transforms and predicates under their names.
func (r *FuncRegistry) Register(fns ...algebra.Func) *FuncRegistry {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range fns {
		r.funcs[f.Name] = f
	}
	return r
}

// RegisterReduce adds fold functions under their names.
func (r *FuncRegistry) RegisterReduce(fns ...algebra.ReduceFunc) *FuncRegistry {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range fns {
		r.reducers[f.Name] = f
	}
	return r
}

// Func returns the transform or predicate called name.
func (r *FuncRegistry) Func(name string) (algebra.Func, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.funcs[name]
	if !ok {
		return algebra.Func{}, errors.NotFound("function", name)
	}
	return f, nil
}

// Reduce returns the fold function called name.
func (r *FuncRegistry) Reduce(name string) (algebra.ReduceFunc, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.reducers[name]
	if !ok {
		return algebra.ReduceFunc{}, errors.NotFound("reduce function", name)
	}
	return f, nil
}

// Names lists every registered name, sorted.
func (r *FuncRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make(map[string]bool, len(r.funcs)+len(r.reducers))
	for n := range r.funcs {
		all[n] = true
	}
	for n := range r.reducers {
		all[n] = true
	}
	return util.SortedKeys(all)
}

// StandardFuncs returns a registry with the functions every definition can
// use.
func StandardFuncs() *FuncRegistry {
	r := NewFuncRegistry()
	r.Register(
		algebra.NamedFunc("identity", func(v any) (any, error) { return v, nil }),
		algebra.Pred("positive_close", func(v any) bool {
			c, ok := field(v, "close")
			return ok && c > 0
		}).WithExpr("close > 0"),
		algebra.Pred("up_day", func(v any) bool {
			c, okC := field(v, "close")
			o, okO := field(v, "open")
			return okC && okO && c > o
		}).WithExpr("close > open"),
		algebra.NamedFunc("typical_price", typicalPrice).WithExpr("(high + low + close) / 3"),
	)
	r.RegisterReduce(algebra.ReduceFunc{
		Name: "sum_close",
		Expr: "sum(close)",
		Fn: func(acc, v any) (any, error) {
			total, _ := util.ToFloat(acc)
			c, _ := field(v, "close")
			return total + c, nil
		},
	})
	return r
}

func field(v any, key string) (float64, bool) {
	row, ok := record.AsRow(v)
	if !ok {
		return 0, false
	}
	return record.Float(row, key)
}

// typicalPrice adds tp = (high+low+close)/3 to a copy of the row.
func typicalPrice(v any) (any, error) {
	row, ok := record.AsRow(v)
	if !ok {
		return nil, errors.InvalidInput("typical_price", "element is not a row")
	}
	h, okH := record.Float(row, "high")
	l, okL := record.Float(row, "low")
	c, okC := record.Float(row, "close")
	out := record.Clone(row)
	if okH && okL && okC {
		out["tp"] = (h + l + c) / 3
	} else {
		out["tp"] = nil
	}
	return out, nil
}
