package algebra

import (
	"github.com/kbukum/flowc/ir"
)

// Map applies fn to every element.
func Map(fn Func) Operator {
	cfg := map[string]any{"fn": fn, "fn_name": fn.String()}
	if fn.Expr != "" {
		cfg["expr"] = fn.Expr
	}
	return NewOperator(ir.Map, cfg)
}

// Filter keeps elements for which pred returns true.
func Filter(pred Func) Operator {
	cfg := map[string]any{"predicate": pred, "fn_name": pred.String()}
	if pred.Expr != "" {
		cfg["expr"] = pred.Expr
	}
	return NewOperator(ir.Filter, cfg)
}

// Sink marks where results go. It is the only node that forces evaluation.
func Sink(uri string) Operator {
	return NewOperator(ir.Sink, map[string]any{"uri": uri})
}

// Window groups the stream into sliding windows of size elements, advancing
// one element at a time.
func Window(size int) Operator {
	return NewOperator(ir.Window, map[string]any{"size": size})
}

// Reduce folds the stream into one value starting from init.
func Reduce(fn ReduceFunc, init any) Operator {
	cfg := map[string]any{"fn": fn, "fn_name": fn.String(), "init": init}
	if fn.Expr != "" {
		cfg["expr"] = fn.Expr
	}
	return NewOperator(ir.Reduce, cfg)
}

// Custom appends a node whose meaning is named by kind, for example an
// indicator. params are copied into the node configuration.
func Custom(kind string, params map[string]any) Operator {
	cfg := make(map[string]any, len(params)+1)
	for k, v := range params {
		cfg[k] = v
	}
	cfg["kind"] = kind
	return NewOperator(ir.Custom, cfg)
}

// multi binds a node whose extra parents come from other streams.
type multi struct {
	op     ir.OpType
	config map[string]any
	others []*Stream
}

// Join is an inner equi-join of the bound stream with other on the column on.
func Join(other *Stream, on string) Operator {
	return &multi{op: ir.Join, config: map[string]any{"on": on}, others: []*Stream{other}}
}

// Union concatenates the bound stream with every stream in others.
func Union(others ...*Stream) Operator {
	return &multi{op: ir.Union, config: map[string]any{}, others: others}
}

func (m *multi) OpType() ir.OpType { return m.op }

func (m *multi) Config() map[string]any {
	out := make(map[string]any, len(m.config))
	for k, v := range m.config {
		out[k] = v
	}
	return out
}

func (m *multi) Bind(s *Stream) *Stream {
	return s.join(m.op, m.config, m.others...)
}
