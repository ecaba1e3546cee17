package algebra

import (
	"github.com/kbukum/flowc/ir"
)

// Operator is anything that can be bound to a stream.
type Operator interface {
	// OpType is the tag of the node the operator appends.
	OpType() ir.OpType
	// Config is the node configuration the operator records.
	Config() map[string]any
	// Bind appends the operator's node(s) after the stream's tip.
	Bind(s *Stream) *Stream
}

// Base is an operator that appends exactly one node with the stream tip as
// its only parent.
type Base struct {
	op     ir.OpType
	config map[string]any
}

// NewOperator returns a single-node operator.
func NewOperator(op ir.OpType, config map[string]any) *Base {
	return &Base{op: op, config: config}
}

func (b *Base) OpType() ir.OpType { return b.op }

func (b *Base) Config() map[string]any {
	out := make(map[string]any, len(b.config))
	for k, v := range b.config {
		out[k] = v
	}
	return out
}

func (b *Base) Bind(s *Stream) *Stream {
	return s.extend(b.op, b.config)
}

// chain binds its operators one after another. It creates no node of its own.
type chain struct {
	ops []Operator
}

// Chain composes operators without binding them. Binding the result to a
// stream is the same as binding each operator in order, so
// src.Then(Chain(a, b)) and src.Then(a).Then(b) build the same graph shape.
func Chain(first, second Operator, more ...Operator) Operator {
	ops := append([]Operator{first, second}, more...)
	return &chain{ops: ops}
}

// OpType reports the tag of the last operator, which becomes the tip.
func (c *chain) OpType() ir.OpType { return c.ops[len(c.ops)-1].OpType() }

func (c *chain) Config() map[string]any {
	steps := make([]any, len(c.ops))
	for i, op := range c.ops {
		steps[i] = Describe(op)
	}
	return map[string]any{"steps": steps}
}

func (c *chain) Bind(s *Stream) *Stream {
	for _, op := range c.ops {
		s = op.Bind(s)
	}
	return s
}

// Choice composes two operators into a fallback: apply left, and when it
// yields nothing apply right. The node records both sub-operators so a
// backend can rebuild them.
func Choice(left, right Operator) Operator {
	return NewOperator(ir.Choice, branches(left, right))
}

// Ensemble composes two operators that are both applied to the same input
// and paired.
func Ensemble(left, right Operator) Operator {
	return NewOperator(ir.Ensemble, branches(left, right))
}

func branches(left, right Operator) map[string]any {
	return map[string]any{
		"left":  Describe(left),
		"right": Describe(right),
	}
}

// Describe captures an operator's tag and configuration.
func Describe(op Operator) map[string]any {
	return map[string]any{
		"type":   op.OpType().String(),
		"config": op.Config(),
	}
}
