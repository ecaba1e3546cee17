package algebra

import (
	"strings"

	"github.com/google/uuid"

	"github.com/kbukum/flowc/errors"
	"github.com/kbukum/flowc/ir"
	"github.com/kbukum/flowc/record"
)

// Stream is the handle user code composes. It pairs the current tip node with
// the graph that owns it; several handles may share one graph.
type Stream struct {
	tip   ir.Node
	graph *ir.Graph
}

func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func newStream(n ir.Node, g *ir.Graph) *Stream {
	if g == nil {
		g = ir.NewGraph()
	}
	g.AddNode(n)
	return &Stream{tip: n, graph: g}
}

// Source starts a pipeline reading from uri.
func Source(uri string) *Stream {
	return newStream(ir.NewNode(newID(), ir.Source, map[string]any{"uri": uri}), nil)
}

// FromPayload starts a pipeline that yields a single payload element.
func FromPayload(payload any) *Stream {
	cfg := map[string]any{"uri": "payload://", "payload": payload}
	return newStream(ir.NewNode(newID(), ir.Source, cfg), nil)
}

// FromRows starts a pipeline over in-memory rows.
func FromRows(rows []record.Row) *Stream {
	data := make([]any, len(rows))
	for i, r := range rows {
		data[i] = r
	}
	return FromItems(data)
}

// FromItems starts a pipeline over arbitrary in-memory elements.
func FromItems(items []any) *Stream {
	cfg := map[string]any{"uri": "memory://", "data": items}
	return newStream(ir.NewNode(newID(), ir.Source, cfg), nil)
}

// Tip returns the node this handle currently points at.
func (s *Stream) Tip() ir.Node { return s.tip }

// Graph returns the graph shared by this handle.
func (s *Stream) Graph() *ir.Graph { return s.graph }

// Compile returns the graph for handing to the compiler.
func (s *Stream) Compile() *ir.Graph { return s.graph }

// Then binds op to the stream and returns the handle over the new tip.
func (s *Stream) Then(op Operator) *Stream {
	return op.Bind(s)
}

// Apply is Then for values whose type is only known at run time. Anything
// that is not an Operator fails with TYPE_MISMATCH.
func (s *Stream) Apply(v any) (*Stream, error) {
	op, ok := v.(Operator)
	if !ok || op == nil {
		return nil, errors.TypeMismatch(v)
	}
	return op.Bind(s), nil
}

// Or is the fallback combinator: use this stream, or other when it yields nothing.
func (s *Stream) Or(other *Stream) *Stream {
	return s.join(ir.Choice, nil, other)
}

// And evaluates both streams and pairs their elements.
func (s *Stream) And(other *Stream) *Stream {
	return s.join(ir.Ensemble, nil, other)
}

// Plus concatenates both streams.
func (s *Stream) Plus(other *Stream) *Stream {
	return s.join(ir.Merge, nil, other)
}

// Combine applies a two-stream combinator chosen at run time. op must be
// Choice, Ensemble or Merge and other must be a *Stream.
func (s *Stream) Combine(op ir.OpType, other any) (*Stream, error) {
	o, ok := other.(*Stream)
	if !ok || o == nil {
		return nil, errors.TypeMismatch(other)
	}
	switch op {
	case ir.Choice, ir.Ensemble, ir.Merge:
		return s.join(op, nil, o), nil
	default:
		return nil, errors.Build("cannot combine streams with " + op.String())
	}
}

// join unifies the graphs of s and others, then appends one node whose
// parents are all the tips, receiver first.
func (s *Stream) join(op ir.OpType, cfg map[string]any, others ...*Stream) *Stream {
	parents := []string{s.tip.ID()}
	for _, o := range others {
		s.unify(o)
		parents = append(parents, o.tip.ID())
	}
	n := ir.NewNode(newID(), op, cfg, parents...)
	return newStream(n, s.graph)
}

// unify makes s and other share one graph. The graph with more nodes absorbs
// the other; on a tie the receiver's graph wins.
func (s *Stream) unify(other *Stream) {
	if s.graph == other.graph {
		return
	}
	into, from := s.graph, other.graph
	if from.Len() > into.Len() {
		into, from = from, into
	}
	into.Absorb(from)
	s.graph = into
	other.graph = into
}

// extend appends a single-parent node to the stream's graph.
func (s *Stream) extend(op ir.OpType, cfg map[string]any) *Stream {
	return newStream(ir.NewNode(newID(), op, cfg, s.tip.ID()), s.graph)
}
