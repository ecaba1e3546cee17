package compiler

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/flowc/backend"
	"github.com/kbukum/flowc/errors"
	"github.com/kbukum/flowc/ir"
	"github.com/kbukum/flowc/logger"
	"github.com/kbukum/flowc/observability"
)

// Transpiler walks a graph and asks one backend for an artifact per node.
type Transpiler struct {
	backend  backend.Backend
	log      *logger.Logger
	metrics  *observability.Metrics
	observer func(ir.Node)
}

// Option configures a Transpiler.
type Option func(*Transpiler)

// WithLogger sets the logger used for compile events.
func WithLogger(l *logger.Logger) Option {
	return func(t *Transpiler) { t.log = l }
}

// WithMetrics records compile metrics on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(t *Transpiler) { t.metrics = m }
}

// WithObserver calls fn once for every node handed to the backend.
func WithObserver(fn func(ir.Node)) Option {
	return func(t *Transpiler) { t.observer = fn }
}

// New returns a Transpiler for b.
func New(b backend.Backend, opts ...Option) *Transpiler {
	t := &Transpiler{backend: b, log: logger.Get("compiler")}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Result holds one artifact per target, in target order.
type Result struct {
	Targets   []string
	Artifacts []any
}

// Len returns the number of targets.
func (r *Result) Len() int { return len(r.Targets) }

// Value returns the single artifact when there is exactly one target and the
// artifact list otherwise.
func (r *Result) Value() any {
	if len(r.Artifacts) == 1 {
		return r.Artifacts[0]
	}
	return r.Artifacts
}

// Compile lowers g. Targets are the Sink nodes, or the leaves when the graph
// has no sink. Every node reachable from a target is compiled exactly once,
// parents first; a backend error aborts the whole compile.
func (t *Transpiler) Compile(ctx context.Context, g *ir.Graph) (res *Result, err error) {
	name := t.backend.Name()
	op := observability.NewOperation(observability.SpanCompile, name, g.ID(), t.metrics)
	ctx, span := op.Start(ctx, attribute.Int(observability.AttrNodeCount, g.Len()))
	log := t.log.WithFields(logger.Fields(logger.FieldGraphID, g.ID(), logger.FieldTarget, name))
	defer func() {
		code := ""
		if appErr, ok := errors.AsAppError(err); ok {
			code = string(appErr.Code)
		}
		op.End(ctx, span, code, err)
		if err != nil {
			log.Error("compile failed", logger.Fields(
				logger.FieldError, err.Error(),
				logger.FieldNodeID, errors.NodeID(err),
			))
			return
		}
		log.Debug("compile complete", logger.Fields(
			logger.FieldCount, res.Len(),
			logger.FieldDuration, op.Duration().String(),
		))
	}()

	if g.Len() == 0 {
		return nil, errors.MalformedGraph("graph has no nodes")
	}

	targets := g.Sinks()
	if len(targets) == 0 {
		targets = g.Leaves()
	}

	w := &walk{t: t, g: g, memo: make(map[string]any), active: make(map[string]bool)}
	res = &Result{}
	for _, n := range targets {
		art, err := w.visit(ctx, n.ID(), "")
		if err != nil {
			return nil, err
		}
		res.Targets = append(res.Targets, n.ID())
		res.Artifacts = append(res.Artifacts, art)
	}
	return res, nil
}

// walk is the state of one compile.
type walk struct {
	t      *Transpiler
	g      *ir.Graph
	memo   map[string]any
	active map[string]bool
}

func (w *walk) visit(ctx context.Context, id, child string) (any, error) {
	if art, ok := w.memo[id]; ok {
		return art, nil
	}
	node, ok := w.g.Node(id)
	if !ok {
		return nil, errors.DanglingParent(child, id)
	}
	if w.active[id] {
		return nil, errors.MalformedGraph("cycle through node " + node.ShortID()).
			WithDetail(errors.DetailNode, id)
	}
	w.active[id] = true
	defer delete(w.active, id)

	parents := node.Parents()
	inputs := make([]any, len(parents))
	for i, p := range parents {
		art, err := w.visit(ctx, p, id)
		if err != nil {
			return nil, err
		}
		inputs[i] = art
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.AtNode(err, w.t.backend.Name(), id)
	}
	art, err := w.t.backend.CompileNode(ctx, node, inputs)
	if err != nil {
		return nil, errors.AtNode(err, w.t.backend.Name(), id)
	}
	w.memo[id] = art

	if w.t.observer != nil {
		w.t.observer(node)
	}
	if w.t.metrics != nil {
		w.t.metrics.RecordNode(ctx, w.t.backend.Name(), node.Op().String())
	}
	return art, nil
}

// Compile resolves target through reg and compiles g with it.
func Compile(ctx context.Context, g *ir.Graph, target string, reg *backend.Registry, opts ...Option) (*Result, error) {
	b, err := reg.Resolve(target)
	if err != nil {
		return nil, err
	}
	return New(b, opts...).Compile(ctx, g)
}
