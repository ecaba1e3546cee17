package native

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/kbukum/flowc/backend"
	"github.com/kbukum/flowc/connector"
	"github.com/kbukum/flowc/errors"
	"github.com/kbukum/flowc/ir"
	"github.com/kbukum/flowc/logger"
	"github.com/kbukum/flowc/pipeline"
	"github.com/kbukum/flowc/util"
)

// Name is the registry name of this backend.
const Name = "native"

// Thunk runs a sink: it drains the upstream pipeline, delivers the elements
// to the sink target and returns them.
type Thunk func(ctx context.Context) ([]any, error)

// Run invokes the thunk.
func (t Thunk) Run(ctx context.Context) ([]any, error) { return t(ctx) }

// Backend compiles nodes to pipelines.
type Backend struct {
	workers  int
	echoSink bool
	out      io.Writer
	log      *logger.Logger
}

// Option configures a Backend.
type Option func(*Backend)

// WithWorkers runs Map functions on n goroutines. Output order is kept.
func WithWorkers(n int) Option {
	return func(b *Backend) { b.workers = n }
}

// WithEchoSink prints the elements of every sink, not only stdout sinks.
func WithEchoSink(on bool) Option {
	return func(b *Backend) { b.echoSink = on }
}

// WithOutput sets where stdout sinks print.
func WithOutput(w io.Writer) Option {
	return func(b *Backend) { b.out = w }
}

// WithLogger sets the backend logger.
func WithLogger(l *logger.Logger) Option {
	return func(b *Backend) { b.log = l }
}

// NewBackend creates a native backend.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{workers: 1, out: os.Stdout, log: logger.Get("native")}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// New is the registry factory. It reads "workers", "echo_sink" and
// backend.OutputKey.
func New(cfg map[string]any) (backend.Backend, error) {
	var opts []Option
	if w, ok := cfg[backend.OutputKey].(io.Writer); ok {
		opts = append(opts, WithOutput(w))
	}
	if n, ok := util.ToInt(cfg["workers"]); ok {
		if n < 1 {
			return nil, errors.InvalidInput("workers", "must be at least 1")
		}
		opts = append(opts, WithWorkers(n))
	}
	if echo, ok := cfg["echo_sink"].(bool); ok {
		opts = append(opts, WithEchoSink(echo))
	}
	return NewBackend(opts...), nil
}

func (b *Backend) Name() string { return Name }

// IsAvailable is always true; the backend has no external runtime.
func (b *Backend) IsAvailable(context.Context) bool { return true }

func (b *Backend) CompileNode(ctx context.Context, node ir.Node, parents []any) (any, error) {
	if node.Op() == ir.Source {
		return connector.Source(node.Str("uri", ""), node.Config()), nil
	}
	if backend.IsOperatorComposite(node) {
		return b.operatorComposite(ctx, node, parents)
	}

	in, err := b.inputs(node, parents)
	if err != nil {
		return nil, err
	}

	switch node.Op() {
	case ir.Map:
		return b.mapNode(node, in[0]), nil
	case ir.Filter:
		return b.filterNode(node, in[0]), nil
	case ir.Window:
		return windowNode(node, in[0])
	case ir.Reduce:
		return reduceNode(node, in[0]), nil
	case ir.Join:
		if len(in) < 2 {
			return nil, errors.InvalidInput("parents", "join needs two inputs")
		}
		return joinNode(node, in[0], in[1]), nil
	case ir.Union, ir.Merge:
		return pipeline.Concat(in...), nil
	case ir.Choice:
		if len(in) < 2 {
			return in[0], nil
		}
		return pipeline.Fallback(in[0], in[1]), nil
	case ir.Ensemble:
		if len(in) < 2 {
			return in[0], nil
		}
		return pair(in[0], in[1]), nil
	case ir.Custom:
		return b.customNode(node, in[0], parents)
	case ir.Sink:
		return b.sinkNode(node, in[0]), nil
	default:
		return in[0], nil
	}
}

// inputs converts parent artifacts to pipelines. A Thunk parent is drained
// on demand so a sink can feed further nodes.
func (b *Backend) inputs(node ir.Node, parents []any) ([]*pipeline.Pipeline[any], error) {
	if len(parents) == 0 {
		return nil, errors.InvalidInput("parents", fmt.Sprintf("%s node requires input", node.Op()))
	}
	out := make([]*pipeline.Pipeline[any], len(parents))
	for i, p := range parents {
		s, err := asPipeline(p)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func asPipeline(art any) (*pipeline.Pipeline[any], error) {
	switch a := art.(type) {
	case *pipeline.Pipeline[any]:
		return a, nil
	case Thunk:
		return pipeline.Deferred(func(ctx context.Context) ([]any, error) { return a(ctx) }), nil
	case nil:
		return pipeline.Empty[any](), nil
	default:
		return nil, errors.TypeMismatch(art)
	}
}

func (b *Backend) operatorComposite(ctx context.Context, node ir.Node, parents []any) (any, error) {
	left, right, err := backend.Branches(node)
	if err != nil {
		return nil, err
	}
	input := backend.Input(parents, 0)
	l, err := backend.CompileBranch(ctx, b, left, input)
	if err != nil {
		return nil, err
	}
	r, err := backend.CompileBranch(ctx, b, right, input)
	if err != nil {
		return nil, err
	}
	return b.CompileNode(ctx, ir.NewNode(node.ID(), node.Op(), nil, "left", "right"), []any{l, r})
}
