package vector

import (
	"context"
	"io"
	"os"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/kbukum/flowc/algebra"
	"github.com/kbukum/flowc/backend"
	"github.com/kbukum/flowc/connector"
	"github.com/kbukum/flowc/errors"
	"github.com/kbukum/flowc/indicator"
	"github.com/kbukum/flowc/ir"
	"github.com/kbukum/flowc/logger"
	"github.com/kbukum/flowc/pipeline"
	"github.com/kbukum/flowc/record"
	"github.com/kbukum/flowc/util"
)

// Name is the registry name of this backend.
const Name = "vector"

// Backend compiles nodes to LazyFrames over Arrow columns.
type Backend struct {
	mem   memory.Allocator
	chunk int
	out   io.Writer
	log   *logger.Logger
}

// Option configures a Backend.
type Option func(*Backend)

// WithChunkSize bounds the rows per batch when scanning CSV.
func WithChunkSize(n int) Option {
	return func(b *Backend) { b.chunk = n }
}

// WithAllocator sets the Arrow allocator.
func WithAllocator(mem memory.Allocator) Option {
	return func(b *Backend) { b.mem = mem }
}

// WithOutput sets where stdout sinks print.
func WithOutput(w io.Writer) Option {
	return func(b *Backend) { b.out = w }
}

// WithLogger sets the backend logger.
func WithLogger(l *logger.Logger) Option {
	return func(b *Backend) { b.log = l }
}

// NewBackend creates a vector backend.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{mem: memory.NewGoAllocator(), out: os.Stdout, log: logger.Get("vector")}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// New is the registry factory. It reads "chunk_size" and backend.OutputKey.
func New(cfg map[string]any) (backend.Backend, error) {
	var opts []Option
	if w, ok := cfg[backend.OutputKey].(io.Writer); ok {
		opts = append(opts, WithOutput(w))
	}
	if n, ok := util.ToInt(cfg["chunk_size"]); ok {
		if n < 0 {
			return nil, errors.InvalidInput("chunk_size", "must not be negative")
		}
		opts = append(opts, WithChunkSize(n))
	}
	return NewBackend(opts...), nil
}

func (b *Backend) Name() string { return Name }

// IsAvailable is always true; Arrow is linked in.
func (b *Backend) IsAvailable(context.Context) bool { return true }

func (b *Backend) CompileNode(ctx context.Context, node ir.Node, parents []any) (any, error) {
	if node.Op() == ir.Source {
		return b.source(node), nil
	}
	if node.Op() == ir.Window {
		return nil, errors.Unsupported(Name, string(ir.Window))
	}
	if backend.IsOperatorComposite(node) {
		return b.operatorComposite(ctx, node, parents)
	}

	in, err := inputs(node, parents)
	if err != nil {
		return nil, err
	}

	switch node.Op() {
	case ir.Filter:
		return b.filter(node, in[0]), nil
	case ir.Map:
		return b.mapRows(node, in[0]), nil
	case ir.Reduce:
		return b.reduce(node, in[0]), nil
	case ir.Join:
		if len(in) < 2 {
			return nil, errors.InvalidInput("parents", "join needs two inputs")
		}
		return b.join(node, in[0], in[1]), nil
	case ir.Union, ir.Merge:
		return b.concat(in), nil
	case ir.Choice:
		if len(in) < 2 {
			return in[0], nil
		}
		return choice(in[0], in[1]), nil
	case ir.Ensemble:
		if len(in) < 2 {
			return in[0], nil
		}
		return ensemble(in[0], in[1]), nil
	case ir.Custom:
		return b.custom(node, in[0], parents)
	case ir.Sink:
		return b.sink(node, in[0]), nil
	default:
		return in[0], nil
	}
}

func inputs(node ir.Node, parents []any) ([]*LazyFrame, error) {
	if len(parents) == 0 {
		return nil, errors.InvalidInput("parents", string(node.Op())+" node requires input")
	}
	out := make([]*LazyFrame, len(parents))
	for i, p := range parents {
		switch a := p.(type) {
		case *LazyFrame:
			out[i] = a
		case *Action:
			out[i] = newLazy(a.Run)
		default:
			return nil, errors.TypeMismatch(p)
		}
	}
	return out, nil
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

func (b *Backend) source(node ir.Node) *LazyFrame {
	uri := node.Str("uri", "")
	loc := connector.Parse(uri)
	switch {
	case loc.Format == connector.FormatCSV || loc.Format == connector.FormatParquet:
		return newLazy(func(ctx context.Context) (*Frame, error) {
			tbl, err := connector.ReadTable(ctx, loc, b.mem, b.chunk)
			if err != nil {
				return nil, err
			}
			defer tbl.Release()
			return FrameFromTable(b.mem, tbl)
		})
	case loc.Format == connector.FormatJSONL:
		src := connector.Source(uri, nil)
		return newLazy(func(ctx context.Context) (*Frame, error) {
			items, err := pipeline.Collect(ctx, src)
			if err != nil {
				return nil, err
			}
			return FrameFromRows(b.mem, asRows(items)), nil
		})
	case loc.Scheme == connector.SchemeMemory:
		items := connector.Items(node.Config()["data"])
		return newLazy(func(context.Context) (*Frame, error) {
			return FrameFromRows(b.mem, asRows(items)), nil
		})
	case loc.Scheme == connector.SchemePayload:
		payload, _ := node.Value("payload")
		return newLazy(func(context.Context) (*Frame, error) {
			return FrameFromRows(b.mem, asRows([]any{payload})), nil
		})
	default:
		return newLazy(func(context.Context) (*Frame, error) {
			return FrameFromRows(b.mem, record.Stub()), nil
		})
	}
}

// asRows keeps row elements and wraps anything else as {"payload": v}.
func asRows(items []any) []record.Row {
	rows := make([]record.Row, len(items))
	for i, item := range items {
		if r, ok := record.AsRow(item); ok {
			rows[i] = r
		} else {
			rows[i] = record.Row{"payload": item}
		}
	}
	return rows
}

func (b *Backend) filter(node ir.Node, in *LazyFrame) *LazyFrame {
	pred, ok := algebra.FuncOf(node, "predicate")
	if !ok {
		return in
	}
	return in.then(func(_ context.Context, f *Frame) (*Frame, error) {
		var keep []int
		for i, r := range f.Rows() {
			ok, err := pred.Test(r)
			if err != nil {
				return nil, errors.AtNode(err, Name, node.ID())
			}
			if ok {
				keep = append(keep, i)
			}
		}
		return f.Take(b.mem, keep), nil
	})
}

func (b *Backend) mapRows(node ir.Node, in *LazyFrame) *LazyFrame {
	fn, ok := algebra.FuncOf(node, "fn")
	if !ok {
		return in
	}
	return in.then(func(_ context.Context, f *Frame) (*Frame, error) {
		rows := f.Rows()
		out := make([]record.Row, len(rows))
		for i, r := range rows {
			v, err := fn.Call(r)
			if err != nil {
				return nil, errors.AtNode(err, Name, node.ID())
			}
			merged := record.Clone(r)
			if row, ok := record.AsRow(v); ok {
				for k, val := range row {
					merged[k] = val
				}
			} else {
				merged["payload"] = v
			}
			out[i] = merged
		}
		return FrameFromRows(b.mem, out), nil
	})
}

func (b *Backend) reduce(node ir.Node, in *LazyFrame) *LazyFrame {
	fn, ok := algebra.ReduceFuncOf(node, "fn")
	if !ok || fn.Fn == nil {
		return in
	}
	init, _ := node.Value("init")
	return in.then(func(_ context.Context, f *Frame) (*Frame, error) {
		acc := init
		for _, r := range f.Rows() {
			var err error
			if acc, err = fn.Fn(acc, r); err != nil {
				return nil, errors.AtNode(err, Name, node.ID())
			}
		}
		return FrameFromRows(b.mem, []record.Row{{"value": acc}}), nil
	})
}

// join is an inner hash join on "on"; left values win on name clashes.
func (b *Backend) join(node ir.Node, left, right *LazyFrame) *LazyFrame {
	on := node.Str("on", "")
	return newLazy(func(ctx context.Context) (*Frame, error) {
		l, err := left.Materialize(ctx)
		if err != nil {
			return nil, err
		}
		r, err := right.Materialize(ctx)
		if err != nil {
			return nil, err
		}
		table := make(map[string][]record.Row)
		for _, row := range r.Rows() {
			if k := row[on]; k != nil {
				key := util.ToString(k)
				table[key] = append(table[key], row)
			}
		}
		var out []record.Row
		for _, lrow := range l.Rows() {
			k := lrow[on]
			if k == nil {
				continue
			}
			for _, rrow := range table[util.ToString(k)] {
				merged := record.Clone(rrow)
				for key, v := range lrow {
					merged[key] = v
				}
				out = append(out, merged)
			}
		}
		return FrameFromRows(b.mem, out), nil
	})
}

func (b *Backend) concat(in []*LazyFrame) *LazyFrame {
	return newLazy(func(ctx context.Context) (*Frame, error) {
		frames := make([]*Frame, len(in))
		for i, lf := range in {
			f, err := lf.Materialize(ctx)
			if err != nil {
				return nil, err
			}
			frames[i] = f
		}
		return Concat(b.mem, frames...)
	})
}

// choice uses left when it materializes with at least one row.
func choice(left, right *LazyFrame) *LazyFrame {
	return newLazy(func(ctx context.Context) (*Frame, error) {
		if f, err := left.Materialize(ctx); err == nil && f.Len() > 0 {
			return f, nil
		}
		return right.Materialize(ctx)
	})
}

func ensemble(left, right *LazyFrame) *LazyFrame {
	return newLazy(func(ctx context.Context) (*Frame, error) {
		l, err := left.Materialize(ctx)
		if err != nil {
			return nil, err
		}
		r, err := right.Materialize(ctx)
		if err != nil {
			return nil, err
		}
		return HStack(l, r), nil
	})
}

func (b *Backend) custom(node ir.Node, in *LazyFrame, parents []any) (any, error) {
	kind, ok := indicator.Lookup(node.Kind())
	if !ok {
		return backend.Passthrough(b.log, b, node, parents), nil
	}
	params, err := indicator.ParseParams(kind, node.Config())
	if err != nil {
		return nil, err
	}
	return in.then(func(_ context.Context, f *Frame) (*Frame, error) {
		return applyIndicator(b.mem, f, kind, params), nil
	}), nil
}

func (b *Backend) sink(node ir.Node, in *LazyFrame) *Action {
	uri := node.Str("uri", "")
	return &Action{uri: uri, frame: in, write: func(ctx context.Context, f *Frame) error {
		switch uri {
		case "", "memory", "collect":
			return nil
		case "stdout", "console":
			if err := printRows(b.out, f); err != nil {
				return errors.AtNode(err, Name, node.ID())
			}
			return nil
		}
		loc := connector.Parse(uri)
		if !loc.IsFile() {
			b.log.Warn("no columnar writer for sink, returning frame", logger.Fields(logger.FieldURI, uri))
			return nil
		}
		if err := writeFrame(ctx, loc, f); err != nil {
			return errors.AtNode(err, Name, node.ID())
		}
		b.log.Debug("sink written", logger.Fields(logger.FieldURI, uri, logger.FieldCount, f.Len()))
		return nil
	}}
}
