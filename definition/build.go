package definition

import (
	"strings"

	"github.com/kbukum/flowc/algebra"
	"github.com/kbukum/flowc/errors"
	"github.com/kbukum/flowc/logger"
)

// Option configures Build.
type Option func(*builder)

// WithLoader resolves includes through l.
func WithLoader(l Loader) Option {
	return func(b *builder) { b.loader = l }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(b *builder) { b.log = l }
}

type builder struct {
	funcs  *FuncRegistry
	loader Loader
	log    *logger.Logger
	stack  []string
	built  map[string]*algebra.Stream
}

// Build turns def into a stream. The definition's own source comes first,
// then each include in order, all combined with Plus; the steps are applied
// to the result. An include reached twice is built once, so the graph shares
// its nodes.
func Build(def *Definition, funcs *FuncRegistry, opts ...Option) (*algebra.Stream, error) {
	b := &builder{funcs: funcs, log: logger.Get("definition"), built: make(map[string]*algebra.Stream)}
	for _, opt := range opts {
		opt(b)
	}
	if b.funcs == nil {
		b.funcs = StandardFuncs()
	}
	return b.build(def)
}

func (b *builder) build(def *Definition) (*algebra.Stream, error) {
	if s, ok := b.built[def.Name]; ok {
		return s, nil
	}
	for _, name := range b.stack {
		if name == def.Name {
			return nil, errors.MalformedGraph("circular include: " + strings.Join(append(b.stack, def.Name), " -> "))
		}
	}
	b.stack = append(b.stack, def.Name)
	defer func() { b.stack = b.stack[:len(b.stack)-1] }()

	var s *algebra.Stream
	switch {
	case len(def.Data) > 0:
		s = algebra.FromRows(def.Data)
	case def.Source != "":
		s = algebra.Source(def.Source)
	}

	for _, name := range def.Includes {
		if b.loader == nil {
			return nil, errors.InvalidInput("includes", "no loader for include "+name)
		}
		sub, err := b.loader.Load(name)
		if err != nil {
			return nil, err
		}
		inc, err := b.build(sub)
		if err != nil {
			return nil, err
		}
		if s == nil {
			s = inc
		} else {
			s = s.Plus(inc)
		}
	}
	if s == nil {
		return nil, errors.InvalidInput("source", "definition "+def.Name+" has no source")
	}

	for i, step := range def.Steps {
		op, err := b.operator(step)
		if err != nil {
			if appErr, ok := errors.AsAppError(err); ok {
				return nil, appErr.WithDetail("step", stepField(i, "op"))
			}
			return nil, err
		}
		if s, err = s.Apply(op); err != nil {
			return nil, err
		}
	}

	b.log.Debug("definition built", logger.Fields("definition", def.Name, logger.FieldCount, s.Graph().Len()))
	b.built[def.Name] = s
	return s, nil
}

func (b *builder) operator(step Step) (algebra.Operator, error) {
	switch step.Op {
	case OpMap, OpFilter:
		f, err := b.funcs.Func(step.Fn)
		if err != nil {
			return nil, err
		}
		if step.Expr != "" {
			f = f.WithExpr(step.Expr)
		}
		if step.Op == OpMap {
			return algebra.Map(f), nil
		}
		return algebra.Filter(f), nil
	case OpWindow:
		return algebra.Window(step.Size), nil
	case OpReduce:
		f, err := b.funcs.Reduce(step.Fn)
		if err != nil {
			return nil, err
		}
		if step.Expr != "" {
			f.Expr = step.Expr
		}
		init := step.Init
		if init == nil {
			init = 0.0
		}
		return algebra.Reduce(f, init), nil
	case OpCustom:
		return algebra.Custom(step.Kind, step.Params), nil
	case OpSink:
		return algebra.Sink(step.URI), nil
	default:
		return nil, errors.InvalidInput("op", "unknown step op "+step.Op)
	}
}
