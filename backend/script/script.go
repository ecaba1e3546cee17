package script

import (
	"context"
	"strconv"
	"strings"

	"github.com/kbukum/flowc/algebra"
	"github.com/kbukum/flowc/backend"
	"github.com/kbukum/flowc/connector"
	"github.com/kbukum/flowc/errors"
	"github.com/kbukum/flowc/indicator"
	"github.com/kbukum/flowc/ir"
	"github.com/kbukum/flowc/logger"
	"github.com/kbukum/flowc/util"
)

// Family is the registry prefix of the script backends.
const Family = "script"

// Dialect lowers single operations to statements of one target language.
// Every method receives the variable the statement defines (v) and the
// variables of its inputs, and returns one statement.
type Dialect interface {
	Name() string
	Source(v string, loc connector.Location) string
	Filter(v, in, expr string) string
	Map(v, in, expr, fn string) string
	Indicator(v, in string, kind indicator.Kind, p indicator.Params) string
	Concat(v string, in []string) string
	Choice(v, a, b string) string
	Ensemble(v, a, b string) string
	Join(v, a, b, on string) string
	Reduce(v, in, expr string) string
	Sink(in string, loc connector.Location) string
	Comment(text string) string
}

var dialects = map[string]Dialect{
	"dolphindb": DolphinDB{},
	"sql":       SQL{},
}

// Dialects lists the dialect names, sorted.
func Dialects() []string {
	return util.SortedKeys(dialects)
}

// LookupDialect returns the dialect registered under name.
func LookupDialect(name string) (Dialect, bool) {
	d, ok := dialects[strings.ToLower(name)]
	return d, ok
}

// Backend emits a Program per node.
type Backend struct {
	dialect Dialect
	log     *logger.Logger
}

// NewBackend creates a script backend for d.
func NewBackend(d Dialect) *Backend {
	return &Backend{dialect: d, log: logger.Get("script").WithFields(map[string]any{"dialect": d.Name()})}
}

// New is the registry factory for the script: family. The dialect arrives
// under the "dialect" key.
func New(cfg map[string]any) (backend.Backend, error) {
	name := util.ToString(cfg["dialect"])
	d, ok := LookupDialect(name)
	if !ok {
		return nil, errors.UnknownBackend(Family + ":" + name)
	}
	return NewBackend(d), nil
}

func (b *Backend) Name() string { return Family + ":" + b.dialect.Name() }

// IsAvailable is always true; the backend only writes text.
func (b *Backend) IsAvailable(context.Context) bool { return true }

func (b *Backend) CompileNode(ctx context.Context, node ir.Node, parents []any) (any, error) {
	in, err := Programs(parents)
	if err != nil {
		return nil, err
	}
	if backend.IsOperatorComposite(node) {
		return b.operatorComposite(ctx, node, in)
	}

	prog := Merge(in...)
	vars := make([]string, len(in))
	for i, p := range in {
		vars[i] = p.Var
	}
	arg := func(i int) string {
		if i < len(vars) && vars[i] != "" {
			return vars[i]
		}
		return "t_none"
	}

	v := VarName(node)
	d := b.dialect
	switch node.Op() {
	case ir.Source:
		loc := connector.Parse(node.Str("uri", ""))
		return prog.Append(node.ID(), d.Source(v, loc), v), nil
	case ir.Filter:
		expr := algebra.ExprOf(node)
		if expr == "" {
			expr = node.Str("predicate_sql", "")
		}
		return prog.Append(node.ID(), d.Filter(v, arg(0), expr), v), nil
	case ir.Map:
		return prog.Append(node.ID(), d.Map(v, arg(0), algebra.ExprOf(node), node.Str("fn_name", "fn")), v), nil
	case ir.Reduce:
		expr := algebra.ExprOf(node)
		if expr == "" {
			return b.unsupported(prog, node, arg(0), "reduce without expression"), nil
		}
		return prog.Append(node.ID(), d.Reduce(v, arg(0), expr), v), nil
	case ir.Join:
		return prog.Append(node.ID(), d.Join(v, arg(0), arg(1), node.Str("on", "")), v), nil
	case ir.Union, ir.Merge:
		return prog.Append(node.ID(), d.Concat(v, vars), v), nil
	case ir.Choice:
		return prog.Append(node.ID(), d.Choice(v, arg(0), arg(1)), v), nil
	case ir.Ensemble:
		return prog.Append(node.ID(), d.Ensemble(v, arg(0), arg(1)), v), nil
	case ir.Custom:
		kind, ok := indicator.Lookup(node.Kind())
		if !ok {
			return b.unsupported(prog, node, arg(0), "custom op "+node.Kind()), nil
		}
		p, err := indicator.ParseParams(kind, node.Config())
		if err != nil {
			return nil, errors.AtNode(err, b.Name(), node.ID())
		}
		return prog.Append(node.ID(), d.Indicator(v, arg(0), kind, p), v), nil
	case ir.Sink:
		loc := connector.Parse(node.Str("uri", "stdout"))
		return prog.Append(node.ID(), d.Sink(arg(0), loc), arg(0)), nil
	default:
		return b.unsupported(prog, node, arg(0), "op "+node.Op().String()), nil
	}
}

// unsupported records a comment and keeps the input as the result.
func (b *Backend) unsupported(prog *Program, node ir.Node, in, what string) *Program {
	b.log.Debug("unsupported op", logger.Fields(logger.FieldNodeID, node.ShortID(), logger.FieldOp, node.Op().String()))
	return prog.Append(node.ID(), b.dialect.Comment("unsupported "+what), in)
}

func (b *Backend) operatorComposite(ctx context.Context, node ir.Node, in []*Program) (any, error) {
	left, right, err := backend.Branches(node)
	if err != nil {
		return nil, errors.AtNode(err, b.Name(), node.ID())
	}
	input := Merge(in...)
	l, err := backend.CompileBranch(ctx, b, left, input)
	if err != nil {
		return nil, err
	}
	r, err := backend.CompileBranch(ctx, b, right, input)
	if err != nil {
		return nil, err
	}
	joined := ir.NewNode(node.ID(), node.Op(), nil, "left", "right")
	return b.CompileNode(ctx, joined, []any{l, r})
}

// Programs converts parent artifacts. A nil parent is an empty program.
func Programs(parents []any) ([]*Program, error) {
	out := make([]*Program, len(parents))
	for i, p := range parents {
		switch v := p.(type) {
		case *Program:
			out[i] = v
		case nil:
			out[i] = NewProgram()
		default:
			return nil, errors.TypeMismatch(p)
		}
	}
	return out, nil
}

// VarName is the variable a node's statement defines: t_ and the node's
// identifier. Branch nodes expanded from an operator composite carry their
// path in the id and get their own variable.
func VarName(node ir.Node) string {
	return "t_" + node.Ident()
}

// Args lists the indicator arguments in call order: input columns first,
// then the numeric parameters.
func Args(kind indicator.Kind, p indicator.Params) []string {
	itoa := strconv.Itoa
	switch kind {
	case indicator.KindMACD:
		return []string{p.Field, itoa(p.Fast), itoa(p.Slow), itoa(p.Signal)}
	case indicator.KindBBands:
		return []string{p.Field, itoa(p.Window), strconv.FormatFloat(p.Std, 'g', -1, 64)}
	case indicator.KindStoch:
		return []string{p.High, p.Low, p.Close, itoa(p.Window), itoa(p.Smooth)}
	case indicator.KindCCI, indicator.KindATR, indicator.KindADX:
		return []string{p.High, p.Low, p.Close, itoa(p.Window)}
	case indicator.KindOBV:
		return []string{p.Close, p.Vol}
	case indicator.KindVWAP:
		return []string{p.Price, p.Close, p.Vol}
	default:
		return []string{p.Field, itoa(p.Window)}
	}
}

func call(fn string, args []string) string {
	return fn + "(" + strings.Join(args, ", ") + ")"
}
