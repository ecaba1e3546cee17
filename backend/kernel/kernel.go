package kernel

import (
	"context"
	"os/exec"
	"strings"
	"time"
	"unicode"

	"github.com/kbukum/flowc/algebra"
	"github.com/kbukum/flowc/backend"
	"github.com/kbukum/flowc/backend/script"
	"github.com/kbukum/flowc/errors"
	"github.com/kbukum/flowc/ir"
	"github.com/kbukum/flowc/logger"
	"github.com/kbukum/flowc/process"
	"github.com/kbukum/flowc/util"
)

// Family is the registry prefix of the kernel backends.
const Family = "kernel"

// Dialect renders GPU kernels and the host-side steps around them.
type Dialect interface {
	Name() string
	// Runtime is the executable the generated code needs.
	Runtime() string
	// Prelude is emitted once before the first kernel.
	Prelude() string
	Load(uri string) string
	Kernel(name, expr string) string
	Store(uri string) string
	Comment(text string) string
}

var dialects = map[string]Dialect{
	"triton": Triton{},
	"cuda":   CUDA{},
}

// Dialects lists the dialect names, sorted.
func Dialects() []string { return util.SortedKeys(dialects) }

// Backend emits kernel source as a script.Program.
type Backend struct {
	dialect Dialect
	log     *logger.Logger
}

// NewBackend creates a kernel backend for d.
func NewBackend(d Dialect) *Backend {
	return &Backend{dialect: d, log: logger.Get("kernel")}
}

// New is the registry factory for the kernel: family.
func New(cfg map[string]any) (backend.Backend, error) {
	name := util.ToString(cfg["dialect"])
	d, ok := dialects[strings.ToLower(name)]
	if !ok {
		return nil, errors.UnknownBackend(Family + ":" + name)
	}
	return NewBackend(d), nil
}

func (b *Backend) Name() string { return Family + ":" + b.dialect.Name() }

// IsAvailable reports whether the dialect's runtime is on PATH. Code
// generation works either way.
func (b *Backend) IsAvailable(context.Context) bool {
	_, err := exec.LookPath(b.dialect.Runtime())
	return err == nil
}

// RuntimeVersion runs the runtime with --version and returns the first line
// it prints.
func (b *Backend) RuntimeVersion(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	res, err := process.Run(ctx, process.Command{
		Binary:      b.dialect.Runtime(),
		Args:        []string{"--version"},
		GracePeriod: time.Second,
	})
	if err != nil {
		return "", err
	}
	return res.FirstLine(), nil
}

func (b *Backend) CompileNode(_ context.Context, node ir.Node, parents []any) (any, error) {
	in, err := script.Programs(parents)
	if err != nil {
		return nil, err
	}
	prog := script.Merge(in...)
	d := b.dialect

	switch node.Op() {
	case ir.Source:
		return prog.Append(node.ID(), d.Load(node.Str("uri", "unknown")), script.VarName(node)), nil
	case ir.Map:
		name := KernelName(node.Str("fn_name", ""))
		expr := algebra.ExprOf(node)
		if expr == "" {
			expr = "x"
		}
		prelude := Family + ":" + d.Name() + ":prelude"
		return prog.Append(prelude, d.Prelude(), prog.Var).Append(node.ID(), d.Kernel(name, expr), name), nil
	case ir.Sink:
		return prog.Append(node.ID(), d.Store(node.Str("uri", "stdout")), prog.Var), nil
	default:
		b.log.Debug("unsupported op for GPU", logger.Fields(logger.FieldNodeID, node.ShortID(), logger.FieldOp, node.Op().String()))
		return prog.Append(node.ID(), d.Comment("unsupported op for GPU: "+node.Op().String()), prog.Var), nil
	}
}

// KernelName turns a function name into an identifier. Anonymous functions
// become lambda_kernel.
func KernelName(fn string) string {
	if fn == "" || strings.Contains(fn, "<lambda>") {
		return "lambda_kernel"
	}
	var sb strings.Builder
	for i, r := range fn {
		switch {
		case r == '_' || unicode.IsLetter(r):
			sb.WriteRune(r)
		case unicode.IsDigit(r):
			if i == 0 {
				sb.WriteString("k_")
			}
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	return sb.String()
}
