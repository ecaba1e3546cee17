package backend

import (
	"context"
	"strconv"

	"github.com/kbukum/flowc/errors"
	"github.com/kbukum/flowc/ir"
	"github.com/kbukum/flowc/logger"
	"github.com/kbukum/flowc/util"
)

// ExtensionPoint names the group under which third-party backends register.
const ExtensionPoint = "flowc.backends"

// Backend turns one node, given the artifacts of its parents in order, into
// an artifact of its own. The transpiler calls CompileNode exactly once per
// node per compile.
type Backend interface {
	Name() string
	CompileNode(ctx context.Context, node ir.Node, parents []any) (any, error)
}

// Factory creates a backend from configuration. Dialect families receive the
// dialect under the "dialect" key.
type Factory func(cfg map[string]any) (Backend, error)

// OutputKey is the factory config key holding the io.Writer that stdout
// sinks print to. Executable backends default to os.Stdout without it.
const OutputKey = "output"

// Availability is implemented by backends whose runtime may be missing.
type Availability interface {
	IsAvailable(ctx context.Context) bool
}

// RuntimeProber is implemented by backends that can report the version of
// their external runtime.
type RuntimeProber interface {
	RuntimeVersion(ctx context.Context) (string, error)
}

// Plugin installs one or more backends into a registry.
type Plugin interface {
	Install(r *Registry)
}

// Input returns the i-th parent artifact, or nil when there is none.
func Input(parents []any, i int) any {
	if i < 0 || i >= len(parents) {
		return nil
	}
	return parents[i]
}

// Passthrough is the result for a Custom node whose kind the backend does
// not know: the upstream artifact, unchanged, with a warning.
func Passthrough(log *logger.Logger, b Backend, node ir.Node, parents []any) any {
	log.Warn("custom op passthrough", logger.Fields(
		logger.FieldBackend, b.Name(),
		logger.FieldNodeID, node.ShortID(),
		logger.FieldKind, node.Kind(),
	))
	return Input(parents, 0)
}

// Branches rebuilds the two sub-operators recorded on an operator-level
// Choice or Ensemble node as node sequences. Each sequence hangs off the
// node's single parent; chained sub-operators become consecutive nodes.
func Branches(node ir.Node) (left, right []ir.Node, err error) {
	if node.NumParents() != 1 {
		return nil, nil, nil
	}
	parent := node.Parents()[0]
	l, lok := node.Value("left")
	r, rok := node.Value("right")
	if !lok || !rok {
		return nil, nil, nil
	}
	if left, err = expand(node.ID()+":left", l, parent); err != nil {
		return nil, nil, err
	}
	if right, err = expand(node.ID()+":right", r, parent); err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

// IsOperatorComposite reports whether node is a Choice or Ensemble built from
// two operators rather than two streams.
func IsOperatorComposite(node ir.Node) bool {
	if node.Op() != ir.Choice && node.Op() != ir.Ensemble {
		return false
	}
	_, ok := node.Value("left")
	return ok && node.NumParents() == 1
}

// CompileBranch compiles a branch produced by Branches on top of input.
func CompileBranch(ctx context.Context, b Backend, nodes []ir.Node, input any) (any, error) {
	art := input
	for _, n := range nodes {
		out, err := b.CompileNode(ctx, n, []any{art})
		if err != nil {
			return nil, err
		}
		art = out
	}
	return art, nil
}

func expand(id string, desc any, parent string) ([]ir.Node, error) {
	d, ok := desc.(map[string]any)
	if !ok {
		return nil, errors.InvalidInput("branch", "operator descriptor must be an object")
	}
	op, err := ir.ParseOpType(util.ToString(d["type"]))
	if err != nil {
		return nil, err
	}
	cfg, _ := d["config"].(map[string]any)
	if steps, ok := cfg["steps"].([]any); ok {
		var out []ir.Node
		for i, step := range steps {
			sub, err := expand(id+":"+strconv.Itoa(i), step, parent)
			if err != nil {
				return nil, err
			}
			if len(sub) > 0 {
				parent = sub[len(sub)-1].ID()
			}
			out = append(out, sub...)
		}
		return out, nil
	}
	return []ir.Node{ir.NewNode(id, op, cfg, parent)}, nil
}
