package plan

import (
	"context"
	"fmt"
	"strings"

	"github.com/kbukum/flowc/backend"
	"github.com/kbukum/flowc/ir"
)

// Name is the registry name of this backend.
const Name = "string"

// Backend renders a graph as a nested textual plan such as
// Sink(Map(Scan(csv://x), fn=inc), target=stdout). It never fails.
type Backend struct{}

// New is the registry factory.
func New(map[string]any) (backend.Backend, error) {
	return &Backend{}, nil
}

func (b *Backend) Name() string { return Name }

func (b *Backend) CompileNode(_ context.Context, node ir.Node, parents []any) (any, error) {
	return Render(node, inputs(parents)), nil
}

func inputs(parents []any) []string {
	out := make([]string, len(parents))
	for i, p := range parents {
		if s, ok := p.(string); ok {
			out[i] = s
		} else {
			out[i] = fmt.Sprint(p)
		}
	}
	return out
}

// Render formats one node over already rendered inputs.
func Render(node ir.Node, in []string) string {
	arg := func(i int) string {
		if i < len(in) {
			return in[i]
		}
		return "None"
	}

	switch node.Op() {
	case ir.Source:
		return fmt.Sprintf("Scan(%s)", node.Str("uri", "unknown"))
	case ir.Map:
		return fmt.Sprintf("Map(%s, fn=%s)", arg(0), node.Str("fn_name", "fn"))
	case ir.Filter:
		return fmt.Sprintf("Filter(%s, pred=%s)", arg(0), node.Str("fn_name", "pred"))
	case ir.Sink:
		return fmt.Sprintf("Sink(%s, target=%s)", arg(0), node.Str("uri", "stdout"))
	case ir.Window:
		return fmt.Sprintf("Window(%s, size=%d)", arg(0), node.Int("size", 0))
	case ir.Reduce:
		return fmt.Sprintf("Reduce(%s, fn=%s)", arg(0), node.Str("fn_name", "fn"))
	case ir.Join:
		return fmt.Sprintf("Join(%s, %s, on=%s)", arg(0), arg(1), node.Str("on", ""))
	case ir.Union:
		if len(in) == 0 {
			return "Union(None)"
		}
		return fmt.Sprintf("Union(%s)", strings.Join(in, ", "))
	case ir.Choice, ir.Ensemble, ir.Merge:
		if backend.IsOperatorComposite(node) {
			return fmt.Sprintf("%s(%s, %s)", node.Op(), branch(node, "left", arg(0)), branch(node, "right", arg(0)))
		}
		return fmt.Sprintf("%s(%s, %s)", node.Op(), arg(0), arg(1))
	case ir.Custom:
		return fmt.Sprintf("%s(%s)", node.Str("kind", "Custom"), arg(0))
	default:
		return fmt.Sprintf("%s(%s)", node.Op(), arg(0))
	}
}

// branch renders one side of an operator-level composite over the shared
// input.
func branch(node ir.Node, side, input string) string {
	left, right, err := backend.Branches(node)
	if err != nil {
		return input
	}
	nodes := left
	if side == "right" {
		nodes = right
	}
	out := input
	for _, n := range nodes {
		out = Render(n, []string{out})
	}
	return out
}
