// Package dot renders graphs as Graphviz DOT. It registers itself through
// the plugin extension point rather than as a built-in:
//
//	reg.Install(dot.Plugin{})
//	res, _ := compiler.Compile(ctx, g, "dot", reg)
//	fmt.Println(res.Value())
package dot

import (
	"context"
	"fmt"
	"strings"

	"github.com/kbukum/flowc/backend"
	"github.com/kbukum/flowc/ir"
)

// Name is the registry name of this backend.
const Name = "dot"

// Plan is the DOT rendering of the subgraph compiled so far.
type Plan struct {
	nodes []string
	edges []string
	seen  map[string]bool
}

func newPlan() *Plan { return &Plan{seen: make(map[string]bool)} }

func (p *Plan) addNode(key, stmt string) {
	if !p.seen[key] {
		p.seen[key] = true
		p.nodes = append(p.nodes, stmt)
	}
}

func (p *Plan) addEdge(e string) {
	if !p.seen[e] {
		p.seen[e] = true
		p.edges = append(p.edges, e)
	}
}

// keys returns the node names in statement order.
func (p *Plan) keys() []string {
	out := make([]string, len(p.nodes))
	for i, n := range p.nodes {
		out[i], _, _ = strings.Cut(n, " ")
	}
	return out
}

// Len is the number of nodes.
func (p *Plan) Len() int { return len(p.nodes) }

func (p *Plan) String() string {
	var sb strings.Builder
	sb.WriteString("digraph flow {\n  rankdir=LR;\n")
	for _, n := range p.nodes {
		sb.WriteString("  " + n + ";\n")
	}
	for _, e := range p.edges {
		sb.WriteString("  " + e + ";\n")
	}
	sb.WriteString("}\n")
	return sb.String()
}

// Backend emits one DOT node per graph node.
type Backend struct{}

// New is the registry factory.
func New(map[string]any) (backend.Backend, error) { return &Backend{}, nil }

func (b *Backend) Name() string { return Name }

func (b *Backend) CompileNode(_ context.Context, node ir.Node, parents []any) (any, error) {
	plan := newPlan()
	for _, p := range parents {
		up, ok := p.(*Plan)
		if !ok {
			continue
		}
		keys := up.keys()
		for i, n := range up.nodes {
			plan.addNode(keys[i], n)
		}
		for _, e := range up.edges {
			plan.addEdge(e)
		}
	}
	id := dotID(node.ID())
	plan.addNode(id, fmt.Sprintf("%s [label=%q]", id, label(node)))
	for _, parent := range node.Parents() {
		plan.addEdge(dotID(parent) + " -> " + id)
	}
	return plan, nil
}

func dotID(id string) string { return "n_" + ir.Ident(id) }

// label is the op name over one line of detail.
func label(node ir.Node) string {
	var detail string
	switch node.Op() {
	case ir.Source, ir.Sink:
		detail = node.Str("uri", "")
	case ir.Map, ir.Filter, ir.Reduce:
		detail = node.Str("fn_name", "")
	case ir.Window:
		detail = fmt.Sprintf("size=%d", node.Int("size", 0))
	case ir.Join:
		detail = "on=" + node.Str("on", "")
	case ir.Custom:
		detail = node.Kind()
	}
	if detail == "" {
		return node.Op().String()
	}
	return node.Op().String() + "\n" + detail
}

// Plugin installs the dot backend.
type Plugin struct{}

func (Plugin) Install(r *backend.Registry) {
	r.RegisterBackend(Name, New)
}
