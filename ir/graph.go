package ir

import (
	"github.com/google/uuid"
)

// Edge links a parent node to a child that consumes it.
type Edge struct {
	Parent string
	Child  string
}

// Graph is a grow-only DAG of nodes. Edges are derived from node parents when
// a node is added and are never added on their own. A Graph is not safe for
// concurrent mutation; build it, then compile it.
type Graph struct {
	id    string
	order []string
	nodes map[string]Node
	edges []Edge
}

// NewGraph returns an empty graph with a fresh id.
func NewGraph() *Graph {
	return NewGraphWithID(uuid.NewString())
}

// NewGraphWithID returns an empty graph with the given id.
func NewGraphWithID(id string) *Graph {
	return &Graph{id: id, nodes: make(map[string]Node)}
}

// ID identifies this pipeline version.
func (g *Graph) ID() string { return g.id }

// AddNode registers n and derives one edge per parent. Adding an id that is
// already present changes nothing and returns false.
func (g *Graph) AddNode(n Node) bool {
	if _, exists := g.nodes[n.id]; exists {
		return false
	}
	g.nodes[n.id] = n
	g.order = append(g.order, n.id)
	for _, p := range n.parents {
		g.edges = append(g.edges, Edge{Parent: p, Child: n.id})
	}
	return true
}

// Absorb adds every node of other in other's insertion order.
func (g *Graph) Absorb(other *Graph) {
	if other == nil || other == g {
		return
	}
	for _, id := range other.order {
		g.AddNode(other.nodes[id])
	}
}

// Node looks up a node by id.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Has reports whether id is registered.
func (g *Graph) Has(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.order) }

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, len(g.order))
	for i, id := range g.order {
		out[i] = g.nodes[id]
	}
	return out
}

// Edges returns a copy of the edge list.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// Sources returns nodes without parents, in insertion order.
func (g *Graph) Sources() []Node {
	return g.selectNodes(func(n Node) bool { return len(n.parents) == 0 })
}

// Sinks returns nodes tagged Sink, in insertion order.
func (g *Graph) Sinks() []Node {
	return g.selectNodes(func(n Node) bool { return n.op == Sink })
}

// Leaves returns nodes no other node consumes, in insertion order.
func (g *Graph) Leaves() []Node {
	consumed := make(map[string]bool, len(g.edges))
	for _, e := range g.edges {
		consumed[e.Parent] = true
	}
	return g.selectNodes(func(n Node) bool { return !consumed[n.id] })
}

func (g *Graph) selectNodes(keep func(Node) bool) []Node {
	var out []Node
	for _, id := range g.order {
		if n := g.nodes[id]; keep(n) {
			out = append(out, n)
		}
	}
	return out
}
