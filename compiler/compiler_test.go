package compiler

import (
	"context"
	"fmt"
	"testing"

	"github.com/kbukum/flowc/algebra"
	"github.com/kbukum/flowc/backend"
	"github.com/kbukum/flowc/backend/plan"
	"github.com/kbukum/flowc/errors"
	"github.com/kbukum/flowc/ir"
)

// countingBackend records how often each node is compiled and returns the
// node id joined with its inputs.
type countingBackend struct {
	calls  map[string]int
	failOn string
}

func newCounting() *countingBackend {
	return &countingBackend{calls: make(map[string]int)}
}

func (b *countingBackend) Name() string { return "counting" }

func (b *countingBackend) CompileNode(_ context.Context, node ir.Node, parents []any) (any, error) {
	b.calls[node.ID()]++
	if node.ID() == b.failOn {
		return nil, fmt.Errorf("cannot compile %s", node.ID())
	}
	return fmt.Sprintf("%s%v", node.ID(), parents), nil
}

func TestCompilePlan(t *testing.T) {
	inc := algebra.NamedFunc("inc", func(v any) (any, error) { return v, nil })
	pos := algebra.Pred("pos", func(any) bool { return true })
	s := algebra.Source("csv://data.csv").
		Then(algebra.Filter(pos)).
		Then(algebra.Map(inc)).
		Then(algebra.Sink("stdout"))

	res, err := New(&plan.Backend{}).Compile(context.Background(), s.Compile())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Sink(Map(Filter(Scan(csv://data.csv), pred=pos), fn=inc), target=stdout)"
	if res.Value() != want {
		t.Fatalf("expected %q, got %v", want, res.Value())
	}
}

func TestDiamondCompiledOnce(t *testing.T) {
	g := ir.NewGraph()
	g.AddNode(ir.NewNode("src", ir.Source, nil))
	g.AddNode(ir.NewNode("a", ir.Map, nil, "src"))
	g.AddNode(ir.NewNode("b", ir.Filter, nil, "src"))
	g.AddNode(ir.NewNode("m", ir.Merge, nil, "a", "b"))
	g.AddNode(ir.NewNode("out", ir.Sink, nil, "m"))

	b := newCounting()
	var observed []string
	res, err := New(b, WithObserver(func(n ir.Node) { observed = append(observed, n.ID()) })).
		Compile(context.Background(), g)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for id, n := range b.calls {
		if n != 1 {
			t.Fatalf("node %s compiled %d times", id, n)
		}
	}
	if len(b.calls) != 5 || len(observed) != 5 {
		t.Fatalf("expected 5 compiled nodes, got %v", b.calls)
	}
	if observed[0] != "src" || observed[4] != "out" {
		t.Fatalf("expected parents before children, got %v", observed)
	}
	want := "out[m[a[src[]] b[src[]]]]"
	if res.Value() != want {
		t.Fatalf("expected %q, got %v", want, res.Value())
	}
}

func TestTargetsWithoutSinkAreLeaves(t *testing.T) {
	g := ir.NewGraph()
	g.AddNode(ir.NewNode("src", ir.Source, nil))
	g.AddNode(ir.NewNode("a", ir.Map, nil, "src"))
	g.AddNode(ir.NewNode("b", ir.Filter, nil, "src"))

	res, err := New(newCounting()).Compile(context.Background(), g)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Len() != 2 || res.Targets[0] != "a" || res.Targets[1] != "b" {
		t.Fatalf("expected targets [a b], got %v", res.Targets)
	}
	list, ok := res.Value().([]any)
	if !ok || len(list) != 2 {
		t.Fatalf("expected artifact list, got %v", res.Value())
	}
}

func TestSinksWinOverLeaves(t *testing.T) {
	g := ir.NewGraph()
	g.AddNode(ir.NewNode("src", ir.Source, nil))
	g.AddNode(ir.NewNode("dangling", ir.Map, nil, "src"))
	g.AddNode(ir.NewNode("out", ir.Sink, nil, "src"))

	b := newCounting()
	res, err := New(b).Compile(context.Background(), g)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Len() != 1 || res.Targets[0] != "out" {
		t.Fatalf("expected target out, got %v", res.Targets)
	}
	if b.calls["dangling"] != 0 {
		t.Fatal("expected unreachable node to be skipped")
	}
}

func TestMalformedGraph(t *testing.T) {
	tests := []struct {
		name  string
		build func() *ir.Graph
		node  string
	}{
		{"empty", ir.NewGraph, ""},
		{"dangling parent", func() *ir.Graph {
			g := ir.NewGraph()
			g.AddNode(ir.NewNode("out", ir.Sink, nil, "ghost"))
			return g
		}, "out"},
		{"cycle", func() *ir.Graph {
			g := ir.NewGraph()
			g.AddNode(ir.NewNode("a", ir.Map, nil, "b"))
			g.AddNode(ir.NewNode("b", ir.Map, nil, "a"))
			g.AddNode(ir.NewNode("out", ir.Sink, nil, "a"))
			return g
		}, "a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(newCounting()).Compile(context.Background(), tt.build())
			if !errors.Is(err, errors.ErrCodeMalformedGraph) {
				t.Fatalf("expected MALFORMED_GRAPH, got %v", err)
			}
			if tt.node != "" && errors.NodeID(err) != tt.node {
				t.Fatalf("expected node %q, got %q", tt.node, errors.NodeID(err))
			}
		})
	}
}

func TestBackendErrorCarriesNode(t *testing.T) {
	g := ir.NewGraph()
	g.AddNode(ir.NewNode("src", ir.Source, nil))
	g.AddNode(ir.NewNode("bad", ir.Map, nil, "src"))
	g.AddNode(ir.NewNode("out", ir.Sink, nil, "bad"))

	b := newCounting()
	b.failOn = "bad"
	res, err := New(b).Compile(context.Background(), g)
	if res != nil {
		t.Fatal("expected no partial result")
	}
	if !errors.Is(err, errors.ErrCodeBackendExecution) {
		t.Fatalf("expected BACKEND_EXECUTION, got %v", err)
	}
	if errors.NodeID(err) != "bad" {
		t.Fatalf("expected node bad, got %q", errors.NodeID(err))
	}
	if b.calls["out"] != 0 {
		t.Fatal("expected traversal to stop at the failing node")
	}
}

func TestAppErrorKeepsCode(t *testing.T) {
	g := ir.NewGraph()
	g.AddNode(ir.NewNode("w", ir.Window, nil))
	unsupported := backendFunc(func(node ir.Node) (any, error) {
		return nil, errors.Unsupported("test", node.Op().String())
	})
	_, err := New(unsupported).Compile(context.Background(), g)
	if !errors.Is(err, errors.ErrCodeUnsupported) || !errors.IsBackendExecution(err) {
		t.Fatalf("expected UNSUPPORTED_OPERATION, got %v", err)
	}
	if errors.NodeID(err) != "w" {
		t.Fatalf("expected node w, got %q", errors.NodeID(err))
	}
}

func TestCompileResolvesTarget(t *testing.T) {
	reg := backend.NewRegistry()
	reg.RegisterBuiltin(plan.Name, plan.New)
	g := algebra.Source("x").Graph()

	res, err := Compile(context.Background(), g, "string", reg)
	if err != nil || res.Value() != "Scan(x)" {
		t.Fatalf("expected Scan(x), got %v %v", res, err)
	}
	if _, err := Compile(context.Background(), g, "nope", reg); !errors.Is(err, errors.ErrCodeUnknownBackend) {
		t.Fatalf("expected UNKNOWN_BACKEND, got %v", err)
	}
}

type backendFunc func(ir.Node) (any, error)

func (f backendFunc) Name() string { return "func" }

func (f backendFunc) CompileNode(_ context.Context, node ir.Node, _ []any) (any, error) {
	return f(node)
}
