package dot

import (
	"context"
	"strings"
	"testing"

	"github.com/kbukum/flowc/algebra"
	"github.com/kbukum/flowc/backend"
	"github.com/kbukum/flowc/compiler"
	"github.com/kbukum/flowc/ir"
	"github.com/kbukum/flowc/logger"
)

func TestPluginRendersGraph(t *testing.T) {
	reg := backend.NewRegistry()
	reg.Install(Plugin{})

	src := algebra.Source("csv://in.csv")
	s := src.Then(algebra.Window(3)).Then(algebra.Sink("stdout"))
	res, err := compiler.Compile(context.Background(), s.Compile(), Name, reg, compiler.WithLogger(logger.NewNop()))
	if err != nil {
		t.Fatal(err)
	}
	plan, ok := res.Value().(*Plan)
	if !ok {
		t.Fatalf("expected *Plan, got %T", res.Value())
	}
	if plan.Len() != 3 {
		t.Fatalf("expected 3 nodes, got %d", plan.Len())
	}
	out := plan.String()
	srcID := "n_" + src.Tip().Ident()
	for _, want := range []string{
		"digraph flow {",
		srcID + ` [label="Source\ncsv://in.csv"];`,
		`[label="Window\nsize=3"]`,
		srcID + " -> n_",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in:\n%s", want, out)
		}
	}
}

func TestDiamondRendersSharedNodeOnce(t *testing.T) {
	src := algebra.Source("x")
	s := src.Then(algebra.Window(2)).Plus(src.Then(algebra.Window(3)))
	res, err := compiler.New(&Backend{}, compiler.WithLogger(logger.NewNop())).Compile(context.Background(), s.Compile())
	if err != nil {
		t.Fatal(err)
	}
	out := res.Value().(*Plan).String()
	if n := strings.Count(out, `label="Source`); n != 1 {
		t.Fatalf("expected one source node, got %d", n)
	}
	if n := strings.Count(out, " -> "); n != 4 {
		t.Fatalf("expected 4 edges, got %d", n)
	}
}

func TestPluginRegistersAsPlugin(t *testing.T) {
	reg := backend.NewRegistry()
	reg.Install(Plugin{})
	entries := reg.Entries()
	if len(entries) != 1 || entries[0].Name != Name || entries[0].Origin != backend.OriginPlugin {
		t.Fatalf("unexpected entries %+v", entries)
	}
}

func TestNodeNamesUseFullID(t *testing.T) {
	g := ir.NewGraph()
	g.AddNode(ir.NewNode("pipeline-src", ir.Source, map[string]any{"uri": "a.csv"}))
	g.AddNode(ir.NewNode("pipeline-flt", ir.Filter, map[string]any{"fn_name": "pos"}, "pipeline-src"))
	g.AddNode(ir.NewNode("pipeline:snk", ir.Sink, map[string]any{"uri": "stdout"}, "pipeline-flt"))

	res, err := compiler.New(&Backend{}, compiler.WithLogger(logger.NewNop())).Compile(context.Background(), g)
	if err != nil {
		t.Fatal(err)
	}
	plan := res.Value().(*Plan)
	if plan.Len() != 3 {
		t.Fatalf("expected 3 nodes, got %d", plan.Len())
	}
	out := plan.String()
	for _, want := range []string{
		"n_pipeline_2dsrc -> n_pipeline_2dflt;",
		"n_pipeline_2dflt -> n_pipeline__snk;",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in:\n%s", want, out)
		}
	}
}
