package algebra

import (
	"testing"

	"github.com/kbukum/flowc/errors"
	"github.com/kbukum/flowc/ir"
)

func inc() Func {
	return NamedFunc("inc", func(v any) (any, error) { return v.(float64) + 1, nil })
}

func pos() Func {
	return Pred("pos", func(v any) bool { return v.(float64) > 0 })
}

func opsOf(g *ir.Graph) []ir.OpType {
	var out []ir.OpType
	for _, n := range g.Nodes() {
		out = append(out, n.Op())
	}
	return out
}

func TestSequenceGrowsGraph(t *testing.T) {
	ops := []Operator{Filter(pos()), Map(inc()), Window(3), Map(inc())}
	for k := 0; k <= len(ops); k++ {
		s := Source("csv://data.csv")
		for _, op := range ops[:k] {
			s = s.Then(op)
		}
		s = s.Then(Sink("stdout"))
		g := s.Graph()
		if g.Len() != k+2 {
			t.Fatalf("k=%d: expected %d nodes, got %d", k, k+2, g.Len())
		}
		if len(g.Edges()) != k+1 {
			t.Fatalf("k=%d: expected %d edges, got %d", k, k+1, len(g.Edges()))
		}
		if s.Tip().Op() != ir.Sink {
			t.Fatalf("expected tip Sink, got %s", s.Tip().Op())
		}
	}
}

func TestEverySequenceSharesGraph(t *testing.T) {
	src := Source("csv://data.csv")
	mapped := src.Then(Map(inc()))
	if src.Graph() != mapped.Graph() {
		t.Fatal("expected Then to reuse the source graph")
	}
	if !mapped.Graph().Has(src.Tip().ID()) {
		t.Fatal("expected source node in graph")
	}
	if got := mapped.Tip().Parents(); len(got) != 1 || got[0] != src.Tip().ID() {
		t.Fatalf("expected parent %s, got %v", src.Tip().ID(), got)
	}
}

func TestChainIsAssociative(t *testing.T) {
	a, b, c := Filter(pos()), Map(inc()), Sink("stdout")

	left := Source("x").Then(Chain(Chain(a, b), c)).Graph()
	right := Source("x").Then(Chain(a, Chain(b, c))).Graph()
	flat := Source("x").Then(a).Then(b).Then(c).Graph()

	want := []ir.OpType{ir.Source, ir.Filter, ir.Map, ir.Sink}
	for name, g := range map[string]*ir.Graph{"left": left, "right": right, "flat": flat} {
		got := opsOf(g)
		if len(got) != len(want) {
			t.Fatalf("%s: expected %v, got %v", name, want, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("%s: expected %v, got %v", name, want, got)
			}
		}
	}
}

func TestChainReportsLastOpType(t *testing.T) {
	c := Chain(Filter(pos()), Map(inc()))
	if c.OpType() != ir.Map {
		t.Fatalf("expected Map, got %s", c.OpType())
	}
	steps, ok := c.Config()["steps"].([]any)
	if !ok || len(steps) != 2 {
		t.Fatalf("expected two steps, got %v", c.Config())
	}
}

func TestCompositesHaveTwoParents(t *testing.T) {
	tests := []struct {
		name string
		op   ir.OpType
		fn   func(a, b *Stream) *Stream
	}{
		{"or", ir.Choice, (*Stream).Or},
		{"and", ir.Ensemble, (*Stream).And},
		{"plus", ir.Merge, (*Stream).Plus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Source("a").Then(Map(inc()))
			b := Source("b")
			out := tt.fn(a, b)
			if out.Tip().Op() != tt.op {
				t.Fatalf("expected %s, got %s", tt.op, out.Tip().Op())
			}
			parents := out.Tip().Parents()
			if len(parents) != 2 || parents[0] != a.Tip().ID() || parents[1] != b.Tip().ID() {
				t.Fatalf("expected parents [%s %s], got %v", a.Tip().ID(), b.Tip().ID(), parents)
			}
			if out.Graph().Len() != 4 {
				t.Fatalf("expected 4 nodes, got %d", out.Graph().Len())
			}
		})
	}
}

func TestCombineSharesGraphBothWays(t *testing.T) {
	big := Source("a").Then(Map(inc())).Then(Filter(pos()))
	small := Source("b")
	smallGraph := small.Graph()

	out := small.Plus(big)
	if small.Graph() != big.Graph() || out.Graph() != big.Graph() {
		t.Fatal("expected all handles to share one graph")
	}
	if small.Graph() == smallGraph {
		t.Fatal("expected the larger graph to absorb the smaller")
	}

	// Extending the other handle afterwards is visible from the combined one.
	next := small.Then(Sink("stdout"))
	if !out.Graph().Has(next.Tip().ID()) {
		t.Fatal("expected later node in shared graph")
	}
}

func TestCombineTieKeepsReceiverGraph(t *testing.T) {
	a := Source("a")
	b := Source("b")
	ag := a.Graph()
	a.Or(b)
	if a.Graph() != ag || b.Graph() != ag {
		t.Fatal("expected receiver graph to win a tie")
	}
}

func TestApplyRejectsNonOperators(t *testing.T) {
	s := Source("x")
	for _, v := range []any{42, "map", nil, s} {
		_, err := s.Apply(v)
		if !errors.Is(err, errors.ErrCodeTypeMismatch) {
			t.Fatalf("%v: expected TYPE_MISMATCH, got %v", v, err)
		}
	}
	out, err := s.Apply(Map(inc()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Tip().Op() != ir.Map {
		t.Fatalf("expected Map, got %s", out.Tip().Op())
	}
}

func TestCombineRejectsNonStreams(t *testing.T) {
	s := Source("x")
	if _, err := s.Combine(ir.Merge, 3); !errors.Is(err, errors.ErrCodeTypeMismatch) {
		t.Fatalf("expected TYPE_MISMATCH, got %v", err)
	}
	if _, err := s.Combine(ir.Map, Source("y")); !errors.Is(err, errors.ErrCodeBuild) {
		t.Fatalf("expected BUILD_ERROR, got %v", err)
	}
}

func TestJoinAndUnion(t *testing.T) {
	prices := Source("csv://prices.csv")
	meta := Source("csv://meta.csv")
	joined := prices.Then(Join(meta, "symbol"))
	if joined.Tip().Op() != ir.Join || joined.Tip().NumParents() != 2 {
		t.Fatalf("expected Join with two parents, got %s/%d", joined.Tip().Op(), joined.Tip().NumParents())
	}
	if joined.Tip().Str("on", "") != "symbol" {
		t.Fatalf("expected on=symbol, got %v", joined.Tip().Config())
	}
	if !joined.Graph().Has(meta.Tip().ID()) {
		t.Fatal("expected joined graph to contain the other source")
	}

	u := Source("a").Then(Union(Source("b"), Source("c")))
	if u.Tip().NumParents() != 3 {
		t.Fatalf("expected 3 parents, got %d", u.Tip().NumParents())
	}
	if u.Graph().Len() != 4 {
		t.Fatalf("expected 4 nodes, got %d", u.Graph().Len())
	}
}

func TestOperatorComposites(t *testing.T) {
	s := Source("x").Then(Choice(Map(inc()), Filter(pos())))
	if s.Tip().Op() != ir.Choice || s.Tip().NumParents() != 1 {
		t.Fatalf("expected single-parent Choice, got %s/%d", s.Tip().Op(), s.Tip().NumParents())
	}
	left, ok := s.Tip().Config()["left"].(map[string]any)
	if !ok || left["type"] != "Map" {
		t.Fatalf("expected left Map descriptor, got %v", s.Tip().Config()["left"])
	}
}

func TestCustomCopiesParams(t *testing.T) {
	params := map[string]any{"window": 5}
	s := Source("x").Then(Custom("SMA", params))
	params["window"] = 9
	if s.Tip().Kind() != "SMA" || s.Tip().Int("window", 0) != 5 {
		t.Fatalf("unexpected custom node config %v", s.Tip().Config())
	}
}

func TestFuncOf(t *testing.T) {
	n := ir.NewNode("m", ir.Map, map[string]any{"fn": inc().WithExpr("x + 1"), "fn_name": "inc"}, "s")
	f, ok := FuncOf(n, "fn")
	if !ok || f.Name != "inc" {
		t.Fatalf("expected inc, got %v %v", f, ok)
	}
	out, err := f.Call(1.0)
	if err != nil || out != 2.0 {
		t.Fatalf("expected 2, got %v %v", out, err)
	}
	if ExprOf(n) != "x + 1" {
		t.Fatalf("expected expr, got %q", ExprOf(n))
	}

	raw := ir.NewNode("f", ir.Filter, map[string]any{"predicate": func(v any) bool { return v == 1 }, "fn_name": "one"}, "s")
	p, ok := FuncOf(raw, "predicate")
	if !ok || p.Name != "one" {
		t.Fatalf("expected one, got %v %v", p, ok)
	}
	if keep, _ := p.Test(1); !keep {
		t.Fatal("expected predicate to accept 1")
	}
	if _, err := NamedFunc("bad", func(v any) (any, error) { return v, nil }).Test(1); err == nil {
		t.Fatal("expected non-bool predicate to fail")
	}
}
