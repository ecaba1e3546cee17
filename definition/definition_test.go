package definition

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kbukum/flowc/backend/native"
	"github.com/kbukum/flowc/backend/plan"
	"github.com/kbukum/flowc/compiler"
	"github.com/kbukum/flowc/errors"
	"github.com/kbukum/flowc/ir"
	"github.com/kbukum/flowc/logger"
	"github.com/kbukum/flowc/record"
)

const momentum = `
name: momentum
source: csv://prices.csv
steps:
  - op: filter
    fn: positive_close
  - op: custom
    kind: RSI
    params: {window: 14}
  - op: sink
    uri: memory
`

func TestParse(t *testing.T) {
	d, err := Parse([]byte(momentum))
	if err != nil {
		t.Fatal(err)
	}
	if d.Name != "momentum" || d.Source != "csv://prices.csv" || len(d.Steps) != 3 {
		t.Fatalf("unexpected definition %+v", d)
	}
	if d.Steps[1].Kind != "RSI" || d.Steps[1].Params["window"] != 14 {
		t.Fatalf("unexpected custom step %+v", d.Steps[1])
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		code errors.ErrorCode
	}{
		{"bad yaml", "name: [", errors.ErrCodeInvalidInput},
		{"missing name", "source: x\n", errors.ErrCodeInvalidInput},
		{"no source", "name: a\n", errors.ErrCodeInvalidInput},
		{"unknown op", "name: a\nsource: x\nsteps:\n  - op: explode\n", errors.ErrCodeInvalidInput},
		{"filter without fn", "name: a\nsource: x\nsteps:\n  - op: filter\n", errors.ErrCodeInvalidInput},
		{"custom without kind", "name: a\nsource: x\nsteps:\n  - op: custom\n", errors.ErrCodeInvalidInput},
		{"zero window", "name: a\nsource: x\nsteps:\n  - op: window\n", errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml)); !errors.Is(err, tt.code) {
				t.Fatalf("expected %s, got %v", tt.code, err)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "none.yaml")); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestBuild_RendersPlan(t *testing.T) {
	d, err := Parse([]byte(momentum))
	if err != nil {
		t.Fatal(err)
	}
	s, err := Build(d, StandardFuncs())
	if err != nil {
		t.Fatal(err)
	}
	res, err := compiler.New(&plan.Backend{}, compiler.WithLogger(logger.NewNop())).Compile(context.Background(), s.Compile())
	if err != nil {
		t.Fatal(err)
	}
	want := "Sink(RSI(Filter(Scan(csv://prices.csv), pred=positive_close)), target=memory)"
	if res.Value() != want {
		t.Fatalf("expected %s, got %v", want, res.Value())
	}
}

func TestBuild_UnknownFunction(t *testing.T) {
	d := &Definition{Name: "a", Source: "x", Steps: []Step{{Op: OpMap, Fn: "nope"}}}
	if _, err := Build(d, StandardFuncs()); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestBuild_InlineDataRunsNative(t *testing.T) {
	d := &Definition{
		Name: "inline",
		Data: []record.Row{
			{"open": 1.0, "close": 2.0, "high": 3.0, "low": 1.0},
			{"open": 2.0, "close": 1.0, "high": 2.0, "low": 0.0},
		},
		Steps: []Step{
			{Op: OpFilter, Fn: "up_day"},
			{Op: OpMap, Fn: "typical_price"},
			{Op: OpSink, URI: "memory"},
		},
	}
	s, err := Build(d, StandardFuncs())
	if err != nil {
		t.Fatal(err)
	}
	res, err := compiler.New(native.NewBackend(native.WithLogger(logger.NewNop())), compiler.WithLogger(logger.NewNop())).
		Compile(context.Background(), s.Compile())
	if err != nil {
		t.Fatal(err)
	}
	out, err := res.Value().(native.Thunk).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []any{record.Row{"open": 1.0, "close": 2.0, "high": 3.0, "low": 1.0, "tp": 2.0}}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_SumCloseReduce(t *testing.T) {
	d := &Definition{Name: "sum", Source: "stub://", Steps: []Step{{Op: OpReduce, Fn: "sum_close"}, {Op: OpSink, URI: "memory"}}}
	s, err := Build(d, StandardFuncs())
	if err != nil {
		t.Fatal(err)
	}
	res, err := compiler.New(native.NewBackend(native.WithLogger(logger.NewNop())), compiler.WithLogger(logger.NewNop())).
		Compile(context.Background(), s.Compile())
	if err != nil {
		t.Fatal(err)
	}
	out, err := res.Value().(native.Thunk).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0] != 120.0 {
		t.Fatalf("expected [120], got %v", out)
	}
}

func TestBuild_IncludesShareDiamond(t *testing.T) {
	defs := Definitions{
		"base":  {Name: "base", Source: "csv://base.csv"},
		"left":  {Name: "left", Includes: []string{"base"}, Steps: []Step{{Op: OpFilter, Fn: "positive_close"}}},
		"right": {Name: "right", Includes: []string{"base"}, Steps: []Step{{Op: OpCustom, Kind: "SMA", Params: map[string]any{"window": 3}}}},
	}
	top := &Definition{Name: "top", Includes: []string{"left", "right"}, Steps: []Step{{Op: OpSink, URI: "memory"}}}
	s, err := Build(top, StandardFuncs(), WithLoader(defs))
	if err != nil {
		t.Fatal(err)
	}
	g := s.Compile()
	if n := len(g.Sources()); n != 1 {
		t.Fatalf("expected one shared source, got %d", n)
	}
	if g.Len() != 5 {
		t.Fatalf("expected 5 nodes, got %d", g.Len())
	}
	merges := 0
	for _, n := range g.Nodes() {
		if n.Op() == ir.Merge {
			merges++
		}
	}
	if merges != 1 {
		t.Fatalf("expected one merge, got %d", merges)
	}
}

func TestBuild_CircularInclude(t *testing.T) {
	defs := Definitions{
		"a": {Name: "a", Includes: []string{"b"}},
		"b": {Name: "b", Includes: []string{"a"}},
	}
	_, err := Build(defs["a"], nil, WithLoader(defs))
	if !errors.Is(err, errors.ErrCodeMalformedGraph) {
		t.Fatalf("expected MALFORMED_GRAPH, got %v", err)
	}
}

func TestFileLoader(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "momentum.yml"), []byte(momentum), 0o644); err != nil {
		t.Fatal(err)
	}
	d, err := NewFileLoader(dir).Load("momentum")
	if err != nil {
		t.Fatal(err)
	}
	if d.Name != "momentum" {
		t.Fatalf("expected momentum, got %q", d.Name)
	}
	if _, err := NewFileLoader(dir).Load("other"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestStandardFuncs_Names(t *testing.T) {
	want := []string{"identity", "positive_close", "sum_close", "typical_price", "up_day"}
	if diff := cmp.Diff(want, StandardFuncs().Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}
