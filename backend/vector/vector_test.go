package vector

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/google/go-cmp/cmp"

	"github.com/kbukum/flowc/algebra"
	"github.com/kbukum/flowc/compiler"
	"github.com/kbukum/flowc/errors"
	"github.com/kbukum/flowc/indicator"
	"github.com/kbukum/flowc/indicator/indicatortest"
	"github.com/kbukum/flowc/logger"
	"github.com/kbukum/flowc/record"
)

const eps = 1e-9

func compileAction(t *testing.T, s *algebra.Stream) *Action {
	t.Helper()
	res, err := compiler.New(NewBackend(WithLogger(logger.NewNop())), compiler.WithLogger(logger.NewNop())).
		Compile(context.Background(), s.Compile())
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	a, ok := res.Value().(*Action)
	if !ok {
		t.Fatalf("expected *Action, got %T", res.Value())
	}
	return a
}

func runRows(t *testing.T, s *algebra.Stream) []record.Row {
	t.Helper()
	f, err := compileAction(t, s).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return f.Rows()
}

func TestIndicatorsMatchRowwise(t *testing.T) {
	bars := indicatortest.Bars()
	mem := memory.NewGoAllocator()
	frame := FrameFromRows(mem, bars)
	for _, kind := range indicator.Kinds() {
		t.Run(string(kind), func(t *testing.T) {
			p, err := indicator.ParseParams(kind, map[string]any{"window": 5})
			if err != nil {
				t.Fatal(err)
			}
			want, err := indicator.Compute(kind, bars, p)
			if err != nil {
				t.Fatal(err)
			}
			got := applyIndicator(mem, frame, kind, p)
			for _, name := range indicator.Columns(kind, p) {
				w := record.Column(want, name)
				g := got.series(name)
				for i := range w {
					if math.IsNaN(w[i]) != math.IsNaN(g[i]) {
						t.Fatalf("%s[%d]: expected %v, got %v", name, i, w[i], g[i])
					}
					if !math.IsNaN(w[i]) && math.Abs(w[i]-g[i]) > eps {
						t.Fatalf("%s[%d]: expected %v, got %v", name, i, w[i], g[i])
					}
				}
			}
		})
	}
}

func TestRSIOnStubIsNull(t *testing.T) {
	a := compileAction(t, algebra.Source("stub://").Then(indicator.RSI(14, "close")).Then(algebra.Sink("memory")))
	f, err := a.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if f.Len() != 15 {
		t.Fatalf("expected 15 rows, got %d", f.Len())
	}
	_, valid := f.Float64("rsi_14")
	for i, ok := range valid {
		if ok {
			t.Fatalf("row %d: expected null rsi_14", i)
		}
	}
}

func TestWindowIsUnsupported(t *testing.T) {
	s := algebra.Source("stub://").Then(algebra.Window(3)).Then(algebra.Sink("memory"))
	_, err := compiler.New(NewBackend(), compiler.WithLogger(logger.NewNop())).Compile(context.Background(), s.Compile())
	if !errors.Is(err, errors.ErrCodeUnsupported) || !errors.IsBackendExecution(err) {
		t.Fatalf("expected UNSUPPORTED_OPERATION, got %v", err)
	}
}

func TestFilterAndMap(t *testing.T) {
	big := algebra.Pred("big", func(v any) bool { return v.(record.Row)["close"].(float64) > 13 })
	dbl := algebra.NamedFunc("dbl", func(v any) (any, error) {
		return record.Row{"dbl": v.(record.Row)["close"].(float64) * 2}, nil
	})
	label := algebra.NamedFunc("label", func(any) (any, error) { return "x", nil })
	s := algebra.Source("stub://").
		Then(algebra.Filter(big)).
		Then(algebra.Map(dbl)).
		Then(algebra.Map(label)).
		Then(algebra.Sink("memory"))
	rows := runRows(t, s)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0]["dbl"] != 28.0 || rows[1]["payload"] != "x" || rows[1]["close"] != 15.0 {
		t.Fatalf("unexpected rows %v", rows)
	}
}

func TestMergeUnionsColumns(t *testing.T) {
	s := algebra.FromRows([]record.Row{{"a": 1.0}}).
		Plus(algebra.FromRows([]record.Row{{"b": "x"}})).
		Then(algebra.Sink("memory"))
	want := []record.Row{{"a": 1.0, "b": nil}, {"a": nil, "b": "x"}}
	if diff := cmp.Diff(want, runRows(t, s)); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestEnsembleStacksColumns(t *testing.T) {
	s := algebra.FromRows([]record.Row{{"a": 1.0}, {"a": 2.0}}).
		And(algebra.FromRows([]record.Row{{"a": 9.0}})).
		Then(algebra.Sink("memory"))
	want := []record.Row{{"a": 1.0, "a_right": 9.0}}
	if diff := cmp.Diff(want, runRows(t, s)); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestChoiceFallsBackOnEmpty(t *testing.T) {
	none := algebra.Pred("none", func(any) bool { return false })
	s := algebra.Source("stub://").Then(algebra.Filter(none)).
		Or(algebra.FromRows([]record.Row{{"a": 1.0}})).
		Then(algebra.Sink("memory"))
	if diff := cmp.Diff([]record.Row{{"a": 1.0}}, runRows(t, s)); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestReduceAndJoin(t *testing.T) {
	sum := algebra.ReduceFunc{Name: "sum", Fn: func(acc, v any) (any, error) {
		return acc.(float64) + v.(record.Row)["close"].(float64), nil
	}}
	rows := runRows(t, algebra.Source("stub://").Then(algebra.Reduce(sum, 0.0)).Then(algebra.Sink("memory")))
	if diff := cmp.Diff([]record.Row{{"value": 120.0}}, rows); diff != "" {
		t.Fatalf("reduce mismatch (-want +got):\n%s", diff)
	}

	left := algebra.FromRows([]record.Row{{"id": 1.0, "v": "l"}, {"id": 2.0, "v": "l2"}})
	right := algebra.FromRows([]record.Row{{"id": 1.0, "v": "r", "w": 5.0}})
	rows = runRows(t, left.Then(algebra.Join(right, "id")).Then(algebra.Sink("memory")))
	if diff := cmp.Diff([]record.Row{{"id": 1.0, "v": "l", "w": 5.0}}, rows); diff != "" {
		t.Fatalf("join mismatch (-want +got):\n%s", diff)
	}
}

func TestParquetSinkRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bars.parquet")
	runRows(t, algebra.Source("stub://").Then(indicator.SMA(3, "close")).Then(algebra.Sink(path)))
	rows := runRows(t, algebra.Source(path).Then(algebra.Sink("memory")))
	if len(rows) != 15 {
		t.Fatalf("expected 15 rows, got %d", len(rows))
	}
	if rows[2]["sma_3"] != 2.0 || rows[0]["sma_3"] != nil {
		t.Fatalf("unexpected sma_3 values %v and %v", rows[0]["sma_3"], rows[2]["sma_3"])
	}
}

func TestCSVSinkRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bars.csv")
	runRows(t, algebra.Source("stub://").Then(algebra.Sink("csv://"+path)))
	rows := runRows(t, algebra.Source(path).Then(algebra.Sink("memory")))
	if len(rows) != 15 {
		t.Fatalf("expected 15 rows, got %d", len(rows))
	}
	if rows[0]["close"] != 1.0 || rows[0]["high"] != 1.1 {
		t.Fatalf("unexpected first row %v", rows[0])
	}
}

func TestCompileIsLazy(t *testing.T) {
	s := algebra.Source("csv://missing/file.csv").Then(indicator.EMA(3, "close"))
	res, err := compiler.New(NewBackend(), compiler.WithLogger(logger.NewNop())).Compile(context.Background(), s.Compile())
	if err != nil {
		t.Fatalf("compile should not read the source: %v", err)
	}
	lf := res.Value().(*LazyFrame)
	if lf.Steps() != 1 {
		t.Fatalf("expected 1 queued step, got %d", lf.Steps())
	}
	if _, err := lf.Materialize(context.Background()); !errors.Is(err, errors.ErrCodeConnectorUnavailable) {
		t.Fatalf("expected CONNECTOR_UNAVAILABLE, got %v", err)
	}
}

func TestNewFrameChecksLengths(t *testing.T) {
	mem := memory.NewGoAllocator()
	a := floatArray(mem, []float64{1, 2})
	b := floatArray(mem, []float64{1})
	if _, err := NewFrame([]string{"a", "b"}, []arrow.Array{a, b}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
	f, err := NewFrame([]string{"a"}, []arrow.Array{a})
	if err != nil {
		t.Fatal(err)
	}
	if f.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", f.Len())
	}
}

func TestKernels(t *testing.T) {
	xs := []float64{1, 2, 3, 4}
	got := rollingMean(xs, 2)
	if !math.IsNaN(got[0]) || got[1] != 1.5 || got[3] != 3.5 {
		t.Fatalf("unexpected rolling mean %v", got)
	}
	if w := wilder([]float64{2, 4, 6}, 2, 0, 1); !math.IsNaN(w[0]) || w[1] != 3 || w[2] != 4.5 {
		t.Fatalf("unexpected wilder %v", w)
	}
	if c := cumsum(xs); c[3] != 10 {
		t.Fatalf("expected cumulative 10, got %v", c[3])
	}
}
