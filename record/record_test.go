package record

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFloat(t *testing.T) {
	r := Row{"a": 1, "b": "2.5", "c": nil, "d": "x", "e": math.NaN()}
	tests := []struct {
		key  string
		want float64
		ok   bool
	}{
		{"a", 1, true},
		{"b", 2.5, true},
		{"c", 0, false},
		{"d", 0, false},
		{"e", 0, false},
		{"missing", 0, false},
	}
	for _, tt := range tests {
		got, ok := Float(r, tt.key)
		if ok != tt.ok || got != tt.want {
			t.Errorf("%s: expected (%v, %v), got (%v, %v)", tt.key, tt.want, tt.ok, got, ok)
		}
	}
}

func TestClone_Independent(t *testing.T) {
	r := Row{"x": 1.0}
	c := Clone(r)
	c["y"] = 2.0
	if _, ok := r["y"]; ok {
		t.Error("clone must not alias the original")
	}
}

func TestColumn_NullsAsNaN(t *testing.T) {
	col := Column([]Row{{"v": 1.0}, {"v": nil}, {}}, "v")
	if col[0] != 1 || !math.IsNaN(col[1]) || !math.IsNaN(col[2]) {
		t.Errorf("expected [1 NaN NaN], got %v", col)
	}
}

func TestNullable(t *testing.T) {
	if Nullable(math.NaN()) != nil {
		t.Error("expected nil for NaN")
	}
	if Nullable(2) != 2.0 {
		t.Error("expected value passthrough")
	}
}

func TestKeys_Order(t *testing.T) {
	keys := Keys([]Row{{"b": 1, "a": 2}, {"c": 3, "a": 4}})
	if diff := cmp.Diff([]string{"a", "b", "c"}, keys); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestStub(t *testing.T) {
	rows := Stub()
	if len(rows) != 15 {
		t.Fatalf("expected 15 rows, got %d", len(rows))
	}
	if rows[0]["close"] != 1.0 || rows[14]["close"] != 15.0 {
		t.Errorf("expected close 1..15, got %v..%v", rows[0]["close"], rows[14]["close"])
	}
	if h, _ := Float(rows[4], "high"); math.Abs(h-5.1) > 1e-12 {
		t.Errorf("expected high 5.1, got %v", h)
	}
	if rows[3]["volume"] != 100.0 {
		t.Errorf("expected volume 100, got %v", rows[3]["volume"])
	}
}
