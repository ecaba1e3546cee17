package indicator

import (
	"math"
	"testing"

	"github.com/kbukum/flowc/algebra"
	"github.com/kbukum/flowc/errors"
	"github.com/kbukum/flowc/indicator/indicatortest"
	"github.com/kbukum/flowc/ir"
	"github.com/kbukum/flowc/record"
)

const eps = 1e-9

func nan() float64 { return math.NaN() }

func assertSeries(t *testing.T, name string, got, want []float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: expected length %d, got %d", name, len(want), len(got))
	}
	for i := range want {
		if math.IsNaN(want[i]) {
			if !math.IsNaN(got[i]) {
				t.Fatalf("%s[%d]: expected null, got %v", name, i, got[i])
			}
			continue
		}
		if math.Abs(got[i]-want[i]) > eps {
			t.Fatalf("%s[%d]: expected %v, got %v", name, i, want[i], got[i])
		}
	}
}

func TestSMASeries(t *testing.T) {
	assertSeries(t, "sma", SMASeries([]float64{1, 2, 3, 4, 5}, 3), []float64{nan(), nan(), 2, 3, 4})
}

func TestEMASeries(t *testing.T) {
	assertSeries(t, "ema", EMASeries([]float64{1, 2, 3}, 3), []float64{1, 1.5, 2.25})
}

func TestNullInputsKeepRunningState(t *testing.T) {
	tests := []struct {
		name string
		got  []float64
		want []float64
	}{
		{"ema skips a null", EMASeries([]float64{1, 2, nan(), 4, 5}, 3), []float64{1, 1.5, nan(), 2.75, 3.875}},
		{"ema seeds after leading nulls", EMASeries([]float64{nan(), 2, 4}, 3), []float64{nan(), 2, 3}},
		{"obv null close", OBVSeries([]float64{1, 2, nan(), 3, 1}, []float64{10, 20, 99, 30, 40}), []float64{10, 30, nan(), 60, 20}},
		{"obv null volume", OBVSeries([]float64{1, 2, 3}, []float64{10, nan(), 30}), []float64{10, nan(), 40}},
		{"vwap null price", VWAPSeries([]float64{2, nan(), 4}, []float64{1, 5, 3}), []float64{2, nan(), 3.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertSeries(t, tt.name, tt.got, tt.want)
		})
	}
}

func TestCompute_EMAResumesAfterNullRow(t *testing.T) {
	rows := []record.Row{{"close": 1.0}, {"close": 2.0}, {"close": nil}, {"close": 4.0}, {"close": 5.0}}
	out, err := Compute(KindEMA, rows, mustParams(t, KindEMA, map[string]any{"window": 3}))
	if err != nil {
		t.Fatal(err)
	}
	if out[2]["ema_3"] != nil {
		t.Fatalf("expected null ema_3 on the null row, got %v", out[2]["ema_3"])
	}
	assertSeries(t, "ema_3", record.Column(out, "ema_3"), []float64{1, 1.5, nan(), 2.75, 3.875})
}

func TestWMASeries(t *testing.T) {
	assertSeries(t, "wma", WMASeries([]float64{1, 2, 3, 4}, 3), []float64{nan(), nan(), 14.0 / 6, 20.0 / 6})
}

func TestRSISeries(t *testing.T) {
	got := RSISeries([]float64{1, 2, 3, 2, 4}, 2)
	assertSeries(t, "rsi", got, []float64{nan(), nan(), nan(), 50, 100 - 100.0/6})
}

func TestRSISeries_NoLossesIs100(t *testing.T) {
	got := RSISeries([]float64{1, 2, 3, 4, 5, 6}, 3)
	assertSeries(t, "rsi", got, []float64{nan(), nan(), nan(), nan(), 100, 100})
}

func TestRSI_StubIsAllNull(t *testing.T) {
	rows, err := Compute(KindRSI, record.Stub(), mustParams(t, KindRSI, nil))
	if err != nil {
		t.Fatal(err)
	}
	for i, r := range rows {
		if r["rsi_14"] != nil {
			t.Fatalf("row %d: expected null rsi_14, got %v", i, r["rsi_14"])
		}
	}
}

func TestMACD_ConstantIsZero(t *testing.T) {
	xs := []float64{5, 5, 5, 5}
	m, s, h := MACDSeries(xs, 2, 3, 2)
	zeros := []float64{0, 0, 0, 0}
	assertSeries(t, "macd", m, zeros)
	assertSeries(t, "signal", s, zeros)
	assertSeries(t, "hist", h, zeros)
}

func TestBollinger(t *testing.T) {
	mid, upper, lower := BollingerSeries([]float64{1, 2, 3}, 3, 2)
	sd := math.Sqrt(2.0 / 3)
	assertSeries(t, "mid", mid, []float64{nan(), nan(), 2})
	assertSeries(t, "upper", upper, []float64{nan(), nan(), 2 + 2*sd})
	assertSeries(t, "lower", lower, []float64{nan(), nan(), 2 - 2*sd})
}

func TestStoch_ZeroRangeIs100(t *testing.T) {
	flat := []float64{3, 3, 3, 3}
	k, d := StochSeries(flat, flat, flat, 2, 2)
	assertSeries(t, "k", k, []float64{nan(), 100, 100, 100})
	assertSeries(t, "d", d, []float64{nan(), nan(), 100, 100})
}

func TestCCI_ConstantIsZero(t *testing.T) {
	flat := []float64{3, 3, 3}
	assertSeries(t, "cci", CCISeries(flat, flat, flat, 2), []float64{nan(), 0, 0})
}

func TestATR_Stub(t *testing.T) {
	rows := record.Stub()
	h, l, c := record.Column(rows, "high"), record.Column(rows, "low"), record.Column(rows, "close")
	got := ATRSeries(h, l, c, 2)
	if !math.IsNaN(got[0]) {
		t.Fatalf("expected null at row 0, got %v", got[0])
	}
	if math.Abs(got[1]-0.65) > eps || math.Abs(got[2]-0.875) > eps {
		t.Fatalf("expected 0.65 and 0.875, got %v and %v", got[1], got[2])
	}
}

func TestADX_StubTrendIs100(t *testing.T) {
	rows := record.Stub()
	got := ADXSeries(record.Column(rows, "high"), record.Column(rows, "low"), record.Column(rows, "close"), 2)
	for i := 0; i < 3; i++ {
		if !math.IsNaN(got[i]) {
			t.Fatalf("row %d: expected null, got %v", i, got[i])
		}
	}
	for i := 3; i < len(got); i++ {
		if math.Abs(got[i]-100) > eps {
			t.Fatalf("row %d: expected 100, got %v", i, got[i])
		}
	}
}

func TestADX_ShortInputIsNull(t *testing.T) {
	got := ADXSeries([]float64{1, 2}, []float64{0, 1}, []float64{1, 2}, 2)
	assertSeries(t, "adx", got, []float64{nan(), nan()})
}

func TestOBV(t *testing.T) {
	got := OBVSeries([]float64{1, 2, 2, 1}, []float64{10, 20, 30, 40})
	assertSeries(t, "obv", got, []float64{10, 30, 30, -10})
}

func TestVWAP(t *testing.T) {
	assertSeries(t, "vwap", VWAPSeries([]float64{2, 4}, []float64{1, 3}), []float64{2, 3.5})
	assertSeries(t, "vwap zero volume", VWAPSeries([]float64{1, 2}, []float64{0, 0}), []float64{1, 2})
}

func TestVWAP_PriceFallsBackToClose(t *testing.T) {
	rows := []record.Row{
		{"close": 2.0, "volume": 1.0},
		{"price": 4.0, "close": 9.0, "volume": 3.0},
	}
	out, err := Compute(KindVWAP, rows, mustParams(t, KindVWAP, nil))
	if err != nil {
		t.Fatal(err)
	}
	if out[1]["vwap"] != 3.5 {
		t.Fatalf("expected 3.5, got %v", out[1]["vwap"])
	}
}

func TestCompute_ClonesRowsAndNamesColumns(t *testing.T) {
	rows := indicatortest.Bars()
	tests := []struct {
		kind Kind
		cfg  map[string]any
		cols []string
	}{
		{KindSMA, map[string]any{"window": 5}, []string{"sma_5"}},
		{KindEMA, map[string]any{"window": 5}, []string{"ema_5"}},
		{KindWMA, map[string]any{"window": 5}, []string{"wma_5"}},
		{KindRSI, nil, []string{"rsi_14"}},
		{KindMACD, nil, []string{"macd", "macd_signal", "macd_hist"}},
		{KindBBands, nil, []string{"bb_mid", "bb_upper", "bb_lower"}},
		{KindStoch, nil, []string{"stoch_k", "stoch_d"}},
		{KindCCI, nil, []string{"cci"}},
		{KindATR, nil, []string{"atr_14"}},
		{KindADX, nil, []string{"adx_14"}},
		{KindOBV, nil, []string{"obv"}},
		{KindVWAP, nil, []string{"vwap"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			out, err := Compute(tt.kind, rows, mustParams(t, tt.kind, tt.cfg))
			if err != nil {
				t.Fatal(err)
			}
			last := out[len(out)-1]
			for _, c := range tt.cols {
				if _, ok := last[c].(float64); !ok {
					t.Fatalf("expected numeric %s on last row, got %v", c, last[c])
				}
				if _, leaked := rows[len(rows)-1][c]; leaked {
					t.Fatalf("input row was modified with %s", c)
				}
			}
		})
	}
}

func TestParseParams(t *testing.T) {
	p := mustParams(t, KindBBands, map[string]any{"std": 1.5})
	if p.Window != 20 || p.Std != 1.5 || p.Field != "close" {
		t.Fatalf("unexpected params %+v", p)
	}
	if _, err := ParseParams(KindSMA, map[string]any{"window": 0}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
}

func TestComputeNode_UnknownKind(t *testing.T) {
	if _, err := ComputeNode("Ichimoku", nil, nil); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
	if k, ok := Lookup("bbands"); !ok || k != KindBBands {
		t.Fatalf("expected case-insensitive lookup, got %v %v", k, ok)
	}
}

func TestOperatorsBuildCustomNodes(t *testing.T) {
	s := algebra.Source("x").Then(MACD(3, 6, 2, "close"))
	tip := s.Tip()
	if tip.Op() != ir.Custom || tip.Kind() != "MACD" || tip.Int("slow", 0) != 6 {
		t.Fatalf("unexpected node %v", tip.Config())
	}
}

func mustParams(t *testing.T, kind Kind, cfg map[string]any) Params {
	t.Helper()
	p, err := ParseParams(kind, cfg)
	if err != nil {
		t.Fatal(err)
	}
	return p
}
