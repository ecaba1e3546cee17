package indicator

import (
	"fmt"
	"math"
	"strings"

	"github.com/kbukum/flowc/errors"
	"github.com/kbukum/flowc/record"
	"github.com/kbukum/flowc/util"
	"github.com/kbukum/flowc/validation"
)

// Kind names an indicator. Values match the custom-op kind strings.
type Kind string

const (
	KindSMA    Kind = "SMA"
	KindEMA    Kind = "EMA"
	KindWMA    Kind = "WMA"
	KindRSI    Kind = "RSI"
	KindMACD   Kind = "MACD"
	KindBBands Kind = "BBands"
	KindStoch  Kind = "Stoch"
	KindCCI    Kind = "CCI"
	KindATR    Kind = "ATR"
	KindADX    Kind = "ADX"
	KindOBV    Kind = "OBV"
	KindVWAP   Kind = "VWAP"
)

// Kinds lists every supported indicator.
func Kinds() []Kind {
	return []Kind{KindSMA, KindEMA, KindWMA, KindRSI, KindMACD, KindBBands,
		KindStoch, KindCCI, KindATR, KindADX, KindOBV, KindVWAP}
}

// Lookup resolves a kind name. Matching ignores case so "bbands" and
// "BBands" are the same indicator.
func Lookup(name string) (Kind, bool) {
	for _, k := range Kinds() {
		if strings.EqualFold(string(k), name) {
			return k, true
		}
	}
	return "", false
}

// Params holds the configuration of one indicator node.
type Params struct {
	Window int
	Field  string
	Fast   int
	Slow   int
	Signal int
	Std    float64
	Smooth int
	High   string
	Low    string
	Close  string
	Vol    string
	Price  string
}

func defaults(kind Kind) Params {
	p := Params{
		Window: 14, Field: "close",
		Fast: 12, Slow: 26, Signal: 9,
		Std: 2, Smooth: 3,
		High: "high", Low: "low", Close: "close", Vol: "volume", Price: "price",
	}
	if kind == KindBBands {
		p.Window = 20
	}
	return p
}

// ParseParams reads indicator parameters from node configuration, filling
// defaults for absent keys.
func ParseParams(kind Kind, cfg map[string]any) (Params, error) {
	p := defaults(kind)
	intKey := func(key string, dst *int) {
		if n, ok := util.ToInt(cfg[key]); ok {
			*dst = n
		}
	}
	strKey := func(key string, dst *string) {
		if s := util.ToString(cfg[key]); s != "" {
			*dst = s
		}
	}
	intKey("window", &p.Window)
	intKey("fast", &p.Fast)
	intKey("slow", &p.Slow)
	intKey("signal", &p.Signal)
	intKey("smooth", &p.Smooth)
	if f, ok := util.ToFloat(cfg["std"]); ok {
		p.Std = f
	}
	strKey("field", &p.Field)
	strKey("high", &p.High)
	strKey("low", &p.Low)
	strKey("close", &p.Close)
	strKey("vol", &p.Vol)
	strKey("price", &p.Price)

	v := validation.New()
	switch kind {
	case KindMACD:
		v.Min("fast", p.Fast, 1).Min("slow", p.Slow, 1).Min("signal", p.Signal, 1)
	case KindBBands:
		v.Min("window", p.Window, 1).NonNegative("std", p.Std)
	case KindStoch:
		v.Min("window", p.Window, 1).Min("smooth", p.Smooth, 1)
	case KindOBV, KindVWAP:
	default:
		v.Min("window", p.Window, 1)
	}
	if err := v.Err(); err != nil {
		return Params{}, err
	}
	return p, nil
}

// Output is one computed column.
type Output struct {
	Name   string
	Values []float64
}

// Columns returns the names of the columns kind adds, in order.
func Columns(kind Kind, p Params) []string {
	switch kind {
	case KindSMA, KindEMA, KindWMA, KindRSI, KindATR, KindADX:
		return []string{fmt.Sprintf("%s_%d", strings.ToLower(string(kind)), p.Window)}
	case KindMACD:
		return []string{"macd", "macd_signal", "macd_hist"}
	case KindBBands:
		return []string{"bb_mid", "bb_upper", "bb_lower"}
	case KindStoch:
		return []string{"stoch_k", "stoch_d"}
	case KindCCI:
		return []string{"cci"}
	case KindOBV:
		return []string{"obv"}
	case KindVWAP:
		return []string{"vwap"}
	default:
		return nil
	}
}

// Evaluate computes kind over columns supplied by col, which returns a
// series with NaN for missing values.
func Evaluate(kind Kind, p Params, col func(name string) []float64) ([]Output, error) {
	names := Columns(kind, p)
	var series [][]float64
	switch kind {
	case KindSMA:
		series = [][]float64{SMASeries(col(p.Field), p.Window)}
	case KindEMA:
		series = [][]float64{EMASeries(col(p.Field), p.Window)}
	case KindWMA:
		series = [][]float64{WMASeries(col(p.Field), p.Window)}
	case KindRSI:
		series = [][]float64{RSISeries(col(p.Field), p.Window)}
	case KindMACD:
		m, s, h := MACDSeries(col(p.Field), p.Fast, p.Slow, p.Signal)
		series = [][]float64{m, s, h}
	case KindBBands:
		m, u, l := BollingerSeries(col(p.Field), p.Window, p.Std)
		series = [][]float64{m, u, l}
	case KindStoch:
		k, d := StochSeries(col(p.High), col(p.Low), col(p.Close), p.Window, p.Smooth)
		series = [][]float64{k, d}
	case KindCCI:
		series = [][]float64{CCISeries(col(p.High), col(p.Low), col(p.Close), p.Window)}
	case KindATR:
		series = [][]float64{ATRSeries(col(p.High), col(p.Low), col(p.Close), p.Window)}
	case KindADX:
		series = [][]float64{ADXSeries(col(p.High), col(p.Low), col(p.Close), p.Window)}
	case KindOBV:
		series = [][]float64{OBVSeries(col(p.Close), col(p.Vol))}
	case KindVWAP:
		series = [][]float64{VWAPSeries(PriceColumn(p, col), col(p.Vol))}
	default:
		return nil, errors.NotFound("indicator", string(kind))
	}

	out := make([]Output, len(names))
	for i, name := range names {
		out[i] = Output{Name: name, Values: series[i]}
	}
	return out, nil
}

// PriceColumn is the VWAP price series: the price column where present and
// the close column elsewhere.
func PriceColumn(p Params, col func(name string) []float64) []float64 {
	price := col(p.Price)
	cl := col(p.Close)
	out := make([]float64, len(price))
	for i, v := range price {
		if math.IsNaN(v) && i < len(cl) {
			out[i] = cl[i]
		} else {
			out[i] = v
		}
	}
	return out
}

// Compute runs kind over rows and returns copies of the rows with the
// indicator columns added. Nulls are stored as nil.
func Compute(kind Kind, rows []record.Row, p Params) ([]record.Row, error) {
	outputs, err := Evaluate(kind, p, func(name string) []float64 {
		return record.Column(rows, name)
	})
	if err != nil {
		return nil, err
	}
	result := make([]record.Row, len(rows))
	for i, r := range rows {
		row := record.Clone(r)
		for _, o := range outputs {
			row[o.Name] = record.Nullable(o.Values[i])
		}
		result[i] = row
	}
	return result, nil
}

// ComputeNode is Compute driven by a custom node's kind and configuration.
func ComputeNode(kindName string, cfg map[string]any, rows []record.Row) ([]record.Row, error) {
	kind, ok := Lookup(kindName)
	if !ok {
		return nil, errors.NotFound("indicator", kindName)
	}
	p, err := ParseParams(kind, cfg)
	if err != nil {
		return nil, err
	}
	return Compute(kind, rows, p)
}
