package indicator

import (
	"github.com/kbukum/flowc/algebra"
)

func custom(kind Kind, params map[string]any) algebra.Operator {
	return algebra.Custom(string(kind), params)
}

// SMA is the simple moving average of field over window rows.
func SMA(window int, field string) algebra.Operator {
	return custom(KindSMA, map[string]any{"window": window, "field": field})
}

// EMA is the exponential moving average of field.
func EMA(window int, field string) algebra.Operator {
	return custom(KindEMA, map[string]any{"window": window, "field": field})
}

// WMA is the linearly weighted moving average of field.
func WMA(window int, field string) algebra.Operator {
	return custom(KindWMA, map[string]any{"window": window, "field": field})
}

// RSI is Wilder's relative strength index of field.
func RSI(window int, field string) algebra.Operator {
	return custom(KindRSI, map[string]any{"window": window, "field": field})
}

// MACD adds macd, macd_signal and macd_hist.
func MACD(fast, slow, signal int, field string) algebra.Operator {
	return custom(KindMACD, map[string]any{"fast": fast, "slow": slow, "signal": signal, "field": field})
}

// Bollinger adds bb_mid, bb_upper and bb_lower at std deviations.
func Bollinger(window int, std float64, field string) algebra.Operator {
	return custom(KindBBands, map[string]any{"window": window, "std": std, "field": field})
}

// Stoch adds stoch_k and stoch_d.
func Stoch(window, smooth int) algebra.Operator {
	return custom(KindStoch, map[string]any{"window": window, "smooth": smooth})
}

// CCI is the commodity channel index.
func CCI(window int) algebra.Operator {
	return custom(KindCCI, map[string]any{"window": window})
}

// ATR is the average true range.
func ATR(window int) algebra.Operator {
	return custom(KindATR, map[string]any{"window": window})
}

// ADX is the average directional index.
func ADX(window int) algebra.Operator {
	return custom(KindADX, map[string]any{"window": window})
}

// OBV is on-balance volume.
func OBV() algebra.Operator {
	return custom(KindOBV, map[string]any{})
}

// VWAP is the cumulative volume-weighted average price.
func VWAP() algebra.Operator {
	return custom(KindVWAP, map[string]any{})
}
