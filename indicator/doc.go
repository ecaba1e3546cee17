// Package indicator implements the technical indicators available as custom
// operators: SMA, EMA, WMA, RSI, MACD, Bollinger bands, stochastic
// oscillator, CCI, ATR, ADX, OBV and VWAP.
//
// The *Series functions are the reference arithmetic over []float64 with NaN
// for null. Compute applies them to rows for the native backend; the vector
// backend lowers the same recurrences to column kernels and is tested against
// these functions.
//
//	out := algebra.Source("csv://prices.csv").
//	    Then(indicator.RSI(14, "close")).
//	    Then(algebra.Sink("memory"))
package indicator
