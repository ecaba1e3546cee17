// Package algebra is the builder API that turns combinator calls into an
// ir.Graph.
//
// Sequence binds an operator after the current tip:
//
//	out := algebra.Source("csv://prices.csv").
//	    Then(algebra.Filter(positive)).
//	    Then(indicator.SMA(5, "close")).
//	    Then(algebra.Sink("memory"))
//
// Chain composes operators before binding them and is associative:
// src.Then(Chain(a, b)) builds the same node sequence as src.Then(a).Then(b).
//
// Or, And and Plus combine two streams into one Choice, Ensemble or Merge
// node with both tips as parents. The two graphs are unified first, the
// larger absorbing the smaller, and both handles are left pointing at the
// shared graph so later operations on either handle see the combined shape.
package algebra
