// Package ir holds the intermediate representation of a pipeline: immutable
// nodes tagged with an OpType, and a grow-only Graph that registers nodes
// idempotently and derives its edges from node parents.
//
// A Graph is built by the algebra package, frozen by convention, and handed
// to the compiler. It carries no execution state.
//
//	g := ir.NewGraph()
//	g.AddNode(ir.NewNode("src", ir.Source, map[string]any{"uri": "csv://prices.csv"}))
//	g.AddNode(ir.NewNode("out", ir.Sink, map[string]any{"uri": "memory"}, "src"))
//	data, _ := json.Marshal(g)
package ir
