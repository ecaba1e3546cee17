// Package compiler lowers an ir.Graph to backend artifacts.
//
// The traversal is depth-first from the targets with a memo keyed by node
// id, so a node shared by several consumers is compiled once and every
// consumer receives the same artifact. Missing parents and cycles surface as
// MALFORMED_GRAPH; backend failures carry the id of the node that failed.
//
//	res, err := compiler.Compile(ctx, stream.Compile(), "native", builtin.Default())
//	thunk := res.Value().(native.Thunk)
//	rows, err := thunk(ctx)
package compiler
