// Package native is the in-process streaming backend. Every node compiles to
// a lazy *pipeline.Pipeline[any]; sinks compile to a Thunk that pulls the
// chain when invoked. Building the artifacts reads nothing.
//
//	res, err := compiler.Compile(ctx, g, "native", reg)
//	rows, err := res.Value().(native.Thunk)(ctx)
package native
