// Package backend defines the contract between the transpiler and code
// generators, and the registry that maps target names to them.
//
// Names resolve in three steps: plugins registered with RegisterBackend,
// then exact built-ins, then dialect families such as "script:sql", whose
// factory receives the dialect in its config. A name matching none of these
// fails with UNKNOWN_BACKEND.
//
//	reg := backend.NewRegistry()
//	reg.RegisterBuiltin("string", plan.New)
//	reg.RegisterBuiltin("script:", script.New)
//	reg.Install(dot.Plugin{})
//	b, err := reg.Resolve("script:dolphindb")
package backend
