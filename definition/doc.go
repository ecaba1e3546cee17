// Package definition reads pipelines written in YAML and builds them into
// streams.
//
//	name: momentum
//	source: csv://prices.csv
//	steps:
//	  - op: filter
//	    fn: positive_close
//	  - op: custom
//	    kind: RSI
//	    params: {window: 14}
//	  - op: sink
//	    uri: memory
//
// Functions are referenced by name and resolved through a FuncRegistry;
// StandardFuncs holds the built-in ones.
package definition
