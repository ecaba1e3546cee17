// Package errors provides the structured error type shared by the compiler,
// its backends and the CLI. Every error carries a machine-readable code; the
// BACKEND_EXECUTION family additionally carries the id of the node that failed.
package errors
