package logger

import (
	"time"
)

// Standard field key constants for structured logging.
const (
	FieldService   = "service"
	FieldComponent = "component"
	FieldGraphID   = "graph_id"
	FieldNodeID    = "node_id"
	FieldOp        = "op"
	FieldKind      = "kind"
	FieldBackend   = "backend"
	FieldTarget    = "target"
	FieldURI       = "uri"
	FieldCount     = "count"
	FieldError     = "error"
	FieldDuration  = "duration_ms"
)

// Fields builds a map from alternating key-value pairs.
//
//	log.Info("compiled", logger.Fields("backend", "native", "nodes", 4))
func Fields(kvs ...any) map[string]any {
	m := make(map[string]any, len(kvs)/2)
	for i := 0; i < len(kvs)-1; i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// ErrorFields creates fields for an operation that failed.
func ErrorFields(op string, err error) map[string]any {
	return map[string]any{
		FieldOp:    op,
		FieldError: err.Error(),
	}
}

// DurationFields creates fields for a timed operation.
func DurationFields(op string, d time.Duration) map[string]any {
	return map[string]any{
		FieldOp:       op,
		FieldDuration: d.Milliseconds(),
	}
}
