package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Build-time errors
const (
	// ErrCodeBuild indicates a malformed operator composition.
	ErrCodeBuild ErrorCode = "BUILD_ERROR"
	// ErrCodeTypeMismatch indicates something other than an operator was bound to a stream.
	ErrCodeTypeMismatch ErrorCode = "TYPE_MISMATCH"
)

// Compile-time errors
const (
	// ErrCodeMalformedGraph indicates a dangling parent, an empty graph or a cycle.
	ErrCodeMalformedGraph ErrorCode = "MALFORMED_GRAPH"
	// ErrCodeUnknownBackend indicates a target name that resolves to no backend.
	ErrCodeUnknownBackend ErrorCode = "UNKNOWN_BACKEND"
)

// Execution errors. The last two are subtypes of BACKEND_EXECUTION.
const (
	// ErrCodeBackendExecution indicates a failure inside a backend.
	ErrCodeBackendExecution ErrorCode = "BACKEND_EXECUTION"
	// ErrCodeUnsupported indicates an operation the backend declares unsupported.
	ErrCodeUnsupported ErrorCode = "UNSUPPORTED_OPERATION"
	// ErrCodeConnectorUnavailable indicates an unreachable source or sink.
	ErrCodeConnectorUnavailable ErrorCode = "CONNECTOR_UNAVAILABLE"
)

// General errors
const (
	// ErrCodeInvalidInput indicates bad parameters or configuration.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeNotFound indicates a named definition or function was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeConnectorUnavailable: true,
}

var executionCodes = map[ErrorCode]bool{
	ErrCodeBackendExecution:     true,
	ErrCodeUnsupported:          true,
	ErrCodeConnectorUnavailable: true,
}

// exit codes returned by the CLI, grouped by phase.
var exitCodes = map[ErrorCode]int{
	ErrCodeInvalidInput:         2,
	ErrCodeNotFound:             2,
	ErrCodeBuild:                3,
	ErrCodeTypeMismatch:         3,
	ErrCodeMalformedGraph:       4,
	ErrCodeUnknownBackend:       5,
	ErrCodeBackendExecution:     6,
	ErrCodeUnsupported:          6,
	ErrCodeConnectorUnavailable: 7,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}

// IsExecutionCode reports whether code belongs to the BACKEND_EXECUTION family.
func IsExecutionCode(code ErrorCode) bool {
	return executionCodes[code]
}
