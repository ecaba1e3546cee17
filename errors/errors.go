package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is the unified error type used across the compiler.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// Details contains additional context such as the failing node id.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	prefix := string(e.Code)
	if id, ok := e.Details[DetailNode].(string); ok && id != "" {
		prefix = fmt.Sprintf("%s [node %s]", e.Code, shortID(id))
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// ExitCode maps the error code to a process exit status.
func (e *AppError) ExitCode() int {
	if c, ok := exitCodes[e.Code]; ok {
		return c
	}
	return 1
}

// Detail keys shared by constructors and callers.
const (
	DetailNode    = "node"
	DetailParent  = "parent"
	DetailBackend = "backend"
	DetailOp      = "op"
)

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// Newf is New with a formatted message.
func Newf(code ErrorCode, format string, args ...any) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// --- Constructors ---

// Build creates an error for a malformed operator composition.
func Build(message string) *AppError {
	return New(ErrCodeBuild, message)
}

// TypeMismatch creates a BuildError for binding something that is not an operator.
func TypeMismatch(got any) *AppError {
	return &AppError{
		Code:    ErrCodeTypeMismatch,
		Message: fmt.Sprintf("right operand must be an operator, got %T", got),
		Details: map[string]any{"type": fmt.Sprintf("%T", got)},
	}
}

// MalformedGraph creates an error for a graph that cannot be compiled.
func MalformedGraph(message string) *AppError {
	return New(ErrCodeMalformedGraph, message)
}

// DanglingParent creates a MalformedGraph error for a parent id absent from the graph.
func DanglingParent(nodeID, parentID string) *AppError {
	return &AppError{
		Code:    ErrCodeMalformedGraph,
		Message: fmt.Sprintf("parent %q referenced but not present in graph", parentID),
		Details: map[string]any{DetailNode: nodeID, DetailParent: parentID},
	}
}

// UnknownBackend creates an error for a target name with no registered backend.
func UnknownBackend(name string) *AppError {
	return &AppError{
		Code:    ErrCodeUnknownBackend,
		Message: fmt.Sprintf("unknown backend %q", name),
		Details: map[string]any{DetailBackend: name},
	}
}

// BackendExecution creates an error for a failure inside a backend.
func BackendExecution(backend string, cause error) *AppError {
	return &AppError{
		Code:    ErrCodeBackendExecution,
		Message: fmt.Sprintf("backend %s failed", backend),
		Details: map[string]any{DetailBackend: backend},
		Cause:   cause,
	}
}

// Unsupported creates an error for an operation the backend cannot lower.
func Unsupported(backend, op string) *AppError {
	return &AppError{
		Code:    ErrCodeUnsupported,
		Message: fmt.Sprintf("%s is not supported by backend %s", op, backend),
		Details: map[string]any{DetailBackend: backend, DetailOp: op},
	}
}

// ConnectorUnavailable creates an error for a source or sink that cannot be reached.
func ConnectorUnavailable(uri string, cause error) *AppError {
	return &AppError{
		Code:      ErrCodeConnectorUnavailable,
		Message:   fmt.Sprintf("connector for %s is unavailable", uri),
		Retryable: true,
		Details:   map[string]any{"uri": uri},
		Cause:     cause,
	}
}

// InvalidInput creates an error for invalid parameters.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("invalid input: %s", reason),
		Details: details,
	}
}

// Validation creates an error for struct validation failures.
func Validation(message string) *AppError {
	return New(ErrCodeInvalidInput, message)
}

// NotFound creates an error for a named resource that is not registered.
func NotFound(resource, name string) *AppError {
	details := map[string]any{"resource": resource}
	if name != "" {
		details["name"] = name
	}
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("%s %q not found", resource, name),
		Details: details,
	}
}

// Internal creates an error for an unexpected internal failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "an unexpected error occurred", Cause: cause,
	}
}

// AtNode attaches the originating node id to err. AppErrors keep their code;
// any other error becomes BACKEND_EXECUTION for the named backend.
func AtNode(err error, backend, nodeID string) *AppError {
	if appErr, ok := AsAppError(err); ok {
		if _, set := appErr.Details[DetailNode]; !set {
			appErr.WithDetail(DetailNode, nodeID)
		}
		if _, set := appErr.Details[DetailBackend]; !set && backend != "" {
			appErr.WithDetail(DetailBackend, backend)
		}
		return appErr
	}
	return BackendExecution(backend, err).WithDetail(DetailNode, nodeID)
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code ErrorCode) bool {
	for err != nil {
		var appErr *AppError
		if !stderrors.As(err, &appErr) {
			return false
		}
		if appErr.Code == code {
			return true
		}
		err = appErr.Cause
	}
	return false
}

// IsBackendExecution reports whether err belongs to the BACKEND_EXECUTION family.
func IsBackendExecution(err error) bool {
	appErr, ok := AsAppError(err)
	return ok && IsExecutionCode(appErr.Code)
}

// NodeID returns the node id attached to err, if any.
func NodeID(err error) string {
	appErr, ok := AsAppError(err)
	if !ok {
		return ""
	}
	id, _ := appErr.Details[DetailNode].(string)
	return id
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
