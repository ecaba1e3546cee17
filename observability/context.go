package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Operation tracks one traced unit of work: a compile or a sink run.
type Operation struct {
	Name      string
	Backend   string
	GraphID   string
	StartTime time.Time
	// Metrics may be nil, in which case nothing is recorded.
	Metrics *Metrics
}

// NewOperation starts the clock on an operation.
func NewOperation(name, backend, graphID string, metrics *Metrics) *Operation {
	return &Operation{
		Name:      name,
		Backend:   backend,
		GraphID:   graphID,
		StartTime: time.Now(),
		Metrics:   metrics,
	}
}

type operationKey struct{}

// WithOperation stores op in ctx.
func WithOperation(ctx context.Context, op *Operation) context.Context {
	return context.WithValue(ctx, operationKey{}, op)
}

// OperationFromContext returns the operation stored in ctx, or nil.
func OperationFromContext(ctx context.Context) *Operation {
	op, _ := ctx.Value(operationKey{}).(*Operation)
	return op
}

// Start opens the operation's span with its identifying attributes.
func (op *Operation) Start(ctx context.Context, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := StartSpan(ctx, op.Name)
	span.SetAttributes(
		attribute.String(AttrTarget, op.Backend),
		attribute.String(AttrGraphID, op.GraphID),
	)
	span.SetAttributes(attrs...)
	return WithOperation(ctx, op), span
}

// End closes span and records the outcome. code is the error code for
// failures and is ignored when err is nil.
func (op *Operation) End(ctx context.Context, span trace.Span, code string, err error) {
	duration := time.Since(op.StartTime)
	status := "ok"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetAttributes(attribute.String(AttrError, err.Error()))
	}
	span.SetAttributes(
		attribute.String(AttrStatus, status),
		attribute.Int64(AttrDurationMs, duration.Milliseconds()),
	)
	span.End()

	if op.Metrics == nil {
		return
	}
	op.Metrics.RecordCompile(ctx, op.Backend, status, duration)
	if err != nil {
		op.Metrics.RecordError(ctx, code, op.Backend)
	}
}

// Duration returns the elapsed time since the operation started.
func (op *Operation) Duration() time.Duration {
	return time.Since(op.StartTime)
}
