// Package observability wires OpenTelemetry tracing and metrics into the
// compiler and the CLI.
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("flowc"))
//	defer tp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("flowc"))
//	op := observability.NewOperation(observability.SpanCompile, "native", g.ID(), metrics)
//	ctx, span := op.Start(ctx)
//	defer op.End(ctx, span, "", err)
//
// Without InitTracer or InitMeter the global no-op providers are used, so
// spans and instruments cost nothing in tests and one-shot CLI runs.
package observability
