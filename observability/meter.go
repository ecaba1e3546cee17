package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/flowc/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Endpoint       string
	Insecure       bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns development defaults.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "dev",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter installs an OTLP-exporting meter provider as the global one.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(config.Endpoint)}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.Get("observability").Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))
	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the compiler and runtime instruments.
type Metrics struct {
	nodesCompiled   metric.Int64Counter
	compileTotal    metric.Int64Counter
	compileDuration metric.Float64Histogram
	errorTotal      metric.Int64Counter
	rowsEmitted     metric.Int64Counter
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	nodesCompiled, err := meter.Int64Counter("flowc.nodes.compiled",
		metric.WithDescription("Nodes passed to a backend"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating flowc.nodes.compiled counter: %w", err)
	}

	compileTotal, err := meter.Int64Counter("flowc.compile.total",
		metric.WithDescription("Graph compilations by backend and status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating flowc.compile.total counter: %w", err)
	}

	compileDuration, err := meter.Float64Histogram("flowc.compile.duration",
		metric.WithDescription("Duration of graph compilations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating flowc.compile.duration histogram: %w", err)
	}

	errorTotal, err := meter.Int64Counter("flowc.error.total",
		metric.WithDescription("Errors by code and backend"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating flowc.error.total counter: %w", err)
	}

	rowsEmitted, err := meter.Int64Counter("flowc.sink.rows",
		metric.WithDescription("Elements delivered to sinks"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating flowc.sink.rows counter: %w", err)
	}

	return &Metrics{
		nodesCompiled:   nodesCompiled,
		compileTotal:    compileTotal,
		compileDuration: compileDuration,
		errorTotal:      errorTotal,
		rowsEmitted:     rowsEmitted,
	}, nil
}

// RecordNode counts one node compilation.
func (m *Metrics) RecordNode(ctx context.Context, backend, op string) {
	m.nodesCompiled.Add(ctx, 1, metric.WithAttributes(
		attribute.String("backend", backend),
		attribute.String("op", op),
	))
}

// RecordCompile records a finished compilation.
func (m *Metrics) RecordCompile(ctx context.Context, backend, status string, duration time.Duration) {
	m.compileTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("backend", backend),
		attribute.String("status", status),
	))
	m.compileDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("backend", backend),
	))
}

// RecordError counts an error by code.
func (m *Metrics) RecordError(ctx context.Context, code, backend string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("code", code),
		attribute.String("backend", backend),
	))
}

// RecordRows counts elements delivered to a sink.
func (m *Metrics) RecordRows(ctx context.Context, backend, uri string, n int) {
	m.rowsEmitted.Add(ctx, int64(n), metric.WithAttributes(
		attribute.String("backend", backend),
		attribute.String("uri", uri),
	))
}
