// Package telemetry wires OpenTelemetry tracing and metrics for probe runs.
// When enabled, spans and metrics are written as JSON to the given writer.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/longkey1/llmprobe/internal/version"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const (
	ServiceName      = "llmprobe"
	ChecksMetricName = "llmprobe.checks"
)

// Telemetry bundles the tracer and instruments used by the probe
type Telemetry struct {
	Tracer   trace.Tracer
	checks   metric.Int64Counter
	shutdown []func(context.Context) error
}

// Noop returns a Telemetry that records nothing
func Noop() *Telemetry {
	checks, _ := metricnoop.NewMeterProvider().Meter(ServiceName).Int64Counter(ChecksMetricName)
	return &Telemetry{
		Tracer: tracenoop.NewTracerProvider().Tracer(ServiceName),
		checks: checks,
	}
}

// New initializes tracing and metrics exporting to w. If enabled is false it
// returns Noop().
func New(ctx context.Context, w io.Writer, enabled bool) (*Telemetry, error) {
	if !enabled {
		return Noop(), nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(ServiceName),
			semconv.ServiceVersion(version.Short()),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	traceExporter, err := stdouttrace.New(
		stdouttrace.WithWriter(w),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	// A probe run is short, so spans are exported as soon as they end.
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	metricExporter, err := stdoutmetric.New(
		stdoutmetric.WithWriter(w),
		stdoutmetric.WithPrettyPrint(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	checks, err := mp.Meter(ServiceName).Int64Counter(ChecksMetricName,
		metric.WithDescription("Number of probe checks by surface and result"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create checks counter: %w", err)
	}

	return &Telemetry{
		Tracer:   tp.Tracer(ServiceName),
		checks:   checks,
		shutdown: []func(context.Context) error{tp.Shutdown, mp.Shutdown},
	}, nil
}

// RecordCheck counts one finished check
func (t *Telemetry) RecordCheck(ctx context.Context, name string, ok bool) {
	t.checks.Add(ctx, 1, metric.WithAttributes(
		attribute.String("check", name),
		attribute.Bool("ok", ok),
	))
}

// Shutdown flushes and stops the exporters
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	for _, fn := range t.shutdown {
		if err := fn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
