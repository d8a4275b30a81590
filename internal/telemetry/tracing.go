package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// NewTracerProvider builds an in-process sampling tracer provider and
// installs it as the global provider, the way the teacher wires a single
// process-wide tracer at startup rather than per-component. With no
// exporter configured spans are sampled and discarded; callers that want
// spans shipped somewhere register an SpanProcessor via opts.
func NewTracerProvider(serviceName string, opts ...sdktrace.TracerProviderOption) (*sdktrace.TracerProvider, error) {
	res, err := resource.New(context.Background(),
		resource.WithAttributes(attribute.String("service.name", serviceName)),
	)
	if err != nil {
		return nil, err
	}
	allOpts := append([]sdktrace.TracerProviderOption{sdktrace.WithResource(res)}, opts...)
	tp := sdktrace.NewTracerProvider(allOpts...)
	otel.SetTracerProvider(tp)
	return tp, nil
}

// NewMeterProvider wires an OTel MeterProvider that exports into the same
// Prometheus registry the `/metrics` handler already serves, the way the
// teacher's app/telemetry.go initMetrics bridges OTel instruments onto a
// Prometheus exporter rather than running a second, separate metrics
// pipeline. Components that prefer the OTel metric API over a package-level
// promauto var (third-party libraries instrumented with OTel, for
// instance) get a Meter from the returned provider; the counters/gauges/
// histogram declared above in this package stay on promauto directly, the
// simpler style x/dex/keeper/metrics.go uses for first-party metrics.
func NewMeterProvider(serviceName string) (*sdkmetric.MeterProvider, error) {
	exporter, err := otelprom.New()
	if err != nil {
		return nil, err
	}
	res, err := resource.New(context.Background(),
		resource.WithAttributes(attribute.String("service.name", serviceName)),
	)
	if err != nil {
		return nil, err
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(mp)
	return mp, nil
}

// Meter returns the Meter instrumented OTel-based third-party clients
// should register instruments against.
func Meter(mp *sdkmetric.MeterProvider, name string) metric.Meter {
	return mp.Meter(name)
}
