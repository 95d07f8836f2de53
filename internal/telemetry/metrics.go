package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/wolfeidau/pagepack"

// Metrics holds the metric instruments.
type Metrics struct {
	AssembleTotal      metric.Int64Counter
	OverrideFailures   metric.Int64Counter
	ExternalsDecisions metric.Int64Counter
	BuildDuration      metric.Float64Histogram
	OutputFilesTotal   metric.Int64Counter
	BundlerErrorsTotal metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the process wide instruments. They are created from the
// global provider, which forwards to the provider installed by Init.
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = newMetrics(otel.GetMeterProvider().Meter(instrumentationName))
	})
	return metrics
}

// Tracer returns the tracer used for assembly and build spans.
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

func newMetrics(meter metric.Meter) *Metrics {
	m := &Metrics{}

	m.AssembleTotal, _ = meter.Int64Counter(
		"pagepack.assemble.total",
		metric.WithDescription("Configurations assembled"),
		metric.WithUnit("{configuration}"),
	)

	m.OverrideFailures, _ = meter.Int64Counter(
		"pagepack.assemble.override.errors.total",
		metric.WithDescription("Override hook invocations that returned an error"),
		metric.WithUnit("{error}"),
	)

	m.ExternalsDecisions, _ = meter.Int64Counter(
		"pagepack.externals.decisions.total",
		metric.WithDescription("Server module requests classified by the externals policy"),
		metric.WithUnit("{request}"),
	)

	m.BuildDuration, _ = meter.Float64Histogram(
		"pagepack.build.duration",
		metric.WithDescription("Duration of a bundler run"),
		metric.WithUnit("ms"),
	)

	m.OutputFilesTotal, _ = meter.Int64Counter(
		"pagepack.build.output_files.total",
		metric.WithDescription("Files written by the bundler"),
		metric.WithUnit("{file}"),
	)

	m.BundlerErrorsTotal, _ = meter.Int64Counter(
		"pagepack.build.errors.total",
		metric.WithDescription("Errors reported by the bundler"),
		metric.WithUnit("{error}"),
	)

	return m
}
