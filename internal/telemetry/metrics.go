package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/wolfeidau/webassets"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Build metrics
	BundlesBuiltTotal metric.Int64Counter
	BuildErrorsTotal  metric.Int64Counter
	BuildDuration     metric.Float64Histogram
	OutputBytes       metric.Int64Histogram

	// Filter metrics
	FilterDuration metric.Float64Histogram

	// Watch metrics
	RebuildsTotal metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

// initMetrics creates and registers all metric instruments
func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	m.BundlesBuiltTotal, _ = meter.Int64Counter(
		"webassets.bundles.built.total",
		metric.WithDescription("Total number of bundle outputs written"),
		metric.WithUnit("{bundle}"),
	)

	m.BuildErrorsTotal, _ = meter.Int64Counter(
		"webassets.bundles.errors.total",
		metric.WithDescription("Total number of failed bundle builds"),
		metric.WithUnit("{error}"),
	)

	m.BuildDuration, _ = meter.Float64Histogram(
		"webassets.bundles.build.duration",
		metric.WithDescription("Duration of bundle builds"),
		metric.WithUnit("ms"),
	)

	m.OutputBytes, _ = meter.Int64Histogram(
		"webassets.bundles.output.size",
		metric.WithDescription("Size of written bundle outputs"),
		metric.WithUnit("By"),
	)

	m.FilterDuration, _ = meter.Float64Histogram(
		"webassets.filters.duration",
		metric.WithDescription("Duration of filter transforms"),
		metric.WithUnit("ms"),
	)

	m.RebuildsTotal, _ = meter.Int64Counter(
		"webassets.watch.rebuilds.total",
		metric.WithDescription("Total number of rebuilds triggered by source changes"),
		metric.WithUnit("{rebuild}"),
	)

	return m
}
