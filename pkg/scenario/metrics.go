// Derived request-duration, count, and error metrics, generalising the
// teacher's metrics.go to also carry a scenario.name attribute.
package scenario

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricObserver records derived metrics for each observed span.
type MetricObserver struct {
	duration metric.Float64Histogram
	requests metric.Int64Counter
	errors   metric.Int64Counter
}

// NewMetricObserver creates a MetricObserver backed by the given MeterProvider.
func NewMetricObserver(mp metric.MeterProvider) (*MetricObserver, error) {
	meter := mp.Meter("tracegen")

	duration, err := meter.Float64Histogram("tracegen.span.duration",
		metric.WithUnit("ms"),
		metric.WithDescription("Duration of synthetic spans in milliseconds"),
	)
	if err != nil {
		return nil, err
	}

	requests, err := meter.Int64Counter("tracegen.span.count",
		metric.WithDescription("Number of synthetic spans emitted"),
	)
	if err != nil {
		return nil, err
	}

	errs, err := meter.Int64Counter("tracegen.span.errors",
		metric.WithDescription("Number of synthetic spans that carried an error status"),
	)
	if err != nil {
		return nil, err
	}

	return &MetricObserver{duration: duration, requests: requests, errors: errs}, nil
}

// Observe records metrics derived from the completed span.
func (m *MetricObserver) Observe(info SpanInfo) {
	attrs := metric.WithAttributes(
		attribute.String("service.name", info.Service),
		attribute.String("operation.name", info.Operation),
		attribute.String("scenario.name", info.ScenarioName),
	)
	m.requests.Add(context.Background(), 1, attrs)
	m.duration.Record(context.Background(), float64(info.Duration)/float64(time.Millisecond), attrs)
	if info.IsError {
		m.errors.Add(context.Background(), 1, attrs)
	}
}
