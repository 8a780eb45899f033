package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric names recorded for deliveries.
const (
	MetricDeliveryTotal    = "mediator.delivery.total"
	MetricDeliveryErrors   = "mediator.delivery.errors"
	MetricDeliveryDuration = "mediator.delivery.duration_ms"
)

// Metrics records delivery metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordDelivery records one handler invocation with its duration and outcome.
	RecordDelivery(ctx context.Context, meta DeliveryMeta, duration time.Duration, err error)
}

type metricsImpl struct {
	totalCount   metric.Int64Counter
	errorCount   metric.Int64Counter
	durationHist metric.Float64Histogram
}

// NewMetrics creates delivery instruments on the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	if meter == nil {
		return noopMetrics{}, nil
	}
	m, err := newMetrics(meter)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	totalCount, err := meter.Int64Counter(
		MetricDeliveryTotal,
		metric.WithDescription("Total number of message deliveries"),
		metric.WithUnit("{delivery}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		MetricDeliveryErrors,
		metric.WithDescription("Total number of failed message deliveries"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		MetricDeliveryDuration,
		metric.WithDescription("Handler duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		totalCount:   totalCount,
		errorCount:   errorCount,
		durationHist: durationHist,
	}, nil
}

// RecordDelivery records metrics for one delivery. Only the kind is attached
// as an attribute so that generated scopes do not explode cardinality.
func (m *metricsImpl) RecordDelivery(ctx context.Context, meta DeliveryMeta, duration time.Duration, err error) {
	opt := metric.WithAttributes(attribute.String("mediator.kind", meta.Kind))

	m.totalCount.Add(ctx, 1, opt)
	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration)/float64(time.Millisecond), opt)
}

type noopMetrics struct{}

func (noopMetrics) RecordDelivery(context.Context, DeliveryMeta, time.Duration, error) {}
