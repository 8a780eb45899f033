package observe

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*metricsImpl, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := newMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	return rm
}

func sumValue(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	found := findMetric(rm, name)
	if found == nil {
		return 0
	}
	sum, ok := found.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("%s: expected Sum[int64], got %T", name, found.Data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestMetrics_TotalCounterIncrements(t *testing.T) {
	m, reader := newTestMetrics(t)
	meta := DeliveryMeta{Scope: "s", Kind: "health.status", Subscriber: 1}

	m.RecordDelivery(context.Background(), meta, time.Millisecond, nil)
	m.RecordDelivery(context.Background(), meta, time.Millisecond, nil)

	rm := collect(t, reader)
	if got := sumValue(t, rm, MetricDeliveryTotal); got != 2 {
		t.Errorf("%s = %d, want 2", MetricDeliveryTotal, got)
	}
	if got := sumValue(t, rm, MetricDeliveryErrors); got != 0 {
		t.Errorf("%s = %d, want 0", MetricDeliveryErrors, got)
	}
}

func TestMetrics_ErrorCounterOnFailure(t *testing.T) {
	m, reader := newTestMetrics(t)
	meta := DeliveryMeta{Kind: "health.status"}

	m.RecordDelivery(context.Background(), meta, time.Millisecond, errors.New("boom"))

	rm := collect(t, reader)
	if got := sumValue(t, rm, MetricDeliveryErrors); got != 1 {
		t.Errorf("%s = %d, want 1", MetricDeliveryErrors, got)
	}
}

func TestMetrics_DurationHistogramRecords(t *testing.T) {
	m, reader := newTestMetrics(t)

	m.RecordDelivery(context.Background(), DeliveryMeta{Kind: "k"}, 50*time.Millisecond, nil)

	found := findMetric(collect(t, reader), MetricDeliveryDuration)
	if found == nil {
		t.Fatalf("%s metric not found", MetricDeliveryDuration)
	}
	hist, ok := found.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("expected Histogram[float64], got %T", found.Data)
	}
	if len(hist.DataPoints) != 1 {
		t.Fatalf("expected 1 data point, got %d", len(hist.DataPoints))
	}
	if dp := hist.DataPoints[0]; dp.Sum != 50 {
		t.Errorf("duration sum = %f, want 50", dp.Sum)
	}
}

func TestMetrics_OnlyKindAttribute(t *testing.T) {
	m, reader := newTestMetrics(t)

	m.RecordDelivery(context.Background(), DeliveryMeta{Scope: "a", Kind: "k", Subscriber: 1}, 0, nil)
	m.RecordDelivery(context.Background(), DeliveryMeta{Scope: "b", Kind: "k", Subscriber: 2}, 0, nil)

	found := findMetric(collect(t, reader), MetricDeliveryTotal)
	if found == nil {
		t.Fatalf("%s metric not found", MetricDeliveryTotal)
	}
	sum := found.Data.(metricdata.Sum[int64])
	if len(sum.DataPoints) != 1 {
		t.Fatalf("expected scopes to share one series, got %d", len(sum.DataPoints))
	}
	attrs := sum.DataPoints[0].Attributes
	if v, ok := attrs.Value(attribute.Key("mediator.kind")); !ok || v.AsString() != "k" {
		t.Errorf("mediator.kind = %v, want k", v.AsString())
	}
	if _, ok := attrs.Value(attribute.Key("mediator.scope")); ok {
		t.Error("mediator.scope must not be a metric attribute")
	}
}

func TestNewMetrics_NilMeter(t *testing.T) {
	m, err := NewMetrics(nil)
	if err != nil {
		t.Fatalf("NewMetrics(nil) error = %v", err)
	}
	m.RecordDelivery(context.Background(), DeliveryMeta{}, 0, errors.New("ignored"))
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}
