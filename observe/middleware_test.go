package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

type middlewareFixture struct {
	mw      *Middleware
	spans   *tracetest.SpanRecorder
	metrics *sdkmetric.ManualReader
	logs    *bytes.Buffer
}

func newMiddlewareFixture(t *testing.T, level string) middlewareFixture {
	t.Helper()
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))

	m, reader := newTestMetrics(t)
	logs := &bytes.Buffer{}

	return middlewareFixture{
		mw:      NewMiddleware(NewTracer(tp.Tracer("test")), m, NewLoggerWithWriter(level, logs)),
		spans:   spans,
		metrics: reader,
		logs:    logs,
	}
}

func TestMiddleware_SuccessPath(t *testing.T) {
	f := newMiddlewareFixture(t, "debug")
	meta := DeliveryMeta{Scope: "s", Kind: "health.status", Subscriber: 3}

	var called bool
	err := f.mw.Wrap(func(ctx context.Context, got DeliveryMeta) error {
		called = true
		if got != meta {
			t.Errorf("meta = %+v, want %+v", got, meta)
		}
		return nil
	})(context.Background(), meta)

	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !called {
		t.Fatal("wrapped function was not called")
	}

	spans := f.spans.Ended()
	if len(spans) != 1 || spans[0].Status().Code != codes.Ok {
		t.Fatalf("expected one Ok span, got %d", len(spans))
	}
	if got := sumValue(t, collect(t, f.metrics), MetricDeliveryTotal); got != 1 {
		t.Errorf("%s = %d, want 1", MetricDeliveryTotal, got)
	}

	var entry map[string]any
	if err := json.Unmarshal(f.logs.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output: %v\n%s", err, f.logs.String())
	}
	if entry["level"] != "debug" || entry["msg"] != "delivery completed" {
		t.Errorf("unexpected log entry: %v", entry)
	}
	if entry["mediator.kind"] != "health.status" {
		t.Errorf("mediator.kind = %v", entry["mediator.kind"])
	}
}

func TestMiddleware_ErrorPath(t *testing.T) {
	f := newMiddlewareFixture(t, "info")
	wantErr := errors.New("listener failed")

	err := f.mw.Wrap(func(context.Context, DeliveryMeta) error {
		return wantErr
	})(context.Background(), DeliveryMeta{Kind: "k"})

	if !errors.Is(err, wantErr) {
		t.Fatalf("error = %v, want %v", err, wantErr)
	}
	if spans := f.spans.Ended(); spans[0].Status().Code != codes.Error {
		t.Errorf("span status = %v, want Error", spans[0].Status().Code)
	}
	if got := sumValue(t, collect(t, f.metrics), MetricDeliveryErrors); got != 1 {
		t.Errorf("%s = %d, want 1", MetricDeliveryErrors, got)
	}
	out := f.logs.String()
	if !strings.Contains(out, `"level":"error"`) || !strings.Contains(out, "listener failed") {
		t.Errorf("expected error log with message, got: %s", out)
	}
}

func TestMiddleware_PropagatesSpanContext(t *testing.T) {
	f := newMiddlewareFixture(t, "error")

	_ = f.mw.Wrap(func(ctx context.Context, _ DeliveryMeta) error {
		if !trace.SpanContextFromContext(ctx).IsValid() {
			t.Error("expected a valid span context inside the delivery")
		}
		return nil
	})(context.Background(), DeliveryMeta{Kind: "k"})
}

func TestNewMiddleware_NilComponents(t *testing.T) {
	mw := NewMiddleware(nil, nil, nil)
	err := mw.Wrap(func(context.Context, DeliveryMeta) error { return nil })(context.Background(), DeliveryMeta{})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
}

func TestMiddlewareFromObserver_Nil(t *testing.T) {
	if _, err := MiddlewareFromObserver(nil); !errors.Is(err, ErrNilObserver) {
		t.Fatalf("error = %v, want ErrNilObserver", err)
	}
}
