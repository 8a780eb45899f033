package observe

import (
	"context"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// DeliveryMeta describes one message delivery to one subscriber.
type DeliveryMeta struct {
	Scope      string // partition the message was published on
	Kind       string // message type tag
	Subscriber uint64 // subscription id, unique per mediator
}

// SpanName returns the span name for deliveries of this kind.
// Scope is left out on purpose: it is usually a random identifier.
func (m DeliveryMeta) SpanName() string {
	return "mediator.deliver " + m.Kind
}

// Fields returns the metadata as log fields.
func (m DeliveryMeta) Fields() []Field {
	return []Field{
		{Key: "mediator.scope", Value: m.Scope},
		{Key: "mediator.kind", Value: m.Kind},
		{Key: "mediator.subscriber", Value: m.Subscriber},
	}
}

func (m DeliveryMeta) attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("mediator.scope", m.Scope),
		attribute.String("mediator.kind", m.Kind),
		attribute.String("mediator.subscriber", strconv.FormatUint(m.Subscriber, 10)),
	}
}

// Tracer wraps OpenTelemetry tracing with delivery span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a consumer span for one delivery.
	StartSpan(ctx context.Context, meta DeliveryMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer wraps an OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	if t == nil {
		return newNoopTracer()
	}
	return &tracerImpl{tracer: t}
}

func (t *tracerImpl) StartSpan(ctx context.Context, meta DeliveryMeta) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(meta.attributes()...),
		trace.WithSpanKind(trace.SpanKindConsumer),
	)
}

func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

type noopTracer struct {
	noop trace.Tracer
}

func newNoopTracer() Tracer {
	return &noopTracer{noop: tracenoop.NewTracerProvider().Tracer("noop")}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta DeliveryMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, err error) {
	span.End()
}
