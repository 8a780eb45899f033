package observe

import (
	"context"
	"time"
)

// DeliverFunc invokes one subscriber for one message.
type DeliverFunc func(ctx context.Context, meta DeliveryMeta) error

// Middleware wraps deliveries with tracing, metrics, and logging.
//
// Contract:
//   - Concurrency: Wrap() returns a DeliverFunc safe for concurrent use.
//   - Context: the span context is passed to the wrapped function.
//   - Errors: errors from the wrapped function are recorded and returned unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a new Middleware. Nil components become no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = newNoopTracer()
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// Wrap wraps fn with a span, delivery metrics and a log entry.
func (m *Middleware) Wrap(fn DeliverFunc) DeliverFunc {
	return func(ctx context.Context, meta DeliveryMeta) error {
		ctx, span := m.tracer.StartSpan(ctx, meta)
		start := time.Now()

		err := fn(ctx, meta)

		duration := time.Since(start)
		m.tracer.EndSpan(span, err)
		m.metrics.RecordDelivery(ctx, meta, duration, err)

		log := m.logger.With(meta.Fields()...)
		if err != nil {
			log.Error(ctx, "delivery failed",
				Field{Key: "duration_ms", Value: duration.Milliseconds()},
				Field{Key: "error", Value: err},
			)
		} else {
			log.Debug(ctx, "delivery completed",
				Field{Key: "duration_ms", Value: duration.Milliseconds()},
			)
		}

		return err
	}
}

// MiddlewareFromObserver creates a Middleware from an Observer's tracer,
// meter and logger.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	metrics, err := newMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}
