// Package mediator is an in-process publish/subscribe bus.
//
// Messages are routed by a scope, an opaque partition key chosen by the
// publisher, and by the message kind returned from Message.Kind. Several
// independent publishers can share one Mediator without seeing each other's
// traffic as long as they use different scopes.
//
// Every subscription owns an unbounded FIFO queue drained by its own
// goroutine:
//
//   - Publish never waits for handlers unless asked to.
//   - A subscription sees messages in the order they were published.
//   - A slow, failing, or panicking handler affects only its own queue.
//
// # Basic Usage
//
//	m := mediator.New()
//	defer m.Close(ctx)
//
//	_, _ = m.Subscribe("orders", "order.created", func(ctx context.Context, msg mediator.Message) error {
//	    created := msg.(OrderCreated)
//	    return index(ctx, created)
//	})
//
//	_ = m.Publish(ctx, "orders", OrderCreated{ID: 7}, false)
package mediator
