package mediator_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonwraymond/healthtrack/mediator"
)

type OrderCreated struct{ ID int }

func (OrderCreated) Kind() string { return "order.created" }

func ExampleMediator_Publish() {
	ctx := context.Background()
	m := mediator.New()
	defer m.Close(ctx)

	_, _ = m.Subscribe("orders", "order.created", func(ctx context.Context, msg mediator.Message) error {
		fmt.Println("indexed order", msg.(OrderCreated).ID)
		return nil
	})

	_ = m.Publish(ctx, "orders", OrderCreated{ID: 7}, false)
	_ = m.Publish(ctx, "billing", OrderCreated{ID: 8}, false)

	_ = m.Flush(ctx)
	// Output:
	// indexed order 7
}

func ExampleMediator_Publish_wait() {
	ctx := context.Background()
	m := mediator.New()
	defer m.Close(ctx)

	_, _ = m.Subscribe("orders", "order.created", func(context.Context, mediator.Message) error {
		return errors.New("search index unavailable")
	})

	err := m.Publish(ctx, "orders", OrderCreated{ID: 7}, true)
	fmt.Println(err)
	// Output:
	// search index unavailable
}

func ExampleMediator_Close() {
	ctx := context.Background()
	m := mediator.New()

	_, _ = m.Subscribe("orders", "order.created", func(ctx context.Context, msg mediator.Message) error {
		fmt.Println("handled", msg.(OrderCreated).ID)
		return nil
	})
	_ = m.Publish(ctx, "orders", OrderCreated{ID: 1}, false)

	_ = m.Close(ctx)
	fmt.Println(errors.Is(m.Publish(ctx, "orders", OrderCreated{ID: 2}, false), mediator.ErrClosed))
	// Output:
	// handled 1
	// true
}
