package mediator

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/healthtrack/observe"
)

// Message is a value routed through a Mediator.
type Message interface {
	// Kind returns the type tag subscribers register for.
	Kind() string
}

// Handler processes one message. A returned error or a panic is isolated to
// this delivery.
type Handler func(ctx context.Context, msg Message) error

// Config configures a Mediator.
type Config struct {
	// Logger receives handler failures from fire-and-forget deliveries.
	// Default: no-op
	Logger observe.Logger

	// Middleware wraps every delivery, typically with tracing and metrics.
	// Default: none
	Middleware *observe.Middleware
}

type topic struct {
	scope string
	kind  string
}

// Mediator routes messages to subscriptions by (scope, kind).
type Mediator struct {
	config Config

	mu     sync.RWMutex
	topics map[topic][]*Subscription
	all    []*Subscription
	nextID uint64
	closed bool
}

// New creates a Mediator.
func New(config ...Config) *Mediator {
	var cfg Config
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.Logger == nil {
		cfg.Logger = observe.NopLogger()
	}

	return &Mediator{
		config: cfg,
		topics: make(map[topic][]*Subscription),
	}
}

// Subscribe registers h for messages of the given kind published on scope.
// The subscription only sees messages published after Subscribe returns.
func (m *Mediator) Subscribe(scope, kind string, h Handler) (*Subscription, error) {
	if h == nil {
		return nil, ErrNilHandler
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}

	m.nextID++
	s := newSubscription(m, m.nextID, scope, kind, h)
	key := topic{scope: scope, kind: kind}
	m.topics[key] = append(m.topics[key], s)
	m.all = append(m.all, s)

	go s.run()
	return s, nil
}

// Publish hands msg to every subscription of (scope, msg.Kind()).
//
// With wait set to false Publish returns as soon as the message is queued;
// handlers run later with a context that keeps ctx's values but not its
// cancellation. With wait set to true Publish blocks until every matching
// handler has returned, or ctx is done, and returns their joined errors.
func (m *Mediator) Publish(ctx context.Context, scope string, msg Message, wait bool) error {
	if msg == nil {
		return ErrNilMessage
	}
	key := topic{scope: scope, kind: msg.Kind()}

	d := delivery{ctx: ctx, msg: msg}
	if !wait {
		d.ctx = context.WithoutCancel(ctx)
	}

	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return ErrClosed
	}
	subs := m.topics[key]
	var results chan error
	if wait {
		results = make(chan error, len(subs))
		d.result = results
	}
	for _, s := range subs {
		s.enqueue(d)
	}
	m.mu.RUnlock()

	if !wait {
		return nil
	}

	var errs []error
	for range subs {
		select {
		case err := <-results:
			if err != nil {
				errs = append(errs, err)
			}
		case <-ctx.Done():
			return errors.Join(append(errs, ctx.Err())...)
		}
	}
	return errors.Join(errs...)
}

// Subscribers returns the number of subscriptions for (scope, kind).
func (m *Mediator) Subscribers(scope, kind string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.topics[topic{scope: scope, kind: kind}])
}

// Flush blocks until every message published before the call has been
// handled by every subscription, or ctx is done.
func (m *Mediator) Flush(ctx context.Context) error {
	m.mu.RLock()
	if m.closed {
		subs := slices.Clone(m.all)
		m.mu.RUnlock()
		return waitStopped(ctx, subs)
	}
	barriers := make([]chan struct{}, len(m.all))
	for i, s := range m.all {
		barriers[i] = make(chan struct{})
		s.enqueue(delivery{barrier: barriers[i]})
	}
	m.mu.RUnlock()

	g, ctx := errgroup.WithContext(ctx)
	for _, b := range barriers {
		g.Go(func() error {
			select {
			case <-b:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}
	return g.Wait()
}

// Close stops accepting messages and subscriptions, lets every subscription
// drain what is already queued, and waits for that to finish or for ctx to be
// done. Close is idempotent.
func (m *Mediator) Close(ctx context.Context) error {
	m.mu.Lock()
	if !m.closed {
		m.closed = true
		for _, s := range m.all {
			s.stop()
		}
	}
	subs := slices.Clone(m.all)
	m.mu.Unlock()

	return waitStopped(ctx, subs)
}

func waitStopped(ctx context.Context, subs []*Subscription) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, s := range subs {
		g.Go(func() error {
			select {
			case <-s.done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}
	return g.Wait()
}

func (m *Mediator) deliver(s *Subscription, d delivery) error {
	meta := observe.DeliveryMeta{Scope: s.scope, Kind: s.kind, Subscriber: s.id}

	var call observe.DeliverFunc = func(ctx context.Context, _ observe.DeliveryMeta) error {
		return invoke(ctx, s.handler, d.msg)
	}
	if m.config.Middleware != nil {
		call = m.config.Middleware.Wrap(call)
	}

	err := call(d.ctx, meta)
	if err != nil && d.result == nil {
		m.config.Logger.Warn(d.ctx, "mediator: handler failed",
			append(meta.Fields(), observe.Field{Key: "error", Value: err})...)
	}
	return err
}

func invoke(ctx context.Context, h Handler, msg Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()
	return h(ctx, msg)
}
