package mediator

import (
	"context"
	"sync"
)

// delivery is one queued item. Exactly one of msg and barrier is set.
type delivery struct {
	ctx     context.Context
	msg     Message
	result  chan<- error
	barrier chan struct{}
}

// Subscription is a registered handler with its own ordered queue.
type Subscription struct {
	id      uint64
	scope   string
	kind    string
	handler Handler
	m       *Mediator

	mu      sync.Mutex
	queue   []delivery
	stopped bool

	wake chan struct{}
	done chan struct{}
}

func newSubscription(m *Mediator, id uint64, scope, kind string, h Handler) *Subscription {
	return &Subscription{
		id:      id,
		scope:   scope,
		kind:    kind,
		handler: h,
		m:       m,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

// ID returns the subscription id, unique within its Mediator.
func (s *Subscription) ID() uint64 { return s.id }

// Scope returns the scope the subscription listens on.
func (s *Subscription) Scope() string { return s.scope }

// Kind returns the message kind the subscription listens for.
func (s *Subscription) Kind() string { return s.kind }

// Pending returns the number of queued items not yet picked up by the handler.
func (s *Subscription) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

func (s *Subscription) enqueue(d delivery) {
	s.mu.Lock()
	s.queue = append(s.queue, d)
	s.mu.Unlock()
	s.notify()
}

func (s *Subscription) stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.notify()
}

func (s *Subscription) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// next blocks until an item is queued. It reports false once the
// subscription is stopped and its queue is empty.
func (s *Subscription) next() (delivery, bool) {
	s.mu.Lock()
	for len(s.queue) == 0 {
		if s.stopped {
			s.mu.Unlock()
			return delivery{}, false
		}
		s.mu.Unlock()
		<-s.wake
		s.mu.Lock()
	}

	d := s.queue[0]
	s.queue[0] = delivery{}
	s.queue = s.queue[1:]
	if len(s.queue) == 0 {
		s.queue = nil
	}
	s.mu.Unlock()
	return d, true
}

func (s *Subscription) run() {
	defer close(s.done)

	for {
		d, ok := s.next()
		if !ok {
			return
		}
		if d.barrier != nil {
			close(d.barrier)
			continue
		}

		err := s.m.deliver(s, d)
		if d.result != nil {
			d.result <- err
		}
	}
}
