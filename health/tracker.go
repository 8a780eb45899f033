package health

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/jonwraymond/healthtrack/mediator"
	"github.com/jonwraymond/healthtrack/observe"
)

// Listener is called once for every SetHealth on the tracker it is
// subscribed to. Errors and panics are logged by the mediator and go no
// further.
type Listener func(ctx context.Context, component string, healthy bool) error

// TrackerConfig configures a Tracker.
type TrackerConfig struct {
	// Mediator delivers change notifications. Trackers sharing a mediator
	// stay isolated through their scopes.
	// Default: a private mediator owned and closed by the Tracker
	Mediator *mediator.Mediator

	// Scope partitions this tracker's notifications on the mediator.
	// Default: a random UUID
	Scope string

	// Logger receives publication failures.
	// Default: no-op
	Logger observe.Logger
}

// Tracker stores a healthy flag per component and notifies listeners of
// every write.
type Tracker struct {
	mu     sync.Mutex
	states map[string]bool

	// publishMu is taken before mu is released so that publication order
	// matches the order writes were committed.
	publishMu sync.Mutex

	mediator     *mediator.Mediator
	ownsMediator bool
	scope        string
	logger       observe.Logger
}

// NewTracker creates a Tracker.
func NewTracker(config ...TrackerConfig) *Tracker {
	var cfg TrackerConfig
	if len(config) > 0 {
		cfg = config[0]
	}

	t := &Tracker{
		states:   make(map[string]bool),
		mediator: cfg.Mediator,
		scope:    cfg.Scope,
		logger:   cfg.Logger,
	}
	if t.mediator == nil {
		t.mediator = mediator.New(mediator.Config{Logger: cfg.Logger})
		t.ownsMediator = true
	}
	if t.scope == "" {
		t.scope = uuid.NewString()
	}
	if t.logger == nil {
		t.logger = observe.NopLogger()
	}
	t.logger = t.logger.With(observe.Field{Key: "health.scope", Value: t.scope})

	return t
}

// Scope returns the tracker's notification scope.
func (t *Tracker) Scope() string {
	return t.scope
}

// Health reports whether component was last set healthy. Components that
// were never set report false.
func (t *Tracker) Health(component string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.states[component]
}

// SetHealth records the component's health and publishes a StatusChange
// without waiting for listeners. Every call publishes, including one that
// repeats the current value.
func (t *Tracker) SetHealth(ctx context.Context, component string, healthy bool) {
	t.mu.Lock()
	t.states[component] = healthy
	t.publishMu.Lock()
	t.mu.Unlock()

	err := t.mediator.Publish(ctx, t.scope, StatusChange{Component: component, Healthy: healthy}, false)
	t.publishMu.Unlock()

	if err != nil {
		t.logger.Warn(ctx, "health: status change not published",
			observe.Field{Key: "component", Value: component},
			observe.Field{Key: "healthy", Value: healthy},
			observe.Field{Key: "error", Value: err},
		)
	}
}

// Subscribe registers fn for every change published after it returns.
// Listeners run on their own goroutine, see changes in commit order, and
// stay registered for the life of the tracker.
func (t *Tracker) Subscribe(fn Listener) error {
	if fn == nil {
		return ErrNilListener
	}

	_, err := t.mediator.Subscribe(t.scope, StatusKind, func(ctx context.Context, msg mediator.Message) error {
		change, ok := msg.(StatusChange)
		if !ok {
			return fmt.Errorf("%w: %T", ErrUnexpectedMessage, msg)
		}
		return fn(ctx, change.Component, change.Healthy)
	})
	return err
}

// Snapshot returns a copy of every tracked component's health.
func (t *Tracker) Snapshot() map[string]bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return maps.Clone(t.states)
}

// Components returns the tracked component names in sorted order.
func (t *Tracker) Components() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Sorted(maps.Keys(t.states))
}

// Ready reports whether every named component is healthy. With no names it
// checks every tracked component; an empty tracker is ready.
func (t *Tracker) Ready(components ...string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(components) == 0 {
		for _, healthy := range t.states {
			if !healthy {
				return false
			}
		}
		return true
	}

	for _, name := range components {
		if !t.states[name] {
			return false
		}
	}
	return true
}

// Flush waits until every change published so far has reached every
// listener on the tracker's mediator.
func (t *Tracker) Flush(ctx context.Context) error {
	return t.mediator.Flush(ctx)
}

// Close releases the private mediator after its queued notifications drain.
// A shared mediator belongs to its owner and is left running.
func (t *Tracker) Close(ctx context.Context) error {
	if !t.ownsMediator {
		return nil
	}
	return t.mediator.Close(ctx)
}
