// Package health tracks a healthy flag per component of a process and tells
// interested parties whenever a flag is written.
//
// # Core Concepts
//
// A Tracker maps component names to a boolean. Any string is a valid
// component name and a component that never reported is simply not healthy.
// Every SetHealth publishes a StatusChange on a mediator.Mediator under the
// tracker's scope; listeners added with Subscribe receive it on their own
// goroutine. SetHealth never waits for listeners.
//
// # Basic Usage
//
//	tracker := health.NewTracker()
//	defer tracker.Close(ctx)
//
//	_ = tracker.Subscribe(func(ctx context.Context, component string, healthy bool) error {
//	    log.Printf("%s healthy=%v", component, healthy)
//	    return nil
//	})
//
//	tracker.SetHealth(ctx, "database", true)
//	tracker.Health("database") // true
//	tracker.Health("cache")    // false, never reported
//
// # Sharing a Mediator
//
// Several trackers can share one mediator. Each keeps its own scope, so a
// listener only hears about the tracker it subscribed to:
//
//	bus := mediator.New()
//	api := health.NewTracker(health.TrackerConfig{Mediator: bus, Scope: "api"})
//	jobs := health.NewTracker(health.TrackerConfig{Mediator: bus, Scope: "jobs"})
//
// # HTTP Endpoints
//
//	http.Handle("/healthz", health.LivenessHandler())
//	http.Handle("/readyz", health.ReadinessHandler(tracker, "database"))
//	http.Handle("/health", health.DetailedHandler(tracker))
package health
