// Package observe provides the logging and telemetry used by the mediator and
// the health tracker.
//
// It builds OpenTelemetry tracer and meter providers from a Config, offers a
// small JSON structured Logger, and a Middleware that records a span, delivery
// metrics and a log entry around each message delivery. Nothing here is
// required: every consumer falls back to no-op implementations.
package observe
