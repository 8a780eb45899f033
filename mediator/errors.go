package mediator

import "errors"

var (
	// ErrClosed is returned by Publish and Subscribe after Close.
	ErrClosed = errors.New("mediator: closed")

	// ErrNilHandler indicates Subscribe was called without a handler.
	ErrNilHandler = errors.New("mediator: handler is nil")

	// ErrNilMessage indicates Publish was called without a message.
	ErrNilMessage = errors.New("mediator: message is nil")

	// ErrHandlerPanic wraps a value recovered from a panicking handler.
	ErrHandlerPanic = errors.New("mediator: handler panicked")
)
