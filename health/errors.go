package health

import "errors"

var (
	// ErrNilListener indicates Subscribe was called without a listener.
	ErrNilListener = errors.New("health: listener is nil")

	// ErrUnexpectedMessage indicates a message published under StatusKind
	// that is not a StatusChange.
	ErrUnexpectedMessage = errors.New("health: unexpected message type")
)
