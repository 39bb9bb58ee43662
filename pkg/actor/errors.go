package actor

import (
	"errors"
	"fmt"
)

var (
	// ErrActorUnavailable is returned when the worker has terminated or the
	// queue no longer accepts commands.
	ErrActorUnavailable = errors.New("connection actor unavailable")

	// ErrClosed is returned by Submit after Close has been called.
	ErrClosed = fmt.Errorf("%w: closed", ErrActorUnavailable)

	// ErrQueueFull is returned when a command cannot be enqueued under the
	// configured overflow policy.
	ErrQueueFull = errors.New("connection actor queue full")
)
