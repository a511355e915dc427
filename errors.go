package disruptor

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyStarted is returned by registration calls and Start once the disruptor is running
	ErrAlreadyStarted = errors.New("disruptor already started")

	// ErrDuplicateHandler is returned when the same handler reference is registered twice
	ErrDuplicateHandler = errors.New("handler already registered")

	// ErrDuplicateProcessor is returned when a processor's sequence is already owned by a consumer
	ErrDuplicateProcessor = errors.New("processor already registered")

	// ErrUnknownHandler is returned when looking up a handler that was never registered
	ErrUnknownHandler = errors.New("handler not registered")

	// ErrUnknownSequence is returned when a group references a sequence no consumer owns
	ErrUnknownSequence = errors.New("sequence not owned by any registered consumer")

	// ErrUnidentifiableHandler is returned for handler values with neither a reference
	// identity nor a comparable value
	ErrUnidentifiableHandler = errors.New("handler has no identity; pass a pointer")
)

// RegistrationError carries the operation and consumer behind a configuration failure
type RegistrationError struct {
	// Op is the call that failed, e.g. "handle events with"
	Op string

	// Consumer describes the handler, processor or sequence involved
	Consumer string

	Err error
}

func (e *RegistrationError) Error() string {
	if e.Consumer != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Consumer, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RegistrationError) Unwrap() error {
	return e.Err
}
