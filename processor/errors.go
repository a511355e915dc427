package processor

import "errors"

var (
	// ErrAlreadyRunning is returned when Run or Start is called on a running consumer
	ErrAlreadyRunning = errors.New("processor is already running")

	// ErrHandlerPanic wraps a panic recovered from a handler
	ErrHandlerPanic = errors.New("handler panicked")
)

const (
	stateIdle int32 = iota
	stateHalted
	stateRunning
)
