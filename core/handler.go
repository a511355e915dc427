package core

// EventHandler receives every event published to the ring buffer, in sequence order.
// endOfBatch is true for the last event of a batch made available by the barrier.
type EventHandler[T any] interface {
	OnEvent(event *T, sequence int64, endOfBatch bool) error
}

// WorkHandler processes an event claimed by exactly one worker of a pool
type WorkHandler[T any] interface {
	OnEvent(event *T) error
}

// LifecycleAware handlers are notified when their processor starts and stops
type LifecycleAware interface {
	OnStart() error
	OnShutdown() error
}

// SequenceReportingEventHandler handlers receive the processor's sequence so they can
// report progress before the end of a batch
type SequenceReportingEventHandler interface {
	SetSequenceCallback(sequence *Sequence)
}

// ExceptionHandler decides what happens when a handler fails.
// A non-nil error returned from HandleEventException stops the processor.
type ExceptionHandler[T any] interface {
	HandleEventException(err error, sequence int64, event *T) error
	HandleOnStartException(err error)
	HandleOnShutdownException(err error)
}

// EventProcessor is a long-running consumer that owns a sequence
type EventProcessor interface {
	// Sequence returns the position this processor has fully consumed
	Sequence() *Sequence

	// Run blocks until the processor is halted
	Run() error

	// Halt asks the processor to stop at the next opportunity. It does not wait.
	Halt()

	IsRunning() bool
}

// DataProvider returns the slot holding a sequence
type DataProvider[T any] interface {
	Get(sequence int64) *T
}

// Executor runs consumer tasks, one long-running task per consumer
type Executor interface {
	Execute(task func(), longRunning bool)
}
