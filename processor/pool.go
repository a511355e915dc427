package processor

import (
	"fmt"
	"math"
	"runtime"
	"sync/atomic"

	"github.com/creastat/disruptor/core"
	"github.com/creastat/infra/telemetry"
)

// WorkerPoolConfig holds WorkerPool configuration
type WorkerPoolConfig[T any] struct {
	RingBuffer *core.RingBuffer[T]
	Barrier    core.SequenceBarrier
	Handlers   []core.WorkHandler[T]

	// ExceptionHandler defaults to a FatalExceptionHandler
	ExceptionHandler core.ExceptionHandler[T]

	Name   string
	Logger telemetry.Logger
}

// WorkerPool runs one WorkProcessor per WorkHandler, all behind the same barrier
type WorkerPool[T any] struct {
	started      atomic.Bool
	workSequence *core.Sequence
	ringBuffer   *core.RingBuffer[T]
	processors   []*WorkProcessor[T]
	logger       telemetry.Logger
}

// NewWorkerPool creates a pool with one worker per handler
func NewWorkerPool[T any](config WorkerPoolConfig[T]) *WorkerPool[T] {
	name := config.Name
	if name == "" {
		name = "worker-pool"
	}
	exceptionHandler := config.ExceptionHandler
	if exceptionHandler == nil {
		exceptionHandler = NewFatalExceptionHandler[T](config.Logger)
	}

	w := &WorkerPool[T]{
		workSequence: core.NewSequence(core.InitialSequenceValue),
		ringBuffer:   config.RingBuffer,
		processors:   make([]*WorkProcessor[T], len(config.Handlers)),
		logger:       config.Logger.WithModule(name),
	}
	for i, handler := range config.Handlers {
		w.processors[i] = newWorkProcessor[T](config.RingBuffer, config.Barrier, handler, exceptionHandler, w.workSequence, w.logger)
	}
	return w
}

// WorkerSequences returns every worker's sequence followed by the shared work sequence
func (w *WorkerPool[T]) WorkerSequences() []*core.Sequence {
	sequences := make([]*core.Sequence, 0, len(w.processors)+1)
	for _, p := range w.processors {
		sequences = append(sequences, p.Sequence())
	}
	return append(sequences, w.workSequence)
}

// Size returns the number of workers
func (w *WorkerPool[T]) Size() int {
	return len(w.processors)
}

// Start positions every worker at the current cursor and runs each on the executor.
// A pool starts once; later calls fail with ErrAlreadyRunning.
func (w *WorkerPool[T]) Start(executor core.Executor) error {
	if !w.started.CompareAndSwap(false, true) {
		return fmt.Errorf("worker pool: %w", ErrAlreadyRunning)
	}

	cursor := w.ringBuffer.Cursor()
	w.workSequence.Set(cursor)

	for i, p := range w.processors {
		p.Sequence().Set(cursor)
		executor.Execute(func() {
			if err := p.Run(); err != nil {
				w.logger.Error("Worker stopped with error", telemetry.Int("worker", i), telemetry.Err(err))
			}
		}, true)
	}

	w.logger.Debug("Worker pool started", telemetry.Int("workers", len(w.processors)), telemetry.Int("cursor", int(cursor)))
	return nil
}

// Halt signals every worker to stop without waiting for the backlog
func (w *WorkerPool[T]) Halt() {
	for _, p := range w.processors {
		p.Halt()
	}
}

// DrainAndHalt waits until the workers have consumed everything published, then halts.
// Publishing must have stopped before calling it.
func (w *WorkerPool[T]) DrainAndHalt() {
	sequences := w.WorkerSequences()
	for w.ringBuffer.Cursor() > core.MinimumSequence(sequences, math.MaxInt64) {
		runtime.Gosched()
	}
	w.Halt()
}

// IsRunning reports whether any worker has been started or halted and not yet returned
func (w *WorkerPool[T]) IsRunning() bool {
	for _, p := range w.processors {
		if p.IsRunning() {
			return true
		}
	}
	return false
}
