package processor

import (
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/creastat/disruptor/core"
	"github.com/creastat/infra/telemetry"
)

// BatchEventProcessorConfig holds BatchEventProcessor configuration
type BatchEventProcessorConfig[T any] struct {
	DataProvider core.DataProvider[T]
	Barrier      core.SequenceBarrier
	Handler      core.EventHandler[T]

	// ExceptionHandler defaults to a FatalExceptionHandler
	ExceptionHandler core.ExceptionHandler[T]

	Name   string
	Logger telemetry.Logger
}

// BatchEventProcessor feeds every available event to one EventHandler, advancing its
// sequence once per batch
type BatchEventProcessor[T any] struct {
	running          atomic.Int32
	sequence         *core.Sequence
	dataProvider     core.DataProvider[T]
	barrier          core.SequenceBarrier
	handler          core.EventHandler[T]
	exceptionHandler core.ExceptionHandler[T]
	name             string
	logger           telemetry.Logger
}

// NewBatchEventProcessor creates a processor whose sequence starts at InitialSequenceValue
func NewBatchEventProcessor[T any](config BatchEventProcessorConfig[T]) *BatchEventProcessor[T] {
	name := config.Name
	if name == "" {
		name = "batch-event-processor"
	}

	p := &BatchEventProcessor[T]{
		sequence:         core.NewSequence(core.InitialSequenceValue),
		dataProvider:     config.DataProvider,
		barrier:          config.Barrier,
		handler:          config.Handler,
		exceptionHandler: config.ExceptionHandler,
		name:             name,
		logger:           config.Logger.WithModule(name),
	}
	if p.exceptionHandler == nil {
		p.exceptionHandler = NewFatalExceptionHandler[T](config.Logger)
	}

	if reporting, ok := config.Handler.(core.SequenceReportingEventHandler); ok {
		reporting.SetSequenceCallback(p.sequence)
	}

	return p
}

// Sequence returns the last sequence this processor has finished with
func (p *BatchEventProcessor[T]) Sequence() *core.Sequence {
	return p.sequence
}

// Barrier returns the barrier this processor waits on
func (p *BatchEventProcessor[T]) Barrier() core.SequenceBarrier {
	return p.barrier
}

// SetExceptionHandler replaces the exception handler. Call it before Run.
func (p *BatchEventProcessor[T]) SetExceptionHandler(exceptionHandler core.ExceptionHandler[T]) {
	if exceptionHandler != nil {
		p.exceptionHandler = exceptionHandler
	}
}

// ExceptionHandler returns the handler failures are routed to
func (p *BatchEventProcessor[T]) ExceptionHandler() core.ExceptionHandler[T] {
	return p.exceptionHandler
}

// Halt stops the processor after the current batch. A processor halted before it runs
// exits as soon as Run is called. The barrier alert is shared with every processor on the
// barrier and is never cleared, so a halted processor is not run again.
func (p *BatchEventProcessor[T]) Halt() {
	p.running.Store(stateHalted)
	p.barrier.Alert()
}

// IsRunning reports whether the processor has been started or halted and not yet returned to idle
func (p *BatchEventProcessor[T]) IsRunning() bool {
	return p.running.Load() != stateIdle
}

// Run processes events until halted. It returns ErrAlreadyRunning if another Run is active,
// and the exception handler's error if that handler chose to stop the processor.
func (p *BatchEventProcessor[T]) Run() error {
	if !p.running.CompareAndSwap(stateIdle, stateRunning) {
		if p.running.Load() == stateRunning {
			return ErrAlreadyRunning
		}
		p.logger.Debug("Processor halted before start, exiting")
		notifyStart(p.handler, p.exceptionHandler)
		notifyShutdown(p.handler, p.exceptionHandler)
		return nil
	}

	notifyStart(p.handler, p.exceptionHandler)
	p.logger.Debug("Processor started", telemetry.Int("sequence", int(p.sequence.Get())))

	defer func() {
		notifyShutdown(p.handler, p.exceptionHandler)
		p.running.Store(stateIdle)
		p.logger.Debug("Processor stopped", telemetry.Int("sequence", int(p.sequence.Get())))
	}()

	if p.running.Load() != stateRunning {
		return nil
	}
	return p.processEvents()
}

func (p *BatchEventProcessor[T]) processEvents() error {
	next := p.sequence.Get() + 1

	for {
		available, err := p.barrier.WaitFor(next)
		if err != nil {
			if errors.Is(err, core.ErrAlert) {
				if p.running.Load() != stateRunning {
					return nil
				}
				// a sibling on the same barrier is being halted
				runtime.Gosched()
				continue
			}
			return fmt.Errorf("%s: waiting for sequence %d: %w", p.name, next, err)
		}

		for next <= available {
			event := p.dataProvider.Get(next)
			if err := p.onEvent(event, next, next == available); err != nil {
				if stop := p.exceptionHandler.HandleEventException(err, next, event); stop != nil {
					p.sequence.Set(next - 1)
					return stop
				}
			}
			next++
		}

		p.sequence.Set(available)
	}
}

func (p *BatchEventProcessor[T]) onEvent(event *T, sequence int64, endOfBatch bool) (err error) {
	defer recoverHandlerPanic(sequence, &err)
	return p.handler.OnEvent(event, sequence, endOfBatch)
}
