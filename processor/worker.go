package processor

import (
	"errors"
	"fmt"
	"runtime"
	"math"
	"sync/atomic"

	"github.com/creastat/disruptor/core"
	"github.com/creastat/infra/telemetry"
)

// WorkProcessor is one worker of a WorkerPool. Workers of a pool share a work sequence
// and claim slots from it, so every event reaches exactly one worker.
type WorkProcessor[T any] struct {
	running          atomic.Int32
	sequence         *core.Sequence
	workSequence     *core.Sequence
	dataProvider     core.DataProvider[T]
	barrier          core.SequenceBarrier
	handler          core.WorkHandler[T]
	exceptionHandler core.ExceptionHandler[T]
	logger           telemetry.Logger
}

func newWorkProcessor[T any](
	dataProvider core.DataProvider[T],
	barrier core.SequenceBarrier,
	handler core.WorkHandler[T],
	exceptionHandler core.ExceptionHandler[T],
	workSequence *core.Sequence,
	logger telemetry.Logger,
) *WorkProcessor[T] {
	return &WorkProcessor[T]{
		sequence:         core.NewSequence(core.InitialSequenceValue),
		workSequence:     workSequence,
		dataProvider:     dataProvider,
		barrier:          barrier,
		handler:          handler,
		exceptionHandler: exceptionHandler,
		logger:           logger,
	}
}

// Sequence returns the slot before the one this worker is currently claiming or processing
func (p *WorkProcessor[T]) Sequence() *core.Sequence {
	return p.sequence
}

// Halt stops the worker once it next observes the barrier. The alert is shared by the
// whole pool and stays set.
func (p *WorkProcessor[T]) Halt() {
	p.running.Store(stateHalted)
	p.barrier.Alert()
}

func (p *WorkProcessor[T]) IsRunning() bool {
	return p.running.Load() != stateIdle
}

// Run claims and processes events until halted
func (p *WorkProcessor[T]) Run() error {
	if !p.running.CompareAndSwap(stateIdle, stateRunning) {
		if p.running.Load() == stateRunning {
			return ErrAlreadyRunning
		}
		notifyStart(p.handler, p.exceptionHandler)
		notifyShutdown(p.handler, p.exceptionHandler)
		return nil
	}

	notifyStart(p.handler, p.exceptionHandler)
	defer func() {
		notifyShutdown(p.handler, p.exceptionHandler)
		p.running.Store(stateIdle)
	}()

	if p.running.Load() != stateRunning {
		return nil
	}
	return p.processEvents()
}

func (p *WorkProcessor[T]) processEvents() error {
	processedSequence := true
	cachedAvailable := int64(math.MinInt64)
	next := p.sequence.Get()

	for {
		if processedSequence {
			processedSequence = false
			for {
				next = p.workSequence.Get() + 1
				p.sequence.Set(next - 1)
				if p.workSequence.CompareAndSet(next-1, next) {
					break
				}
			}
		}

		if cachedAvailable >= next {
			event := p.dataProvider.Get(next)
			if err := p.onEvent(event, next); err != nil {
				if stop := p.exceptionHandler.HandleEventException(err, next, event); stop != nil {
					return stop
				}
			}
			processedSequence = true
			continue
		}

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
			return fmt.Errorf("worker waiting for sequence %d: %w", next, err)
		}
		cachedAvailable = available
	}
}

func (p *WorkProcessor[T]) onEvent(event *T, sequence int64) (err error) {
	defer recoverHandlerPanic(sequence, &err)
	return p.handler.OnEvent(event)
}
