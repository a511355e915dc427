package disruptor

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/creastat/disruptor/core"
	"github.com/creastat/disruptor/processor"
	"github.com/creastat/infra/telemetry"
)

// Disruptor wires consumers into a dependency graph over one ring buffer and owns
// their lifecycle.
//
// Topology is declared from a single goroutine before Start. Start installs the
// end-of-chain sequences as the buffer's gating set and runs every consumer; after that
// the topology is fixed and registration fails with ErrAlreadyStarted.
type Disruptor[T any] struct {
	ringBuffer *core.RingBuffer[T]
	executor   core.Executor
	repository *consumerRepository[T]
	started    atomic.Bool

	// exceptionHandler applies to processors created after it was set; nil keeps the
	// processor's own default
	exceptionHandler core.ExceptionHandler[T]

	logger     telemetry.Logger
	baseLogger telemetry.Logger
}

// New creates a disruptor over a ring buffer of bufferSize slots, each filled by factory
func New[T any](factory func() T, bufferSize int, opts ...Option) (*Disruptor[T], error) {
	s := settings{logLevel: "info"}
	for _, opt := range opts {
		opt(&s)
	}

	if !s.hasLogger {
		s.logger = telemetry.New(telemetry.Config{Level: s.logLevel})
	}
	if s.waitStrategy == nil {
		s.waitStrategy = core.NewBlockingWaitStrategy()
	}
	if s.executor == nil {
		s.executor = NewGoroutineExecutor(s.logger)
	}

	ringBuffer, err := core.NewRingBuffer(factory, bufferSize, s.waitStrategy)
	if err != nil {
		return nil, fmt.Errorf("failed to create ring buffer: %w", err)
	}

	return &Disruptor[T]{
		ringBuffer: ringBuffer,
		executor:   s.executor,
		repository: newConsumerRepository[T](),
		logger:     s.logger.WithModule("disruptor"),
		baseLogger: s.logger,
	}, nil
}

// HandleEventsWith starts a stage that reads straight from the publisher: one batch
// processor per handler, all sharing a barrier on the cursor
func (d *Disruptor[T]) HandleEventsWith(handlers ...core.EventHandler[T]) (*EventHandlerGroup[T], error) {
	return d.createEventProcessors(nil, handlers)
}

// HandleEventsWithProcessors registers externally built processors and returns a group
// over their sequences
func (d *Disruptor[T]) HandleEventsWithProcessors(processors ...core.EventProcessor) (*EventHandlerGroup[T], error) {
	sequences, err := d.registerBareProcessors("handle events with processors", processors)
	if err != nil {
		return nil, err
	}
	return newEventHandlerGroup(d, sequences), nil
}

// HandleEventsWithWorkerPool starts a stage of one worker pool reading straight from the
// publisher. Each event goes to exactly one of the work handlers.
func (d *Disruptor[T]) HandleEventsWithWorkerPool(workHandlers ...core.WorkHandler[T]) (*EventHandlerGroup[T], error) {
	return d.createWorkerPool(nil, workHandlers)
}

// After returns a group over already registered handlers, for declaring a stage that
// must wait for them
func (d *Disruptor[T]) After(handlers ...core.EventHandler[T]) (*EventHandlerGroup[T], error) {
	const op = "after"
	if d.started.Load() {
		return nil, &RegistrationError{Op: op, Err: ErrAlreadyStarted}
	}

	sequences := make([]*core.Sequence, 0, len(handlers))
	for _, handler := range handlers {
		sequence, err := d.repository.sequenceFor(handler)
		if err != nil {
			return nil, &RegistrationError{Op: op, Consumer: describe(handler), Err: err}
		}
		sequences = append(sequences, sequence)
	}
	return newEventHandlerGroup(d, sequences), nil
}

// AfterProcessors returns a group over the sequences of the given processors
func (d *Disruptor[T]) AfterProcessors(processors ...core.EventProcessor) (*EventHandlerGroup[T], error) {
	if d.started.Load() {
		return nil, &RegistrationError{Op: "after processors", Err: ErrAlreadyStarted}
	}

	sequences := make([]*core.Sequence, 0, len(processors))
	for _, p := range processors {
		sequences = append(sequences, p.Sequence())
	}
	return newEventHandlerGroup(d, sequences), nil
}

// HandleExceptionsWith sets the exception handler given to processors created from now on.
// Processors that already exist keep theirs.
func (d *Disruptor[T]) HandleExceptionsWith(exceptionHandler core.ExceptionHandler[T]) {
	d.exceptionHandler = exceptionHandler
}

// HandleExceptionsFor selects the processor of handler for an exception handler override
func (d *Disruptor[T]) HandleExceptionsFor(handler core.EventHandler[T]) *ExceptionHandlerSetting[T] {
	return &ExceptionHandlerSetting[T]{handler: handler, repository: d.repository}
}

// BarrierFor returns the barrier handler's processor waits on
func (d *Disruptor[T]) BarrierFor(handler core.EventHandler[T]) (core.SequenceBarrier, error) {
	barrier, err := d.repository.barrierFor(handler)
	if err != nil {
		return nil, &RegistrationError{Op: "barrier for", Consumer: describe(handler), Err: err}
	}
	return barrier, nil
}

// SequenceValueFor returns how far handler's processor has consumed
func (d *Disruptor[T]) SequenceValueFor(handler core.EventHandler[T]) (int64, error) {
	sequence, err := d.repository.sequenceFor(handler)
	if err != nil {
		return core.InitialSequenceValue, &RegistrationError{Op: "sequence for", Consumer: describe(handler), Err: err}
	}
	return sequence.Get(), nil
}

// Start gates the ring buffer on every end-of-chain consumer and runs all consumers.
// It returns the ring buffer for publishing and fails with ErrAlreadyStarted on a second call.
func (d *Disruptor[T]) Start() (*core.RingBuffer[T], error) {
	gating := d.repository.gatingSequences()
	d.ringBuffer.SetGatingSequences(gating...)

	if !d.started.CompareAndSwap(false, true) {
		return nil, ErrAlreadyStarted
	}

	consumers := d.repository.all()
	for _, info := range consumers {
		if err := info.start(d.executor, d.logger); err != nil {
			return nil, fmt.Errorf("failed to start %s: %w", info.label(), err)
		}
		d.logger.Debug("Started consumer", telemetry.String("consumer", info.label()), telemetry.String("kind", info.kind.String()))
	}

	d.logger.Info("Disruptor started",
		telemetry.Int("consumers", len(consumers)),
		telemetry.Int("gating_sequences", len(gating)),
		telemetry.Int("buffer_size", d.ringBuffer.BufferSize()))

	return d.ringBuffer, nil
}

// Halt signals every consumer to stop, in registration order. It does not wait for them,
// and may be called before Start or more than once.
func (d *Disruptor[T]) Halt() {
	for _, info := range d.repository.all() {
		info.halt()
	}
	d.logger.Info("Disruptor halted")
}

// Shutdown waits until every end-of-chain consumer has caught up with the cursor, then halts.
// Publishing must have stopped first or Shutdown never returns.
func (d *Disruptor[T]) Shutdown() {
	for d.hasBacklog() {
		runtime.Gosched()
	}
	d.Halt()
}

// ShutdownContext is Shutdown bounded by ctx. On expiry it returns without halting.
func (d *Disruptor[T]) ShutdownContext(ctx context.Context) error {
	for d.hasBacklog() {
		select {
		case <-ctx.Done():
			d.logger.Warn("Shutdown abandoned with backlog", telemetry.Int("cursor", int(d.ringBuffer.Cursor())))
			return fmt.Errorf("disruptor shutdown: %w", ctx.Err())
		default:
		}
		runtime.Gosched()
	}
	d.Halt()
	return nil
}

// hasBacklog reports whether any end-of-chain consumer is behind the cursor
func (d *Disruptor[T]) hasBacklog() bool {
	cursor := d.ringBuffer.Cursor()
	for _, sequence := range d.repository.gatingSequences() {
		if cursor > sequence.Get() {
			return true
		}
	}
	return false
}

// RingBuffer returns the underlying ring buffer
func (d *Disruptor[T]) RingBuffer() *core.RingBuffer[T] {
	return d.ringBuffer
}

// Cursor returns the highest published sequence
func (d *Disruptor[T]) Cursor() int64 {
	return d.ringBuffer.Cursor()
}

// BufferSize returns the number of ring buffer slots
func (d *Disruptor[T]) BufferSize() int {
	return d.ringBuffer.BufferSize()
}

// Get returns the slot for sequence
func (d *Disruptor[T]) Get(sequence int64) *T {
	return d.ringBuffer.Get(sequence)
}

// PublishEvent claims the next slot, fills it with translate and publishes it.
// Only one goroutine may publish.
func (d *Disruptor[T]) PublishEvent(translate func(event *T, sequence int64)) {
	d.ringBuffer.PublishEvent(translate)
}

// createEventProcessors is the single entry point for handler stages: one barrier over
// barrierSequences shared by a new batch processor per handler
func (d *Disruptor[T]) createEventProcessors(barrierSequences []*core.Sequence, handlers []core.EventHandler[T]) (*EventHandlerGroup[T], error) {
	const op = "handle events with"
	if d.started.Load() {
		return nil, &RegistrationError{Op: op, Err: ErrAlreadyStarted}
	}

	if len(handlers) > 0 {
		if err := d.repository.checkSequences(barrierSequences); err != nil {
			return nil, &RegistrationError{Op: op, Err: err}
		}
	}
	seen := make(map[handlerIdentity]bool, len(handlers))
	for _, handler := range handlers {
		id, err := d.repository.checkHandler(handler)
		if err == nil && seen[id] {
			err = ErrDuplicateHandler
		}
		if err != nil {
			return nil, &RegistrationError{Op: op, Consumer: describe(handler), Err: err}
		}
		seen[id] = true
	}

	barrier := d.ringBuffer.NewBarrier(barrierSequences...)
	sequences := make([]*core.Sequence, 0, len(handlers))

	for _, handler := range handlers {
		p := processor.NewBatchEventProcessor(processor.BatchEventProcessorConfig[T]{
			DataProvider:     d.ringBuffer,
			Barrier:          barrier,
			Handler:          handler,
			ExceptionHandler: d.exceptionHandler,
			Name:             describe(handler),
			Logger:           d.baseLogger,
		})

		info, err := d.repository.addProcessor(p, handler, barrier)
		if err != nil {
			return nil, &RegistrationError{Op: op, Consumer: describe(handler), Err: err}
		}
		d.repository.recordDependencies(barrierSequences, info)
		sequences = append(sequences, p.Sequence())

		d.logger.Debug("Registered event handler",
			telemetry.String("consumer", info.label()),
			telemetry.Int("dependencies", len(barrierSequences)))
	}

	if len(sequences) > 0 {
		if err := d.repository.markAsUsedInBarrier(barrierSequences); err != nil {
			return nil, &RegistrationError{Op: op, Err: err}
		}
	}

	return newEventHandlerGroup(d, sequences), nil
}

// createWorkerPool is the single entry point for worker pool stages. Unlike
// createEventProcessors it leaves the upstream consumers at the end of chain.
func (d *Disruptor[T]) createWorkerPool(barrierSequences []*core.Sequence, workHandlers []core.WorkHandler[T]) (*EventHandlerGroup[T], error) {
	const op = "handle events with worker pool"
	if d.started.Load() {
		return nil, &RegistrationError{Op: op, Err: ErrAlreadyStarted}
	}

	barrier := d.ringBuffer.NewBarrier(barrierSequences...)
	pool := processor.NewWorkerPool(processor.WorkerPoolConfig[T]{
		RingBuffer:       d.ringBuffer,
		Barrier:          barrier,
		Handlers:         workHandlers,
		ExceptionHandler: d.exceptionHandler,
		Logger:           d.baseLogger,
	})

	info, err := d.repository.addWorkerPool(pool, barrier)
	if err != nil {
		return nil, &RegistrationError{Op: op, Err: err}
	}
	d.repository.recordDependencies(barrierSequences, info)

	d.logger.Debug("Registered worker pool",
		telemetry.String("consumer", info.label()),
		telemetry.Int("workers", pool.Size()),
		telemetry.Int("dependencies", len(barrierSequences)))

	return newEventHandlerGroup(d, pool.WorkerSequences()), nil
}

// registerBareProcessors adds processors that bring their own barrier
func (d *Disruptor[T]) registerBareProcessors(op string, processors []core.EventProcessor) ([]*core.Sequence, error) {
	if d.started.Load() {
		return nil, &RegistrationError{Op: op, Err: ErrAlreadyStarted}
	}

	seen := make(map[*core.Sequence]bool, len(processors))
	for _, p := range processors {
		if seen[p.Sequence()] {
			return nil, &RegistrationError{Op: op, Consumer: describe(p), Err: ErrDuplicateProcessor}
		}
		seen[p.Sequence()] = true
	}
	if err := d.repository.checkNewSequences(processors); err != nil {
		return nil, &RegistrationError{Op: op, Err: err}
	}

	sequences := make([]*core.Sequence, 0, len(processors))
	for _, p := range processors {
		info, err := d.repository.addBareProcessor(p)
		if err != nil {
			return nil, &RegistrationError{Op: op, Consumer: describe(p), Err: err}
		}
		sequences = append(sequences, p.Sequence())
		d.logger.Debug("Registered processor", telemetry.String("consumer", info.label()))
	}
	return sequences, nil
}
