package disruptor

import (
	"fmt"

	"github.com/creastat/disruptor/core"
	"github.com/creastat/disruptor/processor"
)

// dependency is a barrier edge: consumer to waits on a sequence owned by consumer from
type dependency struct {
	from uint64
	to   uint64
}

// consumerRepository indexes every registered consumer three ways: by handler identity,
// by owned sequence and in registration order.
//
// It is mutated only from the configuring goroutine before Start and is read-only afterwards.
type consumerRepository[T any] struct {
	nextID     uint64
	byHandler  map[handlerIdentity]*consumerInfo[T]
	bySequence map[*core.Sequence]*consumerInfo[T]
	entries    []*consumerInfo[T]
	edges      []dependency
}

func newConsumerRepository[T any]() *consumerRepository[T] {
	return &consumerRepository[T]{
		byHandler:  make(map[handlerIdentity]*consumerInfo[T]),
		bySequence: make(map[*core.Sequence]*consumerInfo[T]),
	}
}

// checkHandler returns the handler's identity, failing if it is already registered
func (r *consumerRepository[T]) checkHandler(handler core.EventHandler[T]) (handlerIdentity, error) {
	id, err := identityOf(handler)
	if err != nil {
		return id, err
	}
	if _, exists := r.byHandler[id]; exists {
		return id, ErrDuplicateHandler
	}
	return id, nil
}

// checkSequences fails with ErrUnknownSequence if any sequence has no owning consumer
func (r *consumerRepository[T]) checkSequences(sequences []*core.Sequence) error {
	for _, s := range sequences {
		if _, ok := r.bySequence[s]; !ok {
			return fmt.Errorf("%w: sequence at %d", ErrUnknownSequence, s.Get())
		}
	}
	return nil
}

// checkNewSequences fails with ErrDuplicateProcessor if any processor's sequence is already owned
func (r *consumerRepository[T]) checkNewSequences(processors []core.EventProcessor) error {
	for _, p := range processors {
		if _, exists := r.bySequence[p.Sequence()]; exists {
			return fmt.Errorf("%w: %s", ErrDuplicateProcessor, describe(p))
		}
	}
	return nil
}

// addProcessor registers a processor bound to handler and waiting on barrier
func (r *consumerRepository[T]) addProcessor(p core.EventProcessor, handler core.EventHandler[T], barrier core.SequenceBarrier) (*consumerInfo[T], error) {
	id, err := r.checkHandler(handler)
	if err != nil {
		return nil, err
	}
	if _, exists := r.bySequence[p.Sequence()]; exists {
		return nil, ErrDuplicateProcessor
	}

	info := r.newInfo(KindProcessor, describe(handler), barrier)
	info.processor = p
	info.handler = handler

	r.byHandler[id] = info
	r.index(info)
	return info, nil
}

// addBareProcessor registers an externally built processor, keyed only by its sequence
func (r *consumerRepository[T]) addBareProcessor(p core.EventProcessor) (*consumerInfo[T], error) {
	if _, exists := r.bySequence[p.Sequence()]; exists {
		return nil, ErrDuplicateProcessor
	}

	info := r.newInfo(KindProcessor, describe(p), nil)
	info.processor = p

	r.index(info)
	return info, nil
}

// addWorkerPool registers a pool; each of its sequences maps to the same entry
func (r *consumerRepository[T]) addWorkerPool(pool *processor.WorkerPool[T], barrier core.SequenceBarrier) (*consumerInfo[T], error) {
	for _, s := range pool.WorkerSequences() {
		if _, exists := r.bySequence[s]; exists {
			return nil, ErrDuplicateProcessor
		}
	}

	info := r.newInfo(KindWorkerPool, fmt.Sprintf("worker-pool[%d]", pool.Size()), barrier)
	info.pool = pool

	r.index(info)
	return info, nil
}

func (r *consumerRepository[T]) newInfo(kind ConsumerKind, name string, barrier core.SequenceBarrier) *consumerInfo[T] {
	r.nextID++
	return &consumerInfo[T]{
		id:         r.nextID,
		name:       name,
		kind:       kind,
		endOfChain: true,
		barrier:    barrier,
	}
}

func (r *consumerRepository[T]) index(info *consumerInfo[T]) {
	for _, s := range info.sequences() {
		r.bySequence[s] = info
	}
	r.entries = append(r.entries, info)
}

// gatingSequences returns, in registration order, the sequences of every consumer still
// at the end of a chain. It is recomputed on every call.
func (r *consumerRepository[T]) gatingSequences() []*core.Sequence {
	var sequences []*core.Sequence
	for _, info := range r.entries {
		if info.endOfChain {
			sequences = append(sequences, info.sequences()...)
		}
	}
	return sequences
}

// markAsUsedInBarrier demotes the owners of sequences from the end of chain.
// Nothing is changed if any sequence is unknown.
func (r *consumerRepository[T]) markAsUsedInBarrier(sequences []*core.Sequence) error {
	if err := r.checkSequences(sequences); err != nil {
		return err
	}
	for _, s := range sequences {
		r.bySequence[s].endOfChain = false
	}
	return nil
}

// recordDependencies remembers that downstream waits on the owners of upstream
func (r *consumerRepository[T]) recordDependencies(upstream []*core.Sequence, downstream *consumerInfo[T]) {
	seen := make(map[uint64]bool)
	for _, s := range upstream {
		owner, ok := r.bySequence[s]
		if !ok || seen[owner.id] {
			continue
		}
		seen[owner.id] = true
		r.edges = append(r.edges, dependency{from: owner.id, to: downstream.id})
	}
}

func (r *consumerRepository[T]) infoFor(handler core.EventHandler[T]) (*consumerInfo[T], error) {
	id, err := identityOf(handler)
	if err != nil {
		return nil, err
	}
	info, ok := r.byHandler[id]
	if !ok {
		return nil, ErrUnknownHandler
	}
	return info, nil
}

// processorFor returns the processor bound to handler
func (r *consumerRepository[T]) processorFor(handler core.EventHandler[T]) (core.EventProcessor, error) {
	info, err := r.infoFor(handler)
	if err != nil {
		return nil, err
	}
	return info.processor, nil
}

// sequenceFor returns the sequence of the processor bound to handler
func (r *consumerRepository[T]) sequenceFor(handler core.EventHandler[T]) (*core.Sequence, error) {
	p, err := r.processorFor(handler)
	if err != nil {
		return nil, err
	}
	return p.Sequence(), nil
}

// barrierFor returns the barrier handler's processor waits on; nil means none was recorded
func (r *consumerRepository[T]) barrierFor(handler core.EventHandler[T]) (core.SequenceBarrier, error) {
	info, err := r.infoFor(handler)
	if err != nil {
		return nil, err
	}
	return info.barrier, nil
}

// all returns the entries in registration order
func (r *consumerRepository[T]) all() []*consumerInfo[T] {
	entries := make([]*consumerInfo[T], len(r.entries))
	copy(entries, r.entries)
	return entries
}
