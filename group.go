package disruptor

import (
	"github.com/creastat/disruptor/core"
)

// EventHandlerGroup is the set of sequences produced by one or more registered consumers.
// It is immutable: combinators return new groups and never change the receiver.
//
// Chaining builds the dependency graph:
//
//	a, _ := d.HandleEventsWith(journal, replicate)
//	b, _ := a.Then(apply)              // apply waits for journal and replicate
//	_, _ = b.And(other).Then(publish)  // publish waits for apply and other
type EventHandlerGroup[T any] struct {
	disruptor *Disruptor[T]
	sequences []*core.Sequence
}

func newEventHandlerGroup[T any](d *Disruptor[T], sequences []*core.Sequence) *EventHandlerGroup[T] {
	return &EventHandlerGroup[T]{
		disruptor: d,
		sequences: sequences,
	}
}

// And combines this group with other: this group's sequences followed by other's.
// Duplicates are kept.
func (g *EventHandlerGroup[T]) And(other *EventHandlerGroup[T]) *EventHandlerGroup[T] {
	combined := make([]*core.Sequence, 0, len(g.sequences)+len(other.sequences))
	combined = append(combined, g.sequences...)
	combined = append(combined, other.sequences...)
	return newEventHandlerGroup(g.disruptor, combined)
}

// AndProcessors registers processors that bring their own barrier and adds their
// sequences, ahead of this group's, to a new group
func (g *EventHandlerGroup[T]) AndProcessors(processors ...core.EventProcessor) (*EventHandlerGroup[T], error) {
	added, err := g.disruptor.registerBareProcessors("and processors", processors)
	if err != nil {
		return nil, err
	}

	combined := make([]*core.Sequence, 0, len(added)+len(g.sequences))
	combined = append(combined, added...)
	combined = append(combined, g.sequences...)
	return newEventHandlerGroup(g.disruptor, combined), nil
}

// Then adds a stage of handlers that wait for every consumer in this group
func (g *EventHandlerGroup[T]) Then(handlers ...core.EventHandler[T]) (*EventHandlerGroup[T], error) {
	return g.HandleEventsWith(handlers...)
}

// ThenHandleEventsWithWorkerPool adds a worker pool stage that waits for this group
func (g *EventHandlerGroup[T]) ThenHandleEventsWithWorkerPool(workHandlers ...core.WorkHandler[T]) (*EventHandlerGroup[T], error) {
	return g.HandleEventsWithWorkerPool(workHandlers...)
}

// HandleEventsWith is Then
func (g *EventHandlerGroup[T]) HandleEventsWith(handlers ...core.EventHandler[T]) (*EventHandlerGroup[T], error) {
	return g.disruptor.createEventProcessors(g.Sequences(), handlers)
}

// HandleEventsWithWorkerPool is ThenHandleEventsWithWorkerPool
func (g *EventHandlerGroup[T]) HandleEventsWithWorkerPool(workHandlers ...core.WorkHandler[T]) (*EventHandlerGroup[T], error) {
	return g.disruptor.createWorkerPool(g.Sequences(), workHandlers)
}

// AsSequenceBarrier creates a barrier over this group without registering a consumer,
// for custom processors that need to wait on it
func (g *EventHandlerGroup[T]) AsSequenceBarrier() core.SequenceBarrier {
	return g.disruptor.ringBuffer.NewBarrier(g.sequences...)
}

// Sequences returns a copy of the group's sequences in enumeration order
func (g *EventHandlerGroup[T]) Sequences() []*core.Sequence {
	sequences := make([]*core.Sequence, len(g.sequences))
	copy(sequences, g.sequences)
	return sequences
}
