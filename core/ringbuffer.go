package core

import (
	"fmt"
	"runtime"
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// RingBuffer is a pre-allocated circular buffer with a single-producer sequencer.
//
// Next, NextN, TryNext, Publish and PublishEvent must only be called from one goroutine.
// The buffer never claims a slot until every gating sequence has passed the slot's
// previous occupant.
type RingBuffer[T any] struct {
	entries      []T
	indexMask    int64
	bufferSize   int64
	waitStrategy WaitStrategy
	cursor       *Sequence
	gating       atomic.Pointer[[]*Sequence]

	_ cpu.CacheLinePad

	// producer-local claim state
	nextValue   int64
	cachedValue int64

	_ cpu.CacheLinePad
}

// NewRingBuffer creates a ring buffer of bufferSize slots, each filled by factory.
// A nil factory leaves slots at their zero value.
func NewRingBuffer[T any](factory func() T, bufferSize int, waitStrategy WaitStrategy) (*RingBuffer[T], error) {
	if bufferSize < 1 || bufferSize&(bufferSize-1) != 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBufferSize, bufferSize)
	}
	if waitStrategy == nil {
		waitStrategy = NewBlockingWaitStrategy()
	}

	entries := make([]T, bufferSize)
	if factory != nil {
		for i := range entries {
			entries[i] = factory()
		}
	}

	return &RingBuffer[T]{
		entries:      entries,
		indexMask:    int64(bufferSize - 1),
		bufferSize:   int64(bufferSize),
		waitStrategy: waitStrategy,
		cursor:       NewSequence(InitialSequenceValue),
		nextValue:    InitialSequenceValue,
		cachedValue:  InitialSequenceValue,
	}, nil
}

// Get returns the slot for sequence
func (r *RingBuffer[T]) Get(sequence int64) *T {
	return &r.entries[sequence&r.indexMask]
}

// BufferSize returns the number of slots
func (r *RingBuffer[T]) BufferSize() int {
	return int(r.bufferSize)
}

// Cursor returns the highest published sequence
func (r *RingBuffer[T]) Cursor() int64 {
	return r.cursor.Get()
}

// WaitStrategy returns the strategy shared by every barrier of this buffer
func (r *RingBuffer[T]) WaitStrategy() WaitStrategy {
	return r.waitStrategy
}

// NewBarrier creates a barrier over the given upstream sequences. With none it tracks
// the publisher cursor.
func (r *RingBuffer[T]) NewBarrier(sequencesToTrack ...*Sequence) SequenceBarrier {
	return newProcessingSequenceBarrier(r.waitStrategy, r.cursor, sequencesToTrack)
}

// SetGatingSequences replaces the set of sequences the producer must not lap
func (r *RingBuffer[T]) SetGatingSequences(sequences ...*Sequence) {
	gating := make([]*Sequence, len(sequences))
	copy(gating, sequences)
	r.gating.Store(&gating)
}

// GatingSequences returns a copy of the current gating set
func (r *RingBuffer[T]) GatingSequences() []*Sequence {
	current := r.gatingSequences()
	gating := make([]*Sequence, len(current))
	copy(gating, current)
	return gating
}

// MinimumGatingSequence returns the slowest gating position, or the cursor with no gates
func (r *RingBuffer[T]) MinimumGatingSequence() int64 {
	return MinimumSequence(r.gatingSequences(), r.cursor.Get())
}

// RemainingCapacity returns how many slots can be claimed without waiting on consumers
func (r *RingBuffer[T]) RemainingCapacity() int64 {
	produced := r.cursor.Get()
	consumed := MinimumSequence(r.gatingSequences(), produced)
	return r.bufferSize - (produced - consumed)
}

// Next claims the next slot, waiting for the slowest gating sequence if the buffer is full
func (r *RingBuffer[T]) Next() int64 {
	next, _ := r.NextN(1)
	return next
}

// NextN claims n slots and returns the highest claimed sequence
func (r *RingBuffer[T]) NextN(n int) (int64, error) {
	if n < 1 || int64(n) > r.bufferSize {
		return InitialSequenceValue, fmt.Errorf("%w: %d", ErrInvalidClaim, n)
	}

	next := r.nextValue + int64(n)
	wrapPoint := next - r.bufferSize
	cached := r.cachedValue

	if wrapPoint > cached || cached > r.nextValue {
		var minimum int64
		for {
			minimum = MinimumSequence(r.gatingSequences(), r.nextValue)
			if wrapPoint <= minimum {
				break
			}
			runtime.Gosched()
		}
		r.cachedValue = minimum
	}

	r.nextValue = next
	return next, nil
}

// TryNext claims the next slot or fails with ErrInsufficientCapacity instead of waiting
func (r *RingBuffer[T]) TryNext() (int64, error) {
	if !r.hasAvailableCapacity(1) {
		return InitialSequenceValue, ErrInsufficientCapacity
	}
	r.nextValue++
	return r.nextValue, nil
}

// Publish makes sequence visible to consumers
func (r *RingBuffer[T]) Publish(sequence int64) {
	r.cursor.Set(sequence)
	r.waitStrategy.SignalAllWhenBlocking()
}

// PublishEvent claims a slot, lets translate fill it in place and publishes it
func (r *RingBuffer[T]) PublishEvent(translate func(event *T, sequence int64)) {
	sequence := r.Next()
	translate(r.Get(sequence), sequence)
	r.Publish(sequence)
}

func (r *RingBuffer[T]) hasAvailableCapacity(required int64) bool {
	wrapPoint := r.nextValue + required - r.bufferSize
	cached := r.cachedValue

	if wrapPoint > cached || cached > r.nextValue {
		minimum := MinimumSequence(r.gatingSequences(), r.nextValue)
		r.cachedValue = minimum
		if wrapPoint > minimum {
			return false
		}
	}
	return true
}

func (r *RingBuffer[T]) gatingSequences() []*Sequence {
	if p := r.gating.Load(); p != nil {
		return *p
	}
	return nil
}
