package core

import (
	"math"
	"sync/atomic"
)

// SequenceBarrier is the wait condition a stage blocks on: the publisher cursor when it has
// no dependents, otherwise the minimum of the dependent sequences
type SequenceBarrier interface {
	// WaitFor blocks until sequence is available and returns the highest available sequence,
	// which may be greater than the one requested
	WaitFor(sequence int64) (int64, error)

	// Cursor returns the highest sequence currently readable through this barrier
	Cursor() int64

	// Dependents returns the upstream sequences. Empty means the barrier tracks the publisher cursor.
	Dependents() []*Sequence

	IsAlerted() bool
	Alert()
	ClearAlert()

	// CheckAlert returns ErrAlert while the barrier is alerted
	CheckAlert() error
}

// processingSequenceBarrier coordinates a stage with the publisher and its upstream stages
type processingSequenceBarrier struct {
	waitStrategy WaitStrategy
	cursor       *Sequence
	dependents   []*Sequence
	alerted      atomic.Bool
}

func newProcessingSequenceBarrier(waitStrategy WaitStrategy, cursor *Sequence, dependents []*Sequence) *processingSequenceBarrier {
	deps := make([]*Sequence, len(dependents))
	copy(deps, dependents)

	return &processingSequenceBarrier{
		waitStrategy: waitStrategy,
		cursor:       cursor,
		dependents:   deps,
	}
}

func (b *processingSequenceBarrier) WaitFor(sequence int64) (int64, error) {
	if err := b.CheckAlert(); err != nil {
		return InitialSequenceValue, err
	}

	return b.waitStrategy.WaitFor(sequence, b.cursor, b.dependents, b)
}

func (b *processingSequenceBarrier) Cursor() int64 {
	return dependentMinimum(b.cursor, b.dependents)
}

func (b *processingSequenceBarrier) Dependents() []*Sequence {
	deps := make([]*Sequence, len(b.dependents))
	copy(deps, b.dependents)
	return deps
}

func (b *processingSequenceBarrier) IsAlerted() bool {
	return b.alerted.Load()
}

func (b *processingSequenceBarrier) Alert() {
	b.alerted.Store(true)
	b.waitStrategy.SignalAllWhenBlocking()
}

func (b *processingSequenceBarrier) ClearAlert() {
	b.alerted.Store(false)
}

func (b *processingSequenceBarrier) CheckAlert() error {
	if b.alerted.Load() {
		return ErrAlert
	}
	return nil
}

// dependentMinimum is the highest sequence a barrier can release
func dependentMinimum(cursor *Sequence, dependents []*Sequence) int64 {
	if len(dependents) == 0 {
		return cursor.Get()
	}
	return MinimumSequence(dependents, math.MaxInt64)
}
