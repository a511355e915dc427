package core

import (
	"math"
	"strconv"
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// InitialSequenceValue is the value every sequence starts from, one before the first slot
const InitialSequenceValue int64 = -1

// Sequence is a padded, atomically updated position in the ring buffer.
// Two sequences are distinct even when they hold the same value.
type Sequence struct {
	_     cpu.CacheLinePad
	value atomic.Int64
	_     cpu.CacheLinePad
}

// NewSequence creates a sequence holding the given initial value
func NewSequence(initial int64) *Sequence {
	s := &Sequence{}
	s.value.Store(initial)
	return s
}

// Get returns the current value with acquire semantics
func (s *Sequence) Get() int64 {
	return s.value.Load()
}

// Set stores a value with release semantics
func (s *Sequence) Set(value int64) {
	s.value.Store(value)
}

// CompareAndSet swaps the value only if it still equals expected
func (s *Sequence) CompareAndSet(expected, value int64) bool {
	return s.value.CompareAndSwap(expected, value)
}

// IncrementAndGet adds one and returns the new value
func (s *Sequence) IncrementAndGet() int64 {
	return s.value.Add(1)
}

// AddAndGet adds delta and returns the new value
func (s *Sequence) AddAndGet(delta int64) int64 {
	return s.value.Add(delta)
}

func (s *Sequence) String() string {
	return strconv.FormatInt(s.Get(), 10)
}

// MinimumSequence returns the smallest value among sequences and ceiling.
// With no sequences the ceiling is returned. Repeated sequences do not change the result.
func MinimumSequence(sequences []*Sequence, ceiling int64) int64 {
	minimum := int64(math.MaxInt64)
	for _, s := range sequences {
		if v := s.Get(); v < minimum {
			minimum = v
		}
	}
	if ceiling < minimum {
		return ceiling
	}
	return minimum
}
