package core

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestSequenceStartsAtInitialValue(t *testing.T) {
	s := NewSequence(InitialSequenceValue)
	assert.Equal(t, int64(-1), s.Get())
	assert.Equal(t, "-1", s.String())
}

func TestSequenceCompareAndSet(t *testing.T) {
	s := NewSequence(5)

	assert.False(t, s.CompareAndSet(4, 10))
	assert.Equal(t, int64(5), s.Get())

	assert.True(t, s.CompareAndSet(5, 10))
	assert.Equal(t, int64(10), s.Get())
}

func TestSequenceConcurrentIncrement(t *testing.T) {
	s := NewSequence(0)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				s.IncrementAndGet()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(8000), s.Get())
	assert.Equal(t, int64(8005), s.AddAndGet(5))
}

func TestMinimumSequenceEmptyReturnsCeiling(t *testing.T) {
	assert.Equal(t, int64(42), MinimumSequence(nil, 42))
}

// For any set of sequences, MinimumSequence returns the smallest value no greater than the ceiling
func TestPropertyMinimumSequence(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		values := rapid.SliceOfN(rapid.Int64Range(-1, 1<<40), 0, 16).Draw(rt, "values")
		ceiling := rapid.Int64Range(-1, math.MaxInt64).Draw(rt, "ceiling")

		sequences := make([]*Sequence, len(values))
		expected := ceiling
		for i, v := range values {
			sequences[i] = NewSequence(v)
			if v < expected {
				expected = v
			}
		}

		got := MinimumSequence(sequences, ceiling)
		if got != expected {
			rt.Fatalf("MinimumSequence(%v, %d) = %d, want %d", values, ceiling, got, expected)
		}
	})
}
