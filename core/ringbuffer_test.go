package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type slot struct {
	value int64
}

func newSlot() slot { return slot{} }

func TestNewRingBufferRejectsInvalidSizes(t *testing.T) {
	for _, size := range []int{0, -4, 3, 6, 1000} {
		_, err := NewRingBuffer(newSlot, size, nil)
		assert.ErrorIs(t, err, ErrInvalidBufferSize, "size %d", size)
	}

	rb, err := NewRingBuffer(newSlot, 8, nil)
	require.NoError(t, err)
	assert.Equal(t, 8, rb.BufferSize())
	assert.IsType(t, &BlockingWaitStrategy{}, rb.WaitStrategy())
}

func TestRingBufferPublishAdvancesCursor(t *testing.T) {
	rb, err := NewRingBuffer(newSlot, 4, BusySpinWaitStrategy{})
	require.NoError(t, err)
	assert.Equal(t, InitialSequenceValue, rb.Cursor())

	for i := int64(0); i < 3; i++ {
		rb.PublishEvent(func(event *slot, sequence int64) {
			event.value = sequence * 10
		})
	}

	assert.Equal(t, int64(2), rb.Cursor())
	assert.Equal(t, int64(20), rb.Get(2).value)
	assert.Same(t, rb.Get(1), rb.Get(5), "sequences one lap apart share a slot")
}

func TestRingBufferNextNValidatesClaimSize(t *testing.T) {
	rb, err := NewRingBuffer(newSlot, 4, nil)
	require.NoError(t, err)

	_, err = rb.NextN(0)
	assert.ErrorIs(t, err, ErrInvalidClaim)
	_, err = rb.NextN(5)
	assert.ErrorIs(t, err, ErrInvalidClaim)

	hi, err := rb.NextN(3)
	require.NoError(t, err)
	assert.Equal(t, int64(2), hi)
}

func TestRingBufferGatingPreventsWrap(t *testing.T) {
	rb, err := NewRingBuffer(newSlot, 4, BusySpinWaitStrategy{})
	require.NoError(t, err)

	consumer := NewSequence(InitialSequenceValue)
	rb.SetGatingSequences(consumer)

	for i := 0; i < 4; i++ {
		seq, err := rb.TryNext()
		require.NoError(t, err)
		rb.Publish(seq)
	}
	assert.Equal(t, int64(0), rb.RemainingCapacity())

	_, err = rb.TryNext()
	assert.ErrorIs(t, err, ErrInsufficientCapacity)

	consumer.Set(1)
	assert.Equal(t, int64(2), rb.RemainingCapacity())

	seq, err := rb.TryNext()
	require.NoError(t, err)
	assert.Equal(t, int64(4), seq)
}

func TestRingBufferNextWaitsForSlowestGate(t *testing.T) {
	rb, err := NewRingBuffer(newSlot, 2, BusySpinWaitStrategy{})
	require.NoError(t, err)

	fast := NewSequence(InitialSequenceValue)
	slow := NewSequence(InitialSequenceValue)
	rb.SetGatingSequences(fast, slow)

	rb.Publish(rb.Next())
	rb.Publish(rb.Next())
	fast.Set(1)

	claimed := make(chan int64, 1)
	go func() {
		claimed <- rb.Next()
	}()

	select {
	case seq := <-claimed:
		t.Fatalf("claimed %d while the slow gate was a lap behind", seq)
	case <-time.After(50 * time.Millisecond):
	}

	slow.Set(0)

	select {
	case seq := <-claimed:
		assert.Equal(t, int64(2), seq)
	case <-time.After(2 * time.Second):
		t.Fatal("Next did not return after the slow gate advanced")
	}
}

func TestRingBufferGatingSequencesIsACopy(t *testing.T) {
	rb, err := NewRingBuffer(newSlot, 4, nil)
	require.NoError(t, err)
	assert.Empty(t, rb.GatingSequences())

	a, b := NewSequence(3), NewSequence(1)
	rb.SetGatingSequences(a, b)

	gating := rb.GatingSequences()
	require.Len(t, gating, 2)
	gating[0] = nil
	assert.Same(t, a, rb.GatingSequences()[0])
	assert.Equal(t, int64(-1), rb.MinimumGatingSequence(), "minimum is capped by the cursor")
}
