package processor

import (
	"sync"
	"testing"
	"time"

	"github.com/creastat/disruptor/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// countingWorker records which sequences it claimed
type countingWorker struct {
	mu     sync.Mutex
	values []int64
}

func (w *countingWorker) OnEvent(event *testEvent) error {
	w.mu.Lock()
	w.values = append(w.values, event.value)
	w.mu.Unlock()
	return nil
}

func (w *countingWorker) seen() []int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]int64, len(w.values))
	copy(out, w.values)
	return out
}

func newPool(t require.TestingT, workers ...core.WorkHandler[testEvent]) (*core.RingBuffer[testEvent], *WorkerPool[testEvent]) {
	rb, err := core.NewRingBuffer(newTestEvent, 16, core.NewBlockingWaitStrategy())
	require.NoError(t, err)

	pool := NewWorkerPool(WorkerPoolConfig[testEvent]{
		RingBuffer: rb,
		Barrier:    rb.NewBarrier(),
		Handlers:   workers,
		Logger:     testLogger(),
	})
	rb.SetGatingSequences(pool.WorkerSequences()...)
	return rb, pool
}

func TestWorkerPoolSequences(t *testing.T) {
	_, pool := newPool(t, &countingWorker{}, &countingWorker{})

	sequences := pool.WorkerSequences()
	assert.Len(t, sequences, 3, "one per worker plus the shared work sequence")
	assert.Equal(t, 2, pool.Size())
	assert.False(t, pool.IsRunning())
}

func TestWorkerPoolDeliversEachEventOnce(t *testing.T) {
	w1, w2 := &countingWorker{}, &countingWorker{}
	rb, pool := newPool(t, w1, w2)

	exec := &goExecutor{}
	require.NoError(t, pool.Start(exec))
	require.Eventually(t, pool.IsRunning, time.Second, time.Millisecond)
	assert.ErrorIs(t, pool.Start(exec), ErrAlreadyRunning)

	for i := 0; i < 10; i++ {
		rb.PublishEvent(func(event *testEvent, sequence int64) { event.value = sequence })
	}

	pool.DrainAndHalt()
	exec.waitTimeout(t, 2*time.Second)

	all := append(w1.seen(), w2.seen()...)
	assert.ElementsMatch(t, []int64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, all)
	assert.False(t, pool.IsRunning())
}

// stallingWorker holds its first event until released
type stallingWorker struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (w *stallingWorker) OnEvent(event *testEvent) error {
	w.once.Do(func() {
		close(w.entered)
		<-w.release
	})
	return nil
}

func TestWorkerPoolRunningUntilWorkersReturn(t *testing.T) {
	worker := &stallingWorker{entered: make(chan struct{}), release: make(chan struct{})}
	rb, pool := newPool(t, worker)

	exec := &goExecutor{}
	require.NoError(t, pool.Start(exec))
	rb.PublishEvent(func(event *testEvent, sequence int64) {})

	select {
	case <-worker.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("worker never received the event")
	}

	pool.Halt()
	assert.True(t, pool.IsRunning(), "a halted pool still draining reports running")

	close(worker.release)
	exec.waitTimeout(t, 2*time.Second)
	assert.False(t, pool.IsRunning())
	assert.ErrorIs(t, pool.Start(exec), ErrAlreadyRunning)
}

// For any number of workers and events, every published event is handled by exactly one worker
func TestPropertyWorkerPoolExactlyOnce(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		workerCount := rapid.IntRange(1, 4).Draw(rt, "workers")
		events := rapid.IntRange(0, 64).Draw(rt, "events")

		workers := make([]*countingWorker, workerCount)
		handlers := make([]core.WorkHandler[testEvent], workerCount)
		for i := range workers {
			workers[i] = &countingWorker{}
			handlers[i] = workers[i]
		}
		rb, pool := newPool(rt, handlers...)

		exec := &goExecutor{}
		if err := pool.Start(exec); err != nil {
			rt.Fatalf("start: %v", err)
		}
		for i := 0; i < events; i++ {
			rb.PublishEvent(func(event *testEvent, sequence int64) { event.value = sequence })
		}
		pool.DrainAndHalt()
		exec.wg.Wait()

		counts := make(map[int64]int)
		for _, w := range workers {
			for _, v := range w.seen() {
				counts[v]++
			}
		}
		if len(counts) != events {
			rt.Fatalf("handled %d distinct events, want %d", len(counts), events)
		}
		for v, n := range counts {
			if n != 1 {
				rt.Fatalf("event %d handled %d times", v, n)
			}
		}
	})
}
