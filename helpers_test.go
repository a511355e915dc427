package disruptor

import (
	"sync"
	"testing"
	"time"

	"github.com/creastat/infra/telemetry"
	"github.com/stretchr/testify/require"
)

type testEvent struct {
	value int64
}

func newTestEvent() testEvent { return testEvent{} }

func testLogger() telemetry.Logger {
	return telemetry.New(telemetry.Config{Level: "error"})
}

// stubHandler records every sequence it sees
type stubHandler struct {
	name string

	mu   sync.Mutex
	seen []int64
}

func newStubHandler(name string) *stubHandler {
	return &stubHandler{name: name}
}

func (h *stubHandler) Name() string { return h.name }

func (h *stubHandler) OnEvent(event *testEvent, sequence int64, endOfBatch bool) error {
	h.mu.Lock()
	h.seen = append(h.seen, sequence)
	h.mu.Unlock()
	return nil
}

func (h *stubHandler) sequences() []int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]int64, len(h.seen))
	copy(out, h.seen)
	return out
}

// stubWorker records the values of the events it claimed
type stubWorker struct {
	mu     sync.Mutex
	values []int64
}

func (w *stubWorker) OnEvent(event *testEvent) error {
	w.mu.Lock()
	w.values = append(w.values, event.value)
	w.mu.Unlock()
	return nil
}

func (w *stubWorker) claimed() []int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]int64, len(w.values))
	copy(out, w.values)
	return out
}

func newTestDisruptor(t *testing.T, bufferSize int) (*Disruptor[testEvent], *GoroutineExecutor) {
	t.Helper()
	logger := testLogger()
	executor := NewGoroutineExecutor(logger)

	d, err := New(newTestEvent, bufferSize, WithLogger(logger), WithExecutor(executor))
	require.NoError(t, err)
	return d, executor
}

// stopAndWait halts d and waits for every consumer goroutine to return
func stopAndWait(t *testing.T, d *Disruptor[testEvent], executor *GoroutineExecutor) {
	t.Helper()
	d.Halt()

	done := make(chan struct{})
	go func() {
		executor.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("%d consumers still running after Halt", executor.Active())
	}
}
