package processor

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/creastat/disruptor/core"
	"github.com/creastat/infra/telemetry"
)

type testEvent struct {
	value int64
}

func newTestEvent() testEvent { return testEvent{} }

func testLogger() telemetry.Logger {
	return telemetry.New(telemetry.Config{Level: "error"})
}

// goExecutor runs tasks on plain goroutines and lets tests wait for them
type goExecutor struct {
	wg sync.WaitGroup
}

func (e *goExecutor) Execute(task func(), longRunning bool) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		task()
	}()
}

func (e *goExecutor) waitTimeout(t *testing.T, timeout time.Duration) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		t.Fatal("tasks did not finish in time")
	}
}

// recordingHandler remembers every sequence it was given
type recordingHandler struct {
	mu        sync.Mutex
	sequences []int64
	failAt    int64
	panicAt   int64
	started   int
	stopped   int
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{failAt: -1, panicAt: -1}
}

func (h *recordingHandler) OnEvent(event *testEvent, sequence int64, endOfBatch bool) error {
	if sequence == h.panicAt {
		panic("boom")
	}
	if sequence == h.failAt {
		return errors.New("handler failed")
	}
	h.mu.Lock()
	h.sequences = append(h.sequences, sequence)
	h.mu.Unlock()
	return nil
}

func (h *recordingHandler) OnStart() error {
	h.mu.Lock()
	h.started++
	h.mu.Unlock()
	return nil
}

func (h *recordingHandler) OnShutdown() error {
	h.mu.Lock()
	h.stopped++
	h.mu.Unlock()
	return nil
}

func (h *recordingHandler) seen() []int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]int64, len(h.sequences))
	copy(out, h.sequences)
	return out
}

func (h *recordingHandler) lifecycle() (int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.started, h.stopped
}

func waitForSequence(t *testing.T, s *core.Sequence, target int64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for s.Get() < target {
		if time.Now().After(deadline) {
			t.Fatalf("sequence stuck at %d, want %d", s.Get(), target)
		}
		time.Sleep(time.Millisecond)
	}
}
