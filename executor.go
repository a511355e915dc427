package disruptor

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/creastat/infra/telemetry"
)

// GoroutineExecutor runs every task on its own goroutine. Long-running tasks are locked
// to an OS thread for their lifetime.
type GoroutineExecutor struct {
	wg     sync.WaitGroup
	active atomic.Int32
	logger telemetry.Logger
}

// NewGoroutineExecutor creates an executor that logs task panics to logger
func NewGoroutineExecutor(logger telemetry.Logger) *GoroutineExecutor {
	return &GoroutineExecutor{
		logger: logger.WithModule("executor"),
	}
}

// Execute starts task and returns immediately
func (e *GoroutineExecutor) Execute(task func(), longRunning bool) {
	e.wg.Add(1)
	e.active.Add(1)

	go func() {
		defer e.wg.Done()
		defer e.active.Add(-1)

		// Recover from panics so one consumer cannot take the process down
		defer func() {
			if r := recover(); r != nil {
				buf := make([]byte, 4096)
				n := runtime.Stack(buf, false)
				e.logger.Error("Consumer task panicked",
					telemetry.String("panic", fmt.Sprint(r)),
					telemetry.String("stack", string(buf[:n])))
			}
		}()

		if longRunning {
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()
		}

		task()
	}()
}

// Wait blocks until every task has returned
func (e *GoroutineExecutor) Wait() {
	e.wg.Wait()
}

// Active returns the number of tasks still running
func (e *GoroutineExecutor) Active() int {
	return int(e.active.Load())
}
