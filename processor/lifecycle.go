package processor

import (
	"fmt"
	"runtime"

	"github.com/creastat/disruptor/core"
)

func notifyStart[T any](handler any, exceptionHandler core.ExceptionHandler[T]) {
	if aware, ok := handler.(core.LifecycleAware); ok {
		if err := aware.OnStart(); err != nil {
			exceptionHandler.HandleOnStartException(err)
		}
	}
}

func notifyShutdown[T any](handler any, exceptionHandler core.ExceptionHandler[T]) {
	if aware, ok := handler.(core.LifecycleAware); ok {
		if err := aware.OnShutdown(); err != nil {
			exceptionHandler.HandleOnShutdownException(err)
		}
	}
}

// recoverHandlerPanic turns a handler panic into an error carrying the stack
func recoverHandlerPanic(sequence int64, err *error) {
	if r := recover(); r != nil {
		buf := make([]byte, 4096)
		n := runtime.Stack(buf, false)
		*err = fmt.Errorf("%w at sequence %d: %v\nStack trace:\n%s", ErrHandlerPanic, sequence, r, buf[:n])
	}
}
