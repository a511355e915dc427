package processor

import (
	"fmt"

	"github.com/creastat/infra/telemetry"
)

// FatalExceptionHandler logs handler failures and stops the processor that hit them
type FatalExceptionHandler[T any] struct {
	logger telemetry.Logger
}

// NewFatalExceptionHandler creates a FatalExceptionHandler
func NewFatalExceptionHandler[T any](logger telemetry.Logger) *FatalExceptionHandler[T] {
	return &FatalExceptionHandler[T]{
		logger: logger.WithModule("fatal-exception-handler"),
	}
}

func (h *FatalExceptionHandler[T]) HandleEventException(err error, sequence int64, event *T) error {
	h.logger.Error("Exception processing event", telemetry.Int("sequence", int(sequence)), telemetry.Err(err))
	return fmt.Errorf("event %d: %w", sequence, err)
}

func (h *FatalExceptionHandler[T]) HandleOnStartException(err error) {
	h.logger.Error("Exception during OnStart", telemetry.Err(err))
}

func (h *FatalExceptionHandler[T]) HandleOnShutdownException(err error) {
	h.logger.Error("Exception during OnShutdown", telemetry.Err(err))
}

// IgnoreExceptionHandler logs handler failures and lets the processor move on
type IgnoreExceptionHandler[T any] struct {
	logger telemetry.Logger
}

// NewIgnoreExceptionHandler creates an IgnoreExceptionHandler
func NewIgnoreExceptionHandler[T any](logger telemetry.Logger) *IgnoreExceptionHandler[T] {
	return &IgnoreExceptionHandler[T]{
		logger: logger.WithModule("ignore-exception-handler"),
	}
}

func (h *IgnoreExceptionHandler[T]) HandleEventException(err error, sequence int64, event *T) error {
	h.logger.Warn("Ignoring exception processing event", telemetry.Int("sequence", int(sequence)), telemetry.Err(err))
	return nil
}

func (h *IgnoreExceptionHandler[T]) HandleOnStartException(err error) {
	h.logger.Warn("Ignoring exception during OnStart", telemetry.Err(err))
}

func (h *IgnoreExceptionHandler[T]) HandleOnShutdownException(err error) {
	h.logger.Warn("Ignoring exception during OnShutdown", telemetry.Err(err))
}
