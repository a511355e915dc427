package disruptor

import (
	"fmt"

	"github.com/creastat/disruptor/core"
)

// ExceptionHandlerSetting overrides the exception handler of one handler's processor
type ExceptionHandlerSetting[T any] struct {
	handler    core.EventHandler[T]
	repository *consumerRepository[T]
}

type exceptionHandlerSetter[T any] interface {
	SetExceptionHandler(core.ExceptionHandler[T])
}

// With installs exceptionHandler on the handler's processor. Call it before Start.
func (s *ExceptionHandlerSetting[T]) With(exceptionHandler core.ExceptionHandler[T]) error {
	const op = "handle exceptions for"

	p, err := s.repository.processorFor(s.handler)
	if err != nil {
		return &RegistrationError{Op: op, Consumer: describe(s.handler), Err: err}
	}

	setter, ok := p.(exceptionHandlerSetter[T])
	if !ok {
		return &RegistrationError{Op: op, Consumer: describe(s.handler), Err: fmt.Errorf("processor %T does not accept an exception handler", p)}
	}
	setter.SetExceptionHandler(exceptionHandler)
	return nil
}
