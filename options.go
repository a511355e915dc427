package disruptor

import (
	"github.com/creastat/disruptor/core"
	"github.com/creastat/infra/telemetry"
)

type settings struct {
	waitStrategy core.WaitStrategy
	executor     core.Executor
	logger       telemetry.Logger
	hasLogger    bool
	logLevel     string
}

// Option customizes a Disruptor
type Option func(*settings)

// WithWaitStrategy sets the strategy every barrier of the ring buffer uses. Defaults to blocking.
func WithWaitStrategy(waitStrategy core.WaitStrategy) Option {
	return func(s *settings) {
		s.waitStrategy = waitStrategy
	}
}

// WithExecutor sets the scheduler consumers run on. Defaults to a GoroutineExecutor.
func WithExecutor(executor core.Executor) Option {
	return func(s *settings) {
		s.executor = executor
	}
}

// WithLogger sets the logger. Takes precedence over WithLogLevel.
func WithLogger(logger telemetry.Logger) Option {
	return func(s *settings) {
		s.logger = logger
		s.hasLogger = true
	}
}

// WithLogLevel sets the level of the logger built when WithLogger is not given
func WithLogLevel(level string) Option {
	return func(s *settings) {
		s.logLevel = level
	}
}
