package disruptor

import (
	"fmt"

	"github.com/creastat/disruptor/core"
	"github.com/creastat/disruptor/processor"
	"github.com/creastat/infra/telemetry"
)

// ConsumerKind distinguishes the two kinds of registered consumer
type ConsumerKind int

const (
	// KindProcessor is a single EventProcessor, optionally bound to an EventHandler
	KindProcessor ConsumerKind = iota

	// KindWorkerPool is a pool of workers sharing one barrier
	KindWorkerPool
)

func (k ConsumerKind) String() string {
	switch k {
	case KindProcessor:
		return "processor"
	case KindWorkerPool:
		return "worker-pool"
	default:
		return "unknown"
	}
}

// consumerInfo is the registry entry for one consumer. Fields used depend on kind:
// KindProcessor uses processor (and handler/barrier unless registered bare),
// KindWorkerPool uses pool and barrier.
type consumerInfo[T any] struct {
	id         uint64
	name       string
	kind       ConsumerKind
	endOfChain bool
	barrier    core.SequenceBarrier

	processor core.EventProcessor
	handler   core.EventHandler[T]

	pool *processor.WorkerPool[T]
}

// sequences returns the sequences this consumer owns
func (c *consumerInfo[T]) sequences() []*core.Sequence {
	switch c.kind {
	case KindProcessor:
		return []*core.Sequence{c.processor.Sequence()}
	case KindWorkerPool:
		return c.pool.WorkerSequences()
	default:
		panic(fmt.Sprintf("disruptor: unknown consumer kind %d", c.kind))
	}
}

func (c *consumerInfo[T]) start(executor core.Executor, logger telemetry.Logger) error {
	switch c.kind {
	case KindProcessor:
		p := c.processor
		executor.Execute(func() {
			if err := p.Run(); err != nil {
				logger.Error("Consumer stopped with error", telemetry.String("consumer", c.name), telemetry.Err(err))
			}
		}, true)
		return nil
	case KindWorkerPool:
		return c.pool.Start(executor)
	default:
		panic(fmt.Sprintf("disruptor: unknown consumer kind %d", c.kind))
	}
}

func (c *consumerInfo[T]) halt() {
	switch c.kind {
	case KindProcessor:
		c.processor.Halt()
	case KindWorkerPool:
		c.pool.Halt()
	default:
		panic(fmt.Sprintf("disruptor: unknown consumer kind %d", c.kind))
	}
}

func (c *consumerInfo[T]) isRunning() bool {
	switch c.kind {
	case KindProcessor:
		return c.processor.IsRunning()
	case KindWorkerPool:
		return c.pool.IsRunning()
	default:
		panic(fmt.Sprintf("disruptor: unknown consumer kind %d", c.kind))
	}
}

// label is the unique name used in metrics and topology snapshots
func (c *consumerInfo[T]) label() string {
	return fmt.Sprintf("%s#%d", c.name, c.id)
}
