package core

import (
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Alerter reports whether a waiting consumer should give up
type Alerter interface {
	CheckAlert() error
}

// WaitStrategy parks a consumer until a sequence becomes available
type WaitStrategy interface {
	// WaitFor returns the highest available sequence once it is at least sequence,
	// or ErrAlert (from alerter) if the wait was interrupted
	WaitFor(sequence int64, cursor *Sequence, dependents []*Sequence, alerter Alerter) (int64, error)

	// SignalAllWhenBlocking wakes consumers parked by the strategy
	SignalAllWhenBlocking()
}

// WaitStrategyName identifies a wait strategy in configuration
type WaitStrategyName string

const (
	WaitStrategyBlocking WaitStrategyName = "blocking"
	WaitStrategyBusySpin WaitStrategyName = "busy-spin"
	WaitStrategyYielding WaitStrategyName = "yielding"
	WaitStrategySleeping WaitStrategyName = "sleeping"
)

// ParseWaitStrategy builds the wait strategy registered under name
func ParseWaitStrategy(name string) (WaitStrategy, error) {
	switch WaitStrategyName(strings.ToLower(strings.TrimSpace(name))) {
	case WaitStrategyBlocking:
		return NewBlockingWaitStrategy(), nil
	case WaitStrategyBusySpin:
		return BusySpinWaitStrategy{}, nil
	case WaitStrategyYielding:
		return NewYieldingWaitStrategy(), nil
	case WaitStrategySleeping:
		return NewSleepingWaitStrategy(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownWaitStrategy, name)
	}
}

// BusySpinWaitStrategy spins without yielding. Use only when consumers have dedicated cores.
type BusySpinWaitStrategy struct{}

func (BusySpinWaitStrategy) WaitFor(sequence int64, cursor *Sequence, dependents []*Sequence, alerter Alerter) (int64, error) {
	for {
		available := dependentMinimum(cursor, dependents)
		if available >= sequence {
			return available, nil
		}
		if err := alerter.CheckAlert(); err != nil {
			return available, err
		}
	}
}

func (BusySpinWaitStrategy) SignalAllWhenBlocking() {}

// YieldingWaitStrategy spins for a budget of tries, then yields the processor between checks
type YieldingWaitStrategy struct {
	SpinTries int
}

// NewYieldingWaitStrategy creates a yielding strategy with the default spin budget
func NewYieldingWaitStrategy() *YieldingWaitStrategy {
	return &YieldingWaitStrategy{SpinTries: 100}
}

func (w *YieldingWaitStrategy) WaitFor(sequence int64, cursor *Sequence, dependents []*Sequence, alerter Alerter) (int64, error) {
	counter := w.SpinTries
	for {
		available := dependentMinimum(cursor, dependents)
		if available >= sequence {
			return available, nil
		}
		if err := alerter.CheckAlert(); err != nil {
			return available, err
		}
		if counter == 0 {
			runtime.Gosched()
		} else {
			counter--
		}
	}
}

func (w *YieldingWaitStrategy) SignalAllWhenBlocking() {}

// SleepingWaitStrategy spins, then yields, then sleeps between checks
type SleepingWaitStrategy struct {
	Retries int
	Sleep   time.Duration
}

// NewSleepingWaitStrategy creates a sleeping strategy with 200 retries and 100ns sleeps
func NewSleepingWaitStrategy() *SleepingWaitStrategy {
	return &SleepingWaitStrategy{Retries: 200, Sleep: 100 * time.Nanosecond}
}

func (w *SleepingWaitStrategy) WaitFor(sequence int64, cursor *Sequence, dependents []*Sequence, alerter Alerter) (int64, error) {
	counter := w.Retries
	for {
		available := dependentMinimum(cursor, dependents)
		if available >= sequence {
			return available, nil
		}
		if err := alerter.CheckAlert(); err != nil {
			return available, err
		}
		switch {
		case counter > 100:
			counter--
		case counter > 0:
			counter--
			runtime.Gosched()
		default:
			time.Sleep(w.Sleep)
		}
	}
}

func (w *SleepingWaitStrategy) SignalAllWhenBlocking() {}

// BlockingWaitStrategy parks consumers on a condition variable until the publisher
// signals, then spins on the dependents.
type BlockingWaitStrategy struct {
	mu   sync.Mutex
	cond *sync.Cond
}

// NewBlockingWaitStrategy creates a blocking strategy
func NewBlockingWaitStrategy() *BlockingWaitStrategy {
	w := &BlockingWaitStrategy{}
	w.cond = sync.NewCond(&w.mu)
	return w
}

func (w *BlockingWaitStrategy) WaitFor(sequence int64, cursor *Sequence, dependents []*Sequence, alerter Alerter) (int64, error) {
	if cursor.Get() < sequence {
		w.mu.Lock()
		for cursor.Get() < sequence {
			if err := alerter.CheckAlert(); err != nil {
				w.mu.Unlock()
				return cursor.Get(), err
			}
			w.cond.Wait()
		}
		w.mu.Unlock()
	}

	for {
		available := dependentMinimum(cursor, dependents)
		if available >= sequence {
			return available, nil
		}
		if err := alerter.CheckAlert(); err != nil {
			return available, err
		}
		runtime.Gosched()
	}
}

func (w *BlockingWaitStrategy) SignalAllWhenBlocking() {
	w.mu.Lock()
	w.cond.Broadcast()
	w.mu.Unlock()
}
