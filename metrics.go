package disruptor

import (
	"math"

	"github.com/creastat/disruptor/core"
	"github.com/prometheus/client_golang/prometheus"
)

// collector exports ring buffer and per-consumer progress as Prometheus gauges
type collector[T any] struct {
	disruptor *Disruptor[T]

	cursor           *prometheus.Desc
	remaining        *prometheus.Desc
	consumerSequence *prometheus.Desc
	consumerLag      *prometheus.Desc
	endOfChain       *prometheus.Desc
}

// Collector returns a Prometheus collector for this disruptor. Per-consumer series are
// reported once the disruptor has started.
func (d *Disruptor[T]) Collector() prometheus.Collector {
	return &collector[T]{
		disruptor: d,
		cursor: prometheus.NewDesc(
			"disruptor_cursor",
			"Highest published sequence",
			nil, nil,
		),
		remaining: prometheus.NewDesc(
			"disruptor_remaining_capacity",
			"Slots that can be claimed without waiting on consumers",
			nil, nil,
		),
		consumerSequence: prometheus.NewDesc(
			"disruptor_consumer_sequence",
			"Slowest sequence owned by the consumer",
			[]string{"consumer", "kind"}, nil,
		),
		consumerLag: prometheus.NewDesc(
			"disruptor_consumer_lag",
			"Published events the consumer has not yet processed",
			[]string{"consumer", "kind"}, nil,
		),
		endOfChain: prometheus.NewDesc(
			"disruptor_consumer_end_of_chain",
			"1 if the consumer gates the ring buffer",
			[]string{"consumer", "kind"}, nil,
		),
	}
}

func (c *collector[T]) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.cursor
	ch <- c.remaining
	ch <- c.consumerSequence
	ch <- c.consumerLag
	ch <- c.endOfChain
}

func (c *collector[T]) Collect(ch chan<- prometheus.Metric) {
	ringBuffer := c.disruptor.ringBuffer
	cursor := ringBuffer.Cursor()

	ch <- prometheus.MustNewConstMetric(c.cursor, prometheus.GaugeValue, float64(cursor))
	ch <- prometheus.MustNewConstMetric(c.remaining, prometheus.GaugeValue, float64(ringBuffer.RemainingCapacity()))

	// The repository is only safe to read concurrently once Start has published it
	if !c.disruptor.started.Load() {
		return
	}

	for _, info := range c.disruptor.repository.all() {
		label, kind := info.label(), info.kind.String()
		sequence := core.MinimumSequence(info.sequences(), math.MaxInt64)

		lag := cursor - sequence
		if lag < 0 {
			lag = 0
		}
		chained := 0.0
		if info.endOfChain {
			chained = 1
		}

		ch <- prometheus.MustNewConstMetric(c.consumerSequence, prometheus.GaugeValue, float64(sequence), label, kind)
		ch <- prometheus.MustNewConstMetric(c.consumerLag, prometheus.GaugeValue, float64(lag), label, kind)
		ch <- prometheus.MustNewConstMetric(c.endOfChain, prometheus.GaugeValue, chained, label, kind)
	}
}
