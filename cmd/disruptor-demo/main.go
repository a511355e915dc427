package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/creastat/disruptor"
	"github.com/creastat/infra/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Trade is the event flowing through the demo pipeline
type Trade struct {
	ID       int64
	Price    float64
	Quantity int64
	Notional float64
}

// journaler counts every trade it sees
type journaler struct {
	name    string
	written atomic.Int64
}

func (j *journaler) Name() string { return j.name }

func (j *journaler) OnEvent(event *Trade, sequence int64, endOfBatch bool) error {
	j.written.Add(1)
	return nil
}

// pricer computes the notional once every journaler has seen the trade
type pricer struct {
	total atomic.Int64
}

func (p *pricer) Name() string { return "pricer" }

func (p *pricer) OnEvent(event *Trade, sequence int64, endOfBatch bool) error {
	event.Notional = event.Price * float64(event.Quantity)
	p.total.Add(int64(event.Notional))
	return nil
}

func main() {
	events := flag.Int("events", 1_000_000, "Number of trades to publish")
	metricsAddr := flag.String("metrics", "", "Address to serve Prometheus metrics on, e.g. :9090")
	flag.Parse()

	if err := run(*events, *metricsAddr); err != nil {
		log.Fatalf("Demo failed: %v", err)
	}
}

// run wires a diamond of consumers, publishes the given number of trades and drains the pipeline
func run(events int, metricsAddr string) error {
	cfg, err := disruptor.LoadConfig("disruptor")
	if err != nil {
		return err
	}

	logger := telemetry.New(telemetry.Config{Level: cfg.LogLevel})

	d, err := disruptor.NewFromConfig(func() Trade { return Trade{} }, cfg, disruptor.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create disruptor: %w", err)
	}

	journal := &journaler{name: "journal"}
	replica := &journaler{name: "replica"}
	price := &pricer{}

	group, err := d.HandleEventsWith(journal, replica)
	if err != nil {
		return fmt.Errorf("failed to register journalers: %w", err)
	}
	if _, err := group.Then(price); err != nil {
		return fmt.Errorf("failed to register pricer: %w", err)
	}

	if err := d.Topology().Validate(); err != nil {
		return err
	}

	if metricsAddr != "" {
		registry := prometheus.NewRegistry()
		registry.MustRegister(d.Collector())

		srv := &http.Server{
			Addr:              metricsAddr,
			Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server failed", telemetry.Err(err))
			}
		}()
		defer srv.Close()
	}

	ringBuffer, err := d.Start()
	if err != nil {
		return fmt.Errorf("failed to start disruptor: %w", err)
	}

	began := time.Now()
	for i := 0; i < events; i++ {
		ringBuffer.PublishEvent(func(trade *Trade, sequence int64) {
			trade.ID = sequence
			trade.Price = 100 + float64(sequence%7)
			trade.Quantity = 1 + sequence%10
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := d.ShutdownContext(ctx); err != nil {
		d.Halt()
		return err
	}

	elapsed := time.Since(began)
	logger.Info("Pipeline drained",
		telemetry.Int("events", events),
		telemetry.Int("journaled", int(journal.written.Load())),
		telemetry.Int("replicated", int(replica.written.Load())),
		telemetry.Int("notional_total", int(price.total.Load())),
		telemetry.String("elapsed", elapsed.String()))
	return nil
}
