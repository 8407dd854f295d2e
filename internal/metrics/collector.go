package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/DMarby/pixelbench/internal/bench"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pixelbench"

// Collector records filter passes and benchmark samples as Prometheus metrics.
// It is an engine.Recorder and a bench.Sink.
type Collector struct {
	passDuration  *prometheus.HistogramVec
	passes        *prometheus.CounterVec
	blocks        *prometheus.CounterVec
	blockFailures *prometheus.CounterVec
	speedup       *prometheus.GaugeVec
}

// New creates a Collector and registers its metrics with reg
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		passDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "filter_duration_seconds",
			Help:      "Duration of filter passes.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 16),
		}, []string{"strategy", "filter"}),
		passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "filter_passes_total",
			Help:      "Filter passes by outcome.",
		}, []string{"strategy", "filter", "result"}),
		blocks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_total",
			Help:      "Blocks handed to a filter kernel.",
		}, []string{"strategy"}),
		blockFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "block_failures_total",
			Help:      "Blocks whose kernel returned an error or panicked.",
		}, []string{"strategy"}),
		speedup: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "speedup",
			Help:      "Latest measured speedup over the sequential pass.",
		}, []string{"strategy", "filter", "workers"}),
	}

	for _, collector := range []prometheus.Collector{c.passDuration, c.passes, c.blocks, c.blockFailures, c.speedup} {
		if err := reg.Register(collector); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// ObservePass records the duration and outcome of a pass
func (c *Collector) ObservePass(strategy, filter string, duration time.Duration, err error) {
	c.passDuration.WithLabelValues(strategy, filter).Observe(duration.Seconds())

	result := "success"
	if err != nil {
		result = "error"
	}
	c.passes.WithLabelValues(strategy, filter, result).Inc()
}

// ObserveBlocks records how many blocks a pass processed and how many of them failed
func (c *Collector) ObserveBlocks(strategy string, blocks, failures int) {
	c.blocks.WithLabelValues(strategy).Add(float64(blocks))
	c.blockFailures.WithLabelValues(strategy).Add(float64(failures))
}

// Write publishes the speedup of a benchmark sample
func (c *Collector) Write(ctx context.Context, sample bench.Sample) error {
	c.speedup.WithLabelValues(sample.Strategy, sample.Filter, strconv.Itoa(sample.Workers)).Set(sample.Speedup)
	return nil
}
