package bench

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/DMarby/pixelbench/internal/engine"
	"github.com/DMarby/pixelbench/internal/filter"
	"github.com/DMarby/pixelbench/internal/logger"
	"github.com/DMarby/pixelbench/internal/pixel"
	"github.com/DMarby/pixelbench/internal/planner"
)

// Errors
var (
	ErrMismatch = errors.New("parallel output differs from sequential output")
)

// Sample is the measurement for one worker count
type Sample struct {
	Strategy   string
	Filter     string
	Width      int
	Height     int
	Workers    int
	BlockSize  int
	Sequential time.Duration
	Parallel   time.Duration
	Speedup    float64
}

// Sink receives samples as they are measured
type Sink interface {
	Write(ctx context.Context, sample Sample) error
}

// SinkFunc adapts a function to a Sink
type SinkFunc func(ctx context.Context, sample Sample) error

// Write calls f
func (f SinkFunc) Write(ctx context.Context, sample Sample) error {
	return f(ctx, sample)
}

// Tee writes every sample to all of the sinks, stopping at the first error
func Tee(sinks ...Sink) Sink {
	return SinkFunc(func(ctx context.Context, sample Sample) error {
		for _, sink := range sinks {
			if err := sink.Write(ctx, sample); err != nil {
				return err
			}
		}
		return nil
	})
}

// Harness measures the speedup of a parallel strategy over the sequential pass
type Harness struct {
	Engine     *engine.Engine
	Log        *logger.Logger
	MaxWorkers int  // Defaults to GOMAXPROCS
	Verify     bool // Compare every parallel output with the sequential output
}

func (h *Harness) maxWorkers() int {
	if h.MaxWorkers > 0 {
		return h.MaxWorkers
	}

	return runtime.GOMAXPROCS(0)
}

// Run measures src for worker counts 1 through MaxWorkers in increasing order, writing one sample per count to sink.
// Every pass runs on its own clone of src, which is never modified.
func (h *Harness) Run(ctx context.Context, src *pixel.Image, kind filter.Kind, strategy engine.Strategy, sink Sink) error {
	if strategy != engine.Grid && strategy != engine.Recursive {
		return fmt.Errorf("%w: cannot benchmark %s", engine.ErrInvalidStrategy, strategy)
	}

	if err := kind.Validate(); err != nil {
		return err
	}

	if err := src.Validate(); err != nil {
		return err
	}

	area := src.Width * src.Height
	for workers := 1; workers <= h.maxWorkers(); workers++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		blockSize, err := planner.BlockSize(area, workers)
		if err != nil {
			return err
		}

		sample, err := h.measure(ctx, src, kind, strategy, workers, blockSize)
		if err != nil {
			return fmt.Errorf("%s with %d workers: %w", strategy, workers, err)
		}

		h.Log.Infow("measured speedup",
			"strategy", sample.Strategy,
			"filter", sample.Filter,
			"workers", sample.Workers,
			"block-size", sample.BlockSize,
			"sequential", sample.Sequential,
			"parallel", sample.Parallel,
			"speedup", sample.Speedup,
		)

		if err := sink.Write(ctx, sample); err != nil {
			return fmt.Errorf("error writing sample: %w", err)
		}
	}

	return nil
}

func (h *Harness) measure(ctx context.Context, src *pixel.Image, kind filter.Kind, strategy engine.Strategy, workers, blockSize int) (Sample, error) {
	sequential := src.Clone()
	start := time.Now()
	if err := h.Engine.ApplySequential(ctx, sequential, kind); err != nil {
		return Sample{}, err
	}
	sequentialTime := time.Since(start)

	parallel := src.Clone()
	start = time.Now()
	if err := h.Engine.Apply(ctx, strategy, parallel, kind, workers, blockSize); err != nil {
		return Sample{}, err
	}
	parallelTime := time.Since(start)

	if h.Verify && !parallel.Equal(sequential) {
		return Sample{}, ErrMismatch
	}

	return Sample{
		Strategy:   strategy.String(),
		Filter:     kind.String(),
		Width:      src.Width,
		Height:     src.Height,
		Workers:    workers,
		BlockSize:  blockSize,
		Sequential: sequentialTime,
		Parallel:   parallelTime,
		Speedup:    Speedup(sequentialTime, parallelTime),
	}, nil
}

// Speedup is the ratio of the sequential time to the parallel time
func Speedup(sequential, parallel time.Duration) float64 {
	if parallel <= 0 {
		parallel = 1
	}

	return float64(sequential) / float64(parallel)
}
