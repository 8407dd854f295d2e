package engine

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/DMarby/pixelbench/internal/dispatch"
	"github.com/DMarby/pixelbench/internal/filter"
	"github.com/DMarby/pixelbench/internal/logger"
	"github.com/DMarby/pixelbench/internal/pixel"
	"github.com/DMarby/pixelbench/internal/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTimeout bounds a single parallel pass
const DefaultTimeout = 10 * time.Minute

// Recorder receives the outcome of every pass
type Recorder interface {
	ObservePass(strategy, filter string, duration time.Duration, err error)
	ObserveBlocks(strategy string, blocks, failures int)
}

// Engine applies filters to images, sequentially or with one of the parallel strategies
type Engine struct {
	Log      *logger.Logger
	Tracer   *tracing.Tracer
	Recorder Recorder // Optional
	Timeout  time.Duration
}

// New returns an Engine with the default timeout
func New(log *logger.Logger, tracer *tracing.Tracer) *Engine {
	return &Engine{
		Log:     log,
		Tracer:  tracer,
		Timeout: DefaultTimeout,
	}
}

// ApplySequential filters the whole image in a single pass. Its output is the reference the parallel strategies must match.
func (e *Engine) ApplySequential(ctx context.Context, img *pixel.Image, kind filter.Kind) error {
	return e.apply(ctx, Sequential, img, kind, 1, 0)
}

// ApplyGrid filters the image in blockSize squares on a queue of exactly workers goroutines
func (e *Engine) ApplyGrid(ctx context.Context, img *pixel.Image, kind filter.Kind, workers, blockSize int) error {
	return e.apply(ctx, Grid, img, kind, workers, blockSize)
}

// ApplyRecursive filters the image by quartering it down to blockSize on a work-stealing pool of exactly workers goroutines
func (e *Engine) ApplyRecursive(ctx context.Context, img *pixel.Image, kind filter.Kind, workers, blockSize int) error {
	return e.apply(ctx, Recursive, img, kind, workers, blockSize)
}

// Apply filters the image with the given strategy. workers and blockSize are ignored for Sequential.
func (e *Engine) Apply(ctx context.Context, strategy Strategy, img *pixel.Image, kind filter.Kind, workers, blockSize int) error {
	switch strategy {
	case Sequential:
		return e.ApplySequential(ctx, img, kind)
	case Grid:
		return e.ApplyGrid(ctx, img, kind, workers, blockSize)
	case Recursive:
		return e.ApplyRecursive(ctx, img, kind, workers, blockSize)
	}

	return fmt.Errorf("%w: %s", ErrInvalidStrategy, strategy)
}

// ApplyFrames filters a sequence of frames in order, stopping at the first frame that fails
func (e *Engine) ApplyFrames(ctx context.Context, strategy Strategy, frames []*pixel.Image, kind filter.Kind, workers, blockSize int) error {
	for i, frame := range frames {
		if err := e.Apply(ctx, strategy, frame, kind, workers, blockSize); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
	}

	return nil
}

func (e *Engine) validate(strategy Strategy, img *pixel.Image, kind filter.Kind, workers, blockSize int) error {
	if err := kind.Validate(); err != nil {
		return err
	}

	if err := img.Validate(); err != nil {
		return err
	}

	if strategy == Sequential {
		return nil
	}

	if workers <= 0 {
		return fmt.Errorf("%w: worker count %d", pixel.ErrInvalidGeometry, workers)
	}

	if blockSize <= 0 {
		return fmt.Errorf("%w: block size %d", pixel.ErrInvalidGeometry, blockSize)
	}

	return nil
}

func (e *Engine) apply(ctx context.Context, strategy Strategy, img *pixel.Image, kind filter.Kind, workers, blockSize int) error {
	if err := e.validate(strategy, img, kind, workers, blockSize); err != nil {
		return err
	}

	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	ctx, span := e.start(ctx, strategy, kind, workers, blockSize)
	defer span.End()

	// Pointwise filters only read the pixel they write, so they can read the image in place
	var source *pixel.Snapshot
	if kind.Neighborhood() {
		source = img.Snapshot()
	} else {
		source = img.Alias()
	}

	var blocks, failures atomic.Int64
	work := func(block pixel.Rect) (err error) {
		blocks.Add(1)

		// Counts panics too, which unwind through here to the dispatcher
		finished := false
		defer func() {
			if !finished || err != nil {
				failures.Add(1)
			}
		}()

		err = filter.Apply(kind, source, img, block)
		finished = true
		return err
	}

	start := time.Now()

	var err error
	switch strategy {
	case Sequential:
		err = dispatch.Sequential(ctx, e.Log, img.Bounds(), work)
	case Grid:
		err = dispatch.Grid(ctx, e.Log, img.Bounds(), blockSize, workers, work)
	case Recursive:
		err = dispatch.Recursive(ctx, e.Log, img.Bounds(), blockSize, workers, work)
	}

	elapsed := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	if e.Recorder != nil {
		e.Recorder.ObservePass(strategy.String(), kind.String(), elapsed, err)
		e.Recorder.ObserveBlocks(strategy.String(), int(blocks.Load()), int(failures.Load()))
	}

	e.Log.Debugw("filter pass finished",
		"strategy", strategy.String(),
		"filter", kind.String(),
		"width", img.Width,
		"height", img.Height,
		"workers", workers,
		"block-size", blockSize,
		"blocks", blocks.Load(),
		"elapsed", elapsed,
		"error", err,
	)

	return err
}

func (e *Engine) start(ctx context.Context, strategy Strategy, kind filter.Kind, workers, blockSize int) (context.Context, trace.Span) {
	tracer := trace.NewNoopTracerProvider().Tracer("")
	if e.Tracer != nil {
		tracer = e.Tracer.TracerInstance
	}

	return tracer.Start(ctx, "engine."+strategy.String(),
		trace.WithAttributes(
			attribute.String("filter", kind.String()),
			attribute.Int("workers", workers),
			attribute.Int("block_size", blockSize),
		),
	)
}
