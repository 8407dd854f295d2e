package dispatch

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/DMarby/pixelbench/internal/logger"
	"github.com/DMarby/pixelbench/internal/pixel"
	"github.com/DMarby/pixelbench/internal/steal"
)

// QuadSplit bisects both axes of r, returning up to four non-empty quadrants.
// The leading half of an odd axis is the larger one, so an axis of length 1 is not split.
func QuadSplit(r pixel.Rect) []pixel.Rect {
	left := (r.Width + 1) / 2
	top := (r.Height + 1) / 2

	quadrants := [4]pixel.Rect{
		{X: r.X, Y: r.Y, Width: left, Height: top},
		{X: r.X + left, Y: r.Y, Width: r.Width - left, Height: top},
		{X: r.X, Y: r.Y + top, Width: left, Height: r.Height - top},
		{X: r.X + left, Y: r.Y + top, Width: r.Width - left, Height: r.Height - top},
	}

	parts := make([]pixel.Rect, 0, len(quadrants))
	for _, q := range quadrants {
		if !q.Empty() {
			parts = append(parts, q)
		}
	}

	return parts
}

func isLeaf(r pixel.Rect, blockSize int) bool {
	return r.Width <= blockSize && r.Height <= blockSize
}

// QuadBlocks returns the leaves of the recursive decomposition of bounds, depth first
func QuadBlocks(bounds pixel.Rect, blockSize int) []pixel.Rect {
	if bounds.Empty() || blockSize <= 0 {
		return nil
	}

	if isLeaf(bounds, blockSize) {
		return []pixel.Rect{bounds}
	}

	var blocks []pixel.Rect
	for _, part := range QuadSplit(bounds) {
		blocks = append(blocks, QuadBlocks(part, blockSize)...)
	}

	return blocks
}

// Recursive quarters bounds until both sides of a region are at most blockSize,
// running work on each leaf. Regions are processed in parallel on a work-stealing
// pool of exactly workers goroutines, which is closed before Recursive returns.
// Failure and timeout semantics match Grid.
func Recursive(ctx context.Context, log *logger.Logger, bounds pixel.Rect, blockSize, workers int, work Work) error {
	if err := validate(bounds, blockSize, workers); err != nil {
		return err
	}

	pool := steal.New(workers)
	defer pool.Close()

	var completed atomic.Int64
	err := pool.Invoke(ctx, split(log, bounds, blockSize, work, &completed), logLater(log, "recursive"))
	if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return timeoutError(ctx, int(completed.Load()), len(QuadBlocks(bounds, blockSize)))
	}

	return err
}

func split(log *logger.Logger, r pixel.Rect, blockSize int, work Work, completed *atomic.Int64) steal.Task {
	return func(w *steal.Worker) error {
		if isLeaf(r, blockSize) {
			defer completed.Add(1)
			return guard(log, r, work)
		}

		parts := QuadSplit(r)
		tasks := make([]steal.Task, len(parts))
		for i, part := range parts {
			tasks[i] = split(log, part, blockSize, work, completed)
		}

		w.InvokeAll(tasks...)
		return nil
	}
}
