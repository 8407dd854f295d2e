package dispatch

import (
	"context"

	"github.com/DMarby/pixelbench/internal/logger"
	"github.com/DMarby/pixelbench/internal/pixel"
	"github.com/DMarby/pixelbench/internal/queue"
)

// GridBlocks partitions bounds into blockSize squares in row-major order.
// Blocks in the last row and column are truncated to the remaining height and width.
func GridBlocks(bounds pixel.Rect, blockSize int) []pixel.Rect {
	if bounds.Empty() || blockSize <= 0 {
		return nil
	}

	cols := (bounds.Width + blockSize - 1) / blockSize
	rows := (bounds.Height + blockSize - 1) / blockSize
	blocks := make([]pixel.Rect, 0, cols*rows)

	for y := bounds.Y; y < bounds.Y+bounds.Height; y += blockSize {
		for x := bounds.X; x < bounds.X+bounds.Width; x += blockSize {
			blocks = append(blocks, pixel.Rect{
				X:      x,
				Y:      y,
				Width:  min(blockSize, bounds.X+bounds.Width-x),
				Height: min(blockSize, bounds.Y+bounds.Height-y),
			})
		}
	}

	return blocks
}

// Grid runs work over the grid blocks of bounds on a pool of exactly workers goroutines,
// and returns once every block has been processed.
// The first block failure is returned after the remaining blocks have drained; later ones are logged.
// If ctx is done first, queued blocks are abandoned, the pool is shut down, and ErrTimeout
// (for a deadline) or the context error is returned.
func Grid(ctx context.Context, log *logger.Logger, bounds pixel.Rect, blockSize, workers int, work Work) error {
	if err := validate(bounds, blockSize, workers); err != nil {
		return err
	}

	blocks := GridBlocks(bounds, blockSize)

	poolCtx, shutdown := context.WithCancel(ctx)
	workerQueue := queue.New(poolCtx, workers, func(_ context.Context, block pixel.Rect) (struct{}, error) {
		return struct{}{}, guard(log, block, work)
	})

	stopped := make(chan struct{})
	go func() {
		workerQueue.Run()
		close(stopped)
	}()

	// Workers finish their current block and exit before we return
	defer func() {
		shutdown()
		<-stopped
	}()

	results := make(chan queue.Result[pixel.Rect, struct{}], len(blocks))
	go func() {
		for _, block := range blocks {
			if err := workerQueue.Submit(poolCtx, block, results); err != nil {
				return
			}
		}
	}()

	var first error
	later := logLater(log, "grid")
	for completed := 0; completed < len(blocks); completed++ {
		select {
		case result := <-results:
			if result.Err == nil {
				continue
			}

			if first == nil {
				first = result.Err
			} else {
				later(result.Err)
			}
		case <-ctx.Done():
			return timeoutError(ctx, completed, len(blocks))
		}
	}

	return first
}
