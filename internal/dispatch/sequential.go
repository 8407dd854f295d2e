package dispatch

import (
	"context"
	"fmt"

	"github.com/DMarby/pixelbench/internal/logger"
	"github.com/DMarby/pixelbench/internal/pixel"
)

// Sequential runs work on the whole of bounds as a single block on the calling goroutine.
// Errors and panics come back as a *BlockError, like the parallel dispatchers.
func Sequential(ctx context.Context, log *logger.Logger, bounds pixel.Rect, work Work) error {
	if bounds.Empty() || bounds.X < 0 || bounds.Y < 0 {
		return fmt.Errorf("%w: region %s", pixel.ErrInvalidGeometry, bounds)
	}

	if ctx.Err() != nil {
		return timeoutError(ctx, 0, 1)
	}

	return guard(log, bounds, work)
}
