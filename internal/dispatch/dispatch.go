package dispatch

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/DMarby/pixelbench/internal/logger"
	"github.com/DMarby/pixelbench/internal/pixel"
)

// Errors
var (
	ErrTimeout = errors.New("dispatch timed out")
)

// Work filters a single block
type Work func(block pixel.Rect) error

// BlockError is a failure while processing one block.
// When a pass returns a BlockError the whole image must be treated as invalid.
type BlockError struct {
	Block pixel.Rect
	Err   error
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("error processing block %s: %s", e.Block, e.Err)
}

func (e *BlockError) Unwrap() error {
	return e.Err
}

// guard runs work on a block, turning errors and panics into a *BlockError
func guard(log *logger.Logger, block pixel.Rect, work Work) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorw("panic processing block",
				"block", block.String(),
				"stacktrace", string(debug.Stack()),
			)
			err = &BlockError{Block: block, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if err := work(block); err != nil {
		return &BlockError{Block: block, Err: err}
	}

	return nil
}

// validate checks the arguments shared by every dispatcher
func validate(bounds pixel.Rect, blockSize, workers int) error {
	if bounds.Empty() || bounds.X < 0 || bounds.Y < 0 {
		return fmt.Errorf("%w: region %s", pixel.ErrInvalidGeometry, bounds)
	}

	if blockSize <= 0 {
		return fmt.Errorf("%w: block size %d", pixel.ErrInvalidGeometry, blockSize)
	}

	if workers <= 0 {
		return fmt.Errorf("%w: worker count %d", pixel.ErrInvalidGeometry, workers)
	}

	return nil
}

// timeoutError maps a finished context onto the dispatcher's error
func timeoutError(ctx context.Context, completed, total int) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %d of %d blocks completed", ErrTimeout, completed, total)
	}

	return ctx.Err()
}

// logLater returns a handler that logs failures after the first one
func logLater(log *logger.Logger, strategy string) func(error) {
	return func(err error) {
		log.Warnw("additional block failure",
			"strategy", strategy,
			"error", err,
		)
	}
}
