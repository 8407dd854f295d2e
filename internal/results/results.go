package results

import (
	"context"

	"github.com/DMarby/pixelbench/internal/bench"
)

// Provider is a destination for benchmark samples
type Provider interface {
	Write(ctx context.Context, sample bench.Sample) error
	Shutdown()
}
