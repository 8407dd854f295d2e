package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/DMarby/pixelbench/internal/bench"
)

// Provider is a results store that keeps samples in memory.
// Writes fail once Fail is set.
type Provider struct {
	Fail bool

	mu      sync.Mutex
	samples []bench.Sample
}

// Write stores a sample
func (p *Provider) Write(ctx context.Context, sample bench.Sample) error {
	if p.Fail {
		return fmt.Errorf("write error")
	}

	p.mu.Lock()
	p.samples = append(p.samples, sample)
	p.mu.Unlock()

	return nil
}

// Samples returns the samples written so far
func (p *Provider) Samples() []bench.Sample {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]bench.Sample(nil), p.samples...)
}

// Shutdown does nothing
func (p *Provider) Shutdown() {}
