package csv

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/DMarby/pixelbench/internal/bench"
)

// Header is the first row written by a Provider
var Header = []string{"threads", "strategy", "filter", "block_size", "sequential_ms", "parallel_ms", "speedup"}

// Provider writes samples as CSV rows
type Provider struct {
	mu      sync.Mutex
	w       *csv.Writer
	closer  io.Closer
	started bool
}

// New returns a Provider writing to w
func New(w io.Writer) *Provider {
	return &Provider{w: csv.NewWriter(w)}
}

// Create returns a Provider writing to a new file at path, which is closed on Shutdown
func Create(path string) (*Provider, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	p := New(f)
	p.closer = f
	return p, nil
}

// Write appends a row for sample, preceded by the header on the first call
func (p *Provider) Write(ctx context.Context, sample bench.Sample) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		if err := p.w.Write(Header); err != nil {
			return err
		}
		p.started = true
	}

	if err := p.w.Write(Row(sample)); err != nil {
		return err
	}

	p.w.Flush()
	return p.w.Error()
}

// Row formats a sample in Header order
func Row(sample bench.Sample) []string {
	return []string{
		strconv.Itoa(sample.Workers),
		sample.Strategy,
		sample.Filter,
		strconv.Itoa(sample.BlockSize),
		milliseconds(sample.Sequential),
		milliseconds(sample.Parallel),
		strconv.FormatFloat(sample.Speedup, 'f', 4, 64),
	}
}

func milliseconds(d time.Duration) string {
	return strconv.FormatFloat(float64(d)/float64(time.Millisecond), 'f', 3, 64)
}

// Shutdown flushes pending rows and closes the file opened by Create
func (p *Provider) Shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.w.Flush()
	if p.closer != nil {
		p.closer.Close()
	}
}
