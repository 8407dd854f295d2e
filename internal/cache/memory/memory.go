package memory

import (
	"context"
	"sync"

	"github.com/DMarby/pixelbench/internal/cache"
)

// Provider implements an in-memory cache.
// When MaxBytes is exceeded the oldest entries are evicted first.
type Provider struct {
	maxBytes int
	size     int
	cache    map[string][]byte
	order    []string
	mutex    sync.RWMutex
}

// New returns a new Provider instance. A maxBytes of 0 means unbounded.
func New(maxBytes int) *Provider {
	return &Provider{
		maxBytes: maxBytes,
		cache:    make(map[string][]byte),
	}
}

// Get returns an object from the cache if it exists
func (p *Provider) Get(ctx context.Context, key string) (data []byte, err error) {
	p.mutex.RLock()
	data, exists := p.cache[key]
	p.mutex.RUnlock()

	if !exists {
		return nil, cache.ErrNotFound
	}

	return data, nil
}

// Set adds an object to the cache. Objects larger than the whole cache are not stored.
func (p *Provider) Set(ctx context.Context, key string, data []byte) (err error) {
	if p.maxBytes > 0 && len(data) > p.maxBytes {
		return nil
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()

	if old, exists := p.cache[key]; exists {
		p.size -= len(old)
	} else {
		p.order = append(p.order, key)
	}

	p.cache[key] = data
	p.size += len(data)

	for p.maxBytes > 0 && p.size > p.maxBytes {
		oldest := p.order[0]
		p.order = p.order[1:]
		p.size -= len(p.cache[oldest])
		delete(p.cache, oldest)
	}

	return nil
}

// Shutdown shuts down the cache
func (p *Provider) Shutdown() {}
