package mock

import (
	"context"
	"fmt"

	"github.com/DMarby/pixelbench/internal/cache"
)

// Provider is a mock cache. Its behaviour depends on the key:
// "notfound" and "notfounderr" miss, "seterror" misses and fails to store,
// "error" fails, and every other key hits with the data "foo".
type Provider struct{}

// Get returns an object from the cache if it exists
func (p *Provider) Get(ctx context.Context, key string) (data []byte, err error) {
	switch key {
	case "notfound", "notfounderr", "seterror":
		return nil, cache.ErrNotFound
	case "error":
		return nil, fmt.Errorf("error")
	}

	return []byte("foo"), nil
}

// Set adds an object to the cache
func (p *Provider) Set(ctx context.Context, key string, data []byte) (err error) {
	if key == "seterror" {
		return fmt.Errorf("seterror")
	}

	return nil
}

// Shutdown shuts down the cache
func (p *Provider) Shutdown() {}
