package mock

import (
	"context"
	"fmt"
)

// Provider implements an image storage where every operation fails
type Provider struct {
}

// Get returns an error
func (p *Provider) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, fmt.Errorf("get error")
}

// Put returns an error
func (p *Provider) Put(ctx context.Context, key string, data []byte) error {
	return fmt.Errorf("put error")
}
