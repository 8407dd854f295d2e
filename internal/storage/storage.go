package storage

import (
	"context"
	"errors"
)

// Provider is an interface for retrieving and storing images by key, e.g. "mountains.jpg"
type Provider interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
}

// Errors
var (
	ErrNotFound   = errors.New("image does not exist")
	ErrInvalidKey = errors.New("invalid key")
)
