package cache

import (
	"context"
	"errors"

	"github.com/DMarby/pixelbench/internal/tracing"
	"golang.org/x/sync/singleflight"
)

// Provider is an interface for getting and setting cached objects
type Provider interface {
	Get(ctx context.Context, key string) (data []byte, err error)
	Set(ctx context.Context, key string, data []byte) (err error)
	Shutdown()
}

// LoaderFunc is a function for loading data into a cache
type LoaderFunc func(ctx context.Context, key string) (data []byte, err error)

// Auto is a cache that automatically attempts to load objects if they don't exist
type Auto struct {
	Tracer      *tracing.Tracer
	Provider    Provider
	Loader      LoaderFunc
	lookupGroup singleflight.Group
}

// Get returns an object from the cache if it exists, otherwise it loads it into the cache and returns it.
// Concurrent misses for the same key share a single load, which is not cancelled when one caller gives up.
func (a *Auto) Get(ctx context.Context, key string) (data []byte, err error) {
	ctx, span := a.Tracer.Start(ctx, "cache.Auto.Get")
	defer span.End()

	data, err = a.Provider.Get(ctx, key)
	// A hit, or a cache failure that loading won't fix
	if !errors.Is(err, ErrNotFound) {
		return
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := a.lookupGroup.DoChan(key, func() (interface{}, error) {
		data, err := a.Loader(loadCtx, key)
		if err != nil {
			return nil, err
		}

		if err := a.Provider.Set(loadCtx, key, data); err != nil {
			return nil, err
		}

		return data, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		data, _ = res.Val.([]byte)
		return data, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Errors
var (
	ErrNotFound = errors.New("not found in cache")
)
