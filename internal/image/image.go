package image

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/DMarby/pixelbench/internal/cache"
	"github.com/DMarby/pixelbench/internal/pixel"
	"github.com/DMarby/pixelbench/internal/storage"
	"github.com/DMarby/pixelbench/internal/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Cache is a cache of encoded source images, keyed by storage key
type Cache = cache.Auto

// NewCache returns a cache that loads missing images from storage
func NewCache(tracer *tracing.Tracer, cacheProvider cache.Provider, storageProvider storage.Provider) *Cache {
	return &Cache{
		Tracer:   tracer,
		Provider: cacheProvider,
		Loader: func(ctx context.Context, key string) ([]byte, error) {
			ctx, span := tracer.Start(ctx, "image.Cache.Loader", trace.WithAttributes(attribute.String("key", key)))
			defer span.End()

			data, err := storageProvider.Get(ctx, key)
			if err != nil {
				return nil, fmt.Errorf("error loading %s: %w", key, err)
			}

			return data, nil
		},
	}
}

// Source decodes images loaded through a cache
type Source struct {
	Tracer *tracing.Tracer
	Cache  *Cache
}

// Load returns the decoded image stored under key
func (s *Source) Load(ctx context.Context, key string) (*pixel.Image, error) {
	ctx, span := s.Tracer.Start(ctx, "image.Source.Load", trace.WithAttributes(attribute.String("key", key)))
	defer span.End()

	data, err := s.Cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	img, err := pixel.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("error decoding %s: %w", key, err)
	}

	return img, nil
}

// Sink encodes images and writes them to storage
type Sink struct {
	Tracer  *tracing.Tracer
	Storage storage.Provider
}

// Store encodes img in the format matching the extension of key and stores it
func (s *Sink) Store(ctx context.Context, key string, img *pixel.Image) error {
	ctx, span := s.Tracer.Start(ctx, "image.Sink.Store", trace.WithAttributes(attribute.String("key", key)))
	defer span.End()

	format, err := pixel.FormatFromExtension(path.Ext(key))
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := pixel.Encode(&buf, img, format); err != nil {
		return fmt.Errorf("error encoding %s: %w", key, err)
	}

	return s.Storage.Put(ctx, key, buf.Bytes())
}
