package filterapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/DMarby/pixelbench/internal/cache"
	"github.com/DMarby/pixelbench/internal/engine"
	"github.com/DMarby/pixelbench/internal/handler"
	"github.com/DMarby/pixelbench/internal/params"
	"github.com/DMarby/pixelbench/internal/pixel"
	"github.com/DMarby/pixelbench/internal/planner"
	"github.com/DMarby/pixelbench/internal/storage"
	"github.com/twmb/murmur3"
)

const defaultSourceExtension = ".png"

func (a *API) filterHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	if a.HMAC != nil && !a.HMAC.Verify(r) {
		return handler.BadRequest("Invalid parameters")
	}

	// Get the path and query parameters
	p, err := params.Get(r, a.maxWorkers())
	if err != nil {
		return handler.BadRequest(err.Error())
	}

	data, err := a.render(r.Context(), p)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return handler.NotFound("Image does not exist")
		}

		if errors.Is(err, storage.ErrInvalidKey) {
			return handler.BadRequest("Invalid image id")
		}

		a.logError(r, "error filtering image", err)
		return handler.InternalServerError()
	}

	// Set the headers
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=\"%s\"", p.Filename()))
	w.Header().Set("Content-Type", p.Format.ContentType())
	w.Header().Set("Cache-Control", "public, max-age=2592000") // Cache for a month
	w.Header().Set("Pixelbench-ID", p.ID)

	// Return the image
	w.Write(data)

	return nil
}

// OutputKey returns the output cache key for a request.
// Every strategy produces the same pixels, so only the image, filter and format are part of it.
func OutputKey(p *params.Params) string {
	// Hash the input using murmur3
	hash := murmur3.StringSum64(fmt.Sprintf("%s/%s%s", p.ID, p.Filter, p.Extension))
	return fmt.Sprintf("output:%016x", hash)
}

// render returns the encoded, filtered image for p, from the output cache when possible
func (a *API) render(ctx context.Context, p *params.Params) ([]byte, error) {
	key := OutputKey(p)

	if a.Output != nil {
		data, err := a.Output.Get(ctx, key)
		if err == nil {
			return data, nil
		}

		if !errors.Is(err, cache.ErrNotFound) {
			return nil, err
		}
	}

	// The shared render is not cancelled when one of the requests waiting on it goes away
	renderCtx := context.WithoutCancel(ctx)
	ch := a.renders.DoChan(key, func() (interface{}, error) {
		data, err := a.filter(renderCtx, p)
		if err != nil {
			return nil, err
		}

		if a.Output != nil {
			if err := a.Output.Set(renderCtx, key, data); err != nil {
				return nil, err
			}
		}

		return data, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (a *API) filter(ctx context.Context, p *params.Params) ([]byte, error) {
	ctx, span := a.Tracer.Start(ctx, "filterapi.filter")
	defer span.End()

	extension := a.SourceExtension
	if extension == "" {
		extension = defaultSourceExtension
	}

	img, err := a.Source.Load(ctx, p.ID+extension)
	if err != nil {
		return nil, err
	}

	blockSize := p.BlockSize
	if blockSize == 0 && p.Strategy != engine.Sequential {
		blockSize, err = planner.BlockSize(img.Bounds().Area(), p.Workers)
		if err != nil {
			return nil, err
		}
	}

	if err := a.Engine.Apply(ctx, p.Strategy, img, p.Filter, p.Workers, blockSize); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := pixel.Encode(&buf, img, p.Format); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
