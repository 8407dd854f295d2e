package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/DMarby/pixelbench/internal/storage"
)

// Provider implements a file-based image storage rooted at a directory
type Provider struct {
	path string
}

// New returns a new Provider instance
func New(path string) (*Provider, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	return &Provider{
		path,
	}, nil
}

func (p *Provider) resolve(key string) (string, error) {
	if !filepath.IsLocal(key) {
		return "", fmt.Errorf("%w: %q", storage.ErrInvalidKey, key)
	}

	return filepath.Join(p.path, key), nil
}

// Get returns the data stored under key
func (p *Provider) Get(ctx context.Context, key string) ([]byte, error) {
	path, err := p.resolve(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, storage.ErrNotFound
		}

		return nil, err
	}

	return data, nil
}

// Put stores data under key, replacing anything stored there
func (p *Provider) Put(ctx context.Context, key string, data []byte) error {
	path, err := p.resolve(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	// Write next to the target and rename, so readers never see a partial image
	tmp, err := os.CreateTemp(filepath.Dir(path), ".pixelbench-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}
