package file_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/DMarby/pixelbench/internal/storage"
	"github.com/DMarby/pixelbench/internal/storage/file"
)

func TestFile(t *testing.T) {
	dir := t.TempDir()
	fixture := []byte("not really a jpeg")
	if err := os.WriteFile(filepath.Join(dir, "1.jpg"), fixture, 0o644); err != nil {
		t.Fatal(err)
	}

	provider, err := file.New(dir)
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()

	t.Run("Get an image by key", func(t *testing.T) {
		buf, err := provider.Get(ctx, "1.jpg")
		if err != nil {
			t.Fatal(err)
		}

		if !reflect.DeepEqual(buf, fixture) {
			t.Error("image data doesn't match")
		}
	})

	t.Run("Returns error on a nonexistant path", func(t *testing.T) {
		_, err := file.New(filepath.Join(dir, "nonexistant"))
		if err == nil {
			t.FailNow()
		}
	})

	t.Run("Returns ErrNotFound on a nonexistant image", func(t *testing.T) {
		_, err := provider.Get(ctx, "nonexistant.jpg")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("wrong error %v", err)
		}
	})

	t.Run("Rejects keys outside the directory", func(t *testing.T) {
		for _, key := range []string{"../1.jpg", "/etc/passwd", ""} {
			if _, err := provider.Get(ctx, key); !errors.Is(err, storage.ErrInvalidKey) {
				t.Errorf("%q: wrong error %v", key, err)
			}
			if err := provider.Put(ctx, key, fixture); !errors.Is(err, storage.ErrInvalidKey) {
				t.Errorf("%q: wrong error %v", key, err)
			}
		}
	})

	t.Run("Put stores an image", func(t *testing.T) {
		data := []byte("filtered")
		if err := provider.Put(ctx, "out/1-blur.png", data); err != nil {
			t.Fatal(err)
		}

		buf, err := provider.Get(ctx, "out/1-blur.png")
		if err != nil {
			t.Fatal(err)
		}

		if !reflect.DeepEqual(buf, data) {
			t.Error("image data doesn't match")
		}

		if err := provider.Put(ctx, "out/1-blur.png", []byte("replaced")); err != nil {
			t.Fatal(err)
		}

		if buf, _ := provider.Get(ctx, "out/1-blur.png"); string(buf) != "replaced" {
			t.Errorf("image not replaced, got %q", buf)
		}

		entries, _ := os.ReadDir(filepath.Join(dir, "out"))
		if len(entries) != 1 {
			t.Errorf("temporary files left behind: %v", entries)
		}
	})
}
