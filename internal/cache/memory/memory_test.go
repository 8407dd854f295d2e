package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DMarby/pixelbench/internal/cache"
	"github.com/DMarby/pixelbench/internal/cache/memory"
)

func TestMemory(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	provider := memory.New(0)

	t.Run("get item", func(t *testing.T) {
		// Add item to the cache
		provider.Set(ctx, "foo", []byte("bar"))

		// Get item from the cache
		data, err := provider.Get(ctx, "foo")
		if err != nil {
			t.Fatal(err)
		}

		if string(data) != "bar" {
			t.Fatal("wrong data")
		}
	})

	t.Run("get nonexistant item", func(t *testing.T) {
		_, err := provider.Get(ctx, "notfound")
		if !errors.Is(err, cache.ErrNotFound) {
			t.Fatalf("wrong error %v", err)
		}
	})
}

func TestEviction(t *testing.T) {
	ctx := context.Background()
	provider := memory.New(10)

	provider.Set(ctx, "a", []byte("aaaa"))
	provider.Set(ctx, "b", []byte("bbbb"))
	provider.Set(ctx, "a", []byte("aaa"))
	provider.Set(ctx, "c", []byte("cccc"))

	// a (3) + b (4) + c (4) exceeds 10, so a is evicted as the oldest key
	if _, err := provider.Get(ctx, "a"); !errors.Is(err, cache.ErrNotFound) {
		t.Errorf("a: wrong error %v", err)
	}

	for _, key := range []string{"b", "c"} {
		if _, err := provider.Get(ctx, key); err != nil {
			t.Errorf("%s: %s", key, err)
		}
	}

	provider.Set(ctx, "huge", make([]byte, 11))
	if _, err := provider.Get(ctx, "huge"); !errors.Is(err, cache.ErrNotFound) {
		t.Errorf("huge: wrong error %v", err)
	}
	if _, err := provider.Get(ctx, "b"); err != nil {
		t.Errorf("oversized item evicted b: %s", err)
	}
}
