package planner_test

import (
	"errors"
	"testing"

	"github.com/DMarby/pixelbench/internal/pixel"
	"github.com/DMarby/pixelbench/internal/planner"
)

func TestBlockSize(t *testing.T) {
	tests := []struct {
		Name     string
		Area     int
		Workers  int
		Expected int
	}{
		{"megapixel on four workers", 1_000_000, 4, 354},
		{"single pixel", 1, 1, 1},
		{"more workers than pixels", 10, 64, 1},
		{"perfect square", 200, 1, 10},
		{"just above a square", 202, 1, 11},
		{"4k frame on 16 workers", 3840 * 2160, 16, 510},
	}

	for _, test := range tests {
		s, err := planner.BlockSize(test.Area, test.Workers)
		if err != nil {
			t.Errorf("%s: %s", test.Name, err)
			continue
		}

		if s != test.Expected {
			t.Errorf("%s: got %d, want %d", test.Name, s, test.Expected)
		}
	}
}

func TestBlockSizeTargetsTwoBlocksPerWorker(t *testing.T) {
	for workers := 1; workers <= 32; workers++ {
		s, err := planner.BlockSize(1_000_000, workers)
		if err != nil {
			t.Fatal(err)
		}

		target := 1_000_000 / (2 * workers)
		if s*s < target || (s-1)*(s-1) >= target {
			t.Errorf("%d workers: block %d is not the ceiling square root of %d", workers, s, target)
		}
	}
}

func TestBlockSizeErrors(t *testing.T) {
	tests := []struct {
		Area    int
		Workers int
	}{
		{0, 4},
		{-5, 4},
		{100, 0},
		{100, -1},
	}

	for _, test := range tests {
		if _, err := planner.BlockSize(test.Area, test.Workers); !errors.Is(err, pixel.ErrInvalidGeometry) {
			t.Errorf("BlockSize(%d, %d): wrong error %v", test.Area, test.Workers, err)
		}
	}
}
