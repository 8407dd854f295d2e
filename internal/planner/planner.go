package planner

import (
	"fmt"
	"math"

	"github.com/DMarby/pixelbench/internal/pixel"
)

// BlocksPerWorker is how many blocks are targeted per worker, so that uneven block costs can still be balanced
const BlocksPerWorker = 2

// BlockSize returns the side length of square blocks for an image of the given area,
// aiming for BlocksPerWorker blocks per worker
func BlockSize(area, workers int) (int, error) {
	if area <= 0 {
		return 0, fmt.Errorf("%w: image area %d", pixel.ErrInvalidGeometry, area)
	}

	if workers <= 0 {
		return 0, fmt.Errorf("%w: worker count %d", pixel.ErrInvalidGeometry, workers)
	}

	blockArea := max(1, area/(BlocksPerWorker*workers))
	return ceilSqrt(blockArea), nil
}

// ceilSqrt returns the smallest s with s*s >= n
func ceilSqrt(n int) int {
	s := int(math.Sqrt(float64(n)))
	for s*s < n {
		s++
	}
	for s > 1 && (s-1)*(s-1) >= n {
		s--
	}
	return max(s, 1)
}
