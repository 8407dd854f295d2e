package filter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/DMarby/pixelbench/internal/pixel"
)

// Kind is a filter variant
type Kind int

const (
	// Grayscale converts pixels to their luminance
	Grayscale Kind = iota
	// Invert inverts every channel
	Invert
	// Sepia applies a sepia tone matrix
	Sepia
	// GaussianBlur applies a 3x3 gaussian kernel
	GaussianBlur
	// EdgeDetection applies a sobel operator to the luminance
	EdgeDetection
)

// Errors
var (
	ErrInvalidKind = errors.New("invalid filter kind")
)

// Kernel filters the pixels of rect, reading from src and writing to dst
type Kernel func(src *pixel.Snapshot, dst *pixel.Image, rect pixel.Rect)

type handler struct {
	name         string
	neighborhood bool
	kernel       Kernel
}

// Adding a filter means adding a Kind and its entry here
var handlers = map[Kind]handler{
	Grayscale:     {"grayscale", false, grayscale},
	Invert:        {"invert", false, invert},
	Sepia:         {"sepia", false, sepia},
	GaussianBlur:  {"blur", true, gaussianBlur},
	EdgeDetection: {"edge", true, edgeDetection},
}

// Kinds returns every filter kind in declaration order
func Kinds() []Kind {
	return []Kind{Grayscale, Invert, Sepia, GaussianBlur, EdgeDetection}
}

// Parse returns the kind for a filter name
func Parse(name string) (Kind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for kind, h := range handlers {
		if h.name == name {
			return kind, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrInvalidKind, name)
}

// Validate returns an error if the kind is not a known filter
func (k Kind) Validate() error {
	if _, ok := handlers[k]; !ok {
		return fmt.Errorf("%w: %d", ErrInvalidKind, int(k))
	}
	return nil
}

func (k Kind) String() string {
	if h, ok := handlers[k]; ok {
		return h.name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Neighborhood reports whether the filter reads pixels around the one it writes
func (k Kind) Neighborhood() bool {
	return handlers[k].neighborhood
}

// Apply runs the filter kernel over rect
func Apply(kind Kind, src *pixel.Snapshot, dst *pixel.Image, rect pixel.Rect) error {
	h, ok := handlers[kind]
	if !ok {
		return fmt.Errorf("%w: %d", ErrInvalidKind, int(kind))
	}

	if src.Width() != dst.Width || src.Height() != dst.Height {
		return fmt.Errorf("%w: snapshot is %dx%d, image is %dx%d", pixel.ErrInvalidGeometry, src.Width(), src.Height(), dst.Width, dst.Height)
	}

	if rect.Empty() || !rect.In(dst.Bounds()) {
		return fmt.Errorf("%w: block %s outside %s", pixel.ErrInvalidGeometry, rect, dst.Bounds())
	}

	h.kernel(src, dst, rect)
	return nil
}
