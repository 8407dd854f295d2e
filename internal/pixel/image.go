package pixel

import (
	"errors"
	"fmt"
)

// Channels is the number of 8-bit channels stored per pixel
const Channels = 3

// Errors
var (
	ErrInvalidGeometry = errors.New("invalid geometry")
)

// Rect is a rectangular region of an image, as an index range
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Empty reports whether the rect contains no pixels
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Area returns the number of pixels in the rect
func (r Rect) Area() int {
	if r.Empty() {
		return 0
	}
	return r.Width * r.Height
}

// In reports whether r lies entirely within bounds
func (r Rect) In(bounds Rect) bool {
	return r.X >= bounds.X && r.Y >= bounds.Y &&
		r.X+r.Width <= bounds.X+bounds.Width &&
		r.Y+r.Height <= bounds.Y+bounds.Height
}

func (r Rect) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

// Image is a mutable grid of packed RGB pixels, stored row-major
type Image struct {
	Width  int
	Height int
	Pix    []uint8
}

// New allocates a black image of the given size
func New(width, height int) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: image size %dx%d", ErrInvalidGeometry, width, height)
	}

	return &Image{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*Channels),
	}, nil
}

// Bounds returns the rect covering the whole image
func (m *Image) Bounds() Rect {
	return Rect{Width: m.Width, Height: m.Height}
}

// Validate checks that the pixel store matches the image dimensions
func (m *Image) Validate() error {
	if m == nil {
		return fmt.Errorf("%w: nil image", ErrInvalidGeometry)
	}

	if m.Width <= 0 || m.Height <= 0 {
		return fmt.Errorf("%w: image size %dx%d", ErrInvalidGeometry, m.Width, m.Height)
	}

	if len(m.Pix) != m.Width*m.Height*Channels {
		return fmt.Errorf("%w: pixel store holds %d bytes, want %d", ErrInvalidGeometry, len(m.Pix), m.Width*m.Height*Channels)
	}

	return nil
}

// Offset returns the index of the first channel of the pixel at x, y
func (m *Image) Offset(x, y int) int {
	return (y*m.Width + x) * Channels
}

// RGB returns the pixel at x, y
func (m *Image) RGB(x, y int) (r, g, b uint8) {
	i := m.Offset(x, y)
	return m.Pix[i], m.Pix[i+1], m.Pix[i+2]
}

// SetRGB sets the pixel at x, y
func (m *Image) SetRGB(x, y int, r, g, b uint8) {
	i := m.Offset(x, y)
	m.Pix[i], m.Pix[i+1], m.Pix[i+2] = r, g, b
}

// Clone returns a deep copy of the image
func (m *Image) Clone() *Image {
	pix := make([]uint8, len(m.Pix))
	copy(pix, m.Pix)

	return &Image{
		Width:  m.Width,
		Height: m.Height,
		Pix:    pix,
	}
}

// Equal reports whether both images have the same size and pixels
func (m *Image) Equal(o *Image) bool {
	if m.Width != o.Width || m.Height != o.Height || len(m.Pix) != len(o.Pix) {
		return false
	}

	for i := range m.Pix {
		if m.Pix[i] != o.Pix[i] {
			return false
		}
	}

	return true
}

// Snapshot is a read-only view of an image's pixels
type Snapshot struct {
	width  int
	height int
	pix    []uint8
}

// Snapshot copies the current pixels into an immutable snapshot
func (m *Image) Snapshot() *Snapshot {
	pix := make([]uint8, len(m.Pix))
	copy(pix, m.Pix)

	return &Snapshot{
		width:  m.Width,
		height: m.Height,
		pix:    pix,
	}
}

// Alias returns a snapshot that shares the image's pixel store.
// It is only valid for pointwise passes, where every pixel is read once by
// the same block that writes it, before it is written.
func (m *Image) Alias() *Snapshot {
	return &Snapshot{
		width:  m.Width,
		height: m.Height,
		pix:    m.Pix,
	}
}

// Width returns the snapshot width
func (s *Snapshot) Width() int {
	return s.width
}

// Height returns the snapshot height
func (s *Snapshot) Height() int {
	return s.height
}

// Bounds returns the rect covering the whole snapshot
func (s *Snapshot) Bounds() Rect {
	return Rect{Width: s.width, Height: s.height}
}

// RGB returns the pixel at x, y
func (s *Snapshot) RGB(x, y int) (r, g, b uint8) {
	i := (y*s.width + x) * Channels
	return s.pix[i], s.pix[i+1], s.pix[i+2]
}

// Clamped returns the pixel at x, y with the coordinates clamped into the snapshot bounds
func (s *Snapshot) Clamped(x, y int) (r, g, b uint8) {
	return s.RGB(clamp(x, 0, s.width-1), clamp(y, 0, s.height-1))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
