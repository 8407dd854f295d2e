package filter_test

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/DMarby/pixelbench/internal/filter"
	"github.com/DMarby/pixelbench/internal/pixel"
)

func randomImage(t testing.TB, width, height int, seed int64) *pixel.Image {
	t.Helper()

	m, err := pixel.New(width, height)
	if err != nil {
		t.Fatal(err)
	}

	random := rand.New(rand.NewSource(seed))
	random.Read(m.Pix)

	return m
}

func uniform(t testing.TB, width, height int, r, g, b uint8) *pixel.Image {
	t.Helper()

	m, err := pixel.New(width, height)
	if err != nil {
		t.Fatal(err)
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			m.SetRGB(x, y, r, g, b)
		}
	}

	return m
}

// apply runs a whole-image pass the way the engine does
func apply(t testing.TB, kind filter.Kind, m *pixel.Image) {
	t.Helper()

	if err := filter.Apply(kind, m.Snapshot(), m, m.Bounds()); err != nil {
		t.Fatal(err)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		Name     string
		Expected filter.Kind
		Error    bool
	}{
		{"grayscale", filter.Grayscale, false},
		{"Invert", filter.Invert, false},
		{" sepia ", filter.Sepia, false},
		{"blur", filter.GaussianBlur, false},
		{"edge", filter.EdgeDetection, false},
		{"sharpen", 0, true},
		{"", 0, true},
	}

	for _, test := range tests {
		kind, err := filter.Parse(test.Name)
		if test.Error {
			if !errors.Is(err, filter.ErrInvalidKind) {
				t.Errorf("%q: wrong error %v", test.Name, err)
			}
			continue
		}

		if err != nil {
			t.Errorf("%q: %s", test.Name, err)
			continue
		}

		if kind != test.Expected {
			t.Errorf("%q: got %s", test.Name, kind)
		}

		if roundTrip, _ := filter.Parse(kind.String()); roundTrip != kind {
			t.Errorf("%q: String() does not parse back", test.Name)
		}
	}
}

func TestKinds(t *testing.T) {
	neighborhood := map[filter.Kind]bool{
		filter.Grayscale:     false,
		filter.Invert:        false,
		filter.Sepia:         false,
		filter.GaussianBlur:  true,
		filter.EdgeDetection: true,
	}

	if len(filter.Kinds()) != len(neighborhood) {
		t.Fatalf("wrong number of kinds %d", len(filter.Kinds()))
	}

	for _, kind := range filter.Kinds() {
		if err := kind.Validate(); err != nil {
			t.Error(err)
		}
		if kind.Neighborhood() != neighborhood[kind] {
			t.Errorf("%s: wrong neighborhood flag", kind)
		}
	}

	if err := filter.Kind(42).Validate(); !errors.Is(err, filter.ErrInvalidKind) {
		t.Errorf("wrong error %v", err)
	}
}

func TestApplyErrors(t *testing.T) {
	m := randomImage(t, 8, 8, 1)
	other := randomImage(t, 4, 8, 1)

	tests := []struct {
		Name     string
		Kind     filter.Kind
		Snapshot *pixel.Snapshot
		Rect     pixel.Rect
		Expected error
	}{
		{"unknown kind", filter.Kind(-1), m.Snapshot(), m.Bounds(), filter.ErrInvalidKind},
		{"mismatched snapshot", filter.Invert, other.Snapshot(), m.Bounds(), pixel.ErrInvalidGeometry},
		{"out of bounds", filter.Invert, m.Snapshot(), pixel.Rect{X: 6, Y: 6, Width: 4, Height: 2}, pixel.ErrInvalidGeometry},
		{"empty rect", filter.Invert, m.Snapshot(), pixel.Rect{X: 1, Y: 1}, pixel.ErrInvalidGeometry},
	}

	for _, test := range tests {
		before := m.Clone()
		err := filter.Apply(test.Kind, test.Snapshot, m, test.Rect)
		if !errors.Is(err, test.Expected) {
			t.Errorf("%s: wrong error %v", test.Name, err)
		}
		if !m.Equal(before) {
			t.Errorf("%s: image modified on error", test.Name)
		}
	}
}

func TestGrayscale(t *testing.T) {
	t.Run("weights channels", func(t *testing.T) {
		m := uniform(t, 1, 1, 200, 100, 50)
		apply(t, filter.Grayscale, m)

		// (30*200 + 59*100 + 11*50) / 100
		if r, g, b := m.RGB(0, 0); r != 124 || g != 124 || b != 124 {
			t.Errorf("got %d %d %d", r, g, b)
		}
	})

	t.Run("is idempotent", func(t *testing.T) {
		once := randomImage(t, 31, 17, 2)
		apply(t, filter.Grayscale, once)

		twice := once.Clone()
		apply(t, filter.Grayscale, twice)

		if !once.Equal(twice) {
			t.Error("second pass changed pixels")
		}
	})
}

func TestInvert(t *testing.T) {
	t.Run("is an involution", func(t *testing.T) {
		original := randomImage(t, 23, 29, 3)
		m := original.Clone()
		apply(t, filter.Invert, m)
		apply(t, filter.Invert, m)

		if !m.Equal(original) {
			t.Error("double inversion did not restore the image")
		}
	})

	t.Run("swaps a checkerboard", func(t *testing.T) {
		m, _ := pixel.New(2, 2)
		m.SetRGB(0, 0, 255, 255, 255)
		m.SetRGB(1, 1, 255, 255, 255)

		apply(t, filter.Invert, m)

		expected := map[[2]int]uint8{{0, 0}: 0, {1, 0}: 255, {0, 1}: 255, {1, 1}: 0}
		for p, v := range expected {
			if r, g, b := m.RGB(p[0], p[1]); r != v || g != v || b != v {
				t.Errorf("pixel %v: got %d %d %d, want %d", p, r, g, b, v)
			}
		}
	})
}

func TestSepia(t *testing.T) {
	tests := []struct {
		In  [3]uint8
		Out [3]uint8
	}{
		{[3]uint8{0, 0, 0}, [3]uint8{0, 0, 0}},
		{[3]uint8{255, 255, 255}, [3]uint8{255, 255, 238}},
		{[3]uint8{100, 50, 20}, [3]uint8{81, 72, 56}},
	}

	for _, test := range tests {
		m := uniform(t, 1, 1, test.In[0], test.In[1], test.In[2])
		apply(t, filter.Sepia, m)

		if r, g, b := m.RGB(0, 0); [3]uint8{r, g, b} != test.Out {
			t.Errorf("%v: got %d %d %d, want %v", test.In, r, g, b, test.Out)
		}
	}
}

func TestGaussianBlur(t *testing.T) {
	t.Run("uniform field is a fixed point", func(t *testing.T) {
		m := uniform(t, 4, 4, 100, 100, 100)
		original := m.Clone()
		apply(t, filter.GaussianBlur, m)

		if !m.Equal(original) {
			t.Error("uniform gray image changed")
		}
	})

	t.Run("clamps at the border", func(t *testing.T) {
		m, _ := pixel.New(3, 1)
		m.SetRGB(0, 0, 160, 0, 0)

		apply(t, filter.GaussianBlur, m)

		// Corner (0,0): rows clamp onto y=0, so the weights fold to 4*(x=-1 -> 0) + 8*(x=0) + 4*(x=1)
		if r, _, _ := m.RGB(0, 0); r != (12*160)/16 {
			t.Errorf("corner got %d", r)
		}
		if r, _, _ := m.RGB(1, 0); r != (4*160)/16 {
			t.Errorf("middle got %d", r)
		}
		if r, _, _ := m.RGB(2, 0); r != 0 {
			t.Errorf("far edge got %d", r)
		}
	})
}

func TestEdgeDetection(t *testing.T) {
	t.Run("leaves the border unchanged", func(t *testing.T) {
		original := randomImage(t, 13, 9, 4)
		m := original.Clone()
		apply(t, filter.EdgeDetection, m)

		for y := 0; y < m.Height; y++ {
			for x := 0; x < m.Width; x++ {
				if x != 0 && x != m.Width-1 && y != 0 && y != m.Height-1 {
					continue
				}

				r, g, b := m.RGB(x, y)
				or, og, ob := original.RGB(x, y)
				if r != or || g != og || b != ob {
					t.Fatalf("border pixel %d,%d changed", x, y)
				}
			}
		}
	})

	t.Run("flat field has no edges", func(t *testing.T) {
		m := uniform(t, 5, 5, 80, 120, 200)
		apply(t, filter.EdgeDetection, m)

		if r, g, b := m.RGB(2, 2); r != 0 || g != 0 || b != 0 {
			t.Errorf("got %d %d %d", r, g, b)
		}
	})

	t.Run("vertical step saturates", func(t *testing.T) {
		m, _ := pixel.New(4, 3)
		for y := 0; y < 3; y++ {
			m.SetRGB(2, y, 255, 255, 255)
			m.SetRGB(3, y, 255, 255, 255)
		}

		apply(t, filter.EdgeDetection, m)

		// Gx = 4 * 255 at x=1, well above the clamp
		if r, g, b := m.RGB(1, 1); r != 255 || g != 255 || b != 255 {
			t.Errorf("got %d %d %d", r, g, b)
		}
	})

	t.Run("blocks on the interior are filtered at their edges", func(t *testing.T) {
		original := randomImage(t, 10, 10, 5)

		whole := original.Clone()
		apply(t, filter.EdgeDetection, whole)

		split := original.Clone()
		snapshot := split.Snapshot()
		for _, rect := range []pixel.Rect{{X: 0, Y: 0, Width: 5, Height: 10}, {X: 5, Y: 0, Width: 5, Height: 10}} {
			if err := filter.Apply(filter.EdgeDetection, snapshot, split, rect); err != nil {
				t.Fatal(err)
			}
		}

		if !whole.Equal(split) {
			t.Error("split pass differs from whole-image pass")
		}
	})
}

func BenchmarkKernels(b *testing.B) {
	m := randomImage(b, 512, 512, 6)

	for _, kind := range filter.Kinds() {
		b.Run(kind.String(), func(b *testing.B) {
			snapshot := m.Snapshot()
			for i := 0; i < b.N; i++ {
				_ = filter.Apply(kind, snapshot, m, m.Bounds())
			}
		})
	}
}
