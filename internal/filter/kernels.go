package filter

import (
	"math"

	"github.com/DMarby/pixelbench/internal/pixel"
)

var gaussian = [3][3]int{
	{1, 2, 1},
	{2, 4, 2},
	{1, 2, 1},
}

const gaussianWeight = 16

var sobelX = [3][3]int{
	{-1, 0, 1},
	{-2, 0, 2},
	{-1, 0, 1},
}

var sobelY = [3][3]int{
	{-1, -2, -1},
	{0, 0, 0},
	{1, 2, 1},
}

// luminance weights the channels 0.3, 0.59 and 0.11, truncating
func luminance(r, g, b uint8) int {
	return (30*int(r) + 59*int(g) + 11*int(b)) / 100
}

func clamp8(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func grayscale(src *pixel.Snapshot, dst *pixel.Image, rect pixel.Rect) {
	for y := rect.Y; y < rect.Y+rect.Height; y++ {
		for x := rect.X; x < rect.X+rect.Width; x++ {
			gray := uint8(luminance(src.RGB(x, y)))
			dst.SetRGB(x, y, gray, gray, gray)
		}
	}
}

func invert(src *pixel.Snapshot, dst *pixel.Image, rect pixel.Rect) {
	for y := rect.Y; y < rect.Y+rect.Height; y++ {
		for x := rect.X; x < rect.X+rect.Width; x++ {
			r, g, b := src.RGB(x, y)
			dst.SetRGB(x, y, 255-r, 255-g, 255-b)
		}
	}
}

func sepia(src *pixel.Snapshot, dst *pixel.Image, rect pixel.Rect) {
	for y := rect.Y; y < rect.Y+rect.Height; y++ {
		for x := rect.X; x < rect.X+rect.Width; x++ {
			r, g, b := src.RGB(x, y)
			ir, ig, ib := int(r), int(g), int(b)
			dst.SetRGB(x, y,
				clamp8((393*ir+769*ig+189*ib)/1000),
				clamp8((349*ir+686*ig+168*ib)/1000),
				clamp8((272*ir+534*ig+131*ib)/1000),
			)
		}
	}
}

func gaussianBlur(src *pixel.Snapshot, dst *pixel.Image, rect pixel.Rect) {
	for y := rect.Y; y < rect.Y+rect.Height; y++ {
		for x := rect.X; x < rect.X+rect.Width; x++ {
			var sr, sg, sb int
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					w := gaussian[ky+1][kx+1]
					r, g, b := src.Clamped(x+kx, y+ky)
					sr += w * int(r)
					sg += w * int(g)
					sb += w * int(b)
				}
			}
			dst.SetRGB(x, y, clamp8(sr/gaussianWeight), clamp8(sg/gaussianWeight), clamp8(sb/gaussianWeight))
		}
	}
}

// edgeDetection leaves the outermost pixel ring of the image untouched
func edgeDetection(src *pixel.Snapshot, dst *pixel.Image, rect pixel.Rect) {
	x0, y0 := max(rect.X, 1), max(rect.Y, 1)
	x1, y1 := min(rect.X+rect.Width, dst.Width-1), min(rect.Y+rect.Height, dst.Height-1)

	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			var gx, gy int
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					l := luminance(src.RGB(x+kx, y+ky))
					gx += sobelX[ky+1][kx+1] * l
					gy += sobelY[ky+1][kx+1] * l
				}
			}
			magnitude := clamp8(int(math.Sqrt(float64(gx*gx + gy*gy))))
			dst.SetRGB(x, y, magnitude, magnitude, magnitude)
		}
	}
}
