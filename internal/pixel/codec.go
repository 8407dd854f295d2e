package pixel

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	// Register additional decoders
	_ "golang.org/x/image/webp"
)

// Format is an encoded image format
type Format int

const (
	// PNG represents the PNG format
	PNG Format = iota
	// JPEG represents the JPEG format
	JPEG
	// BMP represents the BMP format
	BMP
	// TIFF represents the TIFF format
	TIFF
)

// Errors
var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
)

const jpegQuality = 90

// FormatFromExtension returns the format for a file extension such as ".png"
func FormatFromExtension(extension string) (Format, error) {
	switch strings.ToLower(extension) {
	case ".png":
		return PNG, nil
	case ".jpg", ".jpeg":
		return JPEG, nil
	case ".bmp":
		return BMP, nil
	case ".tif", ".tiff":
		return TIFF, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, extension)
	}
}

// ContentType returns the media type of the format
func (f Format) ContentType() string {
	switch f {
	case JPEG:
		return "image/jpeg"
	case BMP:
		return "image/bmp"
	case TIFF:
		return "image/tiff"
	default:
		return "image/png"
	}
}

// Decode reads an encoded image (png, jpeg, bmp, tiff or webp) into an Image
func Decode(r io.Reader) (*Image, error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("error decoding image: %w", err)
	}

	return FromImage(src)
}

// FromImage converts any image.Image into an Image, dropping alpha
func FromImage(src image.Image) (*Image, error) {
	b := src.Bounds()
	m, err := New(b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}

	if rgba, ok := src.(*image.RGBA); ok {
		for y := 0; y < m.Height; y++ {
			row := rgba.Pix[y*rgba.Stride : y*rgba.Stride+m.Width*4]
			for x := 0; x < m.Width; x++ {
				m.SetRGB(x, y, row[x*4], row[x*4+1], row[x*4+2])
			}
		}
		return m, nil
	}

	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			c := color.RGBAModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.RGBA)
			m.SetRGB(x, y, c.R, c.G, c.B)
		}
	}

	return m, nil
}

// ToRGBA converts the image into an opaque image.RGBA
func (m *Image) ToRGBA() *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, m.Width, m.Height))
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			i := dst.PixOffset(x, y)
			r, g, b := m.RGB(x, y)
			dst.Pix[i], dst.Pix[i+1], dst.Pix[i+2], dst.Pix[i+3] = r, g, b, 0xff
		}
	}

	return dst
}

// Encode writes the image to w in the given format
func Encode(w io.Writer, m *Image, format Format) error {
	rgba := m.ToRGBA()

	var err error
	switch format {
	case PNG:
		err = png.Encode(w, rgba)
	case JPEG:
		err = jpeg.Encode(w, rgba, &jpeg.Options{Quality: jpegQuality})
	case BMP:
		err = bmp.Encode(w, rgba)
	case TIFF:
		err = tiff.Encode(w, rgba, &tiff.Options{Compression: tiff.Deflate})
	default:
		return ErrUnsupportedFormat
	}

	if err != nil {
		return fmt.Errorf("error encoding image: %w", err)
	}

	return nil
}
