// Package raster holds the in-memory RGB image the transport and similarity
// code operate on.
package raster

import (
	"fmt"
	"image"
	"image/color"

	"github.com/pkg/errors"
)

// Channels is the number of color channels per pixel.
const Channels = 3

var (
	// ErrShapeMismatch is matched by every *ShapeMismatchError.
	ErrShapeMismatch = errors.New("image shapes differ")
	// ErrEmptyImage is returned for images with a zero width or height.
	ErrEmptyImage = errors.New("image has no pixels")
)

// Shape is an image's (width, height, channels) triple.
type Shape struct {
	Width    int
	Height   int
	Channels int
}

func (s Shape) String() string {
	return fmt.Sprintf("%dx%dx%d", s.Width, s.Height, s.Channels)
}

// ShapeMismatchError reports two images that were required to have equal shapes.
type ShapeMismatchError struct {
	Got  Shape
	Want Shape
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("shape mismatch: got %s, want %s", e.Got, e.Want)
}

func (e *ShapeMismatchError) Is(target error) bool {
	return target == ErrShapeMismatch
}

// Image is a W×H grid of 8-bit RGB pixels stored row-major and interleaved.
type Image struct {
	Width  int
	Height int
	Pix    []uint8
}

// New allocates a zeroed image.
func New(width, height int) *Image {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Image{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*Channels),
	}
}

func (m *Image) Shape() Shape {
	return Shape{Width: m.Width, Height: m.Height, Channels: Channels}
}

// Empty reports whether the image has no pixels.
func (m *Image) Empty() bool {
	return m.Width <= 0 || m.Height <= 0
}

// Offset returns the index of the red channel of pixel (x, y) in Pix.
func (m *Image) Offset(x, y int) int {
	return (y*m.Width + x) * Channels
}

func (m *Image) RGB(x, y int) (r, g, b uint8) {
	i := m.Offset(x, y)
	return m.Pix[i], m.Pix[i+1], m.Pix[i+2]
}

func (m *Image) SetRGB(x, y int, r, g, b uint8) {
	i := m.Offset(x, y)
	m.Pix[i], m.Pix[i+1], m.Pix[i+2] = r, g, b
}

// Clone returns a deep copy.
func (m *Image) Clone() *Image {
	out := &Image{Width: m.Width, Height: m.Height, Pix: make([]uint8, len(m.Pix))}
	copy(out.Pix, m.Pix)
	return out
}

// Equal reports whether both images have the same shape and bytes.
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

// CheckShapes returns a *ShapeMismatchError if got and want differ.
func CheckShapes(got, want *Image) error {
	if got.Shape() != want.Shape() {
		return &ShapeMismatchError{Got: got.Shape(), Want: want.Shape()}
	}
	return nil
}

// FromImage converts any image.Image to RGB, dropping alpha without
// premultiplying.
func FromImage(src image.Image) *Image {
	b := src.Bounds()
	out := New(b.Dx(), b.Dy())

	if n, ok := src.(*image.NRGBA); ok {
		for y := 0; y < out.Height; y++ {
			row := n.Pix[(y+b.Min.Y-n.Rect.Min.Y)*n.Stride+(b.Min.X-n.Rect.Min.X)*4:]
			for x := 0; x < out.Width; x++ {
				out.SetRGB(x, y, row[x*4], row[x*4+1], row[x*4+2])
			}
		}
		return out
	}

	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			c := color.NRGBAModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			out.SetRGB(x, y, c.R, c.G, c.B)
		}
	}
	return out
}

// ToNRGBA returns an opaque image.NRGBA copy suitable for encoders and
// x/image/draw.
func (m *Image) ToNRGBA() *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, m.Width, m.Height))
	for i, j := 0, 0; i < len(m.Pix); i, j = i+Channels, j+4 {
		out.Pix[j] = m.Pix[i]
		out.Pix[j+1] = m.Pix[i+1]
		out.Pix[j+2] = m.Pix[i+2]
		out.Pix[j+3] = 0xff
	}
	return out
}
