// Package image is the image source and sink used by imgtensor.
//
// It decodes files into a tightly packed, non-premultiplied RGBA8 buffer and
// encodes such buffers back to disk. Decoders for PNG, JPEG, GIF, WebP, BMP
// and TIFF are registered.
package image

import (
	"errors"
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// BytesPerPixel is the size of one RGBA8 pixel.
const BytesPerPixel = 4

// Common errors for image operations.
var (
	// ErrIO is wrapped by every decode, encode, open and create failure.
	ErrIO = errors.New("image: I/O failed")

	// ErrInvalidDimensions is returned when width or height is non-positive.
	ErrInvalidDimensions = errors.New("image: invalid dimensions")

	// ErrDataSize is returned when pixel data does not match width*height*4.
	ErrDataSize = errors.New("image: data size does not match dimensions")
)

// Buf is a tightly packed RGBA8 image with straight (non-premultiplied)
// alpha. Rows are width*4 bytes with no padding.
//
// Buf is safe for concurrent reads.
type Buf struct {
	pix    []byte
	width  int
	height int
}

// New allocates a zeroed buffer.
func New(width, height int) (*Buf, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	return &Buf{
		pix:    make([]byte, width*height*BytesPerPixel),
		width:  width,
		height: height,
	}, nil
}

// FromRGBA8 wraps pix without copying. len(pix) must be exactly
// width*height*4.
func FromRGBA8(pix []byte, width, height int) (*Buf, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	if want := width * height * BytesPerPixel; len(pix) != want {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrDataSize, len(pix), want)
	}
	return &Buf{pix: pix, width: width, height: height}, nil
}

// FromImage converts any image.Image to a Buf. The origin of the result is
// always (0, 0). An *image.NRGBA with a tight stride is copied directly.
func FromImage(img image.Image) *Buf {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	buf := &Buf{
		pix:    make([]byte, w*h*BytesPerPixel),
		width:  w,
		height: h,
	}

	if n, ok := img.(*image.NRGBA); ok && n.Stride == w*BytesPerPixel && n.Rect.Min == (image.Point{}) {
		copy(buf.pix, n.Pix)
		return buf
	}

	dst := &image.NRGBA{Pix: buf.pix, Stride: w * BytesPerPixel, Rect: image.Rect(0, 0, w, h)}
	draw.Draw(dst, dst.Rect, img, b.Min, draw.Src)
	return buf
}

// Width returns the image width in pixels.
func (b *Buf) Width() int { return b.width }

// Height returns the image height in pixels.
func (b *Buf) Height() int { return b.height }

// Stride returns the row length in bytes.
func (b *Buf) Stride() int { return b.width * BytesPerPixel }

// Data returns the underlying pixel bytes. The slice is shared with b.
func (b *Buf) Data() []byte { return b.pix }

// At returns the RGBA components of the pixel at (x, y).
// It panics if the coordinates are out of range.
func (b *Buf) At(x, y int) (r, g, bl, a uint8) {
	if x < 0 || y < 0 || x >= b.width || y >= b.height {
		panic(fmt.Sprintf("image: At(%d, %d) out of bounds %dx%d", x, y, b.width, b.height))
	}
	i := y*b.Stride() + x*BytesPerPixel
	return b.pix[i], b.pix[i+1], b.pix[i+2], b.pix[i+3]
}

// NRGBA returns an *image.NRGBA view that shares b's pixels.
func (b *Buf) NRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    b.pix,
		Stride: b.Stride(),
		Rect:   image.Rect(0, 0, b.width, b.height),
	}
}
