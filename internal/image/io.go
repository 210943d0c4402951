package image

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // register GIF decoder
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder
)

// DefaultJPEGQuality is used by Save for .jpg and .jpeg paths.
const DefaultJPEGQuality = 95

// Open decodes the image file at path, auto-detecting the format.
func Open(path string) (image.Image, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("%w: open file: %w", ErrIO, err)
	}
	defer func() { _ = f.Close() }()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrIO, filepath.Base(path), err)
	}
	return img, nil
}

// Load decodes the image file at path into a Buf.
func Load(path string) (*Buf, error) {
	img, err := Open(path)
	if err != nil {
		return nil, err
	}
	return FromImage(img), nil
}

// Decode decodes an image from r, auto-detecting the format.
func Decode(r io.Reader) (*Buf, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrIO, err)
	}
	return FromImage(img), nil
}

// DecodeBytes decodes an encoded image held in memory.
func DecodeBytes(data []byte) (*Buf, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty data", ErrIO)
	}
	return Decode(bytes.NewReader(data))
}

// Save encodes img to path. The format is chosen from the extension:
// .jpg and .jpeg produce JPEG, anything else produces PNG.
func Save(img image.Image, path string) error {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("%w: create file: %w", ErrIO, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		err = EncodeJPEG(f, img, DefaultJPEGQuality)
	default:
		err = EncodePNG(f, img)
	}
	if err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close file: %w", ErrIO, err)
	}
	return nil
}

// Save encodes b to path. See the package-level Save for format selection.
func (b *Buf) Save(path string) error {
	return Save(b.NRGBA(), path)
}

// EncodePNG encodes img as PNG to w.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("%w: encode PNG: %w", ErrIO, err)
	}
	return nil
}

// EncodeJPEG encodes img as JPEG to w with the given quality (1-100).
func EncodeJPEG(w io.Writer, img image.Image, quality int) error {
	quality = max(1, min(quality, 100))
	if err := jpeg.Encode(w, img, &jpeg.Options{Quality: quality}); err != nil {
		return fmt.Errorf("%w: encode JPEG: %w", ErrIO, err)
	}
	return nil
}
