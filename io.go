package imgtensor

import (
	"image"

	intImage "github.com/gogpu/imgtensor/internal/image"
)

// LoadImage decodes the image file at path. PNG, JPEG, GIF, WebP, BMP and
// TIFF are recognized. Failures wrap ErrIO.
func LoadImage(path string) (image.Image, error) {
	return intImage.Open(path)
}

// SaveImage encodes img to path: JPEG for .jpg and .jpeg, PNG otherwise.
// Failures wrap ErrIO.
func SaveImage(img image.Image, path string) error {
	return intImage.Save(img, path)
}
