package gpu

import "fmt"

// CopyBytesPerRowAlignment is the required bytes-per-row alignment of a
// texture-to-buffer copy.
const CopyBytesPerRowAlignment = 256

// Bytes per texel of the two output formats.
const (
	rgba8BytesPerPixel   = 4
	rgba32fBytesPerPixel = 16
)

// RowPadding returns the number of bytes appended to a row of rowBytes so
// that the row length becomes a multiple of CopyBytesPerRowAlignment.
func RowPadding(rowBytes int) int {
	return (CopyBytesPerRowAlignment - rowBytes%CopyBytesPerRowAlignment) % CopyBytesPerRowAlignment
}

// PaddedBytesPerRow returns the aligned stride of a readback row.
func PaddedBytesPerRow(width, bytesPerPixel int) int {
	rowBytes := width * bytesPerPixel
	return rowBytes + RowPadding(rowBytes)
}

// StripRowPadding copies the visible part of every padded row into a tightly
// packed slice of exactly width*height*bytesPerPixel bytes. padded must hold
// exactly height padded rows.
func StripRowPadding(padded []byte, width, height, bytesPerPixel int) ([]byte, error) {
	rowBytes := width * bytesPerPixel
	stride := rowBytes + RowPadding(rowBytes)
	if len(padded) != stride*height {
		return nil, fmt.Errorf("%w: padded buffer is %d bytes, want %d (%d rows of %d)",
			ErrShapeMismatch, len(padded), stride*height, height, stride)
	}

	out := make([]byte, rowBytes*height)
	for y := range height {
		copy(out[y*rowBytes:(y+1)*rowBytes], padded[y*stride:y*stride+rowBytes])
	}
	return out, nil
}
