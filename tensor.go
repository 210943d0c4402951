package imgtensor

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"slices"

	"github.com/x448/float16"
)

// Tensor is a dense row-major float32 array. Images are (3, H, W) with
// channels R, G, B; batches are (N, 3, H, W).
type Tensor struct {
	Shape []int
	Data  []float32
}

// NewTensor wraps data with shape. The product of shape must equal
// len(data).
func NewTensor(shape []int, data []float32) (Tensor, error) {
	n := 1
	for _, d := range shape {
		if d <= 0 {
			return Tensor{}, fmt.Errorf("%w: non-positive dimension in %v", ErrShapeMismatch, shape)
		}
		n *= d
	}
	if n != len(data) {
		return Tensor{}, fmt.Errorf("%w: shape %v holds %d elements, data has %d", ErrShapeMismatch, shape, n, len(data))
	}
	return Tensor{Shape: slices.Clone(shape), Data: data}, nil
}

// Len returns the number of elements.
func (t Tensor) Len() int { return len(t.Data) }

// Rank returns the number of dimensions.
func (t Tensor) Rank() int { return len(t.Shape) }

// At returns the element at idx. It panics if len(idx) differs from the
// rank or an index is out of range.
func (t Tensor) At(idx ...int) float32 {
	if len(idx) != len(t.Shape) {
		panic(fmt.Sprintf("imgtensor: At with %d indices on rank %d tensor", len(idx), len(t.Shape)))
	}
	off := 0
	for i, v := range idx {
		if v < 0 || v >= t.Shape[i] {
			panic(fmt.Sprintf("imgtensor: index %v out of range for shape %v", idx, t.Shape))
		}
		off = off*t.Shape[i] + v
	}
	return t.Data[off]
}

// WithBatch returns t with a leading batch axis of size 1. The data is
// shared, not copied.
func (t Tensor) WithBatch() Tensor {
	return Tensor{Shape: append([]int{1}, t.Shape...), Data: t.Data}
}

// StackBatch concatenates tensors of identical shape along a new leading
// axis, giving (N, ...).
func StackBatch(ts ...Tensor) (Tensor, error) {
	if len(ts) == 0 {
		return Tensor{}, fmt.Errorf("%w: no tensors to stack", ErrShapeMismatch)
	}
	shape := ts[0].Shape
	data := make([]float32, 0, len(ts)*ts[0].Len())
	for i, t := range ts {
		if !slices.Equal(t.Shape, shape) {
			return Tensor{}, fmt.Errorf("%w: tensor %d has shape %v, want %v", ErrShapeMismatch, i, t.Shape, shape)
		}
		data = append(data, t.Data...)
	}
	return Tensor{Shape: append([]int{len(ts)}, shape...), Data: data}, nil
}

// DType is an element encoding for Encode.
type DType int

const (
	Float32 DType = iota
	Float16
)

// String returns "f32" or "f16".
func (d DType) String() string {
	switch d {
	case Float32:
		return "f32"
	case Float16:
		return "f16"
	default:
		return fmt.Sprintf("DType(%d)", int(d))
	}
}

// ParseDType parses "f32"/"float32" or "f16"/"float16".
func ParseDType(s string) (DType, error) {
	switch foldName(s) {
	case "f32", "float32", "fp32":
		return Float32, nil
	case "f16", "float16", "fp16", "half":
		return Float16, nil
	default:
		return 0, fmt.Errorf("%w: unknown dtype %q", ErrInvalidConfig, s)
	}
}

// Float16 converts the data to IEEE 754 half precision, rounding to
// nearest even.
func (t Tensor) Float16() []float16.Float16 {
	out := make([]float16.Float16, len(t.Data))
	for i, v := range t.Data {
		out[i] = float16.Fromfloat32(v)
	}
	return out
}

// Encode writes the raw elements to w in little-endian order. No header is
// written; the shape is the caller's to record.
func (t Tensor) Encode(w io.Writer, dt DType) error {
	bw := bufio.NewWriter(w)
	var buf [4]byte
	switch dt {
	case Float32:
		for _, v := range t.Data {
			binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
			if _, err := bw.Write(buf[:4]); err != nil {
				return fmt.Errorf("%w: write tensor: %w", ErrIO, err)
			}
		}
	case Float16:
		for _, h := range t.Float16() {
			binary.LittleEndian.PutUint16(buf[:], h.Bits())
			if _, err := bw.Write(buf[:2]); err != nil {
				return fmt.Errorf("%w: write tensor: %w", ErrIO, err)
			}
		}
	default:
		return fmt.Errorf("%w: unknown dtype %d", ErrInvalidConfig, int(dt))
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: write tensor: %w", ErrIO, err)
	}
	return nil
}
