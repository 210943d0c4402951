package imgtensor

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
)

// DefaultTolerance bounds the per-element difference expected between the
// CPU and GPU backends for the same Config and input.
const DefaultTolerance = 0.05

// Diff summarizes the element-wise difference of two tensors.
type Diff struct {
	L2      float64 // Euclidean norm of a-b
	MaxAbs  float64 // largest |a-b|
	MeanAbs float64 // mean |a-b|
}

// Within reports whether MaxAbs is below tol.
func (d Diff) Within(tol float64) bool { return d.MaxAbs < tol }

// String implements fmt.Stringer.
func (d Diff) String() string {
	return fmt.Sprintf("l2=%.6g max=%.6g mean=%.6g", d.L2, d.MaxAbs, d.MeanAbs)
}

// Compare measures how far apart a and b are. It is a diagnostic, used to
// check backends against each other; a and b must have the same shape.
func Compare(a, b Tensor) (Diff, error) {
	if !slices.Equal(a.Shape, b.Shape) || a.Len() != b.Len() {
		return Diff{}, fmt.Errorf("%w: comparing %v with %v", ErrShapeMismatch, a.Shape, b.Shape)
	}
	if a.Len() == 0 {
		return Diff{}, nil
	}
	x, y := widen(a.Data), widen(b.Data)
	return Diff{
		L2:      floats.Distance(x, y, 2),
		MaxAbs:  floats.Distance(x, y, math.Inf(1)),
		MeanAbs: floats.Distance(x, y, 1) / float64(len(x)),
	}, nil
}

func widen(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}
