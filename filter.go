package imgtensor

import (
	"fmt"

	"golang.org/x/image/draw"

	"github.com/gogpu/imgtensor/internal/gpu"
)

// Filter selects the resampling kernel.
type Filter int

const (
	// CatmullRom is the bicubic Catmull-Rom kernel. It is the default.
	CatmullRom Filter = iota
	// Bilinear is the tent kernel.
	Bilinear
	// ApproxBilinear is a faster bilinear approximation on the CPU. The GPU
	// evaluates it as Bilinear.
	ApproxBilinear
	// Nearest picks the closest source pixel.
	Nearest
)

var filterNames = [...]string{
	CatmullRom:     "catmullrom",
	Bilinear:       "bilinear",
	ApproxBilinear: "approxbilinear",
	Nearest:        "nearest",
}

// String returns the canonical filter name.
func (f Filter) String() string {
	if f.valid() {
		return filterNames[f]
	}
	return fmt.Sprintf("Filter(%d)", int(f))
}

func (f Filter) valid() bool {
	return f >= CatmullRom && f <= Nearest
}

// ParseFilter parses a filter name case-insensitively. Besides the
// canonical names it accepts "catmull-rom", "bicubic", "linear" and
// "nearestneighbor".
func ParseFilter(s string) (Filter, error) {
	switch foldName(s) {
	case "catmullrom", "catmull-rom", "bicubic", "cubic":
		return CatmullRom, nil
	case "bilinear", "linear":
		return Bilinear, nil
	case "approxbilinear", "approx-bilinear":
		return ApproxBilinear, nil
	case "nearest", "nearestneighbor", "nearest-neighbor":
		return Nearest, nil
	default:
		return 0, fmt.Errorf("%w: unknown filter %q", ErrInvalidConfig, s)
	}
}

// Set implements pflag.Value so a Filter can be bound to a flag.
func (f *Filter) Set(s string) error {
	v, err := ParseFilter(s)
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// Type implements pflag.Value.
func (*Filter) Type() string { return "filter" }

// interpolator returns the x/image/draw implementation used by the CPU
// backend.
func (f Filter) interpolator() draw.Interpolator {
	switch f {
	case Bilinear:
		return draw.BiLinear
	case ApproxBilinear:
		return draw.ApproxBiLinear
	case Nearest:
		return draw.NearestNeighbor
	default:
		return draw.CatmullRom
	}
}

// gpuFilter returns the shader mode for f.
func (f Filter) gpuFilter() gpu.Filter {
	switch f {
	case Bilinear, ApproxBilinear:
		return gpu.FilterBilinear
	case Nearest:
		return gpu.FilterNearest
	default:
		return gpu.FilterCatmullRom
	}
}
