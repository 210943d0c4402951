package gpu

import (
	"encoding/binary"
	"math"
)

// Filter selects the resampling kernel evaluated by the shaders.
// The values match the MODE_* constants in shaders/resample.wgsl.
type Filter uint32

const (
	FilterCatmullRom Filter = 0
	FilterBilinear   Filter = 1
	FilterNearest    Filter = 2
)

// String returns the filter name.
func (f Filter) String() string {
	switch f {
	case FilterCatmullRom:
		return "catmullrom"
	case FilterBilinear:
		return "bilinear"
	case FilterNearest:
		return "nearest"
	default:
		return "unknown"
	}
}

// Uniform buffer sizes. WGSL rounds struct sizes up to their alignment,
// which is 8 bytes for the resize params and 16 for the tensorize params.
const (
	resizeParamsSize    = 24
	tensorizeParamsSize = 80
)

// resizeParams mirrors Params in shaders/resize.wgsl.
type resizeParams struct {
	inputW, inputH   uint32
	outputW, outputH uint32
	filter           Filter
}

func (p resizeParams) bytes() []byte {
	b := make([]byte, resizeParamsSize)
	le := binary.LittleEndian
	le.PutUint32(b[0:], p.inputW)
	le.PutUint32(b[4:], p.inputH)
	le.PutUint32(b[8:], p.outputW)
	le.PutUint32(b[12:], p.outputH)
	le.PutUint32(b[16:], uint32(p.filter))
	return b
}

// tensorizeParams mirrors Params in shaders/tensorize.wgsl. mean and std
// are padded to vec4; the fourth lane of std is 1 so the unused alpha lane
// never divides by zero.
type tensorizeParams struct {
	inputW, inputH   uint32
	outputW, outputH uint32
	scaledW, scaledH uint32
	cropX, cropY     uint32
	mean, std        [4]float32
	filter           Filter
}

func padVec4(v [3]float32, fill float32) [4]float32 {
	return [4]float32{v[0], v[1], v[2], fill}
}

func (p tensorizeParams) bytes() []byte {
	b := make([]byte, tensorizeParamsSize)
	le := binary.LittleEndian
	for i, u := range []uint32{p.inputW, p.inputH, p.outputW, p.outputH, p.scaledW, p.scaledH, p.cropX, p.cropY} {
		le.PutUint32(b[i*4:], u)
	}
	for i := range 4 {
		le.PutUint32(b[32+i*4:], math.Float32bits(p.mean[i]))
		le.PutUint32(b[48+i*4:], math.Float32bits(p.std[i]))
	}
	le.PutUint32(b[64:], uint32(p.filter))
	return b
}
