package gpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"

	intImage "github.com/gogpu/imgtensor/internal/image"
)

// TensorizeConfig is the geometry and normalization of a TensorizeEngine.
type TensorizeConfig struct {
	// Width and Height are the resample target before cropping.
	Width, Height int
	// Crop is the side of the centered square that is emitted.
	Crop      int
	Mean, Std [3]float32
	Filter    Filter
}

// cropOrigin returns the top-left corner of the centered crop.
func (c TensorizeConfig) cropOrigin() (x, y int) {
	return (c.Width - c.Crop) / 2, (c.Height - c.Crop) / 2
}

// TensorizeEngine resamples, crops and normalizes images on the GPU and
// returns them as channel-major float32 data.
//
// The crop is applied in the shader: the output texture is Crop×Crop and
// each invocation evaluates the Width×Height resample at its offset pixel.
// No crop happens after readback.
type TensorizeEngine struct {
	*engine
	cfg TensorizeConfig
}

// NewTensorizeEngine builds the tensorize pipeline on gctx.
func NewTensorizeEngine(gctx *Context, cfg TensorizeConfig) (*TensorizeEngine, error) {
	if cfg.Crop <= 0 || cfg.Crop > cfg.Width || cfg.Crop > cfg.Height {
		return nil, fmt.Errorf("gpu: crop %d does not fit %dx%d", cfg.Crop, cfg.Width, cfg.Height)
	}
	e, err := newEngine(gctx, "tensorize", tensorizeShaderSource, gputypes.TextureFormatRGBA32Float, rgba32fBytesPerPixel)
	if err != nil {
		return nil, err
	}
	return &TensorizeEngine{engine: e, cfg: cfg}, nil
}

// Config returns the engine configuration.
func (t *TensorizeEngine) Config() TensorizeConfig { return t.cfg }

// Tensorize returns 3*Crop*Crop floats laid out as (channel, y, x) with
// channels R, G, B.
func (t *TensorizeEngine) Tensorize(src *intImage.Buf) ([]float32, error) {
	c := t.cfg
	cx, cy := c.cropOrigin()
	params := tensorizeParams{
		inputW:  uint32(src.Width()),  //nolint:gosec // checked against device limits in run
		inputH:  uint32(src.Height()), //nolint:gosec // checked against device limits in run
		outputW: uint32(c.Crop),       //nolint:gosec // positive
		outputH: uint32(c.Crop),       //nolint:gosec // positive
		scaledW: uint32(c.Width),      //nolint:gosec // positive
		scaledH: uint32(c.Height),     //nolint:gosec // positive
		cropX:   uint32(cx),           //nolint:gosec // non-negative
		cropY:   uint32(cy),           //nolint:gosec // non-negative
		mean:    padVec4(c.Mean, 0),
		std:     padVec4(c.Std, 1),
		filter:  c.Filter,
	}

	raw, err := t.run(src, c.Crop, c.Crop, params.bytes())
	if err != nil {
		return nil, err
	}
	return decodeCHW(raw, c.Crop, c.Crop)
}

// decodeCHW splits tightly packed little-endian RGBA32F texels into three
// channel planes, dropping alpha.
func decodeCHW(raw []byte, width, height int) ([]float32, error) {
	plane := width * height
	if want := plane * rgba32fBytesPerPixel; len(raw) != want {
		return nil, fmt.Errorf("%w: tensor readback is %d bytes, want %d", ErrShapeMismatch, len(raw), want)
	}

	out := make([]float32, 3*plane)
	for i := range plane {
		texel := raw[i*rgba32fBytesPerPixel:]
		for c := range 3 {
			out[c*plane+i] = math.Float32frombits(binary.LittleEndian.Uint32(texel[c*4:]))
		}
	}
	return out, nil
}
