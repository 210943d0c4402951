package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"

	intImage "github.com/gogpu/imgtensor/internal/image"
)

// ResizeEngine resamples images to a fixed output size on the GPU.
type ResizeEngine struct {
	*engine
	width, height int
	filter        Filter
}

// NewResizeEngine builds the resize pipeline on gctx. It fails with
// ErrDeviceInit when the pipeline cannot be created.
func NewResizeEngine(gctx *Context, width, height int, filter Filter) (*ResizeEngine, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("gpu: invalid output size %dx%d", width, height)
	}
	e, err := newEngine(gctx, "resize", resizeShaderSource, gputypes.TextureFormatRGBA8Unorm, rgba8BytesPerPixel)
	if err != nil {
		return nil, err
	}
	return &ResizeEngine{engine: e, width: width, height: height, filter: filter}, nil
}

// Size returns the output dimensions.
func (r *ResizeEngine) Size() (width, height int) { return r.width, r.height }

// Resize resamples src and returns a new width×height RGBA8 buffer.
func (r *ResizeEngine) Resize(src *intImage.Buf) (*intImage.Buf, error) {
	params := resizeParams{
		inputW:  uint32(src.Width()),  //nolint:gosec // checked against device limits in run
		inputH:  uint32(src.Height()), //nolint:gosec // checked against device limits in run
		outputW: uint32(r.width),      //nolint:gosec // positive, checked in run
		outputH: uint32(r.height),     //nolint:gosec // positive, checked in run
		filter:  r.filter,
	}
	pix, err := r.run(src, r.width, r.height, params.bytes())
	if err != nil {
		return nil, err
	}
	if want := r.width * r.height * rgba8BytesPerPixel; len(pix) != want {
		return nil, fmt.Errorf("%w: resize readback is %d bytes, want %d", ErrShapeMismatch, len(pix), want)
	}
	return intImage.FromRGBA8(pix, r.width, r.height)
}
