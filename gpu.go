package imgtensor

import (
	"fmt"
	"image"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/imgtensor/internal/gpu"
	intImage "github.com/gogpu/imgtensor/internal/image"
)

// newContext acquires the compute context for one engine.
func newContext(o options) (*gpu.Context, error) {
	return gpu.NewContext(gpu.ContextOptions{
		PowerPreference: o.power,
		Provider:        o.provider,
	})
}

// GPUTensorizer runs resample, crop and normalization in a compute shader.
//
// Each GPUTensorizer owns its device context, created once at
// construction. Calls on one instance are serialized; separate instances
// run in parallel.
type GPUTensorizer struct {
	cfg  Config
	gctx *gpu.Context
	eng  *gpu.TensorizeEngine
}

// NewGPUTensorizer validates cfg, acquires a device and builds the
// tensorize pipeline. It fails with ErrDeviceInit when no usable adapter
// is available; software adapters are not usable.
func NewGPUTensorizer(cfg Config, opts ...Option) (*GPUTensorizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return newGPUTensorizer(cfg, applyOptions(opts))
}

func newGPUTensorizer(cfg Config, o options) (*GPUTensorizer, error) {
	gctx, err := newContext(o)
	if err != nil {
		return nil, err
	}
	eng, err := gpu.NewTensorizeEngine(gctx, gpu.TensorizeConfig{
		Width:  cfg.Width,
		Height: cfg.Height,
		Crop:   cfg.Crop,
		Mean:   cfg.Mean,
		Std:    cfg.Std,
		Filter: cfg.Filter.gpuFilter(),
	})
	if err != nil {
		gctx.Release()
		return nil, err
	}
	return &GPUTensorizer{cfg: cfg, gctx: gctx, eng: eng}, nil
}

// Config returns the conversion configuration.
func (t *GPUTensorizer) Config() Config { return t.cfg }

// Backend returns "gpu".
func (t *GPUTensorizer) Backend() string { return BackendGPU }

// AdapterInfo describes the adapter the tensorizer runs on.
func (t *GPUTensorizer) AdapterInfo() gpucontext.AdapterInfo { return t.gctx.AdapterInfo() }

// Tensorize returns a (3, Crop, Crop) tensor. It blocks until the GPU work
// has completed and the result has been read back.
func (t *GPUTensorizer) Tensorize(img image.Image) (Tensor, error) {
	if img == nil || img.Bounds().Empty() {
		return Tensor{}, fmt.Errorf("%w: empty source image", ErrShapeMismatch)
	}
	data, err := t.eng.Tensorize(intImage.FromImage(img))
	if err != nil {
		return Tensor{}, err
	}
	return NewTensor(t.cfg.Shape(), data)
}

// TensorizeBatch returns a (1, 3, Crop, Crop) tensor.
func (t *GPUTensorizer) TensorizeBatch(img image.Image) (Tensor, error) {
	out, err := t.Tensorize(img)
	if err != nil {
		return Tensor{}, err
	}
	return out.WithBatch(), nil
}

// release frees the pipeline and, unless shared, the device.
func (t *GPUTensorizer) release() {
	t.eng.Release()
	t.gctx.Release()
}

// Resizer resamples images to a fixed size on the GPU.
type Resizer struct {
	gctx *gpu.Context
	eng  *gpu.ResizeEngine
}

// NewResizer acquires a device and builds the resize pipeline for a
// width×height output. The kernel defaults to CatmullRom; see WithFilter.
// Like NewGPUTensorizer it rejects software adapters with ErrDeviceInit.
func NewResizer(width, height int, opts ...Option) (*Resizer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: output size %dx%d", ErrInvalidConfig, width, height)
	}
	o := applyOptions(opts)
	if !o.filter.valid() {
		return nil, fmt.Errorf("%w: filter %d", ErrInvalidConfig, int(o.filter))
	}
	gctx, err := newContext(o)
	if err != nil {
		return nil, err
	}
	eng, err := gpu.NewResizeEngine(gctx, width, height, o.filter.gpuFilter())
	if err != nil {
		gctx.Release()
		return nil, err
	}
	return &Resizer{gctx: gctx, eng: eng}, nil
}

// Size returns the output dimensions.
func (r *Resizer) Size() (width, height int) { return r.eng.Size() }

// AdapterInfo describes the adapter the resizer runs on.
func (r *Resizer) AdapterInfo() gpucontext.AdapterInfo { return r.gctx.AdapterInfo() }

// Resize resamples img and returns the result with straight alpha.
func (r *Resizer) Resize(img image.Image) (*image.NRGBA, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty source image", ErrShapeMismatch)
	}
	out, err := r.eng.Resize(intImage.FromImage(img))
	if err != nil {
		return nil, err
	}
	return out.NRGBA(), nil
}

// Rescale resamples img and writes it to path, as JPEG for .jpg and .jpeg
// and PNG otherwise. Nothing is written when resampling fails.
func (r *Resizer) Rescale(img image.Image, path string) error {
	out, err := r.Resize(img)
	if err != nil {
		return err
	}
	return intImage.Save(out, path)
}

func (r *Resizer) release() {
	r.eng.Release()
	r.gctx.Release()
}
