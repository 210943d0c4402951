package imgtensor

import (
	"fmt"
	"image"
	"runtime"

	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	intImage "github.com/gogpu/imgtensor/internal/image"
)

// CPUTensorizer is the reference backend. It resamples with
// golang.org/x/image/draw, center-crops and normalizes. It is safe for
// concurrent use.
type CPUTensorizer struct {
	cfg Config

	// scratch holds Width×Height resample targets between calls.
	scratch *intImage.Pool
}

// NewCPUTensorizer validates cfg and returns a CPU backend.
func NewCPUTensorizer(cfg Config) (*CPUTensorizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &CPUTensorizer{cfg: cfg, scratch: intImage.NewPool(runtime.GOMAXPROCS(0))}, nil
}

// Config returns the conversion configuration.
func (t *CPUTensorizer) Config() Config { return t.cfg }

// Backend returns "cpu".
func (t *CPUTensorizer) Backend() string { return BackendCPU }

// Tensorize returns a (3, Crop, Crop) tensor. The output is bitwise
// deterministic for a given input and Config.
func (t *CPUTensorizer) Tensorize(img image.Image) (Tensor, error) {
	if img == nil || img.Bounds().Empty() {
		return Tensor{}, fmt.Errorf("%w: empty source image", ErrShapeMismatch)
	}
	c := t.cfg

	buf, err := t.scratch.Get(c.Width, c.Height)
	if err != nil {
		return Tensor{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	defer t.scratch.Put(buf)

	// Src over the whole target overwrites every pooled pixel.
	resampled := buf.NRGBA()
	c.Filter.interpolator().Scale(resampled, resampled.Rect, img, img.Bounds(), draw.Src, nil)

	cx, cy := c.CropOrigin()
	plane := c.Crop * c.Crop
	data := make([]float32, Channels*plane)

	var g errgroup.Group
	for ch := range Channels {
		g.Go(func() error {
			normalizePlane(data[ch*plane:(ch+1)*plane], resampled, ch, cx, cy, c.Crop, c.Mean[ch], c.Std[ch])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Tensor{}, err
	}

	Logger().Debug("imgtensor: cpu tensorize",
		"source", img.Bounds().Size(), "resample", [2]int{c.Width, c.Height}, "crop", c.Crop)
	return Tensor{Shape: c.Shape(), Data: data}, nil
}

// TensorizeBatch returns a (1, 3, Crop, Crop) tensor.
func (t *CPUTensorizer) TensorizeBatch(img image.Image) (Tensor, error) {
	out, err := t.Tensorize(img)
	if err != nil {
		return Tensor{}, err
	}
	return out.WithBatch(), nil
}

// normalizePlane writes channel ch of the size×size window at (x0, y0) of
// src into dst as (v/255 - mean) / std.
func normalizePlane(dst []float32, src *image.NRGBA, ch, x0, y0, size int, mean, std float32) {
	for y := range size {
		row := src.Pix[(y0+y)*src.Stride+x0*4:]
		out := dst[y*size : (y+1)*size]
		for x := range out {
			v := float32(row[x*4+ch]) / 255
			out[x] = (v - mean) / std
		}
	}
}
