package gpu

import (
	"context"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu"

	intImage "github.com/gogpu/imgtensor/internal/image"
)

// workgroupSize is the per-dimension invocation count of both shaders
// (@workgroup_size(16, 16)).
const workgroupSize = 16

// engine is the part shared by ResizeEngine and TensorizeEngine: a compiled
// pipeline writing a fixed output format, and the per-call run loop.
type engine struct {
	gpu           *Context
	pipe          *pipeline
	label         string
	outFormat     gputypes.TextureFormat
	bytesPerPixel int
}

func newEngine(gctx *Context, label, source string, outFormat gputypes.TextureFormat, bytesPerPixel int) (*engine, error) {
	if gctx == nil || gctx.device == nil {
		return nil, fmt.Errorf("%w: %s: no device", ErrDeviceInit, label)
	}
	if _, err := naga.Compile(source); err != nil {
		return nil, deviceInitError(label+" shader", err)
	}
	pipe, err := newPipeline(gctx.device, label, source, outFormat)
	if err != nil {
		return nil, deviceInitError(label+" pipeline", err)
	}
	return &engine{
		gpu:           gctx,
		pipe:          pipe,
		label:         label,
		outFormat:     outFormat,
		bytesPerPixel: bytesPerPixel,
	}, nil
}

// Release frees the pipeline. The Context is not released.
func (e *engine) Release() {
	e.gpu.mu.Lock()
	defer e.gpu.mu.Unlock()
	if e.pipe != nil {
		e.pipe.release()
		e.pipe = nil
	}
}

// run uploads src, dispatches the pipeline over an outW×outH grid with the
// given uniform bytes, copies the output texture into a row-padded staging
// buffer, waits for the mapped readback and returns the tightly packed
// texels (outW*outH*bytesPerPixel bytes). Every GPU object created here is
// released before run returns.
func (e *engine) run(src *intImage.Buf, outW, outH int, params []byte) ([]byte, error) {
	e.gpu.mu.Lock()
	defer e.gpu.mu.Unlock()

	if e.pipe == nil {
		return nil, fmt.Errorf("%w: %s engine released", ErrResourceCreation, e.label)
	}
	if err := e.gpu.checkTextureSize("input", src.Width(), src.Height()); err != nil {
		return nil, err
	}
	if err := e.gpu.checkTextureSize("output", outW, outH); err != nil {
		return nil, err
	}

	var sc scope
	defer sc.release()

	device, queue := e.gpu.device, e.gpu.queue
	inW, inH := uint32(src.Width()), uint32(src.Height()) //nolint:gosec // bounded by checkTextureSize
	ow, oh := uint32(outW), uint32(outH)                   //nolint:gosec // bounded by checkTextureSize
	paddedRow := PaddedBytesPerRow(outW, e.bytesPerPixel)
	stagingSize := uint64(paddedRow) * uint64(outH)

	slogger().Debug("gpu: dispatch",
		"engine", e.label, "input", [2]int{src.Width(), src.Height()},
		"output", [2]int{outW, outH}, "bytesPerRow", paddedRow, "staging", stagingSize)

	// Input texture.
	inTex, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         e.label + "-input",
		Size:          wgpu.Extent3D{Width: inW, Height: inH, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, resourceError("create input texture", err)
	}
	track(&sc, inTex)

	if err := queue.WriteTexture(
		&wgpu.ImageCopyTexture{Texture: inTex, Aspect: gputypes.TextureAspectAll},
		src.Data(),
		&wgpu.ImageDataLayout{BytesPerRow: uint32(src.Stride()), RowsPerImage: inH}, //nolint:gosec // stride = 4*width
		&wgpu.Extent3D{Width: inW, Height: inH, DepthOrArrayLayers: 1},
	); err != nil {
		return nil, resourceError("upload input texture", err)
	}

	inView, err := device.CreateTextureView(inTex, nil)
	if err != nil {
		return nil, resourceError("create input view", err)
	}
	track(&sc, inView)

	// Output storage texture.
	outTex, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         e.label + "-output",
		Size:          wgpu.Extent3D{Width: ow, Height: oh, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        e.outFormat,
		Usage:         wgpu.TextureUsageStorageBinding | wgpu.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, resourceError("create output texture", err)
	}
	track(&sc, outTex)

	outView, err := device.CreateTextureView(outTex, nil)
	if err != nil {
		return nil, resourceError("create output view", err)
	}
	track(&sc, outView)

	// Uniforms.
	uniform, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: e.label + "-params",
		Size:  uint64(len(params)),
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, resourceError("create uniform buffer", err)
	}
	track(&sc, uniform)
	if err := queue.WriteBuffer(uniform, 0, params); err != nil {
		return nil, resourceError("write uniform buffer", err)
	}

	// Readback staging buffer, rows padded to CopyBytesPerRowAlignment.
	staging, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: e.label + "-staging",
		Size:  stagingSize,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, resourceError("create staging buffer", err)
	}
	track(&sc, staging)

	bindGroup, err := device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  e.label + "-bg",
		Layout: e.pipe.bindLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: inView},
			{Binding: 1, TextureView: outView},
			{Binding: 2, Buffer: uniform, Size: uint64(len(params))},
		},
	})
	if err != nil {
		return nil, resourceError("create bind group", err)
	}
	track(&sc, bindGroup)

	if err := e.submit(bindGroup, outTex, staging, ow, oh, uint32(paddedRow)); err != nil { //nolint:gosec // small
		return nil, err
	}

	padded, err := readStaging(staging, stagingSize)
	if err != nil {
		return nil, err
	}
	return StripRowPadding(padded, outW, outH, e.bytesPerPixel)
}

// submit records the compute pass and the texture-to-buffer copy and
// submits them as one command buffer.
func (e *engine) submit(bindGroup *wgpu.BindGroup, outTex *wgpu.Texture, staging *wgpu.Buffer, w, h, bytesPerRow uint32) error {
	device := e.gpu.device

	encoder, err := device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: e.label + "-encoder"})
	if err != nil {
		return resourceError("create command encoder", err)
	}
	finished := false
	defer func() {
		if !finished {
			encoder.DiscardEncoding()
		}
	}()

	pass, err := encoder.BeginComputePass(&wgpu.ComputePassDescriptor{Label: e.label + "-pass"})
	if err != nil {
		return resourceError("begin compute pass", err)
	}
	pass.SetPipeline(e.pipe.compute)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.Dispatch((w+workgroupSize-1)/workgroupSize, (h+workgroupSize-1)/workgroupSize, 1)
	if err := pass.End(); err != nil {
		return resourceError("end compute pass", err)
	}

	encoder.CopyTextureToBuffer(outTex, staging, []wgpu.BufferTextureCopy{
		{
			BufferLayout: wgpu.ImageDataLayout{
				Offset:       0,
				BytesPerRow:  bytesPerRow,
				RowsPerImage: h,
			},
			TextureBase: wgpu.ImageCopyTexture{Texture: outTex, Aspect: gputypes.TextureAspectAll},
			Size:        wgpu.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		},
	})

	cmd, err := encoder.Finish()
	finished = true
	if err != nil {
		return resourceError("finish encoder", err)
	}
	// A submitted command buffer is recycled by the queue; only a rejected
	// one must be released here.
	if _, err := e.gpu.queue.Submit(cmd); err != nil {
		cmd.Release()
		return resourceError("submit", err)
	}
	return nil
}

// readStaging blocks until the staging buffer is mapped and copies it out.
func readStaging(staging *wgpu.Buffer, size uint64) ([]byte, error) {
	if err := staging.Map(context.Background(), wgpu.MapModeRead, 0, size); err != nil {
		return nil, resourceError("map staging buffer", err)
	}
	rng, err := staging.MappedRange(0, size)
	if err != nil {
		_ = staging.Unmap()
		return nil, resourceError("staging mapped range", err)
	}
	out := make([]byte, size)
	copy(out, rng.Bytes())
	rng.Release()
	if err := staging.Unmap(); err != nil {
		return nil, resourceError("unmap staging buffer", err)
	}
	return out, nil
}
