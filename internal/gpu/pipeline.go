package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu"
)

// pipeline is the compiled compute pipeline and its fixed binding layout:
//
//	binding 0: input texture (texture_2d<f32>)
//	binding 1: output storage texture (write-only, outFormat)
//	binding 2: uniform params
type pipeline struct {
	shader         *wgpu.ShaderModule
	bindLayout     *wgpu.BindGroupLayout
	pipelineLayout *wgpu.PipelineLayout
	compute        *wgpu.ComputePipeline
}

func newPipeline(device *wgpu.Device, label, source string, outFormat gputypes.TextureFormat) (*pipeline, error) {
	var sc scope
	ok := false
	defer func() {
		if !ok {
			sc.release()
		}
	}()

	shader, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: label + "-shader",
		WGSL:  source,
	})
	if err != nil {
		return nil, fmt.Errorf("create shader module: %w", err)
	}
	track(&sc, shader)

	bindLayout, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: label + "-bgl",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageCompute,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageCompute,
				StorageTexture: &gputypes.StorageTextureBindingLayout{
					Access:        gputypes.StorageTextureAccessWriteOnly,
					Format:        outFormat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: wgpu.ShaderStageCompute,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create bind group layout: %w", err)
	}
	track(&sc, bindLayout)

	pipelineLayout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            label + "-pl",
		BindGroupLayouts: []*wgpu.BindGroupLayout{bindLayout},
	})
	if err != nil {
		return nil, fmt.Errorf("create pipeline layout: %w", err)
	}
	track(&sc, pipelineLayout)

	compute, err := device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:      label + "-pipeline",
		Layout:     pipelineLayout,
		Module:     shader,
		EntryPoint: "main",
	})
	if err != nil {
		return nil, fmt.Errorf("create compute pipeline: %w", err)
	}

	ok = true
	return &pipeline{
		shader:         shader,
		bindLayout:     bindLayout,
		pipelineLayout: pipelineLayout,
		compute:        compute,
	}, nil
}

func (p *pipeline) release() {
	p.compute.Release()
	p.pipelineLayout.Release()
	p.bindLayout.Release()
	p.shader.Release()
}
