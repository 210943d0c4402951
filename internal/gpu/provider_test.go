package gpu

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// fakeProvider is a DeviceProvider whose device is not a *wgpu.Device.
type fakeProvider struct{}

func (fakeProvider) Device() gpucontext.Device             { return struct{}{} }
func (fakeProvider) Queue() gpucontext.Queue               { return nil }
func (fakeProvider) Adapter() gpucontext.Adapter           { return nil }
func (fakeProvider) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatUndefined }
func (fakeProvider) AdapterInfo() gpucontext.AdapterInfo   { return gpucontext.AdapterInfo{Name: "fake", Type: gpucontext.AdapterTypeUnknown} }

// softwareProvider reports a CPU-emulated adapter.
type softwareProvider struct{ fakeProvider }

func (softwareProvider) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Name: "Software Renderer", Type: gpucontext.AdapterTypeSoftware}
}
