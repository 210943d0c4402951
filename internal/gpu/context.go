package gpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu"

	// Register all available GPU backends (Vulkan, Metal, DX12, GLES, software).
	_ "github.com/gogpu/wgpu/hal/allbackends"
)

// ContextOptions configures NewContext.
type ContextOptions struct {
	// PowerPreference is passed to adapter selection.
	PowerPreference gputypes.PowerPreference

	// Provider, when set, supplies an existing device instead of creating
	// one. The Context then never releases the device.
	Provider gpucontext.DeviceProvider
}

// Context bundles the device and queue shared by the engines. It is
// created once and never mutated afterwards.
//
// The queue is shared by every engine built on the Context, so the Context
// also serializes their calls: each conversion holds mu from upload to
// readback. Independent Contexts run in parallel.
type Context struct {
	mu sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	info     gpucontext.AdapterInfo
	limits   gputypes.Limits

	external bool // device supplied by a DeviceProvider
}

// NewContext acquires an adapter and device. Any failure is reported as
// ErrDeviceInit and leaves nothing allocated. Software adapters are
// rejected, whether selected here or supplied by a DeviceProvider.
func NewContext(opts ContextOptions) (*Context, error) {
	if opts.Provider != nil {
		return contextFromProvider(opts.Provider)
	}

	instance, err := wgpu.CreateInstance(nil)
	if err != nil {
		return nil, deviceInitError("create instance", err)
	}

	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: opts.PowerPreference,
	})
	if err == nil && adapter == nil {
		err = errors.New("no adapter returned")
	}
	if err != nil {
		instance.Release()
		return nil, deviceInitError("request adapter", err)
	}
	hw := adapter.Info()
	if adapterType(hw.DeviceType) == gpucontext.AdapterTypeSoftware {
		adapter.Release()
		instance.Release()
		return nil, deviceInitError("adapter "+hw.Name, errSoftwareAdapter)
	}

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{Label: "imgtensor"})
	if err == nil && device == nil {
		err = errors.New("no device returned")
	}
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, deviceInitError("request device", err)
	}

	c := &Context{
		instance: instance,
		adapter:  adapter,
		device:   device,
		queue:    device.Queue(),
		limits:   device.Limits(),
		info: gpucontext.AdapterInfo{
			Name: hw.Name,
			Type: adapterType(hw.DeviceType),
		},
	}
	slogger().Info("gpu: adapter selected",
		"name", hw.Name, "vendor", hw.Vendor, "type", hw.DeviceType, "backend", hw.Backend)
	return c, nil
}

// contextFromProvider wraps a device owned by the host application.
func contextFromProvider(p gpucontext.DeviceProvider) (*Context, error) {
	if info := p.AdapterInfo(); info.Type == gpucontext.AdapterTypeSoftware {
		return nil, deviceInitError("provider adapter "+info.Name, errSoftwareAdapter)
	}
	device, ok := p.Device().(*wgpu.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: provider device is %T, want *wgpu.Device", ErrDeviceInit, p.Device())
	}
	queue, ok := p.Queue().(*wgpu.Queue)
	if !ok || queue == nil {
		queue = device.Queue()
	}

	c := &Context{
		device:   device,
		queue:    queue,
		limits:   device.Limits(),
		info:     p.AdapterInfo(),
		external: true,
	}
	slogger().Info("gpu: using shared device", "name", c.info.Name, "type", c.info.Type)
	return c, nil
}

// adapterType maps a wgpu device type onto the gpucontext classification.
func adapterType(t gputypes.DeviceType) gpucontext.AdapterType {
	switch t {
	case gputypes.DeviceTypeDiscreteGPU:
		return gpucontext.AdapterTypeDiscrete
	case gputypes.DeviceTypeIntegratedGPU:
		return gpucontext.AdapterTypeIntegrated
	case gputypes.DeviceTypeCPU:
		return gpucontext.AdapterTypeSoftware
	default:
		return gpucontext.AdapterTypeUnknown
	}
}

// AdapterInfo describes the adapter behind the Context.
func (c *Context) AdapterInfo() gpucontext.AdapterInfo { return c.info }

// Shared reports whether the device came from a DeviceProvider.
func (c *Context) Shared() bool { return c.external }

// checkTextureSize fails with ErrResourceCreation when a texture of w×h
// exceeds the device limit.
func (c *Context) checkTextureSize(what string, w, h int) error {
	limit := int(c.limits.MaxTextureDimension2D)
	if limit > 0 && (w > limit || h > limit) {
		return fmt.Errorf("%w: %s texture %dx%d exceeds device limit %d",
			ErrResourceCreation, what, w, h, limit)
	}
	return nil
}

// Release frees the device, adapter and instance when the Context owns
// them. A shared device is left untouched.
func (c *Context) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.external {
		c.device, c.queue = nil, nil
		return
	}
	if c.device != nil {
		c.device.Release()
		c.device, c.queue = nil, nil
	}
	if c.adapter != nil {
		c.adapter.Release()
		c.adapter = nil
	}
	if c.instance != nil {
		c.instance.Release()
		c.instance = nil
	}
}
