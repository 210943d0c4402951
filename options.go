package imgtensor

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// Option configures New, NewGPUTensorizer and NewResizer.
//
// Example:
//
//	// Force the CPU backend
//	t, err := imgtensor.New(imgtensor.ImageNetDefault(), imgtensor.WithBackend("cpu"))
//
//	// Reuse the host application's device
//	t, err := imgtensor.New(cfg, imgtensor.WithDeviceProvider(app))
type Option func(*options)

// options holds the optional construction settings.
type options struct {
	backend  string
	provider gpucontext.DeviceProvider
	power    gputypes.PowerPreference
	filter   Filter
}

func defaultOptions() options {
	return options{
		power:  gputypes.PowerPreferenceHighPerformance,
		filter: CatmullRom,
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// WithBackend selects a backend by name ("gpu" or "cpu"). An explicitly
// selected backend never falls back to another one.
func WithBackend(name string) Option {
	return func(o *options) {
		o.backend = name
	}
}

// WithDeviceProvider makes the GPU backend use the provider's device and
// queue instead of acquiring its own. The device must be a *wgpu.Device.
// It is never released by imgtensor.
func WithDeviceProvider(p gpucontext.DeviceProvider) Option {
	return func(o *options) {
		o.provider = p
	}
}

// WithPowerPreference sets the adapter preference used when the GPU
// backend acquires its own device. The default is high performance.
func WithPowerPreference(p gputypes.PowerPreference) Option {
	return func(o *options) {
		o.power = p
	}
}

// WithFilter sets the resampling kernel of a Resizer. Tensorizers take
// their filter from Config and ignore this option.
func WithFilter(f Filter) Option {
	return func(o *options) {
		o.filter = f
	}
}
