package imgtensor

import (
	"errors"
	"fmt"
	"image"
	"slices"

	"github.com/gogpu/gpucontext"
)

// Tensorizer converts images into normalized (3, Crop, Crop) tensors.
//
// Implementations produce the same shape and normalization for the same
// Config and input; values agree across backends within DefaultTolerance.
// A Tensorizer is ready for unlimited calls once constructed and is safe
// for concurrent use.
type Tensorizer interface {
	// Tensorize returns a (3, Crop, Crop) tensor.
	Tensorize(img image.Image) (Tensor, error)

	// TensorizeBatch returns a (1, 3, Crop, Crop) tensor.
	TensorizeBatch(img image.Image) (Tensor, error)

	// Config returns the conversion configuration.
	Config() Config

	// Backend returns the registered backend name.
	Backend() string
}

// Backend names.
const (
	BackendGPU = "gpu"
	BackendCPU = "cpu"
)

// backendFactory builds a Tensorizer from a validated Config.
type backendFactory func(cfg Config, o options) (Tensorizer, error)

// backends holds the registered backends. Without an explicit choice the
// GPU backend is tried first.
var backends = gpucontext.NewRegistry[backendFactory](
	gpucontext.WithPriority(BackendGPU, BackendCPU),
)

func init() {
	backends.Register(BackendCPU, func() backendFactory {
		return func(cfg Config, _ options) (Tensorizer, error) {
			return NewCPUTensorizer(cfg)
		}
	})
	backends.Register(BackendGPU, func() backendFactory {
		return func(cfg Config, o options) (Tensorizer, error) {
			return newGPUTensorizer(cfg, o)
		}
	})
}

// Backends returns the registered backend names, sorted.
func Backends() []string {
	names := backends.Available()
	slices.Sort(names)
	return names
}

// New validates cfg and builds a Tensorizer.
//
// With WithBackend the named backend is used and its errors are returned
// as is. Otherwise the GPU backend is tried first; if it fails with
// ErrDeviceInit, which includes finding only a software adapter, the CPU
// backend is used instead and a warning is logged.
// WithDeviceProvider implies the GPU backend.
func New(cfg Config, opts ...Option) (Tensorizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := applyOptions(opts)

	name := foldName(o.backend)
	if name == "" && o.provider != nil {
		name = BackendGPU
	}
	if name != "" {
		if !backends.Has(name) {
			return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownBackend, o.backend, Backends())
		}
		return backends.Get(name)(cfg, o)
	}

	name = backends.BestName()
	if name == "" {
		return nil, fmt.Errorf("%w: no backends registered", ErrUnknownBackend)
	}
	t, err := backends.Get(name)(cfg, o)
	if name == BackendCPU || !backends.Has(BackendCPU) {
		return t, err
	}
	if err != nil && errors.Is(err, ErrDeviceInit) {
		Logger().Warn("imgtensor: falling back to CPU backend", "backend", name, "err", err)
		return backends.Get(BackendCPU)(cfg, o)
	}
	return t, err
}

// NewImageNet builds a Tensorizer for the ImageNetDefault preset.
func NewImageNet(opts ...Option) (Tensorizer, error) {
	return New(ImageNetDefault(), opts...)
}

// NewImageNetNoCrop builds a Tensorizer for the ImageNetNoCrop preset.
func NewImageNetNoCrop(opts ...Option) (Tensorizer, error) {
	return New(ImageNetNoCrop(), opts...)
}

// NewPreset builds a Tensorizer for a preset name accepted by PresetConfig.
func NewPreset(name string, opts ...Option) (Tensorizer, error) {
	cfg, err := PresetConfig(name)
	if err != nil {
		return nil, err
	}
	return New(cfg, opts...)
}
