package gpu

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by this package wraps one of them.
var (
	// ErrDeviceInit means no usable adapter or device could be acquired.
	ErrDeviceInit = errors.New("gpu: device initialization failed")

	// ErrResourceCreation means a per-call texture, buffer, bind group or
	// command could not be created or submitted.
	ErrResourceCreation = errors.New("gpu: resource creation failed")

	// ErrShapeMismatch means a readback did not have the expected size.
	ErrShapeMismatch = errors.New("gpu: readback shape mismatch")
)

// errSoftwareAdapter is wrapped in ErrDeviceInit for CPU-emulated adapters.
// The wgpu software backend dispatches compute passes without binding
// storage textures, so the kernels would leave every output texel zero.
var errSoftwareAdapter = errors.New("adapter cannot execute texture compute kernels")

func deviceInitError(step string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrDeviceInit, step, err)
}

func resourceError(step string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrResourceCreation, step, err)
}
