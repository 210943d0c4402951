package imgtensor

import (
	"errors"

	"github.com/gogpu/imgtensor/internal/gpu"
	intImage "github.com/gogpu/imgtensor/internal/image"
)

// Error kinds returned by tensorizers and resizers. Every failure returned by
// this package wraps exactly one of them, so callers can classify it with
// [errors.Is].
var (
	// ErrDeviceInit is returned when no usable compute adapter or device can
	// be acquired, or the compute pipeline cannot be built. It is fatal to
	// the engine being constructed.
	ErrDeviceInit = gpu.ErrDeviceInit

	// ErrResourceCreation is returned when a GPU buffer, texture or binding
	// set cannot be created, or when recording or submitting GPU work fails.
	ErrResourceCreation = gpu.ErrResourceCreation

	// ErrShapeMismatch is returned when data does not match the expected
	// geometry: a GPU readback of the wrong size, an empty source image, or
	// tensors of different shapes.
	ErrShapeMismatch = gpu.ErrShapeMismatch

	// ErrIO is returned when an image cannot be decoded or encoded, or a
	// tensor cannot be written.
	ErrIO = intImage.ErrIO

	// ErrInvalidConfig is returned by Config.Validate and by parsers of
	// filter and preset names.
	ErrInvalidConfig = errors.New("imgtensor: invalid config")

	// ErrUnknownBackend is returned when a backend name is not registered.
	ErrUnknownBackend = errors.New("imgtensor: unknown backend")
)
