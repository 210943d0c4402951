// Package imgtensor prepares images for machine-learning models.
//
// # Overview
//
// An image is resampled to a fixed size, center-cropped, normalized per
// channel and laid out channel-first as a float32 tensor of shape
// (3, H, W), or (1, 3, H, W) with a batch axis. Two backends implement the
// same [Tensorizer] contract:
//   - "cpu": a reference implementation on golang.org/x/image/draw
//   - "gpu": a WGSL compute shader on gogpu/wgpu (Pure Go WebGPU)
//
// # Quick Start
//
//	import "github.com/gogpu/imgtensor"
//
//	img, err := imgtensor.LoadImage("cat.jpg")
//	if err != nil {
//	    return err
//	}
//
//	// GPU if available, CPU otherwise.
//	t, err := imgtensor.NewImageNet()
//	if err != nil {
//	    return err
//	}
//	x, err := t.TensorizeBatch(img) // shape [1 3 224 224]
//
// # Configuration
//
// A [Config] holds the resample size, crop, mean, std and [Filter]. The
// presets [ImageNetDefault] (256×256, crop 224) and [ImageNetNoCrop]
// (224×224) use the ImageNet statistics.
//
// # GPU Resizing
//
// [Resizer] runs only the resampling shader and returns pixels, or writes
// them to a file with [Resizer.Rescale].
//
// # Errors
//
// Every error wraps one of [ErrDeviceInit], [ErrResourceCreation],
// [ErrShapeMismatch], [ErrIO], [ErrInvalidConfig] or [ErrUnknownBackend].
// Nothing is retried and no partial result is returned.
//
// # Concurrency
//
// Tensorizers and resizers are safe for concurrent use. A GPU engine
// serializes calls on its queue; independent engines run in parallel.
//
// # Logging
//
// Nothing is logged by default. See [SetLogger].
package imgtensor
