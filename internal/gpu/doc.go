// Package gpu implements the compute-shader backends of imgtensor on top of
// gogpu/wgpu.
//
// A Context owns the instance, adapter, device and queue. It is acquired
// once and then reused for every call. Two engines run on a Context:
//
//   - ResizeEngine resamples an RGBA8 image into an RGBA8 storage texture.
//   - TensorizeEngine resamples, crops and normalizes into an RGBA32Float
//     storage texture and decodes it into a channel-major float slice.
//
// Each call creates its textures, buffers and bind group, submits one
// compute pass plus one texture-to-buffer copy, waits for the mapped
// readback and releases everything before returning. Readback rows are
// padded to CopyBytesPerRowAlignment and stripped on the host.
//
// Calls that share a Context are serialized by the Context.
package gpu
