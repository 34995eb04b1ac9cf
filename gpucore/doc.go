// Package gpucore defines the backend abstraction the batching engine
// draws through.
//
// The engine itself never talks to a graphics API. It accumulates vertex
// data, maintains the group ordering, and on draw emits a minimal sequence
// of calls against the [Adapter] interface: buffer allocation and writes,
// render state binds, and draw calls. Thin adapters translate these calls
// to a specific backend:
//
//   - backend/webgpu: WebGPU via github.com/cogentcore/webgpu
//   - backend/native: offscreen rendering on the gogpu/wgpu HAL for gogpu
//     host applications
//   - recording: an in-memory adapter that records every call, used for
//     testing and debugging
//
// # Resource Management
//
// GPU resources are referred to by opaque IDs ([BufferID], [TextureID],
// [PipelineID]). Each adapter maintains the mapping between IDs and its
// actual backend resources. ID 0 ([InvalidID]) never names a resource.
//
// # Render State
//
// [State] is the comparable value key describing everything a backend must
// switch to draw one batch of geometry: pipeline, texture, blend mode,
// primitive topology, and vertex format. Two drawables with equal State may
// share a single draw call; adapters must guarantee that binding equal
// States produces identical backend state.
package gpucore
