// Package backend selects between gpucore.Adapter implementations.
//
// Adapters are registered via init() functions and looked up at runtime.
// Importing an adapter package registers it:
//
//	import _ "github.com/gogpu/batch/backend/webgpu"
//
// Then request one by name, or let Default pick the best available:
//
//	factory := backend.Get("wgpu")
//	adapter, err := factory()
//
// # Available adapters
//
//   - "wgpu": WebGPU rendering via cogentcore/webgpu (requires a device)
//   - "native": offscreen rendering on the gogpu/wgpu HAL; not registered
//     by init because it needs a host-provided device (use native.New or
//     native.FromProvider)
//   - "recording": the in-memory test adapter
package backend
