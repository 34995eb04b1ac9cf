// Package webgpu renders batches through cogentcore/webgpu, the cgo-free
// WebGPU bindings. It is the full-featured adapter: all vertex formats,
// blend modes and textured render states are supported.
//
// The adapter draws into caller-supplied texture views, so it composes
// with surface presentation as well as offscreen targets:
//
//	a, _ := webgpu.New(dev, wgpu.TextureFormatRGBA8Unorm)
//	a.SetViewport(800, 600)
//	a.Begin(view, &webgpu.Clear{R: 1, G: 1, B: 1, A: 1})
//	err := b.Draw()
//	err = a.End()
//
// Shader sources are WGSL, validated with gogpu/naga at adapter creation
// so malformed shaders fail fast with a compiler diagnostic instead of a
// device error later.
package webgpu
