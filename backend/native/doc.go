// Package native renders batches through the pure-Go gogpu/wgpu HAL.
//
// The adapter draws into an offscreen color texture and reads the result
// back to the CPU, so it works headless. A frame is bracketed explicitly:
//
//	a, _ := native.New(device, queue)
//	a.Begin(800, 600, native.Clear{R: 1, G: 1, B: 1, A: 1})
//	err := b.Draw() // batch draws through the adapter
//	pix, err := a.End()
//
// Only the position+color vertex format is supported; textured render
// states need queue texture uploads the HAL does not expose yet and are
// rejected with ErrUnsupported.
package native
