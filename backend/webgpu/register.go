package webgpu

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gogpu/batch/backend"
	"github.com/gogpu/batch/gpucore"
)

// init registers a headless factory. Creation fails on machines without a
// usable GPU, and backend.Default falls through to the next adapter.
func init() {
	backend.Register(backend.NameWGPU, func() (gpucore.Adapter, error) {
		dev, err := NewHeadlessDevice()
		if err != nil {
			return nil, err
		}
		a, err := New(dev, wgpu.TextureFormatRGBA8Unorm)
		if err != nil {
			dev.Release()
			return nil, err
		}
		a.ownsDevice = true
		return a, nil
	})
}
