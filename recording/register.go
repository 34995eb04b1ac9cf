package recording

import (
	"github.com/gogpu/batch/backend"
	"github.com/gogpu/batch/gpucore"
)

func init() {
	backend.Register(backend.NameRecording, func() (gpucore.Adapter, error) {
		return New(), nil
	})
}
