// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/batch/gpucore"
)

// convertUsage maps gpucore buffer usage bits to gputypes.
func convertUsage(usage gpucore.BufferUsage) gputypes.BufferUsage {
	var out gputypes.BufferUsage
	if usage&gpucore.BufferUsageVertex != 0 {
		out |= gputypes.BufferUsageVertex
	}
	if usage&gpucore.BufferUsageIndex != 0 {
		out |= gputypes.BufferUsageIndex
	}
	if usage&gpucore.BufferUsageCopySrc != 0 {
		out |= gputypes.BufferUsageCopySrc
	}
	if usage&gpucore.BufferUsageCopyDst != 0 {
		out |= gputypes.BufferUsageCopyDst
	}
	return out
}

// convertTopology maps gpucore primitive topologies to gputypes.
func convertTopology(t gpucore.Topology) (gputypes.PrimitiveTopology, error) {
	switch t {
	case gpucore.Triangles:
		return gputypes.PrimitiveTopologyTriangleList, nil
	case gpucore.TriangleStrip:
		return gputypes.PrimitiveTopologyTriangleStrip, nil
	case gpucore.Lines:
		return gputypes.PrimitiveTopologyLineList, nil
	case gpucore.LineStrip:
		return gputypes.PrimitiveTopologyLineStrip, nil
	case gpucore.Points:
		return gputypes.PrimitiveTopologyPointList, nil
	default:
		return 0, fmt.Errorf("%w: topology %v", ErrUnsupported, t)
	}
}

// convertBlend maps gpucore blend modes to gputypes blend states. Replace
// returns nil, which disables blending on the color target.
func convertBlend(mode gpucore.BlendMode) *gputypes.BlendState {
	switch mode {
	case gpucore.BlendAlpha:
		return &gputypes.BlendState{
			Color: gputypes.BlendComponent{
				SrcFactor: gputypes.BlendFactorSrcAlpha,
				DstFactor: gputypes.BlendFactorOneMinusSrcAlpha,
				Operation: gputypes.BlendOperationAdd,
			},
			Alpha: gputypes.BlendComponent{
				SrcFactor: gputypes.BlendFactorOne,
				DstFactor: gputypes.BlendFactorOneMinusSrcAlpha,
				Operation: gputypes.BlendOperationAdd,
			},
		}
	case gpucore.BlendPremultiplied:
		s := gputypes.BlendStatePremultiplied()
		return &s
	case gpucore.BlendAdditive:
		return &gputypes.BlendState{
			Color: gputypes.BlendComponent{
				SrcFactor: gputypes.BlendFactorSrcAlpha,
				DstFactor: gputypes.BlendFactorOne,
				Operation: gputypes.BlendOperationAdd,
			},
			Alpha: gputypes.BlendComponent{
				SrcFactor: gputypes.BlendFactorOne,
				DstFactor: gputypes.BlendFactorOne,
				Operation: gputypes.BlendOperationAdd,
			},
		}
	case gpucore.BlendMultiply:
		return &gputypes.BlendState{
			Color: gputypes.BlendComponent{
				SrcFactor: gputypes.BlendFactorDst,
				DstFactor: gputypes.BlendFactorZero,
				Operation: gputypes.BlendOperationAdd,
			},
			Alpha: gputypes.BlendComponent{
				SrcFactor: gputypes.BlendFactorDstAlpha,
				DstFactor: gputypes.BlendFactorZero,
				Operation: gputypes.BlendOperationAdd,
			},
		}
	default: // BlendReplace
		return nil
	}
}

// colorVertexLayout is the vertex buffer layout for the position+color
// shader: float32x2 position at location(0), float32x4 color at
// location(1).
func colorVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: vertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
				{Format: gputypes.VertexFormatFloat32x4, Offset: 8, ShaderLocation: 1},
			},
		},
	}
}

// viewportUniform packs the 16-byte viewport uniform: vec2<f32> size plus
// padding to the uniform alignment.
func viewportUniform(width, height uint32) []byte {
	buf := make([]byte, globalsSize)
	binary.LittleEndian.PutUint32(buf[0:], math.Float32bits(float32(width)))
	binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(float32(height)))
	return buf
}
