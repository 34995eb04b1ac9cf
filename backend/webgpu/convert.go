// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package webgpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gogpu/batch/gpucore"
)

// convertUsage maps gpucore buffer usage bits to wgpu.
func convertUsage(usage gpucore.BufferUsage) wgpu.BufferUsage {
	var out wgpu.BufferUsage
	if usage&gpucore.BufferUsageVertex != 0 {
		out |= wgpu.BufferUsageVertex
	}
	if usage&gpucore.BufferUsageIndex != 0 {
		out |= wgpu.BufferUsageIndex
	}
	if usage&gpucore.BufferUsageCopySrc != 0 {
		out |= wgpu.BufferUsageCopySrc
	}
	if usage&gpucore.BufferUsageCopyDst != 0 {
		out |= wgpu.BufferUsageCopyDst
	}
	return out
}

// convertTopology maps gpucore primitive topologies to wgpu.
func convertTopology(t gpucore.Topology) (wgpu.PrimitiveTopology, error) {
	switch t {
	case gpucore.Triangles:
		return wgpu.PrimitiveTopologyTriangleList, nil
	case gpucore.TriangleStrip:
		return wgpu.PrimitiveTopologyTriangleStrip, nil
	case gpucore.Lines:
		return wgpu.PrimitiveTopologyLineList, nil
	case gpucore.LineStrip:
		return wgpu.PrimitiveTopologyLineStrip, nil
	case gpucore.Points:
		return wgpu.PrimitiveTopologyPointList, nil
	default:
		return 0, fmt.Errorf("webgpu: unknown topology %v", t)
	}
}

// convertBlend maps gpucore blend modes to wgpu blend states.
func convertBlend(mode gpucore.BlendMode) *wgpu.BlendState {
	switch mode {
	case gpucore.BlendAlpha:
		return &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		}
	case gpucore.BlendPremultiplied:
		return &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		}
	case gpucore.BlendAdditive:
		return &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOne,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOne,
				Operation: wgpu.BlendOperationAdd,
			},
		}
	case gpucore.BlendMultiply:
		return &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorDst,
				DstFactor: wgpu.BlendFactorZero,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorDstAlpha,
				DstFactor: wgpu.BlendFactorZero,
				Operation: wgpu.BlendOperationAdd,
			},
		}
	default: // BlendReplace
		return &wgpu.BlendStateReplace
	}
}

// vertexLayout returns the wgpu vertex buffer layout for a format.
func vertexLayout(format gpucore.VertexFormat) []wgpu.VertexBufferLayout {
	attrs := []wgpu.VertexAttribute{
		{Format: wgpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
		{Format: wgpu.VertexFormatFloat32x4, Offset: 8, ShaderLocation: 1},
	}
	if format == gpucore.FormatPosColorUV {
		attrs = append(attrs, wgpu.VertexAttribute{
			Format: wgpu.VertexFormatFloat32x2, Offset: 24, ShaderLocation: 2,
		})
	}
	return []wgpu.VertexBufferLayout{
		{
			ArrayStride: uint64(format.Stride()) * 4,
			StepMode:    wgpu.VertexStepModeVertex,
			Attributes:  attrs,
		},
	}
}

// viewportUniform packs the 16-byte viewport uniform.
func viewportUniform(width, height uint32) []byte {
	buf := make([]byte, globalsSize)
	binary.LittleEndian.PutUint32(buf[0:], math.Float32bits(float32(width)))
	binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(float32(height)))
	return buf
}
