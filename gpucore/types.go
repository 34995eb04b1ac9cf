// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

// Resource IDs
//
// These opaque IDs represent GPU resources. Each adapter implementation
// maintains a mapping between IDs and actual backend resources.
// IDs are uint64 to accommodate various backend handle sizes.

// BufferID is an opaque handle to a GPU vertex buffer.
type BufferID uint64

// TextureID is an opaque handle to a GPU texture.
type TextureID uint64

// PipelineID is an opaque handle to a shader program / render pipeline.
type PipelineID uint64

// InvalidID is the zero value, representing an invalid/null resource.
const InvalidID = 0

// DefaultPipeline selects the adapter's built-in pipeline: a position+color
// vertex shader with a pass-through fragment shader. Adapters that compile
// custom shaders hand out non-zero PipelineIDs for them.
const DefaultPipeline PipelineID = 0

// NoTexture indicates a State that samples no texture.
const NoTexture TextureID = 0

// BufferUsage is a bitmask specifying how a buffer will be used.
type BufferUsage uint32

// Buffer usage flags.
const (
	// BufferUsageVertex indicates the buffer holds vertex attributes.
	BufferUsageVertex BufferUsage = 1 << 0

	// BufferUsageIndex indicates the buffer holds draw indices.
	BufferUsageIndex BufferUsage = 1 << 1

	// BufferUsageCopySrc indicates the buffer can be used as a copy source.
	BufferUsageCopySrc BufferUsage = 1 << 2

	// BufferUsageCopyDst indicates the buffer can be used as a copy destination.
	BufferUsageCopyDst BufferUsage = 1 << 3
)

// Topology specifies how a run of vertices is assembled into primitives.
type Topology uint8

// Primitive topologies.
const (
	// Triangles assembles every three vertices into an independent triangle.
	Triangles Topology = iota

	// TriangleStrip assembles each vertex with the previous two.
	TriangleStrip

	// Lines assembles every two vertices into an independent segment.
	Lines

	// LineStrip assembles each vertex with the previous one.
	LineStrip

	// Points draws each vertex as a point.
	Points
)

// String returns the topology name.
func (t Topology) String() string {
	switch t {
	case Triangles:
		return "triangles"
	case TriangleStrip:
		return "triangle-strip"
	case Lines:
		return "lines"
	case LineStrip:
		return "line-strip"
	case Points:
		return "points"
	}
	return "unknown"
}

// BlendMode specifies how fragment output is combined with the target.
type BlendMode uint8

// Blend modes.
const (
	// BlendReplace overwrites the destination (no blending).
	BlendReplace BlendMode = iota

	// BlendAlpha is classic source-over: src*a + dst*(1-a).
	BlendAlpha

	// BlendPremultiplied is source-over with premultiplied alpha.
	BlendPremultiplied

	// BlendAdditive adds source to destination.
	BlendAdditive

	// BlendMultiply multiplies source with destination.
	BlendMultiply
)

// String returns the blend mode name.
func (m BlendMode) String() string {
	switch m {
	case BlendReplace:
		return "replace"
	case BlendAlpha:
		return "alpha"
	case BlendPremultiplied:
		return "premultiplied"
	case BlendAdditive:
		return "additive"
	case BlendMultiply:
		return "multiply"
	}
	return "unknown"
}

// VertexFormat identifies the per-vertex attribute layout of a batch.
// The engine stores all vertex data as float32; the format determines
// the stride and how adapters describe the data to their vertex stage.
type VertexFormat uint8

// Vertex formats.
const (
	// FormatPosColor is x, y position followed by r, g, b, a color.
	FormatPosColor VertexFormat = iota

	// FormatPosColorUV is FormatPosColor followed by u, v texture coordinates.
	FormatPosColorUV
)

// Stride returns the number of float32 values per vertex.
func (f VertexFormat) Stride() int {
	switch f {
	case FormatPosColor:
		return 6
	case FormatPosColorUV:
		return 8
	}
	return 0
}

// String returns the format name.
func (f VertexFormat) String() string {
	switch f {
	case FormatPosColor:
		return "pos-color"
	case FormatPosColorUV:
		return "pos-color-uv"
	}
	return "unknown"
}

// State is the render state key: the minimal descriptor of backend state
// needed to draw one batch of geometry. It is a comparable value type;
// drawables registered with equal States share a vertex domain and a
// single draw call.
//
// Adapters must guarantee that binding two equal States produces identical
// backend state, and should skip work when re-binding the current State.
type State struct {
	// Pipeline identifies the shader program. DefaultPipeline selects the
	// adapter's built-in position+color pipeline.
	Pipeline PipelineID

	// Texture is bound to the fragment stage, or NoTexture.
	Texture TextureID

	// Blend selects the color blend mode.
	Blend BlendMode

	// Topology selects the primitive assembly.
	Topology Topology

	// Format describes the vertex attribute layout.
	Format VertexFormat
}
