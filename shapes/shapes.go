package shapes

import (
	"github.com/gogpu/batch"
	"github.com/gogpu/batch/gpucore"
)

// Color is a straight-alpha RGBA color with components in [0, 1].
type Color struct {
	R, G, B, A float32
}

// White is the default shape color.
var White = Color{R: 1, G: 1, B: 1, A: 1}

// State returns the render state shared by all solid shapes: alpha-blended
// triangles with interleaved position and color. Every shape in a batch
// using this state collapses into a single draw call per group.
func State() batch.RenderState {
	return batch.RenderState{
		Blend:    gpucore.BlendAlpha,
		Topology: gpucore.Triangles,
		Format:   gpucore.FormatPosColor,
	}
}

// interleave expands xy pairs into position+color vertices.
func interleave(xy []float32, c Color) []float32 {
	out := make([]float32, 0, len(xy)*3)
	for i := 0; i < len(xy); i += 2 {
		out = append(out, xy[i], xy[i+1], c.R, c.G, c.B, c.A)
	}
	return out
}
