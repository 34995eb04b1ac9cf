// Package batch provides retained-mode draw batching for GoGPU-based
// renderers.
//
// # Overview
//
// Application code registers drawable geometry (shapes, sprites, text runs)
// against a [Batch], assigning each drawable to a hierarchical rendering
// [GroupID] and a render state key. The batch indexes geometry by shared
// state, maintains a partial draw order derived from the group hierarchy,
// and on each frame issues the minimal, correctly ordered sequence of draw
// calls to the graphics backend.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/batch"
//	    "github.com/gogpu/batch/gpucore"
//	)
//
//	b := batch.New(adapter)
//
//	background, _ := b.CreateGroup(batch.RootGroup, 0, nil)
//	foreground, _ := b.CreateGroup(batch.RootGroup, 1, nil)
//
//	state := gpucore.State{Blend: gpucore.BlendAlpha, Topology: gpucore.Triangles}
//	h, _ := b.Add(foreground, state, vertices)
//
//	// per frame, on the thread owning the graphics context:
//	b.Draw()
//
// Drawables in lower-ordered groups draw first (painter's algorithm).
// Vertex-only changes through [Batch.Update] never re-sort anything;
// structural changes (groups added, removed, reparented, reordered)
// invalidate a cached draw plan that is rebuilt lazily on the next draw.
//
// # Architecture
//
// The module is organized into:
//   - Public API: Batch, GroupID, Handle, VertexStore
//   - gpucore: the backend abstraction (resource IDs, render state, Adapter)
//   - Backends: backend/webgpu (WebGPU), backend/native (gogpu HAL), recording
//   - shapes: ready-made drawable primitives built on the Batch API
//
// # Coordinate System
//
// The engine does not interpret vertex positions; callers supply
// coordinates in whatever convention the bound pipeline expects. The
// built-in pipelines of the provided backends use top-left origin with
// Y increasing down.
//
// # Concurrency
//
// A Batch is designed for single-threaded, synchronous use within a
// frame-driven render loop: all mutation and Draw run on the thread owning
// the graphics context. Callers feeding drawables from other goroutines
// must serialize externally.
package batch

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"
)
