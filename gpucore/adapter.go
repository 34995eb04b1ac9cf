// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

// Adapter is the set of backend primitives the batching engine consumes.
//
// Implementations translate these calls to a concrete graphics API. The
// engine guarantees single-threaded use: all Adapter calls for one batch
// happen on the thread that owns the graphics context, so implementations
// need no internal locking on the engine's account (they may still lock to
// protect resources shared with the host application).
type Adapter interface {
	// CreateBuffer allocates a GPU buffer of size bytes.
	// Returns an error if the backend cannot satisfy the allocation.
	CreateBuffer(size int, usage BufferUsage) (BufferID, error)

	// GrowBuffer replaces the buffer with a larger allocation of newSize
	// bytes and returns the new ID. The old ID is released and must not be
	// used again. Contents are undefined after growth; the caller re-uploads
	// live data with WriteBuffer.
	GrowBuffer(id BufferID, newSize int) (BufferID, error)

	// WriteBuffer copies data into the buffer at the given byte offset.
	// The range must lie within the buffer's allocated size.
	WriteBuffer(id BufferID, offset uint64, data []byte)

	// DestroyBuffer releases a buffer. Destroying InvalidID is a no-op.
	DestroyBuffer(id BufferID)

	// BindState makes s the current render state. The engine deduplicates
	// consecutive identical binds, but adapters may additionally skip work
	// when s equals the state already bound.
	BindState(s State) error

	// Draw issues one draw call over vertexCount vertices starting at
	// firstVertex in the given buffer, using the currently bound state's
	// topology and pipeline.
	Draw(buffer BufferID, firstVertex, vertexCount uint32) error
}
