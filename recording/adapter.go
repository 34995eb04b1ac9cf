// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package recording

import (
	"errors"
	"fmt"
	"math"

	"github.com/gogpu/batch/gpucore"
)

// Errors returned by the recording adapter and by its injection knobs.
var (
	ErrUnknownBuffer = errors.New("recording: unknown buffer")
	ErrOutOfRange    = errors.New("recording: access outside buffer bounds")
	ErrInjected      = errors.New("recording: injected failure")
)

// Op names a recorded adapter call.
type Op string

const (
	OpCreateBuffer  Op = "create_buffer"
	OpGrowBuffer    Op = "grow_buffer"
	OpWriteBuffer   Op = "write_buffer"
	OpDestroyBuffer Op = "destroy_buffer"
	OpBindState     Op = "bind_state"
	OpDraw          Op = "draw"
)

// Call is one recorded adapter invocation. Only the fields relevant to the
// op are set.
type Call struct {
	Op     Op
	Buffer gpucore.BufferID
	Offset uint64
	Size   int
	First  uint32
	Count  uint32
	State  gpucore.State
}

// Adapter is an in-memory gpucore.Adapter. The zero value is not usable;
// call New.
type Adapter struct {
	// Calls is every invocation in order. Tests may inspect it directly
	// or through the filtered accessors.
	Calls []Call

	// FailCreate and FailGrow make the next buffer allocation fail with
	// ErrInjected, for exercising capacity error paths.
	FailCreate bool
	FailGrow   bool

	buffers map[gpucore.BufferID][]byte
	nextID  uint64
}

var _ gpucore.Adapter = (*Adapter)(nil)

// New returns an empty recording adapter.
func New() *Adapter {
	return &Adapter{buffers: make(map[gpucore.BufferID][]byte)}
}

// Reset discards recorded calls but keeps buffers alive, so a test can
// record only the phase it cares about.
func (a *Adapter) Reset() { a.Calls = nil }

// CreateBuffer allocates a zeroed in-memory buffer.
func (a *Adapter) CreateBuffer(size int, usage gpucore.BufferUsage) (gpucore.BufferID, error) {
	if a.FailCreate {
		return gpucore.InvalidID, fmt.Errorf("%w: create of %d bytes", ErrInjected, size)
	}
	a.nextID++
	id := gpucore.BufferID(a.nextID)
	a.buffers[id] = make([]byte, size)
	a.record(Call{Op: OpCreateBuffer, Buffer: id, Size: size})
	return id, nil
}

// GrowBuffer replaces a buffer with a larger one. The new contents are
// deliberately filled with a junk byte, not the old data: callers are
// required to re-upload after growth, and tests should notice if they
// don't.
func (a *Adapter) GrowBuffer(id gpucore.BufferID, newSize int) (gpucore.BufferID, error) {
	if _, ok := a.buffers[id]; !ok {
		return gpucore.InvalidID, fmt.Errorf("%w: %d", ErrUnknownBuffer, id)
	}
	if a.FailGrow {
		return gpucore.InvalidID, fmt.Errorf("%w: grow to %d bytes", ErrInjected, newSize)
	}
	delete(a.buffers, id)
	a.nextID++
	grown := gpucore.BufferID(a.nextID)
	junk := make([]byte, newSize)
	for i := range junk {
		junk[i] = 0xEE
	}
	a.buffers[grown] = junk
	a.record(Call{Op: OpGrowBuffer, Buffer: grown, Size: newSize})
	return grown, nil
}

// WriteBuffer copies data into a buffer. Writes to unknown buffers or past
// the end are recorded with Size -1 and otherwise ignored; the recording
// adapter never panics mid-test.
func (a *Adapter) WriteBuffer(id gpucore.BufferID, offset uint64, data []byte) {
	buf, ok := a.buffers[id]
	if !ok || int(offset)+len(data) > len(buf) {
		a.record(Call{Op: OpWriteBuffer, Buffer: id, Offset: offset, Size: -1})
		return
	}
	copy(buf[offset:], data)
	a.record(Call{Op: OpWriteBuffer, Buffer: id, Offset: offset, Size: len(data)})
}

// DestroyBuffer releases a buffer.
func (a *Adapter) DestroyBuffer(id gpucore.BufferID) {
	delete(a.buffers, id)
	a.record(Call{Op: OpDestroyBuffer, Buffer: id})
}

// BindState records a state bind.
func (a *Adapter) BindState(s gpucore.State) error {
	a.record(Call{Op: OpBindState, State: s})
	return nil
}

// Draw records a draw call after bounds-checking it against the buffer and
// the last bound state's vertex stride.
func (a *Adapter) Draw(buffer gpucore.BufferID, firstVertex, vertexCount uint32) error {
	buf, ok := a.buffers[buffer]
	if !ok {
		return fmt.Errorf("%w: draw from %d", ErrUnknownBuffer, buffer)
	}
	stride := a.lastState().Format.Stride() * 4
	end := (int(firstVertex) + int(vertexCount)) * stride
	if end > len(buf) {
		return fmt.Errorf("%w: draw ends at byte %d of %d", ErrOutOfRange, end, len(buf))
	}
	a.record(Call{Op: OpDraw, Buffer: buffer, First: firstVertex, Count: vertexCount})
	return nil
}

// BufferBytes returns a copy of a buffer's contents.
func (a *Adapter) BufferBytes(id gpucore.BufferID) []byte {
	return append([]byte(nil), a.buffers[id]...)
}

// BufferFloats returns a buffer's contents decoded as little-endian
// float32 values, the layout every vertex format uses.
func (a *Adapter) BufferFloats(id gpucore.BufferID) []float32 {
	buf := a.buffers[id]
	out := make([]float32, len(buf)/4)
	for i := range out {
		bits := uint32(buf[i*4]) | uint32(buf[i*4+1])<<8 | uint32(buf[i*4+2])<<16 | uint32(buf[i*4+3])<<24
		out[i] = math.Float32frombits(bits)
	}
	return out
}

// DrawCalls returns only the recorded draws, in order.
func (a *Adapter) DrawCalls() []Call {
	return a.filter(OpDraw)
}

// BindCalls returns only the recorded state binds, in order.
func (a *Adapter) BindCalls() []Call {
	return a.filter(OpBindState)
}

func (a *Adapter) filter(op Op) []Call {
	var out []Call
	for _, c := range a.Calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

func (a *Adapter) record(c Call) { a.Calls = append(a.Calls, c) }

// lastState returns the most recently bound state, or the zero state if
// none was bound yet.
func (a *Adapter) lastState() gpucore.State {
	for i := len(a.Calls) - 1; i >= 0; i-- {
		if a.Calls[i].Op == OpBindState {
			return a.Calls[i].State
		}
	}
	return gpucore.State{}
}
