// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package batch

import (
	"fmt"
	"unsafe"

	"github.com/gogpu/batch/gpucore"
)

// Default store configuration constants.
const (
	// defaultStoreCapacity is the initial store size in float32 elements.
	defaultStoreCapacity = 4096
	// defaultGrowthFactor is the buffer growth multiplier.
	defaultGrowthFactor = 2.0
	// bytesPerFloat is the on-GPU size of one element.
	bytesPerFloat = 4
)

// span is a contiguous range of float32 elements in the store.
type span struct {
	off int
	n   int
}

func (s span) end() int { return s.off + s.n }

// VertexStore owns the raw vertex data of one Batch: a CPU-side float32
// mirror and a backend buffer kept in sync through the adapter. Domains are
// allocated as contiguous regions; freed regions are coalesced into a
// free-list and reused before the buffer grows.
//
// Region offsets are aligned so that offset/stride is integral for the
// region's vertex stride, letting draws address the shared buffer by
// first-vertex index.
//
// A VertexStore is owned exclusively by one Batch and is not safe for
// concurrent use.
type VertexStore struct {
	adapter gpucore.Adapter
	usage   gpucore.BufferUsage
	label   string

	data   []float32   // mirror; capacity == len(data)
	free   freeList    // sorted by offset, adjacent spans coalesced
	allocs map[int]int // live region offset -> length
	growth float64

	buffer gpucore.BufferID
}

// NewVertexStore creates a store with the given initial capacity (in
// float32 elements) and growth factor. The backend buffer is created
// lazily on the first write.
func NewVertexStore(adapter gpucore.Adapter, capacity int, growth float64) *VertexStore {
	if capacity <= 0 {
		capacity = defaultStoreCapacity
	}
	if growth <= 1 {
		growth = defaultGrowthFactor
	}
	return &VertexStore{
		adapter: adapter,
		usage:   gpucore.BufferUsageVertex | gpucore.BufferUsageCopyDst,
		label:   "batch",
		data:    make([]float32, capacity),
		free:    freeList{{off: 0, n: capacity}},
		allocs:  make(map[int]int),
		growth:  growth,
	}
}

// Capacity returns the store's current capacity in float32 elements.
func (vs *VertexStore) Capacity() int { return len(vs.data) }

// Used returns the total length of live regions in float32 elements.
func (vs *VertexStore) Used() int {
	used := 0
	for _, n := range vs.allocs {
		used += n
	}
	return used
}

// Buffer returns the backend buffer ID, or gpucore.InvalidID before the
// first write.
func (vs *VertexStore) Buffer() gpucore.BufferID { return vs.buffer }

// Reserve allocates a region of n elements whose offset is a multiple of
// align, growing the underlying buffer as needed. Zero and negative
// lengths are rejected.
func (vs *VertexStore) Reserve(n, align int) (int, error) {
	if n <= 0 {
		return 0, ErrZeroLength
	}
	if align < 1 {
		align = 1
	}
	if off, ok := vs.free.take(n, align); ok {
		vs.allocs[off] = n
		return off, nil
	}
	// No span fits: grow so the new tail alone can hold the request,
	// regardless of fragmentation. n+align bounds the worst-case
	// alignment padding.
	if err := vs.grow(len(vs.data) + n + align); err != nil {
		return 0, err
	}
	off, ok := vs.free.take(n, align)
	if !ok {
		return 0, fmt.Errorf("%w: no span of %d elements after growth", ErrCapacity, n)
	}
	vs.allocs[off] = n
	return off, nil
}

// Release returns a region to the free-list, coalescing with adjacent free
// ranges. Releasing a range the store does not own returns ErrCorruption:
// it indicates a caller or handle bug, not a recoverable condition.
func (vs *VertexStore) Release(off, n int) error {
	if got, ok := vs.allocs[off]; !ok || got != n {
		return fmt.Errorf("%w: offset %d length %d", ErrCorruption, off, n)
	}
	delete(vs.allocs, off)
	vs.free.insert(span{off: off, n: n})
	return nil
}

// Resize changes a region from oldN to newN elements, moving data only if
// in-place growth cannot be satisfied. Returns the region's new offset
// (equal to off when no move happened).
func (vs *VertexStore) Resize(off, oldN, newN, align int) (int, error) {
	if got, ok := vs.allocs[off]; !ok || got != oldN {
		return 0, fmt.Errorf("%w: resize of offset %d length %d", ErrCorruption, off, oldN)
	}
	if newN <= 0 {
		return 0, ErrZeroLength
	}
	if newN == oldN {
		return off, nil
	}
	if newN < oldN {
		vs.allocs[off] = newN
		vs.free.insert(span{off: off + newN, n: oldN - newN})
		return off, nil
	}
	// Try extending in place into a free span that starts right after.
	needed := newN - oldN
	for i, s := range vs.free {
		if s.off != off+oldN {
			continue
		}
		if s.n < needed {
			break
		}
		if s.n == needed {
			vs.free = append(vs.free[:i], vs.free[i+1:]...)
		} else {
			vs.free[i] = span{off: s.off + needed, n: s.n - needed}
		}
		vs.allocs[off] = newN
		return off, nil
	}
	// Move: reserve a new region, copy live data, release the old one.
	newOff, err := vs.Reserve(newN, align)
	if err != nil {
		return 0, err
	}
	copy(vs.data[newOff:newOff+oldN], vs.data[off:off+oldN])
	if vs.buffer != gpucore.InvalidID {
		vs.adapter.WriteBuffer(vs.buffer, uint64(newOff)*bytesPerFloat,
			floatBytes(vs.data[newOff:newOff+oldN]))
	}
	if err := vs.Release(off, oldN); err != nil {
		return 0, err
	}
	return newOff, nil
}

// Write copies data into the store at off and mirrors it to the backend
// buffer, creating the buffer on first use.
func (vs *VertexStore) Write(off int, data []float32) error {
	if off < 0 || off+len(data) > len(vs.data) {
		return fmt.Errorf("%w: write of %d elements at offset %d", ErrCorruption, len(data), off)
	}
	if err := vs.ensureBuffer(); err != nil {
		return err
	}
	copy(vs.data[off:off+len(data)], data)
	vs.adapter.WriteBuffer(vs.buffer, uint64(off)*bytesPerFloat, floatBytes(vs.data[off:off+len(data)]))
	return nil
}

// Zero overwrites a range with zeros so it rasterizes as degenerate
// primitives until reused.
func (vs *VertexStore) Zero(off, n int) error {
	return vs.Write(off, make([]float32, n))
}

// Data returns the mirror contents of a region. The slice aliases the
// store; callers must not retain it across mutations.
func (vs *VertexStore) Data(off, n int) []float32 {
	return vs.data[off : off+n]
}

// Destroy releases the backend buffer. The store must not be used after.
func (vs *VertexStore) Destroy() {
	if vs.buffer != gpucore.InvalidID {
		vs.adapter.DestroyBuffer(vs.buffer)
		vs.buffer = gpucore.InvalidID
	}
}

// freeList tracks unallocated spans, sorted by offset with adjacent spans
// coalesced. Both the store and domain sub-allocation use it.
type freeList []span

// take removes an aligned range of n elements from the list, returning its
// offset. First fit in offset order keeps fragmentation low and the
// draw-relevant low offsets densely packed.
func (fl *freeList) take(n, align int) (int, bool) {
	l := *fl
	for i, s := range l {
		start := alignUp(s.off, align)
		pad := start - s.off
		if pad+n > s.n {
			continue
		}
		tail := span{off: start + n, n: s.n - pad - n}
		switch {
		case pad == 0 && tail.n == 0:
			l = append(l[:i], l[i+1:]...)
		case pad == 0:
			l[i] = tail
		case tail.n == 0:
			l[i] = span{off: s.off, n: pad}
		default:
			l[i] = span{off: s.off, n: pad}
			l = append(l, span{})
			copy(l[i+2:], l[i+1:])
			l[i+1] = tail
		}
		*fl = l
		return start, true
	}
	return 0, false
}

// insert adds a span back, keeping the list sorted and coalescing with
// adjacent spans.
func (fl *freeList) insert(s span) {
	l := *fl
	i := 0
	for i < len(l) && l[i].off < s.off {
		i++
	}
	l = append(l, span{})
	copy(l[i+1:], l[i:])
	l[i] = s

	// Coalesce with the next span, then the previous one.
	if i+1 < len(l) && l[i].end() == l[i+1].off {
		l[i].n += l[i+1].n
		l = append(l[:i+1], l[i+2:]...)
	}
	if i > 0 && l[i-1].end() == l[i].off {
		l[i-1].n += l[i].n
		l = append(l[:i], l[i+1:]...)
	}
	*fl = l
}

// grow extends the store to at least minCapacity elements, multiplying by
// the growth factor. The backend buffer, if it exists, is replaced and the
// whole mirror re-uploaded once, amortizing cost across many reservations.
func (vs *VertexStore) grow(minCapacity int) error {
	old := len(vs.data)
	newCap := old
	for newCap < minCapacity {
		newCap = int(float64(newCap) * vs.growth)
		if newCap <= old {
			newCap = old + minCapacity
		}
	}
	if newCap == old {
		return nil
	}
	if vs.buffer != gpucore.InvalidID {
		grown, err := vs.adapter.GrowBuffer(vs.buffer, newCap*bytesPerFloat)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrCapacity, err)
		}
		vs.buffer = grown
	}
	vs.data = append(vs.data, make([]float32, newCap-old)...)
	vs.free.insert(span{off: old, n: newCap - old})
	if vs.buffer != gpucore.InvalidID {
		// Contents are undefined after GrowBuffer; re-upload the mirror.
		vs.adapter.WriteBuffer(vs.buffer, 0, floatBytes(vs.data))
	}
	Logger().Debug("vertex store grown", "label", vs.label, "capacity", newCap)
	return nil
}

// ensureBuffer creates the backend buffer on first use.
func (vs *VertexStore) ensureBuffer() error {
	if vs.buffer != gpucore.InvalidID {
		return nil
	}
	id, err := vs.adapter.CreateBuffer(len(vs.data)*bytesPerFloat, vs.usage)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCapacity, err)
	}
	vs.buffer = id
	return nil
}

// alignUp rounds v up to the next multiple of align.
func alignUp(v, align int) int {
	rem := v % align
	if rem == 0 {
		return v
	}
	return v + align - rem
}

// floatBytes reinterprets a float32 slice as raw bytes for buffer uploads.
func floatBytes(f []float32) []byte {
	if len(f) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&f[0])), len(f)*bytesPerFloat)
}
