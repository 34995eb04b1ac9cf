package batch

import (
	"errors"
	"testing"

	"github.com/gogpu/batch/recording"
)

func newTestStore(t *testing.T, capacity int) (*VertexStore, *recording.Adapter) {
	t.Helper()
	rec := recording.New()
	return NewVertexStore(rec, capacity, 2.0), rec
}

func seq(start float32, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = start + float32(i)
	}
	return out
}

func TestStoreReserveFirstFit(t *testing.T) {
	vs, _ := newTestStore(t, 64)

	a, err := vs.Reserve(10, 1)
	if err != nil {
		t.Fatalf("Reserve(10): %v", err)
	}
	if a != 0 {
		t.Fatalf("first reservation at %d, want 0", a)
	}
	b, err := vs.Reserve(20, 1)
	if err != nil {
		t.Fatalf("Reserve(20): %v", err)
	}
	if b != 10 {
		t.Fatalf("second reservation at %d, want 10", b)
	}

	if err := vs.Release(a, 10); err != nil {
		t.Fatalf("Release: %v", err)
	}
	c, err := vs.Reserve(8, 1)
	if err != nil {
		t.Fatalf("Reserve(8): %v", err)
	}
	if c != 0 {
		t.Fatalf("freed range not reused first-fit: got offset %d, want 0", c)
	}
	if got := vs.Used(); got != 28 {
		t.Fatalf("Used() = %d, want 28", got)
	}
}

func TestStoreReserveAlignment(t *testing.T) {
	vs, _ := newTestStore(t, 64)

	if _, err := vs.Reserve(5, 1); err != nil {
		t.Fatalf("Reserve(5): %v", err)
	}
	off, err := vs.Reserve(12, 6)
	if err != nil {
		t.Fatalf("Reserve(12, align 6): %v", err)
	}
	if off%6 != 0 {
		t.Fatalf("offset %d not aligned to 6", off)
	}
	if off != 6 {
		t.Fatalf("offset = %d, want 6 (first aligned position)", off)
	}
}

func TestStoreReserveZeroLength(t *testing.T) {
	vs, _ := newTestStore(t, 64)
	if _, err := vs.Reserve(0, 1); !errors.Is(err, ErrZeroLength) {
		t.Fatalf("Reserve(0) error = %v, want ErrZeroLength", err)
	}
	if _, err := vs.Reserve(-3, 1); !errors.Is(err, ErrZeroLength) {
		t.Fatalf("Reserve(-3) error = %v, want ErrZeroLength", err)
	}
}

func TestStoreReleaseCoalesce(t *testing.T) {
	vs, _ := newTestStore(t, 30)

	a, _ := vs.Reserve(10, 1)
	b, _ := vs.Reserve(10, 1)
	c, _ := vs.Reserve(10, 1)

	// Release out of order so both coalesce directions are exercised.
	if err := vs.Release(a, 10); err != nil {
		t.Fatalf("Release(a): %v", err)
	}
	if err := vs.Release(c, 10); err != nil {
		t.Fatalf("Release(c): %v", err)
	}
	if err := vs.Release(b, 10); err != nil {
		t.Fatalf("Release(b): %v", err)
	}

	if len(vs.free) != 1 {
		t.Fatalf("free list has %d spans after full release, want 1: %v", len(vs.free), vs.free)
	}
	off, err := vs.Reserve(30, 1)
	if err != nil {
		t.Fatalf("Reserve(30) after coalesce: %v", err)
	}
	if off != 0 {
		t.Fatalf("coalesced reservation at %d, want 0", off)
	}
}

func TestStoreReleaseUnowned(t *testing.T) {
	vs, _ := newTestStore(t, 64)
	if err := vs.Release(3, 5); !errors.Is(err, ErrCorruption) {
		t.Fatalf("Release of unowned range = %v, want ErrCorruption", err)
	}
	off, _ := vs.Reserve(10, 1)
	if err := vs.Release(off, 4); !errors.Is(err, ErrCorruption) {
		t.Fatalf("Release with wrong length = %v, want ErrCorruption", err)
	}
}

func TestStoreWriteCreatesBuffer(t *testing.T) {
	vs, rec := newTestStore(t, 16)

	if vs.Buffer() != 0 {
		t.Fatalf("buffer exists before first write")
	}
	off, _ := vs.Reserve(4, 1)
	if err := vs.Write(off, seq(1, 4)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if vs.Buffer() == 0 {
		t.Fatalf("buffer not created on first write")
	}
	got := rec.BufferFloats(vs.Buffer())
	for i, want := range seq(1, 4) {
		if got[off+i] != want {
			t.Fatalf("buffer[%d] = %v, want %v", off+i, got[off+i], want)
		}
	}
}

func TestStoreWriteOutOfBounds(t *testing.T) {
	vs, _ := newTestStore(t, 8)
	if err := vs.Write(6, seq(0, 4)); !errors.Is(err, ErrCorruption) {
		t.Fatalf("out-of-bounds write = %v, want ErrCorruption", err)
	}
	if err := vs.Write(-1, seq(0, 2)); !errors.Is(err, ErrCorruption) {
		t.Fatalf("negative-offset write = %v, want ErrCorruption", err)
	}
}

func TestStoreGrowPreservesData(t *testing.T) {
	vs, rec := newTestStore(t, 8)

	off, _ := vs.Reserve(8, 1)
	if err := vs.Write(off, seq(10, 8)); err != nil {
		t.Fatalf("Write: %v", err)
	}

	// Capacity exhausted: the next reservation must grow the buffer and
	// re-upload the mirror. The recording adapter junk-fills grown buffers
	// so a missing re-upload shows up here.
	off2, err := vs.Reserve(8, 1)
	if err != nil {
		t.Fatalf("Reserve after exhaustion: %v", err)
	}
	if vs.Capacity() < 16 {
		t.Fatalf("Capacity() = %d after growth, want >= 16", vs.Capacity())
	}
	if err := vs.Write(off2, seq(50, 8)); err != nil {
		t.Fatalf("Write after growth: %v", err)
	}

	got := rec.BufferFloats(vs.Buffer())
	for i, want := range seq(10, 8) {
		if got[off+i] != want {
			t.Fatalf("pre-growth data lost: buffer[%d] = %v, want %v", off+i, got[off+i], want)
		}
	}
}

func TestStoreReserveGrowsUnderFragmentation(t *testing.T) {
	vs, rec := newTestStore(t, 16)

	var offs []int
	for i := 0; i < 4; i++ {
		off, err := vs.Reserve(4, 1)
		if err != nil {
			t.Fatalf("Reserve(4): %v", err)
		}
		offs = append(offs, off)
	}
	if err := vs.Write(offs[1], seq(100, 4)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := vs.Release(offs[0], 4); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := vs.Release(offs[2], 4); err != nil {
		t.Fatalf("Release: %v", err)
	}

	// 8 of 16 elements are free, but split into two non-adjacent spans of
	// 4: no span holds 6, so the store must grow rather than fail.
	off, err := vs.Reserve(6, 1)
	if err != nil {
		t.Fatalf("Reserve(6) on fragmented store: %v", err)
	}
	if off != 16 {
		t.Fatalf("grown reservation at %d, want 16", off)
	}
	if got := vs.Capacity(); got != 32 {
		t.Fatalf("Capacity() = %d after growth, want 32", got)
	}

	got := rec.BufferFloats(vs.Buffer())
	for i, want := range seq(100, 4) {
		if got[offs[1]+i] != want {
			t.Fatalf("live data lost: buffer[%d] = %v, want %v", offs[1]+i, got[offs[1]+i], want)
		}
	}
}

func TestStoreGrowFailure(t *testing.T) {
	vs, rec := newTestStore(t, 8)
	off, _ := vs.Reserve(8, 1)
	if err := vs.Write(off, seq(0, 8)); err != nil {
		t.Fatalf("Write: %v", err)
	}

	rec.FailGrow = true
	if _, err := vs.Reserve(8, 1); !errors.Is(err, ErrCapacity) {
		t.Fatalf("Reserve with failing grow = %v, want ErrCapacity", err)
	}
	if vs.Capacity() != 8 {
		t.Fatalf("Capacity() = %d after failed growth, want 8 (unchanged)", vs.Capacity())
	}
	if vs.Used() != 8 {
		t.Fatalf("Used() = %d after failed growth, want 8 (unchanged)", vs.Used())
	}
}

func TestStoreCreateFailure(t *testing.T) {
	vs, rec := newTestStore(t, 8)
	rec.FailCreate = true
	off, _ := vs.Reserve(4, 1)
	if err := vs.Write(off, seq(0, 4)); !errors.Is(err, ErrCapacity) {
		t.Fatalf("Write with failing create = %v, want ErrCapacity", err)
	}
}

func TestStoreResizeShrink(t *testing.T) {
	vs, _ := newTestStore(t, 32)
	off, _ := vs.Reserve(12, 1)

	got, err := vs.Resize(off, 12, 6, 1)
	if err != nil {
		t.Fatalf("Resize shrink: %v", err)
	}
	if got != off {
		t.Fatalf("shrink moved region to %d, want %d", got, off)
	}
	// The freed tail must be reusable immediately.
	tail, err := vs.Reserve(6, 1)
	if err != nil {
		t.Fatalf("Reserve after shrink: %v", err)
	}
	if tail != off+6 {
		t.Fatalf("tail reservation at %d, want %d", tail, off+6)
	}
}

func TestStoreResizeInPlace(t *testing.T) {
	vs, _ := newTestStore(t, 32)
	off, _ := vs.Reserve(8, 1)

	got, err := vs.Resize(off, 8, 16, 1)
	if err != nil {
		t.Fatalf("Resize extend: %v", err)
	}
	if got != off {
		t.Fatalf("in-place extension moved region to %d, want %d", got, off)
	}
	if vs.Used() != 16 {
		t.Fatalf("Used() = %d, want 16", vs.Used())
	}
}

func TestStoreResizeMove(t *testing.T) {
	vs, rec := newTestStore(t, 64)

	a, _ := vs.Reserve(8, 1)
	if err := vs.Write(a, seq(100, 8)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	// A neighbor directly after blocks in-place extension.
	if _, err := vs.Reserve(8, 1); err != nil {
		t.Fatalf("Reserve neighbor: %v", err)
	}

	moved, err := vs.Resize(a, 8, 24, 1)
	if err != nil {
		t.Fatalf("Resize move: %v", err)
	}
	if moved == a {
		t.Fatalf("blocked extension did not move the region")
	}
	for i, want := range seq(100, 8) {
		if got := vs.Data(moved, 8)[i]; got != want {
			t.Fatalf("moved mirror[%d] = %v, want %v", i, got, want)
		}
	}
	got := rec.BufferFloats(vs.Buffer())
	for i, want := range seq(100, 8) {
		if got[moved+i] != want {
			t.Fatalf("moved buffer[%d] = %v, want %v", moved+i, got[moved+i], want)
		}
	}
	// The old range must be free again.
	back, err := vs.Reserve(8, 1)
	if err != nil {
		t.Fatalf("Reserve after move: %v", err)
	}
	if back != a {
		t.Fatalf("old range not freed: reservation at %d, want %d", back, a)
	}
}

func TestStoreZero(t *testing.T) {
	vs, rec := newTestStore(t, 16)
	off, _ := vs.Reserve(6, 1)
	if err := vs.Write(off, seq(1, 6)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := vs.Zero(off, 6); err != nil {
		t.Fatalf("Zero: %v", err)
	}
	got := rec.BufferFloats(vs.Buffer())
	for i := 0; i < 6; i++ {
		if got[off+i] != 0 {
			t.Fatalf("buffer[%d] = %v after Zero, want 0", off+i, got[off+i])
		}
	}
}

func TestStoreDestroy(t *testing.T) {
	vs, rec := newTestStore(t, 16)
	off, _ := vs.Reserve(4, 1)
	if err := vs.Write(off, seq(0, 4)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	id := vs.Buffer()
	vs.Destroy()
	if vs.Buffer() != 0 {
		t.Fatalf("Buffer() = %d after Destroy, want 0", vs.Buffer())
	}
	destroys := 0
	for _, c := range rec.Calls {
		if c.Op == recording.OpDestroyBuffer && c.Buffer == id {
			destroys++
		}
	}
	if destroys != 1 {
		t.Fatalf("buffer %d destroyed %d times, want 1", id, destroys)
	}
}

func TestFreeListTakeSplitsSpan(t *testing.T) {
	fl := freeList{{off: 0, n: 20}}

	off, ok := fl.take(4, 6)
	if !ok {
		t.Fatalf("take(4, 6) failed")
	}
	if off != 0 {
		t.Fatalf("take at %d, want 0", off)
	}

	// A misaligned leading span forces padding: take must split it into a
	// head span, the taken range, and a tail span.
	fl = freeList{{off: 1, n: 19}}
	off, ok = fl.take(4, 6)
	if !ok {
		t.Fatalf("take with padding failed")
	}
	if off != 6 {
		t.Fatalf("aligned take at %d, want 6", off)
	}
	want := freeList{{off: 1, n: 5}, {off: 10, n: 10}}
	if len(fl) != len(want) || fl[0] != want[0] || fl[1] != want[1] {
		t.Fatalf("free list after padded take = %v, want %v", fl, want)
	}
}
