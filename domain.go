package batch

import (
	"fmt"

	"github.com/gogpu/batch/gpucore"
)

// domainGrowth is the region growth multiplier applied when a domain's
// region is full. Moderate over-allocation keeps repeated Add calls from
// resizing the region every time.
const domainGrowth = 1.5

// domainKey identifies the domain a drawable lands in: one domain exists
// per (group, render state) pair.
type domainKey struct {
	group GroupID
	state gpucore.State
}

// domain owns one contiguous region of the vertex store and sub-allocates
// slots for drawables that share a group and render state, so they can be
// issued as a single draw call.
type domain struct {
	id    uint32 // monotonic, never reused; stale-handle detection
	group GroupID
	state gpucore.State
	seq   uint64 // creation sequence, orders domains within a group

	off  int // region offset in the store, aligned to stride
	cap  int // region capacity in float32 elements
	high int // high-water mark; everything below is written or zeroed
	free freeList

	slots     []slot
	freeSlots []uint32
	count     int // live drawables
}

// slot is one drawable's range within the domain region. Offsets are
// relative to the region start. gen increments on every free so recycled
// slot indices do not resurrect old handles.
type slot struct {
	off   int
	n     int
	gen   uint32
	alive bool
}

// domainFor returns the domain for (group, state), creating it on first
// use. A new domain changes the draw plan.
func (b *Batch) domainFor(group GroupID, state gpucore.State) *domain {
	key := domainKey{group: group, state: state}
	if d, ok := b.domains[key]; ok {
		return d
	}
	b.domainID++
	b.domainSeq++
	d := &domain{
		id:    b.domainID,
		group: group,
		state: state,
		seq:   b.domainSeq,
	}
	b.domains[key] = d
	b.domainsByID[d.id] = d
	g := &b.groups[group]
	g.domains = append(g.domains, d)
	b.invalidate()
	Logger().Debug("domain created", "domain", d.id, "group", group, "state", state)
	return d
}

// destroyDomain releases a domain's region and unregisters it. Handles
// into it go stale through the domainsByID lookup.
func (b *Batch) destroyDomain(d *domain) {
	if d.cap > 0 {
		if err := b.store.Release(d.off, d.cap); err != nil {
			Logger().Warn("domain region release failed", "domain", d.id, "error", err)
		}
	}
	delete(b.domains, domainKey{group: d.group, state: d.state})
	delete(b.domainsByID, d.id)
	if g := &b.groups[d.group]; g.alive {
		for i, gd := range g.domains {
			if gd == d {
				g.domains = append(g.domains[:i], g.domains[i+1:]...)
				break
			}
		}
	}
	d.slots = nil
	d.free = nil
	d.cap = 0
	d.high = 0
	b.invalidate()
}

// add places vertex data in the domain, growing its region if needed, and
// returns the slot index and generation for the drawable's handle.
func (d *domain) add(store *VertexStore, data []float32) (uint32, uint32, error) {
	n := len(data)
	rel, ok := d.free.take(n, 1)
	if !ok {
		if err := d.growRegion(store, n); err != nil {
			return 0, 0, err
		}
		rel, ok = d.free.take(n, 1)
		if !ok {
			return 0, 0, fmt.Errorf("%w: domain region growth left no span of %d elements", ErrCorruption, n)
		}
	}
	if err := store.Write(d.off+rel, data); err != nil {
		d.free.insert(span{off: rel, n: n})
		return 0, 0, err
	}

	var idx uint32
	if k := len(d.freeSlots); k > 0 {
		idx = d.freeSlots[k-1]
		d.freeSlots = d.freeSlots[:k-1]
		gen := d.slots[idx].gen
		d.slots[idx] = slot{off: rel, n: n, gen: gen, alive: true}
	} else {
		idx = uint32(len(d.slots))
		d.slots = append(d.slots, slot{off: rel, n: n, alive: true})
	}
	if rel+n > d.high {
		d.high = rel + n
	}
	d.count++
	return idx, d.slots[idx].gen, nil
}

// update rewrites a slot's vertex data in place. The length must match the
// slot exactly; size changes go through remove+add.
func (d *domain) update(store *VertexStore, idx uint32, data []float32) error {
	s := &d.slots[idx]
	if len(data) != s.n {
		return fmt.Errorf("%w: slot holds %d elements, got %d", ErrSizeMismatch, s.n, len(data))
	}
	return store.Write(d.off+s.off, data)
}

// remove frees a slot. Its vertex range is zero-filled so it rasterizes as
// degenerate primitives, which keeps the domain's single draw call valid
// without restructuring the plan.
func (d *domain) remove(store *VertexStore, idx uint32) error {
	s := &d.slots[idx]
	if err := store.Zero(d.off+s.off, s.n); err != nil {
		return err
	}
	d.free.insert(span{off: s.off, n: s.n})
	s.alive = false
	s.gen++
	d.freeSlots = append(d.freeSlots, idx)
	d.count--
	return nil
}

// growRegion extends the domain's region to hold at least n more elements.
// The store may move the region; relative slot offsets stay valid because
// Resize copies live contents.
func (d *domain) growRegion(store *VertexStore, n int) error {
	stride := d.state.Format.Stride()
	if d.cap == 0 {
		off, err := store.Reserve(n, stride)
		if err != nil {
			return err
		}
		d.off = off
		d.cap = n
		d.free = freeList{{off: 0, n: n}}
		return nil
	}
	newCap := int(float64(d.cap) * domainGrowth)
	if newCap < d.cap+n {
		newCap = d.cap + n
	}
	// Keep the region a whole number of vertices so firstVertex stays
	// integral for every slot.
	newCap = alignUp(newCap, stride)
	newOff, err := store.Resize(d.off, d.cap, newCap, stride)
	if err != nil {
		return err
	}
	d.free.insert(span{off: d.cap, n: newCap - d.cap})
	d.off = newOff
	d.cap = newCap
	return nil
}

// firstVertex converts the region offset into a vertex index in the shared
// buffer. Region alignment guarantees this divides evenly.
func (d *domain) firstVertex() uint32 {
	return uint32(d.off / d.state.Format.Stride())
}

// vertexCount is the number of vertices the domain's draw call covers:
// everything below the high-water mark. Freed slots in that range are
// zeroed, so they contribute only degenerate primitives; the tail above it
// has never been written and is excluded.
func (d *domain) vertexCount() uint32 {
	return uint32(d.high / d.state.Format.Stride())
}
