package batch

import (
	"fmt"

	"github.com/gogpu/batch/gpucore"
)

// RenderState is the backend state a drawable is rendered with. Drawables
// added to the same group with equal render state share one vertex region
// and one draw call.
type RenderState = gpucore.State

// Batch accumulates drawables and replays them with as few backend calls
// as possible. Vertices live in one shared, persistently allocated buffer;
// a cached draw plan orders draws by the group forest and is rebuilt only
// after structural changes.
//
// A Batch is not safe for concurrent use. All methods, including Draw,
// must be called from a single goroutine.
type Batch struct {
	adapter gpucore.Adapter
	store   *VertexStore
	label   string

	groups   []groupNode
	groupSeq uint64

	domains     map[domainKey]*domain
	domainsByID map[uint32]*domain
	domainID    uint32
	domainSeq   uint64

	plan      []planOp
	planValid bool
	version   uint64
}

// New creates an empty batch drawing through adapter.
func New(adapter gpucore.Adapter, opts ...Option) *Batch {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	b := &Batch{
		adapter:     adapter,
		store:       NewVertexStore(adapter, o.initialCapacity, o.growthFactor),
		label:       o.label,
		groups:      []groupNode{{visible: true, alive: true}},
		domains:     make(map[domainKey]*domain),
		domainsByID: make(map[uint32]*domain),
	}
	b.store.label = o.label
	return b
}

// Adapter returns the backend adapter the batch draws through. State hooks
// receive the same adapter during Draw.
func (b *Batch) Adapter() gpucore.Adapter { return b.adapter }

// Add registers vertex data under a group with the given render state and
// returns a handle for later updates. The data length must be a non-zero
// multiple of the state's vertex stride. On error the batch is unchanged.
func (b *Batch) Add(group GroupID, state RenderState, vertices []float32) (Handle, error) {
	if _, err := b.group(group); err != nil {
		return Handle{}, err
	}
	if len(vertices) == 0 {
		return Handle{}, ErrEmptyData
	}
	stride := state.Format.Stride()
	if len(vertices)%stride != 0 {
		return Handle{}, fmt.Errorf("%w: %d elements, stride %d", ErrBadLength, len(vertices), stride)
	}

	_, existed := b.domains[domainKey{group: group, state: state}]
	d := b.domainFor(group, state)
	idx, gen, err := d.add(b.store, vertices)
	if err != nil {
		if !existed {
			b.destroyDomain(d)
		}
		return Handle{}, err
	}
	return Handle{domain: d.id, slot: idx, gen: gen}, nil
}

// Update rewrites a drawable's vertex data in place. The new data must
// have exactly the length passed to Add; resizing a drawable is a
// Remove followed by an Add. Update never changes the draw plan.
func (b *Batch) Update(h Handle, vertices []float32) error {
	d, err := b.resolve(h)
	if err != nil {
		return err
	}
	return d.update(b.store, h.slot, vertices)
}

// Remove deletes a drawable. Its handle and any copies of it go stale.
// The freed vertex range is reused by later Adds with the same group and
// render state.
func (b *Batch) Remove(h Handle) error {
	d, err := b.resolve(h)
	if err != nil {
		return err
	}
	if err := d.remove(b.store, h.slot); err != nil {
		return err
	}
	if d.count == 0 {
		b.destroyDomain(d)
	}
	return nil
}

// Draw replays the batch through the adapter. The plan is rebuilt first if
// a structural change occurred; otherwise the cached plan is reused and
// drawing a batch twice in a row issues identical backend calls.
func (b *Batch) Draw() error {
	if !b.planValid {
		b.rebuildPlan()
	}
	var bound gpucore.State
	haveBound := false
	for _, op := range b.plan {
		switch op.kind {
		case opBind:
			op.hook.Bind(b.adapter)
			// The hook may have touched anything; re-bind next draw.
			haveBound = false
		case opUnbind:
			op.hook.Unbind(b.adapter)
			haveBound = false
		case opDraw:
			if !haveBound || bound != op.d.state {
				if err := b.adapter.BindState(op.d.state); err != nil {
					return err
				}
				bound = op.d.state
				haveBound = true
			}
			if err := b.adapter.Draw(b.store.Buffer(), op.d.firstVertex(), op.d.vertexCount()); err != nil {
				return err
			}
		}
	}
	return nil
}

// Invalidate forces the draw plan to be rebuilt on the next Draw. Batch
// mutations invalidate automatically; this is for callers whose state
// hooks depend on external conditions the batch cannot see.
func (b *Batch) Invalidate() {
	b.invalidate()
}

// Destroy releases the batch's backend resources. The batch and all
// handles into it must not be used afterwards.
func (b *Batch) Destroy() {
	b.store.Destroy()
	b.plan = nil
	b.planValid = false
}

// Stats describes a batch's current shape, mainly for tests and debug
// logging.
type Stats struct {
	Groups      int // live groups, root included
	Domains     int // live (group, state) domains
	Drawables   int // live drawables across all domains
	PlanOps     int // ops in the cached plan; 0 when invalidated
	PlanVersion uint64
	Capacity    int // vertex store capacity, float32 elements
	Used        int // vertex store elements held by domain regions
}

// Stats returns counters describing the batch.
func (b *Batch) Stats() Stats {
	s := Stats{
		Domains:     len(b.domains),
		PlanVersion: b.version,
		Capacity:    b.store.Capacity(),
		Used:        b.store.Used(),
	}
	for i := range b.groups {
		if b.groups[i].alive {
			s.Groups++
		}
	}
	for _, d := range b.domains {
		s.Drawables += d.count
	}
	if b.planValid {
		s.PlanOps = len(b.plan)
	}
	return s
}

// resolve maps a handle to its domain, rejecting stale handles.
func (b *Batch) resolve(h Handle) (*domain, error) {
	d, ok := b.domainsByID[h.domain]
	if !ok {
		return nil, ErrStaleHandle
	}
	if int(h.slot) >= len(d.slots) {
		return nil, ErrStaleHandle
	}
	s := &d.slots[h.slot]
	if !s.alive || s.gen != h.gen {
		return nil, ErrStaleHandle
	}
	return d, nil
}

// invalidate marks the plan dirty after a structural change.
func (b *Batch) invalidate() {
	b.planValid = false
	b.version++
}
