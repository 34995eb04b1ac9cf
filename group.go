package batch

import (
	"fmt"

	"github.com/gogpu/batch/gpucore"
)

// GroupID names a group in a Batch's ordering forest. The zero value is
// RootGroup, the implicit root every batch starts with.
type GroupID uint32

// RootGroup is the implicit root of the group forest. It cannot be
// destroyed, reparented or reordered, and carries no state hook.
const RootGroup GroupID = 0

// StateHook injects backend work around a group's subtree during Draw.
// Bind runs before any drawable under the group is drawn, Unbind after the
// last one. Either may be nil. Hooks run for every Draw that reaches the
// group, even when the cached draw plan is reused, so they may carry
// per-frame work such as uniform updates.
//
// Hooks must not mutate the batch that is drawing them.
type StateHook struct {
	Bind   func(gpucore.Adapter)
	Unbind func(gpucore.Adapter)
}

// groupNode is one entry in the batch's group arena. Nodes are never
// removed from the arena; destroyed nodes stay behind with alive=false so
// stale GroupIDs are detected instead of aliased.
type groupNode struct {
	parent   GroupID
	children []GroupID
	order    int
	seq      uint64 // creation sequence, tie-break for equal order
	visible  bool
	alive    bool
	hook     *StateHook
	domains  []*domain
}

// CreateGroup adds a group under parent with the given draw order. Among
// siblings, lower order draws first; equal orders draw in creation order.
// hook may be nil.
func (b *Batch) CreateGroup(parent GroupID, order int, hook *StateHook) (GroupID, error) {
	if _, err := b.group(parent); err != nil {
		return 0, err
	}
	id := GroupID(len(b.groups))
	b.groupSeq++
	b.groups = append(b.groups, groupNode{
		parent:  parent,
		order:   order,
		seq:     b.groupSeq,
		visible: true,
		alive:   true,
		hook:    hook,
	})
	// Re-index after the append: growing the arena moves the nodes.
	p := &b.groups[parent]
	p.children = append(p.children, id)
	b.invalidate()
	return id, nil
}

// DestroyGroup removes a group. Its domains are destroyed, so handles to
// drawables added under it go stale. Children survive: they are reattached
// to the root in their existing order, keeping their subtrees intact.
func (b *Batch) DestroyGroup(id GroupID) error {
	if id == RootGroup {
		return ErrRootGroup
	}
	g, err := b.group(id)
	if err != nil {
		return err
	}
	for _, d := range append([]*domain(nil), g.domains...) {
		b.destroyDomain(d)
	}
	g.domains = nil

	root := &b.groups[RootGroup]
	for _, child := range g.children {
		b.groups[child].parent = RootGroup
		root.children = append(root.children, child)
	}
	g.children = nil

	b.detach(id)
	g.alive = false
	b.invalidate()
	Logger().Debug("group destroyed", "group", id)
	return nil
}

// Reparent moves a group (and its subtree) under a new parent. The move is
// rejected with ErrCycle when newParent is the group itself or one of its
// descendants; the forest is left exactly as it was.
func (b *Batch) Reparent(id, newParent GroupID) error {
	if id == RootGroup {
		return ErrRootGroup
	}
	g, err := b.group(id)
	if err != nil {
		return err
	}
	np, err := b.group(newParent)
	if err != nil {
		return err
	}
	for cur := newParent; ; {
		if cur == id {
			return fmt.Errorf("%w: group %d under group %d", ErrCycle, newParent, id)
		}
		if cur == RootGroup {
			break
		}
		cur = b.groups[cur].parent
	}
	if g.parent == newParent {
		return nil
	}
	b.detach(id)
	g.parent = newParent
	np.children = append(np.children, id)
	b.invalidate()
	return nil
}

// SetGroupOrder changes a group's draw order among its siblings. The
// creation-sequence tie-break is unaffected: a reordered group still draws
// after older siblings with the same order.
func (b *Batch) SetGroupOrder(id GroupID, order int) error {
	if id == RootGroup {
		return ErrRootGroup
	}
	g, err := b.group(id)
	if err != nil {
		return err
	}
	if g.order == order {
		return nil
	}
	g.order = order
	b.invalidate()
	return nil
}

// SetGroupVisible shows or hides a group's whole subtree. Hidden subtrees
// are skipped during Draw; their drawables and vertex data stay resident,
// so toggling visibility is cheap.
func (b *Batch) SetGroupVisible(id GroupID, visible bool) error {
	g, err := b.group(id)
	if err != nil {
		return err
	}
	if g.visible == visible {
		return nil
	}
	g.visible = visible
	b.invalidate()
	return nil
}

// GroupVisible reports whether a group itself is marked visible. It does
// not account for hidden ancestors.
func (b *Batch) GroupVisible(id GroupID) (bool, error) {
	g, err := b.group(id)
	if err != nil {
		return false, err
	}
	return g.visible, nil
}

// group resolves a GroupID to its live node.
func (b *Batch) group(id GroupID) (*groupNode, error) {
	if int(id) >= len(b.groups) || !b.groups[id].alive {
		return nil, fmt.Errorf("%w: %d", ErrUnknownGroup, id)
	}
	return &b.groups[id], nil
}

// detach removes id from its parent's child list.
func (b *Batch) detach(id GroupID) {
	p := &b.groups[b.groups[id].parent]
	for i, c := range p.children {
		if c == id {
			p.children = append(p.children[:i], p.children[i+1:]...)
			return
		}
	}
}
