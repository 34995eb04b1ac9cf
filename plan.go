package batch

import "sort"

// planOpKind discriminates cached draw plan entries.
type planOpKind uint8

const (
	opBind planOpKind = iota
	opUnbind
	opDraw
)

// planOp is one step of the cached draw plan. Draw steps reference their
// domain rather than frozen offsets: adding vertices to an existing domain
// may move or extend its region without being a structural change, so the
// ranges are read at execution time.
type planOp struct {
	kind planOpKind
	hook *StateHook // opBind, opUnbind
	d    *domain    // opDraw
}

// rebuildPlan recomputes the draw plan from the group forest. The order is
// a pre-order walk: a group binds its hook, draws its own domains in
// creation order, recurses into children sorted by (order, creation
// sequence), then unbinds. Invisible subtrees are skipped entirely, and
// hooks of subtrees that draw nothing are elided.
func (b *Batch) rebuildPlan() {
	b.plan = b.plan[:0]
	b.walkGroup(RootGroup)
	b.planValid = true
	Logger().Debug("draw plan rebuilt", "ops", len(b.plan), "version", b.version)
}

// walkGroup appends the plan ops for one group subtree and returns the
// number of draw ops it produced.
func (b *Batch) walkGroup(id GroupID) int {
	g := &b.groups[id]
	if !g.visible {
		return 0
	}
	mark := len(b.plan)
	if g.hook != nil && g.hook.Bind != nil {
		b.plan = append(b.plan, planOp{kind: opBind, hook: g.hook})
	}

	draws := 0
	for _, d := range g.domains {
		if d.count == 0 {
			continue
		}
		b.plan = append(b.plan, planOp{kind: opDraw, d: d})
		draws++
	}

	if len(g.children) > 0 {
		children := append([]GroupID(nil), g.children...)
		sort.SliceStable(children, func(i, j int) bool {
			a, c := &b.groups[children[i]], &b.groups[children[j]]
			if a.order != c.order {
				return a.order < c.order
			}
			return a.seq < c.seq
		})
		for _, child := range children {
			draws += b.walkGroup(child)
		}
	}

	if draws == 0 {
		// Nothing to draw under this group; drop the hook ops too.
		b.plan = b.plan[:mark]
		return 0
	}
	if g.hook != nil && g.hook.Unbind != nil {
		b.plan = append(b.plan, planOp{kind: opUnbind, hook: g.hook})
	}
	return draws
}
