package batch

import (
	"errors"
	"reflect"
	"testing"

	"github.com/gogpu/batch/gpucore"
	"github.com/gogpu/batch/recording"
)

// solidState is the render state most tests add drawables under.
func solidState() RenderState {
	return RenderState{
		Blend:    gpucore.BlendAlpha,
		Topology: gpucore.Triangles,
		Format:   gpucore.FormatPosColor,
	}
}

// vertsN builds n distinct position+color vertices.
func vertsN(t *testing.T, n int) []float32 {
	t.Helper()
	out := make([]float32, n*6)
	for i := range out {
		out[i] = float32(i + 1)
	}
	return out
}

func TestAddReturnsValidHandle(t *testing.T) {
	b, _ := newTestBatch(t)
	h, err := b.Add(RootGroup, solidState(), vertsN(t, 2))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !h.Valid() {
		t.Fatalf("Add returned an invalid handle")
	}
	if (Handle{}).Valid() {
		t.Fatalf("zero handle reports valid")
	}
	s := b.Stats()
	if s.Domains != 1 || s.Drawables != 1 {
		t.Fatalf("Stats = %+v, want 1 domain, 1 drawable", s)
	}
}

func TestAddErrors(t *testing.T) {
	b, _ := newTestBatch(t)

	if _, err := b.Add(GroupID(7), solidState(), vertsN(t, 1)); !errors.Is(err, ErrUnknownGroup) {
		t.Fatalf("Add to unknown group = %v, want ErrUnknownGroup", err)
	}
	if _, err := b.Add(RootGroup, solidState(), nil); !errors.Is(err, ErrEmptyData) {
		t.Fatalf("Add with no data = %v, want ErrEmptyData", err)
	}
	if _, err := b.Add(RootGroup, solidState(), make([]float32, 7)); !errors.Is(err, ErrBadLength) {
		t.Fatalf("Add with partial vertex = %v, want ErrBadLength", err)
	}
	// Failed adds leave the batch empty.
	if s := b.Stats(); s.Domains != 0 || s.Drawables != 0 {
		t.Fatalf("failed adds left state behind: %+v", s)
	}
}

func TestAddRollsBackNewDomain(t *testing.T) {
	b, rec := newTestBatch(t)
	rec.FailCreate = true
	if _, err := b.Add(RootGroup, solidState(), vertsN(t, 1)); !errors.Is(err, ErrCapacity) {
		t.Fatalf("Add with failing buffer create = %v, want ErrCapacity", err)
	}
	if s := b.Stats(); s.Domains != 0 || s.Used != 0 {
		t.Fatalf("failed add left a domain behind: %+v", s)
	}

	// The same failure against an existing domain keeps the domain.
	rec.FailCreate = false
	if _, err := b.Add(RootGroup, solidState(), vertsN(t, 1)); err != nil {
		t.Fatalf("Add: %v", err)
	}
}

func TestUpdateInPlace(t *testing.T) {
	b, rec := newTestBatch(t)
	h, err := b.Add(RootGroup, solidState(), vertsN(t, 1))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := b.Draw(); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	version := b.Stats().PlanVersion

	next := make([]float32, 6)
	for i := range next {
		next[i] = 42
	}
	if err := b.Update(h, next); err != nil {
		t.Fatalf("Update: %v", err)
	}

	// Update is not a structural change.
	if got := b.Stats().PlanVersion; got != version {
		t.Fatalf("Update bumped plan version %d -> %d", version, got)
	}
	buf := rec.BufferFloats(b.store.Buffer())
	for i := 0; i < 6; i++ {
		if buf[i] != 42 {
			t.Fatalf("buffer[%d] = %v after Update, want 42", i, buf[i])
		}
	}
}

func TestUpdateSizeMismatch(t *testing.T) {
	b, _ := newTestBatch(t)
	h, err := b.Add(RootGroup, solidState(), vertsN(t, 2))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := b.Update(h, vertsN(t, 1)); !errors.Is(err, ErrSizeMismatch) {
		t.Fatalf("Update with short data = %v, want ErrSizeMismatch", err)
	}
}

func TestRemoveStalesHandle(t *testing.T) {
	b, _ := newTestBatch(t)
	h, err := b.Add(RootGroup, solidState(), vertsN(t, 1))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	keep := h // copies go stale together
	if err := b.Remove(h); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := b.Remove(keep); !errors.Is(err, ErrStaleHandle) {
		t.Fatalf("second Remove = %v, want ErrStaleHandle", err)
	}
	if err := b.Update(keep, vertsN(t, 1)); !errors.Is(err, ErrStaleHandle) {
		t.Fatalf("Update after Remove = %v, want ErrStaleHandle", err)
	}
}

func TestRemoveZeroFillsRange(t *testing.T) {
	b, rec := newTestBatch(t)
	ha, err := b.Add(RootGroup, solidState(), vertsN(t, 1))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := b.Add(RootGroup, solidState(), vertsN(t, 1)); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if err := b.Remove(ha); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	buf := rec.BufferFloats(b.store.Buffer())
	for i := 0; i < 6; i++ {
		if buf[i] != 0 {
			t.Fatalf("freed range not zeroed: buffer[%d] = %v", i, buf[i])
		}
	}
	// The survivor still draws; the zeroed slot is degenerate, not skipped.
	if got := drawCounts(t, b, rec); !equalCounts(got, []uint32{2}) {
		t.Fatalf("draw counts after remove = %v, want [2]", got)
	}
}

func TestAddReusesFreedRange(t *testing.T) {
	b, rec := newTestBatch(t)
	if _, err := b.Add(RootGroup, solidState(), vertsN(t, 1)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	hb, err := b.Add(RootGroup, solidState(), vertsN(t, 1))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	used := b.Stats().Used

	if err := b.Remove(hb); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	replacement := make([]float32, 6)
	for i := range replacement {
		replacement[i] = 99
	}
	if _, err := b.Add(RootGroup, solidState(), replacement); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if got := b.Stats().Used; got != used {
		t.Fatalf("Used = %d after remove+add round trip, want %d", got, used)
	}
	buf := rec.BufferFloats(b.store.Buffer())
	for i := 6; i < 12; i++ {
		if buf[i] != 99 {
			t.Fatalf("freed range not reused: buffer[%d] = %v, want 99", i, buf[i])
		}
	}
}

func TestSharedDomainSingleDraw(t *testing.T) {
	b, rec := newTestBatch(t)
	// Same group, same state: one domain, one draw call.
	ha, _ := b.Add(RootGroup, solidState(), vertsN(t, 1))
	hb, _ := b.Add(RootGroup, solidState(), vertsN(t, 2))

	if got := b.Stats().Domains; got != 1 {
		t.Fatalf("Stats().Domains = %d, want 1", got)
	}
	if got := drawCounts(t, b, rec); !equalCounts(got, []uint32{3}) {
		t.Fatalf("shared domain draw counts = %v, want [3]", got)
	}

	// Removing every drawable destroys the domain and invalidates the plan.
	version := b.Stats().PlanVersion
	if err := b.Remove(ha); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := b.Remove(hb); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	s := b.Stats()
	if s.Domains != 0 {
		t.Fatalf("empty domain not destroyed: %+v", s)
	}
	if s.PlanVersion == version {
		t.Fatalf("emptying a domain did not invalidate the plan")
	}
	if got := drawCounts(t, b, rec); len(got) != 0 {
		t.Fatalf("empty batch still drew: %v", got)
	}
}

func TestDistinctStatesSplitDomains(t *testing.T) {
	b, rec := newTestBatch(t)
	lines := solidState()
	lines.Topology = gpucore.Lines

	if _, err := b.Add(RootGroup, solidState(), vertsN(t, 1)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := b.Add(RootGroup, lines, vertsN(t, 2)); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if got := b.Stats().Domains; got != 2 {
		t.Fatalf("Stats().Domains = %d, want 2", got)
	}
	rec.Reset()
	if err := b.Draw(); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if binds := rec.BindCalls(); len(binds) != 2 {
		t.Fatalf("got %d state binds, want 2", len(binds))
	}
	if draws := rec.DrawCalls(); len(draws) != 2 {
		t.Fatalf("got %d draws, want 2", len(draws))
	}
}

func TestDrawOrderFollowsForest(t *testing.T) {
	b, rec := newTestBatch(t)
	// Sibling order decides; creation order breaks ties.
	first := mustGroup(t, b, RootGroup, 0)  // order 0, created first
	second := mustGroup(t, b, RootGroup, 0) // order 0, created second
	early := mustGroup(t, b, RootGroup, -1) // order -1, created last

	if _, err := b.Add(first, solidState(), vertsN(t, 1)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := b.Add(second, solidState(), vertsN(t, 2)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := b.Add(early, solidState(), vertsN(t, 3)); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if got := drawCounts(t, b, rec); !equalCounts(got, []uint32{3, 1, 2}) {
		t.Fatalf("draw order = %v, want [3 1 2] (order, then creation)", got)
	}
}

func TestDrawIdempotent(t *testing.T) {
	b, rec := newTestBatch(t)
	g := mustGroup(t, b, RootGroup, 1)
	if _, err := b.Add(RootGroup, solidState(), vertsN(t, 1)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := b.Add(g, solidState(), vertsN(t, 2)); err != nil {
		t.Fatalf("Add: %v", err)
	}

	rec.Reset()
	if err := b.Draw(); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	firstFrame := append([]recording.Call(nil), rec.Calls...)

	rec.Reset()
	if err := b.Draw(); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if !reflect.DeepEqual(firstFrame, rec.Calls) {
		t.Fatalf("repeat draw issued different calls:\nfirst:  %v\nsecond: %v", firstFrame, rec.Calls)
	}
}

func TestInvalidateForcesRebuild(t *testing.T) {
	b, _ := newTestBatch(t)
	if _, err := b.Add(RootGroup, solidState(), vertsN(t, 1)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := b.Draw(); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	version := b.Stats().PlanVersion
	b.Invalidate()
	s := b.Stats()
	if s.PlanVersion == version {
		t.Fatalf("Invalidate did not bump the plan version")
	}
	if s.PlanOps != 0 {
		t.Fatalf("Stats().PlanOps = %d on an invalidated plan, want 0", s.PlanOps)
	}
	if err := b.Draw(); err != nil {
		t.Fatalf("Draw after Invalidate: %v", err)
	}
	if got := b.Stats().PlanOps; got == 0 {
		t.Fatalf("plan not rebuilt by Draw")
	}
}

func TestHookBindUnbindOrder(t *testing.T) {
	b, _ := newTestBatch(t)
	var events []string
	hook := &StateHook{
		Bind:   func(gpucore.Adapter) { events = append(events, "bind") },
		Unbind: func(gpucore.Adapter) { events = append(events, "unbind") },
	}
	g, err := b.CreateGroup(RootGroup, 0, hook)
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	if _, err := b.Add(g, solidState(), vertsN(t, 1)); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if err := b.Draw(); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if want := []string{"bind", "unbind"}; !reflect.DeepEqual(events, want) {
		t.Fatalf("hook events = %v, want %v", events, want)
	}

	// Hooks run again on cached plans.
	if err := b.Draw(); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if len(events) != 4 {
		t.Fatalf("hooks did not run on the cached plan: %v", events)
	}
}

func TestHookElidedForEmptySubtree(t *testing.T) {
	b, _ := newTestBatch(t)
	calls := 0
	hook := &StateHook{Bind: func(gpucore.Adapter) { calls++ }}
	if _, err := b.CreateGroup(RootGroup, 0, hook); err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	// Root needs at least one drawable so Draw emits something at all.
	if _, err := b.Add(RootGroup, solidState(), vertsN(t, 1)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := b.Draw(); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if calls != 0 {
		t.Fatalf("hook ran %d times for a subtree with nothing to draw", calls)
	}
}

func TestHookResetsStateMemo(t *testing.T) {
	b, rec := newTestBatch(t)
	hook := &StateHook{Bind: func(gpucore.Adapter) {}}
	g, err := b.CreateGroup(RootGroup, 0, hook)
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	// Same render state on both sides of the hook: without the hook the
	// second bind would be skipped, with it the state must be re-bound.
	if _, err := b.Add(RootGroup, solidState(), vertsN(t, 1)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := b.Add(g, solidState(), vertsN(t, 1)); err != nil {
		t.Fatalf("Add: %v", err)
	}

	rec.Reset()
	if err := b.Draw(); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if binds := rec.BindCalls(); len(binds) != 2 {
		t.Fatalf("got %d state binds around a hook, want 2", len(binds))
	}
}

func TestDomainRegionGrowth(t *testing.T) {
	b, rec := newTestBatch(t, WithInitialCapacity(64))

	marker := make([]float32, 6)
	for i := range marker {
		marker[i] = 7
	}
	if _, err := b.Add(RootGroup, solidState(), marker); err != nil {
		t.Fatalf("Add: %v", err)
	}
	// Push the domain region through several growth steps.
	for i := 0; i < 20; i++ {
		if _, err := b.Add(RootGroup, solidState(), vertsN(t, 1)); err != nil {
			t.Fatalf("Add #%d: %v", i, err)
		}
	}

	// Still one domain and one draw covering all 21 vertices.
	if got := b.Stats().Domains; got != 1 {
		t.Fatalf("Stats().Domains = %d, want 1", got)
	}
	if got := drawCounts(t, b, rec); !equalCounts(got, []uint32{21}) {
		t.Fatalf("draw counts = %v, want [21]", got)
	}
	// The first drawable's data survived every region move.
	buf := rec.BufferFloats(b.store.Buffer())
	d := b.domainsByID[1]
	for i := 0; i < 6; i++ {
		if buf[d.off+i] != 7 {
			t.Fatalf("first drawable corrupted by growth: buffer[%d] = %v, want 7", d.off+i, buf[d.off+i])
		}
	}
}

func TestFirstVertexAligned(t *testing.T) {
	b, rec := newTestBatch(t)
	textured := solidState()
	textured.Format = gpucore.FormatPosColorUV
	textured.Texture = gpucore.TextureID(1)

	// Mixed strides in one store force alignment padding between regions.
	if _, err := b.Add(RootGroup, solidState(), vertsN(t, 1)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := b.Add(RootGroup, textured, make([]float32, 8)); err != nil {
		t.Fatalf("Add: %v", err)
	}

	rec.Reset()
	if err := b.Draw(); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	for _, d := range b.domainsByID {
		if d.off%d.state.Format.Stride() != 0 {
			t.Fatalf("domain region offset %d not aligned to stride %d", d.off, d.state.Format.Stride())
		}
	}
}

func TestChurnDoesNotLeak(t *testing.T) {
	b, _ := newTestBatch(t, WithInitialCapacity(256))

	anchor, err := b.Add(RootGroup, solidState(), vertsN(t, 2))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	baseline := b.Stats()

	for i := 0; i < 1000; i++ {
		h, err := b.Add(RootGroup, solidState(), vertsN(t, 3))
		if err != nil {
			t.Fatalf("Add cycle %d: %v", i, err)
		}
		if err := b.Remove(h); err != nil {
			t.Fatalf("Remove cycle %d: %v", i, err)
		}
	}

	s := b.Stats()
	if s.Drawables != baseline.Drawables {
		t.Fatalf("Drawables = %d after churn, want %d", s.Drawables, baseline.Drawables)
	}
	if s.Domains != baseline.Domains {
		t.Fatalf("Domains = %d after churn, want %d", s.Domains, baseline.Domains)
	}
	// Freed ranges are reused, so capacity settles instead of growing with
	// every cycle.
	if s.Capacity > baseline.Capacity*4 {
		t.Fatalf("Capacity grew from %d to %d over balanced churn", baseline.Capacity, s.Capacity)
	}
	if err := b.Remove(anchor); err != nil {
		t.Fatalf("Remove(anchor): %v", err)
	}
	if got := b.Stats().Used; got != 0 {
		t.Fatalf("Used = %d after removing everything, want 0", got)
	}
}

func TestDestroyReleasesBuffer(t *testing.T) {
	b, rec := newTestBatch(t)
	if _, err := b.Add(RootGroup, solidState(), vertsN(t, 1)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	b.Destroy()
	var destroyed bool
	for _, c := range rec.Calls {
		if c.Op == recording.OpDestroyBuffer {
			destroyed = true
		}
	}
	if !destroyed {
		t.Fatalf("Destroy did not release the vertex buffer")
	}
}

func TestStatsCounters(t *testing.T) {
	b, _ := newTestBatch(t, WithInitialCapacity(128), WithLabel("ui"))
	g := mustGroup(t, b, RootGroup, 0)
	if _, err := b.Add(RootGroup, solidState(), vertsN(t, 1)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := b.Add(g, solidState(), vertsN(t, 2)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := b.Draw(); err != nil {
		t.Fatalf("Draw: %v", err)
	}

	s := b.Stats()
	if s.Groups != 2 {
		t.Fatalf("Groups = %d, want 2", s.Groups)
	}
	if s.Domains != 2 || s.Drawables != 2 {
		t.Fatalf("Domains/Drawables = %d/%d, want 2/2", s.Domains, s.Drawables)
	}
	if s.PlanOps != 2 {
		t.Fatalf("PlanOps = %d, want 2 (one draw per domain)", s.PlanOps)
	}
	if s.Capacity != 128 {
		t.Fatalf("Capacity = %d, want 128", s.Capacity)
	}
	if s.Used != 18 {
		t.Fatalf("Used = %d, want 18", s.Used)
	}
}
