package layers

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/milk9111/layerdm/render"
	"gonum.org/v1/gonum/spatial/r3"
)

// spherePipeline draws one sphere prop into whatever renderer it is given.
type spherePipeline struct {
	order    int
	camera   *render.Camera
	prop     *render.Prop
	renderer *render.Renderer
	added    int
	removed  int
}

func newSphere(order int, cam *render.Camera) *spherePipeline {
	return newSphereAt(order, cam, r3.Vec{}, 2)
}

func newSphereAt(order int, cam *render.Camera, center r3.Vec, radius float64) *spherePipeline {
	p := &spherePipeline{order: order, camera: cam, prop: render.NewProp()}
	p.prop.SetTransform(center, radius)
	return p
}

func (p *spherePipeline) RenderOrder() int              { return p.order }
func (p *spherePipeline) CustomCamera() *render.Camera { return p.camera }

func (p *spherePipeline) SetRenderer(r *render.Renderer) {
	if p.renderer == r {
		return
	}
	if p.renderer != nil {
		p.renderer.RemoveViewProp(p.prop)
		p.removed++
	}
	p.renderer = r
	if r != nil {
		r.AddViewProp(p.prop)
		p.added++
	}
}

type fixture struct {
	window          *render.Window
	defaultRenderer *render.Renderer
	firstCamera     *render.Camera
	defaultCamera   *render.Camera
	manager         *Manager
}

func newFixture() fixture {
	f := fixture{
		window:          render.NewWindow(640, 480),
		defaultRenderer: render.NewRenderer(),
		firstCamera:     render.NewCamera(),
		defaultCamera:   render.NewCamera(),
		manager:         NewManager(),
	}
	f.window.AddRenderer(f.defaultRenderer)
	f.defaultRenderer.SetActiveCamera(f.firstCamera)
	f.manager.SetRenderWindow(f.window)
	f.manager.SetDefaultCamera(f.defaultCamera)
	return f
}

func makeGroups(n int, mk func() *spherePipeline) []*spherePipeline {
	out := make([]*spherePipeline, n)
	for i := range out {
		out[i] = mk()
	}
	return out
}

func (f fixture) addAll(groups ...[]*spherePipeline) {
	for _, g := range groups {
		for _, p := range g {
			f.manager.AddPipeline(p)
		}
	}
}

// assertLayers checks that each group shares one renderer, that groups land on
// the expected layers and that the window stack matches.
func (f fixture) assertLayers(t *testing.T, groups [][]*spherePipeline, wantLayers []int, unmanaged, wantWindowLayers int) {
	t.Helper()
	managed := 0
	for _, l := range wantLayers {
		if l != 0 {
			managed++
		}
	}
	if wantWindowLayers == 0 {
		wantWindowLayers = wantLayers[len(wantLayers)-1] + 1
	}
	if got := f.manager.NumberOfRenderers(); got != managed {
		t.Fatalf("managed renderers = %d, want %d", got, managed)
	}
	if got := f.manager.NumberOfManagedLayers(); got != managed {
		t.Fatalf("managed layers = %d, want %d", got, managed)
	}
	if got := f.window.NumberOfRenderers(); got != managed+unmanaged {
		t.Fatalf("window renderers = %d, want %d", got, managed+unmanaged)
	}
	if got := f.window.NumberOfLayers(); got != wantWindowLayers {
		t.Fatalf("window layers = %d, want %d", got, wantWindowLayers)
	}

	var gotLayers []int
	for i, g := range groups {
		r := g[0].renderer
		for _, p := range g {
			if p.renderer != r {
				t.Fatalf("group %d spans several renderers", i)
			}
		}
		if r == nil {
			t.Fatalf("group %d has no renderer", i)
		}
		if (r.Layer() == 0) != (r == f.defaultRenderer) {
			t.Fatalf("group %d: layer %d on the wrong renderer", i, r.Layer())
		}
		gotLayers = append(gotLayers, r.Layer())
	}
	if diff := cmp.Diff(wantLayers, gotLayers); diff != "" {
		t.Fatalf("layers mismatch (-want +got):\n%s", diff)
	}
}

func TestInitialState(t *testing.T) {
	f := newFixture()
	if got := f.manager.NumberOfDistinctLayers(); got != 1 {
		t.Fatalf("distinct layers = %d, want 1", got)
	}
	if got := f.manager.NumberOfRenderers(); got != 0 {
		t.Fatalf("renderers = %d, want 0", got)
	}
}

func TestDefaultOrderUsesFirstRenderer(t *testing.T) {
	f := newFixture()
	ps := makeGroups(5, func() *spherePipeline { return newSphere(0, nil) })
	f.addAll(ps)
	f.assertLayers(t, [][]*spherePipeline{ps}, []int{0}, 1, 1)
}

func TestDefaultOrderIgnoresCustomCamera(t *testing.T) {
	f := newFixture()
	p := newSphere(0, render.NewCamera())
	f.manager.AddPipeline(p)
	if p.renderer != f.defaultRenderer || f.manager.NumberOfRenderers() != 0 {
		t.Fatalf("order 0 should always use the first renderer")
	}
	if f.defaultRenderer.ActiveCamera() != f.firstCamera {
		t.Fatalf("first renderer camera must not change")
	}
}

func TestGroupedByOrder(t *testing.T) {
	f := newFixture()
	var groups [][]*spherePipeline
	for _, order := range []int{1, 1000, 2000} {
		groups = append(groups, makeGroups(3, func() *spherePipeline { return newSphere(order, nil) }))
	}
	f.addAll(groups...)
	f.assertLayers(t, groups, []int{1, 2, 3}, 1, 0)
}

func TestMixedOrders(t *testing.T) {
	f := newFixture()
	var groups [][]*spherePipeline
	for _, order := range []int{0, 1, 1000, 2000} {
		groups = append(groups, []*spherePipeline{newSphere(order, nil)})
	}
	f.addAll(groups...)
	f.assertLayers(t, groups, []int{0, 1, 2, 3}, 1, 4)
}

func TestRemovedLayersCollapse(t *testing.T) {
	f := newFixture()
	var groups [][]*spherePipeline
	for _, order := range []int{1, 1000, 2000} {
		groups = append(groups, makeGroups(3, func() *spherePipeline { return newSphere(order, nil) }))
	}
	f.addAll(groups...)

	middle := groups[1][0].renderer
	for _, p := range groups[1] {
		f.manager.RemovePipeline(p)
		if p.renderer != nil {
			t.Fatalf("removed pipeline kept its renderer")
		}
	}
	if f.window.HasRenderer(middle) {
		t.Fatalf("emptied group's renderer still in the window")
	}
	f.assertLayers(t, [][]*spherePipeline{groups[0], groups[2]}, []int{1, 2}, 1, 0)
}

func TestCamerasSplitGroups(t *testing.T) {
	f := newFixture()
	groups := [][]*spherePipeline{}
	for _, cam := range []*render.Camera{render.NewCamera(), render.NewCamera()} {
		groups = append(groups, makeGroups(3, func() *spherePipeline { return newSphere(1, cam) }))
	}
	f.addAll(groups...)
	f.assertLayers(t, groups, []int{1, 2}, 1, 0)
}

func TestIdenticalCamerasAreDistinct(t *testing.T) {
	f := newFixture()
	a, b := render.NewCamera(), render.NewCamera()
	pa, pb := newSphere(1, a), newSphere(1, b)
	f.manager.AddPipeline(pa)
	f.manager.AddPipeline(pb)
	if pa.renderer == pb.renderer {
		t.Fatalf("cameras with equal parameters must not share a layer")
	}
}

func TestExistingRenderersStayBelow(t *testing.T) {
	f := newFixture()
	for i := 0; i < 4; i++ {
		r := render.NewRenderer()
		r.SetLayer(i)
		f.window.AddRenderer(r)
	}
	ps := makeGroups(5, func() *spherePipeline { return newSphere(1, nil) })
	f.addAll(ps)
	f.assertLayers(t, [][]*spherePipeline{ps}, []int{1}, 5, 4)
}

func TestWindowChangeCleansUp(t *testing.T) {
	f := newFixture()
	for i := 0; i < 2; i++ {
		f.window.AddRenderer(render.NewRenderer())
	}
	ps := makeGroups(5, func() *spherePipeline { return newSphere(1, nil) })
	f.addAll(ps)

	next := render.NewWindow(10, 10)
	next.AddRenderer(render.NewRenderer())
	f.manager.SetRenderWindow(next)

	if got := f.window.NumberOfRenderers(); got != 3 {
		t.Fatalf("old window renderers = %d, want 3", got)
	}
	if got := f.window.NumberOfLayers(); got != 1 {
		t.Fatalf("old window layers = %d, want 1", got)
	}
	for _, p := range ps {
		if !next.HasRenderer(p.renderer) || p.renderer.Layer() != 1 {
			t.Fatalf("pipeline not re-homed on the new window")
		}
	}
	if got := next.NumberOfLayers(); got != 2 {
		t.Fatalf("new window layers = %d, want 2", got)
	}
}

func TestNoWindow(t *testing.T) {
	m := NewManager()
	base, managed := newSphere(0, nil), newSphere(3, nil)
	m.AddPipeline(base)
	m.AddPipeline(managed)
	if base.renderer != nil || managed.renderer != nil {
		t.Fatalf("without a window pipelines have no renderer")
	}
	if m.LayerOf(managed) != -1 {
		t.Fatalf("expected no layer without a window")
	}

	w := render.NewWindow(10, 10)
	first := render.NewRenderer()
	w.AddRenderer(first)
	m.SetRenderWindow(w)
	if base.renderer != first || managed.renderer == nil || managed.renderer.Layer() != 1 {
		t.Fatalf("attaching a window should place registered pipelines")
	}

	m.SetRenderWindow(nil)
	if base.renderer != nil || managed.renderer != nil {
		t.Fatalf("detaching the window should clear renderers")
	}
	if w.NumberOfRenderers() != 1 || w.NumberOfLayers() != 1 {
		t.Fatalf("detached window not restored")
	}
}

func TestRendererCameras(t *testing.T) {
	f := newFixture()
	custom := render.NewCamera()
	specs := []struct {
		order int
		cam   *render.Camera
	}{{1, nil}, {2, custom}, {4, nil}}
	var groups [][]*spherePipeline
	for _, s := range specs {
		groups = append(groups, makeGroups(3, func() *spherePipeline { return newSphere(s.order, s.cam) }))
	}
	f.addAll(groups...)

	cams := func() []*render.Camera {
		var out []*render.Camera
		for _, r := range f.window.Renderers() {
			out = append(out, r.ActiveCamera())
		}
		return out
	}
	want := []*render.Camera{f.firstCamera, f.defaultCamera, custom, f.defaultCamera}
	if diff := cmp.Diff(want, cams(), cmp.Comparer(func(a, b *render.Camera) bool { return a == b })); diff != "" {
		t.Fatalf("cameras mismatch (-want +got):\n%s", diff)
	}

	for _, p := range groups[0] {
		f.manager.RemovePipeline(p)
	}
	want = []*render.Camera{f.firstCamera, custom, f.defaultCamera}
	if diff := cmp.Diff(want, cams(), cmp.Comparer(func(a, b *render.Camera) bool { return a == b })); diff != "" {
		t.Fatalf("cameras after removal mismatch (-want +got):\n%s", diff)
	}

	f.firstCamera.SetDistance(1)
	custom.SetDistance(2)
	f.defaultCamera.SetDistance(3)
	var dists []float64
	for _, c := range cams() {
		dists = append(dists, math.Round(c.Distance()))
	}
	if diff := cmp.Diff([]float64{1, 2, 3}, dists); diff != "" {
		t.Fatalf("distances mismatch (-want +got):\n%s", diff)
	}
}

func TestSetDefaultCamera(t *testing.T) {
	f := newFixture()
	p := newSphere(1, nil)
	f.manager.AddPipeline(p)

	next := render.NewCamera()
	f.manager.SetDefaultCamera(next)
	if p.renderer.ActiveCamera() != next {
		t.Fatalf("default layers should follow the new default camera")
	}
	if f.window.NumberOfRenderers() != 2 || f.window.NumberOfLayers() != 2 {
		t.Fatalf("rebuild leaked renderers: %d renderers, %d layers", f.window.NumberOfRenderers(), f.window.NumberOfLayers())
	}
	if !p.renderer.HasViewProp(p.prop) {
		t.Fatalf("pipeline prop not moved to the rebuilt renderer")
	}
}

func TestCreatedRenderersNotInteractive(t *testing.T) {
	f := newFixture()
	f.manager.AddPipeline(newSphere(1, nil))
	rs := f.window.Renderers()
	if !rs[0].Interactive() || rs[1].Interactive() {
		t.Fatalf("only the first renderer should be interactive")
	}
}

func TestHooks(t *testing.T) {
	f := newFixture()
	p := newSphere(1, nil)
	f.manager.AddPipeline(p)
	f.manager.AddPipeline(p)
	if p.added != 1 {
		t.Fatalf("renderer-added hook ran %d times, want 1", p.added)
	}
	r := p.renderer
	f.manager.RemovePipeline(p)
	f.manager.RemovePipeline(p)
	if p.removed != 1 || r.HasViewProp(p.prop) {
		t.Fatalf("renderer-removed hook ran %d times, want 1", p.removed)
	}
}

func TestLowestFreeIndexReused(t *testing.T) {
	f := newFixture()
	g1 := []*spherePipeline{newSphere(1, nil)}
	g2 := []*spherePipeline{newSphere(2, nil), newSphere(2, nil)}
	g3 := []*spherePipeline{newSphere(3, nil)}
	f.addAll(g1, g2, g3)
	for _, p := range g2 {
		f.manager.RemovePipeline(p)
	}

	g5 := []*spherePipeline{newSphere(5, nil)}
	f.addAll(g5)
	f.assertLayers(t, [][]*spherePipeline{g1, g3, g5}, []int{1, 2, 3}, 1, 0)

	again := []*spherePipeline{newSphere(2, nil)}
	f.addAll(again)
	f.assertLayers(t, [][]*spherePipeline{g1, again, g3, g5}, []int{1, 2, 3, 4}, 1, 0)
}

func TestRemoveEverythingRestores(t *testing.T) {
	f := newFixture()
	before := f.window.Renderers()
	var all []*spherePipeline
	for _, order := range []int{0, 1, 7, 7, 30} {
		all = append(all, newSphere(order, nil), newSphere(order, render.NewCamera()))
	}
	f.addAll(all)
	for _, p := range all {
		f.manager.RemovePipeline(p)
	}
	if f.window.NumberOfLayers() != 1 {
		t.Fatalf("window layers = %d, want 1", f.window.NumberOfLayers())
	}
	if diff := cmp.Diff(before, f.window.Renderers(), cmp.Comparer(func(a, b *render.Renderer) bool { return a == b })); diff != "" {
		t.Fatalf("renderer set not restored (-want +got):\n%s", diff)
	}
	if f.manager.NumberOfPipelines() != 0 {
		t.Fatalf("pipelines left registered")
	}
}

func TestRandomSequencesStayDense(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	cams := []*render.Camera{nil, render.NewCamera(), render.NewCamera()}
	for round := 0; round < 20; round++ {
		f := newFixture()
		var live []*spherePipeline
		for step := 0; step < 60; step++ {
			if len(live) > 0 && rng.Intn(3) == 0 {
				i := rng.Intn(len(live))
				f.manager.RemovePipeline(live[i])
				live = append(live[:i], live[i+1:]...)
			} else {
				p := newSphere(rng.Intn(4), cams[rng.Intn(len(cams))])
				f.manager.AddPipeline(p)
				live = append(live, p)
			}
			checkDense(t, f, live)
		}
	}
}

// checkDense verifies that groups map one-to-one to renderers on layers 1..n.
func checkDense(t *testing.T, f fixture, live []*spherePipeline) {
	t.Helper()
	byKey := map[groupKey]*render.Renderer{}
	layers := map[int]bool{}
	for _, p := range live {
		key := keyOf(p)
		if key.order == 0 {
			if p.renderer != f.defaultRenderer {
				t.Fatalf("order 0 pipeline off the first renderer")
			}
			continue
		}
		if r, ok := byKey[key]; ok && r != p.renderer {
			t.Fatalf("group split across renderers")
		}
		byKey[key] = p.renderer
		layers[p.renderer.Layer()] = true
	}
	seen := map[*render.Renderer]bool{}
	for _, r := range byKey {
		if seen[r] {
			t.Fatalf("two groups share a renderer")
		}
		seen[r] = true
	}
	var got []int
	for l := range layers {
		got = append(got, l)
	}
	sort.Ints(got)
	for i, l := range got {
		if l != i+1 {
			t.Fatalf("layers not dense: %v", got)
		}
	}
	if f.window.NumberOfLayers() != len(got)+1 {
		t.Fatalf("window layers = %d, want %d", f.window.NumberOfLayers(), len(got)+1)
	}
	if f.window.NumberOfRenderers() != len(byKey)+1 {
		t.Fatalf("window renderers = %d, want %d", f.window.NumberOfRenderers(), len(byKey)+1)
	}
}

func TestResetCameraClippingRange(t *testing.T) {
	f := newFixture()
	custom := render.NewCamera()
	ps := []*spherePipeline{
		newSphereAt(0, nil, r3.Vec{}, 2),
		newSphereAt(1, nil, r3.Vec{X: 10, Y: 10, Z: 10}, 2),
		newSphereAt(2, nil, r3.Vec{X: -10, Y: -10, Z: -10}, 2),
		newSphereAt(3, custom, r3.Vec{}, 2),
	}
	for _, c := range []*render.Camera{f.firstCamera, f.defaultCamera, custom} {
		c.SetPosition(r3.Vec{Z: 50})
	}
	f.addAll(ps)

	type clip struct{ near, far float64 }
	ranges := func() []clip {
		var out []clip
		for _, r := range f.window.Renderers() {
			n, fa := r.ActiveCamera().ClippingRange()
			out = append(out, clip{n, fa})
		}
		return out
	}
	prev := ranges()
	f.manager.ResetCameraClippingRange()
	next := ranges()

	for i := range next {
		if prev[i] == next[i] {
			t.Fatalf("renderer %d clipping range unchanged", i)
		}
		n, fa := next[i].near, next[i].far
		if !(n < fa) || math.IsInf(n, 0) || math.IsInf(fa, 0) || n <= -1000 || fa >= 1000 {
			t.Fatalf("renderer %d invalid clipping %v..%v", i, n, fa)
		}
	}

	// Layers 1 and 2 share the default camera, so its range covers both spheres.
	near, far := f.defaultCamera.ClippingRange()
	if near > 50-12 || far < 50+12 {
		t.Fatalf("shared camera range %v..%v should cover both layers", near, far)
	}
}

func TestLayersReport(t *testing.T) {
	f := newFixture()
	custom := render.NewCamera()
	f.addAll([]*spherePipeline{newSphere(0, nil), newSphere(5, nil), newSphere(5, nil), newSphere(9, custom)})
	want := []LayerInfo{
		{Layer: 0, Default: true, NumPipelines: 1, CameraID: f.firstCamera.ID()},
		{Layer: 1, RenderOrder: 5, Default: true, NumPipelines: 2, CameraID: f.defaultCamera.ID()},
		{Layer: 2, RenderOrder: 9, NumPipelines: 1, CameraID: custom.ID()},
	}
	if diff := cmp.Diff(want, f.manager.Layers()); diff != "" {
		t.Fatalf("report mismatch (-want +got):\n%s", diff)
	}
}
