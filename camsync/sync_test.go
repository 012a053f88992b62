package camsync

import (
	"math"
	"testing"

	"github.com/milk9111/layerdm/observer"
	"github.com/milk9111/layerdm/render"
	"github.com/milk9111/layerdm/scene"
	"gonum.org/v1/gonum/spatial/r3"
)

type fixture struct {
	renderer   *render.Renderer
	firstCam   *render.Camera
	defaultCam *render.Camera
	sync       *Synchronizer
	modified   *int
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	w := render.NewWindow(100, 100)
	r := render.NewRenderer()
	w.AddRenderer(r)

	f := fixture{
		renderer:   r,
		firstCam:   render.NewCamera(),
		defaultCam: render.NewCamera(),
		sync:       New(),
		modified:   new(int),
	}
	r.SetActiveCamera(f.firstCam)
	f.sync.SetRenderer(r)
	f.sync.SetDefaultCamera(f.defaultCam)
	f.sync.Events().Subscribe(f.sync, func(observer.Event) { *f.modified++ }, observer.Modified)
	return f
}

func (f fixture) reset() { *f.modified = 0 }

func TestFollowsActiveCamera(t *testing.T) {
	f := newFixture(t)
	f.sync.SetViewNode(scene.NewViewNode())

	cam1 := render.NewCamera()
	cam1.SetDistance(1)
	f.renderer.SetActiveCamera(cam1)
	if d := f.defaultCam.Distance(); math.Abs(d-1) > 1e-9 {
		t.Fatalf("distance %v, want 1", d)
	}

	cam1.SetDistance(3)
	if d := f.defaultCam.Distance(); math.Abs(d-3) > 1e-9 {
		t.Fatalf("distance %v, want 3", d)
	}

	cam2 := render.NewCamera()
	cam2.SetDistance(4)
	f.renderer.SetActiveCamera(cam2)
	if d := f.defaultCam.Distance(); math.Abs(d-4) > 1e-9 {
		t.Fatalf("distance %v, want 4", d)
	}

	cam1.SetDistance(7)
	if d := f.defaultCam.Distance(); math.Abs(d-4) > 1e-9 {
		t.Fatalf("previous camera should no longer be observed, distance %v", d)
	}
}

func TestNotifiesOncePerChange(t *testing.T) {
	f := newFixture(t)
	f.sync.SetViewNode(scene.NewViewNode())

	var camModified int
	f.defaultCam.Events().Subscribe(f.defaultCam, func(observer.Event) { camModified++ }, observer.Modified)
	f.reset()

	f.firstCam.Modified()
	if *f.modified != 1 || camModified != 1 {
		t.Fatalf("bare modified: sync=%d camera=%d, want 1 and 1", *f.modified, camModified)
	}

	f.firstCam.DeepCopy(render.NewCamera())
	if *f.modified != 2 || camModified != 2 {
		t.Fatalf("multi-field change: sync=%d camera=%d, want 2 and 2", *f.modified, camModified)
	}
}

func TestInitialSyncNotifiesOnce(t *testing.T) {
	f := newFixture(t)
	f.sync.SetViewNode(scene.NewViewNode())
	if *f.modified != 1 {
		t.Fatalf("expected one notification on attach, got %d", *f.modified)
	}
}

func TestBlockModified(t *testing.T) {
	f := newFixture(t)
	if f.sync.BlockModified(true) {
		t.Fatalf("should not start blocked")
	}
	var camModified int
	f.defaultCam.Events().Subscribe(f.defaultCam, func(observer.Event) { camModified++ }, observer.Modified)

	f.sync.SetViewNode(scene.NewViewNode())
	f.firstCam.Modified()
	if *f.modified != 0 || camModified != 0 {
		t.Fatalf("blocked sync notified: sync=%d camera=%d", *f.modified, camModified)
	}

	if !f.sync.BlockModified(false) {
		t.Fatalf("previous state should be blocked")
	}
	f.firstCam.Modified()
	if *f.modified != 1 {
		t.Fatalf("expected one notification after unblocking, got %d", *f.modified)
	}

	release := f.sync.Suppress()
	f.firstCam.Modified()
	release()
	f.firstCam.Modified()
	if *f.modified != 2 {
		t.Fatalf("suppress guard: got %d notifications, want 2", *f.modified)
	}
}

func TestClippingPreserved(t *testing.T) {
	f := newFixture(t)
	f.sync.SetViewNode(scene.NewViewNode())
	f.defaultCam.SetClippingRange(1, 42)
	f.reset()

	f.firstCam.SetClippingRange(3, 12)
	if *f.modified != 1 {
		t.Fatalf("expected one notification, got %d", *f.modified)
	}
	if near, far := f.defaultCam.ClippingRange(); near != 1 || far != 42 {
		t.Fatalf("clipping range %v..%v, want 1..42", near, far)
	}
}

func TestSliceView(t *testing.T) {
	f := newFixture(t)
	slice := scene.NewSliceNode()
	before := f.defaultCam.FocalPoint()

	f.sync.SetViewNode(slice)
	if !f.defaultCam.ParallelProjection() {
		t.Fatalf("slice view should use parallel projection")
	}
	if got := f.defaultCam.ParallelScale(); got != 125 {
		t.Fatalf("parallel scale %v, want 125", got)
	}
	f.reset()

	slice.SetXYZOrigin(r3.Vec{X: 1, Y: 2, Z: 3})
	if *f.modified != 1 {
		t.Fatalf("expected one notification per slice change, got %d", *f.modified)
	}
	focal := f.defaultCam.FocalPoint()
	if focal == before || r3.Norm(r3.Sub(focal, r3.Vec{X: 1, Y: 2, Z: 3})) > 1e-9 {
		t.Fatalf("focal point %+v, want the slice origin", focal)
	}
	if up := f.defaultCam.ViewUp(); up != (r3.Vec{Y: 1}) {
		t.Fatalf("view up %+v, want +Y", up)
	}
	if dop := f.defaultCam.DirectionOfProjection(); r3.Norm(r3.Sub(dop, r3.Vec{Z: -1})) > 1e-9 {
		t.Fatalf("axial slice should look down -Z, got %+v", dop)
	}

	f.firstCam.Modified()
	if *f.modified != 1 {
		t.Fatalf("slice strategy should ignore the active camera")
	}
}

func TestSliceViewSkipsInvalidGeometry(t *testing.T) {
	f := newFixture(t)
	slice := scene.NewSliceNode()
	f.sync.SetViewNode(slice)
	f.reset()

	slice.SetDimensions(0, 0, 1)
	if *f.modified != 0 {
		t.Fatalf("NaN centre should not sync")
	}
	if math.IsNaN(f.defaultCam.FocalPoint().X) {
		t.Fatalf("NaN leaked into the camera")
	}
}

func TestDetachedDoesNothing(t *testing.T) {
	s := New()
	cam := render.NewCamera()
	s.SetDefaultCamera(cam)
	s.SetViewNode(scene.NewViewNode())
	s.Sync()

	r := render.NewRenderer()
	src := render.NewCamera()
	src.SetDistance(5)
	r.SetActiveCamera(src)
	s.SetRenderer(r)
	if d := cam.Distance(); math.Abs(d-5) > 1e-9 {
		t.Fatalf("attaching a renderer should sync, distance %v", d)
	}
	s.SetRenderer(nil)
	src.SetDistance(8)
	if d := cam.Distance(); math.Abs(d-5) > 1e-9 {
		t.Fatalf("detached synchronizer kept syncing")
	}
}
