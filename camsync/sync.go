// Package camsync mirrors a renderer's active camera, or a slice view's
// geometry, onto a shared default camera.
package camsync

import (
	"math"

	"github.com/milk9111/layerdm/observer"
	"github.com/milk9111/layerdm/render"
	"github.com/milk9111/layerdm/scene"
	"gonum.org/v1/gonum/spatial/r3"
)

type strategy interface {
	update()
	detach()
}

// Synchronizer keeps a default camera in step with its source. Every sync
// emits exactly one Modified on the synchronizer and one on the default camera,
// unless BlockModified is on, in which case neither is emitted.
type Synchronizer struct {
	events observer.Subject

	renderer      *render.Renderer
	defaultCamera *render.Camera
	viewNode      scene.Node

	strategy strategy
	blocked  bool
	syncing  bool
}

func New() *Synchronizer {
	return &Synchronizer{}
}

func (s *Synchronizer) Events() *observer.Subject {
	if s == nil {
		return nil
	}
	return &s.events
}

func (s *Synchronizer) Renderer() *render.Renderer    { return s.renderer }
func (s *Synchronizer) DefaultCamera() *render.Camera { return s.defaultCamera }
func (s *Synchronizer) ViewNode() scene.Node          { return s.viewNode }

// SetRenderer sets the renderer whose active camera is mirrored.
func (s *Synchronizer) SetRenderer(r *render.Renderer) {
	if s.renderer == r {
		return
	}
	s.renderer = r
	s.updateStrategy()
}

// SetDefaultCamera sets the camera written to.
func (s *Synchronizer) SetDefaultCamera(c *render.Camera) {
	if s.defaultCamera == c {
		return
	}
	s.defaultCamera = c
	s.updateStrategy()
}

// SetViewNode picks the strategy: slice nodes drive the camera from their
// geometry, anything else follows the renderer's active camera.
func (s *Synchronizer) SetViewNode(n scene.Node) {
	if s.viewNode == n {
		return
	}
	s.viewNode = n
	s.updateStrategy()
}

// BlockModified toggles notification suppression and returns the previous state.
func (s *Synchronizer) BlockModified(blocked bool) bool {
	prev := s.blocked
	s.blocked = blocked
	return prev
}

// Suppress blocks notifications until the returned func is called.
func (s *Synchronizer) Suppress() func() {
	prev := s.BlockModified(true)
	return func() { s.BlockModified(prev) }
}

// Sync forces a resynchronization.
func (s *Synchronizer) Sync() {
	if s.strategy != nil {
		s.strategy.update()
	}
}

func (s *Synchronizer) updateStrategy() {
	if s.strategy != nil {
		s.strategy.detach()
		s.strategy = nil
	}
	if s.defaultCamera == nil || s.renderer == nil {
		return
	}
	if slice, ok := s.viewNode.(*scene.SliceNode); ok && slice != nil {
		s.strategy = newSliceStrategy(s, slice)
	} else {
		s.strategy = newDefaultStrategy(s, s.renderer)
	}
	s.strategy.update()
}

// apply runs fn against the default camera with its notifications muted,
// then emits the single outward notification pair.
func (s *Synchronizer) apply(fn func(c *render.Camera)) {
	if s.syncing {
		return
	}
	s.syncing = true
	cam := s.defaultCamera
	release := cam.Events().Block()
	fn(cam)
	release()
	s.syncing = false

	if s.blocked {
		return
	}
	cam.Modified()
	s.events.Modified(s)
}

type defaultStrategy struct {
	sync     *Synchronizer
	renderer *render.Renderer
	observed *render.Camera
	obs      *observer.Observer
}

func newDefaultStrategy(s *Synchronizer, r *render.Renderer) *defaultStrategy {
	d := &defaultStrategy{sync: s, renderer: r}
	d.obs = observer.New(func(ev observer.Event) {
		if ev.Source == observer.Observable(d.renderer) {
			d.observeActiveCamera()
		}
		d.update()
	})
	d.obs.UpdateObserver(nil, r, render.ActiveCameraEvent)
	d.observeActiveCamera()
	return d
}

func (d *defaultStrategy) observeActiveCamera() {
	cam := d.renderer.ActiveCamera()
	if cam == d.observed {
		return
	}
	var prev observer.Observable
	if d.observed != nil {
		prev = d.observed
	}
	if cam != nil {
		d.obs.UpdateObserver(prev, cam)
	} else {
		d.obs.RemoveObserver(prev)
	}
	d.observed = cam
}

// update copies the observed camera while keeping the default camera's
// clipping range.
func (d *defaultStrategy) update() {
	src := d.observed
	if src == nil || src == d.sync.defaultCamera {
		return
	}
	d.sync.apply(func(c *render.Camera) {
		near, far := c.ClippingRange()
		c.DeepCopy(src)
		c.SetClippingRange(near, far)
	})
}

func (d *defaultStrategy) detach() { d.obs.RemoveAll() }

type sliceStrategy struct {
	sync  *Synchronizer
	slice *scene.SliceNode
	obs   *observer.Observer
}

func newSliceStrategy(s *Synchronizer, n *scene.SliceNode) *sliceStrategy {
	st := &sliceStrategy{sync: s, slice: n}
	st.obs = observer.New(func(observer.Event) { st.update() })
	st.obs.UpdateObserver(nil, n)
	return st
}

// update points the default camera at the slice centre in parallel projection.
func (st *sliceStrategy) update() {
	n := st.slice
	dims := n.Dimensions()
	center := n.XYToRASPoint(0.5*float64(dims[0]), 0.5*float64(dims[1]))
	if math.IsNaN(center.X) {
		return
	}
	m := n.SliceToRAS()
	right := r3.Vec{X: m.At(0, 0), Y: m.At(1, 0), Z: m.At(2, 0)}
	up := r3.Vec{X: m.At(0, 1), Y: m.At(1, 1), Z: m.At(2, 1)}
	normal := r3.Cross(right, up)

	st.sync.apply(func(c *render.Camera) {
		d := c.Distance()
		if d <= 0 {
			d = 1
		}
		c.SetParallelProjection(true)
		c.SetParallelScale(0.5 * n.FieldOfView().Y)
		c.SetFocalPoint(center)
		c.SetViewUp(up)
		c.SetPosition(r3.Add(center, r3.Scale(d, normal)))
	})
}

func (st *sliceStrategy) detach() { st.obs.RemoveAll() }
