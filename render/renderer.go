package render

import (
	"image/color"

	"github.com/milk9111/layerdm/observer"
)

// ActiveCameraEvent is emitted when a renderer switches camera.
const ActiveCameraEvent observer.EventID = "active-camera"

// Renderer draws its props through its active camera on one window layer.
type Renderer struct {
	events observer.Subject

	layer       int
	camera      *Camera
	interactive bool
	props       []*Prop
	background  color.Color
}

// NewRenderer returns an interactive renderer on layer 0 with no camera.
func NewRenderer() *Renderer {
	return &Renderer{interactive: true}
}

func (r *Renderer) Events() *observer.Subject {
	if r == nil {
		return nil
	}
	return &r.events
}

func (r *Renderer) Layer() int { return r.layer }

func (r *Renderer) SetLayer(l int) {
	if r.layer == l {
		return
	}
	r.layer = l
	r.events.Modified(r)
}

func (r *Renderer) ActiveCamera() *Camera {
	if r == nil {
		return nil
	}
	return r.camera
}

// SetActiveCamera swaps the camera and emits ActiveCameraEvent.
func (r *Renderer) SetActiveCamera(c *Camera) {
	if r.camera == c {
		return
	}
	r.camera = c
	r.events.Invoke(r, ActiveCameraEvent, c)
	r.events.Modified(r)
}

func (r *Renderer) Interactive() bool { return r.interactive }

func (r *Renderer) SetInteractive(on bool) { r.interactive = on }

func (r *Renderer) Background() color.Color { return r.background }

// SetBackground sets the clear color. nil keeps the layer transparent.
func (r *Renderer) SetBackground(c color.Color) { r.background = c }

// AddViewProp adds p once.
func (r *Renderer) AddViewProp(p *Prop) {
	if r == nil || p == nil || r.HasViewProp(p) {
		return
	}
	r.props = append(r.props, p)
	r.events.Modified(r)
}

// RemoveViewProp removes p if present.
func (r *Renderer) RemoveViewProp(p *Prop) {
	if r == nil || p == nil {
		return
	}
	for i, other := range r.props {
		if other == p {
			r.props = append(r.props[:i], r.props[i+1:]...)
			r.events.Modified(r)
			return
		}
	}
}

func (r *Renderer) HasViewProp(p *Prop) bool {
	if r == nil {
		return false
	}
	for _, other := range r.props {
		if other == p {
			return true
		}
	}
	return false
}

// ViewProps returns a copy of the prop list.
func (r *Renderer) ViewProps() []*Prop {
	if r == nil {
		return nil
	}
	return append([]*Prop(nil), r.props...)
}

// VisiblePropBounds returns the union of visible prop bounds.
func (r *Renderer) VisiblePropBounds() Bounds {
	var b Bounds
	if r == nil {
		return b
	}
	for _, p := range r.props {
		if p.Visible() {
			b = b.Union(p.Bounds())
		}
	}
	return b
}

// ResetCameraClippingRange fits the active camera to this renderer's props.
func (r *Renderer) ResetCameraClippingRange() {
	r.ResetCameraClippingRangeTo(r.VisiblePropBounds())
}

// ResetCameraClippingRangeTo fits the active camera to b.
func (r *Renderer) ResetCameraClippingRangeTo(b Bounds) {
	if r == nil || r.camera == nil {
		return
	}
	r.camera.ResetClippingRange(b)
}
