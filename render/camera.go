package render

import (
	"math"
	"sync/atomic"

	"github.com/milk9111/layerdm/observer"
	"gonum.org/v1/gonum/spatial/r3"
)

var nextCameraID atomic.Uint64

// Camera is a view camera. Identity is the pointer; ID gives a stable,
// ordered stand-in for it.
type Camera struct {
	events observer.Subject

	id            uint64
	position      r3.Vec
	focalPoint    r3.Vec
	viewUp        r3.Vec
	near, far     float64
	viewAngle     float64
	parallel      bool
	parallelScale float64
}

// NewCamera returns a camera looking down -Z from (0,0,1).
func NewCamera() *Camera {
	return &Camera{
		id:            nextCameraID.Add(1),
		position:      r3.Vec{Z: 1},
		viewUp:        r3.Vec{Y: 1},
		near:          0.01,
		far:           1000.01,
		viewAngle:     30,
		parallelScale: 1,
	}
}

func (c *Camera) Events() *observer.Subject {
	if c == nil {
		return nil
	}
	return &c.events
}

// ID is unique per camera for the life of the process.
func (c *Camera) ID() uint64 {
	if c == nil {
		return 0
	}
	return c.id
}

// Modified notifies observers.
func (c *Camera) Modified() { c.events.Modified(c) }

func (c *Camera) Position() r3.Vec   { return c.position }
func (c *Camera) FocalPoint() r3.Vec { return c.focalPoint }
func (c *Camera) ViewUp() r3.Vec     { return c.viewUp }

func (c *Camera) SetPosition(p r3.Vec) {
	if c.position == p {
		return
	}
	c.position = p
	c.Modified()
}

func (c *Camera) SetFocalPoint(p r3.Vec) {
	if c.focalPoint == p {
		return
	}
	c.focalPoint = p
	c.Modified()
}

func (c *Camera) SetViewUp(v r3.Vec) {
	if c.viewUp == v {
		return
	}
	c.viewUp = v
	c.Modified()
}

// Distance is the distance from position to focal point.
func (c *Camera) Distance() float64 {
	return r3.Norm(r3.Sub(c.focalPoint, c.position))
}

// SetDistance moves the position along the view direction, keeping the focal point.
func (c *Camera) SetDistance(d float64) {
	if d <= 0 {
		return
	}
	dir := c.DirectionOfProjection()
	c.SetPosition(r3.Sub(c.focalPoint, r3.Scale(d, dir)))
}

// DirectionOfProjection is the unit vector from position to focal point.
func (c *Camera) DirectionOfProjection() r3.Vec {
	d := r3.Sub(c.focalPoint, c.position)
	if r3.Norm(d) == 0 {
		return r3.Vec{Z: -1}
	}
	return r3.Unit(d)
}

func (c *Camera) ClippingRange() (near, far float64) { return c.near, c.far }

// SetClippingRange sets the near and far planes. far is pushed past near when needed.
func (c *Camera) SetClippingRange(near, far float64) {
	if near < 0 {
		near = 0
	}
	if far <= near {
		far = near + 1e-3
	}
	if c.near == near && c.far == far {
		return
	}
	c.near, c.far = near, far
	c.Modified()
}

func (c *Camera) ViewAngle() float64 { return c.viewAngle }

func (c *Camera) SetViewAngle(a float64) {
	if c.viewAngle == a {
		return
	}
	c.viewAngle = a
	c.Modified()
}

func (c *Camera) ParallelProjection() bool { return c.parallel }

func (c *Camera) SetParallelProjection(on bool) {
	if c.parallel == on {
		return
	}
	c.parallel = on
	c.Modified()
}

func (c *Camera) ParallelScale() float64 { return c.parallelScale }

func (c *Camera) SetParallelScale(s float64) {
	if c.parallelScale == s {
		return
	}
	c.parallelScale = s
	c.Modified()
}

// DeepCopy copies every parameter from src and notifies once.
func (c *Camera) DeepCopy(src *Camera) {
	if c == nil || src == nil || c == src {
		return
	}
	c.position = src.position
	c.focalPoint = src.focalPoint
	c.viewUp = src.viewUp
	c.near, c.far = src.near, src.far
	c.viewAngle = src.viewAngle
	c.parallel = src.parallel
	c.parallelScale = src.parallelScale
	c.Modified()
}

// ResetClippingRange fits the clipping planes around bounds.
// Invalid bounds leave the range unchanged.
func (c *Camera) ResetClippingRange(b Bounds) {
	if c == nil || !b.Valid() {
		return
	}
	dir := c.DirectionOfProjection()
	near, far := math.Inf(1), math.Inf(-1)
	for _, v := range b.Corners() {
		d := r3.Dot(r3.Sub(v, c.position), dir)
		near = math.Min(near, d)
		far = math.Max(far, d)
	}

	// Pad so geometry on the planes is not clipped.
	pad := 0.005 * (far - near)
	if pad == 0 {
		pad = 0.5
	}
	near -= pad
	far += pad

	if far <= 0 {
		far = 1
	}
	if minNear := far * nearClippingTolerance; near < minNear {
		near = minNear
	}
	c.SetClippingRange(near, far)
}

const nearClippingTolerance = 0.001
