package host

import (
	"math"

	"github.com/milk9111/layerdm/render"
	"github.com/milk9111/layerdm/scene"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Projection maps between window pixels (origin top-left) and world
// coordinates on the plane through the camera focal point.
type Projection interface {
	ToWorld(x, y float64) (r3.Vec, bool)
	ToDisplay(p r3.Vec) (x, y float64, ok bool)
	// PixelsPerUnit converts world lengths such as prop radii to pixels.
	PixelsPerUnit() float64
}

// CameraProjection projects through a camera. Perspective cameras are
// treated as parallel with the frustum height at the focal point.
type CameraProjection struct {
	Camera        *render.Camera
	Width, Height int
}

func (p CameraProjection) basis() (right, up r3.Vec, k float64, ok bool) {
	c := p.Camera
	if c == nil || p.Height <= 0 {
		return r3.Vec{}, r3.Vec{}, 0, false
	}
	half := c.ParallelScale()
	if !c.ParallelProjection() {
		half = c.Distance() * math.Tan(c.ViewAngle()*math.Pi/360)
	}
	if half <= 0 {
		return r3.Vec{}, r3.Vec{}, 0, false
	}
	up = r3.Unit(c.ViewUp())
	right = r3.Cross(c.DirectionOfProjection(), up)
	if r3.Norm(right) == 0 {
		return r3.Vec{}, r3.Vec{}, 0, false
	}
	right = r3.Unit(right)
	// Re-orthogonalize in case view up is not perpendicular to the view direction.
	up = r3.Unit(r3.Cross(right, c.DirectionOfProjection()))
	return right, up, float64(p.Height) / (2 * half), true
}

func (p CameraProjection) ToWorld(x, y float64) (r3.Vec, bool) {
	right, up, k, ok := p.basis()
	if !ok {
		return r3.Vec{}, false
	}
	dx := (x - float64(p.Width)/2) / k
	dy := (float64(p.Height)/2 - y) / k
	w := r3.Add(p.Camera.FocalPoint(), r3.Scale(dx, right))
	return r3.Add(w, r3.Scale(dy, up)), true
}

func (p CameraProjection) ToDisplay(w r3.Vec) (float64, float64, bool) {
	right, up, k, ok := p.basis()
	if !ok {
		return 0, 0, false
	}
	d := r3.Sub(w, p.Camera.FocalPoint())
	return float64(p.Width)/2 + r3.Dot(d, right)*k, float64(p.Height)/2 - r3.Dot(d, up)*k, true
}

func (p CameraProjection) PixelsPerUnit() float64 {
	_, _, k, ok := p.basis()
	if !ok {
		return 1
	}
	return k
}

// SliceProjection maps window pixels through a slice node's XY-to-RAS
// matrix. The window is stretched over the slice dimensions and y grows
// upward in slice space.
type SliceProjection struct {
	Slice         *scene.SliceNode
	Width, Height int
}

func (p SliceProjection) scale() (sx, sy float64, ok bool) {
	if p.Slice == nil || p.Width <= 0 || p.Height <= 0 {
		return 0, 0, false
	}
	dims := p.Slice.Dimensions()
	return float64(dims[0]) / float64(p.Width), float64(dims[1]) / float64(p.Height), true
}

func (p SliceProjection) ToWorld(x, y float64) (r3.Vec, bool) {
	sx, sy, ok := p.scale()
	if !ok {
		return r3.Vec{}, false
	}
	return p.Slice.XYToRASPoint(x*sx, (float64(p.Height)-y)*sy), true
}

func (p SliceProjection) ToDisplay(w r3.Vec) (float64, float64, bool) {
	sx, sy, ok := p.scale()
	if !ok || sx == 0 || sy == 0 {
		return 0, 0, false
	}
	var inv mat.Dense
	if err := inv.Inverse(p.Slice.XYToRAS()); err != nil {
		return 0, 0, false
	}
	xy := scene.TransformPoint(&inv, w)
	return xy.X / sx, float64(p.Height) - xy.Y/sy, true
}

func (p SliceProjection) PixelsPerUnit() float64 {
	sx, _, ok := p.scale()
	if !ok || p.Slice == nil {
		return 1
	}
	fov := p.Slice.FieldOfView()
	dims := p.Slice.Dimensions()
	if fov.X == 0 {
		return 1
	}
	spacing := fov.X / float64(dims[0])
	return 1 / (spacing * sx)
}
