package scene

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	ViewNodeClass  = "View"
	SliceNodeClass = "Slice"
)

// ViewNode describes a 3D view.
type ViewNode struct {
	*NodeBase
	layoutName string
}

func NewViewNode() *ViewNode {
	n := &ViewNode{}
	n.NodeBase = NewNodeBase(n, ViewNodeClass)
	return n
}

func (n *ViewNode) LayoutName() string { return n.layoutName }

func (n *ViewNode) SetLayoutName(name string) {
	if n.layoutName == name {
		return
	}
	n.layoutName = name
	n.Modified()
}

// SliceNode describes a 2D slice view. XYToRAS maps view pixels to world
// coordinates and is rebuilt whenever geometry changes.
type SliceNode struct {
	*NodeBase
	layoutName string

	sliceToRAS *mat.Dense
	xyToRAS    *mat.Dense
	dimensions [3]int
	fov        r3.Vec
	xyzOrigin  r3.Vec
}

// NewSliceNode returns an axial 256x256 slice with a 250mm field of view.
func NewSliceNode() *SliceNode {
	n := &SliceNode{
		sliceToRAS: identity4(),
		dimensions: [3]int{256, 256, 1},
		fov:        r3.Vec{X: 250, Y: 250, Z: 1},
	}
	n.NodeBase = NewNodeBase(n, SliceNodeClass)
	n.updateMatrices()
	return n
}

func (n *SliceNode) LayoutName() string { return n.layoutName }

func (n *SliceNode) SetLayoutName(name string) {
	if n.layoutName == name {
		return
	}
	n.layoutName = name
	n.Modified()
}

// SliceToRAS returns a copy of the slice orientation matrix.
func (n *SliceNode) SliceToRAS() *mat.Dense { return mat.DenseCopyOf(n.sliceToRAS) }

// XYToRAS returns a copy of the pixel to world matrix.
func (n *SliceNode) XYToRAS() *mat.Dense { return mat.DenseCopyOf(n.xyToRAS) }

func (n *SliceNode) Dimensions() [3]int { return n.dimensions }
func (n *SliceNode) FieldOfView() r3.Vec { return n.fov }
func (n *SliceNode) XYZOrigin() r3.Vec   { return n.xyzOrigin }

// SetSliceToRAS copies m (4x4) as the slice orientation.
func (n *SliceNode) SetSliceToRAS(m mat.Matrix) {
	r, c := m.Dims()
	if r != 4 || c != 4 {
		return
	}
	n.sliceToRAS = mat.DenseCopyOf(m)
	n.updateMatrices()
}

func (n *SliceNode) SetDimensions(x, y, z int) {
	n.dimensions = [3]int{x, y, z}
	n.updateMatrices()
}

func (n *SliceNode) SetFieldOfView(fov r3.Vec) {
	n.fov = fov
	n.updateMatrices()
}

func (n *SliceNode) SetXYZOrigin(o r3.Vec) {
	n.xyzOrigin = o
	n.updateMatrices()
}

// SetOrientation picks one of the standard slice planes.
func (n *SliceNode) SetOrientation(o Orientation) {
	m := identity4()
	switch o {
	case Sagittal:
		// right = +Y (anterior), up = +Z, normal = +X
		m.Set(0, 0, 0)
		m.Set(1, 0, 1)
		m.Set(1, 1, 0)
		m.Set(2, 1, 1)
		m.Set(2, 2, 0)
		m.Set(0, 2, 1)
	case Coronal:
		// right = +X, up = +Z, normal = -Y
		m.Set(1, 1, 0)
		m.Set(2, 1, 1)
		m.Set(2, 2, 0)
		m.Set(1, 2, -1)
	}
	n.SetSliceToRAS(m)
}

// Orientation names a standard slice plane.
type Orientation int

const (
	Axial Orientation = iota
	Sagittal
	Coronal
)

func (n *SliceNode) updateMatrices() {
	xyToSlice := identity4()
	for i := 0; i < 3; i++ {
		dim := float64(n.dimensions[i])
		fov := component(n.fov, i)
		spacing := fov / dim
		xyToSlice.Set(i, i, spacing)
		offset := component(n.xyzOrigin, i)
		if i < 2 {
			offset -= fov / 2
		}
		xyToSlice.Set(i, 3, offset)
	}
	var xyToRAS mat.Dense
	xyToRAS.Mul(n.sliceToRAS, xyToSlice)
	n.xyToRAS = &xyToRAS
	if n.NodeBase != nil {
		n.Modified()
	}
}

// XYToRASPoint maps a view pixel to world coordinates.
func (n *SliceNode) XYToRASPoint(x, y float64) r3.Vec {
	return TransformPoint(n.xyToRAS, r3.Vec{X: x, Y: y})
}

// TransformPoint applies a 4x4 homogeneous matrix to p.
func TransformPoint(m mat.Matrix, p r3.Vec) r3.Vec {
	in := mat.NewVecDense(4, []float64{p.X, p.Y, p.Z, 1})
	var out mat.VecDense
	out.MulVec(m, in)
	return r3.Vec{X: out.AtVec(0), Y: out.AtVec(1), Z: out.AtVec(2)}
}

func identity4() *mat.Dense {
	m := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		m.Set(i, i, 1)
	}
	return m
}

func component(v r3.Vec, i int) float64 {
	switch i {
	case 0:
		return v.X
	case 1:
		return v.Y
	}
	return v.Z
}
