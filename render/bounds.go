package render

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Bounds is an axis aligned box. The zero value is empty.
type Bounds struct {
	r3.Box
	set bool
}

// NewBounds returns the box spanning min and max.
func NewBounds(min, max r3.Vec) Bounds {
	return Bounds{Box: r3.Box{Min: min, Max: max}, set: true}
}

// Valid reports whether the box holds at least one point and only finite values.
func (b Bounds) Valid() bool {
	if !b.set {
		return false
	}
	for _, v := range []float64{b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return b.Min.X <= b.Max.X && b.Min.Y <= b.Max.Y && b.Min.Z <= b.Max.Z
}

// Union returns the smallest box containing both. Invalid operands are ignored.
func (b Bounds) Union(o Bounds) Bounds {
	switch {
	case !o.Valid():
		return b
	case !b.Valid():
		return o
	}
	return NewBounds(
		r3.Vec{X: math.Min(b.Min.X, o.Min.X), Y: math.Min(b.Min.Y, o.Min.Y), Z: math.Min(b.Min.Z, o.Min.Z)},
		r3.Vec{X: math.Max(b.Max.X, o.Max.X), Y: math.Max(b.Max.Y, o.Max.Y), Z: math.Max(b.Max.Z, o.Max.Z)},
	)
}

// Center returns the middle of the box.
func (b Bounds) Center() r3.Vec {
	return r3.Scale(0.5, r3.Add(b.Min, b.Max))
}

// Corners returns the eight box corners.
func (b Bounds) Corners() []r3.Vec {
	out := make([]r3.Vec, 0, 8)
	for _, x := range []float64{b.Min.X, b.Max.X} {
		for _, y := range []float64{b.Min.Y, b.Max.Y} {
			for _, z := range []float64{b.Min.Z, b.Max.Z} {
				out = append(out, r3.Vec{X: x, Y: y, Z: z})
			}
		}
	}
	return out
}
