package render

import (
	"image/color"

	"github.com/milk9111/layerdm/observer"
	"gonum.org/v1/gonum/spatial/r3"
)

// Prop is a sphere actor. Pipelines own their props; renderers only hold them.
type Prop struct {
	events observer.Subject

	center  r3.Vec
	radius  float64
	color   color.Color
	visible bool
	label   string
}

// NewProp returns a visible unit sphere at the origin.
func NewProp() *Prop {
	return &Prop{radius: 1, color: color.White, visible: true}
}

func (p *Prop) Events() *observer.Subject {
	if p == nil {
		return nil
	}
	return &p.events
}

func (p *Prop) Center() r3.Vec       { return p.center }
func (p *Prop) Radius() float64      { return p.radius }
func (p *Prop) Color() color.Color   { return p.color }
func (p *Prop) Visible() bool        { return p.visible }
func (p *Prop) Label() string        { return p.label }
func (p *Prop) SetLabel(s string)    { p.label = s }
func (p *Prop) SetColor(c color.Color) {
	p.color = c
	p.events.Modified(p)
}

// SetTransform places the sphere.
func (p *Prop) SetTransform(center r3.Vec, radius float64) {
	if p.center == center && p.radius == radius {
		return
	}
	p.center, p.radius = center, radius
	p.events.Modified(p)
}

func (p *Prop) SetVisible(v bool) {
	if p.visible == v {
		return
	}
	p.visible = v
	p.events.Modified(p)
}

// Bounds returns the sphere's bounding box.
func (p *Prop) Bounds() Bounds {
	r := r3.Vec{X: p.radius, Y: p.radius, Z: p.radius}
	return NewBounds(r3.Sub(p.center, r), r3.Add(p.center, r))
}
