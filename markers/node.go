// Package markers is a point-list node and the pipeline that draws and edits it.
package markers

import (
	"fmt"
	"image/color"

	"github.com/milk9111/layerdm/prefabs"
	"github.com/milk9111/layerdm/scene"
	"golang.org/x/image/colornames"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"
)

const (
	NodeClass = "Markers"
	// TagAttribute names the attribute holding the node's free-form tag.
	TagAttribute = "tag"
)

// Node is an ordered list of points drawn as spheres.
type Node struct {
	*scene.NodeBase

	points      []r3.Vec
	radius      float64
	color       color.Color
	hoverColor  color.Color
	renderOrder int
	locked      bool
}

func NewNode() *Node {
	n := &Node{radius: 5, color: colornames.Tomato, hoverColor: colornames.White}
	n.NodeBase = scene.NewNodeBase(n, NodeClass)
	return n
}

// NewNodeFromSpec builds a node from its prefab fields.
func NewNodeFromSpec(spec prefabs.MarkersFieldsSpec) *Node {
	n := NewNode()
	for _, p := range spec.Points {
		n.points = append(n.points, r3.Vec{X: p[0], Y: p[1], Z: p[2]})
	}
	if spec.Radius > 0 {
		n.radius = spec.Radius
	}
	n.color = spec.Color.Or(n.color)
	n.hoverColor = spec.HoverColor.Or(n.hoverColor)
	n.renderOrder = spec.RenderOrder
	n.locked = spec.Locked
	return n
}

// Register teaches s how to create markers nodes on load.
func Register(s *scene.Scene) {
	s.RegisterNodeClass(NodeClass, func() scene.Node { return NewNode() })
}

func (n *Node) Points() []r3.Vec        { return append([]r3.Vec(nil), n.points...) }
func (n *Node) NumberOfPoints() int     { return len(n.points) }
func (n *Node) Point(i int) r3.Vec      { return n.points[i] }
func (n *Node) Radius() float64         { return n.radius }
func (n *Node) Color() color.Color      { return n.color }
func (n *Node) HoverColor() color.Color { return n.hoverColor }
func (n *Node) RenderOrder() int        { return n.renderOrder }
func (n *Node) Locked() bool            { return n.locked }

func (n *Node) Tag() string {
	tag, _ := n.Attribute(TagAttribute)
	return tag
}

func (n *Node) SetTag(tag string) { n.SetAttribute(TagAttribute, tag) }

// AddPoint appends p and returns its index.
func (n *Node) AddPoint(p r3.Vec) int {
	n.points = append(n.points, p)
	n.Modified()
	return len(n.points) - 1
}

// SetPoint moves point i. Out of range indices are ignored.
func (n *Node) SetPoint(i int, p r3.Vec) {
	if i < 0 || i >= len(n.points) || n.points[i] == p {
		return
	}
	n.points[i] = p
	n.Modified()
}

func (n *Node) RemovePoint(i int) {
	if i < 0 || i >= len(n.points) {
		return
	}
	n.points = append(n.points[:i], n.points[i+1:]...)
	n.Modified()
}

func (n *Node) SetRadius(r float64) {
	if r <= 0 || r == n.radius {
		return
	}
	n.radius = r
	n.Modified()
}

func (n *Node) SetColor(c color.Color) {
	n.color = c
	n.Modified()
}

func (n *Node) SetHoverColor(c color.Color) {
	n.hoverColor = c
	n.Modified()
}

func (n *Node) SetRenderOrder(order int) {
	if n.renderOrder == order {
		return
	}
	n.renderOrder = order
	n.Modified()
}

func (n *Node) SetLocked(locked bool) {
	if n.locked == locked {
		return
	}
	n.locked = locked
	n.Modified()
}

type nodeState struct {
	Points      [][3]float64 `yaml:"points"`
	Radius      float64      `yaml:"radius"`
	Color       string       `yaml:"color"`
	HoverColor  string       `yaml:"hover_color"`
	RenderOrder int          `yaml:"render_order,omitempty"`
	Locked      bool         `yaml:"locked,omitempty"`
}

func (n *Node) MarshalState() (any, error) {
	st := nodeState{
		Radius:      n.radius,
		Color:       hex(n.color),
		HoverColor:  hex(n.hoverColor),
		RenderOrder: n.renderOrder,
		Locked:      n.locked,
	}
	for _, p := range n.points {
		st.Points = append(st.Points, [3]float64{p.X, p.Y, p.Z})
	}
	return st, nil
}

func (n *Node) UnmarshalState(value *yaml.Node) error {
	var raw struct {
		Points      [][3]float64       `yaml:"points"`
		Radius      float64            `yaml:"radius"`
		Color       *prefabs.YAMLColor `yaml:"color"`
		HoverColor  *prefabs.YAMLColor `yaml:"hover_color"`
		RenderOrder int                `yaml:"render_order"`
		Locked      bool               `yaml:"locked"`
	}
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("markers node: %w", err)
	}
	fresh := NewNodeFromSpec(prefabs.MarkersFieldsSpec{
		Points:      raw.Points,
		Radius:      raw.Radius,
		Color:       raw.Color,
		HoverColor:  raw.HoverColor,
		RenderOrder: raw.RenderOrder,
		Locked:      raw.Locked,
	})
	n.points, n.radius = fresh.points, fresh.radius
	n.color, n.hoverColor = fresh.color, fresh.hoverColor
	n.renderOrder, n.locked = fresh.renderOrder, fresh.locked
	return nil
}

func hex(c color.Color) string {
	nc := color.NRGBAModel.Convert(c).(color.NRGBA)
	return fmt.Sprintf("#%02x%02x%02x%02x", nc.R, nc.G, nc.B, nc.A)
}
