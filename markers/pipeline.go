package markers

import (
	"math"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/layerdm/interaction"
	"github.com/milk9111/layerdm/logic"
	"github.com/milk9111/layerdm/observer"
	"github.com/milk9111/layerdm/pipeline"
	"github.com/milk9111/layerdm/render"
	"github.com/milk9111/layerdm/scene"
	"github.com/milk9111/layerdm/selection"
	"github.com/milk9111/layerdm/translation"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	Tag = "markers"
	// DefaultTranslationTag tags the translation singleton shared by markers
	// nodes that have no table of their own.
	DefaultTranslationTag = "MarkersDefault"
	// PickTolerance is added to the marker radius when picking.
	PickTolerance = 2.0
)

// Creator makes a Pipeline for every markers node.
type Creator struct {
	selection *selection.Observer
	defaults  *translation.Table
	priority  int
}

// NewCreator returns a creator whose pipelines place points through sel and
// fall back to defaults for nodes without a translation table.
func NewCreator(sel *selection.Observer, defaults *translation.Table) *Creator {
	if defaults == nil {
		defaults = DefaultTranslations()
	}
	return &Creator{selection: sel, defaults: defaults}
}

func (c *Creator) Priority() int { return c.priority }

func (c *Creator) CreatePipeline(view, node scene.Node) pipeline.Pipeline {
	n, ok := node.(*Node)
	if !ok {
		return nil
	}
	if n.Scene() != nil {
		logic.CreateDefaultEventTranslation(n, DefaultTranslationTag, func(t *translation.Node) {
			t.CopyFrom(c.defaults)
		})
	}
	return NewPipeline(n, c.selection)
}

// DefaultTranslations is hover, click-and-drag translation, delete and cancel.
func DefaultTranslations() *translation.Table {
	t := translation.NewTable()
	t.SetTranslationAnyModifier(interaction.StateAny, interaction.MouseMoveEvent, interaction.WidgetEventMouseMove)
	t.SetTranslationClickAndDrag(interaction.StateOnWidget, interaction.LeftButtonPressEvent, interaction.StateTranslate,
		interaction.WidgetEventTranslateStart, interaction.WidgetEventTranslateEnd, interaction.NoModifier)
	t.SetTranslation(interaction.StateTranslate, interaction.MouseMoveEvent, interaction.WidgetEventTranslate, interaction.AnyModifier)
	t.SetTranslationKeyboard(interaction.StateOnWidget, "Delete", interaction.WidgetEventDelete, interaction.AnyModifier, 1)
	t.SetTranslationKeyboard(interaction.StateTranslate, "Escape", interaction.WidgetEventCancel, interaction.AnyModifier, 1)
	return t
}

var fallback = DefaultTranslations()

// Pipeline draws one sphere per point and lets the user hover, drag, select
// and delete points. While the selection observer is placing its node, a left
// press anywhere adds a point.
type Pipeline struct {
	*pipeline.Base

	node      *Node
	selection *selection.Observer
	table     *translation.Node

	props    []*render.Prop
	space    *cp.Space
	state    interaction.WidgetState
	hovered  int
	selected map[int]bool
	dragFrom r3.Vec
}

func NewPipeline(n *Node, sel *selection.Observer) *Pipeline {
	p := &Pipeline{node: n, selection: sel, hovered: -1, selected: map[int]bool{}, state: interaction.StateIdle}
	p.Base = pipeline.NewBase(p, Tag)
	if sel != nil {
		p.UpdateObserver(nil, sel)
	}
	return p
}

func (p *Pipeline) Node() *Node                          { return p.node }
func (p *Pipeline) RenderOrder() int                     { return p.node.RenderOrder() }
func (p *Pipeline) WidgetState() interaction.WidgetState { return p.state }
func (p *Pipeline) Hovered() int                         { return p.hovered }
func (p *Pipeline) Props() []*render.Prop                { return append([]*render.Prop(nil), p.props...) }

// Selected reports whether point i is selected.
func (p *Pipeline) Selected(i int) bool { return p.selected[i] }

func (p *Pipeline) MouseCursor() interaction.Cursor {
	switch {
	case p.placing():
		return interaction.CursorCrosshair
	case p.state == interaction.StateTranslate:
		return interaction.CursorMove
	case p.hovered >= 0:
		return interaction.CursorPointer
	}
	return interaction.CursorDefault
}

// SetDisplayNode also follows the node's translation table reference.
func (p *Pipeline) SetDisplayNode(n scene.Node) {
	p.Base.SetDisplayNode(n)
	p.updateTable()
}

func (p *Pipeline) OnUpdate(ev observer.Event) {
	if ev.Source == observer.Observable(p.node) {
		p.updateTable()
	}
	p.ResetDisplay()
}

func (p *Pipeline) OnRendererAdded(r *render.Renderer) {
	for _, prop := range p.props {
		r.AddViewProp(prop)
	}
}

func (p *Pipeline) OnRendererRemoved(r *render.Renderer) {
	for _, prop := range p.props {
		r.RemoveViewProp(prop)
	}
}

func (p *Pipeline) Detach() {
	p.Base.Detach()
	if r := p.Renderer(); r != nil {
		p.OnRendererRemoved(r)
	}
}

// UpdatePipeline syncs props and the pick space with the node's points.
func (p *Pipeline) UpdatePipeline() {
	pts := p.node.Points()
	r := p.Renderer()
	for len(p.props) > len(pts) {
		last := p.props[len(p.props)-1]
		if r != nil {
			r.RemoveViewProp(last)
		}
		p.props = p.props[:len(p.props)-1]
	}
	for len(p.props) < len(pts) {
		prop := render.NewProp()
		if r != nil {
			r.AddViewProp(prop)
		}
		p.props = append(p.props, prop)
	}
	if p.hovered >= len(pts) {
		p.hovered = -1
	}

	p.space = cp.NewSpace()
	for i, pt := range pts {
		prop := p.props[i]
		prop.SetTransform(pt, p.node.Radius())
		if i == p.hovered || p.selected[i] {
			prop.SetColor(p.node.HoverColor())
		} else {
			prop.SetColor(p.node.Color())
		}
		prop.SetLabel(p.node.Name())

		shape := cp.NewCircle(p.space.StaticBody, p.node.Radius(), cp.Vector{X: pt.X, Y: pt.Y})
		shape.UserData = i
		p.space.AddShape(shape)
	}
}

// Pick returns the point under world position w and its distance to the
// point's outline, or -1.
func (p *Pipeline) Pick(w r3.Vec) (int, float64) {
	if p.space == nil {
		return -1, math.MaxFloat64
	}
	info := p.space.PointQueryNearest(cp.Vector{X: w.X, Y: w.Y}, PickTolerance, cp.SHAPE_FILTER_ALL)
	if info == nil || info.Shape == nil {
		return -1, math.MaxFloat64
	}
	i, ok := info.Shape.UserData.(int)
	if !ok {
		return -1, math.MaxFloat64
	}
	return i, math.Max(info.Distance, 0)
}

func (p *Pipeline) CanProcessInteractionEvent(ev *interaction.EventData) (bool, float64) {
	if ev == nil || p.node.Locked() {
		return false, math.MaxFloat64
	}
	if p.placing() && ev.Type == interaction.LeftButtonPressEvent && ev.WorldValid {
		return true, 0
	}
	we := p.translate(ev)
	if we == interaction.WidgetEventNone {
		return false, math.MaxFloat64
	}
	if p.state == interaction.StateTranslate {
		return true, 0
	}
	if !ev.WorldValid {
		return false, math.MaxFloat64
	}
	i, d := p.Pick(ev.WorldPosition)
	if i < 0 {
		return false, math.MaxFloat64
	}
	return true, d
}

func (p *Pipeline) ProcessInteractionEvent(ev *interaction.EventData) bool {
	if p.placing() && ev.Type == interaction.LeftButtonPressEvent {
		p.node.AddPoint(ev.WorldPosition)
		if !p.selection.PlaceModePersistence() {
			p.selection.StopPlace()
		}
		return true
	}

	switch p.translate(ev) {
	case interaction.WidgetEventMouseMove:
		i, _ := p.Pick(ev.WorldPosition)
		if i < 0 {
			return false
		}
		p.hover(i)
	case interaction.WidgetEventTranslateStart:
		if p.hovered < 0 {
			return false
		}
		p.state = interaction.StateTranslate
		p.dragFrom = p.node.Point(p.hovered)
	case interaction.WidgetEventTranslate:
		if p.hovered < 0 || !ev.WorldValid {
			return false
		}
		p.node.SetPoint(p.hovered, ev.WorldPosition)
	case interaction.WidgetEventTranslateEnd:
		p.state = interaction.StateOnWidget
		if !ev.MouseMovedSinceButtonDown && p.hovered >= 0 {
			p.selected[p.hovered] = !p.selected[p.hovered]
		}
		p.ResetDisplay()
	case interaction.WidgetEventCancel:
		if p.state == interaction.StateTranslate && p.hovered >= 0 {
			p.node.SetPoint(p.hovered, p.dragFrom)
		}
		p.state = interaction.StateOnWidget
	case interaction.WidgetEventDelete:
		if p.hovered < 0 {
			return false
		}
		i := p.hovered
		p.hovered = -1
		p.state = interaction.StateIdle
		p.dropSelection(i)
		p.node.RemovePoint(i)
	default:
		return false
	}
	return true
}

// LoseFocus clears the hover highlight. A drag in progress is committed.
func (p *Pipeline) LoseFocus(*interaction.EventData) {
	if p.hovered < 0 && p.state == interaction.StateIdle {
		return
	}
	p.hovered = -1
	p.state = interaction.StateIdle
	p.ResetDisplay()
}

func (p *Pipeline) hover(i int) {
	if p.hovered == i && p.state != interaction.StateIdle {
		return
	}
	p.hovered = i
	p.state = interaction.StateOnWidget
	p.ResetDisplay()
}

func (p *Pipeline) dropSelection(removed int) {
	next := map[int]bool{}
	for i, on := range p.selected {
		switch {
		case !on || i == removed:
		case i > removed:
			next[i-1] = true
		default:
			next[i] = true
		}
	}
	p.selected = next
}

func (p *Pipeline) placing() bool {
	return p.selection != nil && p.selection.IsPlacingNode(p.node)
}

func (p *Pipeline) translate(ev *interaction.EventData) interaction.WidgetEvent {
	if p.table != nil {
		return p.table.Translate(p.state, ev)
	}
	return fallback.Translate(p.state, ev)
}

// updateTable follows the node's translation reference, observing the table
// so edits to it redraw.
func (p *Pipeline) updateTable() {
	t := logic.WidgetEventTranslationNode(p.node)
	if t == p.table {
		return
	}
	var prev, next observer.Observable
	if p.table != nil {
		prev = p.table
	}
	if t != nil {
		next = t
	}
	p.UpdateObserver(prev, next)
	p.table = t
}
