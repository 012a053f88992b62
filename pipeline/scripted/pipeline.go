package scripted

import (
	"log"
	"math"

	"github.com/d5/tengo/v2"
	"github.com/milk9111/layerdm/interaction"
	"github.com/milk9111/layerdm/observer"
	"github.com/milk9111/layerdm/pipeline"
	"github.com/milk9111/layerdm/render"
	"github.com/milk9111/layerdm/scene"
	"golang.org/x/image/colornames"
	"gonum.org/v1/gonum/spatial/r3"
)

const Tag = "scripted"

// Pipeline forwards its hooks to the script of the creator that made it.
// Script state lives in one map per pipeline. The keys widget_state and
// cursor in that map drive WidgetState and MouseCursor.
type Pipeline struct {
	*pipeline.Base

	creator *Creator
	engine  *tengo.ImmutableMap
	state   *tengo.Map
	props   []*render.Prop
	dirty   bool
}

func newPipeline(c *Creator) *Pipeline {
	p := &Pipeline{creator: c, state: &tengo.Map{Value: map[string]tengo.Object{}}}
	p.Base = pipeline.NewBase(p, Tag)
	p.engine = c.engine(p)
	return p
}

func (p *Pipeline) RenderOrder() int { return p.creator.prog.renderOrder }

// Props returns the props built by the last update.
func (p *Pipeline) Props() []*render.Prop { return append([]*render.Prop(nil), p.props...) }

// State returns the script state as plain Go values.
func (p *Pipeline) State() map[string]any {
	out, _ := tengo.ToInterface(p.state).(map[string]any)
	return out
}

func (p *Pipeline) WidgetState() interaction.WidgetState {
	name, ok := p.state.Value["widget_state"]
	if !ok {
		return interaction.StateIdle
	}
	s, err := interaction.ParseWidgetState(objectAsString(name))
	if err != nil {
		return interaction.StateIdle
	}
	return s
}

var cursors = map[string]interaction.Cursor{
	"default":   interaction.CursorDefault,
	"pointer":   interaction.CursorPointer,
	"move":      interaction.CursorMove,
	"crosshair": interaction.CursorCrosshair,
	"text":      interaction.CursorText,
}

func (p *Pipeline) MouseCursor() interaction.Cursor {
	if name, ok := p.state.Value["cursor"]; ok {
		return cursors[objectAsString(name)]
	}
	return interaction.CursorDefault
}

// CanProcessInteractionEvent expects can_process to return [capable, distance].
func (p *Pipeline) CanProcessInteractionEvent(ev *interaction.EventData) (bool, float64) {
	res, err := p.callEvent(hookCanProcess, ev)
	if err != nil || res == nil {
		return false, math.MaxFloat64
	}
	pair, ok := res.Value().([]any)
	if !ok || len(pair) != 2 {
		log.Printf("scripted: %s: can_process: %v", p.creator.name, ErrBadResult)
		return false, math.MaxFloat64
	}
	capable, _ := pair[0].(bool)
	distance, ok := toFloat(pair[1])
	if !capable || !ok {
		return false, math.MaxFloat64
	}
	return true, distance
}

func (p *Pipeline) ProcessInteractionEvent(ev *interaction.EventData) bool {
	res, err := p.callEvent(hookProcess, ev)
	if err != nil || res == nil {
		return false
	}
	return res.Bool()
}

// LoseFocus runs lose_focus, or resets widget_state when the script has none.
func (p *Pipeline) LoseFocus(ev *interaction.EventData) {
	if !p.creator.prog.defined[hookLoseFocus] {
		if _, ok := p.state.Value["widget_state"]; ok {
			p.state.Value["widget_state"] = &tengo.String{Value: interaction.StateIdle.String()}
			p.ResetDisplay()
		}
		return
	}
	p.callEvent(hookLoseFocus, ev)
}

func (p *Pipeline) OnUpdate(observer.Event) { p.ResetDisplay() }

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

// UpdatePipeline rebuilds the props from the list returned by update.
func (p *Pipeline) UpdatePipeline() {
	node := p.DisplayNode()
	if node == nil {
		return
	}
	arg, err := nodeObject(node)
	if err != nil {
		log.Printf("scripted: %s: %v", p.creator.name, err)
		return
	}
	res, err := p.creator.prog.call(hookUpdate, p.engine, arg, p.state)
	p.dirty = false
	if err != nil {
		log.Printf("scripted: %s: %v", p.creator.name, err)
		return
	}
	if res == nil {
		return
	}
	specs, ok := res.Value().([]any)
	if !ok {
		log.Printf("scripted: %s: update: %v", p.creator.name, ErrBadResult)
		return
	}
	p.resizeProps(len(specs))
	for i, spec := range specs {
		m, _ := spec.(map[string]any)
		applyProp(p.props[i], m)
	}
}

// Detach also drops the pipeline from its creator.
func (p *Pipeline) Detach() {
	p.Base.Detach()
	if r := p.Renderer(); r != nil {
		p.OnRendererRemoved(r)
	}
	p.creator.forget(p)
}

func (p *Pipeline) resizeProps(n int) {
	r := p.Renderer()
	for len(p.props) > n {
		last := p.props[len(p.props)-1]
		if r != nil {
			r.RemoveViewProp(last)
		}
		p.props = p.props[:len(p.props)-1]
	}
	for len(p.props) < n {
		prop := render.NewProp()
		if r != nil {
			r.AddViewProp(prop)
		}
		p.props = append(p.props, prop)
	}
}

func (p *Pipeline) callEvent(hook string, ev *interaction.EventData) (*tengo.Variable, error) {
	if ev == nil {
		return nil, nil
	}
	arg, err := eventObject(ev)
	if err != nil {
		return nil, err
	}
	res, err := p.creator.prog.call(hook, p.engine, arg, p.state)
	if err != nil {
		log.Printf("scripted: %s: %v", p.creator.name, err)
	}
	if p.dirty {
		p.dirty = false
		p.ResetDisplay()
	}
	return res, err
}

func applyProp(prop *render.Prop, m map[string]any) {
	center := r3.Vec{}
	center.X, _ = toFloat(m["x"])
	center.Y, _ = toFloat(m["y"])
	center.Z, _ = toFloat(m["z"])
	radius, ok := toFloat(m["radius"])
	if !ok {
		radius = 1
	}
	prop.SetTransform(center, radius)
	if name, ok := m["color"].(string); ok {
		if c, ok := colornames.Map[name]; ok {
			prop.SetColor(c)
		}
	}
	visible, ok := m["visible"].(bool)
	prop.SetVisible(!ok || visible)
	label, _ := m["label"].(string)
	prop.SetLabel(label)
}

func nodeObject(n scene.Node) (tengo.Object, error) {
	b := n.Base()
	attrs := map[string]any{}
	for k, v := range b.Attributes() {
		attrs[k] = v
	}
	refs := map[string]any{}
	for _, role := range b.ReferenceRoles() {
		ids := []any{}
		for _, id := range b.NodeReferenceIDs(role) {
			ids = append(ids, id)
		}
		refs[role] = ids
	}
	return tengo.FromInterface(map[string]any{
		"id":         b.ID(),
		"class":      b.Class(),
		"name":       b.Name(),
		"attributes": attrs,
		"references": refs,
	})
}

func eventObject(ev *interaction.EventData) (tengo.Object, error) {
	return tengo.FromInterface(map[string]any{
		"type":        ev.Type.String(),
		"modifiers":   ev.Modifiers.String(),
		"key":         ev.KeySym,
		"repeat":      ev.RepeatCount,
		"x":           ev.DisplayPosition[0],
		"y":           ev.DisplayPosition[1],
		"world_x":     ev.WorldPosition.X,
		"world_y":     ev.WorldPosition.Y,
		"world_z":     ev.WorldPosition.Z,
		"world_valid": ev.WorldValid,
	})
}
