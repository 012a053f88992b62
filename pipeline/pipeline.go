// Package pipeline creates one pipeline per (view, node) pair, places it on a
// render layer and routes interaction events to it.
//
// Concrete pipelines embed *Base and override the hooks they need. Base calls
// hooks through the outer pipeline passed to NewBase, so overrides take effect
// even when the call originates inside Base.
package pipeline

import (
	"math"

	"github.com/milk9111/layerdm/interaction"
	"github.com/milk9111/layerdm/layers"
	"github.com/milk9111/layerdm/observer"
	"github.com/milk9111/layerdm/render"
	"github.com/milk9111/layerdm/scene"
)

// Pipeline is the capability set the manager drives.
type Pipeline interface {
	layers.Pipeline

	// Tag names the pipeline variant.
	Tag() string
	Renderer() *render.Renderer

	CanProcessInteractionEvent(ev *interaction.EventData) (bool, float64)
	ProcessInteractionEvent(ev *interaction.EventData) bool
	LoseFocus(ev *interaction.EventData)
	WidgetState() interaction.WidgetState
	MouseCursor() interaction.Cursor

	SetViewNode(n scene.Node)
	SetDisplayNode(n scene.Node)
	SetScene(s *scene.Scene)
	SetPipelineManager(m *Manager)

	OnDefaultCameraModified(c *render.Camera)
	OnRendererAdded(r *render.Renderer)
	OnRendererRemoved(r *render.Renderer)
	OnReferenceToDisplayNodeAdded(from scene.Node, role string)
	OnReferenceToDisplayNodeRemoved(from scene.Node, role string)
	OnUpdate(ev observer.Event)

	// UpdatePipeline refreshes the pipeline's props from its nodes.
	UpdatePipeline()
	ResetDisplay()
	BlockResetDisplay(blocked bool) bool
}

// Base implements every Pipeline hook as a no-op and keeps the references a
// pipeline is attached to.
type Base struct {
	self Pipeline
	tag  string
	obs  *observer.Observer

	viewNode    scene.Node
	displayNode scene.Node
	scene       *scene.Scene
	manager     *Manager
	renderer    *render.Renderer

	resetBlocked bool
}

// NewBase returns the base for self. A nil self makes the base its own pipeline.
func NewBase(self Pipeline, tag string) *Base {
	b := &Base{self: self, tag: tag}
	if b.self == nil {
		b.self = b
	}
	b.obs = observer.New(func(ev observer.Event) { b.self.OnUpdate(ev) })
	return b
}

func (b *Base) Tag() string                          { return b.tag }
func (b *Base) Self() Pipeline                       { return b.self }
func (b *Base) ViewNode() scene.Node                 { return b.viewNode }
func (b *Base) DisplayNode() scene.Node              { return b.displayNode }
func (b *Base) Scene() *scene.Scene                  { return b.scene }
func (b *Base) PipelineManager() *Manager            { return b.manager }
func (b *Base) Renderer() *render.Renderer           { return b.renderer }
func (b *Base) RenderOrder() int                     { return 0 }
func (b *Base) CustomCamera() *render.Camera         { return nil }
func (b *Base) WidgetState() interaction.WidgetState { return interaction.StateIdle }
func (b *Base) MouseCursor() interaction.Cursor      { return interaction.CursorDefault }

// SetViewNode observes n for Modified.
func (b *Base) SetViewNode(n scene.Node) {
	b.obs.UpdateObserver(b.viewNode, n)
	b.viewNode = n
}

// SetDisplayNode observes n for Modified.
func (b *Base) SetDisplayNode(n scene.Node) {
	b.obs.UpdateObserver(b.displayNode, n)
	b.displayNode = n
}

func (b *Base) SetScene(s *scene.Scene)       { b.scene = s }
func (b *Base) SetPipelineManager(m *Manager) { b.manager = m }

// SetRenderer moves the pipeline to r. The removed and added hooks only see
// non-nil renderers. The display is reset afterwards.
func (b *Base) SetRenderer(r *render.Renderer) {
	if b.renderer == r {
		return
	}
	if b.renderer != nil {
		b.self.OnRendererRemoved(b.renderer)
	}
	b.renderer = r
	if r != nil {
		b.self.OnRendererAdded(r)
	}
	b.self.ResetDisplay()
}

// ResetDisplay runs UpdatePipeline once and requests a render. It does nothing
// without a view node or while blocked, including from inside UpdatePipeline.
func (b *Base) ResetDisplay() {
	if b.resetBlocked || b.viewNode == nil {
		return
	}
	b.resetBlocked = true
	defer func() { b.resetBlocked = false }()
	b.self.UpdatePipeline()
	b.RequestRender()
}

// BlockResetDisplay toggles ResetDisplay and returns the previous state.
func (b *Base) BlockResetDisplay(blocked bool) bool {
	prev := b.resetBlocked
	b.resetBlocked = blocked
	return prev
}

// RequestRender asks the manager for a redraw.
func (b *Base) RequestRender() {
	if b.manager != nil {
		b.manager.RequestRender()
	}
}

// NodePipeline returns the sibling pipeline created for n in the same view.
func (b *Base) NodePipeline(n scene.Node) Pipeline {
	if b.manager == nil {
		return nil
	}
	return b.manager.NodePipeline(n)
}

// UpdateObserver moves the pipeline's observation from prev to next. Events
// arrive in OnUpdate.
func (b *Base) UpdateObserver(prev, next observer.Observable, events ...observer.EventID) bool {
	return b.obs.UpdateObserver(prev, next, events...)
}

func (b *Base) RemoveObserver(obj observer.Observable) { b.obs.RemoveObserver(obj) }

// IsObserving reports whether obj is linked to OnUpdate.
func (b *Base) IsObserving(obj observer.Observable) bool { return b.obs.IsObserving(obj) }

// Detach drops every observation.
func (b *Base) Detach() { b.obs.RemoveAll() }

func (b *Base) CanProcessInteractionEvent(*interaction.EventData) (bool, float64) {
	return false, math.MaxFloat64
}

func (b *Base) ProcessInteractionEvent(*interaction.EventData) bool { return false }
func (b *Base) LoseFocus(*interaction.EventData)                    {}
func (b *Base) OnDefaultCameraModified(*render.Camera)              {}
func (b *Base) OnRendererAdded(*render.Renderer)                    {}
func (b *Base) OnRendererRemoved(*render.Renderer)                  {}
func (b *Base) OnUpdate(observer.Event)                             {}
func (b *Base) UpdatePipeline()                                     {}

// OnReferenceToDisplayNodeAdded reports the new reference through OnUpdate.
func (b *Base) OnReferenceToDisplayNodeAdded(from scene.Node, role string) {
	b.self.OnUpdate(observer.Event{Source: b.displayNode, ID: scene.ReferenceAddedEvent, Data: from})
}

// OnReferenceToDisplayNodeRemoved reports the dropped reference through OnUpdate.
func (b *Base) OnReferenceToDisplayNodeRemoved(from scene.Node, role string) {
	b.self.OnUpdate(observer.Event{Source: b.displayNode, ID: scene.ReferenceRemovedEvent, Data: from})
}
