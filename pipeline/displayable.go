package pipeline

import (
	"errors"

	"github.com/milk9111/layerdm/interaction"
	"github.com/milk9111/layerdm/observer"
	"github.com/milk9111/layerdm/render"
	"github.com/milk9111/layerdm/scene"
)

var ErrInvalidRenderer = errors.New("pipeline: renderer is not in the window")

// ViewConfig is what a DisplayableManager binds to.
type ViewConfig struct {
	Window   *render.Window
	Renderer *render.Renderer
	Factory  *Factory
	Scene    *scene.Scene
	ViewNode scene.Node
	// RequestRender is called once per coalesced redraw request.
	RequestRender func()
}

// DisplayableManager connects one view of a scene to a pipeline Manager:
// scene node events become pipeline creation and removal, view node changes
// refresh every pipeline, and input is routed to the pipelines.
type DisplayableManager struct {
	obs     *observer.Observer
	manager *Manager

	scene         *scene.Scene
	viewNode      scene.Node
	requestRender func()
	hasFocus      bool
}

func NewDisplayableManager() *DisplayableManager {
	d := &DisplayableManager{requestRender: func() {}}
	d.obs = observer.New(d.onEvent)
	return d
}

// Manager returns the pipeline manager, nil before Create.
func (d *DisplayableManager) Manager() *Manager { return d.manager }

// Create wires the manager to cfg and builds the pipelines for the nodes
// already in the scene.
func (d *DisplayableManager) Create(cfg ViewConfig) error {
	if cfg.Renderer == nil || !cfg.Window.HasRenderer(cfg.Renderer) {
		return ErrInvalidRenderer
	}
	if d.manager == nil {
		d.manager = NewManager()
	}
	if cfg.RequestRender != nil {
		d.requestRender = cfg.RequestRender
	}

	d.obs.UpdateObserver(d.scene, cfg.Scene,
		scene.NodeAddedEvent, scene.NodeRemovedEvent, scene.EndBatchProcessEvent, scene.EndCloseEvent)
	d.scene = cfg.Scene
	d.obs.UpdateObserver(d.viewNode, cfg.ViewNode)
	d.viewNode = cfg.ViewNode

	m := d.manager
	m.SetRenderWindow(cfg.Window)
	m.SetRenderer(cfg.Renderer)
	m.SetFactory(cfg.Factory)
	m.SetScene(cfg.Scene)
	m.SetViewNode(cfg.ViewNode)
	m.SetRequestRender(d.requestRender)
	d.UpdateFromScene()
	return nil
}

// UpdateFromScene resynchronizes the pipelines with the scene.
func (d *DisplayableManager) UpdateFromScene() {
	if d.manager == nil {
		return
	}
	d.manager.SetScene(d.scene)
	d.manager.UpdateFromScene()
}

// Close detaches from the scene and view and drops every pipeline.
func (d *DisplayableManager) Close() {
	d.obs.RemoveAll()
	d.scene = nil
	d.viewNode = nil
	if d.manager != nil {
		d.manager.Clear()
		d.manager.SetScene(nil)
	}
}

// NodePipeline returns the pipeline created for n in this view.
func (d *DisplayableManager) NodePipeline(n scene.Node) Pipeline {
	if d.manager == nil {
		return nil
	}
	return d.manager.NodePipeline(n)
}

func (d *DisplayableManager) CanProcessInteractionEvent(ev *interaction.EventData) (bool, float64) {
	if d.manager == nil {
		return false, 0
	}
	return d.manager.CanProcessInteractionEvent(ev)
}

func (d *DisplayableManager) ProcessInteractionEvent(ev *interaction.EventData) bool {
	if d.manager == nil {
		return false
	}
	return d.manager.ProcessInteractionEvent(ev)
}

func (d *DisplayableManager) MouseCursor() interaction.Cursor {
	if d.manager == nil {
		return interaction.CursorDefault
	}
	return d.manager.MouseCursor()
}

func (d *DisplayableManager) HasFocus() bool { return d.hasFocus }

// SetHasFocus records the view focus. Losing it makes the focused pipeline
// lose focus too.
func (d *DisplayableManager) SetHasFocus(focus bool, ev *interaction.EventData) {
	d.hasFocus = focus
	if !focus && d.manager != nil {
		d.manager.LoseFocus(ev)
	}
}

func (d *DisplayableManager) onEvent(ev observer.Event) {
	if d.manager == nil {
		return
	}
	if d.viewNode != nil && ev.Source == observer.Observable(d.viewNode) {
		d.manager.UpdateAllPipelines()
		return
	}
	switch ev.ID {
	case scene.NodeAddedEvent:
		if n, ok := observer.DataAs[scene.Node](ev); ok && !d.scene.IsBatchProcessing() {
			if d.manager.AddNode(n) {
				d.requestRender()
			}
		}
	case scene.NodeRemovedEvent:
		if n, ok := observer.DataAs[scene.Node](ev); ok && !d.scene.IsBatchProcessing() {
			if d.manager.RemoveNode(n) {
				d.requestRender()
			}
		}
	case scene.EndBatchProcessEvent, scene.EndCloseEvent:
		d.UpdateFromScene()
	}
}
