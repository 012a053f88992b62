package pipeline

import (
	"github.com/milk9111/layerdm/camsync"
	"github.com/milk9111/layerdm/interaction"
	"github.com/milk9111/layerdm/layers"
	"github.com/milk9111/layerdm/observer"
	"github.com/milk9111/layerdm/render"
	"github.com/milk9111/layerdm/scene"
)

// Manager owns the pipelines of one view. It creates them through its
// factory, places them with a layers.Manager, keeps the default camera in
// step through a camsync.Synchronizer and routes input through an
// InteractionLogic.
type Manager struct {
	events observer.Subject
	obs    *observer.Observer

	factory       *Factory
	layers        *layers.Manager
	sync          *camsync.Synchronizer
	logic         *InteractionLogic
	refs          *ReferenceObserver
	defaultCamera *render.Camera

	window   *render.Window
	viewNode scene.Node
	scene    *scene.Scene

	nodes     []scene.Node
	pipelines map[scene.Node]Pipeline

	requestRender func()
	renderBlocked bool
}

func NewManager() *Manager {
	m := &Manager{
		layers:        layers.NewManager(),
		sync:          camsync.New(),
		logic:         NewInteractionLogic(),
		refs:          NewReferenceObserver(),
		defaultCamera: render.NewCamera(),
		pipelines:     map[scene.Node]Pipeline{},
		requestRender: func() {},
	}
	m.sync.SetDefaultCamera(m.defaultCamera)
	m.layers.SetDefaultCamera(m.defaultCamera)
	m.refs.SetCallback(m.onReference)
	m.obs = observer.New(m.onEvent)
	m.obs.UpdateObserver(nil, m.sync)
	return m
}

func (m *Manager) Events() *observer.Subject {
	if m == nil {
		return nil
	}
	return &m.events
}

func (m *Manager) Factory() *Factory                        { return m.factory }
func (m *Manager) LayerManager() *layers.Manager            { return m.layers }
func (m *Manager) CameraSynchronizer() *camsync.Synchronizer { return m.sync }
func (m *Manager) InteractionLogic() *InteractionLogic      { return m.logic }
func (m *Manager) DefaultCamera() *render.Camera            { return m.defaultCamera }
func (m *Manager) RenderWindow() *render.Window             { return m.window }
func (m *Manager) ViewNode() scene.Node                     { return m.viewNode }
func (m *Manager) Scene() *scene.Scene                      { return m.scene }

// SetFactory switches factories and rebuilds the pipelines from the scene.
// Later creator changes on f rebuild them again.
func (m *Manager) SetFactory(f *Factory) {
	if m.factory == f {
		return
	}
	m.obs.UpdateObserver(m.factory, f)
	m.factory = f
	m.UpdateFromScene()
}

// SetRenderWindow moves the managed layers to w. Window resizes are
// broadcast like default camera changes.
func (m *Manager) SetRenderWindow(w *render.Window) {
	if m.window == w {
		return
	}
	m.obs.UpdateObserver(m.window, w, render.WindowResizeEvent)
	m.window = w
	m.layers.SetRenderWindow(w)
}

// SetRenderer sets the renderer whose active camera drives the default camera.
func (m *Manager) SetRenderer(r *render.Renderer) { m.sync.SetRenderer(r) }

// SetViewNode attaches the manager to a view and refreshes every pipeline.
func (m *Manager) SetViewNode(n scene.Node) {
	if m.viewNode == n {
		return
	}
	m.viewNode = n
	m.sync.SetViewNode(n)
	m.logic.SetViewNode(n)
	m.UpdateAllPipelines()
}

// SetScene switches scenes for the manager and every pipeline.
func (m *Manager) SetScene(s *scene.Scene) {
	if m.scene == s {
		return
	}
	m.scene = s
	m.refs.SetScene(s)
	for _, n := range m.nodes {
		m.pipelines[n].SetScene(s)
	}
}

// SetRequestRender sets the redraw callback and refreshes every pipeline.
func (m *Manager) SetRequestRender(fn func()) {
	if fn == nil {
		fn = func() {}
	}
	m.requestRender = fn
	m.UpdateAllPipelines()
}

// AddNode creates the pipeline for n unless one exists.
func (m *Manager) AddNode(n scene.Node) bool {
	if m.NodePipeline(n) != nil {
		return false
	}
	return m.createPipeline(n)
}

// RemoveNode drops the pipeline created for n.
func (m *Manager) RemoveNode(n scene.Node) bool {
	p := m.NodePipeline(n)
	if p == nil {
		return false
	}
	defer m.renderOnce()()
	m.layers.RemovePipeline(p)
	m.logic.RemovePipeline(p)
	if d, ok := p.(interface{ Detach() }); ok {
		d.Detach()
	}
	delete(m.pipelines, n)
	for i, other := range m.nodes {
		if other == n {
			m.nodes = append(m.nodes[:i], m.nodes[i+1:]...)
			break
		}
	}
	m.events.Modified(m)
	return true
}

// Clear drops every pipeline.
func (m *Manager) Clear() {
	defer m.renderOnce()()
	for _, n := range append([]scene.Node(nil), m.nodes...) {
		m.RemoveNode(n)
	}
}

// NodePipeline returns the pipeline created for n, or nil.
func (m *Manager) NodePipeline(n scene.Node) Pipeline {
	if m == nil || n == nil {
		return nil
	}
	return m.pipelines[n]
}

func (m *Manager) NumberOfPipelines() int { return len(m.nodes) }

// NthPipeline returns pipelines in creation order, nil when out of range.
func (m *Manager) NthPipeline(i int) Pipeline {
	if i < 0 || i >= len(m.nodes) {
		return nil
	}
	return m.pipelines[m.nodes[i]]
}

// UpdateFromScene removes pipelines whose node left the scene and creates
// the missing ones.
func (m *Manager) UpdateFromScene() {
	if m.scene == nil {
		return
	}
	defer m.renderOnce()()
	for _, n := range append([]scene.Node(nil), m.nodes...) {
		if m.scene.NodeByID(n.Base().ID()) != n {
			m.RemoveNode(n)
		}
	}
	for _, n := range m.scene.Nodes() {
		m.AddNode(n)
	}
}

// UpdateAllPipelines re-sends the view node and resets every display once.
func (m *Manager) UpdateAllPipelines() {
	defer m.renderOnce()()
	for _, n := range m.nodes {
		m.updatePipeline(m.pipelines[n])
	}
}

func (m *Manager) CanProcessInteractionEvent(ev *interaction.EventData) (bool, float64) {
	return m.logic.CanProcessInteractionEvent(ev)
}

func (m *Manager) ProcessInteractionEvent(ev *interaction.EventData) bool {
	return m.logic.ProcessInteractionEvent(ev)
}

func (m *Manager) LoseFocus(ev *interaction.EventData) {
	if ev == nil {
		m.logic.LoseFocusOnLeave()
		return
	}
	m.logic.LoseFocus(ev)
}

// MouseCursor returns the cursor of the focused pipeline.
func (m *Manager) MouseCursor() interaction.Cursor {
	if p := m.logic.LastFocusedPipeline(); p != nil {
		return p.MouseCursor()
	}
	return interaction.CursorDefault
}

// RequestRender resets clipping ranges and calls the redraw callback. It is a
// no-op without a window, while blocked and from inside itself.
func (m *Manager) RequestRender() {
	if m.renderBlocked || m.window == nil {
		return
	}
	m.renderBlocked = true
	defer func() { m.renderBlocked = false }()
	m.ResetCameraClippingRange()
	m.requestRender()
}

// BlockRequestRender toggles RequestRender and returns the previous state.
func (m *Manager) BlockRequestRender(blocked bool) bool {
	prev := m.renderBlocked
	m.renderBlocked = blocked
	return prev
}

// ResetCameraClippingRange refits every managed camera without letting the
// synchronizer report the change.
func (m *Manager) ResetCameraClippingRange() {
	defer m.sync.Suppress()()
	m.layers.ResetCameraClippingRange()
}

// renderOnce blocks render requests until the returned func runs, which then
// issues a single request.
func (m *Manager) renderOnce() func() {
	prev := m.BlockRequestRender(true)
	return func() {
		m.BlockRequestRender(prev)
		m.RequestRender()
	}
}

// resetOnce blocks p's display resets until the returned func runs, which
// then resets it once.
func resetOnce(p Pipeline) func() {
	prev := p.BlockResetDisplay(true)
	return func() {
		p.BlockResetDisplay(prev)
		p.ResetDisplay()
	}
}

func (m *Manager) createPipeline(n scene.Node) bool {
	if m.factory == nil || m.viewNode == nil || n == nil {
		return false
	}
	p := m.factory.CreatePipeline(m.viewNode, n)
	if p == nil {
		return false
	}

	defer m.renderOnce()()
	defer resetOnce(p)()

	p.SetViewNode(m.viewNode)
	p.SetPipelineManager(m)
	p.SetScene(m.scene)
	p.SetViewNode(m.viewNode)
	p.SetDisplayNode(n)
	p.OnDefaultCameraModified(m.defaultCamera)

	m.nodes = append(m.nodes, n)
	m.pipelines[n] = p
	m.layers.AddPipeline(p)
	m.logic.AddPipeline(p)
	m.updatePipeline(p)
	m.events.Modified(m)
	return true
}

func (m *Manager) updatePipeline(p Pipeline) {
	if p == nil {
		return
	}
	defer resetOnce(p)()
	p.SetViewNode(m.viewNode)
}

func (m *Manager) broadcastDefaultCamera() {
	defer m.renderOnce()()
	for _, n := range m.nodes {
		m.pipelines[n].OnDefaultCameraModified(m.defaultCamera)
	}
}

func (m *Manager) onEvent(ev observer.Event) {
	switch ev.Source {
	case observer.Observable(m.factory):
		if ev.ID == observer.Modified {
			m.UpdateFromScene()
		}
	case observer.Observable(m.sync), observer.Observable(m.window):
		m.broadcastDefaultCamera()
	}
}

func (m *Manager) onReference(from, to scene.Node, role string, ev observer.EventID) {
	p := m.NodePipeline(to)
	if p == nil {
		return
	}
	if ev == scene.ReferenceAddedEvent {
		p.OnReferenceToDisplayNodeAdded(from, role)
		return
	}
	p.OnReferenceToDisplayNodeRemoved(from, role)
}
