// Package layers partitions a window's renderer stack between pipelines.
//
// Pipelines with render order 0 share the window's first renderer. Every other
// pipeline is grouped by (render order, camera); each group owns one
// non-interactive renderer whose layer is the group's rank among live groups
// plus one, so managed layers always form the dense range 1..n.
package layers

import (
	"sort"

	"github.com/milk9111/layerdm/render"
)

// Pipeline is what the manager needs from a pipeline.
type Pipeline interface {
	RenderOrder() int
	// CustomCamera returns nil to use the default camera.
	CustomCamera() *render.Camera
	SetRenderer(r *render.Renderer)
}

type groupKey struct {
	order  int
	camera *render.Camera
}

func (k groupKey) less(o groupKey) bool {
	if k.order != o.order {
		return k.order < o.order
	}
	return k.camera.ID() < o.camera.ID()
}

type group struct {
	key      groupKey
	renderer *render.Renderer
	members  []Pipeline
}

// Manager owns the managed renderers of one window.
type Manager struct {
	window        *render.Window
	defaultCamera *render.Camera

	base   []Pipeline
	groups []*group
	keys   map[Pipeline]groupKey
}

func NewManager() *Manager {
	return &Manager{keys: map[Pipeline]groupKey{}}
}

func (m *Manager) Window() *render.Window        { return m.window }
func (m *Manager) DefaultCamera() *render.Camera { return m.defaultCamera }

// AddPipeline places p on its group's renderer, creating the group if needed.
// Adding a pipeline twice is a no-op.
func (m *Manager) AddPipeline(p Pipeline) {
	if p == nil {
		return
	}
	if _, ok := m.keys[p]; ok {
		return
	}
	key := keyOf(p)
	m.keys[p] = key

	if key.order == 0 {
		m.base = append(m.base, p)
		p.SetRenderer(m.window.FirstRenderer())
		return
	}

	g := m.group(key)
	if g == nil {
		g = &group{key: key}
		i := sort.Search(len(m.groups), func(i int) bool { return key.less(m.groups[i].key) })
		m.groups = append(m.groups, nil)
		copy(m.groups[i+1:], m.groups[i:])
		m.groups[i] = g
		m.attachGroup(g)
		m.renumber()
	}
	g.members = append(g.members, p)
	p.SetRenderer(g.renderer)
}

// RemovePipeline detaches p. The last pipeline of a group takes the group's
// renderer with it and the groups above move down one layer.
func (m *Manager) RemovePipeline(p Pipeline) {
	key, ok := m.keys[p]
	if !ok {
		return
	}
	delete(m.keys, p)

	if key.order == 0 {
		m.base = without(m.base, p)
		p.SetRenderer(nil)
		return
	}

	g := m.group(key)
	if g == nil {
		return
	}
	g.members = without(g.members, p)
	p.SetRenderer(nil)
	if len(g.members) > 0 {
		return
	}
	for i, other := range m.groups {
		if other == g {
			m.groups = append(m.groups[:i], m.groups[i+1:]...)
			break
		}
	}
	m.detachGroup(g)
	m.renumber()
}

// HasPipeline reports whether p is registered.
func (m *Manager) HasPipeline(p Pipeline) bool {
	_, ok := m.keys[p]
	return ok
}

// SetRenderWindow moves every managed layer to w. The previous window gets
// its managed renderers removed and its layer count restored.
func (m *Manager) SetRenderWindow(w *render.Window) {
	if m.window == w {
		return
	}
	m.teardown()
	m.window = w
	m.rebuild()
}

// SetDefaultCamera rebuilds the managed layers against c.
func (m *Manager) SetDefaultCamera(c *render.Camera) {
	if m.defaultCamera == c {
		return
	}
	m.teardown()
	m.defaultCamera = c
	m.rebuild()
}

// ResetCameraClippingRange fits the first renderer's camera to its own props,
// then every managed camera to the union of the props of the renderers it backs.
func (m *Manager) ResetCameraClippingRange() {
	if m.window == nil {
		return
	}
	m.window.FirstRenderer().ResetCameraClippingRange()

	var cameras []*render.Camera
	byCamera := map[*render.Camera][]*render.Renderer{}
	for _, g := range m.groups {
		cam := g.renderer.ActiveCamera()
		if cam == nil {
			continue
		}
		if _, seen := byCamera[cam]; !seen {
			cameras = append(cameras, cam)
		}
		byCamera[cam] = append(byCamera[cam], g.renderer)
	}
	for _, cam := range cameras {
		var b render.Bounds
		for _, r := range byCamera[cam] {
			b = b.Union(r.VisiblePropBounds())
		}
		cam.ResetClippingRange(b)
	}
}

// Renderer returns the renderer p currently draws into.
func (m *Manager) Renderer(p Pipeline) *render.Renderer {
	key, ok := m.keys[p]
	if !ok {
		return nil
	}
	if key.order == 0 {
		return m.window.FirstRenderer()
	}
	if g := m.group(key); g != nil {
		return g.renderer
	}
	return nil
}

// LayerOf returns p's layer, or -1 when p is unknown or has no renderer.
func (m *Manager) LayerOf(p Pipeline) int {
	if r := m.Renderer(p); r != nil {
		return r.Layer()
	}
	return -1
}

// Renderers returns the managed renderers, lowest layer first.
func (m *Manager) Renderers() []*render.Renderer {
	var out []*render.Renderer
	for _, g := range m.groups {
		if g.renderer != nil {
			out = append(out, g.renderer)
		}
	}
	return out
}

// NumberOfRenderers returns the number of managed renderers.
func (m *Manager) NumberOfRenderers() int { return len(m.Renderers()) }

// NumberOfManagedLayers returns the number of layers above 0 in use.
func (m *Manager) NumberOfManagedLayers() int { return len(m.groups) }

// NumberOfDistinctLayers counts layer 0 plus the managed layers.
func (m *Manager) NumberOfDistinctLayers() int { return len(m.groups) + 1 }

// NumberOfPipelines returns the number of registered pipelines.
func (m *Manager) NumberOfPipelines() int { return len(m.keys) }

// LayerInfo describes one managed layer.
type LayerInfo struct {
	Layer        int
	RenderOrder  int
	CameraID     uint64
	Default      bool
	NumPipelines int
}

// Layers describes layer 0 followed by the managed layers.
func (m *Manager) Layers() []LayerInfo {
	out := []LayerInfo{{Layer: 0, Default: true, NumPipelines: len(m.base)}}
	if cam := m.window.FirstRenderer().ActiveCamera(); cam != nil {
		out[0].CameraID = cam.ID()
	}
	for i, g := range m.groups {
		info := LayerInfo{
			Layer:        i + 1,
			RenderOrder:  g.key.order,
			Default:      g.key.camera == nil,
			NumPipelines: len(g.members),
		}
		if cam := m.cameraFor(g.key); cam != nil {
			info.CameraID = cam.ID()
		}
		out = append(out, info)
	}
	return out
}

func keyOf(p Pipeline) groupKey {
	order := p.RenderOrder()
	if order == 0 {
		return groupKey{}
	}
	return groupKey{order: order, camera: p.CustomCamera()}
}

func (m *Manager) group(key groupKey) *group {
	for _, g := range m.groups {
		if g.key == key {
			return g
		}
	}
	return nil
}

func (m *Manager) cameraFor(key groupKey) *render.Camera {
	if key.camera != nil {
		return key.camera
	}
	return m.defaultCamera
}

// attachGroup gives g a fresh renderer in the current window.
func (m *Manager) attachGroup(g *group) {
	if m.window == nil {
		return
	}
	r := render.NewRenderer()
	r.SetInteractive(false)
	r.SetActiveCamera(m.cameraFor(g.key))
	m.window.AddRenderer(r)
	g.renderer = r
}

func (m *Manager) detachGroup(g *group) {
	if g.renderer == nil {
		return
	}
	m.window.RemoveRenderer(g.renderer)
	g.renderer = nil
}

// renumber assigns layers by rank and syncs the window layer count.
func (m *Manager) renumber() {
	for i, g := range m.groups {
		if g.renderer != nil {
			g.renderer.SetLayer(i + 1)
		}
	}
	m.updateWindowLayers()
}

func (m *Manager) updateWindowLayers() {
	if m.window == nil {
		return
	}
	top := 0
	for _, r := range m.window.Renderers() {
		top = max(top, r.Layer())
	}
	m.window.SetNumberOfLayers(top + 1)
}

// teardown removes every managed renderer from the current window.
func (m *Manager) teardown() {
	for _, g := range m.groups {
		m.detachGroup(g)
	}
	m.updateWindowLayers()
}

// rebuild recreates the managed renderers and re-homes every pipeline.
func (m *Manager) rebuild() {
	for _, g := range m.groups {
		m.attachGroup(g)
	}
	m.renumber()

	first := m.window.FirstRenderer()
	for _, p := range m.base {
		p.SetRenderer(first)
	}
	for _, g := range m.groups {
		for _, p := range g.members {
			p.SetRenderer(g.renderer)
		}
	}
}

func without(ps []Pipeline, p Pipeline) []Pipeline {
	for i, other := range ps {
		if other == p {
			return append(ps[:i], ps[i+1:]...)
		}
	}
	return ps
}
