package render

import (
	"sort"

	"github.com/milk9111/layerdm/observer"
)

const (
	// WindowResizeEvent is emitted by SetSize.
	WindowResizeEvent observer.EventID = "window-resize"
	// RenderEvent is emitted by Render.
	RenderEvent observer.EventID = "render"
)

// Window is a render target holding a stack of renderers.
type Window struct {
	events observer.Subject

	renderers      []*Renderer
	numberOfLayers int
	width, height  int
	renders        int
}

// NewWindow returns an empty window with one layer.
func NewWindow(width, height int) *Window {
	return &Window{numberOfLayers: 1, width: width, height: height}
}

func (w *Window) Events() *observer.Subject {
	if w == nil {
		return nil
	}
	return &w.events
}

// AddRenderer appends r to the stack once.
func (w *Window) AddRenderer(r *Renderer) {
	if w == nil || r == nil || w.HasRenderer(r) {
		return
	}
	w.renderers = append(w.renderers, r)
	w.events.Modified(w)
}

// RemoveRenderer drops r if present.
func (w *Window) RemoveRenderer(r *Renderer) {
	if w == nil {
		return
	}
	for i, other := range w.renderers {
		if other == r {
			w.renderers = append(w.renderers[:i], w.renderers[i+1:]...)
			w.events.Modified(w)
			return
		}
	}
}

func (w *Window) HasRenderer(r *Renderer) bool {
	if w == nil {
		return false
	}
	for _, other := range w.renderers {
		if other == r {
			return true
		}
	}
	return false
}

// FirstRenderer returns the first renderer added, or nil.
func (w *Window) FirstRenderer() *Renderer {
	if w == nil || len(w.renderers) == 0 {
		return nil
	}
	return w.renderers[0]
}

// Renderers returns the stack ordered by layer, insertion order within a layer.
func (w *Window) Renderers() []*Renderer {
	if w == nil {
		return nil
	}
	out := append([]*Renderer(nil), w.renderers...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Layer() < out[j].Layer() })
	return out
}

func (w *Window) NumberOfRenderers() int {
	if w == nil {
		return 0
	}
	return len(w.renderers)
}

func (w *Window) NumberOfLayers() int { return w.numberOfLayers }

func (w *Window) SetNumberOfLayers(n int) {
	if n < 1 {
		n = 1
	}
	w.numberOfLayers = n
}

func (w *Window) Size() (int, int) { return w.width, w.height }

// SetSize resizes the window and emits WindowResizeEvent.
func (w *Window) SetSize(width, height int) {
	if w.width == width && w.height == height {
		return
	}
	w.width, w.height = width, height
	w.events.Invoke(w, WindowResizeEvent, nil)
}

// Render emits RenderEvent. The host draws in response.
func (w *Window) Render() {
	if w == nil {
		return
	}
	w.renders++
	w.events.Invoke(w, RenderEvent, nil)
}

// RenderCount returns how many times Render ran.
func (w *Window) RenderCount() int { return w.renders }
