// Package host assembles a runnable view: window, renderers, scene, view
// nodes, pipeline creators and the displayable manager, configured from the
// prefab specs. It has no windowing dependency; cmd/layerview drives it from
// an ebiten game loop.
package host

import (
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/milk9111/layerdm/interaction"
	"github.com/milk9111/layerdm/layers"
	"github.com/milk9111/layerdm/logic"
	"github.com/milk9111/layerdm/markers"
	"github.com/milk9111/layerdm/pipeline"
	"github.com/milk9111/layerdm/pipeline/scripted"
	"github.com/milk9111/layerdm/prefabs"
	"github.com/milk9111/layerdm/render"
	"github.com/milk9111/layerdm/scene"
	"github.com/milk9111/layerdm/selection"
	"github.com/milk9111/layerdm/translation"
	"golang.org/x/image/colornames"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// TranslationsFile holds the named translation tables.
	TranslationsFile = "translations.yaml"
	// MarkersTable is the table in TranslationsFile used by markers nodes.
	MarkersTable = "markers"
)

var orientations = map[string]scene.Orientation{
	"":         scene.Axial,
	"axial":    scene.Axial,
	"sagittal": scene.Sagittal,
	"coronal":  scene.Coronal,
}

// View is one configured view of a scene.
type View struct {
	Window    *render.Window
	Renderer  *render.Renderer
	Camera    *render.Camera
	Scene     *scene.Scene
	ViewNode  *scene.ViewNode
	SliceNode *scene.SliceNode
	Factory   *pipeline.Factory
	Selection *selection.Observer

	displayable *pipeline.DisplayableManager
	markers     *markers.Creator
	scripts     map[string]*scripted.Creator
	sliceMode   bool
	renders     int
}

// NewView builds a view from spec with the markers creator and the scripted
// creators listed in pipelines.yaml registered.
func NewView(spec *prefabs.ViewSpec) (*View, error) {
	if spec == nil {
		spec = &prefabs.ViewSpec{Width: 1280, Height: 720}
	}
	v := &View{
		Window:    render.NewWindow(spec.Width, spec.Height),
		Camera:    render.NewCamera(),
		Scene:     scene.New(),
		ViewNode:  scene.NewViewNode(),
		SliceNode: scene.NewSliceNode(),
		Factory:   pipeline.NewFactory(),
		Selection: selection.New(),
		scripts:   map[string]*scripted.Creator{},
	}
	v.applyViewSpec(spec)

	v.Scene.AddDefaultSingletons()
	RegisterNodes(v.Scene)
	v.Selection.SetScene(v.Scene)

	tables, err := translation.LoadTables(TranslationsFile)
	if err != nil {
		log.Printf("host: %v", err)
	}
	v.markers = markers.NewCreator(v.Selection, tables[MarkersTable])
	v.Factory.AddPipelineCreator(v.markers)

	pipelines, err := prefabs.LoadPipelinesSpec()
	if err != nil {
		log.Printf("host: %v", err)
	} else {
		v.applyPipelinesSpec(pipelines)
	}

	v.displayable = pipeline.NewDisplayableManager()
	if err := v.displayable.Create(v.viewConfig()); err != nil {
		return nil, fmt.Errorf("host: create view: %w", err)
	}
	return v, nil
}

func (v *View) applyViewSpec(spec *prefabs.ViewSpec) {
	v.Window.SetSize(spec.Width, spec.Height)

	c := spec.Camera
	if c.ViewUp != ([3]float64{}) {
		v.Camera.SetPosition(vec(c.Position))
		v.Camera.SetFocalPoint(vec(c.FocalPoint))
		v.Camera.SetViewUp(vec(c.ViewUp))
	}
	if c.ViewAngle > 0 {
		v.Camera.SetViewAngle(c.ViewAngle)
	}
	v.Camera.SetParallelProjection(c.Parallel)
	if c.ParallelScale > 0 {
		v.Camera.SetParallelScale(c.ParallelScale)
	}

	v.ViewNode.SetLayoutName(spec.Layout)
	v.SliceNode.SetLayoutName(spec.Layout)
	if o, ok := orientations[strings.ToLower(spec.Slice.Orientation)]; ok {
		v.SliceNode.SetOrientation(o)
	} else {
		log.Printf("host: unknown slice orientation %q", spec.Slice.Orientation)
	}
	if fov := spec.Slice.FieldOfView; fov != ([3]float64{}) {
		v.SliceNode.SetFieldOfView(vec(fov))
	}
	if d := spec.Slice.Dimensions; d[0] > 0 && d[1] > 0 {
		v.SliceNode.SetDimensions(d[0], d[1], max(d[2], 1))
	}

	renderers := spec.Renderers
	if len(renderers) == 0 {
		renderers = []prefabs.RendererSpec{{Name: "background", Background: spec.Background, Interactive: true}}
	}
	if v.Renderer == nil {
		v.Renderer = render.NewRenderer()
		v.Renderer.SetActiveCamera(v.Camera)
		v.Window.AddRenderer(v.Renderer)
	}
	bg := renderers[0].Background
	if bg == nil {
		bg = spec.Background
	}
	v.Renderer.SetBackground(bg.Or(colornames.Black))
	v.Renderer.SetInteractive(renderers[0].Interactive)
}

func (v *View) applyPipelinesSpec(spec *prefabs.PipelinesSpec) {
	want := map[string]bool{}
	for _, s := range spec.Scripts {
		if s.Disabled {
			continue
		}
		want[s.File] = true
		if _, ok := v.scripts[s.File]; ok {
			continue
		}
		c, err := scripted.Load(s.File)
		if err != nil {
			log.Printf("host: %v", err)
			continue
		}
		v.scripts[s.File] = c
		v.Factory.AddPipelineCreator(c)
	}
	for name, c := range v.scripts {
		if !want[name] {
			v.Factory.RemovePipelineCreator(c)
			delete(v.scripts, name)
		}
	}
}

func (v *View) viewConfig() pipeline.ViewConfig {
	var viewNode scene.Node = v.ViewNode
	if v.sliceMode {
		viewNode = v.SliceNode
	}
	return pipeline.ViewConfig{
		Window:        v.Window,
		Renderer:      v.Renderer,
		Factory:       v.Factory,
		Scene:         v.Scene,
		ViewNode:      viewNode,
		RequestRender: v.requestRender,
	}
}

func (v *View) requestRender() {
	v.renders++
	v.Window.Render()
}

// Renders counts the coalesced redraw requests made by the pipelines.
func (v *View) Renders() int { return v.renders }

// Manager returns the pipeline manager of the view.
func (v *View) Manager() *pipeline.Manager { return v.displayable.Manager() }

// Displayable returns the displayable manager of the view.
func (v *View) Displayable() *pipeline.DisplayableManager { return v.displayable }

// Close drops every pipeline.
func (v *View) Close() { v.displayable.Close() }

// LoadScene adds the nodes of the named scene build spec.
func (v *View) LoadScene(name string) error {
	spec, err := prefabs.LoadSceneBuildSpec(name)
	if err != nil {
		return err
	}
	return BuildScene(v.Scene, spec)
}

// SliceMode reports whether the slice view node is shown.
func (v *View) SliceMode() bool { return v.sliceMode }

// SetSliceMode switches the view between the 3D and the slice view node.
func (v *View) SetSliceMode(on bool) error {
	if v.sliceMode == on {
		return nil
	}
	v.sliceMode = on
	return v.displayable.Create(v.viewConfig())
}

// Projection returns the mapping used for input and drawing with renderer r.
func (v *View) Projection(r *render.Renderer) Projection {
	w, h := v.Window.Size()
	if v.sliceMode {
		return SliceProjection{Slice: v.SliceNode, Width: w, Height: h}
	}
	cam := v.Camera
	if r != nil && r.ActiveCamera() != nil {
		cam = r.ActiveCamera()
	}
	return CameraProjection{Camera: cam, Width: w, Height: h}
}

// Resize updates the window size. Pipelines are told through the default
// camera broadcast.
func (v *View) Resize(width, height int) {
	if w, h := v.Window.Size(); w == width && h == height {
		return
	}
	v.Window.SetSize(width, height)
}

// HandleEvent fills in the world position of ev and routes it to the
// pipelines. Leave events drop the focus.
func (v *View) HandleEvent(ev *interaction.EventData) bool {
	if ev == nil {
		return false
	}
	if ev.Type == interaction.LeaveEvent {
		v.displayable.SetHasFocus(false, ev)
		return false
	}
	if !v.displayable.HasFocus() {
		v.displayable.SetHasFocus(true, ev)
	}
	ev.WorldPosition, ev.WorldValid = v.Projection(v.Renderer).ToWorld(ev.DisplayPosition[0], ev.DisplayPosition[1])
	if ok, _ := v.displayable.CanProcessInteractionEvent(ev); !ok {
		return false
	}
	return v.displayable.ProcessInteractionEvent(ev)
}

// MouseCursor is the cursor asked for by the focused pipeline.
func (v *View) MouseCursor() interaction.Cursor { return v.displayable.MouseCursor() }

// Layers describes layer 0 and the managed layers.
func (v *View) Layers() []layers.LayerInfo {
	return v.Manager().LayerManager().Layers()
}

// LayerReport is a plain text summary of the layers and their pipelines.
func (v *View) LayerReport() string {
	var b strings.Builder
	fmt.Fprintf(&b, "window layers: %d, renderers: %d\n", v.Window.NumberOfLayers(), v.Window.NumberOfRenderers())
	for _, l := range v.Layers() {
		cam := "default camera"
		if !l.Default {
			cam = fmt.Sprintf("camera %d", l.CameraID)
		}
		fmt.Fprintf(&b, "layer %d: order %d, %s, %d pipelines\n", l.Layer, l.RenderOrder, cam, l.NumPipelines)
	}
	m := v.Manager()
	tags := map[string]int{}
	for i := 0; i < m.NumberOfPipelines(); i++ {
		tags[m.NthPipeline(i).Tag()]++
	}
	names := make([]string, 0, len(tags))
	for tag := range tags {
		names = append(names, tag)
	}
	sort.Strings(names)
	for _, tag := range names {
		fmt.Fprintf(&b, "pipelines %s: %d\n", tag, tags[tag])
	}
	return b.String()
}

// Save writes the scene as YAML.
func (v *View) Save(w io.Writer) error { return v.Scene.Save(w) }

// SaveFile writes the scene to path.
func (v *View) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("host: save: %w", err)
	}
	if err := v.Save(f); err != nil {
		f.Close()
		return fmt.Errorf("host: save %s: %w", path, err)
	}
	return f.Close()
}

// Reload re-reads the named prefab files. Scene build specs are not
// reapplied since the scene may have been edited since.
func (v *View) Reload(names ...string) {
	for _, name := range names {
		if err := v.reload(name); err != nil {
			log.Printf("host: reload %s: %v", name, err)
		}
	}
}

func (v *View) reload(name string) error {
	if c, ok := v.scripts[name]; ok {
		src, err := prefabs.LoadScript(name)
		if err != nil {
			return err
		}
		return c.Reload(src)
	}
	switch name {
	case "view.yaml":
		spec, err := prefabs.LoadViewSpec()
		if err != nil {
			return err
		}
		v.applyViewSpec(spec)
	case "pipelines.yaml":
		spec, err := prefabs.LoadPipelinesSpec()
		if err != nil {
			return err
		}
		v.applyPipelinesSpec(spec)
	case TranslationsFile:
		tables, err := translation.LoadTables(TranslationsFile)
		if err != nil {
			return err
		}
		if t := logic.WidgetEventTranslationSingleton(v.Scene, markers.DefaultTranslationTag, nil); t != nil && tables[MarkersTable] != nil {
			t.CopyFrom(tables[MarkersTable])
		}
	}
	return nil
}

// Scripts lists the registered script names.
func (v *View) Scripts() []string {
	out := make([]string, 0, len(v.scripts))
	for name := range v.scripts {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// MarkersNodes returns the markers nodes of the scene in scene order.
func (v *View) MarkersNodes() []*markers.Node {
	var out []*markers.Node
	for _, n := range v.Scene.NodesByClass(markers.NodeClass) {
		if m, ok := n.(*markers.Node); ok {
			out = append(out, m)
		}
	}
	return out
}

func vec(a [3]float64) r3.Vec { return r3.Vec{X: a[0], Y: a[1], Z: a[2]} }
