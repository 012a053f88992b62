package host

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/milk9111/layerdm/interaction"
	"github.com/milk9111/layerdm/markers"
	"github.com/milk9111/layerdm/prefabs"
	"github.com/milk9111/layerdm/render"
	"github.com/milk9111/layerdm/scene"
	"gonum.org/v1/gonum/spatial/r3"
)

func near(a, b r3.Vec) bool {
	return r3.Norm(r3.Sub(a, b)) < 1e-6
}

func TestBuildScene(t *testing.T) {
	spec := prefabs.SceneBuildSpec{
		Name: "test",
		Nodes: []prefabs.NodeBuildSpec{
			{Class: markers.NodeClass, Name: "pts", Fields: map[string]any{
				"points": []any{[]any{1.0, 2.0, 3.0}},
				"radius": 4.0,
			}},
			{Class: "Annotation", Name: "note", Attributes: map[string]string{"x": "1"},
				References: map[string][]string{"display": {"pts"}}},
		},
	}
	s := scene.New()
	RegisterNodes(s)
	if err := BuildScene(s, spec); err != nil {
		t.Fatalf("BuildScene: %v", err)
	}
	if s.IsBatchProcessing() {
		t.Fatalf("batch left open")
	}

	ms := s.NodesByClass(markers.NodeClass)
	if len(ms) != 1 {
		t.Fatalf("got %d markers nodes", len(ms))
	}
	pts := ms[0].(*markers.Node)
	if pts.Name() != "pts" || pts.Radius() != 4 || pts.Point(0) != (r3.Vec{X: 1, Y: 2, Z: 3}) {
		t.Fatalf("markers node = %s r=%v %v", pts.Name(), pts.Radius(), pts.Points())
	}

	notes := s.NodesByClass("Annotation")
	if len(notes) != 1 {
		t.Fatalf("got %d annotations", len(notes))
	}
	if got := notes[0].Base().NodeReference("display"); got != scene.Node(pts) {
		t.Fatalf("display reference = %v", got)
	}
	if _, err := s.CreateNodeByClass("Annotation"); err != nil {
		t.Fatalf("generic class not registered: %v", err)
	}

	bad := []struct {
		name string
		spec prefabs.SceneBuildSpec
		want error
	}{
		{"unknown_reference", prefabs.SceneBuildSpec{Nodes: []prefabs.NodeBuildSpec{
			{Class: "Annotation", Name: "a", References: map[string][]string{"display": {"missing"}}},
		}}, ErrUnknownReference},
		{"missing_class", prefabs.SceneBuildSpec{Nodes: []prefabs.NodeBuildSpec{{Name: "a"}}}, scene.ErrUnknownClass},
	}
	for _, tt := range bad {
		t.Run(tt.name, func(t *testing.T) {
			s := scene.New()
			if err := BuildScene(s, tt.spec); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if s.IsBatchProcessing() {
				t.Fatalf("batch left open after error")
			}
		})
	}
}

func TestCameraProjection(t *testing.T) {
	cam := render.NewCamera()
	cam.SetPosition(r3.Vec{Z: 400})
	cam.SetFocalPoint(r3.Vec{})
	cam.SetViewUp(r3.Vec{Y: 1})
	cam.SetParallelProjection(true)
	cam.SetParallelScale(100)
	p := CameraProjection{Camera: cam, Width: 200, Height: 200}

	tests := []struct {
		name string
		x, y float64
		want r3.Vec
	}{
		{"center", 100, 100, r3.Vec{}},
		{"top_right", 150, 50, r3.Vec{X: 50, Y: 50}},
		{"bottom_left", 0, 200, r3.Vec{X: -100, Y: -100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, ok := p.ToWorld(tt.x, tt.y)
			if !ok || !near(w, tt.want) {
				t.Fatalf("ToWorld(%v, %v) = %v, %v", tt.x, tt.y, w, ok)
			}
			x, y, ok := p.ToDisplay(w)
			if !ok || math.Abs(x-tt.x) > 1e-6 || math.Abs(y-tt.y) > 1e-6 {
				t.Fatalf("ToDisplay(%v) = %v, %v", w, x, y)
			}
		})
	}
	if p.PixelsPerUnit() != 1 {
		t.Fatalf("PixelsPerUnit = %v", p.PixelsPerUnit())
	}

	if _, ok := (CameraProjection{Width: 10, Height: 10}).ToWorld(1, 1); ok {
		t.Fatalf("projection without camera should fail")
	}
}

func TestSliceProjection(t *testing.T) {
	slice := scene.NewSliceNode()
	p := SliceProjection{Slice: slice, Width: 256, Height: 256}

	w, ok := p.ToWorld(128, 128)
	if !ok || !near(w, r3.Vec{}) {
		t.Fatalf("center maps to %v", w)
	}
	for _, pt := range []r3.Vec{{X: 10, Y: -20}, {X: -100, Y: 100}} {
		x, y, ok := p.ToDisplay(pt)
		if !ok {
			t.Fatalf("ToDisplay(%v) failed", pt)
		}
		back, _ := p.ToWorld(x, y)
		if !near(back, pt) {
			t.Fatalf("round trip %v -> (%v, %v) -> %v", pt, x, y, back)
		}
	}
	if got, want := p.PixelsPerUnit(), 256.0/250; math.Abs(got-want) > 1e-9 {
		t.Fatalf("PixelsPerUnit = %v, want %v", got, want)
	}
}

func TestTracker(t *testing.T) {
	t0 := time.Unix(0, 0)
	types := func(evs []*interaction.EventData) []string {
		var out []string
		for _, ev := range evs {
			out = append(out, ev.Type.String())
		}
		return out
	}

	var tr Tracker
	steps := []struct {
		name  string
		frame Frame
		want  []string
		check func(t *testing.T, evs []*interaction.EventData)
	}{
		{"enter", Frame{X: 10, Y: 10, Inside: true, Time: t0}, []string{"enter", "mouse_move"}, nil},
		{"still", Frame{X: 10, Y: 10, Inside: true, Time: t0}, nil, nil},
		{"press", Frame{X: 10, Y: 10, Inside: true, Pressed: [3]bool{true}, Time: t0}, []string{"left_press"}, nil},
		{"small_move", Frame{X: 11, Y: 11, Inside: true, Time: t0}, []string{"mouse_move"},
			func(t *testing.T, evs []*interaction.EventData) {
				if evs[0].MouseMovedSinceButtonDown {
					t.Fatalf("jitter counted as a drag")
				}
			}},
		{"drag", Frame{X: 30, Y: 10, Inside: true, Time: t0}, []string{"mouse_move"}, nil},
		{"release", Frame{X: 30, Y: 10, Inside: true, Released: [3]bool{true}, Time: t0}, []string{"left_release"},
			func(t *testing.T, evs []*interaction.EventData) {
				if !evs[0].MouseMovedSinceButtonDown {
					t.Fatalf("release after drag should report movement")
				}
			}},
		{"stray_release", Frame{X: 30, Y: 10, Inside: true, Released: [3]bool{false, false, true}, Time: t0}, nil, nil},
		{"key", Frame{X: 30, Y: 10, Inside: true, KeysPressed: []string{"Delete"}, Modifiers: interaction.ShiftModifier, Time: t0}, []string{"key_press"},
			func(t *testing.T, evs []*interaction.EventData) {
				if evs[0].KeySym != "Delete" || evs[0].RepeatCount != 1 || evs[0].Modifiers != interaction.ShiftModifier {
					t.Fatalf("key event = %+v", *evs[0])
				}
			}},
		{"repeat", Frame{X: 30, Y: 10, Inside: true, KeysPressed: []string{"Delete"}, Time: t0.Add(100 * time.Millisecond)}, []string{"key_press"},
			func(t *testing.T, evs []*interaction.EventData) {
				if evs[0].RepeatCount != 2 {
					t.Fatalf("RepeatCount = %d, want 2", evs[0].RepeatCount)
				}
			}},
		{"no_repeat_after_pause", Frame{X: 30, Y: 10, Inside: true, KeysPressed: []string{"Delete"}, Time: t0.Add(time.Second)}, []string{"key_press"},
			func(t *testing.T, evs []*interaction.EventData) {
				if evs[0].RepeatCount != 1 {
					t.Fatalf("RepeatCount = %d, want 1", evs[0].RepeatCount)
				}
			}},
		{"wheel", Frame{X: 30, Y: 10, Inside: true, Wheel: -1, Time: t0}, []string{"wheel_backward"}, nil},
		{"leave", Frame{X: -5, Y: 10, Inside: false, Time: t0}, []string{"leave"}, nil},
	}
	for _, st := range steps {
		t.Run(st.name, func(t *testing.T) {
			evs := tr.Events(st.frame)
			if diff := cmp.Diff(st.want, types(evs)); diff != "" {
				t.Fatalf("events (-want +got):\n%s", diff)
			}
			if st.check != nil {
				st.check(t, evs)
			}
		})
	}
}

func newTestView(t *testing.T) *View {
	t.Helper()
	spec, err := prefabs.LoadViewSpec()
	if err != nil {
		t.Fatalf("LoadViewSpec: %v", err)
	}
	v, err := NewView(spec)
	if err != nil {
		t.Fatalf("NewView: %v", err)
	}
	if err := v.LoadScene("markers.yaml"); err != nil {
		t.Fatalf("LoadScene: %v", err)
	}
	return v
}

func (v *View) eventAt(t *testing.T, typ interaction.EventType, world r3.Vec) *interaction.EventData {
	t.Helper()
	x, y, ok := v.Projection(v.Renderer).ToDisplay(world)
	if !ok {
		t.Fatalf("cannot project %v", world)
	}
	ev := interaction.NewEvent(typ)
	ev.DisplayPosition = [2]float64{x, y}
	return ev
}

func TestViewLayers(t *testing.T) {
	v := newTestView(t)
	m := v.Manager()
	if got := m.NumberOfPipelines(); got != 3 {
		t.Fatalf("got %d pipelines, want 3", got)
	}

	var orders []int
	for _, l := range v.Layers() {
		orders = append(orders, l.RenderOrder)
	}
	if diff := cmp.Diff([]int{0, 1, 2, 3}, orders); diff != "" {
		t.Fatalf("layer orders (-want +got):\n%s", diff)
	}
	if v.Window.NumberOfLayers() != 4 {
		t.Fatalf("window layers = %d", v.Window.NumberOfLayers())
	}

	report := v.LayerReport()
	for _, want := range []string{"layer 3: order 3", "pipelines markers: 2", "pipelines scripted: 1"} {
		if !strings.Contains(report, want) {
			t.Fatalf("report missing %q:\n%s", want, report)
		}
	}
}

func TestViewDragMarker(t *testing.T) {
	v := newTestView(t)
	landmarks := v.MarkersNodes()[0]
	start := landmarks.Point(0)
	target := r3.Add(start, r3.Vec{X: 30, Y: -10})

	if !v.HandleEvent(v.eventAt(t, interaction.MouseMoveEvent, start)) {
		t.Fatalf("hover over marker not handled")
	}
	if v.MouseCursor() != interaction.CursorPointer {
		t.Fatalf("cursor = %v", v.MouseCursor())
	}
	if !v.HandleEvent(v.eventAt(t, interaction.LeftButtonPressEvent, start)) {
		t.Fatalf("press not handled")
	}
	move := v.eventAt(t, interaction.MouseMoveEvent, target)
	move.MouseMovedSinceButtonDown = true
	v.HandleEvent(move)
	release := v.eventAt(t, interaction.LeftButtonReleaseEvent, target)
	release.MouseMovedSinceButtonDown = true
	v.HandleEvent(release)

	if got := landmarks.Point(0); !near(got, target) {
		t.Fatalf("marker at %v, want %v", got, target)
	}

	v.HandleEvent(interaction.NewEvent(interaction.LeaveEvent))
	if v.Displayable().HasFocus() {
		t.Fatalf("leave did not drop the focus")
	}
}

func TestViewPlace(t *testing.T) {
	v := newTestView(t)
	targets := v.MarkersNodes()[1]
	before := targets.NumberOfPoints()
	v.Selection.StartPlace(targets, false)

	at := r3.Vec{X: -200, Y: -150}
	if !v.HandleEvent(v.eventAt(t, interaction.LeftButtonPressEvent, at)) {
		t.Fatalf("place press not handled")
	}
	if targets.NumberOfPoints() != before+1 || !near(targets.Point(before), at) {
		t.Fatalf("points = %v", targets.Points())
	}
	if v.Selection.IsPlacing() {
		t.Fatalf("single shot place mode still active")
	}
}

func TestViewSliceMode(t *testing.T) {
	v := newTestView(t)
	if err := v.SetSliceMode(true); err != nil {
		t.Fatalf("SetSliceMode: %v", err)
	}
	if v.Manager().ViewNode() != scene.Node(v.SliceNode) {
		t.Fatalf("manager not moved to the slice node")
	}
	if _, ok := v.Projection(nil).(SliceProjection); !ok {
		t.Fatalf("slice mode should project through the slice")
	}
	if v.Manager().NumberOfPipelines() != 3 {
		t.Fatalf("pipelines lost switching views")
	}
	if err := v.SetSliceMode(false); err != nil {
		t.Fatalf("SetSliceMode(false): %v", err)
	}
	if v.Manager().ViewNode() != scene.Node(v.ViewNode) {
		t.Fatalf("manager not moved back to the 3D view")
	}
}

func TestViewSaveLoad(t *testing.T) {
	v := newTestView(t)
	var buf bytes.Buffer
	if err := v.Save(&buf); err != nil {
		t.Fatalf("Save: %v", err)
	}

	s := scene.New()
	RegisterNodes(s)
	s.RegisterNodeClass("Annotation", func() scene.Node { return scene.NewNode("Annotation") })
	if err := s.Load(&buf); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := len(s.NodesByClass(markers.NodeClass)); got != 2 {
		t.Fatalf("loaded %d markers nodes", got)
	}
	if got := len(s.NodesByClass("WidgetEventTranslation")); got != 0 {
		t.Fatalf("translation singleton should not be saved, got %d", got)
	}
}

func TestViewReload(t *testing.T) {
	v := newTestView(t)
	if diff := cmp.Diff([]string{"annotation.tengo"}, v.Scripts()); diff != "" {
		t.Fatalf("scripts (-want +got):\n%s", diff)
	}
	before := v.Renders()
	v.Reload("annotation.tengo", TranslationsFile, "view.yaml", "pipelines.yaml", "markers.yaml")
	if v.Manager().NumberOfPipelines() != 3 {
		t.Fatalf("reload changed the pipelines")
	}
	if v.Renders() == before {
		t.Fatalf("script reload did not redraw")
	}
}
