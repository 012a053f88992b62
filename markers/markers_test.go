package markers

import (
	"testing"

	"github.com/milk9111/layerdm/interaction"
	"github.com/milk9111/layerdm/logic"
	"github.com/milk9111/layerdm/prefabs"
	"github.com/milk9111/layerdm/render"
	"github.com/milk9111/layerdm/scene"
	"github.com/milk9111/layerdm/selection"
	"github.com/milk9111/layerdm/translation"
	"golang.org/x/image/colornames"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"
)

type fixture struct {
	scene    *scene.Scene
	node     *Node
	pipeline *Pipeline
	renderer *render.Renderer
	sel      *selection.Observer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := scene.New()
	s.AddDefaultSingletons()
	n := s.AddNode(NewNodeFromSpec(prefabs.MarkersFieldsSpec{
		Points: [][3]float64{{0, 0, 0}, {20, 0, 0}},
		Radius: 5,
	})).(*Node)

	sel := selection.New()
	sel.SetScene(s)
	p := NewPipeline(n, sel)
	p.SetScene(s)
	p.SetViewNode(scene.NewViewNode())
	p.SetDisplayNode(n)
	r := render.NewRenderer()
	p.SetRenderer(r)
	return &fixture{scene: s, node: n, pipeline: p, renderer: r, sel: sel}
}

func at(t interaction.EventType, x, y float64) *interaction.EventData {
	ev := interaction.NewEvent(t)
	ev.WorldPosition = r3.Vec{X: x, Y: y}
	ev.WorldValid = true
	return ev
}

func key(sym string, x, y float64) *interaction.EventData {
	ev := at(interaction.KeyPressEvent, x, y)
	ev.KeySym = sym
	return ev
}

// send routes ev the way the manager does: only to a pipeline that claims it.
func (f *fixture) send(ev *interaction.EventData) bool {
	if ok, _ := f.pipeline.CanProcessInteractionEvent(ev); !ok {
		return false
	}
	return f.pipeline.ProcessInteractionEvent(ev)
}

func TestPropsFollowPoints(t *testing.T) {
	f := newFixture(t)
	props := f.pipeline.Props()
	if len(props) != 2 {
		t.Fatalf("got %d props, want 2", len(props))
	}
	for i, prop := range props {
		if prop.Center() != f.node.Point(i) || prop.Radius() != 5 {
			t.Fatalf("prop %d at %v r=%v", i, prop.Center(), prop.Radius())
		}
		if !f.renderer.HasViewProp(prop) {
			t.Fatalf("prop %d not in renderer", i)
		}
	}

	f.node.AddPoint(r3.Vec{X: 40})
	if got := len(f.pipeline.Props()); got != 3 {
		t.Fatalf("after AddPoint got %d props", got)
	}

	removed := f.pipeline.Props()[2]
	f.node.RemovePoint(2)
	if f.renderer.HasViewProp(removed) {
		t.Fatalf("removed point's prop still rendered")
	}

	f.pipeline.Detach()
	for _, prop := range f.pipeline.Props() {
		if f.renderer.HasViewProp(prop) {
			t.Fatalf("detached pipeline left props behind")
		}
	}
}

func TestPick(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name string
		x, y float64
		want int
	}{
		{"center_of_first", 0, 0, 0},
		{"edge_of_second", 24, 0, 1},
		{"within_tolerance", 26, 0, 1},
		{"between", 10, 0, -1},
		{"far_away", 100, 100, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, d := f.pipeline.Pick(r3.Vec{X: tt.x, Y: tt.y})
			if got != tt.want {
				t.Fatalf("Pick(%v, %v) = %d, want %d", tt.x, tt.y, got, tt.want)
			}
			if got >= 0 && d < 0 {
				t.Fatalf("negative distance %v", d)
			}
		})
	}
}

func TestHover(t *testing.T) {
	f := newFixture(t)
	if !f.send(at(interaction.MouseMoveEvent, 1, 0)) {
		t.Fatalf("move over point not processed")
	}
	if f.pipeline.Hovered() != 0 || f.pipeline.WidgetState() != interaction.StateOnWidget {
		t.Fatalf("hovered=%d state=%v", f.pipeline.Hovered(), f.pipeline.WidgetState())
	}
	if f.pipeline.MouseCursor() != interaction.CursorPointer {
		t.Fatalf("cursor = %v", f.pipeline.MouseCursor())
	}
	if f.pipeline.Props()[0].Color() != f.node.HoverColor() {
		t.Fatalf("hovered prop not highlighted")
	}

	if ok, _ := f.pipeline.CanProcessInteractionEvent(at(interaction.MouseMoveEvent, 100, 0)); ok {
		t.Fatalf("move over empty space should be refused")
	}

	f.pipeline.LoseFocus(at(interaction.MouseMoveEvent, 100, 0))
	if f.pipeline.Hovered() != -1 || f.pipeline.WidgetState() != interaction.StateIdle {
		t.Fatalf("LoseFocus kept the hover")
	}
	if f.pipeline.Props()[0].Color() != f.node.Color() {
		t.Fatalf("highlight not cleared")
	}
}

func TestDrag(t *testing.T) {
	f := newFixture(t)
	f.send(at(interaction.MouseMoveEvent, 0, 0))
	if !f.send(at(interaction.LeftButtonPressEvent, 0, 0)) {
		t.Fatalf("press not processed")
	}
	if f.pipeline.WidgetState() != interaction.StateTranslate {
		t.Fatalf("state = %v, want translate", f.pipeline.WidgetState())
	}

	move := at(interaction.MouseMoveEvent, 3, 4)
	move.MouseMovedSinceButtonDown = true
	f.send(move)
	if got := f.node.Point(0); got != (r3.Vec{X: 3, Y: 4}) {
		t.Fatalf("point at %v after drag", got)
	}

	release := at(interaction.LeftButtonReleaseEvent, 3, 4)
	release.MouseMovedSinceButtonDown = true
	f.send(release)
	if f.pipeline.WidgetState() != interaction.StateOnWidget {
		t.Fatalf("state = %v after release", f.pipeline.WidgetState())
	}
	if f.pipeline.Selected(0) {
		t.Fatalf("drag should not toggle selection")
	}
}

func TestClickSelects(t *testing.T) {
	f := newFixture(t)
	f.send(at(interaction.MouseMoveEvent, 20, 0))
	f.send(at(interaction.LeftButtonPressEvent, 20, 0))
	f.send(at(interaction.LeftButtonReleaseEvent, 20, 0))
	if !f.pipeline.Selected(1) {
		t.Fatalf("click did not select")
	}
	f.send(at(interaction.LeftButtonPressEvent, 20, 0))
	f.send(at(interaction.LeftButtonReleaseEvent, 20, 0))
	if f.pipeline.Selected(1) {
		t.Fatalf("second click did not deselect")
	}
}

func TestCancelRestores(t *testing.T) {
	f := newFixture(t)
	f.send(at(interaction.MouseMoveEvent, 20, 0))
	f.send(at(interaction.LeftButtonPressEvent, 20, 0))
	f.send(at(interaction.MouseMoveEvent, 30, 10))
	if !f.send(key("Escape", 30, 10)) {
		t.Fatalf("escape not processed")
	}
	if got := f.node.Point(1); got != (r3.Vec{X: 20}) {
		t.Fatalf("cancel left point at %v", got)
	}
	if f.pipeline.WidgetState() != interaction.StateOnWidget {
		t.Fatalf("state = %v after cancel", f.pipeline.WidgetState())
	}
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	f.send(at(interaction.MouseMoveEvent, 20, 0))
	f.send(at(interaction.LeftButtonPressEvent, 20, 0))
	f.send(at(interaction.LeftButtonReleaseEvent, 20, 0))

	f.send(at(interaction.MouseMoveEvent, 0, 0))
	if !f.send(key("Delete", 0, 0)) {
		t.Fatalf("delete not processed")
	}
	if f.node.NumberOfPoints() != 1 || f.node.Point(0) != (r3.Vec{X: 20}) {
		t.Fatalf("points after delete: %v", f.node.Points())
	}
	if !f.pipeline.Selected(0) {
		t.Fatalf("selection did not shift down with the remaining point")
	}
}

func TestLockedRefusesEverything(t *testing.T) {
	f := newFixture(t)
	f.node.SetLocked(true)
	if ok, _ := f.pipeline.CanProcessInteractionEvent(at(interaction.MouseMoveEvent, 0, 0)); ok {
		t.Fatalf("locked node accepted input")
	}
}

func TestPlace(t *testing.T) {
	tests := []struct {
		name       string
		persistent bool
	}{
		{"single_shot", false},
		{"persistent", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.sel.StartPlace(f.node, tt.persistent)
			if f.pipeline.MouseCursor() != interaction.CursorCrosshair {
				t.Fatalf("cursor = %v while placing", f.pipeline.MouseCursor())
			}
			if !f.send(at(interaction.LeftButtonPressEvent, 50, 50)) {
				t.Fatalf("press while placing not processed")
			}
			if f.node.NumberOfPoints() != 3 || f.node.Point(2) != (r3.Vec{X: 50, Y: 50}) {
				t.Fatalf("points = %v", f.node.Points())
			}
			if len(f.pipeline.Props()) != 3 {
				t.Fatalf("new point has no prop")
			}
			if f.sel.IsPlacing() != tt.persistent {
				t.Fatalf("IsPlacing = %v after one point", f.sel.IsPlacing())
			}
		})
	}
}

func TestCreator(t *testing.T) {
	s := scene.New()
	logic.RegisterNodes(s)
	a := s.AddNode(NewNode())
	b := s.AddNode(NewNode())
	c := NewCreator(nil, nil)

	if c.CreatePipeline(nil, scene.NewNode("Other")) != nil {
		t.Fatalf("creator accepted a foreign node")
	}
	if _, ok := c.CreatePipeline(nil, a).(*Pipeline); !ok {
		t.Fatalf("creator refused a markers node")
	}
	c.CreatePipeline(nil, b)

	ta, tb := logic.WidgetEventTranslationNode(a), logic.WidgetEventTranslationNode(b)
	if ta == nil || ta != tb {
		t.Fatalf("nodes should share the default translation singleton")
	}
	if ta.NumberOfTranslations() != DefaultTranslations().NumberOfTranslations() {
		t.Fatalf("singleton has %d translations", ta.NumberOfTranslations())
	}
}

func TestCustomTranslationTable(t *testing.T) {
	f := newFixture(t)
	table := translation.NewNode()
	f.scene.AddNode(table)
	logic.SetWidgetEventTranslationNode(f.node, table)

	// An empty table maps nothing, so even hovering is refused.
	if ok, _ := f.pipeline.CanProcessInteractionEvent(at(interaction.MouseMoveEvent, 0, 0)); ok {
		t.Fatalf("empty table still translated mouse moves")
	}

	table.SetTranslationAnyModifier(interaction.StateAny, interaction.MouseMoveEvent, interaction.WidgetEventMouseMove)
	if !f.send(at(interaction.MouseMoveEvent, 0, 0)) {
		t.Fatalf("table edit not picked up")
	}
}

func TestStateRoundTrip(t *testing.T) {
	n := NewNode()
	n.AddPoint(r3.Vec{X: 1, Y: 2, Z: 3})
	n.SetRadius(7)
	n.SetColor(colornames.Navy)
	n.SetRenderOrder(2)

	st, err := n.MarshalState()
	if err != nil {
		t.Fatalf("MarshalState: %v", err)
	}
	var doc yaml.Node
	b, err := yaml.Marshal(st)
	if err != nil {
		t.Fatalf("yaml.Marshal: %v", err)
	}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		t.Fatalf("yaml.Unmarshal: %v", err)
	}

	got := NewNode()
	if err := got.UnmarshalState(doc.Content[0]); err != nil {
		t.Fatalf("UnmarshalState: %v", err)
	}
	if got.NumberOfPoints() != 1 || got.Point(0) != (r3.Vec{X: 1, Y: 2, Z: 3}) {
		t.Fatalf("points = %v", got.Points())
	}
	if got.Radius() != 7 || got.RenderOrder() != 2 {
		t.Fatalf("radius=%v order=%d", got.Radius(), got.RenderOrder())
	}
	if hex(got.Color()) != hex(colornames.Navy) {
		t.Fatalf("color = %s", hex(got.Color()))
	}
}
