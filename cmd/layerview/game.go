package main

import (
	"fmt"
	"image/color"
	"log"
	"time"

	"github.com/ebitenui/ebitenui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/milk9111/layerdm/host"
	"github.com/milk9111/layerdm/interaction"
	"github.com/milk9111/layerdm/prefabs"
	"golang.design/x/clipboard"
)

var cursorShapes = map[interaction.Cursor]ebiten.CursorShapeType{
	interaction.CursorDefault:   ebiten.CursorShapeDefault,
	interaction.CursorPointer:   ebiten.CursorShapePointer,
	interaction.CursorMove:      ebiten.CursorShapeMove,
	interaction.CursorCrosshair: ebiten.CursorShapeCrosshair,
	interaction.CursorText:      ebiten.CursorShapeText,
}

// Game drives a host.View from the ebiten loop.
type Game struct {
	view     *host.View
	tracker  host.Tracker
	watcher  *prefabs.Watcher
	savePath string

	ui    *ebitenui.UI
	panel *LayerPanel

	cursor    interaction.Cursor
	clipboard error
}

func NewGame(view *host.View, savePath string) *Game {
	g := &Game{
		view:      view,
		savePath:  savePath,
		panel:     NewLayerPanel(),
		cursor:    -1,
		clipboard: clipboard.Init(),
	}
	if g.clipboard != nil {
		log.Printf("clipboard unavailable: %v", g.clipboard)
	}
	g.panel.onToggleView = g.toggleView
	g.panel.onCopy = g.copyReport
	g.panel.onSave = g.save
	g.ui = BuildPanelUI(g.panel)
	g.panel.SetLayers(view.Layers(), true)
	return g
}

func (g *Game) Update() error {
	if g.watcher != nil {
		if names := g.watcher.Drain(); len(names) > 0 {
			g.view.Reload(names...)
			g.panel.SetStatus(fmt.Sprintf("reloaded %d file(s)", len(names)))
		}
	}

	g.ui.Update()

	var keys []string
	for _, k := range inpututil.AppendJustPressedKeys(nil) {
		switch k {
		case ebiten.KeyTab:
			g.toggleView()
		case ebiten.KeyC:
			g.copyReport()
		case ebiten.KeyS:
			g.save()
		default:
			keys = append(keys, k.String())
		}
	}
	var released []string
	for _, k := range inpututil.AppendJustReleasedKeys(nil) {
		released = append(released, k.String())
	}

	for _, ev := range g.tracker.Events(g.frame(keys, released)) {
		g.view.HandleEvent(ev)
	}

	if c := g.view.MouseCursor(); c != g.cursor {
		g.cursor = c
		ebiten.SetCursorShape(cursorShapes[c])
	}

	g.panel.SetLayers(g.view.Layers(), false)
	mode := "3D view"
	if g.view.SliceMode() {
		mode = "slice view"
	}
	g.panel.SetMode(fmt.Sprintf("%s, %d renders", mode, g.view.Renders()))
	return nil
}

func (g *Game) frame(keys, released []string) host.Frame {
	mx, my := ebiten.CursorPosition()
	w, h := g.view.Window.Size()
	_, wy := ebiten.Wheel()

	f := host.Frame{
		X:            float64(mx),
		Y:            float64(my),
		Inside:       mx >= 0 && my >= 0 && mx < w-panelWidth && my < h,
		Modifiers:    modifiers(),
		Wheel:        wy,
		KeysPressed:  keys,
		KeysReleased: released,
		Time:         time.Now(),
	}
	buttons := [3]ebiten.MouseButton{ebiten.MouseButtonLeft, ebiten.MouseButtonMiddle, ebiten.MouseButtonRight}
	for i, b := range buttons {
		f.Pressed[i] = inpututil.IsMouseButtonJustPressed(b)
		f.Released[i] = inpututil.IsMouseButtonJustReleased(b)
	}
	return f
}

func modifiers() interaction.Modifier {
	m := interaction.NoModifier
	if ebiten.IsKeyPressed(ebiten.KeyShift) {
		m |= interaction.ShiftModifier
	}
	if ebiten.IsKeyPressed(ebiten.KeyControl) {
		m |= interaction.ControlModifier
	}
	if ebiten.IsKeyPressed(ebiten.KeyAlt) {
		m |= interaction.AltModifier
	}
	return m
}

func (g *Game) toggleView() {
	if err := g.view.SetSliceMode(!g.view.SliceMode()); err != nil {
		log.Printf("switch view: %v", err)
		g.panel.SetStatus("view switch failed")
	}
}

func (g *Game) copyReport() {
	if g.clipboard != nil {
		g.panel.SetStatus("clipboard unavailable")
		return
	}
	clipboard.Write(clipboard.FmtText, []byte(g.view.LayerReport()))
	g.panel.SetStatus("layer report copied")
}

func (g *Game) save() {
	if err := g.view.SaveFile(g.savePath); err != nil {
		log.Printf("save: %v", err)
		g.panel.SetStatus("save failed")
		return
	}
	g.panel.SetStatus("saved " + g.savePath)
}

// Draw composites the renderers of each window layer bottom up.
func (g *Game) Draw(screen *ebiten.Image) {
	win := g.view.Window
	if first := win.FirstRenderer(); first != nil && first.Background() != nil {
		screen.Fill(first.Background())
	}

	for layer := 0; layer < win.NumberOfLayers(); layer++ {
		if g.panel.Hidden(layer) {
			continue
		}
		for _, r := range win.Renderers() {
			if r.Layer() != layer {
				continue
			}
			proj := g.view.Projection(r)
			ppu := proj.PixelsPerUnit()
			lastLabel := ""
			for _, p := range r.ViewProps() {
				if !p.Visible() {
					continue
				}
				x, y, ok := proj.ToDisplay(p.Center())
				if !ok {
					continue
				}
				rad := max(float32(p.Radius()*ppu), 1)
				c := p.Color()
				if c == nil {
					c = color.White
				}
				vector.FillCircle(screen, float32(x), float32(y), rad, c, true)
				if p.Label() != "" && p.Label() != lastLabel {
					ebitenutil.DebugPrintAt(screen, p.Label(), int(x+float64(rad))+4, int(y)-8)
				}
				lastLabel = p.Label()
			}
		}
	}

	g.ui.Draw(screen)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.view.Resize(outsideWidth, outsideHeight)
	return outsideWidth, outsideHeight
}
