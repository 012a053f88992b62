package main

import (
	"bytes"
	"fmt"
	"image/color"
	"slices"

	"github.com/ebitenui/ebitenui"
	"github.com/ebitenui/ebitenui/image"
	"github.com/ebitenui/ebitenui/widget"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/milk9111/layerdm/layers"
	"golang.org/x/image/font/gofont/goregular"
)

const panelWidth = 240

func solidNineSlice(c color.Color) *image.NineSlice {
	return image.NewNineSliceColor(c)
}

func newPanelTheme(fontFace *text.Face) *widget.Theme {
	return &widget.Theme{
		ListTheme: &widget.ListParams{
			EntryFace: fontFace,
			EntryColor: &widget.ListEntryColor{
				Unselected:          color.White,
				Selected:            color.RGBA{255, 224, 102, 255},
				DisabledUnselected:  color.Gray{Y: 128},
				DisabledSelected:    color.Gray{Y: 96},
				SelectingBackground: color.RGBA{60, 70, 90, 255},
				SelectedBackground:  color.RGBA{50, 60, 80, 255},
			},
			ScrollContainerImage: &widget.ScrollContainerImage{
				Idle: solidNineSlice(color.RGBA{30, 32, 38, 255}),
				Mask: solidNineSlice(color.RGBA{30, 32, 38, 255}),
			},
		},
		PanelTheme: &widget.PanelParams{
			BackgroundImage: solidNineSlice(color.RGBA{40, 40, 40, 255}),
		},
		ButtonTheme: &widget.ButtonParams{
			Image: &widget.ButtonImage{
				Idle:    solidNineSlice(color.RGBA{180, 180, 180, 255}),
				Hover:   solidNineSlice(color.RGBA{200, 200, 200, 255}),
				Pressed: solidNineSlice(color.RGBA{160, 160, 160, 255}),
			},
			TextFace: fontFace,
			TextColor: &widget.ButtonTextColor{
				Idle: color.Black,
			},
		},
	}
}

// LayerPanel lists the layers of the view and toggles their visibility.
type LayerPanel struct {
	list    *widget.List
	mode    *widget.Text
	status  *widget.Text
	entries []layers.LayerInfo

	hidden map[int]bool

	onToggleView func()
	onCopy       func()
	onSave       func()
}

// BuildPanelUI returns the UI with the layer panel anchored on the right.
func BuildPanelUI(lp *LayerPanel) *ebitenui.UI {
	ui := &ebitenui.UI{}

	s, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		panic("Failed to load font: " + err.Error())
	}
	var fontFace text.Face = &text.GoTextFace{Source: s, Size: 14}
	ui.PrimaryTheme = newPanelTheme(&fontFace)
	theme := ui.PrimaryTheme

	panel := widget.NewContainer(
		widget.ContainerOpts.WidgetOpts(
			widget.WidgetOpts.MinSize(panelWidth, 400),
		),
		widget.ContainerOpts.BackgroundImage(solidNineSlice(color.RGBA{40, 40, 40, 255})),
		widget.ContainerOpts.Layout(
			widget.NewRowLayout(
				widget.RowLayoutOpts.Direction(widget.DirectionVertical),
				widget.RowLayoutOpts.Spacing(8),
				widget.RowLayoutOpts.Padding(&widget.Insets{Top: 8, Bottom: 8, Left: 8, Right: 8}),
			),
		),
	)

	panel.AddChild(widget.NewLabel(
		widget.LabelOpts.Text("Layers", &fontFace, &widget.LabelColor{Idle: color.White, Disabled: color.Gray{Y: 140}}),
	))

	lp.list = widget.NewList(
		widget.ListOpts.Entries([]any{}),
		widget.ListOpts.EntryLabelFunc(func(e any) string {
			info, ok := e.(layers.LayerInfo)
			if !ok {
				return ""
			}
			return lp.label(info)
		}),
		widget.ListOpts.EntrySelectedHandler(func(args *widget.ListEntrySelectedEventArgs) {}),
	)
	panel.AddChild(lp.list)

	buttons := widget.NewContainer(
		widget.ContainerOpts.Layout(
			widget.NewRowLayout(
				widget.RowLayoutOpts.Direction(widget.DirectionHorizontal),
				widget.RowLayoutOpts.Spacing(6),
			),
		),
	)
	button := func(label string, fn func()) *widget.Button {
		return widget.NewButton(
			widget.ButtonOpts.Image(theme.ButtonTheme.Image),
			widget.ButtonOpts.Text(label, &fontFace, theme.ButtonTheme.TextColor),
			widget.ButtonOpts.ClickedHandler(func(args *widget.ButtonClickedEventArgs) {
				if fn != nil {
					fn()
				}
			}),
		)
	}
	buttons.AddChild(button("Hide", func() {
		if sel, ok := lp.list.SelectedEntry().(layers.LayerInfo); ok {
			lp.hidden[sel.Layer] = !lp.hidden[sel.Layer]
			lp.SetLayers(slices.Clone(lp.entries), true)
		}
	}))
	buttons.AddChild(button("View", func() {
		if lp.onToggleView != nil {
			lp.onToggleView()
		}
	}))
	buttons.AddChild(button("Copy", func() {
		if lp.onCopy != nil {
			lp.onCopy()
		}
	}))
	buttons.AddChild(button("Save", func() {
		if lp.onSave != nil {
			lp.onSave()
		}
	}))
	panel.AddChild(buttons)

	lp.mode = widget.NewText(widget.TextOpts.Text("", &fontFace, color.White))
	panel.AddChild(lp.mode)
	lp.status = widget.NewText(widget.TextOpts.Text("", &fontFace, color.Gray{Y: 180}))
	panel.AddChild(lp.status)
	panel.AddChild(widget.NewText(widget.TextOpts.Text("Tab view  C copy  S save", &fontFace, color.Gray{Y: 140})))

	root := widget.NewContainer(widget.ContainerOpts.Layout(widget.NewAnchorLayout()))
	panel.GetWidget().LayoutData = widget.AnchorLayoutData{
		HorizontalPosition: widget.AnchorLayoutPositionEnd,
		VerticalPosition:   widget.AnchorLayoutPositionStart,
		StretchVertical:    true,
	}
	root.AddChild(panel)
	ui.Container = root
	return ui
}

func NewLayerPanel() *LayerPanel {
	return &LayerPanel{hidden: map[int]bool{}}
}

func (lp *LayerPanel) label(info layers.LayerInfo) string {
	s := fmt.Sprintf("%d. order %d, %d pipelines", info.Layer, info.RenderOrder, info.NumPipelines)
	if !info.Default {
		s += fmt.Sprintf(", cam %d", info.CameraID)
	}
	if lp.hidden[info.Layer] {
		s += " (hidden)"
	}
	return s
}

// SetLayers replaces the list entries when they changed or force is set.
func (lp *LayerPanel) SetLayers(infos []layers.LayerInfo, force bool) {
	if lp == nil || lp.list == nil {
		return
	}
	if !force && slices.Equal(infos, lp.entries) {
		return
	}
	selected := -1
	if sel, ok := lp.list.SelectedEntry().(layers.LayerInfo); ok {
		selected = sel.Layer
	}
	lp.entries = infos
	entries := make([]any, len(infos))
	for i, info := range infos {
		entries[i] = info
	}
	lp.list.SetEntries(entries)
	for _, e := range entries {
		if e.(layers.LayerInfo).Layer == selected {
			lp.list.SetSelectedEntry(e)
		}
	}
}

// Hidden reports whether the renderers of layer are skipped when drawing.
func (lp *LayerPanel) Hidden(layer int) bool { return lp.hidden[layer] }

func (lp *LayerPanel) SetMode(s string) {
	if lp.mode != nil {
		lp.mode.Label = s
	}
}

func (lp *LayerPanel) SetStatus(s string) {
	if lp.status != nil {
		lp.status.Label = s
	}
}
