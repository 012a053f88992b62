package interaction

// WidgetState is a pipeline's interaction state.
type WidgetState int

const (
	// StateAny is the wildcard state in translation tables.
	StateAny WidgetState = iota - 1
	StateIdle
	StateOnWidget
	StateTranslate
	StateRotate
	StateScale
	StateUser WidgetState = 100
)

// WidgetEvent is an abstract application event produced by translation.
type WidgetEvent int

const (
	WidgetEventNone WidgetEvent = iota
	WidgetEventMouseMove
	WidgetEventSelect
	WidgetEventEndSelect
	WidgetEventTranslate
	WidgetEventTranslateStart
	WidgetEventTranslateEnd
	WidgetEventRotateStart
	WidgetEventRotateEnd
	WidgetEventScaleStart
	WidgetEventScaleEnd
	WidgetEventPick
	WidgetEventReset
	WidgetEventMenu
	WidgetEventAction
	WidgetEventDelete
	WidgetEventCancel
	WidgetEventUser WidgetEvent = 1000
)

// Cursor is a mouse cursor shape requested by the focused pipeline.
type Cursor int

const (
	CursorDefault Cursor = iota
	CursorPointer
	CursorMove
	CursorCrosshair
	CursorText
)
