package interaction

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// EventType is a low-level input event.
type EventType int

const (
	NoEvent EventType = iota
	MouseMoveEvent
	LeftButtonPressEvent
	LeftButtonReleaseEvent
	MiddleButtonPressEvent
	MiddleButtonReleaseEvent
	RightButtonPressEvent
	RightButtonReleaseEvent
	LeftButtonClickEvent
	MiddleButtonClickEvent
	RightButtonClickEvent
	LeftButtonDoubleClickEvent
	MouseWheelForwardEvent
	MouseWheelBackwardEvent
	KeyPressEvent
	KeyReleaseEvent
	EnterEvent
	LeaveEvent
)

// Modifier is a keyboard modifier mask.
type Modifier int

const (
	AnyModifier     Modifier = -1
	NoModifier      Modifier = 0
	ShiftModifier   Modifier = 1
	ControlModifier Modifier = 2
	AltModifier     Modifier = 4
)

// EventData is one input event as seen by pipelines.
type EventData struct {
	Type        EventType
	Modifiers   Modifier
	KeySym      string
	RepeatCount int

	// DisplayPosition is in window pixels, origin top-left.
	DisplayPosition [2]float64
	WorldPosition   r3.Vec
	WorldValid      bool

	MouseMovedSinceButtonDown bool
}

// NewEvent returns event data for t with no modifiers.
func NewEvent(t EventType) *EventData {
	return &EventData{Type: t, RepeatCount: 1}
}

// IsButtonPress reports whether t is one of the three button press events.
func (t EventType) IsButtonPress() bool {
	return t == LeftButtonPressEvent || t == MiddleButtonPressEvent || t == RightButtonPressEvent
}

// EndEvent returns the release matching a press, or NoEvent.
func (t EventType) EndEvent() EventType {
	switch t {
	case LeftButtonPressEvent:
		return LeftButtonReleaseEvent
	case MiddleButtonPressEvent:
		return MiddleButtonReleaseEvent
	case RightButtonPressEvent:
		return RightButtonReleaseEvent
	}
	return NoEvent
}

// ClickEvent returns the click matching a release, or NoEvent.
func (t EventType) ClickEvent() EventType {
	switch t {
	case LeftButtonReleaseEvent:
		return LeftButtonClickEvent
	case MiddleButtonReleaseEvent:
		return MiddleButtonClickEvent
	case RightButtonReleaseEvent:
		return RightButtonClickEvent
	}
	return NoEvent
}
