package interaction

import (
	"fmt"
	"strconv"
	"strings"
)

var eventTypeNames = map[EventType]string{
	NoEvent:                    "none",
	MouseMoveEvent:             "mouse_move",
	LeftButtonPressEvent:       "left_press",
	LeftButtonReleaseEvent:     "left_release",
	MiddleButtonPressEvent:     "middle_press",
	MiddleButtonReleaseEvent:   "middle_release",
	RightButtonPressEvent:      "right_press",
	RightButtonReleaseEvent:    "right_release",
	LeftButtonClickEvent:       "left_click",
	MiddleButtonClickEvent:     "middle_click",
	RightButtonClickEvent:      "right_click",
	LeftButtonDoubleClickEvent: "left_double_click",
	MouseWheelForwardEvent:     "wheel_forward",
	MouseWheelBackwardEvent:    "wheel_backward",
	KeyPressEvent:              "key_press",
	KeyReleaseEvent:            "key_release",
	EnterEvent:                 "enter",
	LeaveEvent:                 "leave",
}

var widgetStateNames = map[WidgetState]string{
	StateAny:       "any",
	StateIdle:      "idle",
	StateOnWidget:  "on_widget",
	StateTranslate: "translate",
	StateRotate:    "rotate",
	StateScale:     "scale",
	StateUser:      "user",
}

var widgetEventNames = map[WidgetEvent]string{
	WidgetEventNone:           "none",
	WidgetEventMouseMove:      "mouse_move",
	WidgetEventSelect:         "select",
	WidgetEventEndSelect:      "end_select",
	WidgetEventTranslate:      "translate",
	WidgetEventTranslateStart: "translate_start",
	WidgetEventTranslateEnd:   "translate_end",
	WidgetEventRotateStart:    "rotate_start",
	WidgetEventRotateEnd:      "rotate_end",
	WidgetEventScaleStart:     "scale_start",
	WidgetEventScaleEnd:       "scale_end",
	WidgetEventPick:           "pick",
	WidgetEventReset:          "reset",
	WidgetEventMenu:           "menu",
	WidgetEventAction:         "action",
	WidgetEventDelete:         "delete",
	WidgetEventCancel:         "cancel",
	WidgetEventUser:           "user",
}

var modifierNames = map[Modifier]string{
	AnyModifier:     "any",
	NoModifier:      "none",
	ShiftModifier:   "shift",
	ControlModifier: "control",
	AltModifier:     "alt",
}

func (t EventType) String() string   { return nameOf(eventTypeNames, t) }
func (s WidgetState) String() string { return nameOf(widgetStateNames, s) }
func (e WidgetEvent) String() string { return nameOf(widgetEventNames, e) }

// String renders single modifiers by name and combinations as "shift+control".
func (m Modifier) String() string {
	if name, ok := modifierNames[m]; ok {
		return name
	}
	if m < 0 {
		return strconv.Itoa(int(m))
	}
	var parts []string
	for _, bit := range []Modifier{ShiftModifier, ControlModifier, AltModifier} {
		if m&bit != 0 {
			parts = append(parts, modifierNames[bit])
			m &^= bit
		}
	}
	if m != 0 {
		parts = append(parts, strconv.Itoa(int(m)))
	}
	return strings.Join(parts, "+")
}

func ParseEventType(s string) (EventType, error)     { return parseName(eventTypeNames, s) }
func ParseWidgetState(s string) (WidgetState, error) { return parseName(widgetStateNames, s) }
func ParseWidgetEvent(s string) (WidgetEvent, error) { return parseName(widgetEventNames, s) }

// ParseModifier accepts a name, a "+" joined list of names, or an integer.
func ParseModifier(s string) (Modifier, error) {
	s = strings.TrimSpace(s)
	if v, err := parseName(modifierNames, s); err == nil {
		return v, nil
	}
	var m Modifier
	for _, part := range strings.Split(s, "+") {
		v, err := parseName(modifierNames, part)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("invalid modifier %q", s)
		}
		m |= v
	}
	return m, nil
}

func nameOf[T ~int](names map[T]string, v T) string {
	if name, ok := names[v]; ok {
		return name
	}
	return strconv.Itoa(int(v))
}

func parseName[T ~int](names map[T]string, s string) (T, error) {
	s = strings.TrimSpace(s)
	for v, name := range names {
		if name == s {
			return v, nil
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("unknown name %q", s)
	}
	return T(n), nil
}
