package host

import (
	"math"
	"time"

	"github.com/milk9111/layerdm/interaction"
)

// Button indexes Frame.Pressed and Frame.Released.
type Button int

const (
	LeftButton Button = iota
	MiddleButton
	RightButton
)

var buttonEvents = [3][2]interaction.EventType{
	{interaction.LeftButtonPressEvent, interaction.LeftButtonReleaseEvent},
	{interaction.MiddleButtonPressEvent, interaction.MiddleButtonReleaseEvent},
	{interaction.RightButtonPressEvent, interaction.RightButtonReleaseEvent},
}

const (
	// DragThreshold is how far, in pixels, the cursor travels after a press
	// before the gesture counts as a drag.
	DragThreshold = 3.0
	// RepeatInterval groups presses of the same key into one repeat count.
	RepeatInterval = 400 * time.Millisecond
)

// Frame is the raw input of one tick.
type Frame struct {
	X, Y      float64
	Inside    bool
	Modifiers interaction.Modifier
	Pressed   [3]bool
	Released  [3]bool
	// Wheel is the vertical scroll delta; positive scrolls forward.
	Wheel        float64
	KeysPressed  []string
	KeysReleased []string
	Time         time.Time
}

// Tracker turns frames into interaction events.
type Tracker struct {
	x, y    float64
	inside  bool
	started bool

	down           [3]bool
	pressX, pressY float64
	moved          bool

	lastKey   string
	lastKeyAt time.Time
	repeat    int
}

// Events returns the events for f in the order enter, move, buttons, wheel,
// keys, leave.
func (t *Tracker) Events(f Frame) []*interaction.EventData {
	var out []*interaction.EventData
	emit := func(typ interaction.EventType) *interaction.EventData {
		ev := interaction.NewEvent(typ)
		ev.Modifiers = f.Modifiers
		ev.DisplayPosition = [2]float64{f.X, f.Y}
		ev.MouseMovedSinceButtonDown = t.moved
		out = append(out, ev)
		return ev
	}

	if f.Inside && !t.inside {
		emit(interaction.EnterEvent)
	}

	if t.anyDown() && math.Hypot(f.X-t.pressX, f.Y-t.pressY) > DragThreshold {
		t.moved = true
	}
	if f.Inside && (!t.started || f.X != t.x || f.Y != t.y) {
		emit(interaction.MouseMoveEvent)
	}

	for b := range buttonEvents {
		if f.Pressed[b] && f.Inside {
			if !t.anyDown() {
				t.pressX, t.pressY, t.moved = f.X, f.Y, false
			}
			t.down[b] = true
			emit(buttonEvents[b][0])
		}
	}
	for b := range buttonEvents {
		if f.Released[b] && t.down[b] {
			t.down[b] = false
			emit(buttonEvents[b][1])
		}
	}

	if f.Inside {
		switch {
		case f.Wheel > 0:
			emit(interaction.MouseWheelForwardEvent)
		case f.Wheel < 0:
			emit(interaction.MouseWheelBackwardEvent)
		}
	}

	for _, k := range f.KeysPressed {
		if k == t.lastKey && f.Time.Sub(t.lastKeyAt) <= RepeatInterval {
			t.repeat++
		} else {
			t.repeat = 1
		}
		t.lastKey, t.lastKeyAt = k, f.Time
		ev := emit(interaction.KeyPressEvent)
		ev.KeySym = k
		ev.RepeatCount = t.repeat
	}
	for _, k := range f.KeysReleased {
		ev := emit(interaction.KeyReleaseEvent)
		ev.KeySym = k
	}

	if !f.Inside && t.inside {
		emit(interaction.LeaveEvent)
	}

	t.x, t.y, t.inside, t.started = f.X, f.Y, f.Inside, true
	return out
}

func (t *Tracker) anyDown() bool {
	return t.down[LeftButton] || t.down[MiddleButton] || t.down[RightButton]
}
