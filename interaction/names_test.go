package interaction

import "testing"

func TestParseModifier(t *testing.T) {
	cases := []struct {
		in   string
		want Modifier
		err  bool
	}{
		{"any", AnyModifier, false},
		{"none", NoModifier, false},
		{"shift+control", ShiftModifier | ControlModifier, false},
		{" alt ", AltModifier, false},
		{"6", ControlModifier | AltModifier, false},
		{"shift+any", 0, true},
		{"hyper", 0, true},
	}

	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			got, err := ParseModifier(c.in)
			if c.err {
				if err == nil {
					t.Fatalf("expected error for %q", c.in)
				}
				return
			}
			if err != nil || got != c.want {
				t.Fatalf("ParseModifier(%q) = %v, %v; want %v", c.in, got, err, c.want)
			}
		})
	}
}

func TestModifierString(t *testing.T) {
	if got := (ShiftModifier | AltModifier).String(); got != "shift+alt" {
		t.Fatalf("unexpected %q", got)
	}
	m, err := ParseModifier((ShiftModifier | ControlModifier | AltModifier).String())
	if err != nil || m != ShiftModifier|ControlModifier|AltModifier {
		t.Fatalf("combined modifier did not parse back: %v %v", m, err)
	}
}

func TestNamedValues(t *testing.T) {
	if ev, err := ParseWidgetEvent(WidgetEventTranslateStart.String()); err != nil || ev != WidgetEventTranslateStart {
		t.Fatalf("widget event name did not parse back")
	}
	if s, err := ParseWidgetState("on_widget"); err != nil || s != StateOnWidget {
		t.Fatalf("expected on_widget, got %v %v", s, err)
	}
	if ev, err := ParseWidgetEvent("1042"); err != nil || ev != WidgetEventUser+42 {
		t.Fatalf("numeric widget events should parse, got %v %v", ev, err)
	}
	if WidgetEvent(1042).String() != "1042" {
		t.Fatalf("unnamed events render as numbers")
	}
	if _, err := ParseEventType("bogus"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestButtonEventPairs(t *testing.T) {
	cases := []struct {
		press, release, click EventType
	}{
		{LeftButtonPressEvent, LeftButtonReleaseEvent, LeftButtonClickEvent},
		{MiddleButtonPressEvent, MiddleButtonReleaseEvent, MiddleButtonClickEvent},
		{RightButtonPressEvent, RightButtonReleaseEvent, RightButtonClickEvent},
	}
	for _, c := range cases {
		if !c.press.IsButtonPress() || c.press.EndEvent() != c.release || c.release.ClickEvent() != c.click {
			t.Fatalf("bad pairing for %v", c.press)
		}
	}
	if MouseMoveEvent.EndEvent() != NoEvent || KeyPressEvent.ClickEvent() != NoEvent {
		t.Fatalf("non-button events have no pair")
	}
}
