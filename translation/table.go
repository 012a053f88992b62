package translation

import (
	"sort"

	"github.com/milk9111/layerdm/interaction"
)

// Entry is one translation rule.
type Entry struct {
	State       interaction.WidgetState
	Event       interaction.EventType
	Modifiers   interaction.Modifier
	RepeatCount int
	KeySym      string
	WidgetEvent interaction.WidgetEvent
}

type key struct {
	state       interaction.WidgetState
	event       interaction.EventType
	modifiers   interaction.Modifier
	repeatCount int
	keySym      string
}

func (k key) less(o key) bool {
	if k.state != o.state {
		return k.state < o.state
	}
	if k.event != o.event {
		return k.event < o.event
	}
	if k.modifiers != o.modifiers {
		return k.modifiers < o.modifiers
	}
	if k.repeatCount != o.repeatCount {
		return k.repeatCount < o.repeatCount
	}
	return k.keySym < o.keySym
}

func (e Entry) key() key {
	return key{
		state:       e.State,
		event:       e.Event,
		modifiers:   e.Modifiers,
		repeatCount: clampRepeat(e.RepeatCount),
		keySym:      e.KeySym,
	}
}

// clampRepeat keeps repeat counts >= 1; input never reports less.
func clampRepeat(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// Table maps (state, event, modifiers, repeat count, key) to widget events.
type Table struct {
	entries    map[key]interaction.WidgetEvent
	blocked    map[interaction.WidgetEvent]bool
	allBlocked bool

	// changed runs after every mutation of the entries.
	changed func()
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{
		entries: map[key]interaction.WidgetEvent{},
		blocked: map[interaction.WidgetEvent]bool{},
	}
}

// Set registers e, replacing any entry with the same key.
func (t *Table) Set(e Entry) {
	t.entries[e.key()] = e.WidgetEvent
	t.notify()
}

// SetTranslation maps event in state to widgetEvent for the given modifiers.
func (t *Table) SetTranslation(state interaction.WidgetState, event interaction.EventType, widgetEvent interaction.WidgetEvent, modifiers interaction.Modifier) {
	t.Set(Entry{State: state, Event: event, Modifiers: modifiers, WidgetEvent: widgetEvent})
}

// SetTranslationAnyModifier maps event in state to widgetEvent whatever the modifiers.
func (t *Table) SetTranslationAnyModifier(state interaction.WidgetState, event interaction.EventType, widgetEvent interaction.WidgetEvent) {
	t.SetTranslation(state, event, widgetEvent, interaction.AnyModifier)
}

// SetTranslationKeyboard maps a key press of keySym in state to widgetEvent.
func (t *Table) SetTranslationKeyboard(state interaction.WidgetState, keySym string, widgetEvent interaction.WidgetEvent, modifiers interaction.Modifier, repeatCount int) {
	t.Set(Entry{
		State:       state,
		Event:       interaction.KeyPressEvent,
		Modifiers:   modifiers,
		RepeatCount: repeatCount,
		KeySym:      keySym,
		WidgetEvent: widgetEvent,
	})
}

// SetTranslationClickAndDrag registers press -> startEvent in state, then mouse
// move and the matching release in dragState. Release maps to endEvent.
func (t *Table) SetTranslationClickAndDrag(state interaction.WidgetState, press interaction.EventType, dragState interaction.WidgetState, startEvent, endEvent interaction.WidgetEvent, modifiers interaction.Modifier) {
	t.SetTranslation(state, press, startEvent, modifiers)
	t.SetTranslation(dragState, interaction.MouseMoveEvent, interaction.WidgetEventMouseMove, interaction.AnyModifier)
	t.SetTranslation(dragState, press.EndEvent(), endEvent, interaction.AnyModifier)
}

// RemoveTranslationEvent drops every entry targeting widgetEvent and returns how many.
func (t *Table) RemoveTranslationEvent(widgetEvent interaction.WidgetEvent) int {
	removed := 0
	for k, v := range t.entries {
		if v == widgetEvent {
			delete(t.entries, k)
			removed++
		}
	}
	if removed > 0 {
		t.notify()
	}
	return removed
}

// BlockTranslationEvent toggles suppression of widgetEvent and returns the previous state.
func (t *Table) BlockTranslationEvent(widgetEvent interaction.WidgetEvent, blocked bool) bool {
	prev := t.blocked[widgetEvent]
	if blocked {
		t.blocked[widgetEvent] = true
	} else {
		delete(t.blocked, widgetEvent)
	}
	return prev
}

// BlockAllTranslationEvents toggles suppression of every translation and returns the previous state.
func (t *Table) BlockAllTranslationEvents(blocked bool) bool {
	prev := t.allBlocked
	t.allBlocked = blocked
	return prev
}

// IsBlocked reports whether widgetEvent is suppressed.
func (t *Table) IsBlocked(widgetEvent interaction.WidgetEvent) bool {
	return t.allBlocked || t.blocked[widgetEvent]
}

// Clear drops every entry.
func (t *Table) Clear() {
	t.entries = map[key]interaction.WidgetEvent{}
	t.notify()
}

// NumberOfTranslations returns the entry count.
func (t *Table) NumberOfTranslations() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Entries returns every entry ordered by key.
func (t *Table) Entries() []Entry {
	keys := make([]key, 0, len(t.entries))
	for k := range t.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })

	out := make([]Entry, 0, len(keys))
	for _, k := range keys {
		out = append(out, Entry{
			State:       k.state,
			Event:       k.event,
			Modifiers:   k.modifiers,
			RepeatCount: k.repeatCount,
			KeySym:      k.keySym,
			WidgetEvent: t.entries[k],
		})
	}
	return out
}

// Replace swaps the entries for es in one mutation.
func (t *Table) Replace(es []Entry) {
	t.entries = make(map[key]interaction.WidgetEvent, len(es))
	for _, e := range es {
		t.entries[e.key()] = e.WidgetEvent
	}
	t.notify()
}

// CopyFrom replaces the entries with a copy of other's.
func (t *Table) CopyFrom(other *Table) {
	if other == nil {
		return
	}
	t.Replace(other.Entries())
}

// Translate returns the widget event for ev in state, or WidgetEventNone.
func (t *Table) Translate(state interaction.WidgetState, ev *interaction.EventData) interaction.WidgetEvent {
	if t == nil || ev == nil {
		return interaction.WidgetEventNone
	}
	k := key{state: state, event: ev.Type, modifiers: ev.Modifiers, repeatCount: 1}
	if ev.Type == interaction.KeyPressEvent {
		k.repeatCount = clampRepeat(ev.RepeatCount)
		k.keySym = ev.KeySym
	}
	return t.translate(k)
}

// translate walks the candidate keys from most to least specific. A release
// that matches nothing is retried as the matching click. An entry whose
// target is blocked is skipped and the next candidate is tried.
func (t *Table) translate(k key) interaction.WidgetEvent {
	if t.allBlocked {
		return interaction.WidgetEventNone
	}
	events := []interaction.EventType{k.event}
	if click := k.event.ClickEvent(); click != interaction.NoEvent {
		events = append(events, click)
	}
	for _, ev := range events {
		k.event = ev
		anyMod := k
		anyMod.modifiers = interaction.AnyModifier
		anyState := k
		anyState.state = interaction.StateAny
		anyBoth := anyMod
		anyBoth.state = interaction.StateAny

		for _, c := range [...]key{k, anyMod, anyState, anyBoth} {
			if target, ok := t.entries[c]; ok {
				if t.blocked[target] {
					continue
				}
				return target
			}
		}
	}
	return interaction.WidgetEventNone
}

func (t *Table) notify() {
	if t.changed != nil {
		t.changed()
	}
}
