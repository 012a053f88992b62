package translation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/milk9111/layerdm/interaction"
	"github.com/milk9111/layerdm/prefabs"
	"gopkg.in/yaml.v3"
)

var ErrMalformedEntry = errors.New("translation: malformed entry")

// String renders the table as
// "widgetState=..,eventId=..,modifier=..,repeatCount=..,keySym=..,widgetEvent=..;" per entry.
func (t *Table) String() string {
	var b strings.Builder
	for _, e := range t.Entries() {
		fmt.Fprintf(&b, "widgetState=%d,eventId=%d,modifier=%d,repeatCount=%d,keySym=%s,widgetEvent=%d;",
			e.State, e.Event, e.Modifiers, e.RepeatCount, e.KeySym, e.WidgetEvent)
	}
	return b.String()
}

// ParseEntries reads the String form. Malformed entries are skipped and
// reported together in the returned error; the valid ones are still returned.
func ParseEntries(s string) ([]Entry, error) {
	var (
		out  []Entry
		errs []error
	)
	for _, chunk := range strings.Split(s, ";") {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		e, err := parseEntry(chunk)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, e)
	}
	return out, errors.Join(errs...)
}

func parseEntry(chunk string) (Entry, error) {
	e := Entry{RepeatCount: 1}
	var haveEvent, haveTarget bool
	for _, field := range strings.Split(chunk, ",") {
		name, value, ok := strings.Cut(field, "=")
		if !ok {
			return Entry{}, fmt.Errorf("%w: %q", ErrMalformedEntry, chunk)
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		var err error
		switch name {
		case "widgetState":
			e.State, err = interaction.ParseWidgetState(value)
		case "eventId":
			e.Event, err = interaction.ParseEventType(value)
			haveEvent = err == nil
		case "modifier":
			e.Modifiers, err = interaction.ParseModifier(value)
		case "repeatCount":
			e.RepeatCount, err = strconv.Atoi(value)
		case "keySym":
			e.KeySym = value
		case "widgetEvent":
			e.WidgetEvent, err = interaction.ParseWidgetEvent(value)
			haveTarget = err == nil
		}
		if err != nil {
			return Entry{}, fmt.Errorf("%w: %s: %v", ErrMalformedEntry, name, err)
		}
	}
	if !haveEvent || !haveTarget {
		return Entry{}, fmt.Errorf("%w: %q", ErrMalformedEntry, chunk)
	}
	return e, nil
}

// entrySpec is the YAML form of an Entry, using symbolic names.
type entrySpec struct {
	State       string `yaml:"state"`
	Event       string `yaml:"event"`
	Modifiers   string `yaml:"modifiers,omitempty"`
	RepeatCount int    `yaml:"repeat,omitempty"`
	KeySym      string `yaml:"key,omitempty"`
	WidgetEvent string `yaml:"widget_event"`
}

func (e Entry) MarshalYAML() (any, error) {
	spec := entrySpec{
		State:       e.State.String(),
		Event:       e.Event.String(),
		Modifiers:   e.Modifiers.String(),
		KeySym:      e.KeySym,
		WidgetEvent: e.WidgetEvent.String(),
	}
	if e.RepeatCount > 1 {
		spec.RepeatCount = e.RepeatCount
	}
	return spec, nil
}

func (e *Entry) UnmarshalYAML(value *yaml.Node) error {
	var spec entrySpec
	if err := value.Decode(&spec); err != nil {
		return err
	}
	state, err := interaction.ParseWidgetState(spec.State)
	if err != nil {
		return fmt.Errorf("%w: state: %v", ErrMalformedEntry, err)
	}
	event, err := interaction.ParseEventType(spec.Event)
	if err != nil {
		return fmt.Errorf("%w: event: %v", ErrMalformedEntry, err)
	}
	mods := interaction.AnyModifier
	if spec.Modifiers != "" {
		if mods, err = interaction.ParseModifier(spec.Modifiers); err != nil {
			return fmt.Errorf("%w: modifiers: %v", ErrMalformedEntry, err)
		}
	}
	target, err := interaction.ParseWidgetEvent(spec.WidgetEvent)
	if err != nil {
		return fmt.Errorf("%w: widget_event: %v", ErrMalformedEntry, err)
	}
	*e = Entry{
		State:       state,
		Event:       event,
		Modifiers:   mods,
		RepeatCount: clampRepeat(spec.RepeatCount),
		KeySym:      spec.KeySym,
		WidgetEvent: target,
	}
	return nil
}

func (t *Table) MarshalYAML() (any, error) {
	entries := t.Entries()
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

func (t *Table) UnmarshalYAML(value *yaml.Node) error {
	var entries []Entry
	if err := value.Decode(&entries); err != nil {
		return fmt.Errorf("decode translations: %w", err)
	}
	if t.blocked == nil {
		t.blocked = map[interaction.WidgetEvent]bool{}
	}
	t.Replace(entries)
	return nil
}

// LoadTables reads a prefab file mapping table names to entry lists.
func LoadTables(filename string) (map[string]*Table, error) {
	tables, err := prefabs.LoadSpec[map[string]*Table](filename)
	if err != nil {
		return nil, err
	}
	for name, t := range tables {
		if t == nil {
			tables[name] = NewTable()
		}
	}
	return tables, nil
}
