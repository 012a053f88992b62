package observer

// EventID names a notification kind.
type EventID string

const (
	// Modified is emitted by every observable when its state changes.
	Modified EventID = "modified"
)

// Event is the payload passed to subscribers.
type Event struct {
	Source Observable
	ID     EventID
	Data   any
}

// Handler receives events from a Subject.
type Handler func(Event)

// Observable is implemented by anything that exposes a Subject.
type Observable interface {
	Events() *Subject
}

// DataAs extracts a typed payload from an event.
func DataAs[T any](ev Event) (T, bool) {
	v, ok := ev.Data.(T)
	return v, ok
}

// Subject dispatches events to its subscriptions. The zero value is ready to use.
type Subject struct {
	subs    []*Subscription
	blocked bool
}

// Subscription is a handle owned by the subscriber. Cancel releases it.
type Subscription struct {
	subject *Subject
	target  Observable
	events  []EventID
	fn      Handler
}

// Subscribe registers fn for the given events. No events means every event.
func (s *Subject) Subscribe(target Observable, fn Handler, events ...EventID) *Subscription {
	if s == nil || fn == nil {
		return nil
	}
	sub := &Subscription{
		subject: s,
		target:  target,
		events:  append([]EventID(nil), events...),
		fn:      fn,
	}
	s.subs = append(s.subs, sub)
	return sub
}

// Invoke sends an event to every matching subscription.
// Subscriptions cancelled during dispatch are skipped.
func (s *Subject) Invoke(src Observable, id EventID, data any) {
	if s == nil || s.blocked || len(s.subs) == 0 {
		return
	}
	snapshot := append([]*Subscription(nil), s.subs...)
	ev := Event{Source: src, ID: id, Data: data}
	for _, sub := range snapshot {
		if sub.subject == nil || !sub.matches(id) {
			continue
		}
		sub.fn(ev)
	}
}

// Modified is shorthand for Invoke(src, Modified, nil).
func (s *Subject) Modified(src Observable) {
	s.Invoke(src, Modified, nil)
}

// SetBlocked disables dispatch and returns the previous state.
func (s *Subject) SetBlocked(blocked bool) bool {
	if s == nil {
		return false
	}
	prev := s.blocked
	s.blocked = blocked
	return prev
}

// Blocked reports whether dispatch is disabled.
func (s *Subject) Blocked() bool {
	return s != nil && s.blocked
}

// Block disables dispatch until the returned func is called.
func (s *Subject) Block() func() {
	prev := s.SetBlocked(true)
	return func() { s.SetBlocked(prev) }
}

// Len returns the number of live subscriptions.
func (s *Subject) Len() int {
	if s == nil {
		return 0
	}
	return len(s.subs)
}

func (s *Subject) remove(sub *Subscription) {
	for i, other := range s.subs {
		if other == sub {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return
		}
	}
}

// Cancel detaches the subscription. Safe to call more than once.
func (sub *Subscription) Cancel() {
	if sub == nil || sub.subject == nil {
		return
	}
	sub.subject.remove(sub)
	sub.subject = nil
}

// Active reports whether the subscription still receives events.
func (sub *Subscription) Active() bool {
	return sub != nil && sub.subject != nil
}

// Target returns the observed object.
func (sub *Subscription) Target() Observable {
	if sub == nil {
		return nil
	}
	return sub.target
}

func (sub *Subscription) matches(id EventID) bool {
	if len(sub.events) == 0 {
		return true
	}
	for _, e := range sub.events {
		if e == id {
			return true
		}
	}
	return false
}
