package observer

// Observer is a single callback endpoint observing any number of objects.
type Observer struct {
	callback Handler
	links    map[Observable]*Subscription
	blocked  bool
}

// New returns an observer calling fn for every observed event.
func New(fn Handler) *Observer {
	return &Observer{callback: fn, links: map[Observable]*Subscription{}}
}

// SetCallback replaces the update callback.
func (o *Observer) SetCallback(fn Handler) {
	if o == nil {
		return
	}
	o.callback = fn
}

// UpdateObserver stops observing prev and starts observing next for events
// (Modified when none are given). Returns false when prev and next are the same.
// prev is not touched; callers update their own cached reference.
func (o *Observer) UpdateObserver(prev, next Observable, events ...EventID) bool {
	if o == nil || prev == next {
		return false
	}
	old := o.Rebind(prev, next, events...)
	old.Cancel()
	return true
}

// Rebind moves the observer from prev to next and returns the handle that was
// observing prev. The caller disposes of it with Cancel.
func (o *Observer) Rebind(prev, next Observable, events ...EventID) *Subscription {
	if o == nil {
		return nil
	}
	if o.links == nil {
		o.links = map[Observable]*Subscription{}
	}
	var old *Subscription
	if valid(prev) {
		old = o.links[prev]
		delete(o.links, prev)
	}
	if !valid(next) {
		return old
	}
	if len(events) == 0 {
		events = []EventID{Modified}
	}
	if existing, ok := o.links[next]; ok {
		existing.Cancel()
	}
	o.links[next] = next.Events().Subscribe(next, o.dispatch, events...)
	return old
}

// RemoveObserver stops observing obj. Unknown objects are ignored.
func (o *Observer) RemoveObserver(obj Observable) {
	if o == nil || obj == nil {
		return
	}
	if sub, ok := o.links[obj]; ok {
		sub.Cancel()
		delete(o.links, obj)
	}
}

// RemoveAll drops every link.
func (o *Observer) RemoveAll() {
	if o == nil {
		return
	}
	for obj, sub := range o.links {
		sub.Cancel()
		delete(o.links, obj)
	}
}

// IsObserving reports whether obj is currently linked.
func (o *Observer) IsObserving(obj Observable) bool {
	if o == nil || obj == nil {
		return false
	}
	_, ok := o.links[obj]
	return ok
}

// SetBlocked mutes the callback and returns the previous state.
func (o *Observer) SetBlocked(blocked bool) bool {
	if o == nil {
		return false
	}
	prev := o.blocked
	o.blocked = blocked
	return prev
}

// Guard mutes the callback until the returned func is called.
func (o *Observer) Guard() func() {
	prev := o.SetBlocked(true)
	return func() { o.SetBlocked(prev) }
}

func (o *Observer) dispatch(ev Event) {
	if o.blocked || o.callback == nil {
		return
	}
	o.callback(ev)
}

func valid(obj Observable) bool {
	return obj != nil && obj.Events() != nil
}
