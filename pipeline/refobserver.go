package pipeline

import (
	"github.com/milk9111/layerdm/observer"
	"github.com/milk9111/layerdm/scene"
)

// Ref is one side of a node reference: the node at the other end and the role.
type Ref struct {
	Node scene.Node
	Role string
}

// ReferenceFunc receives reference changes. ev is scene.ReferenceAddedEvent or
// scene.ReferenceRemovedEvent.
type ReferenceFunc func(from, to scene.Node, role string, ev observer.EventID)

// ReferenceObserver tracks node references across a scene and reports every
// reference that appears or disappears, including those implied by nodes
// entering or leaving the scene.
type ReferenceObserver struct {
	scene    *scene.Scene
	obs      *observer.Observer
	nodes    map[scene.Node]bool
	refsTo   map[scene.Node][]Ref
	refsFrom map[scene.Node][]Ref
	callback ReferenceFunc
}

func NewReferenceObserver() *ReferenceObserver {
	o := &ReferenceObserver{
		nodes:    map[scene.Node]bool{},
		refsTo:   map[scene.Node][]Ref{},
		refsFrom: map[scene.Node][]Ref{},
	}
	o.obs = observer.New(o.onEvent)
	return o
}

// SetCallback sets the change callback. Set it before SetScene to be told
// about references already in the scene.
func (o *ReferenceObserver) SetCallback(fn ReferenceFunc) { o.callback = fn }

// SetScene switches scenes, reporting removals for nodes that left and
// additions for nodes that are new.
func (o *ReferenceObserver) SetScene(s *scene.Scene) {
	if o.scene == s {
		return
	}
	var prev observer.Observable
	if o.scene != nil {
		prev = o.scene
	}
	if s != nil {
		o.obs.UpdateObserver(prev, s, scene.NodeAddedEvent, scene.NodeRemovedEvent)
	} else {
		o.obs.RemoveObserver(prev)
	}
	o.scene = s
	o.updateFromScene()
}

// ReferencesFrom returns what n references.
func (o *ReferenceObserver) ReferencesFrom(n scene.Node) []Ref {
	return append([]Ref(nil), o.refsTo[n]...)
}

// ReferencesTo returns who references n.
func (o *ReferenceObserver) ReferencesTo(n scene.Node) []Ref {
	return append([]Ref(nil), o.refsFrom[n]...)
}

func (o *ReferenceObserver) NumberOfNodes() int { return len(o.nodes) }

// NumberOfReferencing returns how many nodes hold at least one reference.
func (o *ReferenceObserver) NumberOfReferencing() int { return len(o.refsTo) }

// NumberOfReferenced returns how many nodes are the target of a reference.
func (o *ReferenceObserver) NumberOfReferenced() int { return len(o.refsFrom) }

func (o *ReferenceObserver) onEvent(ev observer.Event) {
	if o.scene != nil && ev.Source == observer.Observable(o.scene) {
		n, ok := observer.DataAs[scene.Node](ev)
		if !ok {
			return
		}
		switch ev.ID {
		case scene.NodeAddedEvent:
			o.nodeAdded(n)
		case scene.NodeRemovedEvent:
			o.nodeRemoved(n)
		}
		return
	}

	from, ok := ev.Source.(scene.Node)
	if !ok {
		return
	}
	ref, ok := observer.DataAs[scene.Reference](ev)
	if !ok {
		return
	}
	switch ev.ID {
	case scene.ReferenceAddedEvent:
		o.referenceAdded(from, o.resolve(ref.ID), ref.Role)
	case scene.ReferenceRemovedEvent:
		o.referenceRemoved(from, o.tracked(from, ref), ref.Role)
	case scene.ReferenceModifiedEvent:
		o.removeOutdated(from)
		o.referenceAdded(from, o.resolve(ref.ID), ref.Role)
	}
}

func (o *ReferenceObserver) updateFromScene() {
	current := map[scene.Node]bool{}
	for _, n := range o.scene.Nodes() {
		current[n] = true
	}
	for n := range o.nodes {
		if !current[n] {
			o.nodeRemoved(n)
		}
	}
	for _, n := range o.scene.Nodes() {
		if !o.nodes[n] {
			o.nodeAdded(n)
		}
	}
}

func (o *ReferenceObserver) nodeAdded(n scene.Node) {
	o.nodes[n] = true
	o.obs.UpdateObserver(nil, n, scene.ReferenceAddedEvent, scene.ReferenceRemovedEvent, scene.ReferenceModifiedEvent)
	for _, ref := range n.Base().References() {
		o.referenceAdded(n, o.resolve(ref.ID), ref.Role)
	}
	// References written before n joined the scene resolve now.
	id := n.Base().ID()
	for _, m := range o.scene.Nodes() {
		if m == n || !o.nodes[m] {
			continue
		}
		for _, ref := range m.Base().References() {
			if ref.ID == id && o.tracked(m, ref) == nil {
				o.referenceAdded(m, n, ref.Role)
			}
		}
	}
}

func (o *ReferenceObserver) nodeRemoved(n scene.Node) {
	for _, ref := range o.ReferencesFrom(n) {
		o.referenceRemoved(n, ref.Node, ref.Role)
	}
	o.obs.RemoveObserver(n)
	delete(o.nodes, n)
	delete(o.refsTo, n)
	delete(o.refsFrom, n)
}

func (o *ReferenceObserver) referenceAdded(from, to scene.Node, role string) {
	if from == nil || to == nil {
		return
	}
	o.refsTo[from] = appendRef(o.refsTo[from], Ref{Node: to, Role: role})
	o.refsFrom[to] = appendRef(o.refsFrom[to], Ref{Node: from, Role: role})
	o.trigger(from, to, role, scene.ReferenceAddedEvent)
}

func (o *ReferenceObserver) referenceRemoved(from, to scene.Node, role string) {
	if from == nil || to == nil {
		return
	}
	o.refsTo[from] = dropRef(o.refsTo[from], Ref{Node: to, Role: role})
	if len(o.refsTo[from]) == 0 {
		delete(o.refsTo, from)
	}
	o.refsFrom[to] = dropRef(o.refsFrom[to], Ref{Node: from, Role: role})
	if len(o.refsFrom[to]) == 0 {
		delete(o.refsFrom, to)
	}
	o.trigger(from, to, role, scene.ReferenceRemovedEvent)
}

// removeOutdated drops tracked references from n that n no longer holds.
func (o *ReferenceObserver) removeOutdated(from scene.Node) {
	held := map[scene.Reference]bool{}
	for _, ref := range from.Base().References() {
		held[ref] = true
	}
	for _, ref := range o.ReferencesFrom(from) {
		if !held[scene.Reference{Role: ref.Role, ID: ref.Node.Base().ID()}] {
			o.referenceRemoved(from, ref.Node, ref.Role)
		}
	}
}

// tracked finds the node behind ref among from's known references. The target
// may already be gone from the scene.
func (o *ReferenceObserver) tracked(from scene.Node, ref scene.Reference) scene.Node {
	for _, r := range o.refsTo[from] {
		if r.Role == ref.Role && r.Node.Base().ID() == ref.ID {
			return r.Node
		}
	}
	return nil
}

func (o *ReferenceObserver) resolve(id string) scene.Node {
	return o.scene.NodeByID(id)
}

func (o *ReferenceObserver) trigger(from, to scene.Node, role string, ev observer.EventID) {
	if o.callback != nil {
		o.callback(from, to, role, ev)
	}
}

func appendRef(refs []Ref, r Ref) []Ref {
	for _, existing := range refs {
		if existing == r {
			return refs
		}
	}
	return append(refs, r)
}

func dropRef(refs []Ref, r Ref) []Ref {
	for i, existing := range refs {
		if existing == r {
			return append(refs[:i], refs[i+1:]...)
		}
	}
	return refs
}
