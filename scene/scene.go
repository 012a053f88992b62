package scene

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/milk9111/layerdm/observer"
)

const (
	NodeAddedEvent         observer.EventID = "node-added"
	NodeRemovedEvent       observer.EventID = "node-removed"
	StartBatchProcessEvent observer.EventID = "start-batch-process"
	EndBatchProcessEvent   observer.EventID = "end-batch-process"
	StartCloseEvent        observer.EventID = "start-close"
	EndCloseEvent          observer.EventID = "end-close"
)

var (
	ErrUnknownClass = errors.New("scene: unknown node class")
	ErrNilNode      = errors.New("scene: node is nil")
)

// Scene owns nodes and reports their addition and removal.
type Scene struct {
	events observer.Subject

	uid      uuid.UUID
	nodes    []Node
	byID     map[string]Node
	counters map[string]int
	classes  map[string]func() Node
	batch    int
}

// New returns an empty scene that knows the built-in node classes.
func New() *Scene {
	s := &Scene{
		uid:      uuid.New(),
		byID:     map[string]Node{},
		counters: map[string]int{},
		classes:  map[string]func() Node{},
	}
	s.RegisterNodeClass(ViewNodeClass, func() Node { return NewViewNode() })
	s.RegisterNodeClass(SliceNodeClass, func() Node { return NewSliceNode() })
	s.RegisterNodeClass(InteractionNodeClass, func() Node { return NewInteractionNode() })
	s.RegisterNodeClass(SelectionNodeClass, func() Node { return NewSelectionNode() })
	return s
}

func (s *Scene) Events() *observer.Subject {
	if s == nil {
		return nil
	}
	return &s.events
}

// UID identifies this scene instance. Load adopts the saved UID.
func (s *Scene) UID() uuid.UUID { return s.uid }

// RegisterNodeClass makes class loadable. Later registrations replace earlier ones.
func (s *Scene) RegisterNodeClass(class string, fn func() Node) {
	s.classes[class] = fn
}

// CreateNodeByClass returns a new, unattached node of class.
func (s *Scene) CreateNodeByClass(class string) (Node, error) {
	fn, ok := s.classes[class]
	if !ok {
		return nil, fmt.Errorf("create %q: %w", class, ErrUnknownClass)
	}
	return fn(), nil
}

// AddNode inserts n and emits NodeAddedEvent. For a singleton already present
// the existing node is returned and n is dropped.
func (s *Scene) AddNode(n Node) Node {
	if s == nil || n == nil || n.Base() == nil {
		return nil
	}
	b := n.Base()
	if b.scene == s {
		return n
	}
	if b.singletonTag != "" {
		if existing := s.SingletonNode(b.class, b.singletonTag); existing != nil {
			return existing
		}
		b.id = singletonID(b.class, b.singletonTag)
	} else if b.id == "" || s.byID[b.id] != nil {
		b.id = s.nextID(b.class)
	}
	if b.name == "" {
		b.name = b.id
	}
	b.scene = s
	s.nodes = append(s.nodes, n)
	s.byID[b.id] = n
	s.events.Invoke(s, NodeAddedEvent, n)
	return n
}

// RemoveNode detaches n, drops references to it and emits NodeRemovedEvent.
func (s *Scene) RemoveNode(n Node) {
	if s == nil || n == nil || n.Base() == nil || n.Base().scene != s {
		return
	}
	b := n.Base()
	for i, other := range s.nodes {
		if other == n {
			s.nodes = append(s.nodes[:i], s.nodes[i+1:]...)
			break
		}
	}
	delete(s.byID, b.id)
	for _, other := range s.nodes {
		other.Base().removeReferencesTo(b.id)
	}
	s.events.Invoke(s, NodeRemovedEvent, n)
	b.scene = nil
}

// Clear removes every node that is not a singleton, inside a close bracket.
func (s *Scene) Clear() {
	s.events.Invoke(s, StartCloseEvent, nil)
	s.StartBatch()
	for _, n := range s.Nodes() {
		if n.Base().singletonTag == "" {
			s.RemoveNode(n)
		}
	}
	s.EndBatch()
	s.events.Invoke(s, EndCloseEvent, nil)
}

// NodeByID returns the node with id, or nil.
func (s *Scene) NodeByID(id string) Node {
	if s == nil || id == "" {
		return nil
	}
	return s.byID[id]
}

// Nodes returns every node in insertion order.
func (s *Scene) Nodes() []Node {
	if s == nil {
		return nil
	}
	return append([]Node(nil), s.nodes...)
}

// NodesByClass returns the nodes of class in insertion order.
func (s *Scene) NodesByClass(class string) []Node {
	var out []Node
	for _, n := range s.Nodes() {
		if n.Base().class == class {
			out = append(out, n)
		}
	}
	return out
}

// SingletonNode returns the singleton of class tagged tag, or nil.
func (s *Scene) SingletonNode(class, tag string) Node {
	return s.NodeByID(singletonID(class, tag))
}

func (s *Scene) NumberOfNodes() int {
	if s == nil {
		return 0
	}
	return len(s.nodes)
}

// StartBatch opens a batch bracket. Brackets nest.
func (s *Scene) StartBatch() {
	s.batch++
	if s.batch == 1 {
		s.events.Invoke(s, StartBatchProcessEvent, nil)
	}
}

// EndBatch closes a batch bracket; the outermost close emits EndBatchProcessEvent.
func (s *Scene) EndBatch() {
	if s.batch == 0 {
		return
	}
	s.batch--
	if s.batch == 0 {
		s.events.Invoke(s, EndBatchProcessEvent, nil)
	}
}

func (s *Scene) IsBatchProcessing() bool {
	return s != nil && s.batch > 0
}

// AddDefaultSingletons adds the interaction and selection singletons if missing.
func (s *Scene) AddDefaultSingletons() {
	if s.SingletonNode(InteractionNodeClass, DefaultSingletonTag) == nil {
		n := NewInteractionNode()
		n.SetSingletonTag(DefaultSingletonTag)
		s.AddNode(n)
	}
	if s.SingletonNode(SelectionNodeClass, DefaultSingletonTag) == nil {
		n := NewSelectionNode()
		n.SetSingletonTag(DefaultSingletonTag)
		s.AddNode(n)
	}
}

func (s *Scene) nextID(class string) string {
	for {
		s.counters[class]++
		id := fmt.Sprintf("%s%d", class, s.counters[class])
		if s.byID[id] == nil {
			return id
		}
	}
}

func singletonID(class, tag string) string {
	return class + tag
}
