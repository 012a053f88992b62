package scene

import "github.com/milk9111/layerdm/observer"

const (
	InteractionNodeClass = "Interaction"
	SelectionNodeClass   = "Selection"

	// DefaultSingletonTag tags the application-wide interaction and selection nodes.
	DefaultSingletonTag = "Singleton"

	InteractionModeChangedEvent observer.EventID = "interaction-mode-changed"
)

// InteractionMode is the application-wide mouse mode.
type InteractionMode int

const (
	ViewTransform InteractionMode = iota + 1
	Place
	Select
)

// InteractionNode holds the current mouse mode.
type InteractionNode struct {
	*NodeBase
	mode            InteractionMode
	placePersistent bool
}

func NewInteractionNode() *InteractionNode {
	n := &InteractionNode{mode: ViewTransform}
	n.NodeBase = NewNodeBase(n, InteractionNodeClass)
	n.SetSaveWithScene(false)
	return n
}

func (n *InteractionNode) CurrentInteractionMode() InteractionMode { return n.mode }

func (n *InteractionNode) SetCurrentInteractionMode(m InteractionMode) {
	if n.mode == m {
		return
	}
	n.mode = m
	n.Invoke(InteractionModeChangedEvent, m)
	n.Modified()
}

func (n *InteractionNode) PlaceModePersistence() bool { return n.placePersistent }

func (n *InteractionNode) SetPlaceModePersistence(on bool) {
	if n.placePersistent == on {
		return
	}
	n.placePersistent = on
	n.Modified()
}

// SelectionNode records what the place mode will create.
type SelectionNode struct {
	*NodeBase
	activePlaceNodeID    string
	activePlaceNodeClass string
}

func NewSelectionNode() *SelectionNode {
	n := &SelectionNode{}
	n.NodeBase = NewNodeBase(n, SelectionNodeClass)
	n.SetSaveWithScene(false)
	return n
}

func (n *SelectionNode) ActivePlaceNodeID() string    { return n.activePlaceNodeID }
func (n *SelectionNode) ActivePlaceNodeClass() string { return n.activePlaceNodeClass }

func (n *SelectionNode) SetActivePlaceNodeID(id string) {
	if n.activePlaceNodeID == id {
		return
	}
	n.activePlaceNodeID = id
	n.Modified()
}

func (n *SelectionNode) SetActivePlaceNodeClass(class string) {
	if n.activePlaceNodeClass == class {
		return
	}
	n.activePlaceNodeClass = class
	n.Modified()
}
