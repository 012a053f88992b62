// Package selection tracks the application-wide interaction and selection
// singletons so pipelines can start and stop node placement without looking
// the singletons up themselves.
package selection

import (
	"github.com/milk9111/layerdm/observer"
	"github.com/milk9111/layerdm/scene"
)

// Observer re-emits Modified whenever the interaction or selection singleton
// changes, and once per StartPlace.
type Observer struct {
	events observer.Subject
	obs    *observer.Observer

	interaction *scene.InteractionNode
	selection   *scene.SelectionNode
}

func New() *Observer {
	o := &Observer{}
	o.obs = observer.New(o.onEvent)
	return o
}

func (o *Observer) Events() *observer.Subject {
	if o == nil {
		return nil
	}
	return &o.events
}

// SetScene picks up the default singletons of s. A scene without them leaves
// both nodes nil.
func (o *Observer) SetScene(s *scene.Scene) {
	interaction, _ := s.SingletonNode(scene.InteractionNodeClass, scene.DefaultSingletonTag).(*scene.InteractionNode)
	selection, _ := s.SingletonNode(scene.SelectionNodeClass, scene.DefaultSingletonTag).(*scene.SelectionNode)
	modified := o.SetInteractionNode(interaction)
	modified = o.SetSelectionNode(selection) || modified
	if modified {
		o.events.Modified(o)
	}
}

// SetInteractionNode observes n in place of the current interaction node.
func (o *Observer) SetInteractionNode(n *scene.InteractionNode) bool {
	if o.interaction == n {
		return false
	}
	o.obs.UpdateObserver(interactionOf(o.interaction), interactionOf(n))
	o.interaction = n
	return true
}

// SetSelectionNode observes n in place of the current selection node.
func (o *Observer) SetSelectionNode(n *scene.SelectionNode) bool {
	if o.selection == n {
		return false
	}
	o.obs.UpdateObserver(selectionOf(o.selection), selectionOf(n))
	o.selection = n
	return true
}

func (o *Observer) InteractionNode() *scene.InteractionNode { return o.interaction }
func (o *Observer) SelectionNode() *scene.SelectionNode     { return o.selection }

// StartPlace makes n the active place node and switches to place mode. The
// node changes are folded into a single Modified.
func (o *Observer) StartPlace(n scene.Node, persistent bool) {
	if n == nil || o.interaction == nil || o.selection == nil {
		return
	}
	func() {
		defer o.obs.Guard()()
		o.selection.SetActivePlaceNodeID(n.Base().ID())
		o.interaction.SetCurrentInteractionMode(scene.Place)
		o.interaction.SetPlaceModePersistence(persistent)
	}()
	o.events.Modified(o)
}

// StopPlace returns to view transform mode.
func (o *Observer) StopPlace() { o.SetInteractionMode(scene.ViewTransform) }

func (o *Observer) SetInteractionMode(m scene.InteractionMode) {
	if o.interaction == nil {
		return
	}
	o.interaction.SetCurrentInteractionMode(m)
}

// CurrentInteractionMode returns 0 without an interaction node.
func (o *Observer) CurrentInteractionMode() scene.InteractionMode {
	if o.interaction == nil {
		return 0
	}
	return o.interaction.CurrentInteractionMode()
}

func (o *Observer) PlaceModePersistence() bool {
	return o.interaction != nil && o.interaction.PlaceModePersistence()
}

func (o *Observer) ActivePlaceNodeID() string {
	if o.selection == nil {
		return ""
	}
	return o.selection.ActivePlaceNodeID()
}

// IsPlacing reports whether place mode is on.
func (o *Observer) IsPlacing() bool {
	return o.CurrentInteractionMode() == scene.Place
}

// IsPlacingNode reports whether place mode is on for n.
func (o *Observer) IsPlacingNode(n scene.Node) bool {
	if n == nil {
		return false
	}
	return o.IsPlacing() && o.ActivePlaceNodeID() == n.Base().ID()
}

func (o *Observer) onEvent(ev observer.Event) {
	if ev.Source == interactionOf(o.interaction) || ev.Source == selectionOf(o.selection) {
		o.events.Modified(o)
	}
}

// interactionOf and selectionOf keep nil node pointers from becoming non-nil
// interface values.
func interactionOf(n *scene.InteractionNode) observer.Observable {
	if n == nil {
		return nil
	}
	return n
}

func selectionOf(n *scene.SelectionNode) observer.Observable {
	if n == nil {
		return nil
	}
	return n
}
