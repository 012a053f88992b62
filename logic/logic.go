// Package logic holds scene-level helpers that attach translation tables to
// nodes.
package logic

import (
	"github.com/milk9111/layerdm/scene"
	"github.com/milk9111/layerdm/translation"
)

const (
	// EventTranslationRole is the reference role from a node to its translation table.
	EventTranslationRole = "widgetEventTranslation"
	// DisplayRole is the reference role from a data node to its display node.
	DisplayRole = "display"
)

// RegisterNodes makes the node classes of this module loadable in s.
func RegisterNodes(s *scene.Scene) {
	if s == nil {
		return
	}
	translation.Register(s)
}

// SetWidgetEventTranslationNode points n at t. A nil t removes the reference.
func SetWidgetEventTranslationNode(n scene.Node, t *translation.Node) {
	if n == nil {
		return
	}
	id := ""
	if t != nil {
		id = t.ID()
	}
	n.Base().SetNodeReferenceID(EventTranslationRole, id)
}

// WidgetEventTranslationNode returns the table n refers to, or nil.
func WidgetEventTranslationNode(n scene.Node) *translation.Node {
	if n == nil {
		return nil
	}
	t, _ := n.Base().NodeReference(EventTranslationRole).(*translation.Node)
	return t
}

// WidgetEventTranslationSingleton returns the translation singleton tagged tag.
// When configure is given, a missing singleton is created and passed to it.
func WidgetEventTranslationSingleton(s *scene.Scene, tag string, configure func(*translation.Node)) *translation.Node {
	t, _ := s.SingletonNode(translation.NodeClass, tag).(*translation.Node)
	if t != nil || configure == nil {
		return t
	}
	t = CreateWidgetEventTranslationSingleton(s, tag)
	if t != nil {
		configure(t)
	}
	return t
}

// CreateWidgetEventTranslationSingleton returns the singleton tagged tag,
// adding it to s first if needed. The node is not saved with the scene.
func CreateWidgetEventTranslationSingleton(s *scene.Scene, tag string) *translation.Node {
	if s == nil {
		return nil
	}
	if t := WidgetEventTranslationSingleton(s, tag, nil); t != nil {
		return t
	}
	t := translation.NewNode()
	t.SetSingletonTag(tag)
	t.SetSaveWithScene(false)
	added, _ := s.AddNode(t).(*translation.Node)
	return added
}

// CreateDefaultEventTranslation gives n the shared translation singleton
// unless it already refers to a table.
func CreateDefaultEventTranslation(n scene.Node, tag string, configure func(*translation.Node)) {
	if n == nil || WidgetEventTranslationNode(n) != nil {
		return
	}
	SetWidgetEventTranslationNode(n, WidgetEventTranslationSingleton(n.Base().Scene(), tag, configure))
}
