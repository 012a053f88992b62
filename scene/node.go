package scene

import (
	"github.com/milk9111/layerdm/observer"
)

const (
	ReferenceAddedEvent    observer.EventID = "reference-added"
	ReferenceRemovedEvent  observer.EventID = "reference-removed"
	ReferenceModifiedEvent observer.EventID = "reference-modified"
)

// Node is anything stored in a Scene. Concrete nodes embed *NodeBase.
type Node interface {
	observer.Observable
	Base() *NodeBase
}

// Reference is a role-tagged link from one node to another by ID.
type Reference struct {
	Role string `yaml:"role"`
	ID   string `yaml:"id"`
}

// NodeBase holds the state shared by every node.
type NodeBase struct {
	events observer.Subject
	self   Node
	scene  *Scene

	id            string
	class         string
	name          string
	singletonTag  string
	saveWithScene bool
	attributes    map[string]string
	references    []Reference
}

// NewNodeBase returns the base for self. Concrete constructors pass their own pointer.
func NewNodeBase(self Node, class string) *NodeBase {
	return &NodeBase{self: self, class: class, saveWithScene: true, attributes: map[string]string{}}
}

// NewNode returns a plain node of the given class.
func NewNode(class string) *NodeBase {
	b := NewNodeBase(nil, class)
	b.self = b
	return b
}

func (b *NodeBase) Base() *NodeBase { return b }

func (b *NodeBase) Events() *observer.Subject {
	if b == nil {
		return nil
	}
	return &b.events
}

// Self returns the outer node embedding b.
func (b *NodeBase) Self() Node {
	if b == nil {
		return nil
	}
	return b.self
}

// Modified notifies observers with the outer node as source.
func (b *NodeBase) Modified() { b.events.Modified(b.self) }

// Invoke sends a node event with the outer node as source.
func (b *NodeBase) Invoke(id observer.EventID, data any) { b.events.Invoke(b.self, id, data) }

func (b *NodeBase) ID() string          { return b.id }
func (b *NodeBase) Class() string       { return b.class }
func (b *NodeBase) Name() string        { return b.name }
func (b *NodeBase) SingletonTag() string { return b.singletonTag }
func (b *NodeBase) SaveWithScene() bool { return b.saveWithScene }
func (b *NodeBase) Scene() *Scene       { return b.scene }

func (b *NodeBase) SetName(name string) {
	if b.name == name {
		return
	}
	b.name = name
	b.Modified()
}

// SetSingletonTag marks the node as a per-scene singleton. Must be set before AddNode.
func (b *NodeBase) SetSingletonTag(tag string) { b.singletonTag = tag }

func (b *NodeBase) SetSaveWithScene(save bool) { b.saveWithScene = save }

// Attribute returns the attribute value and whether it is set.
func (b *NodeBase) Attribute(key string) (string, bool) {
	v, ok := b.attributes[key]
	return v, ok
}

// SetAttribute stores a string attribute. An empty value removes it.
func (b *NodeBase) SetAttribute(key, value string) {
	cur, ok := b.attributes[key]
	if value == "" {
		if !ok {
			return
		}
		delete(b.attributes, key)
		b.Modified()
		return
	}
	if ok && cur == value {
		return
	}
	b.attributes[key] = value
	b.Modified()
}

// Attributes returns a copy of every attribute.
func (b *NodeBase) Attributes() map[string]string {
	out := make(map[string]string, len(b.attributes))
	for k, v := range b.attributes {
		out[k] = v
	}
	return out
}

// References returns a copy of every reference in insertion order.
func (b *NodeBase) References() []Reference {
	return append([]Reference(nil), b.references...)
}

// ReferenceRoles returns the distinct roles in insertion order.
func (b *NodeBase) ReferenceRoles() []string {
	var roles []string
	seen := map[string]bool{}
	for _, ref := range b.references {
		if !seen[ref.Role] {
			seen[ref.Role] = true
			roles = append(roles, ref.Role)
		}
	}
	return roles
}

// NodeReferenceIDs returns the IDs referenced under role.
func (b *NodeBase) NodeReferenceIDs(role string) []string {
	var ids []string
	for _, ref := range b.references {
		if ref.Role == role {
			ids = append(ids, ref.ID)
		}
	}
	return ids
}

// NodeReferenceID returns the first ID referenced under role, or "".
func (b *NodeBase) NodeReferenceID(role string) string {
	for _, ref := range b.references {
		if ref.Role == role {
			return ref.ID
		}
	}
	return ""
}

// NodeReference resolves the first reference under role through the scene.
func (b *NodeBase) NodeReference(role string) Node {
	if b.scene == nil {
		return nil
	}
	return b.scene.NodeByID(b.NodeReferenceID(role))
}

// SetNodeReferenceID makes id the only reference under role. An empty id removes the role.
func (b *NodeBase) SetNodeReferenceID(role, id string) {
	if id == "" {
		b.RemoveNodeReferenceIDs(role)
		return
	}
	ids := b.NodeReferenceIDs(role)
	if len(ids) == 1 && ids[0] == id {
		return
	}
	if len(ids) == 0 {
		b.AddNodeReferenceID(role, id)
		return
	}
	b.dropRole(role)
	ref := Reference{Role: role, ID: id}
	b.references = append(b.references, ref)
	b.Invoke(ReferenceModifiedEvent, ref)
	b.Modified()
}

// AddNodeReferenceID appends a reference under role.
func (b *NodeBase) AddNodeReferenceID(role, id string) {
	if id == "" {
		return
	}
	ref := Reference{Role: role, ID: id}
	b.references = append(b.references, ref)
	b.Invoke(ReferenceAddedEvent, ref)
	b.Modified()
}

// RemoveNodeReferenceIDs drops every reference under role.
func (b *NodeBase) RemoveNodeReferenceIDs(role string) {
	removed := b.dropRole(role)
	for _, ref := range removed {
		b.Invoke(ReferenceRemovedEvent, ref)
	}
	if len(removed) > 0 {
		b.Modified()
	}
}

// removeReferencesTo drops every reference to id, whatever the role.
func (b *NodeBase) removeReferencesTo(id string) {
	var removed []Reference
	kept := b.references[:0]
	for _, ref := range b.references {
		if ref.ID == id {
			removed = append(removed, ref)
			continue
		}
		kept = append(kept, ref)
	}
	b.references = kept
	for _, ref := range removed {
		b.Invoke(ReferenceRemovedEvent, ref)
	}
	if len(removed) > 0 {
		b.Modified()
	}
}

func (b *NodeBase) dropRole(role string) []Reference {
	var removed []Reference
	kept := b.references[:0]
	for _, ref := range b.references {
		if ref.Role == role {
			removed = append(removed, ref)
			continue
		}
		kept = append(kept, ref)
	}
	b.references = kept
	return removed
}
