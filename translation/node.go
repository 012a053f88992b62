package translation

import (
	"fmt"

	"github.com/milk9111/layerdm/scene"
	"gopkg.in/yaml.v3"
)

const NodeClass = "WidgetEventTranslation"

// Node is a scene node that owns a translation table. Any change to the
// table is reported as a Modified event on the node.
type Node struct {
	*scene.NodeBase
	*Table
}

func NewNode() *Node {
	n := &Node{Table: NewTable()}
	n.NodeBase = scene.NewNodeBase(n, NodeClass)
	n.Table.changed = n.NodeBase.Modified
	return n
}

// Register teaches s how to create translation nodes on load.
func Register(s *scene.Scene) {
	s.RegisterNodeClass(NodeClass, func() scene.Node { return NewNode() })
}

func (n *Node) MarshalState() (any, error) {
	return n.Table.MarshalYAML()
}

func (n *Node) UnmarshalState(value *yaml.Node) error {
	var entries []Entry
	if err := value.Decode(&entries); err != nil {
		return fmt.Errorf("translation node: %w", err)
	}
	n.Table.Replace(entries)
	return nil
}
