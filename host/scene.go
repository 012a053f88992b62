package host

import (
	"errors"
	"fmt"

	"github.com/milk9111/layerdm/logic"
	"github.com/milk9111/layerdm/markers"
	"github.com/milk9111/layerdm/prefabs"
	"github.com/milk9111/layerdm/scene"
)

var ErrUnknownReference = errors.New("host: reference to unknown node")

// RegisterNodes makes every node class the viewer creates loadable in s.
func RegisterNodes(s *scene.Scene) {
	logic.RegisterNodes(s)
	markers.Register(s)
}

// BuildScene adds the nodes of spec to s inside one batch. References name
// other nodes of the same spec. Classes s does not know are registered as
// plain nodes so scripts can pick them up and saved scenes load again.
func BuildScene(s *scene.Scene, spec prefabs.SceneBuildSpec) error {
	s.StartBatch()
	defer s.EndBatch()

	byName := map[string]scene.Node{}
	added := make([]scene.Node, 0, len(spec.Nodes))
	for _, ns := range spec.Nodes {
		n, err := newNode(s, ns)
		if err != nil {
			return fmt.Errorf("build %q: %w", spec.Name, err)
		}
		b := n.Base()
		if ns.Name != "" {
			b.SetName(ns.Name)
		}
		for k, v := range ns.Attributes {
			b.SetAttribute(k, v)
		}
		n = s.AddNode(n)
		added = append(added, n)
		if ns.Name != "" {
			byName[ns.Name] = n
		}
	}

	for i, ns := range spec.Nodes {
		for role, names := range ns.References {
			for _, name := range names {
				target, ok := byName[name]
				if !ok {
					return fmt.Errorf("build %q: %w: %q", spec.Name, ErrUnknownReference, name)
				}
				added[i].Base().AddNodeReferenceID(role, target.Base().ID())
			}
		}
	}
	return nil
}

func newNode(s *scene.Scene, ns prefabs.NodeBuildSpec) (scene.Node, error) {
	switch ns.Class {
	case "":
		return nil, fmt.Errorf("node %q: %w", ns.Name, scene.ErrUnknownClass)
	case markers.NodeClass:
		fields, err := prefabs.DecodeNodeFields[prefabs.MarkersFieldsSpec](ns.Fields)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", ns.Name, err)
		}
		return markers.NewNodeFromSpec(fields), nil
	}
	n, err := s.CreateNodeByClass(ns.Class)
	if errors.Is(err, scene.ErrUnknownClass) {
		class := ns.Class
		s.RegisterNodeClass(class, func() scene.Node { return scene.NewNode(class) })
		return scene.NewNode(class), nil
	}
	return n, err
}
