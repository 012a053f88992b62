package scene

import (
	"fmt"
	"io"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// StateMarshaler is implemented by nodes with class-specific persisted state.
type StateMarshaler interface {
	MarshalState() (any, error)
	UnmarshalState(value *yaml.Node) error
}

type sceneFile struct {
	UID   string     `yaml:"uid"`
	Nodes []nodeSpec `yaml:"nodes"`
}

type nodeSpec struct {
	Class        string            `yaml:"class"`
	ID           string            `yaml:"id"`
	Name         string            `yaml:"name,omitempty"`
	SingletonTag string            `yaml:"singleton_tag,omitempty"`
	Attributes   map[string]string `yaml:"attributes,omitempty"`
	References   []Reference       `yaml:"references,omitempty"`
	State        yaml.Node         `yaml:"state,omitempty"`
}

// Save writes every node marked SaveWithScene as YAML.
func (s *Scene) Save(w io.Writer) error {
	out := sceneFile{UID: s.uid.String()}
	for _, n := range s.nodes {
		b := n.Base()
		if !b.saveWithScene {
			continue
		}
		spec := nodeSpec{
			Class:        b.class,
			ID:           b.id,
			Name:         b.name,
			SingletonTag: b.singletonTag,
			Attributes:   b.Attributes(),
			References:   b.References(),
		}
		if m, ok := n.(StateMarshaler); ok {
			state, err := m.MarshalState()
			if err != nil {
				return fmt.Errorf("save node %q: %w", b.id, err)
			}
			if err := spec.State.Encode(state); err != nil {
				return fmt.Errorf("save node %q: %w", b.id, err)
			}
		}
		out.Nodes = append(out.Nodes, spec)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("save scene: %w", err)
	}
	return enc.Close()
}

// Load clears the scene and imports the nodes from r inside a batch bracket.
func (s *Scene) Load(r io.Reader) error {
	var in sceneFile
	if err := yaml.NewDecoder(r).Decode(&in); err != nil && err != io.EOF {
		return fmt.Errorf("load scene: %w", err)
	}

	nodes := make([]Node, 0, len(in.Nodes))
	for _, spec := range in.Nodes {
		n, err := s.CreateNodeByClass(spec.Class)
		if err != nil {
			return fmt.Errorf("load scene: %w", err)
		}
		b := n.Base()
		b.id = spec.ID
		b.name = spec.Name
		b.singletonTag = spec.SingletonTag
		for k, v := range spec.Attributes {
			b.attributes[k] = v
		}
		b.references = append(b.references, spec.References...)
		if m, ok := n.(StateMarshaler); ok && !spec.State.IsZero() {
			if err := m.UnmarshalState(&spec.State); err != nil {
				return fmt.Errorf("load node %q: %w", spec.ID, err)
			}
		}
		nodes = append(nodes, n)
	}

	s.Clear()
	if id, err := uuid.Parse(in.UID); err == nil {
		s.uid = id
	}
	s.StartBatch()
	for _, n := range nodes {
		s.AddNode(n)
	}
	s.EndBatch()
	return nil
}
