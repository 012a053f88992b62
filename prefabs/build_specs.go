package prefabs

import "gopkg.in/yaml.v3"

// SceneBuildSpec lists the nodes to add to a fresh scene.
type SceneBuildSpec struct {
	Name  string          `yaml:"name"`
	Nodes []NodeBuildSpec `yaml:"nodes"`
}

// NodeBuildSpec describes one node. Fields holds class specific settings
// decoded with DecodeNodeFields.
type NodeBuildSpec struct {
	Class      string            `yaml:"class"`
	Name       string            `yaml:"name"`
	Attributes map[string]string `yaml:"attributes"`
	// References map a role to node names from the same spec.
	References map[string][]string `yaml:"references"`
	Fields     map[string]any      `yaml:"fields"`
}

func LoadSceneBuildSpec(filename string) (SceneBuildSpec, error) {
	return LoadSpec[SceneBuildSpec](filename)
}

func DecodeNodeFields[T any](raw any) (T, error) {
	var zero T
	if raw == nil {
		return zero, nil
	}
	b, err := yaml.Marshal(raw)
	if err != nil {
		return zero, err
	}
	var out T
	if err := yaml.Unmarshal(b, &out); err != nil {
		return zero, err
	}
	return out, nil
}

// MarkersFieldsSpec is the Fields block of a markers node.
type MarkersFieldsSpec struct {
	Points      [][3]float64 `yaml:"points"`
	Radius      float64      `yaml:"radius"`
	Color       *YAMLColor   `yaml:"color"`
	HoverColor  *YAMLColor   `yaml:"hover_color"`
	RenderOrder int          `yaml:"render_order"`
	Locked      bool         `yaml:"locked"`
}
