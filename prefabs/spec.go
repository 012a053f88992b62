package prefabs

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
	"gopkg.in/yaml.v3"
)

func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}

	return spec, nil
}

// ViewSpec configures the window and the view shown in it.
type ViewSpec struct {
	Title      string     `yaml:"title"`
	Width      int        `yaml:"width"`
	Height     int        `yaml:"height"`
	Background *YAMLColor `yaml:"background"`
	Layout     string     `yaml:"layout"`
	Camera     CameraSpec `yaml:"camera"`
	Slice      SliceSpec  `yaml:"slice"`
	// Renderers are unmanaged renderers added to layer 0 before any pipeline.
	Renderers []RendererSpec `yaml:"renderers"`
}

type CameraSpec struct {
	Position      [3]float64 `yaml:"position"`
	FocalPoint    [3]float64 `yaml:"focal_point"`
	ViewUp        [3]float64 `yaml:"view_up"`
	ViewAngle     float64    `yaml:"view_angle"`
	Parallel      bool       `yaml:"parallel"`
	ParallelScale float64    `yaml:"parallel_scale"`
}

type SliceSpec struct {
	Orientation string     `yaml:"orientation"`
	FieldOfView [3]float64 `yaml:"field_of_view"`
	Dimensions  [3]int     `yaml:"dimensions"`
}

type RendererSpec struct {
	Name        string     `yaml:"name"`
	Background  *YAMLColor `yaml:"background"`
	Interactive bool       `yaml:"interactive"`
}

func LoadViewSpec() (*ViewSpec, error) {
	spec, err := LoadSpec[ViewSpec]("view.yaml")
	if err != nil {
		return nil, err
	}
	return &spec, nil
}

// PipelinesSpec lists the scripted pipeline creators to register.
type PipelinesSpec struct {
	Scripts []ScriptSpec `yaml:"scripts"`
}

type ScriptSpec struct {
	File     string `yaml:"file"`
	Disabled bool   `yaml:"disabled"`
}

func LoadPipelinesSpec() (*PipelinesSpec, error) {
	spec, err := LoadSpec[PipelinesSpec]("pipelines.yaml")
	if err != nil {
		return nil, err
	}
	return &spec, nil
}

// YAMLColor reads "#rrggbb", "#rrggbbaa" or a CSS color name.
type YAMLColor struct {
	color.Color
}

func (c *YAMLColor) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("color must be a string")
	}

	if named, ok := colornames.Map[strings.ToLower(value.Value)]; ok {
		c.Color = named
		return nil
	}

	s := strings.TrimPrefix(value.Value, "#")

	if len(s) != 6 && len(s) != 8 {
		return fmt.Errorf("invalid color format: %s", value.Value)
	}

	parse := func(start int) (uint8, error) {
		v, err := strconv.ParseUint(s[start:start+2], 16, 8)
		return uint8(v), err
	}

	r, err := parse(0)
	if err != nil {
		return err
	}
	g, err := parse(2)
	if err != nil {
		return err
	}
	b, err := parse(4)
	if err != nil {
		return err
	}

	a := uint8(255)
	if len(s) == 8 {
		a, err = parse(6)
		if err != nil {
			return err
		}
	}

	c.Color = color.NRGBA{R: r, G: g, B: b, A: a}
	return nil
}

// Or returns c, or fallback when c is unset.
func (c *YAMLColor) Or(fallback color.Color) color.Color {
	if c == nil || c.Color == nil {
		return fallback
	}
	return c.Color
}
