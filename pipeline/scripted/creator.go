package scripted

import (
	"fmt"
	"log"
	"slices"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/milk9111/layerdm/observer"
	"github.com/milk9111/layerdm/pipeline"
	"github.com/milk9111/layerdm/prefabs"
	"github.com/milk9111/layerdm/scene"
)

// Creator makes a Pipeline for every node its script accepts. Reloading the
// script emits Modified so factories observing it rebuild their pipelines.
type Creator struct {
	events observer.Subject

	name      string
	prog      *program
	pipelines []*Pipeline
}

// NewCreator compiles src. name is used in errors and log lines.
func NewCreator(name string, src []byte) (*Creator, error) {
	prog, err := compile(name, src)
	if err != nil {
		return nil, err
	}
	return &Creator{name: name, prog: prog}, nil
}

// Load compiles the script name from prefabs/scripts.
func Load(name string) (*Creator, error) {
	src, err := prefabs.LoadScript(name)
	if err != nil {
		return nil, fmt.Errorf("load script %q: %w", name, err)
	}
	return NewCreator(name, src)
}

func (c *Creator) Events() *observer.Subject {
	if c == nil {
		return nil
	}
	return &c.events
}

func (c *Creator) Name() string     { return c.name }
func (c *Creator) Priority() int    { return c.prog.priority }
func (c *Creator) RenderOrder() int { return c.prog.renderOrder }

// Reload recompiles the script. On error the previous program stays active.
func (c *Creator) Reload(src []byte) error {
	prog, err := compile(c.name, src)
	if err != nil {
		return err
	}
	c.prog = prog
	c.events.Modified(c)
	for _, p := range slices.Clone(c.pipelines) {
		p.ResetDisplay()
	}
	return nil
}

// CreatePipeline returns a pipeline when accepts(engine, node) is true.
// Script errors are logged and treated as a refusal.
func (c *Creator) CreatePipeline(view, node scene.Node) pipeline.Pipeline {
	if node == nil {
		return nil
	}
	arg, err := nodeObject(node)
	if err != nil {
		log.Printf("scripted: %s: %v", c.name, err)
		return nil
	}
	res, err := c.prog.call(hookAccepts, c.engine(nil), arg, nil)
	if err != nil {
		log.Printf("scripted: %s: %v", c.name, err)
		return nil
	}
	if res == nil || !res.Bool() {
		return nil
	}
	p := newPipeline(c)
	c.pipelines = append(c.pipelines, p)
	return p
}

// NumberOfPipelines returns how many live pipelines this creator made.
func (c *Creator) NumberOfPipelines() int { return len(c.pipelines) }

func (c *Creator) forget(p *Pipeline) {
	c.pipelines = slices.DeleteFunc(c.pipelines, func(o *Pipeline) bool { return o == p })
}

// engine builds the host functions scripts call through their first argument.
func (c *Creator) engine(p *Pipeline) *tengo.ImmutableMap {
	values := map[string]tengo.Object{}

	values["log"] = &tengo.UserFunction{Name: "log", Value: func(args ...tengo.Object) (tengo.Object, error) {
		parts := make([]string, 0, len(args))
		for _, a := range args {
			parts = append(parts, objectAsString(a))
		}
		log.Printf("scripted: %s: %s", c.name, strings.Join(parts, " "))
		return tengo.UndefinedValue, nil
	}}

	// Redraws wait until the hook returns: the display reset runs update,
	// which cannot start while this script is still running.
	values["request_render"] = &tengo.UserFunction{Name: "request_render", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if p == nil {
			return tengo.FalseValue, nil
		}
		p.dirty = true
		return tengo.TrueValue, nil
	}}

	values["node_pipeline"] = &tengo.UserFunction{Name: "node_pipeline", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if p == nil || len(args) < 1 || p.Scene() == nil {
			return tengo.UndefinedValue, nil
		}
		other := p.NodePipeline(p.Scene().NodeByID(objectAsString(args[0])))
		if other == nil {
			return tengo.UndefinedValue, nil
		}
		return tengo.FromInterface(map[string]any{
			"tag":          other.Tag(),
			"render_order": other.RenderOrder(),
		})
	}}

	return &tengo.ImmutableMap{Value: values}
}
