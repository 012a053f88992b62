// Package scripted builds pipelines from tengo scripts.
//
// A script must define accepts(engine, node). It may also define
// render_order, priority, can_process(engine, event, state),
// process(engine, event, state), lose_focus(engine, event, state) and
// update(engine, node, state). update returns a list of prop maps with the
// keys x, y, z, radius, color, visible and label.
//
// The whole script runs again on every hook call, so top-level code should
// only define values and functions. Runtime failures, VM panics included,
// are reported as errors and treated as a refusal.
package scripted

import (
	"errors"
	"fmt"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
)

var (
	ErrMissingFunction = errors.New("scripted: script does not define accepts")
	ErrBadResult       = errors.New("scripted: unexpected script result")
)

const (
	hookAccepts    = "accepts"
	hookCanProcess = "can_process"
	hookProcess    = "process"
	hookLoseFocus  = "lose_focus"
	hookUpdate     = "update"
)

var hooks = []struct {
	name string
	args string
}{
	{hookAccepts, "__engine, __arg"},
	{hookCanProcess, "__engine, __arg, __state"},
	{hookProcess, "__engine, __arg, __state"},
	{hookLoseFocus, "__engine, __arg, __state"},
	{hookUpdate, "__engine, __arg, __state"},
}

type program struct {
	compiled    *tengo.Compiled
	defined     map[string]bool
	renderOrder int
	priority    int
}

func compile(name string, src []byte) (*program, error) {
	first := tengo.NewScript(src)
	first.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))
	var compiled *tengo.Compiled
	err := guard("load", func() (err error) {
		compiled, err = first.Run()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", name, err)
	}
	if !compiled.IsDefined(hookAccepts) {
		return nil, fmt.Errorf("compile %q: %w", name, ErrMissingFunction)
	}

	p := &program{defined: map[string]bool{}}
	if compiled.IsDefined("render_order") {
		p.renderOrder = compiled.Get("render_order").Int()
	}
	if compiled.IsDefined("priority") {
		p.priority = compiled.Get("priority").Int()
	}

	var b strings.Builder
	b.Write(src)
	b.WriteString("\n__result := undefined\n")
	for _, h := range hooks {
		if !compiled.IsDefined(h.name) {
			continue
		}
		p.defined[h.name] = true
		fmt.Fprintf(&b, "if __phase == %q { __result = %s(%s) }\n", h.name, h.name, h.args)
	}

	script := tengo.NewScript([]byte(b.String()))
	_ = script.Add("__phase", "")
	_ = script.Add("__engine", map[string]any{})
	_ = script.Add("__arg", map[string]any{})
	_ = script.Add("__state", map[string]any{})
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))
	if p.compiled, err = script.Compile(); err != nil {
		return nil, fmt.Errorf("compile %q: %w", name, err)
	}
	return p, nil
}

// call runs hook and returns its result. Hooks the script left out return
// undefined without running.
func (p *program) call(hook string, engine *tengo.ImmutableMap, arg tengo.Object, state *tengo.Map) (*tengo.Variable, error) {
	if !p.defined[hook] {
		return nil, nil
	}
	if err := p.compiled.Set("__phase", hook); err != nil {
		return nil, err
	}
	if err := p.compiled.Set("__engine", engine); err != nil {
		return nil, err
	}
	if err := p.compiled.Set("__arg", arg); err != nil {
		return nil, err
	}
	if state == nil {
		state = &tengo.Map{Value: map[string]tengo.Object{}}
	}
	if err := p.compiled.Set("__state", state); err != nil {
		return nil, err
	}
	if err := guard(hook, p.compiled.Run); err != nil {
		return nil, err
	}
	return p.compiled.Get("__result"), nil
}

// guard runs fn and turns a VM panic, such as an integer divide by zero,
// into an ErrBadResult error.
func guard(phase string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: %w: %v", phase, ErrBadResult, r)
		}
	}()
	if err := fn(); err != nil {
		return fmt.Errorf("%s: %w", phase, err)
	}
	return nil
}

func objectAsString(obj tengo.Object) string {
	if obj == nil {
		return ""
	}
	switch v := obj.(type) {
	case *tengo.String:
		return v.Value
	default:
		return strings.Trim(v.String(), "\"")
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}
