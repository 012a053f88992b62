package pipeline

import (
	"sort"

	"github.com/milk9111/layerdm/observer"
	"github.com/milk9111/layerdm/scene"
)

// PipelineAboutToBeCreatedEvent is emitted by a Factory with a Created payload
// once a creator produced a pipeline and before the manager attaches it.
const PipelineAboutToBeCreatedEvent observer.EventID = "pipeline-about-to-be-created"

// Creator builds a pipeline for a (view, node) pair or returns nil to pass.
// Creators that are also observer.Observable are re-sorted when they emit Modified.
type Creator interface {
	CreatePipeline(view, node scene.Node) Pipeline
	Priority() int
}

// Created describes the last pipeline a factory produced.
type Created struct {
	View     scene.Node
	Node     scene.Node
	Pipeline Pipeline
}

type creatorEntry struct {
	creator Creator
	seq     int
}

// Factory holds the registered creators, highest priority first and
// registration order within a priority.
type Factory struct {
	events   observer.Subject
	obs      *observer.Observer
	creators []creatorEntry
	seq      int
	last     Created
}

func NewFactory() *Factory {
	f := &Factory{}
	f.obs = observer.New(func(observer.Event) { f.sort() })
	return f
}

func (f *Factory) Events() *observer.Subject {
	if f == nil {
		return nil
	}
	return &f.events
}

// AddPipelineCreator registers c once and emits Modified.
func (f *Factory) AddPipelineCreator(c Creator) {
	if c == nil || f.Contains(c) {
		return
	}
	if o, ok := c.(observer.Observable); ok {
		f.obs.UpdateObserver(nil, o)
	}
	f.seq++
	f.creators = append(f.creators, creatorEntry{creator: c, seq: f.seq})
	f.sort()
	f.events.Modified(f)
}

// AddCallback registers fn as a creator with the given priority.
func (f *Factory) AddCallback(fn CreateFunc, priority int) *CallbackCreator {
	c := NewCallbackCreator(fn, priority)
	f.AddPipelineCreator(c)
	return c
}

// RemovePipelineCreator unregisters c. Modified is emitted only if c was registered.
func (f *Factory) RemovePipelineCreator(c Creator) {
	if o, ok := c.(observer.Observable); ok {
		f.obs.RemoveObserver(o)
	}
	for i, e := range f.creators {
		if e.creator == c {
			f.creators = append(f.creators[:i], f.creators[i+1:]...)
			f.events.Modified(f)
			return
		}
	}
}

func (f *Factory) Contains(c Creator) bool {
	for _, e := range f.creators {
		if e.creator == c {
			return true
		}
	}
	return false
}

// Creators returns the creators in the order they are tried.
func (f *Factory) Creators() []Creator {
	out := make([]Creator, len(f.creators))
	for i, e := range f.creators {
		out[i] = e.creator
	}
	return out
}

// CreatePipeline returns the first pipeline a creator produces for (view, node).
func (f *Factory) CreatePipeline(view, node scene.Node) Pipeline {
	if f == nil {
		return nil
	}
	for _, e := range f.creators {
		p := e.creator.CreatePipeline(view, node)
		if p == nil {
			continue
		}
		f.last = Created{View: view, Node: node, Pipeline: p}
		f.events.Invoke(f, PipelineAboutToBeCreatedEvent, f.last)
		return p
	}
	return nil
}

// Last returns the most recent creation.
func (f *Factory) Last() Created { return f.last }

func (f *Factory) sort() {
	sort.SliceStable(f.creators, func(i, j int) bool {
		a, b := f.creators[i], f.creators[j]
		if pa, pb := a.creator.Priority(), b.creator.Priority(); pa != pb {
			return pa > pb
		}
		return a.seq < b.seq
	})
}

// CreateFunc is the signature wrapped by CallbackCreator.
type CreateFunc func(view, node scene.Node) Pipeline

// CallbackCreator adapts a func into a Creator.
type CallbackCreator struct {
	events   observer.Subject
	fn       CreateFunc
	priority int
}

func NewCallbackCreator(fn CreateFunc, priority int) *CallbackCreator {
	return &CallbackCreator{fn: fn, priority: priority}
}

func (c *CallbackCreator) Events() *observer.Subject {
	if c == nil {
		return nil
	}
	return &c.events
}

func (c *CallbackCreator) Priority() int { return c.priority }

// SetPriority changes the priority and emits Modified so factories re-sort.
func (c *CallbackCreator) SetPriority(p int) {
	if c.priority == p {
		return
	}
	c.priority = p
	c.events.Modified(c)
}

func (c *CallbackCreator) CreatePipeline(view, node scene.Node) Pipeline {
	if c.fn == nil {
		return nil
	}
	return c.fn(view, node)
}
