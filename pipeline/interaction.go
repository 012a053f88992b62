package pipeline

import (
	"math"
	"slices"
	"sort"

	"github.com/milk9111/layerdm/interaction"
	"github.com/milk9111/layerdm/scene"
)

// InteractionLogic decides which pipeline handles an input event and tracks
// the pipeline holding focus.
type InteractionLogic struct {
	pipelines  []Pipeline
	canProcess []Pipeline
	focused    Pipeline
	viewNode   scene.Node
}

func NewInteractionLogic() *InteractionLogic {
	return &InteractionLogic{}
}

func (l *InteractionLogic) SetViewNode(n scene.Node) { l.viewNode = n }

// LastFocusedPipeline returns the pipeline that accepted the last event, or nil.
func (l *InteractionLogic) LastFocusedPipeline() Pipeline { return l.focused }

// CanProcessPipelines returns the capable pipelines of the last query,
// highest priority first.
func (l *InteractionLogic) CanProcessPipelines() []Pipeline {
	return append([]Pipeline(nil), l.canProcess...)
}

// AddPipeline registers p once.
func (l *InteractionLogic) AddPipeline(p Pipeline) {
	if p == nil || slices.Contains(l.pipelines, p) {
		return
	}
	l.pipelines = append(l.pipelines, p)
}

// RemovePipeline forgets p, including as the focus holder.
func (l *InteractionLogic) RemovePipeline(p Pipeline) {
	l.pipelines = slices.DeleteFunc(l.pipelines, func(o Pipeline) bool { return o == p })
	l.canProcess = slices.DeleteFunc(l.canProcess, func(o Pipeline) bool { return o == p })
	if l.focused == p {
		l.focused = nil
	}
}

// LoseFocus notifies the focused pipeline and clears the focus.
func (l *InteractionLogic) LoseFocus(ev *interaction.EventData) {
	if l.focused == nil {
		return
	}
	p := l.focused
	l.focused = nil
	p.LoseFocus(ev)
}

// LoseFocusOnLeave drops the focus with a synthetic leave event.
func (l *InteractionLogic) LoseFocusOnLeave() {
	l.LoseFocus(interaction.NewEvent(interaction.LeaveEvent))
}

// CanProcessInteractionEvent polls every pipeline. The returned distance is
// -MaxFloat64 when a capable pipeline is busy past OnWidget, otherwise the
// smallest distance reported. Leave events drop the focus and return false.
func (l *InteractionLogic) CanProcessInteractionEvent(ev *interaction.EventData) (bool, float64) {
	l.canProcess = l.canProcess[:0]
	if ev == nil {
		return false, math.MaxFloat64
	}
	if ev.Type == interaction.LeaveEvent {
		l.LoseFocus(ev)
		return false, math.MaxFloat64
	}

	minDistance, maxState := l.prioritize(ev)
	if !slices.Contains(l.canProcess, l.focused) {
		l.LoseFocus(ev)
	}
	if maxState > interaction.StateOnWidget {
		return len(l.canProcess) > 0, -math.MaxFloat64
	}
	return len(l.canProcess) > 0, minDistance
}

// ProcessInteractionEvent offers ev to the capable pipelines in priority
// order. The first to accept takes the focus.
func (l *InteractionLogic) ProcessInteractionEvent(ev *interaction.EventData) bool {
	for _, p := range l.canProcess {
		if !p.ProcessInteractionEvent(ev) {
			continue
		}
		if p != l.focused {
			l.LoseFocus(ev)
		}
		l.focused = p
		return true
	}
	l.LoseFocus(ev)
	return false
}

type priority struct {
	state    interaction.WidgetState
	order    int
	distance float64
}

func (a priority) greater(b priority) bool {
	if a.state != b.state {
		return a.state > b.state
	}
	if a.order != b.order {
		return a.order > b.order
	}
	return a.distance < b.distance
}

func (l *InteractionLogic) prioritize(ev *interaction.EventData) (float64, interaction.WidgetState) {
	minDistance := math.MaxFloat64
	maxState := interaction.StateOnWidget
	prio := map[Pipeline]priority{}
	for _, p := range l.pipelines {
		ok, distance := p.CanProcessInteractionEvent(ev)
		if !ok {
			continue
		}
		state := max(interaction.StateOnWidget, p.WidgetState())
		minDistance = min(minDistance, distance)
		maxState = max(maxState, state)
		prio[p] = priority{state: state, order: p.RenderOrder(), distance: distance}
		l.canProcess = append(l.canProcess, p)
	}
	sort.SliceStable(l.canProcess, func(i, j int) bool {
		return prio[l.canProcess[i]].greater(prio[l.canProcess[j]])
	})
	return minDistance, maxState
}
