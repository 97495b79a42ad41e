package task

import (
	"math"

	"github.com/andrescamacho/colonysim/internal/domain/agent"
	"github.com/andrescamacho/colonysim/internal/domain/world"
)

// Weighted pairs a meta-task with its weight for one actor
type Weighted struct {
	Meta   *MetaTask
	Weight float64
}

// Selector picks the next task for an idle actor by weighted random draw
type Selector struct {
	registry *Registry
}

func NewSelector(registry *Registry) *Selector {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Selector{registry: registry}
}

func (s *Selector) Registry() *Registry { return s.registry }

// Weights scores every registered meta-task for the actor, in registration order
func (s *Selector) Weights(ctx *world.Context, a agent.Actor) ([]Weighted, float64) {
	metas := s.registry.Metas()
	out := make([]Weighted, 0, len(metas))
	total := 0.0
	for _, m := range metas {
		w := m.Probability(ctx, a)
		out = append(out, Weighted{Meta: m, Weight: w})
		total += w
	}
	return out, total
}

// Select draws r in [0, total) and walks the weights in registration order until
// the running sum exceeds r. With zero total weight it returns an idle task.
// The second result is the chosen meta-task, nil for idle.
func (s *Selector) Select(ctx *world.Context, a agent.Actor) (Work, *MetaTask) {
	weights, total := s.Weights(ctx, a)
	chosen := draw(weights, total, ctx.Rand.Float64)
	if chosen == nil {
		return NewIdle(ctx, a), nil
	}
	return chosen.New(ctx, a), chosen
}

func draw(weights []Weighted, total float64, float func() float64) *MetaTask {
	if !(total > 0) || math.IsInf(total, 1) {
		return nil
	}
	r := float() * total
	running := 0.0
	var last *MetaTask
	for _, w := range weights {
		if w.Weight <= 0 {
			continue
		}
		running += w.Weight
		last = w.Meta
		if running > r {
			return w.Meta
		}
	}
	return last
}
