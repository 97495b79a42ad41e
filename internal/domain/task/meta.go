package task

import (
	"math"

	"github.com/andrescamacho/colonysim/internal/domain/agent"
	"github.com/andrescamacho/colonysim/internal/domain/settlement"
	"github.com/andrescamacho/colonysim/internal/domain/world"
)

// Scorer maps an actor and the world to a raw weight. It must not mutate either.
type Scorer func(ctx *world.Context, a agent.Actor) float64

// Factory builds a task for an actor. Construction may end the task immediately.
type Factory func(ctx *world.Context, a agent.Actor) Work

// MetaTask is the stateless descriptor of a task type
type MetaTask struct {
	Name     string
	Activity agent.Activity // favourite activity this task matches
	Jobs     []agent.Job    // jobs the task belongs to; empty fits everyone
	Score    Scorer
	New      Factory
}

// Probability is the final weight of the meta-task for an actor:
// the raw score, times the job-fit and favourite modifiers, plus the learned
// preference bonus, clamped to zero. A raw score of zero stays zero.
func (m *MetaTask) Probability(ctx *world.Context, a agent.Actor) float64 {
	if m.Score == nil {
		return 0
	}
	raw := m.Score(ctx, a)
	if !(raw > 0) || math.IsInf(raw, 0) {
		return 0
	}
	raw *= JobFitModifier(m.Jobs, a.Job())
	raw *= FavoriteModifier(m.Activity, a)
	raw += a.Preferences().Bonus(m.Name)
	return Clamp(raw)
}

// Registry is the immutable, ordered set of meta-tasks
type Registry struct {
	metas []*MetaTask
}

// NewRegistry freezes the given meta-tasks in registration order
func NewRegistry(metas ...*MetaTask) *Registry {
	out := make([]*MetaTask, len(metas))
	copy(out, metas)
	return &Registry{metas: out}
}

// Metas returns the meta-tasks in registration order
func (r *Registry) Metas() []*MetaTask {
	out := make([]*MetaTask, len(r.metas))
	copy(out, r.metas)
	return out
}

// Lookup finds a meta-task by name
func (r *Registry) Lookup(name string) (*MetaTask, bool) {
	for _, m := range r.metas {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

// DefaultRegistry returns the standard self-directed task types.
// Vehicle, walking and loading tasks are assigned by missions, not selected.
func DefaultRegistry() *Registry {
	return NewRegistry(CookMealMeta(), RelaxMeta(), WorkoutMeta())
}

// Modifiers

// MaxWeight caps a single weight so the selector's running sum stays finite
const MaxWeight = 1e9

// Clamp forces a weight into [0, MaxWeight]
func Clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return math.Min(v, MaxWeight)
}

// CrowdingModifier shrinks a score as a building's function approaches capacity:
// (capacity - occupants + 1) / (capacity + 1)
func CrowdingModifier(b *settlement.Building, f settlement.Function) float64 {
	capacity := b.Capacity(f)
	if capacity <= 0 {
		return 0
	}
	return Clamp(float64(capacity-b.OccupantCount(f)+1) / float64(capacity+1))
}

// RelationshipModifier scales by the actor's average opinion of the occupants:
// 1 + (average - 50) / 100, so 0.5 for people they dislike and 1.5 for friends
func RelationshipModifier(a agent.Actor, b *settlement.Building, f settlement.Function) float64 {
	avg := a.Relationships().Average(b.Occupants(f))
	return Clamp(1 + (avg-agent.NeutralOpinion)/100)
}

// PerformanceModifier is the actor's current capability fraction
func PerformanceModifier(a agent.Actor) float64 {
	return Clamp(a.Condition().Performance())
}

// JobFitModifier halves the score when the actor's job is not one the task belongs to
func JobFitModifier(jobs []agent.Job, job agent.Job) float64 {
	if len(jobs) == 0 {
		return 1
	}
	for _, j := range jobs {
		if j == job {
			return 1
		}
	}
	return 0.5
}

// FavoriteModifier doubles the score when the task matches the actor's favourite activity
func FavoriteModifier(activity agent.Activity, a agent.Actor) float64 {
	if activity != agent.ActivityNone && a.Preferences().FavoriteActivity() == activity {
		return 2
	}
	return 1
}
