package task

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/andrescamacho/colonysim/internal/domain/agent"
	"github.com/andrescamacho/colonysim/internal/domain/event"
	"github.com/andrescamacho/colonysim/internal/domain/shared"
	"github.com/andrescamacho/colonysim/internal/domain/world"
)

// EventProducer is the event queue name tasks publish on
const EventProducer = "tasks"

// preferenceReward is the learned bonus added when a task completes its work
const preferenceReward = 0.1

// Work is a task as held by an actor and driven by the engine
type Work interface {
	agent.Work
	ID() string
	Phase() Phase
	Perform(budget float64) (float64, error)
	End(reason string)
	EndReason() string
	Base() *Task
}

// Snapshot is the persisted view of a task
type Snapshot struct {
	ID       string
	Name     string
	ActorID  string
	Phase    Phase
	Effort   float64
	Ended    bool
	Reason   string
	Counters map[string]float64
}

// Task is the resumable multi-phase state machine every task type builds on.
//
// States:
// - not started: no phase set (constructor still checking preconditions)
// - working: one of the declared phases is active
// - ended: terminal, with a reason
//
// Invariants:
// - Phases must be declared before they are activated
// - Once ended a task never runs again
// - Cleanup hooks run exactly once, in reverse registration order, before End returns
type Task struct {
	mu sync.Mutex

	id    string
	name  string
	actor agent.Actor
	ctx   *world.Context

	handlers map[Phase]PhaseHandler
	phases   []Phase
	phase    Phase

	effort    float64
	ended     bool
	completed bool
	reason    string
	cleanup   []func()
	counters  map[string]float64

	skill          agent.SkillType
	stressModifier float64 // stress change per millisol worked
}

// NewTask creates a task in the not-started state
func NewTask(ctx *world.Context, actor agent.Actor, name string) *Task {
	return &Task{
		id:       uuid.New().String(),
		name:     name,
		actor:    actor,
		ctx:      ctx,
		handlers: make(map[Phase]PhaseHandler),
		counters: make(map[string]float64),
	}
}

// Getters

func (t *Task) ID() string              { return t.id }
func (t *Task) Name() string            { return t.name }
func (t *Task) Actor() agent.Actor      { return t.actor }
func (t *Task) Context() *world.Context { return t.ctx }
func (t *Task) Base() *Task             { return t }
func (t *Task) Skill() agent.SkillType  { return t.skill }
func (t *Task) Phases() []Phase         { return append([]Phase(nil), t.phases...) }

func (t *Task) Phase() Phase {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.phase
}

func (t *Task) Ended() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ended
}

// Completed reports whether the task ended by finishing its work
func (t *Task) Completed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.completed
}

func (t *Task) EndReason() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reason
}

// Effort is the total time spent in phases
func (t *Task) Effort() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.effort
}

// SetSkill names the skill that gains experience and scales accident odds
func (t *Task) SetSkill(s agent.SkillType) { t.skill = s }

// SetStressModifier sets the stress change per millisol worked (negative relaxes)
func (t *Task) SetStressModifier(m float64) { t.stressModifier = m }

// AddPhase declares a phase and its handler
func (t *Task) AddPhase(p Phase, h PhaseHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.handlers[p]; !exists {
		t.phases = append(t.phases, p)
	}
	t.handlers[p] = h
}

// SetPhase activates a declared phase
func (t *Task) SetPhase(p Phase) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.handlers[p]; !ok {
		return shared.NewInvariantViolationError("task",
			fmt.Sprintf("%s: phase %q was never declared", t.name, p))
	}
	t.phase = p
	return nil
}

// OnEnd registers a cleanup hook that releases something the task holds
func (t *Task) OnEnd(f func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cleanup = append(t.cleanup, f)
}

// SetCounter records a task-specific counter for snapshots
func (t *Task) SetCounter(name string, v float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counters[name] = v
}

// Counter returns a task-specific counter
func (t *Task) Counter(name string) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counters[name]
}

// End terminates the task, releasing anything it holds. Calling End again is a no-op.
func (t *Task) End(reason string) {
	t.mu.Lock()
	if t.ended {
		t.mu.Unlock()
		return
	}
	t.ended = true
	t.reason = reason
	hooks := t.cleanup
	t.cleanup = nil
	effort := t.effort
	completed := t.completed
	t.mu.Unlock()

	for i := len(hooks) - 1; i >= 0; i-- {
		hooks[i]()
	}

	if completed {
		t.actor.Preferences().Reinforce(t.name, preferenceReward)
	}

	t.ctx.Logger.Log(shared.LevelInfo, "task ended", map[string]interface{}{
		"task":   t.name,
		"actor":  t.actor.Name(),
		"reason": reason,
		"effort": effort,
	})
	t.ctx.Publish(EventProducer, event.Event{
		Type:       event.TypeTaskEnded,
		Settlement: t.actor.SettlementID(),
		Actor:      t.actor.ID(),
		Message:    fmt.Sprintf("%s ended: %s", t.name, reason),
		Data:       map[string]interface{}{"task": t.name, "reason": reason, "completed": completed},
	})
}

// Complete ends the task as successfully finished
func (t *Task) Complete(reason string) {
	t.mu.Lock()
	if !t.ended {
		t.completed = true
	}
	t.mu.Unlock()
	t.End(reason)
}

// Perform runs the active phase with the given budget, chaining into successor
// phases while budget remains. It returns the unused budget.
//
// Only a missing phase is an error: expected unavailability ends the task instead.
func (t *Task) Perform(budget float64) (float64, error) {
	if budget < 0 {
		budget = 0
	}
	if t.Ended() {
		return budget, nil
	}

	maxChain := t.ctx.Tuning.MaxPhaseChain
	if maxChain <= 0 {
		maxChain = world.DefaultTuning().MaxPhaseChain
	}

	remaining := budget
	for step := 0; step < maxChain; step++ {
		t.mu.Lock()
		phase := t.phase
		handler := t.handlers[phase]
		t.mu.Unlock()

		if phase == "" || handler == nil {
			return remaining, shared.NewInvariantViolationError("task",
				fmt.Sprintf("%s for %s has no active phase", t.name, t.actor.Name()))
		}

		out := handler(remaining)
		consumed := out.Consumed
		if consumed < 0 {
			consumed = 0
		}
		if consumed > remaining {
			consumed = remaining
		}
		remaining -= consumed
		t.accrue(consumed)

		if t.Ended() || out.Suspended() {
			return remaining, nil
		}
		if err := t.SetPhase(out.Next); err != nil {
			return remaining, err
		}
		if remaining <= 0 {
			return 0, nil
		}
	}
	return remaining, nil
}

func (t *Task) accrue(consumed float64) {
	if consumed <= 0 {
		return
	}
	t.mu.Lock()
	t.effort += consumed
	t.mu.Unlock()
	if t.stressModifier != 0 {
		t.actor.Condition().AddStress(t.stressModifier * consumed)
	}
}

// AddExperience credits the task's skill for time worked and records level-ups
func (t *Task) AddExperience(timeWorked float64) {
	if t.skill == "" || timeWorked <= 0 {
		return
	}
	gained := t.actor.Skills().AddExperience(t.skill, timeWorked*t.ctx.Tuning.ExperiencePerWork)
	if gained > 0 {
		t.ctx.Publish(EventProducer, event.Event{
			Type:       event.TypeSkillGained,
			Settlement: t.actor.SettlementID(),
			Actor:      t.actor.ID(),
			Message:    fmt.Sprintf("%s reached %s level %d", t.actor.Name(), t.skill, t.actor.Skills().Level(t.skill)),
		})
	}
}

// SkillMultiplier is the work-rate factor from the actor's level in the task's skill
func (t *Task) SkillMultiplier() float64 {
	if t.skill == "" {
		return 1.0
	}
	return agent.SkillMultiplier(t.actor.Skills().Level(t.skill))
}

// RollAccident draws whether an accident happens during timeWorked at a
// facility with the given wear (0..100). Higher skill lowers the odds.
func (t *Task) RollAccident(timeWorked, wear float64) bool {
	level := 0
	if t.skill != "" {
		level = t.actor.Skills().Level(t.skill)
	}
	chance := t.ctx.Tuning.AccidentBaseChance * timeWorked * (1 + wear/100) / float64(level+1)
	if !shared.Chance(t.ctx.Rand, chance) {
		return false
	}
	t.ctx.Publish(EventProducer, event.Event{
		Type:       event.TypeAccident,
		Settlement: t.actor.SettlementID(),
		Actor:      t.actor.ID(),
		Message:    fmt.Sprintf("%s had an accident during %s", t.actor.Name(), t.name),
	})
	t.actor.Condition().AddStress(10)
	return true
}

// Snapshot captures phase, counters and terminal state
func (t *Task) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	counters := make(map[string]float64, len(t.counters))
	for k, v := range t.counters {
		counters[k] = v
	}
	return Snapshot{
		ID:       t.id,
		Name:     t.name,
		ActorID:  t.actor.ID(),
		Phase:    t.phase,
		Effort:   t.effort,
		Ended:    t.ended,
		Reason:   t.reason,
		Counters: counters,
	}
}
