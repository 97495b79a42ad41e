package task

import (
	"math"

	"github.com/andrescamacho/colonysim/internal/domain/agent"
	"github.com/andrescamacho/colonysim/internal/domain/guard"
	"github.com/andrescamacho/colonysim/internal/domain/settlement"
	"github.com/andrescamacho/colonysim/internal/domain/world"
)

const (
	RelaxName   = "Relax"
	WorkoutName = "Workout"

	PhaseRelaxing   Phase = "RELAXING"
	PhaseExercising Phase = "EXERCISING"

	relaxStress    = -0.3
	workoutStress  = -0.2
	workoutFatigue = 0.5

	// exhaustedFatigue rules out exercise
	exhaustedFatigue = 700.0
)

const (
	ReasonRelaxed     = "relaxed"
	ReasonNoGym       = "no gym available"
	ReasonGymFull     = "gym full"
	ReasonWorkoutDone = "workout finished"
)

// RelaxMeta describes taking a break, in a recreation room when one is free
func RelaxMeta() *MetaTask {
	return &MetaTask{
		Name:     RelaxName,
		Activity: agent.ActivityRelaxation,
		Score:    scoreRelax,
		New:      func(ctx *world.Context, a agent.Actor) Work { return NewRelax(ctx, a) },
	}
}

func scoreRelax(ctx *world.Context, a agent.Actor) float64 {
	if a.Kind() == agent.KindRobot {
		return 0
	}
	s, ok := settlementOf(ctx, a)
	if !ok {
		return 0
	}
	c := a.Condition()
	score := c.Stress() + c.Fatigue()/20
	rooms := guard.AvailableBuildings(s, settlement.FunctionRecreation, guard.BuildingConstraints{})
	if len(rooms) > 0 {
		score *= CrowdingModifier(rooms[0], settlement.FunctionRecreation) *
			RelationshipModifier(a, rooms[0], settlement.FunctionRecreation)
	} else {
		score /= 2
	}
	return Clamp(score)
}

// Relax lowers stress for a fixed duration
type Relax struct {
	*Task
	building *settlement.Building
	elapsed  float64
	duration float64
}

func NewRelax(ctx *world.Context, a agent.Actor) *Relax {
	t := &Relax{Task: NewTask(ctx, a, RelaxName), duration: ctx.Tuning.RelaxDuration}
	t.SetStressModifier(relaxStress)

	if s, ok := settlementOf(ctx, a); ok {
		b, found := guard.FindAvailableBuilding(ctx.Rand, a, s, settlement.FunctionRecreation, guard.BuildingConstraints{})
		if found && b.AddOccupant(settlement.FunctionRecreation, a.ID()) == nil {
			t.building = b
			a.SetBuildingID(b.ID())
			t.OnEnd(func() { b.RemoveOccupant(settlement.FunctionRecreation, a.ID()) })
		}
	}

	t.AddPhase(PhaseRelaxing, t.relaxing)
	_ = t.SetPhase(PhaseRelaxing)
	return t
}

// Building returns the recreation building, nil when relaxing in place
func (t *Relax) Building() *settlement.Building { return t.building }

func (t *Relax) relaxing(budget float64) Outcome {
	use := math.Max(0, math.Min(budget, t.duration-t.elapsed))
	t.elapsed += use
	t.SetCounter("elapsed", t.elapsed)
	if t.elapsed >= t.duration {
		t.Complete(ReasonRelaxed)
	}
	return Suspend(use)
}

// WorkoutMeta describes exercising in a gym
func WorkoutMeta() *MetaTask {
	return &MetaTask{
		Name:     WorkoutName,
		Activity: agent.ActivitySport,
		Score:    scoreWorkout,
		New:      func(ctx *world.Context, a agent.Actor) Work { return NewWorkout(ctx, a) },
	}
}

func scoreWorkout(ctx *world.Context, a agent.Actor) float64 {
	if a.Kind() == agent.KindRobot || a.Condition().Fatigue() > exhaustedFatigue {
		return 0
	}
	s, ok := settlementOf(ctx, a)
	if !ok {
		return 0
	}
	gyms := guard.AvailableBuildings(s, settlement.FunctionExercise, guard.BuildingConstraints{})
	if len(gyms) == 0 {
		return 0
	}
	f := settlement.FunctionExercise
	base := 10 + a.Condition().Stress()/2
	return Clamp(base * CrowdingModifier(gyms[0], f) * RelationshipModifier(a, gyms[0], f) * PerformanceModifier(a))
}

// Workout lowers stress at the cost of fatigue
type Workout struct {
	*Task
	building *settlement.Building
	elapsed  float64
	duration float64
}

func NewWorkout(ctx *world.Context, a agent.Actor) *Workout {
	t := &Workout{Task: NewTask(ctx, a, WorkoutName), duration: ctx.Tuning.WorkoutDuration}
	t.SetStressModifier(workoutStress)

	s, ok := settlementOf(ctx, a)
	if !ok {
		t.End(ReasonNotInSettlement)
		return t
	}
	b, ok := guard.FindAvailableBuilding(ctx.Rand, a, s, settlement.FunctionExercise, guard.BuildingConstraints{})
	if !ok {
		t.End(ReasonNoGym)
		return t
	}
	if err := b.AddOccupant(settlement.FunctionExercise, a.ID()); err != nil {
		t.End(ReasonGymFull)
		return t
	}
	t.building = b
	a.SetBuildingID(b.ID())
	t.OnEnd(func() { b.RemoveOccupant(settlement.FunctionExercise, a.ID()) })

	t.AddPhase(PhaseExercising, t.exercising)
	_ = t.SetPhase(PhaseExercising)
	return t
}

func (t *Workout) exercising(budget float64) Outcome {
	if t.building.HasMalfunction() {
		t.End("gym malfunction")
		return Suspend(0)
	}
	use := math.Max(0, math.Min(budget, t.duration-t.elapsed))
	t.elapsed += use
	t.Actor().Condition().AddFatigue(workoutFatigue * use)
	t.SetCounter("elapsed", t.elapsed)
	if t.elapsed >= t.duration {
		t.Complete(ReasonWorkoutDone)
	}
	return Suspend(use)
}
